package task

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/taskloop/backend/domain"
	"github.com/taskloop/backend/repository"
)

// Store holds the in-memory working copy of one user's tasks. Every
// mutation is sent to the repository first and reconciled into the copy
// only after the repository acknowledges it, so a failed call never leaves
// a half-applied state behind. The mutex serializes mutations: at most one
// is in flight per user at any time.
type Store struct {
	ownerID string
	repo    repository.TaskRepository
	logger  *zap.Logger

	mu     sync.Mutex
	tasks  []domain.Task
	loaded bool
}

// NewStore creates a working copy bound to one owner.
func NewStore(ownerID string, repo repository.TaskRepository, logger *zap.Logger) *Store {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Store{
		ownerID: ownerID,
		repo:    repo,
		logger:  logger,
	}
}

// Load fetches all tasks owned by the user, ordered by deadline ascending,
// and replaces the working copy wholesale.
func (s *Store) Load(ctx context.Context) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	tasks, err := s.repo.ListByOwner(ctx, s.ownerID)
	if err != nil {
		return nil, classify(err)
	}

	s.tasks = tasks
	s.loaded = true
	return s.snapshotLocked(), nil
}

// Create validates input, inserts the task, and appends the stored row
// (with its assigned id and timestamps) to the working copy.
func (s *Store) Create(ctx context.Context, text string, deadline domain.Date) (*domain.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ValidationError("task text must not be empty")
	}
	if deadline.IsZero() {
		return nil, domain.ValidationError("task deadline is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	task := &domain.Task{
		OwnerID:  s.ownerID,
		Text:     text,
		Deadline: deadline,
		Status:   domain.StatusPending,
	}

	created, err := s.repo.Create(ctx, task)
	if err != nil {
		return nil, classify(err)
	}

	s.tasks = append(s.tasks, *created)
	s.logger.Debug("task created", zap.String("task_id", created.ID))
	return created, nil
}

// Update edits text and deadline of an owned task. Status and completion
// time are preserved from the current stored row.
func (s *Store) Update(ctx context.Context, id, text string, deadline domain.Date) (*domain.Task, error) {
	text = strings.TrimSpace(text)
	if text == "" {
		return nil, domain.ValidationError("task text must not be empty")
	}
	if deadline.IsZero() {
		return nil, domain.ValidationError("task deadline is required")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.fetchOwned(ctx, id)
	if err != nil {
		return nil, err
	}

	current.Text = text
	current.Deadline = deadline

	if err := s.repo.Update(ctx, current); err != nil {
		return nil, classify(err)
	}

	s.replaceLocked(*current)
	return current, nil
}

// Toggle flips the task's status, stamping or clearing the completion time
// per the lifecycle rule. The decision is based on the stored row, not the
// working copy, so a stale copy cannot double-complete a task.
func (s *Store) Toggle(ctx context.Context, id string) (*domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	current, err := s.fetchOwned(ctx, id)
	if err != nil {
		return nil, err
	}

	if current.IsDone() {
		current.MarkPending()
	} else {
		current.MarkDone(time.Now())
	}

	if err := s.repo.Update(ctx, current); err != nil {
		return nil, classify(err)
	}

	s.replaceLocked(*current)
	return current, nil
}

// Remove deletes an owned task. Removing an unknown or already-removed id
// fails with not found rather than succeeding silently.
func (s *Store) Remove(ctx context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.fetchOwned(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return classify(err)
	}

	kept := s.tasks[:0]
	for _, t := range s.tasks {
		if t.ID != id {
			kept = append(kept, t)
		}
	}
	s.tasks = kept
	return nil
}

// Snapshot returns a copy of the working set, loading it on first use.
func (s *Store) Snapshot(ctx context.Context) ([]domain.Task, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.loaded {
		tasks, err := s.repo.ListByOwner(ctx, s.ownerID)
		if err != nil {
			return nil, classify(err)
		}
		s.tasks = tasks
		s.loaded = true
	}
	return s.snapshotLocked(), nil
}

// fetchOwned re-reads the stored row and enforces ownership before any
// mutation commits.
func (s *Store) fetchOwned(ctx context.Context, id string) (*domain.Task, error) {
	current, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, classify(err)
	}
	if current.OwnerID != s.ownerID {
		s.logger.Warn("ownership check rejected task access",
			zap.String("task_id", id),
			zap.String("owner_id", current.OwnerID),
		)
		return nil, domain.ErrForbidden
	}
	return current, nil
}

func (s *Store) replaceLocked(task domain.Task) {
	for i := range s.tasks {
		if s.tasks[i].ID == task.ID {
			s.tasks[i] = task
			return
		}
	}
	s.tasks = append(s.tasks, task)
}

func (s *Store) snapshotLocked() []domain.Task {
	out := make([]domain.Task, len(s.tasks))
	copy(out, s.tasks)
	return out
}

// classify maps repository failures onto the domain taxonomy. Domain errors
// pass through untouched; anything else is a collaborator outage.
func classify(err error) error {
	var dErr *domain.Error
	if errors.As(err, &dErr) {
		return err
	}
	return domain.Unavailable(err)
}
