package task

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/taskloop/backend/domain"
)

// fakeRepo is an in-memory TaskRepository honoring the same ordering and
// not-found contract as the real implementations.
type fakeRepo struct {
	mu    sync.Mutex
	tasks map[string]domain.Task
	next  int
	fail  error
}

func newFakeRepo() *fakeRepo {
	return &fakeRepo{tasks: make(map[string]domain.Task)}
}

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	task, ok := r.tasks[id]
	if !ok {
		return nil, domain.ErrTaskNotFound
	}
	return &task, nil
}

func (r *fakeRepo) ListByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	var out []domain.Task
	for _, task := range r.tasks {
		if task.OwnerID == ownerID {
			out = append(out, task)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Deadline.Before(out[j].Deadline)
	})
	return out, nil
}

func (r *fakeRepo) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return nil, r.fail
	}
	r.next++
	task.ID = fmt.Sprintf("t%d", r.next)
	task.CreatedAt = time.Now()
	task.UpdatedAt = task.CreatedAt
	r.tasks[task.ID] = *task
	return task, nil
}

func (r *fakeRepo) Update(ctx context.Context, task *domain.Task) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	if _, ok := r.tasks[task.ID]; !ok {
		return domain.ErrTaskNotFound
	}
	task.UpdatedAt = time.Now()
	r.tasks[task.ID] = *task
	return nil
}

func (r *fakeRepo) Delete(ctx context.Context, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.fail != nil {
		return r.fail
	}
	if _, ok := r.tasks[id]; !ok {
		return domain.ErrTaskNotFound
	}
	delete(r.tasks, id)
	return nil
}

func deadline(t *testing.T, value string) domain.Date {
	t.Helper()
	d, err := domain.ParseDate(value)
	require.NoError(t, err)
	return d
}

func TestStoreCreateToggleRemoveScenario(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	store := NewStore("alice", repo, nil)

	created, err := store.Create(ctx, "Renew passport", deadline(t, "2024-07-01"))
	require.NoError(t, err)
	require.NotEmpty(t, created.ID)
	assert.Equal(t, domain.StatusPending, created.Status)
	assert.Nil(t, created.FinishedAt)

	tasks, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)

	toggled, err := store.Toggle(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusDone, toggled.Status)
	require.NotNil(t, toggled.FinishedAt)
	assert.False(t, toggled.FinishedAt.IsZero())

	require.NoError(t, store.Remove(ctx, created.ID))

	tasks, err = store.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)

	err = store.Remove(ctx, created.ID)
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeNotFound))
}

func TestStoreToggleTwiceRestoresPending(t *testing.T) {
	ctx := context.Background()
	store := NewStore("alice", newFakeRepo(), nil)

	created, err := store.Create(ctx, "Water plants", deadline(t, "2024-06-20"))
	require.NoError(t, err)

	once, err := store.Toggle(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, domain.StatusDone, once.Status)
	require.NotNil(t, once.FinishedAt)

	twice, err := store.Toggle(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, domain.StatusPending, twice.Status)
	assert.Nil(t, twice.FinishedAt)
}

func TestStoreCreateValidation(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	store := NewStore("alice", repo, nil)

	tests := []struct {
		name     string
		text     string
		deadline domain.Date
	}{
		{name: "empty text", text: "", deadline: deadline(t, "2024-07-01")},
		{name: "whitespace text", text: "   ", deadline: deadline(t, "2024-07-01")},
		{name: "missing deadline", text: "Write report", deadline: domain.Date{}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := store.Create(ctx, tt.text, tt.deadline)
			require.Error(t, err)
			assert.True(t, domain.IsDomainError(err, domain.ErrCodeInvalid))
		})
	}

	// validation happens before the repository sees anything
	assert.Empty(t, repo.tasks)
}

func TestStoreUpdateTrimsAndPreservesStatus(t *testing.T) {
	ctx := context.Background()
	store := NewStore("alice", newFakeRepo(), nil)

	created, err := store.Create(ctx, "Buy milk", deadline(t, "2024-06-20"))
	require.NoError(t, err)
	_, err = store.Toggle(ctx, created.ID)
	require.NoError(t, err)

	updated, err := store.Update(ctx, created.ID, "  Buy oat milk  ", deadline(t, "2024-06-25"))
	require.NoError(t, err)
	assert.Equal(t, "Buy oat milk", updated.Text)
	assert.Equal(t, deadline(t, "2024-06-25"), updated.Deadline)
	// editing must not touch the lifecycle state
	assert.Equal(t, domain.StatusDone, updated.Status)
	assert.NotNil(t, updated.FinishedAt)
}

func TestStoreRejectsForeignTasks(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()

	aliceStore := NewStore("alice", repo, nil)
	created, err := aliceStore.Create(ctx, "Alice's task", deadline(t, "2024-07-01"))
	require.NoError(t, err)

	bobStore := NewStore("bob", repo, nil)

	_, err = bobStore.Update(ctx, created.ID, "hijacked", deadline(t, "2024-07-02"))
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))

	_, err = bobStore.Toggle(ctx, created.ID)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))

	err = bobStore.Remove(ctx, created.ID)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeForbidden))

	// the task is untouched
	stored, err := repo.GetByID(ctx, created.ID)
	require.NoError(t, err)
	assert.Equal(t, "Alice's task", stored.Text)
	assert.Equal(t, domain.StatusPending, stored.Status)

	// bob's own view never contained it
	tasks, err := bobStore.Snapshot(ctx)
	require.NoError(t, err)
	assert.Empty(t, tasks)
}

func TestStoreUnavailableLeavesWorkingCopyIntact(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	store := NewStore("alice", repo, nil)

	created, err := store.Create(ctx, "Stable task", deadline(t, "2024-07-01"))
	require.NoError(t, err)

	repo.mu.Lock()
	repo.fail = errors.New("connection refused")
	repo.mu.Unlock()

	_, err = store.Create(ctx, "Doomed task", deadline(t, "2024-07-02"))
	require.Error(t, err)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnavailable))

	_, err = store.Toggle(ctx, created.ID)
	assert.True(t, domain.IsDomainError(err, domain.ErrCodeUnavailable))

	repo.mu.Lock()
	repo.fail = nil
	repo.mu.Unlock()

	tasks, err := store.Snapshot(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 1)
	assert.Equal(t, "Stable task", tasks[0].Text)
	assert.Equal(t, domain.StatusPending, tasks[0].Status)
}

func TestStoreLoadReplacesWorkingCopy(t *testing.T) {
	ctx := context.Background()
	repo := newFakeRepo()
	store := NewStore("alice", repo, nil)

	_, err := store.Create(ctx, "Later task", deadline(t, "2024-07-10"))
	require.NoError(t, err)
	_, err = store.Create(ctx, "Earlier task", deadline(t, "2024-07-01"))
	require.NoError(t, err)

	tasks, err := store.Load(ctx)
	require.NoError(t, err)
	require.Len(t, tasks, 2)
	// repository contract: deadline ascending
	assert.Equal(t, "Earlier task", tasks[0].Text)
	assert.Equal(t, "Later task", tasks[1].Text)
}

func TestManagerReturnsSameStorePerUser(t *testing.T) {
	manager := NewManager(newFakeRepo(), nil)

	first := manager.ForUser("alice")
	second := manager.ForUser("alice")
	other := manager.ForUser("bob")

	assert.Same(t, first, second)
	assert.NotSame(t, first, other)

	manager.Evict("alice")
	assert.NotSame(t, first, manager.ForUser("alice"))
}
