package bolt

import (
	"context"
	"encoding/json"
	"sort"
	"time"

	"github.com/google/uuid"
	boltdb "go.etcd.io/bbolt"

	"github.com/taskloop/backend/domain"
	infra "github.com/taskloop/backend/internal/infrastructure/bolt"
	"github.com/taskloop/backend/repository"
)

type taskRepository struct {
	db *boltdb.DB
}

// NewTaskRepository returns a BoltDB-backed TaskRepository used in demo
// mode. It honors the same ordering and not-found contract as the Postgres
// implementation.
func NewTaskRepository(db *boltdb.DB) repository.TaskRepository {
	return &taskRepository{db: db}
}

func (r *taskRepository) GetByID(ctx context.Context, id string) (*domain.Task, error) {
	var task *domain.Task
	err := r.db.View(func(tx *boltdb.Tx) error {
		raw := tx.Bucket(infra.BucketTasks).Get([]byte(id))
		if raw == nil {
			return domain.ErrTaskNotFound
		}
		task = &domain.Task{}
		return json.Unmarshal(raw, task)
	})
	if err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) ListByOwner(ctx context.Context, ownerID string) ([]domain.Task, error) {
	var tasks []domain.Task
	err := r.db.View(func(tx *boltdb.Tx) error {
		c := tx.Bucket(infra.BucketTasks).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var task domain.Task
			if err := json.Unmarshal(v, &task); err != nil {
				continue
			}
			if task.OwnerID == ownerID {
				tasks = append(tasks, task)
			}
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].Deadline.Before(tasks[j].Deadline)
	})
	return tasks, nil
}

func (r *taskRepository) Create(ctx context.Context, task *domain.Task) (*domain.Task, error) {
	if task == nil {
		return nil, domain.ErrInvalidPayload
	}
	if task.ID == "" {
		task.ID = uuid.NewString()
	}
	now := time.Now()
	task.CreatedAt = now
	task.UpdatedAt = now

	if err := r.put(task); err != nil {
		return nil, err
	}
	return task, nil
}

func (r *taskRepository) Update(ctx context.Context, task *domain.Task) error {
	if task == nil {
		return domain.ErrInvalidPayload
	}
	return r.db.Update(func(tx *boltdb.Tx) error {
		bucket := tx.Bucket(infra.BucketTasks)
		if bucket.Get([]byte(task.ID)) == nil {
			return domain.ErrTaskNotFound
		}
		task.UpdatedAt = time.Now()
		raw, err := json.Marshal(task)
		if err != nil {
			return err
		}
		return bucket.Put([]byte(task.ID), raw)
	})
}

func (r *taskRepository) Delete(ctx context.Context, id string) error {
	return r.db.Update(func(tx *boltdb.Tx) error {
		bucket := tx.Bucket(infra.BucketTasks)
		if bucket.Get([]byte(id)) == nil {
			return domain.ErrTaskNotFound
		}
		return bucket.Delete([]byte(id))
	})
}

func (r *taskRepository) put(task *domain.Task) error {
	raw, err := json.Marshal(task)
	if err != nil {
		return err
	}
	return r.db.Update(func(tx *boltdb.Tx) error {
		return tx.Bucket(infra.BucketTasks).Put([]byte(task.ID), raw)
	})
}
