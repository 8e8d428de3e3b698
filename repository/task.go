package repository

import (
	"context"

	"github.com/taskloop/backend/domain"
)

// TaskRepository is the persistence contract for tasks. ListByOwner returns
// the owner's tasks ordered by deadline ascending. Create assigns the id and
// server-set timestamps. Update and Delete report domain.ErrTaskNotFound
// when the row does not exist.
type TaskRepository interface {
	GetByID(ctx context.Context, id string) (*domain.Task, error)
	ListByOwner(ctx context.Context, ownerID string) ([]domain.Task, error)
	Create(ctx context.Context, task *domain.Task) (*domain.Task, error)
	Update(ctx context.Context, task *domain.Task) error
	Delete(ctx context.Context, id string) error
}
