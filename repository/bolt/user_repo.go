package bolt

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	boltdb "go.etcd.io/bbolt"

	"github.com/taskloop/backend/domain"
	infra "github.com/taskloop/backend/internal/infrastructure/bolt"
	"github.com/taskloop/backend/repository"
)

type userRepository struct {
	db *boltdb.DB
}

// NewUserRepository returns a BoltDB-backed UserRepository used in demo
// mode. A secondary bucket indexes emails for uniqueness and lookup.
func NewUserRepository(db *boltdb.DB) repository.UserRepository {
	return &userRepository{db: db}
}

func (r *userRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	var user *domain.User
	err := r.db.View(func(tx *boltdb.Tx) error {
		raw := tx.Bucket(infra.BucketUsers).Get([]byte(id))
		if raw == nil {
			return domain.ErrUserNotFound
		}
		user = &domain.User{}
		return json.Unmarshal(raw, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	var user *domain.User
	err := r.db.View(func(tx *boltdb.Tx) error {
		id := tx.Bucket(infra.BucketUserEmails).Get([]byte(normalizeEmail(email)))
		if id == nil {
			return domain.ErrUserNotFound
		}
		raw := tx.Bucket(infra.BucketUsers).Get(id)
		if raw == nil {
			return domain.ErrUserNotFound
		}
		user = &domain.User{}
		return json.Unmarshal(raw, user)
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func (r *userRepository) Create(ctx context.Context, user *domain.User) (*domain.User, error) {
	if user == nil {
		return nil, domain.ErrInvalidPayload
	}
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	user.Email = normalizeEmail(user.Email)
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	err := r.db.Update(func(tx *boltdb.Tx) error {
		emails := tx.Bucket(infra.BucketUserEmails)
		if emails.Get([]byte(user.Email)) != nil {
			return domain.ErrEmailTaken
		}
		raw, err := json.Marshal(user)
		if err != nil {
			return err
		}
		if err := tx.Bucket(infra.BucketUsers).Put([]byte(user.ID), raw); err != nil {
			return err
		}
		return emails.Put([]byte(user.Email), []byte(user.ID))
	})
	if err != nil {
		return nil, err
	}
	return user, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
