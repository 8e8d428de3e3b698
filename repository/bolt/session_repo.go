package bolt

import (
	"context"
	"encoding/json"
	"time"

	boltdb "go.etcd.io/bbolt"

	"github.com/taskloop/backend/domain"
	infra "github.com/taskloop/backend/internal/infrastructure/bolt"
)

// SessionRepository stores sessions in BoltDB for demo mode. Bolt has no
// TTL, so expired entries linger until SweepExpired runs.
type SessionRepository struct {
	db  *boltdb.DB
	ttl time.Duration
}

// NewSessionRepository creates a BoltDB-backed session repository.
func NewSessionRepository(db *boltdb.DB, ttl time.Duration) *SessionRepository {
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &SessionRepository{db: db, ttl: ttl}
}

func (r *SessionRepository) Get(ctx context.Context, id string) (*domain.Session, error) {
	var session *domain.Session
	err := r.db.View(func(tx *boltdb.Tx) error {
		raw := tx.Bucket(infra.BucketSessions).Get([]byte(id))
		if raw == nil {
			return domain.ErrSessionNotFound
		}
		session = &domain.Session{}
		return json.Unmarshal(raw, session)
	})
	if err != nil {
		return nil, err
	}
	if session.IsExpired(time.Now()) {
		_ = r.Delete(ctx, id)
		return nil, domain.ErrSessionNotFound
	}
	return session, nil
}

func (r *SessionRepository) Save(ctx context.Context, session *domain.Session) error {
	if session == nil || session.ID == "" {
		return domain.ErrInvalidPayload
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	if session.ExpiresAt.Before(session.CreatedAt) {
		session.ExpiresAt = session.CreatedAt.Add(r.ttl)
	}

	raw, err := json.Marshal(session)
	if err != nil {
		return err
	}
	return r.db.Update(func(tx *boltdb.Tx) error {
		return tx.Bucket(infra.BucketSessions).Put([]byte(session.ID), raw)
	})
}

func (r *SessionRepository) Delete(ctx context.Context, id string) error {
	return r.db.Update(func(tx *boltdb.Tx) error {
		return tx.Bucket(infra.BucketSessions).Delete([]byte(id))
	})
}

// SweepExpired removes sessions that expired before the reference instant
// and returns how many were evicted.
func (r *SessionRepository) SweepExpired(ctx context.Context, reference time.Time) (int, error) {
	var removed int
	err := r.db.Update(func(tx *boltdb.Tx) error {
		c := tx.Bucket(infra.BucketSessions).Cursor()
		for k, v := c.First(); k != nil; k, v = c.Next() {
			var session domain.Session
			if err := json.Unmarshal(v, &session); err != nil {
				continue
			}
			if session.IsExpired(reference) {
				if err := c.Delete(); err != nil {
					return err
				}
				removed++
			}
		}
		return nil
	})
	return removed, err
}
