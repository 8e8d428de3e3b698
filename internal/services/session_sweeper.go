package services

import (
	"context"
	"fmt"
	"time"

	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// SessionSweeper evicts expired sessions from backends without native TTL
// support (the BoltDB demo store). Redis expires its own entries, so the
// sweeper is only scheduled in demo mode.
type SessionSweeper struct {
	sessions ExpiringSessionStore
	interval time.Duration
	logger   *zap.Logger
	cron     *cron.Cron
}

// ExpiringSessionStore is the subset of session storage the sweeper needs.
type ExpiringSessionStore interface {
	SweepExpired(ctx context.Context, reference time.Time) (int, error)
}

// NewSessionSweeper builds a sweeper over the given store.
func NewSessionSweeper(sessions ExpiringSessionStore, interval time.Duration, logger *zap.Logger) *SessionSweeper {
	if interval <= 0 {
		interval = 10 * time.Minute
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SessionSweeper{
		sessions: sessions,
		interval: interval,
		logger:   logger,
		cron:     cron.New(),
	}
}

// Start schedules the periodic sweep.
func (s *SessionSweeper) Start() error {
	spec := fmt.Sprintf("@every %s", s.interval)
	if _, err := s.cron.AddFunc(spec, s.sweep); err != nil {
		return err
	}
	s.cron.Start()
	return nil
}

// Stop halts the schedule, waiting for an in-flight sweep to finish.
func (s *SessionSweeper) Stop(ctx context.Context) {
	stopped := s.cron.Stop()
	select {
	case <-stopped.Done():
	case <-ctx.Done():
	}
}

func (s *SessionSweeper) sweep() {
	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	removed, err := s.sessions.SweepExpired(ctx, time.Now())
	if err != nil {
		s.logger.Error("session sweep failed", zap.Error(err))
		return
	}
	if removed > 0 {
		s.logger.Info("expired sessions evicted", zap.Int("count", removed))
	}
}
