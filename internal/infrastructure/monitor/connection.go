package monitor

import (
	"context"
	"sync"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
	redislib "github.com/redis/go-redis/v9"
	boltdb "go.etcd.io/bbolt"
	"go.uber.org/zap"
)

// Monitor periodically pings the storage dependencies of the active mode
// and exposes the latest result for the health endpoint. Dependencies not
// used by the mode are passed as nil and skipped.
type Monitor struct {
	mode  string
	pg    *pgxpool.Pool
	redis *redislib.Client
	bolt  *boltdb.DB

	status   Status
	mu       sync.RWMutex
	interval time.Duration
	stopCh   chan struct{}
	logger   *zap.Logger
}

func New(mode string, pg *pgxpool.Pool, redis *redislib.Client, bolt *boltdb.DB, interval time.Duration, logger *zap.Logger) *Monitor {
	if interval <= 0 {
		interval = 10 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Monitor{
		mode:     mode,
		pg:       pg,
		redis:    redis,
		bolt:     bolt,
		interval: interval,
		stopCh:   make(chan struct{}),
		logger:   logger,
	}
}

func (m *Monitor) Start() {
	go m.loop()
}

func (m *Monitor) Stop() {
	close(m.stopCh)
}

func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.status
}

func (m *Monitor) loop() {
	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	m.refresh()
	for {
		select {
		case <-ticker.C:
			m.refresh()
		case <-m.stopCh:
			return
		}
	}
}

func (m *Monitor) refresh() {
	status := Status{
		Mode:       m.mode,
		PostgreSQL: m.checkPostgres(),
		Redis:      m.checkRedis(),
		Bolt:       m.checkBolt(),
		LastCheck:  time.Now(),
	}

	m.mu.Lock()
	m.status = status
	m.mu.Unlock()

	if !status.Healthy() {
		m.logger.Warn("storage dependencies unhealthy",
			zap.Bool("postgresql", status.PostgreSQL),
			zap.Bool("redis", status.Redis),
			zap.Bool("bolt", status.Bolt),
		)
	}
}

func (m *Monitor) checkPostgres() bool {
	if m.pg == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 3*time.Second)
	defer cancel()
	return m.pg.Ping(ctx) == nil
}

func (m *Monitor) checkRedis() bool {
	if m.redis == nil {
		return false
	}
	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	return m.redis.Ping(ctx).Err() == nil
}

func (m *Monitor) checkBolt() bool {
	if m.bolt == nil {
		return false
	}
	return m.bolt.Path() != ""
}
