package task

import (
	"sync"

	"go.uber.org/zap"

	"github.com/taskloop/backend/repository"
)

// Manager hands out one Store per user, created lazily at the single
// acquisition point. It is constructed once at boot and injected, never
// reached through a package-level global.
type Manager struct {
	repo   repository.TaskRepository
	logger *zap.Logger

	mu     sync.RWMutex
	stores map[string]*Store
}

// NewManager builds a store manager over the given repository.
func NewManager(repo repository.TaskRepository, logger *zap.Logger) *Manager {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Manager{
		repo:   repo,
		logger: logger,
		stores: make(map[string]*Store),
	}
}

// ForUser returns the working copy for the given owner, creating it on
// first access.
func (m *Manager) ForUser(ownerID string) *Store {
	m.mu.RLock()
	store, ok := m.stores[ownerID]
	m.mu.RUnlock()
	if ok {
		return store
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if store, ok := m.stores[ownerID]; ok {
		return store
	}
	store = NewStore(ownerID, m.repo, m.logger)
	m.stores[ownerID] = store
	return store
}

// Evict drops a user's working copy, typically on sign-out.
func (m *Manager) Evict(ownerID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, ownerID)
}
