package store

import (
	"context"
	"log/slog"
	"sync"

	"github.com/avelane/cartwish/internal/kvstore"
	"github.com/avelane/cartwish/internal/notify"
)

// Manager hands out at most one Store per session, hydrating lazily on
// first use. It replaces the ambient global the original storefront
// pattern relied on: the single instance lives here and is injected into
// consumers explicitly.
type Manager struct {
	backing  kvstore.Store
	notifier notify.Notifier
	events   EventPublisher
	logger   *slog.Logger

	mu     sync.Mutex
	stores map[string]*Store
}

// NewManager creates a store manager over the given backing store.
func NewManager(backing kvstore.Store, notifier notify.Notifier, events EventPublisher, logger *slog.Logger) *Manager {
	return &Manager{
		backing:  backing,
		notifier: notifier,
		events:   events,
		logger:   logger,
		stores:   make(map[string]*Store),
	}
}

// Get returns the store for the session, hydrating it from the backing
// store on first access.
func (m *Manager) Get(ctx context.Context, sessionID string) *Store {
	m.mu.Lock()
	defer m.mu.Unlock()

	if s, ok := m.stores[sessionID]; ok {
		return s
	}

	s := New(ctx, sessionID, m.backing, m.notifier, m.events, m.logger)
	m.stores[sessionID] = s
	return s
}

// Evict drops the in-memory store for a session. Durable state is
// untouched; the next Get re-hydrates from the backing store.
func (m *Manager) Evict(sessionID string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.stores, sessionID)
}

// Len reports the number of resident session stores.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.stores)
}
