package memory

import (
	"context"
	"sync"

	"github.com/avelane/cartwish/internal/kvstore"
)

// Store implements kvstore.Store using an in-memory map. Used in tests and
// for local development without a Redis or Postgres instance.
type Store struct {
	mu    sync.RWMutex
	blobs map[string][]byte

	// FailSaves makes every Save return an error; tests use it to exercise
	// the swallow-on-write-failure policy of the cart store.
	FailSaves error
}

// New creates an empty in-memory blob store.
func New() *Store {
	return &Store{blobs: make(map[string][]byte)}
}

// Load returns the blob stored under key.
func (s *Store) Load(_ context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	value, ok := s.blobs[key]
	if !ok {
		return nil, kvstore.ErrNotFound
	}
	cp := make([]byte, len(value))
	copy(cp, value)
	return cp, nil
}

// Save overwrites the blob stored under key.
func (s *Store) Save(_ context.Context, key string, value []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.FailSaves != nil {
		return s.FailSaves
	}

	cp := make([]byte, len(value))
	copy(cp, value)
	s.blobs[key] = cp
	return nil
}

// Remove deletes the key. Removing an absent key is a no-op.
func (s *Store) Remove(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.blobs, key)
	return nil
}

// Len reports the number of stored keys.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.blobs)
}
