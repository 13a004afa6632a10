package checkpoint

import (
	"context"
	"sync"
)

// InMemoryStore is a thread-safe map-backed Store suitable for development
// and tests. Snapshots are copied on both write and read.
type InMemoryStore struct {
	mu        sync.RWMutex
	snapshots map[string][]byte
}

// NewInMemoryStore creates an empty in-memory checkpoint store.
func NewInMemoryStore() *InMemoryStore {
	return &InMemoryStore{snapshots: map[string][]byte{}}
}

// Save implements Store.
func (s *InMemoryStore) Save(_ context.Context, sessionID string, snapshot []byte) error {
	cp := make([]byte, len(snapshot))
	copy(cp, snapshot)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.snapshots[sessionID] = cp
	return nil
}

// Load implements Store.
func (s *InMemoryStore) Load(_ context.Context, sessionID string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snapshot, ok := s.snapshots[sessionID]
	if !ok {
		return nil, ErrNotFound
	}
	cp := make([]byte, len(snapshot))
	copy(cp, snapshot)
	return cp, nil
}

// Delete implements Store.
func (s *InMemoryStore) Delete(_ context.Context, sessionID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.snapshots, sessionID)
	return nil
}
