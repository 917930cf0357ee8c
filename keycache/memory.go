package keycache

import (
	"context"
	"sync"

	"github.com/IsabellHansen/zamapp/interfaces"
)

// MemoryStore is an in-process cache store, useful for tests and for the
// memory:// scheme.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string][]byte
}

// NewMemoryStore creates an empty memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{entries: make(map[string][]byte)}
}

// Get returns the value stored for key, or ErrCacheMiss.
func (s *MemoryStore) Get(ctx context.Context, key string) ([]byte, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, ok := s.entries[key]
	if !ok {
		return nil, interfaces.ErrCacheMiss
	}
	return data, nil
}

// Put stores the value for key, overwriting any previous value.
func (s *MemoryStore) Put(ctx context.Context, key string, data []byte) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[key] = data
	return nil
}

// Available always reports true.
func (s *MemoryStore) Available(ctx context.Context) bool {
	return true
}

// Name returns a unique identifier for this store.
func (s *MemoryStore) Name() string {
	return "memory"
}
