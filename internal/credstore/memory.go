package credstore

import (
	"context"
	"sync"
)

// MemoryStore is an in-memory credential store. It backs tests and
// sandboxed environments where NATS is unavailable.
type MemoryStore struct {
	mu     sync.RWMutex
	values map[string]string

	// Fail forces every operation to return ErrUnavailable. Tests use
	// it to exercise the store-unavailable path.
	Fail bool
}

// NewMemoryStore creates an empty in-memory store.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (s *MemoryStore) Get(ctx context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.Fail {
		return "", ErrUnavailable
	}
	v, ok := s.values[key]
	if !ok {
		return "", ErrNotFound
	}
	return v, nil
}

// Set stores value under key.
func (s *MemoryStore) Set(ctx context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fail {
		return ErrUnavailable
	}
	s.values[key] = value
	return nil
}

// Delete removes the value under key.
func (s *MemoryStore) Delete(ctx context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.Fail {
		return ErrUnavailable
	}
	delete(s.values, key)
	return nil
}
