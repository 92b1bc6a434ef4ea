// Package prefs persists the two user preferences that survive restarts: the
// pasted card URL and the selected display currency. Nothing else is stored.
package prefs

import (
	"context"
	"sync"
)

const (
	// KeyCardURL is the saved card reference string.
	KeyCardURL = "card_url"
	// KeyCurrency is the selected three-letter display currency code.
	KeyCurrency = "selected_currency"
)

// Store persists user preferences. Get returns the empty string for keys that
// were never set or were deleted.
type Store interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key, value string) error
	Delete(ctx context.Context, key string) error
}

type memoryStore struct {
	mu     sync.RWMutex
	values map[string]string
}

// NewMemoryStore constructs an in-memory store used when Redis is not
// configured and in tests.
func NewMemoryStore() Store {
	return &memoryStore{values: make(map[string]string)}
}

func (s *memoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.values[key], nil
}

func (s *memoryStore) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.values[key] = value
	return nil
}

func (s *memoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.values, key)
	return nil
}
