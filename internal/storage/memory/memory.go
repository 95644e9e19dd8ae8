// Package memory implements an in-process storage.Store.
package memory

import (
	"context"
	"slices"
	"strings"
	"sync"

	"github.com/xenking/marketbarrio/internal/storage"
)

var (
	_ storage.Store  = (*Store)(nil)
	_ storage.Lister = (*Store)(nil)
)

// Store keeps values in a map. The zero value is not usable; use New.
type Store struct {
	mu     sync.RWMutex
	values map[string]string
}

// New returns an empty Store.
func New() *Store {
	return &Store{values: make(map[string]string)}
}

// Get returns the value stored under key.
func (s *Store) Get(_ context.Context, key string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	v, ok := s.values[key]
	if !ok {
		return "", storage.ErrNotFound
	}
	return v, nil
}

// Set stores value under key.
func (s *Store) Set(_ context.Context, key, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.values[key] = value
	return nil
}

// Keys returns the sorted keys starting with prefix.
func (s *Store) Keys(_ context.Context, prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []string
	for k := range s.values {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	slices.Sort(keys)
	return keys, nil
}
