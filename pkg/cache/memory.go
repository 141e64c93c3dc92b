package cache

import (
	"context"
	"sync"
	"time"
)

// MemoryStore is the default in-process cache backend. Each resource
// controller owns its own instance, so entries are never shared
// between independent controllers, even for identical endpoints.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]*Entry
	ttl     time.Duration
}

// NewMemoryStore creates an in-memory store whose entries expire after
// the given TTL.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]*Entry),
		ttl:     ttl,
	}
}

// Get retrieves an entry by key. Returns ErrCacheMiss for absent or
// expired keys; expired entries are evicted on read.
func (s *MemoryStore) Get(_ context.Context, key string) (*Entry, error) {
	s.mu.RLock()
	entry, ok := s.entries[key]
	s.mu.RUnlock()

	if !ok {
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	if entry.Expired(s.ttl) {
		s.mu.Lock()
		delete(s.entries, key)
		s.mu.Unlock()
		CacheMisses.Inc()
		return nil, ErrCacheMiss
	}

	CacheHits.WithLabelValues("memory").Inc()
	return entry, nil
}

// Set stores an entry under its key. A zero or negative TTL disables
// storage entirely.
func (s *MemoryStore) Set(_ context.Context, entry *Entry) error {
	if entry == nil {
		return ErrInvalidEntry
	}
	if s.ttl <= 0 {
		return nil
	}

	s.mu.Lock()
	s.entries[entry.Key] = entry
	s.mu.Unlock()

	CacheSize.WithLabelValues("memory").Add(float64(len(entry.Payload)))
	return nil
}

// Has reports whether a live (non-expired) entry exists for key.
func (s *MemoryStore) Has(ctx context.Context, key string) bool {
	_, err := s.Get(ctx, key)
	return err == nil
}

// Delete removes an entry. Idempotent - no error on miss.
func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	delete(s.entries, key)
	s.mu.Unlock()
	return nil
}

// Clear removes all entries.
func (s *MemoryStore) Clear(_ context.Context) error {
	s.mu.Lock()
	s.entries = make(map[string]*Entry)
	s.mu.Unlock()
	return nil
}

// Len returns the number of stored entries, expired or not (for tests).
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

var _ Store = (*MemoryStore)(nil)
