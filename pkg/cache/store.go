package cache

import (
	"context"
	"errors"
)

var (
	// ErrCacheMiss indicates the requested key was not found in cache
	// or had expired.
	ErrCacheMiss = errors.New("cache miss")

	// ErrInvalidEntry indicates the cache entry is invalid or corrupted.
	ErrInvalidEntry = errors.New("invalid cache entry")
)

// Store is the cache backend used by a resource controller. The
// default MemoryStore is private to one controller; RedisStore can be
// injected to share entries between controllers or processes.
//
// Get returns ErrCacheMiss for absent or expired keys; expired entries
// are evicted lazily on read, never by a background sweep.
type Store interface {
	Get(ctx context.Context, key string) (*Entry, error)
	Set(ctx context.Context, entry *Entry) error
	Has(ctx context.Context, key string) bool
	Delete(ctx context.Context, key string) error
	Clear(ctx context.Context) error
}
