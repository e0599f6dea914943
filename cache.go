package dynrepo

import (
	"context"
	"fmt"
	"time"
)

// Cache stores encoded entities for repository.Cached. cache.Memory is
// the in-process implementation; any byte store with expiry can serve.
type Cache interface {
	// Get returns the value stored under key, or nil, nil on a miss.
	Get(ctx context.Context, key string) ([]byte, error)
	// Set stores value under key. A zero ttl never expires.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error
	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error
	// DeletePrefix removes every key starting with prefix.
	DeletePrefix(ctx context.Context, prefix string) error
	// Clear empties the cache.
	Clear(ctx context.Context) error
}

// CacheKey identifies a cached read of one entity, as in
// "channels:get:General".
type CacheKey struct {
	Table     string
	Operation string
	ID        any
}

// Prefix returns the prefix shared by all keys of the table.
func (k CacheKey) Prefix() string {
	return k.Table + ":"
}

// String renders the key as <table>:<operation>:<id>.
func (k CacheKey) String() string {
	return fmt.Sprintf("%s%s:%v", k.Prefix(), k.Operation, k.ID)
}
