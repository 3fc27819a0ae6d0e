package cache

import (
	"context"
	"errors"
	"strings"
	"time"
)

// MaxKeyLength is the maximum allowed length for a cache key.
const MaxKeyLength = 512

// Sentinel errors for cache operations.
var (
	ErrNilCache    = errors.New("cache: cache is nil")
	ErrInvalidKey  = errors.New("cache: key is invalid")
	ErrKeyTooLong  = errors.New("cache: key exceeds max length")
	ErrInvalidSize = errors.New("cache: max size must be positive")
)

// Store is the interface for bounded caching of computed values.
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Get never errors; a miss is (zero, false), not an error.
// - Expiry: expired entries are physically removed on the access that
//   observes them, never merely skipped.
type Store[V any] interface {
	// Get retrieves a cached value and bumps its recency.
	// Returns (zero, false) on miss or expiry.
	Get(ctx context.Context, key string) (V, bool)

	// Put stores a value with the given TTL, evicting the
	// least-recently-used entry when the cache is full. TTL<=0 means no
	// caching.
	Put(ctx context.Context, key string, value V, ttl time.Duration) error

	// Delete removes a cached value. Idempotent - no error on miss.
	Delete(ctx context.Context, key string) error
}

// ValidateKey checks if a key is valid for caching.
func ValidateKey(key string) error {
	if key == "" || strings.TrimSpace(key) == "" {
		return ErrInvalidKey
	}
	if len(key) > MaxKeyLength {
		return ErrKeyTooLong
	}
	// Reject keys with newlines or carriage returns
	if strings.ContainsAny(key, "\n\r") {
		return ErrInvalidKey
	}
	return nil
}
