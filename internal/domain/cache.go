package domain

import (
	"context"
	"time"
)

// CacheError represents an error originating from the cache.
type CacheError string

func (e CacheError) Error() string {
	return string(e)
}

// ErrCacheMiss is returned when a key is not found in the cache.
const ErrCacheMiss = CacheError("cache: key not found")

// Cache defines the caching port used by services.
type Cache interface {
	// Get returns ErrCacheMiss if the key is not found.
	Get(ctx context.Context, key string) (string, error)

	// Set stores value under key. A zero expiration keeps it forever.
	Set(ctx context.Context, key string, value string, expiration time.Duration) error

	// Delete removes the keys and does not fail for missing ones.
	Delete(ctx context.Context, keys ...string) error

	Ping(ctx context.Context) error
}
