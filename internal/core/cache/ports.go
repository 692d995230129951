package cache

import (
	"context"
	"errors"
	"time"
)

// ErrCacheMiss is returned by Get when the key is absent or expired.
var ErrCacheMiss = errors.New("cache miss")

// Cache is the port for ephemeral, TTL-bound data such as quotes.
type Cache interface {
	// Get returns the stored bytes, or ErrCacheMiss.
	Get(ctx context.Context, key string) ([]byte, error)

	// Set stores value under key. A zero ttl means no expiration.
	Set(ctx context.Context, key string, value []byte, ttl time.Duration) error

	// Delete removes key. Deleting a missing key is not an error.
	Delete(ctx context.Context, key string) error

	// TTL reports the remaining lifetime of key, or ErrCacheMiss.
	TTL(ctx context.Context, key string) (time.Duration, error)

	// Ping checks that the backend is reachable.
	Ping(ctx context.Context) error

	// Close releases the connection.
	Close() error
}
