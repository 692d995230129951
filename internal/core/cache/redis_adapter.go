package cache

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// RedisAdapter implements Cache on top of go-redis.
type RedisAdapter struct {
	client    *redis.Client
	namespace string
}

// NewRedisAdapter parses redisURL (redis://[:password@]host[:port][/database]) and
// prefixes every key with namespace.
func NewRedisAdapter(redisURL, namespace string) (*RedisAdapter, error) {
	opts, err := redis.ParseURL(redisURL)
	if err != nil {
		return nil, fmt.Errorf("failed to parse Redis URL: %w", err)
	}
	return &RedisAdapter{client: redis.NewClient(opts), namespace: namespace}, nil
}

func (r *RedisAdapter) key(k string) string {
	if r.namespace == "" {
		return k
	}
	return r.namespace + ":" + k
}

// Get retrieves a value by key.
func (r *RedisAdapter) Get(ctx context.Context, key string) ([]byte, error) {
	val, err := r.client.Get(ctx, r.key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, ErrCacheMiss
	}
	if err != nil {
		return nil, fmt.Errorf("cache: get %s: %w", key, err)
	}
	return val, nil
}

// Set stores a value with the given TTL.
func (r *RedisAdapter) Set(ctx context.Context, key string, value []byte, ttl time.Duration) error {
	if err := r.client.Set(ctx, r.key(key), value, ttl).Err(); err != nil {
		return fmt.Errorf("cache: set %s: %w", key, err)
	}
	return nil
}

// Delete removes a key.
func (r *RedisAdapter) Delete(ctx context.Context, key string) error {
	if err := r.client.Del(ctx, r.key(key)).Err(); err != nil {
		return fmt.Errorf("cache: delete %s: %w", key, err)
	}
	return nil
}

// TTL returns the remaining lifetime. Keys without expiry report zero.
func (r *RedisAdapter) TTL(ctx context.Context, key string) (time.Duration, error) {
	d, err := r.client.TTL(ctx, r.key(key)).Result()
	if err != nil {
		return 0, fmt.Errorf("cache: ttl %s: %w", key, err)
	}
	// -2 means the key does not exist, -1 means it never expires.
	switch d {
	case -2 * time.Nanosecond:
		return 0, ErrCacheMiss
	case -1 * time.Nanosecond:
		return 0, nil
	}
	return d, nil
}

// Ping checks that redis is reachable.
func (r *RedisAdapter) Ping(ctx context.Context) error {
	if err := r.client.Ping(ctx).Err(); err != nil {
		return fmt.Errorf("redis ping failed: %w", err)
	}
	return nil
}

// Close closes the redis connection.
func (r *RedisAdapter) Close() error {
	return r.client.Close()
}
