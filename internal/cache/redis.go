package cache

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// ErrMiss is returned by Get when the key does not exist.
var ErrMiss = errors.New("cache miss")

// Redis wraps a go-redis client with JSON helpers, queues and health checks.
type Redis struct {
	client *redis.Client
}

// New parses a Redis URL (e.g. "redis://host:6379/0") and returns a client.
// Call Ping to verify the connection.
func New(rawURL string) (*Redis, error) {
	opts, err := redis.ParseURL(rawURL)
	if err != nil {
		return nil, fmt.Errorf("parse redis url: %w", err)
	}
	return &Redis{client: redis.NewClient(opts)}, nil
}

// NewFromClient wraps an existing go-redis client.
func NewFromClient(c *redis.Client) *Redis {
	return &Redis{client: c}
}

// Ping checks the connection to Redis.
func (r *Redis) Ping(ctx context.Context) error {
	return r.client.Ping(ctx).Err()
}

// Close shuts down the Redis client.
func (r *Redis) Close() error {
	return r.client.Close()
}

// Get fetches key and JSON-decodes it. A missing key yields ErrMiss.
func Get[T any](ctx context.Context, r *Redis, key string) (T, error) {
	var v T
	raw, err := r.client.Get(ctx, key).Bytes()
	if errors.Is(err, redis.Nil) {
		return v, ErrMiss
	}
	if err != nil {
		return v, fmt.Errorf("cache get %s: %w", key, err)
	}
	if err := json.Unmarshal(raw, &v); err != nil {
		return v, fmt.Errorf("cache unmarshal %s: %w", key, err)
	}
	return v, nil
}

// Set JSON-encodes v and stores it under key with the given TTL.
func Set(ctx context.Context, r *Redis, key string, v any, ttl time.Duration) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("cache marshal %s: %w", key, err)
	}
	return r.client.Set(ctx, key, data, ttl).Err()
}

// Del deletes one or more exact keys.
func Del(ctx context.Context, r *Redis, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	return r.client.Del(ctx, keys...).Err()
}

// DelPattern deletes all keys matching a glob pattern (e.g. "video:latest:*").
// Uses SCAN rather than KEYS.
func DelPattern(ctx context.Context, r *Redis, pattern string) error {
	var cursor uint64
	for {
		keys, next, err := r.client.Scan(ctx, cursor, pattern, 100).Result()
		if err != nil {
			return fmt.Errorf("cache scan %s: %w", pattern, err)
		}
		if len(keys) > 0 {
			if err := r.client.Del(ctx, keys...).Err(); err != nil {
				return fmt.Errorf("cache del pattern %s: %w", pattern, err)
			}
		}
		cursor = next
		if cursor == 0 {
			return nil
		}
	}
}
