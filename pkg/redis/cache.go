package redis

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores values of type T as JSON under "<prefix>:<key>"
// ⭐ SSOT: 캐시 헬퍼는 여기서만
type Cache[T any] struct {
	client *Client
	prefix string
}

// NewCache creates a typed cache on client
func NewCache[T any](client *Client, prefix string) *Cache[T] {
	return &Cache[T]{client: client, prefix: prefix}
}

// Key returns the full Redis key for key
func (c *Cache[T]) Key(key string) string {
	return c.prefix + ":" + key
}

// Get reads key. A missing key, or a disabled client, is a miss without error.
func (c *Cache[T]) Get(ctx context.Context, key string) (T, bool, error) {
	var zero T
	if !c.client.Enabled() {
		return zero, false, nil
	}

	data, err := c.client.Redis().Get(ctx, c.Key(key)).Bytes()
	switch {
	case errors.Is(err, redis.Nil):
		return zero, false, nil
	case err != nil:
		return zero, false, fmt.Errorf("cache get %s: %w", c.Key(key), err)
	}

	var value T
	if err := json.Unmarshal(data, &value); err != nil {
		return zero, false, fmt.Errorf("cache decode %s: %w", c.Key(key), err)
	}
	return value, true, nil
}

// Set writes key with ttl; ttl 0 keeps it until deleted
func (c *Cache[T]) Set(ctx context.Context, key string, value T, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}

	data, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("cache encode %s: %w", c.Key(key), err)
	}

	if err := c.client.Redis().Set(ctx, c.Key(key), data, ttl).Err(); err != nil {
		return fmt.Errorf("cache set %s: %w", c.Key(key), err)
	}
	return nil
}

// Delete removes key
func (c *Cache[T]) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.Redis().Del(ctx, c.Key(key)).Err()
}
