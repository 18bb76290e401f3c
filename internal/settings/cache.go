package settings

import (
	"context"
	"errors"
	"time"

	"github.com/redis/go-redis/v9"
)

const cacheKey = "settings:document"

// Cache keeps the encoded settings document in Redis so request handlers do
// not hit Postgres for every render.
type Cache struct {
	client *redis.Client
	ttl    time.Duration
}

// NewCache instantiates the cache helper. A nil client disables caching.
func NewCache(client *redis.Client, ttl time.Duration) *Cache {
	return &Cache{client: client, ttl: ttl}
}

// Get returns the cached document, or ok=false on a miss.
func (c *Cache) Get(ctx context.Context) ([]byte, bool, error) {
	if c == nil || c.client == nil {
		return nil, false, nil
	}
	raw, err := c.client.Get(ctx, cacheKey).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, err
	}
	return raw, true, nil
}

// Set stores the encoded document.
func (c *Cache) Set(ctx context.Context, raw []byte) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Set(ctx, cacheKey, raw, c.ttl).Err()
}

// Invalidate drops the cached document.
func (c *Cache) Invalidate(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	return c.client.Del(ctx, cacheKey).Err()
}
