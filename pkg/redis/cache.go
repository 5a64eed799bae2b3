package redis

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

// Cache stores raw JSON documents under "{prefix}:cache:{key}"
// ⭐ SSOT: 캐시 키 규칙은 여기서만
type Cache struct {
	client *Client
	prefix string
}

// NewCache creates a new cache helper
func NewCache(client *Client, prefix string) *Cache {
	return &Cache{client: client, prefix: prefix}
}

// Key returns the fully qualified key
func (c *Cache) Key(key string) string {
	return fmt.Sprintf("%s:cache:%s", c.prefix, key)
}

// GetBytes returns the stored document. found is false on a miss.
func (c *Cache) GetBytes(ctx context.Context, key string) (data []byte, found bool, err error) {
	if !c.client.Enabled() {
		return nil, false, nil
	}

	data, err = c.client.Redis().Get(ctx, c.Key(key)).Bytes()
	if errors.Is(err, redis.Nil) {
		return nil, false, nil
	}
	if err != nil {
		return nil, false, fmt.Errorf("redis get %s: %w", key, err)
	}
	return data, true, nil
}

// SetBytes stores a document. ttl <= 0 keeps it until deleted.
func (c *Cache) SetBytes(ctx context.Context, key string, data []byte, ttl time.Duration) error {
	if !c.client.Enabled() {
		return nil
	}
	if ttl < 0 {
		ttl = 0
	}
	return c.client.Redis().Set(ctx, c.Key(key), data, ttl).Err()
}

// Delete removes a cached value
func (c *Cache) Delete(ctx context.Context, key string) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.Redis().Del(ctx, c.Key(key)).Err()
}

// TryLock takes a short-lived lock so only one replica runs a job at a time.
// Disabled clients always acquire.
func (c *Cache) TryLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if !c.client.Enabled() {
		return true, nil
	}
	key := fmt.Sprintf("%s:lock:%s", c.prefix, name)
	ok, err := c.client.Redis().SetNX(ctx, key, time.Now().Unix(), ttl).Result()
	if err != nil {
		return false, fmt.Errorf("redis lock %s: %w", name, err)
	}
	return ok, nil
}

// Unlock releases a lock taken by TryLock
func (c *Cache) Unlock(ctx context.Context, name string) error {
	if !c.client.Enabled() {
		return nil
	}
	return c.client.Redis().Del(ctx, fmt.Sprintf("%s:lock:%s", c.prefix, name)).Err()
}
