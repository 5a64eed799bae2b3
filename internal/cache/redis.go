package cache

import (
	"context"

	"github.com/wonny/aegis-screener/pkg/redis"
)

const redisKey = "screening:latest"

// RedisStore keeps the document under "{prefix}:cache:screening:latest"
type RedisStore struct {
	cache *redis.Cache
}

// NewRedisStore creates a store over the shared redis cache helper
func NewRedisStore(cache *redis.Cache) *RedisStore {
	return &RedisStore{cache: cache}
}

func (s *RedisStore) Get(ctx context.Context) ([]byte, bool, error) {
	return s.cache.GetBytes(ctx, redisKey)
}

// Put stores without a redis expiry; validity is decided by ResultCache
func (s *RedisStore) Put(ctx context.Context, data []byte) error {
	return s.cache.SetBytes(ctx, redisKey, data, 0)
}

func (s *RedisStore) Delete(ctx context.Context) error {
	return s.cache.Delete(ctx, redisKey)
}

// Close is a no-op; the redis client is owned by the caller
func (s *RedisStore) Close() error { return nil }
