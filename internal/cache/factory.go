package cache

import (
	"context"
	"fmt"

	"github.com/wonny/aegis-screener/pkg/config"
	"github.com/wonny/aegis-screener/pkg/database"
	"github.com/wonny/aegis-screener/pkg/logger"
	"github.com/wonny/aegis-screener/pkg/redis"
)

// Open builds the ResultCache selected by CACHE_BACKEND. The returned
// cleanup releases the store and any connection it opened.
func Open(ctx context.Context, cfg *config.Config, log *logger.Logger) (*ResultCache, func(), error) {
	var (
		store   Store
		cleanup = func() {}
	)

	switch cfg.Screener.CacheBackend {
	case config.CacheBackendMemory:
		store = NewMemoryStore()

	case config.CacheBackendRedis:
		client, err := redis.New(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		store = NewRedisStore(redis.NewCache(client, cfg.Redis.Prefix))
		cleanup = func() { _ = client.Close() }

	case config.CacheBackendPostgres:
		db, err := database.New(ctx, cfg)
		if err != nil {
			return nil, nil, err
		}
		pg, err := NewPostgresStore(ctx, db)
		if err != nil {
			db.Close()
			return nil, nil, err
		}
		store = pg
		cleanup = db.Close

	case config.CacheBackendBolt, "":
		bs, err := OpenBoltStore(cfg.Screener.BoltPath)
		if err != nil {
			return nil, nil, err
		}
		store = bs

	default:
		return nil, nil, fmt.Errorf("unknown cache backend %q", cfg.Screener.CacheBackend)
	}

	rc := New(store, cfg.Screener.CacheTTL, log)
	log.WithField("backend", cfg.Screener.CacheBackend).Info("Result cache ready")

	return rc, func() {
		_ = rc.Close()
		cleanup()
	}, nil
}
