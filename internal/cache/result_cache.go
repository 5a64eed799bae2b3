package cache

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/pkg/logger"
)

// DefaultTTL is how long a run stays valid
const DefaultTTL = 24 * time.Hour

// ResultCache implements contracts.ResultCache over a Store.
// A run is valid while younger than the TTL and only if at least one
// stock passed; a zero-survivor run is deleted on read.
// ⭐ SSOT: 결과 캐시 유효성 판단은 여기서만
type ResultCache struct {
	store  Store
	ttl    time.Duration
	now    func() time.Time
	logger *logger.Logger
}

// New creates a new result cache. ttl <= 0 uses DefaultTTL.
func New(store Store, ttl time.Duration, log *logger.Logger) *ResultCache {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	return &ResultCache{
		store:  store,
		ttl:    ttl,
		now:    time.Now,
		logger: log.WithComponent("cache"),
	}
}

// WithClock overrides the clock used for the TTL check
func (c *ResultCache) WithClock(now func() time.Time) *ResultCache {
	c.now = now
	return c
}

// TTL returns the validity window
func (c *ResultCache) TTL() time.Duration {
	return c.ttl
}

// Load returns the cached run when valid
func (c *ResultCache) Load(ctx context.Context) (*contracts.ScreeningRun, bool, error) {
	run, found, err := c.Peek(ctx)
	if err != nil || !found {
		return nil, false, err
	}

	// 0개 결과는 캐시로 인정하지 않고 삭제
	if !run.HasSurvivors() {
		c.logger.WithField("run_id", run.RunID).Warn("Cache has 0 stocks, deleting")
		if err := c.store.Delete(ctx); err != nil {
			return nil, false, fmt.Errorf("delete empty cache: %w", err)
		}
		return nil, false, nil
	}

	if age := run.Age(c.now()); age >= c.ttl {
		c.logger.WithField("age", age.String()).Debug("Cache expired")
		return nil, false, nil
	}

	return run, true, nil
}

// Peek returns the stored run regardless of age or survivors.
// An undecodable document is reported as a miss.
func (c *ResultCache) Peek(ctx context.Context) (*contracts.ScreeningRun, bool, error) {
	data, found, err := c.store.Get(ctx)
	if err != nil {
		return nil, false, fmt.Errorf("read cache: %w", err)
	}
	if !found {
		return nil, false, nil
	}

	var run contracts.ScreeningRun
	if err := json.Unmarshal(data, &run); err != nil {
		c.logger.WithError(err).Warn("Corrupt cache entry ignored")
		return nil, false, nil
	}
	return &run, true, nil
}

// Save replaces the cached run
func (c *ResultCache) Save(ctx context.Context, run *contracts.ScreeningRun) error {
	data, err := json.Marshal(run)
	if err != nil {
		return fmt.Errorf("encode run: %w", err)
	}
	if err := c.store.Put(ctx, data); err != nil {
		return fmt.Errorf("write cache: %w", err)
	}

	c.logger.WithFields(map[string]interface{}{
		"run_id":         run.RunID,
		"passed_filters": run.PassedFilters,
	}).Info("Screening run cached")
	return nil
}

// Clear removes the cached run
func (c *ResultCache) Clear(ctx context.Context) error {
	if err := c.store.Delete(ctx); err != nil {
		return fmt.Errorf("clear cache: %w", err)
	}
	return nil
}

// Close releases the underlying store
func (c *ResultCache) Close() error {
	return c.store.Close()
}
