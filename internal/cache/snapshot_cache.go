package cache

import (
	"context"
	"sync"
	"time"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/pkg/logger"
)

// SnapshotCache keeps recently fetched snapshots in memory so a forced
// rescreen shortly after a run does not refetch every candidate.
// It wraps a MarketDataProvider and implements the same interface.
// ⭐ SSOT: 종목별 상세 데이터 메모리 캐시는 여기서만
type SnapshotCache struct {
	provider contracts.MarketDataProvider
	ttl      time.Duration
	now      func() time.Time

	mu        sync.RWMutex
	snapshots map[string]*contracts.StockSnapshot

	hits   uint64
	misses uint64
	logger *logger.Logger
}

// SnapshotStats is a point-in-time view of the cache
type SnapshotStats struct {
	TotalCount int    `json:"total_count"`
	StaleCount int    `json:"stale_count"`
	Hits       uint64 `json:"hits"`
	Misses     uint64 `json:"misses"`
}

// NewSnapshotCache wraps provider. ttl <= 0 disables caching.
func NewSnapshotCache(provider contracts.MarketDataProvider, ttl time.Duration, log *logger.Logger) *SnapshotCache {
	return &SnapshotCache{
		provider:  provider,
		ttl:       ttl,
		now:       time.Now,
		snapshots: make(map[string]*contracts.StockSnapshot),
		logger:    log.WithComponent("snapshot_cache"),
	}
}

// WithClock overrides the clock used for staleness checks
func (c *SnapshotCache) WithClock(now func() time.Time) *SnapshotCache {
	c.now = now
	return c
}

// FetchSnapshot returns a fresh cached snapshot or fetches one.
// Errors are never cached; a provider returning no snapshot is ErrNoData.
func (c *SnapshotCache) FetchSnapshot(ctx context.Context, symbol string) (*contracts.StockSnapshot, error) {
	if c.ttl <= 0 {
		return c.provider.FetchSnapshot(ctx, symbol)
	}

	c.mu.RLock()
	snap, ok := c.snapshots[symbol]
	c.mu.RUnlock()

	if ok && !c.stale(snap) {
		c.mu.Lock()
		c.hits++
		c.mu.Unlock()
		return snap, nil
	}

	snap, err := c.provider.FetchSnapshot(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if snap == nil {
		return nil, contracts.ErrNoData
	}

	c.mu.Lock()
	c.misses++
	c.put(snap)
	c.mu.Unlock()

	return snap, nil
}

// put stores a snapshot, keeping the newer one for the same symbol
func (c *SnapshotCache) put(snap *contracts.StockSnapshot) {
	if existing, ok := c.snapshots[snap.Symbol]; ok && snap.FetchedAt.Before(existing.FetchedAt) {
		return
	}
	c.snapshots[snap.Symbol] = snap
}

func (c *SnapshotCache) stale(snap *contracts.StockSnapshot) bool {
	return c.now().Sub(snap.FetchedAt) > c.ttl
}

// CleanStale removes stale snapshots and returns how many were removed
func (c *SnapshotCache) CleanStale() int {
	c.mu.Lock()
	defer c.mu.Unlock()

	count := 0
	for symbol, snap := range c.snapshots {
		if c.stale(snap) {
			delete(c.snapshots, symbol)
			count++
		}
	}

	if count > 0 {
		c.logger.WithField("count", count).Info("Cleaned stale snapshots from cache")
	}

	return count
}

// Clear drops every snapshot
func (c *SnapshotCache) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.snapshots = make(map[string]*contracts.StockSnapshot)
	c.logger.Info("Cleared snapshot cache")
}

// Len returns the number of cached snapshots
func (c *SnapshotCache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()

	return len(c.snapshots)
}

// Stats returns cache statistics
func (c *SnapshotCache) Stats() SnapshotStats {
	c.mu.RLock()
	defer c.mu.RUnlock()

	stats := SnapshotStats{
		TotalCount: len(c.snapshots),
		Hits:       c.hits,
		Misses:     c.misses,
	}
	for _, snap := range c.snapshots {
		if c.stale(snap) {
			stats.StaleCount++
		}
	}
	return stats
}
