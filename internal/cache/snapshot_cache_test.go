package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/pkg/logger"
)

type countingProvider struct {
	calls map[string]int
	now   func() time.Time
	err   error
	empty bool // (nil, nil)
}

func (p *countingProvider) FetchSnapshot(ctx context.Context, symbol string) (*contracts.StockSnapshot, error) {
	p.calls[symbol]++
	if p.err != nil {
		return nil, p.err
	}
	if p.empty {
		return nil, nil
	}
	return &contracts.StockSnapshot{Symbol: symbol, Price: 10, FetchedAt: p.now()}, nil
}

func TestSnapshotCache_HitAndExpiry(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }

	provider := &countingProvider{calls: map[string]int{}, now: now}
	c := NewSnapshotCache(provider, 15*time.Minute, logger.Nop()).WithClock(now)

	_, err := c.FetchSnapshot(ctx, "AAA")
	require.NoError(t, err)
	_, err = c.FetchSnapshot(ctx, "AAA")
	require.NoError(t, err)
	assert.Equal(t, 1, provider.calls["AAA"])

	clock = clock.Add(16 * time.Minute)
	assert.Equal(t, 1, c.Stats().StaleCount)

	_, err = c.FetchSnapshot(ctx, "AAA")
	require.NoError(t, err)
	assert.Equal(t, 2, provider.calls["AAA"])

	stats := c.Stats()
	assert.Equal(t, uint64(1), stats.Hits)
	assert.Equal(t, uint64(2), stats.Misses)
}

func TestSnapshotCache_ErrorsNotCached(t *testing.T) {
	ctx := context.Background()
	provider := &countingProvider{calls: map[string]int{}, now: time.Now, err: contracts.ErrNoData}
	c := NewSnapshotCache(provider, time.Hour, logger.Nop())

	for i := 0; i < 2; i++ {
		_, err := c.FetchSnapshot(ctx, "BAD")
		assert.True(t, errors.Is(err, contracts.ErrNoData))
	}
	assert.Equal(t, 2, provider.calls["BAD"])
	assert.Equal(t, 0, c.Len())
}

func TestSnapshotCache_NilSnapshotIsNoData(t *testing.T) {
	ctx := context.Background()
	provider := &countingProvider{calls: map[string]int{}, now: time.Now, empty: true}
	c := NewSnapshotCache(provider, time.Hour, logger.Nop())

	snap, err := c.FetchSnapshot(ctx, "GHOST")
	assert.Nil(t, snap)
	assert.ErrorIs(t, err, contracts.ErrNoData)
	assert.Equal(t, 0, c.Len())
	assert.Equal(t, uint64(0), c.Stats().Misses)
}

func TestSnapshotCache_Disabled(t *testing.T) {
	ctx := context.Background()
	provider := &countingProvider{calls: map[string]int{}, now: time.Now}
	c := NewSnapshotCache(provider, 0, logger.Nop())

	_, _ = c.FetchSnapshot(ctx, "AAA")
	_, _ = c.FetchSnapshot(ctx, "AAA")
	assert.Equal(t, 2, provider.calls["AAA"])
	assert.Equal(t, 0, c.Len())
}

func TestSnapshotCache_CleanStale(t *testing.T) {
	ctx := context.Background()
	clock := time.Date(2026, 3, 2, 12, 0, 0, 0, time.UTC)
	now := func() time.Time { return clock }

	provider := &countingProvider{calls: map[string]int{}, now: now}
	c := NewSnapshotCache(provider, 10*time.Minute, logger.Nop()).WithClock(now)

	_, _ = c.FetchSnapshot(ctx, "OLD")
	clock = clock.Add(8 * time.Minute)
	_, _ = c.FetchSnapshot(ctx, "NEW")
	clock = clock.Add(5 * time.Minute)

	assert.Equal(t, 1, c.CleanStale())
	assert.Equal(t, 1, c.Len())

	c.Clear()
	assert.Equal(t, 0, c.Len())
}
