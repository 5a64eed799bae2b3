package jobs

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-screener/internal/cache"
	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/internal/pipeline"
	"github.com/wonny/aegis-screener/pkg/logger"
)

type fakeRefresher struct {
	calls int
	err   error
}

func (f *fakeRefresher) Refresh(ctx context.Context) (*pipeline.Result, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return &pipeline.Result{Run: &contracts.ScreeningRun{RunID: "r"}}, nil
}

type fakeLocker struct {
	held     bool
	unlocked int
}

func (l *fakeLocker) TryLock(ctx context.Context, name string, ttl time.Duration) (bool, error) {
	if l.held {
		return false, nil
	}
	return true, nil
}

func (l *fakeLocker) Unlock(ctx context.Context, name string) error {
	l.unlocked++
	return nil
}

func TestScreeningJob_Run(t *testing.T) {
	svc := &fakeRefresher{}
	locker := &fakeLocker{}
	job := NewScreeningJob(svc, locker, "", logger.Nop())

	assert.Equal(t, "screening_refresh", job.Name())
	assert.Equal(t, "0 30 6 * * 1-5", job.Schedule())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, svc.calls)
	assert.Equal(t, 1, locker.unlocked)
}

func TestScreeningJob_SkipsWhenLocked(t *testing.T) {
	svc := &fakeRefresher{}
	job := NewScreeningJob(svc, &fakeLocker{held: true}, "@daily", logger.Nop())

	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 0, svc.calls)
}

func TestScreeningJob_Error(t *testing.T) {
	job := NewScreeningJob(&fakeRefresher{err: contracts.ErrEmptyUniverse}, nil, "@daily", logger.Nop())

	err := job.Run(context.Background())
	assert.True(t, errors.Is(err, contracts.ErrEmptyUniverse))
}

func TestCacheCheckJob_RemovesEmptyRun(t *testing.T) {
	ctx := context.Background()
	store := cache.NewMemoryStore()
	rc := cache.New(store, time.Hour, logger.Nop())
	require.NoError(t, rc.Save(ctx, &contracts.ScreeningRun{RunID: "empty", Timestamp: time.Now()}))

	job := NewCacheCheckJob(rc, logger.Nop())
	require.NoError(t, job.Run(ctx))

	_, found, _ := store.Get(ctx)
	assert.False(t, found)
}

type fakeCleaner struct{ calls int }

func (f *fakeCleaner) CleanStale() int {
	f.calls++
	return 3
}

func TestSnapshotCleanupJob(t *testing.T) {
	cleaner := &fakeCleaner{}
	job := NewSnapshotCleanupJob(cleaner, logger.Nop())

	assert.Equal(t, "snapshot_cleanup", job.Name())
	assert.Equal(t, "0 */5 * * * *", job.Schedule())
	require.NoError(t, job.Run(context.Background()))
	assert.Equal(t, 1, cleaner.calls)
}
