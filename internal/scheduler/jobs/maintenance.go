package jobs

import (
	"context"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/pkg/logger"
)

// CacheCheckJob loads the result cache so expired or empty entries are
// reported (and empty ones deleted) between refreshes
type CacheCheckJob struct {
	cache  contracts.ResultCache
	logger *logger.Logger
}

// NewCacheCheckJob creates a new cache check job
func NewCacheCheckJob(cache contracts.ResultCache, log *logger.Logger) *CacheCheckJob {
	return &CacheCheckJob{
		cache:  cache,
		logger: log.WithComponent("job"),
	}
}

// Name returns the job name
func (j *CacheCheckJob) Name() string {
	return "cache_check"
}

// Description returns the job description
func (j *CacheCheckJob) Description() string {
	return "Validate the cached shortlist and drop empty entries"
}

// Schedule returns the cron schedule (hourly)
func (j *CacheCheckJob) Schedule() string {
	return "0 0 * * * *"
}

// Run executes the cache check
func (j *CacheCheckJob) Run(ctx context.Context) error {
	run, ok, err := j.cache.Load(ctx)
	if err != nil {
		return err
	}
	if !ok {
		j.logger.Info("No valid cached shortlist")
		return nil
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":    run.RunID,
		"timestamp": run.Timestamp,
		"stocks":    len(run.Stocks),
	}).Debug("Cached shortlist valid")
	return nil
}

// StaleCleaner drops expired entries (cache.SnapshotCache)
type StaleCleaner interface {
	CleanStale() int
}

// SnapshotCleanupJob cleans stale snapshots from the in-memory cache
type SnapshotCleanupJob struct {
	cache  StaleCleaner
	logger *logger.Logger
}

// NewSnapshotCleanupJob creates a new snapshot cleanup job
func NewSnapshotCleanupJob(cache StaleCleaner, log *logger.Logger) *SnapshotCleanupJob {
	return &SnapshotCleanupJob{
		cache:  cache,
		logger: log.WithComponent("job"),
	}
}

// Name returns the job name
func (j *SnapshotCleanupJob) Name() string {
	return "snapshot_cleanup"
}

// Description returns the job description
func (j *SnapshotCleanupJob) Description() string {
	return "Drop expired per-symbol snapshots from memory"
}

// Schedule returns the cron schedule (every 5 minutes)
func (j *SnapshotCleanupJob) Schedule() string {
	return "0 */5 * * * *"
}

// Run executes the snapshot cleanup
func (j *SnapshotCleanupJob) Run(ctx context.Context) error {
	count := j.cache.CleanStale()
	if count > 0 {
		j.logger.WithField("removed", count).Info("Snapshot cleanup completed")
	}
	return nil
}
