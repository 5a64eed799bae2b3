package jobs

import (
	"context"
	"fmt"
	"time"

	"github.com/wonny/aegis-screener/internal/pipeline"
	"github.com/wonny/aegis-screener/pkg/logger"
)

const lockName = "screening_refresh"

// Refresher runs a fresh screening
type Refresher interface {
	Refresh(ctx context.Context) (*pipeline.Result, error)
}

// Locker guards the refresh across replicas (pkg/redis Cache)
type Locker interface {
	TryLock(ctx context.Context, name string, ttl time.Duration) (bool, error)
	Unlock(ctx context.Context, name string) error
}

// ScreeningJob refreshes the cached shortlist before the US open
// ⭐ SSOT: 정기 스크리닝 스케줄은 이 Job에서만
type ScreeningJob struct {
	service  Refresher
	locker   Locker
	schedule string
	lockTTL  time.Duration
	logger   *logger.Logger
}

// NewScreeningJob creates a new screening job. locker may be nil.
func NewScreeningJob(service Refresher, locker Locker, schedule string, log *logger.Logger) *ScreeningJob {
	if schedule == "" {
		schedule = "0 30 6 * * 1-5"
	}
	return &ScreeningJob{
		service:  service,
		locker:   locker,
		schedule: schedule,
		lockTTL:  30 * time.Minute,
		logger:   log.WithComponent("job"),
	}
}

// Name returns the job name
func (j *ScreeningJob) Name() string {
	return "screening_refresh"
}

// Description returns the job description
func (j *ScreeningJob) Description() string {
	return "Run the full screen and replace the cached shortlist"
}

// Schedule returns the cron schedule (weekdays before the US open by default)
func (j *ScreeningJob) Schedule() string {
	return j.schedule
}

// Run executes the screening refresh
func (j *ScreeningJob) Run(ctx context.Context) error {
	if j.locker != nil {
		ok, err := j.locker.TryLock(ctx, lockName, j.lockTTL)
		if err != nil {
			return fmt.Errorf("acquire lock: %w", err)
		}
		if !ok {
			j.logger.Info("Screening refresh already running elsewhere, skipping")
			return nil
		}
		defer func() {
			if err := j.locker.Unlock(context.WithoutCancel(ctx), lockName); err != nil {
				j.logger.WithError(err).Warn("Failed to release screening lock")
			}
		}()
	}

	j.logger.Info("Starting scheduled screening refresh")

	result, err := j.service.Refresh(ctx)
	if err != nil {
		return fmt.Errorf("screening refresh: %w", err)
	}

	j.logger.WithFields(map[string]interface{}{
		"run_id":         result.Run.RunID,
		"total_screened": result.Run.TotalScreened,
		"passed_filters": result.Run.PassedFilters,
		"selected":       len(result.Run.Stocks),
	}).Info("Screening refresh completed")

	return nil
}
