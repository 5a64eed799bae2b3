package pipeline

import (
	"context"
	"time"

	"golang.org/x/sync/singleflight"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/internal/selection"
	"github.com/wonny/aegis-screener/pkg/logger"
)

const flightKey = "screening"

// Result is what callers of the service receive
type Result struct {
	Run    *contracts.ScreeningRun
	Cached bool
}

// Service is the entry point used by the API, CLI and scheduler:
// cache check first, then at most one run in flight.
// ⭐ SSOT: 캐시 확인 → 단일 실행 → 응답
type Service struct {
	orchestrator *Orchestrator
	cache        contracts.ResultCache
	kind         contracts.UniverseKind
	group        singleflight.Group
	cancellable  bool
	logger       *logger.Logger
}

// NewService creates a new screening service
func NewService(orch *Orchestrator, cache contracts.ResultCache, kind contracts.UniverseKind, log *logger.Logger) *Service {
	return &Service{
		orchestrator: orch,
		cache:        cache,
		kind:         kind,
		logger:       log.WithComponent("service"),
	}
}

// WithCancellation makes runs follow the caller's context (CLI).
// A cancelled run ends in the error state and writes no cache entry.
func (s *Service) WithCancellation() *Service {
	s.cancellable = true
	return s
}

// Universe returns the configured universe kind
func (s *Service) Universe() contracts.UniverseKind {
	return s.kind
}

// Progress returns the tracker of the underlying orchestrator
func (s *Service) Progress() *ProgressTracker {
	return s.orchestrator.Progress()
}

// Filters returns the active rule thresholds
func (s *Service) Filters() selection.FilterConfig {
	return s.orchestrator.engine.Config()
}

// Weights returns the active scoring weights
func (s *Service) Weights() selection.WeightConfig {
	return s.orchestrator.engine.Scorer().Weights()
}

// GetDailyStocks returns the cached run when valid, otherwise runs the
// pipeline. forceRefresh skips the cache read.
func (s *Service) GetDailyStocks(ctx context.Context, forceRefresh bool) (*Result, error) {
	if !forceRefresh {
		if run, ok := s.loadCached(ctx); ok {
			return &Result{Run: run, Cached: true}, nil
		}
	}
	return s.Refresh(ctx)
}

// Cached returns the last valid run without triggering a new one
func (s *Service) Cached(ctx context.Context) (*contracts.ScreeningRun, bool) {
	return s.loadCached(ctx)
}

// Refresh runs the pipeline. Concurrent callers share one run, which
// keeps going even if every caller goes away unless WithCancellation is set.
func (s *Service) Refresh(ctx context.Context) (*Result, error) {
	runCtx := context.WithoutCancel(ctx)
	done := ctx.Done()
	if s.cancellable {
		// 실행이 ctx 취소를 직접 관찰하고 종료될 때까지 대기
		runCtx, done = ctx, nil
	}

	ch := s.group.DoChan(flightKey, func() (interface{}, error) {
		start := time.Now()
		run, err := s.orchestrator.Run(runCtx, s.kind)
		if err != nil {
			return nil, err
		}
		s.logger.WithField("duration", time.Since(start).String()).Debug("Run finished")
		return run, nil
	})

	select {
	case res := <-ch:
		if res.Err != nil {
			return nil, res.Err
		}
		if res.Shared {
			s.logger.Debug("Joined in-flight screening run")
		}
		return &Result{Run: res.Val.(*contracts.ScreeningRun)}, nil
	case <-done:
		return nil, ctx.Err()
	}
}

func (s *Service) loadCached(ctx context.Context) (*contracts.ScreeningRun, bool) {
	if s.cache == nil {
		return nil, false
	}
	run, ok, err := s.cache.Load(ctx)
	if err != nil {
		s.logger.WithError(err).Warn("Cache read failed, running fresh screening")
		return nil, false
	}
	if !ok || !run.HasSurvivors() {
		return nil, false
	}
	s.logger.WithField("run_id", run.RunID).Info("Returning cached results")
	return run, true
}
