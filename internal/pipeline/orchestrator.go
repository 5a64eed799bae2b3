package pipeline

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"time"

	"github.com/google/uuid"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/internal/prescreen"
	"github.com/wonny/aegis-screener/internal/selection"
	"github.com/wonny/aegis-screener/pkg/logger"
)

// Orchestrator coordinates the five-stage screening funnel
// ⭐ SSOT: 파이프라인 조율은 여기서만
//
//	universe → pre-screen → details → filter/score → rank → cache
type Orchestrator struct {
	// Stage components
	universe    contracts.UniverseSource
	prescreener *prescreen.PreScreener
	market      contracts.MarketDataProvider
	engine      *selection.FilterEngine
	ranker      *selection.Ranker

	// Persistence
	cache contracts.ResultCache

	progress      *ProgressTracker
	detailTimeout time.Duration
	strategyHash  string
	now           func() time.Time
	logger        *logger.Logger
}

// Components wires the stages of an orchestrator
type Components struct {
	Universe    contracts.UniverseSource
	PreScreener *prescreen.PreScreener
	Market      contracts.MarketDataProvider
	Engine      *selection.FilterEngine
	Ranker      *selection.Ranker
	Cache       contracts.ResultCache
}

// Options holds run settings
type Options struct {
	DetailTimeout time.Duration // per-symbol hydration bound (0 = none)
	StrategyHash  string        // stamped into every run
}

// NewOrchestrator creates a new orchestrator with its own progress tracker
func NewOrchestrator(c Components, opts Options, log *logger.Logger) *Orchestrator {
	return &Orchestrator{
		universe:      c.Universe,
		prescreener:   c.PreScreener,
		market:        c.Market,
		engine:        c.Engine,
		ranker:        c.Ranker,
		cache:         c.Cache,
		progress:      NewProgressTracker(),
		detailTimeout: opts.DetailTimeout,
		strategyHash:  opts.StrategyHash,
		now:           time.Now,
		logger:        log.WithComponent("pipeline"),
	}
}

// WithClock overrides the clock used for run timestamps
func (o *Orchestrator) WithClock(now func() time.Time) *Orchestrator {
	o.now = now
	return o
}

// Progress returns the tracker readers subscribe to
func (o *Orchestrator) Progress() *ProgressTracker {
	return o.progress
}

// Run executes one full screening run for kind and saves it to the cache.
// Only an empty universe (or a cancelled ctx) fails the run.
func (o *Orchestrator) Run(ctx context.Context, kind contracts.UniverseKind) (*contracts.ScreeningRun, error) {
	start := o.now()

	run := &contracts.ScreeningRun{
		RunID:        uuid.New().String(),
		Universe:     kind,
		Rejections:   make(map[string]int),
		Skipped:      make(map[string]int),
		StrategyHash: o.strategyHash,
	}

	log := o.logger.WithFields(map[string]interface{}{
		"run_id":   run.RunID,
		"universe": kind.Label(),
	})
	log.Info("Starting screening run")

	// Stage 1: universe
	symbols, err := o.runUniverse(ctx, kind)
	if err != nil {
		log.WithError(err).Error("Universe fetch failed")
		return nil, err
	}
	run.TotalScreened = len(symbols)

	// Stage 2: pre-screen
	candidates, err := o.runPreScreen(ctx, symbols, run)
	if err != nil {
		return nil, o.abort(err)
	}
	run.Candidates = len(candidates)

	if len(candidates) == 0 {
		log.Warn("No candidates passed pre-screening")
		o.finish(ctx, run, start)
		o.progress.Set(contracts.ProgressState{
			Status:  contracts.StatusComplete,
			Stage:   contracts.StageComplete,
			Current: len(symbols),
			Total:   len(symbols),
			Message: "WARNING: 0 stocks passed pre-screening filters. Try adjusting filter criteria.",
		})
		return run, nil
	}

	// Stage 3: details
	snapshots, err := o.runDetails(ctx, candidates, run)
	if err != nil {
		return nil, o.abort(err)
	}
	run.Hydrated = len(snapshots)

	// Stage 4: filter + score
	survivors, err := o.runFilter(ctx, snapshots, run)
	if err != nil {
		return nil, o.abort(err)
	}
	run.PassedFilters = len(survivors)

	// Stage 5: rank
	run.Stocks = o.ranker.Rank(survivors)
	o.finish(ctx, run, start)

	if len(run.Stocks) == 0 {
		o.progress.Set(contracts.ProgressState{
			Status:  contracts.StatusComplete,
			Stage:   contracts.StageComplete,
			Current: len(snapshots),
			Total:   len(snapshots),
			Message: "WARNING: 0 stocks passed all 12 strict filters. Consider relaxing filter criteria.",
		})
	} else {
		o.progress.Set(contracts.ProgressState{
			Status:      contracts.StatusComplete,
			Stage:       contracts.StageComplete,
			Current:     len(snapshots),
			Total:       len(snapshots),
			Message:     fmt.Sprintf("Screening complete! Found %d stocks.", len(run.Stocks)),
			StocksFound: len(run.Stocks),
		})
	}

	log.WithFields(map[string]interface{}{
		"total_screened": run.TotalScreened,
		"candidates":     run.Candidates,
		"hydrated":       run.Hydrated,
		"passed_filters": run.PassedFilters,
		"selected":       len(run.Stocks),
		"duration_ms":    run.DurationMs,
	}).Info("Screening run completed")

	return run, nil
}

// runUniverse fetches the symbol list. Failure is the only fatal error.
func (o *Orchestrator) runUniverse(ctx context.Context, kind contracts.UniverseKind) ([]string, error) {
	o.progress.Set(contracts.ProgressState{
		Status:  contracts.StatusRunning,
		Stage:   contracts.StageFetchingUniverse,
		Message: fmt.Sprintf("Fetching %s stock universe...", kind.Label()),
	})

	symbols, err := o.universe.Fetch(ctx, kind)
	if err == nil && len(symbols) == 0 {
		err = contracts.ErrEmptyUniverse
	}
	if err != nil {
		o.progress.Set(contracts.ProgressState{
			Status:  contracts.StatusError,
			Stage:   contracts.StageError,
			Message: "Failed to fetch stock universe",
		})
		if !errors.Is(err, contracts.ErrEmptyUniverse) {
			err = fmt.Errorf("%w: %v", contracts.ErrEmptyUniverse, err)
		}
		return nil, err
	}

	o.progress.Update(func(s *contracts.ProgressState) {
		s.Total = len(symbols)
		s.Message = fmt.Sprintf("Found %d stocks in universe", len(symbols))
	})
	return symbols, nil
}

func (o *Orchestrator) runPreScreen(ctx context.Context, symbols []string, run *contracts.ScreeningRun) ([]string, error) {
	cfg := o.prescreener.Config()
	o.progress.Update(func(s *contracts.ProgressState) {
		s.Stage = contracts.StagePreScreening
		s.Message = fmt.Sprintf("Pre-screening by market cap ≥ $%.0fB and volume ≥ %.1fM...",
			cfg.MinMarketCap/1e9, cfg.MinAvgVolume/1e6)
	})

	result, err := o.prescreener.Run(ctx, symbols, func(done, total, accepted int, symbol string) {
		o.progress.Update(func(s *contracts.ProgressState) {
			s.Current = done
			s.Total = total
			s.Message = fmt.Sprintf("Pre-screening %s... (%d/%d) - %d candidates so far", symbol, done, total, accepted)
		})
		yield(ctx)
	})
	if err != nil {
		return nil, err
	}

	for reason, n := range result.Skipped() {
		run.Skipped[string(reason)] += n
	}

	if len(result.Candidates) > 0 {
		filteredOut := len(symbols) - len(result.Candidates)
		o.progress.Update(func(s *contracts.ProgressState) {
			s.Current = filteredOut
			s.Total = len(symbols)
			s.Message = fmt.Sprintf("%d candidates passed pre-screening (filtered out %d)", len(result.Candidates), filteredOut)
		})
	}
	return result.Candidates, nil
}

func (o *Orchestrator) runDetails(ctx context.Context, candidates []string, run *contracts.ScreeningRun) ([]*contracts.StockSnapshot, error) {
	o.progress.Update(func(s *contracts.ProgressState) {
		s.Stage = contracts.StageFetchingDetails
		s.Current = 0
		s.Total = len(candidates)
		s.Message = fmt.Sprintf("Fetching detailed data for %d candidates... (2-4 minutes)", len(candidates))
	})

	snapshots := make([]*contracts.StockSnapshot, 0, len(candidates))
	for i, symbol := range candidates {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outcome, snap := o.hydrate(ctx, symbol)
		if outcome.Accepted {
			snapshots = append(snapshots, snap)
		} else {
			run.Skipped[string(outcome.Reason)]++
			o.logger.WithFields(map[string]interface{}{
				"symbol": symbol,
				"reason": outcome.Reason,
			}).WithError(outcome.Err).Debug("Detail fetch skipped")
		}

		n := i + 1
		o.progress.Update(func(s *contracts.ProgressState) {
			s.Current = n
			s.Message = fmt.Sprintf("Analyzing %s... (%d/%d)", symbol, n, len(candidates))
		})
		if n%10 == 0 {
			o.logger.Debugf("Progress: %d/%d stocks analyzed", n, len(candidates))
		}
		yield(ctx)
	}

	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return snapshots, nil
}

// hydrate fetches one snapshot under the per-symbol timeout
func (o *Orchestrator) hydrate(ctx context.Context, symbol string) (contracts.Outcome, *contracts.StockSnapshot) {
	fetchCtx := ctx
	if o.detailTimeout > 0 {
		var cancel context.CancelFunc
		fetchCtx, cancel = context.WithTimeout(ctx, o.detailTimeout)
		defer cancel()
	}

	snap, err := o.market.FetchSnapshot(fetchCtx, symbol)
	switch {
	case err == nil && snap != nil:
		return contracts.Accept(symbol), snap
	case errors.Is(err, context.DeadlineExceeded) || (fetchCtx.Err() != nil && ctx.Err() == nil):
		return contracts.Skip(symbol, contracts.SkipTimeout, err), nil
	case err == nil || errors.Is(err, contracts.ErrNoData):
		return contracts.Skip(symbol, contracts.SkipNoData, err), nil
	default:
		return contracts.Skip(symbol, contracts.SkipFetchFailed, err), nil
	}
}

func (o *Orchestrator) runFilter(ctx context.Context, snapshots []*contracts.StockSnapshot, run *contracts.ScreeningRun) ([]contracts.FilterResult, error) {
	o.progress.Update(func(s *contracts.ProgressState) {
		s.Stage = contracts.StageFiltering
		s.Current = 0
		s.Total = len(snapshots)
		s.StocksFound = 0
		s.Message = fmt.Sprintf("Applying 12 strict filters to %d stocks...", len(snapshots))
	})

	survivors := make([]contracts.FilterResult, 0)
	for i, snap := range snapshots {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		eval, outcome := o.evaluate(snap)
		switch {
		case eval.Passed:
			survivors = append(survivors, *eval.Result)
			o.logger.WithFields(map[string]interface{}{
				"symbol": snap.Symbol,
				"score":  eval.Result.CompositeScore,
			}).Info("Passed all filters")
		case outcome.Reason == contracts.SkipEvaluationPanic:
			run.Skipped[string(outcome.Reason)]++
		default:
			run.Rejections[string(eval.Failed)]++
		}

		n, found := i+1, len(survivors)
		o.progress.Update(func(s *contracts.ProgressState) {
			s.Current = n
			s.StocksFound = found
			s.Message = fmt.Sprintf("Filtering... (%d/%d) - %d stocks found so far", n, len(snapshots), found)
		})
		yield(ctx)
	}

	return survivors, nil
}

// evaluate runs the engine, turning a panic into a skip
func (o *Orchestrator) evaluate(snap *contracts.StockSnapshot) (eval selection.Evaluation, outcome contracts.Outcome) {
	defer func() {
		if r := recover(); r != nil {
			o.logger.WithFields(map[string]interface{}{
				"symbol": snap.Symbol,
				"panic":  fmt.Sprint(r),
			}).Warn("Evaluation panicked")
			eval = selection.Evaluation{}
			outcome = contracts.Skip(snap.Symbol, contracts.SkipEvaluationPanic, fmt.Errorf("panic: %v", r))
		}
	}()

	eval = o.engine.Evaluate(snap)
	if eval.Passed {
		return eval, contracts.Accept(snap.Symbol)
	}
	outcome = contracts.Skip(snap.Symbol, contracts.SkipRejected, nil)
	outcome.Rule = string(eval.Failed)
	return eval, outcome
}

// finish stamps the run and writes it to the cache. A cache failure is
// logged, never returned.
func (o *Orchestrator) finish(ctx context.Context, run *contracts.ScreeningRun, start time.Time) {
	run.Timestamp = o.now()
	run.DurationMs = run.Timestamp.Sub(start).Milliseconds()
	if run.Stocks == nil {
		run.Stocks = make([]contracts.FilterResult, 0)
	}

	if o.cache == nil {
		return
	}
	if err := o.cache.Save(ctx, run); err != nil {
		o.logger.WithError(err).WithField("run_id", run.RunID).Error("Failed to save screening run")
	}
}

// abort marks the progress as failed after a cancelled run
func (o *Orchestrator) abort(err error) error {
	o.progress.Set(contracts.ProgressState{
		Status:  contracts.StatusError,
		Stage:   contracts.StageError,
		Message: "Screening cancelled",
	})
	return fmt.Errorf("screening aborted: %w", err)
}

// yield gives readers a chance to observe progress between units
func yield(ctx context.Context) {
	if ctx.Err() != nil {
		return
	}
	runtime.Gosched()
}
