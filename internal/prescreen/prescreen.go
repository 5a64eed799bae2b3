package prescreen

import (
	"context"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/pkg/logger"
)

// Config holds the pre-screen gate
type Config struct {
	MinMarketCap float64 // 5e9
	MinAvgVolume float64 // 1.5e6
}

// DefaultConfig returns the standard gate
func DefaultConfig() Config {
	return Config{
		MinMarketCap: 5e9,
		MinAvgVolume: 1.5e6,
	}
}

// ProgressFunc is called after every symbol with the running counts
type ProgressFunc func(done, total, accepted int, symbol string)

// Result is the pre-screen output
type Result struct {
	Candidates []string            // input order
	Outcomes   []contracts.Outcome // one per input symbol
}

// Skipped counts the outcomes by skip reason
func (r *Result) Skipped() map[contracts.SkipReason]int {
	counts := make(map[contracts.SkipReason]int)
	for _, o := range r.Outcomes {
		if !o.Accepted {
			counts[o.Reason]++
		}
	}
	return counts
}

// PreScreener narrows the universe with cheap summary data
// ⭐ SSOT: 유니버스 → 후보 사전 필터
type PreScreener struct {
	provider contracts.SummaryProvider
	config   Config
	logger   *logger.Logger
}

// New creates a new PreScreener
func New(provider contracts.SummaryProvider, config Config, log *logger.Logger) *PreScreener {
	return &PreScreener{
		provider: provider,
		config:   config,
		logger:   log.WithComponent("prescreen"),
	}
}

// Config returns the active gate
func (p *PreScreener) Config() Config {
	return p.config
}

// Run fetches the summary of every symbol and keeps those above both
// minimums. Per-symbol failures are excluded, never returned. Only a
// cancelled ctx aborts the run.
func (p *PreScreener) Run(ctx context.Context, symbols []string, progress ProgressFunc) (*Result, error) {
	result := &Result{
		Candidates: make([]string, 0),
		Outcomes:   make([]contracts.Outcome, 0, len(symbols)),
	}

	for i, symbol := range symbols {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		outcome := p.screen(ctx, symbol)
		result.Outcomes = append(result.Outcomes, outcome)
		if outcome.Accepted {
			result.Candidates = append(result.Candidates, symbol)
		}

		if progress != nil {
			progress(i+1, len(symbols), len(result.Candidates), symbol)
		}
	}

	p.logger.WithFields(map[string]interface{}{
		"total":      len(symbols),
		"candidates": len(result.Candidates),
	}).Info("Pre-screen completed")

	return result, nil
}

// screen checks one symbol. Missing fields count as zero.
func (p *PreScreener) screen(ctx context.Context, symbol string) contracts.Outcome {
	summary, err := p.provider.FetchSummary(ctx, symbol)
	if err != nil || summary == nil {
		p.logger.WithField("symbol", symbol).WithError(err).Debug("Summary unavailable")
		return contracts.Skip(symbol, contracts.SkipSummaryUnavailable, err)
	}

	if contracts.Value(summary.MarketCap) < p.config.MinMarketCap {
		return contracts.Skip(symbol, contracts.SkipBelowMarketCap, nil)
	}
	if contracts.Value(summary.AvgVolume) < p.config.MinAvgVolume {
		return contracts.Skip(symbol, contracts.SkipBelowAvgVolume, nil)
	}

	return contracts.Accept(symbol)
}
