package yahoo

import (
	"context"
	"fmt"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/piquette/finance-go/equity"
	"golang.org/x/time/rate"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/pkg/logger"
)

// EquityGetter fetches one equity quote. equity.Get in production.
type EquityGetter func(symbol string) (*finance.Equity, error)

// QuoteSummarizer implements contracts.SummaryProvider over the quote
// endpoint, which is one request per symbol and much cheaper than the
// chart + quoteSummary hydration.
// ⭐ SSOT: 사전 필터 데이터는 여기서만
type QuoteSummarizer struct {
	get      EquityGetter
	limiter  *rate.Limiter
	fallback contracts.SummaryProvider
	timeout  time.Duration // per-quote bound (0 = ctx only)
	logger   *logger.Logger
}

type quoteResult struct {
	eq  *finance.Equity
	err error
}

// NewQuoteSummarizer creates a summarizer limited to rps requests per second.
// fallback may be nil.
func NewQuoteSummarizer(rps float64, burst int, fallback contracts.SummaryProvider, log *logger.Logger) *QuoteSummarizer {
	var limiter *rate.Limiter
	if rps > 0 {
		if burst < 1 {
			burst = 1
		}
		limiter = rate.NewLimiter(rate.Limit(rps), burst)
	}
	return &QuoteSummarizer{
		get:      equity.Get,
		limiter:  limiter,
		fallback: fallback,
		logger:   log.WithComponent("yahoo-quote"),
	}
}

// WithGetter replaces the quote source (tests)
func (q *QuoteSummarizer) WithGetter(get EquityGetter) *QuoteSummarizer {
	q.get = get
	return q
}

// WithTimeout bounds each quote call (YAHOO_TIMEOUT)
func (q *QuoteSummarizer) WithTimeout(d time.Duration) *QuoteSummarizer {
	q.timeout = d
	return q
}

// FetchSummary returns market cap and 3-month average volume.
// A zero field from the quote endpoint is reported as unknown; when both
// are unknown the quoteSummary fallback is asked instead.
func (q *QuoteSummarizer) FetchSummary(ctx context.Context, symbol string) (*contracts.QuoteSummary, error) {
	if q.limiter != nil {
		if err := q.limiter.Wait(ctx); err != nil {
			return nil, err
		}
	}

	eq, err := q.quote(ctx, symbol)
	if ctxErr := ctx.Err(); ctxErr != nil {
		return nil, ctxErr
	}
	if err != nil || eq == nil {
		if err == nil {
			err = contracts.ErrNoData
		}
		return q.fallbackOr(ctx, symbol, err)
	}

	summary := &contracts.QuoteSummary{Symbol: symbol}
	if eq.MarketCap > 0 {
		summary.MarketCap = contracts.Float(float64(eq.MarketCap))
	}
	if eq.AverageDailyVolume3Month > 0 {
		summary.AvgVolume = contracts.Float(float64(eq.AverageDailyVolume3Month))
	}
	if summary.MarketCap == nil && summary.AvgVolume == nil && q.fallback != nil {
		return q.fallbackOr(ctx, symbol, contracts.ErrNoData)
	}
	return summary, nil
}

// quote runs the getter under ctx and the per-quote timeout.
// equity.Get has no context, so an abandoned call finishes in the background.
func (q *QuoteSummarizer) quote(ctx context.Context, symbol string) (*finance.Equity, error) {
	callCtx := ctx
	if q.timeout > 0 {
		var cancel context.CancelFunc
		callCtx, cancel = context.WithTimeout(ctx, q.timeout)
		defer cancel()
	}

	ch := make(chan quoteResult, 1)
	go func() {
		eq, err := q.get(symbol)
		ch <- quoteResult{eq: eq, err: err}
	}()

	select {
	case r := <-ch:
		return r.eq, r.err
	case <-callCtx.Done():
		return nil, callCtx.Err()
	}
}

func (q *QuoteSummarizer) fallbackOr(ctx context.Context, symbol string, err error) (*contracts.QuoteSummary, error) {
	if q.fallback != nil {
		q.logger.WithField("symbol", symbol).WithError(err).Debug("Quote unavailable, falling back to quoteSummary")
		return q.fallback.FetchSummary(ctx, symbol)
	}
	return nil, fmt.Errorf("quote %s: %w", symbol, err)
}
