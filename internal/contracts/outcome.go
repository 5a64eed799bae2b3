package contracts

// SkipReason explains why a symbol left the funnel
type SkipReason string

const (
	SkipNone               SkipReason = ""
	SkipSummaryUnavailable SkipReason = "summary_unavailable"
	SkipBelowMarketCap     SkipReason = "below_market_cap"
	SkipBelowAvgVolume     SkipReason = "below_avg_volume"
	SkipNoData             SkipReason = "no_data"
	SkipFetchFailed        SkipReason = "fetch_failed"
	SkipTimeout            SkipReason = "timeout"
	SkipRejected           SkipReason = "rejected"
	SkipEvaluationPanic    SkipReason = "evaluation_panic"
)

// Outcome is the per-symbol result of a funnel stage
type Outcome struct {
	Symbol   string
	Accepted bool
	Reason   SkipReason
	Rule     string // failing rule id when Reason == SkipRejected
	Err      error
}

// Accept builds an accepted outcome
func Accept(symbol string) Outcome {
	return Outcome{Symbol: symbol, Accepted: true}
}

// Skip builds a skipped outcome
func Skip(symbol string, reason SkipReason, err error) Outcome {
	return Outcome{Symbol: symbol, Reason: reason, Err: err}
}
