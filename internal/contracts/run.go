package contracts

import "time"

// MaxResults caps the ranked shortlist
const MaxResults = 10

// ScreeningRun is one execution of the pipeline
// ⭐ SSOT: ResultCache 에 저장되는 단위
type ScreeningRun struct {
	RunID         string         `json:"run_id"`
	Timestamp     time.Time      `json:"timestamp"`
	Universe      UniverseKind   `json:"universe"`
	TotalScreened int            `json:"total_screened"`
	Candidates    int            `json:"candidates"`
	Hydrated      int            `json:"hydrated"`
	PassedFilters int            `json:"passed_filters"`
	Stocks        []FilterResult `json:"stocks"`

	// Diagnostics
	Rejections   map[string]int `json:"rejections,omitempty"` // rule id → count
	Skipped      map[string]int `json:"skipped,omitempty"`    // skip reason → count
	StrategyHash string         `json:"strategy_hash,omitempty"`
	DurationMs   int64          `json:"duration_ms"`
}

// Age returns how old the run is relative to now
func (r *ScreeningRun) Age(now time.Time) time.Duration {
	return now.Sub(r.Timestamp)
}

// HasSurvivors reports whether any stock passed all rules
func (r *ScreeningRun) HasSurvivors() bool {
	return r.PassedFilters > 0
}
