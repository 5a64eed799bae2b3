package selection

import (
	"math"

	"github.com/shopspring/decimal"

	"github.com/wonny/aegis-screener/internal/contracts"
)

// WeightConfig defines the composite score weights (sum = 100)
type WeightConfig struct {
	RSI      float64 // RSI 과매도 강도 (35)
	Revenue  float64 // 매출 성장 (25)
	EPS      float64 // EPS 성장 (20)
	Drawdown float64 // 52주 고점 대비 낙폭 (20)
}

// DefaultWeightConfig returns the standard 35/25/20/20 weights
func DefaultWeightConfig() WeightConfig {
	return WeightConfig{
		RSI:      35,
		Revenue:  25,
		EPS:      20,
		Drawdown: 20,
	}
	// Total: 100
}

// Sum returns the total weight
func (w WeightConfig) Sum() float64 {
	return w.RSI + w.Revenue + w.EPS + w.Drawdown
}

// ValidateWeights checks if weights sum to 100
func (w WeightConfig) ValidateWeights() bool {
	sum := w.Sum()
	return sum >= 99.99 && sum <= 100.01
}

// Normalization spans: a growth this far above its threshold earns the full weight
const (
	DefaultRevenueSpan = 0.40
	DefaultEPSSpan     = 0.32
)

// Scorer computes the composite score of a snapshot that passed every rule
type Scorer struct {
	filters     FilterConfig
	weights     WeightConfig
	revenueSpan float64
	epsSpan     float64
}

// NewScorer creates a new scorer
func NewScorer(filters FilterConfig, weights WeightConfig) *Scorer {
	return &Scorer{
		filters:     filters,
		weights:     weights,
		revenueSpan: DefaultRevenueSpan,
		epsSpan:     DefaultEPSSpan,
	}
}

// Weights returns the active weights
func (s *Scorer) Weights() WeightConfig {
	return s.weights
}

// Score returns the per-term breakdown and the total in [0,100] rounded
// to two decimals. Each term is clamped to [0, weight]; an absent signal
// contributes 0.
func (s *Scorer) Score(snap *contracts.StockSnapshot, priceVs52w *float64) (contracts.ScoreDetail, float64) {
	var d contracts.ScoreDetail

	if snap.RSI14 != nil && s.filters.MaxRSI > 0 {
		d.RSI = term((s.filters.MaxRSI-*snap.RSI14)/s.filters.MaxRSI, s.weights.RSI)
	}

	if snap.RevenueGrowth != nil && s.revenueSpan > 0 {
		d.Revenue = term((*snap.RevenueGrowth-s.filters.MinRevenueGrowth)/s.revenueSpan, s.weights.Revenue)
	}

	// FCF 만으로 통과한 경우 EPS 항은 0
	if snap.EPSGrowth != nil && s.epsSpan > 0 {
		d.EPS = term((*snap.EPSGrowth-s.filters.MinEPSGrowth)/s.epsSpan, s.weights.EPS)
	}

	if priceVs52w != nil && s.filters.MaxPriceVs52wHigh > 0 {
		d.Drawdown = term((s.filters.MaxPriceVs52wHigh-*priceVs52w)/s.filters.MaxPriceVs52wHigh, s.weights.Drawdown)
	}

	total := math.Max(0, math.Min(100, d.RSI+d.Revenue+d.EPS+d.Drawdown))

	return contracts.ScoreDetail{
		RSI:      round2(d.RSI),
		Revenue:  round2(d.Revenue),
		EPS:      round2(d.EPS),
		Drawdown: round2(d.Drawdown),
	}, round2(total)
}

// term scales a normalized strength by its weight, clamped to [0, weight]
func term(normalized, weight float64) float64 {
	if math.IsNaN(normalized) {
		return 0
	}
	normalized = math.Max(0, math.Min(1, normalized))
	return normalized * weight
}

// round2 rounds half away from zero to two decimals
func round2(v float64) float64 {
	return decimal.NewFromFloat(v).Round(2).InexactFloat64()
}

// WithSpans overrides the normalization spans
func (s *Scorer) WithSpans(revenue, eps float64) *Scorer {
	if revenue > 0 {
		s.revenueSpan = revenue
	}
	if eps > 0 {
		s.epsSpan = eps
	}
	return s
}
