package selection

import (
	"time"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/pkg/logger"
)

// RuleID identifies one of the twelve filter rules
type RuleID string

const (
	RuleMarketCap     RuleID = "market_cap"
	RuleAvgVolume     RuleID = "avg_volume"
	RuleRSI           RuleID = "rsi"
	RulePriceVs52w    RuleID = "price_vs_52w_high"
	RulePriceVsSMA20  RuleID = "price_vs_sma20"
	RulePriceVsSMA200 RuleID = "price_vs_sma200"
	RuleRevenueGrowth RuleID = "revenue_growth"
	RuleEPSOrFCF      RuleID = "eps_growth_or_fcf"
	RuleDebtToEquity  RuleID = "debt_to_equity"
	RuleGrossMargin   RuleID = "gross_margin"
	RuleTrailingPE    RuleID = "trailing_pe"
	RulePriceToSales  RuleID = "price_to_sales"
)

// Rule describes one rule for reporting
type Rule struct {
	Number    int    `json:"number"`
	ID        RuleID `json:"id"`
	Mandatory bool   `json:"mandatory"`
}

// Rules returns the rules in evaluation order
func Rules() []Rule {
	return []Rule{
		{1, RuleMarketCap, true},
		{2, RuleAvgVolume, true},
		{3, RuleRSI, true},
		{4, RulePriceVs52w, false},
		{5, RulePriceVsSMA20, false},
		{6, RulePriceVsSMA200, false},
		{7, RuleRevenueGrowth, false},
		{8, RuleEPSOrFCF, true},
		{9, RuleDebtToEquity, false},
		{10, RuleGrossMargin, false},
		{11, RuleTrailingPE, false},
		{12, RulePriceToSales, false},
	}
}

// FilterConfig defines the rule thresholds
// SSOT: config/strategy/oversold_growth.yaml filters
type FilterConfig struct {
	MinMarketCap      float64 // 시가총액 최소 (5e9)
	MinAvgVolume      float64 // 20일 평균 거래량 최소 (1.5e6)
	MaxRSI            float64 // RSI(14) 최대 (28)
	MaxPriceVs52wHigh float64 // 52주 고점 대비 최대 (0.75)
	MinPriceVsSMA200  float64 // 200일선 대비 최소 (0.85)
	MinRevenueGrowth  float64 // 매출 성장률 최소 (0.10)
	MinEPSGrowth      float64 // EPS 성장률 최소 (0.08), 또는 FCF > 0
	MaxDebtToEquity   float64 // 부채비율 최대 (0.80)
	MinGrossMargin    float64 // 매출총이익률 최소 (0.30)
	MaxTrailingPE     float64 // PER 최대 (25)
	MaxPriceToSales   float64 // PSR 최대 (4.0)
}

// DefaultFilterConfig returns the standard oversold/high-growth thresholds
func DefaultFilterConfig() FilterConfig {
	return FilterConfig{
		MinMarketCap:      5e9,
		MinAvgVolume:      1.5e6,
		MaxRSI:            28,
		MaxPriceVs52wHigh: 0.75,
		MinPriceVsSMA200:  0.85,
		MinRevenueGrowth:  0.10,
		MinEPSGrowth:      0.08,
		MaxDebtToEquity:   0.80,
		MinGrossMargin:    0.30,
		MaxTrailingPE:     25,
		MaxPriceToSales:   4.0,
	}
}

// Evaluation is the outcome of running one snapshot through the rules
type Evaluation struct {
	Passed bool
	Failed RuleID // set when Passed is false
	Result *contracts.FilterResult
}

// FilterEngine applies the ordered rules and scores survivors.
// Pure: no I/O, deterministic for a given snapshot and clock.
// ⭐ SSOT: 12개 필터 규칙은 여기서만
type FilterEngine struct {
	config FilterConfig
	scorer *Scorer
	now    func() time.Time
	logger *logger.Logger
}

// NewFilterEngine creates a new filter engine
func NewFilterEngine(config FilterConfig, scorer *Scorer, log *logger.Logger) *FilterEngine {
	if log == nil {
		log = logger.Nop()
	}
	return &FilterEngine{
		config: config,
		scorer: scorer,
		now:    time.Now,
		logger: log,
	}
}

// WithClock overrides the clock used for LastUpdated
func (e *FilterEngine) WithClock(now func() time.Time) *FilterEngine {
	e.now = now
	return e
}

// Config returns the active thresholds
func (e *FilterEngine) Config() FilterConfig {
	return e.config
}

// Scorer returns the scorer applied to survivors
func (e *FilterEngine) Scorer() *Scorer {
	return e.scorer
}

// Evaluate runs the rules in order. The first failing rule short-circuits.
func (e *FilterEngine) Evaluate(s *contracts.StockSnapshot) Evaluation {
	failed, priceVs52w := e.checkConditions(s)
	if failed != "" {
		e.logger.WithFields(map[string]interface{}{
			"symbol": s.Symbol,
			"rule":   failed,
		}).Debug("Rejected")
		return Evaluation{Failed: failed}
	}

	detail, total := e.scorer.Score(s, priceVs52w)

	return Evaluation{
		Passed: true,
		Result: &contracts.FilterResult{
			Symbol:         s.Symbol,
			Name:           s.Name,
			Sector:         s.Sector,
			Industry:       s.Industry,
			Exchange:       s.Exchange,
			Price:          s.Price,
			MarketCap:      s.MarketCap,
			RSI14:          s.RSI14,
			PriceVs52wHigh: priceVs52w,
			High52w:        s.High52w,
			Low52w:         s.Low52w,
			RevenueGrowth:  s.RevenueGrowth,
			EPSGrowth:      s.EPSGrowth,
			GrossMargin:    s.GrossMargin,
			DebtToEquity:   s.DebtToEquity,
			TrailingPE:     s.TrailingPE,
			PriceToSales:   s.PriceToSales,
			FreeCashFlow:   s.FreeCashFlow,
			AvgVolume20:    s.AvgVolume20,
			SMA20:          s.SMA20,
			SMA200:         s.SMA200,
			CompositeScore: total,
			Scores:         detail,
			LastUpdated:    e.now(),
		},
	}
}

// checkConditions returns the failing rule ("" when all pass) and the
// price/52w-high ratio when it could be computed.
func (e *FilterEngine) checkConditions(s *contracts.StockSnapshot) (RuleID, *float64) {
	c := e.config

	// 1~3: 필수 (값이 없으면 탈락)
	if s.MarketCap == nil || *s.MarketCap < c.MinMarketCap {
		return RuleMarketCap, nil
	}
	if s.AvgVolume20 == nil || *s.AvgVolume20 < c.MinAvgVolume {
		return RuleAvgVolume, nil
	}
	if s.RSI14 == nil || *s.RSI14 > c.MaxRSI {
		return RuleRSI, nil
	}

	// 4~7: 값이 없으면 건너뜀
	var priceVs52w *float64
	if positive(s.High52w) {
		ratio := s.Price / *s.High52w
		if ratio > c.MaxPriceVs52wHigh {
			return RulePriceVs52w, nil
		}
		priceVs52w = &ratio
	}
	if positive(s.SMA20) && s.Price > *s.SMA20 {
		return RulePriceVsSMA20, priceVs52w
	}
	if positive(s.SMA200) {
		if ratio := s.Price / *s.SMA200; ratio < c.MinPriceVsSMA200 {
			return RulePriceVsSMA200, priceVs52w
		}
	}
	if s.RevenueGrowth != nil && *s.RevenueGrowth < c.MinRevenueGrowth {
		return RuleRevenueGrowth, priceVs52w
	}

	// 8: EPS 성장 또는 양의 FCF 중 하나는 필수
	epsOK := s.EPSGrowth != nil && *s.EPSGrowth >= c.MinEPSGrowth
	fcfOK := s.FreeCashFlow != nil && *s.FreeCashFlow > 0
	if !epsOK && !fcfOK {
		return RuleEPSOrFCF, priceVs52w
	}

	// 9~12: 값이 없으면 건너뜀 (PER/PSR 은 0 도 없음으로 취급)
	if s.DebtToEquity != nil && *s.DebtToEquity > c.MaxDebtToEquity {
		return RuleDebtToEquity, priceVs52w
	}
	if s.GrossMargin != nil && *s.GrossMargin < c.MinGrossMargin {
		return RuleGrossMargin, priceVs52w
	}
	if nonZero(s.TrailingPE) && *s.TrailingPE > c.MaxTrailingPE {
		return RuleTrailingPE, priceVs52w
	}
	if nonZero(s.PriceToSales) && *s.PriceToSales > c.MaxPriceToSales {
		return RulePriceToSales, priceVs52w
	}

	return "", priceVs52w
}

func positive(p *float64) bool {
	return p != nil && *p > 0
}

func nonZero(p *float64) bool {
	return p != nil && *p != 0
}
