package contracts

import "time"

// StockSnapshot is one symbol's hydrated data at fetch time
// ⭐ SSOT: MarketDataProvider → FilterEngine 전달
//
// Optional numerics are pointers: nil means "unknown", which is distinct
// from zero. A snapshot is never mutated after the provider returns it.
type StockSnapshot struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
	Exchange string `json:"exchange"`

	// Price facts
	Price       float64  `json:"current_price"`
	High52w     *float64 `json:"high_52w"`
	Low52w      *float64 `json:"low_52w"`
	SMA20       *float64 `json:"sma_20"`
	SMA200      *float64 `json:"sma_200"`
	RSI14       *float64 `json:"rsi"`
	AvgVolume20 *float64 `json:"avg_volume"`

	// Fundamentals (ratios are fractions, 0.15 = 15%)
	MarketCap     *float64 `json:"market_cap"`
	TrailingPE    *float64 `json:"pe_ratio"`
	PriceToSales  *float64 `json:"price_to_sales"`
	RevenueGrowth *float64 `json:"revenue_growth"`
	EPSGrowth     *float64 `json:"eps_growth"`
	GrossMargin   *float64 `json:"gross_margin"`
	DebtToEquity  *float64 `json:"debt_to_equity"`
	FreeCashFlow  *float64 `json:"free_cash_flow"`

	FetchedAt time.Time `json:"fetched_at"`
}

// FilterResult is a snapshot that survived every rule
// ⭐ SSOT: FilterEngine → Ranker → ResultCache 전달
type FilterResult struct {
	Symbol   string `json:"symbol"`
	Name     string `json:"name"`
	Sector   string `json:"sector"`
	Industry string `json:"industry"`
	Exchange string `json:"exchange,omitempty"`

	Price          float64  `json:"current_price"`
	MarketCap      *float64 `json:"market_cap"`
	RSI14          *float64 `json:"rsi"`
	PriceVs52wHigh *float64 `json:"price_vs_52w_high"`
	High52w        *float64 `json:"high_52w,omitempty"`
	Low52w         *float64 `json:"low_52w,omitempty"`
	RevenueGrowth  *float64 `json:"revenue_growth"`
	EPSGrowth      *float64 `json:"eps_growth"`
	GrossMargin    *float64 `json:"gross_margin"`
	DebtToEquity   *float64 `json:"debt_to_equity"`
	TrailingPE     *float64 `json:"pe_ratio"`
	PriceToSales   *float64 `json:"price_to_sales"`
	FreeCashFlow   *float64 `json:"free_cash_flow,omitempty"`
	AvgVolume20    *float64 `json:"avg_volume"`
	SMA20          *float64 `json:"sma_20"`
	SMA200         *float64 `json:"sma_200"`

	Rank           int         `json:"rank"`            // 1-based, set by the ranker
	CompositeScore float64     `json:"composite_score"` // 0~100, 2 decimals
	Scores         ScoreDetail `json:"scores"`
	LastUpdated    time.Time   `json:"last_updated"`
}

// ScoreDetail is the breakdown of the composite score
type ScoreDetail struct {
	RSI      float64 `json:"rsi_oversold"`
	Revenue  float64 `json:"revenue_growth"`
	EPS      float64 `json:"eps_fcf_strength"`
	Drawdown float64 `json:"drawdown_severity"`
}

// IsTopRanked checks if the result is in the top n ranks
func (r *FilterResult) IsTopRanked(n int) bool {
	return r.Rank > 0 && r.Rank <= n
}

// Float returns a pointer to v. Used to build optional fields.
func Float(v float64) *float64 {
	return &v
}

// Value dereferences an optional field, returning 0 when absent
func Value(p *float64) float64 {
	if p == nil {
		return 0
	}
	return *p
}
