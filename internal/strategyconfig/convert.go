package strategyconfig

import "github.com/wonny/aegis-screener/internal/selection"

// FilterConfig converts the YAML thresholds to the engine config
func (c *Config) FilterConfig() selection.FilterConfig {
	f := c.Filters
	return selection.FilterConfig{
		MinMarketCap:      f.MarketCapMin,
		MinAvgVolume:      f.AvgVolumeMin,
		MaxRSI:            f.RSIMax,
		MaxPriceVs52wHigh: f.PriceVs52wHighMax,
		MinPriceVsSMA200:  f.PriceVsSMA200Min,
		MinRevenueGrowth:  f.RevenueGrowthMin,
		MinEPSGrowth:      f.EPSGrowthMin,
		MaxDebtToEquity:   f.DebtToEquityMax,
		MinGrossMargin:    f.GrossMarginMin,
		MaxTrailingPE:     f.TrailingPEMax,
		MaxPriceToSales:   f.PriceToSalesMax,
	}
}

// WeightConfig converts the YAML weights to the scorer config
func (c *Config) WeightConfig() selection.WeightConfig {
	w := c.Scoring.WeightsPct
	return selection.WeightConfig{
		RSI:      w.RSI,
		Revenue:  w.Revenue,
		EPS:      w.EPS,
		Drawdown: w.Drawdown,
	}
}

// NewScorer builds the scorer described by the strategy
func (c *Config) NewScorer() *selection.Scorer {
	return selection.NewScorer(c.FilterConfig(), c.WeightConfig()).
		WithSpans(c.Scoring.RevenueSpan, c.Scoring.EPSSpan)
}
