package strategyconfig

import "time"

// Config는 과매도/고성장 스크리닝 전략의 전체 설정
type Config struct {
	Meta      Meta      `yaml:"meta" json:"meta"`
	PreScreen PreScreen `yaml:"prescreen" json:"prescreen"`
	Filters   Filters   `yaml:"filters" json:"filters"`
	Scoring   Scoring   `yaml:"scoring" json:"scoring"`
	Ranking   Ranking   `yaml:"ranking" json:"ranking"`
}

// Meta 메타 정보
type Meta struct {
	StrategyID string `yaml:"strategy_id" json:"strategy_id"`
	Version    string `yaml:"version" json:"version"`
}

// PreScreen 사전 필터 (요약 데이터만 사용)
type PreScreen struct {
	MarketCapMin float64 `yaml:"market_cap_min" json:"market_cap_min"`
	AvgVolumeMin float64 `yaml:"avg_volume_min" json:"avg_volume_min"`
}

// Filters 12개 규칙 임계값
type Filters struct {
	MarketCapMin      float64 `yaml:"market_cap_min" json:"market_cap_min"`
	AvgVolumeMin      float64 `yaml:"avg_volume_min" json:"avg_volume_min"`
	RSIMax            float64 `yaml:"rsi_max" json:"rsi_max"`
	PriceVs52wHighMax float64 `yaml:"price_vs_52w_high_max" json:"price_vs_52w_high_max"`
	PriceVsSMA200Min  float64 `yaml:"price_vs_sma200_min" json:"price_vs_sma200_min"`
	RevenueGrowthMin  float64 `yaml:"revenue_growth_min" json:"revenue_growth_min"`
	EPSGrowthMin      float64 `yaml:"eps_growth_min" json:"eps_growth_min"`
	DebtToEquityMax   float64 `yaml:"debt_to_equity_max" json:"debt_to_equity_max"`
	GrossMarginMin    float64 `yaml:"gross_margin_min" json:"gross_margin_min"`
	TrailingPEMax     float64 `yaml:"trailing_pe_max" json:"trailing_pe_max"`
	PriceToSalesMax   float64 `yaml:"price_to_sales_max" json:"price_to_sales_max"`
}

// Scoring 종합 점수 가중치 (합 = 100)
type Scoring struct {
	WeightsPct  ScoringWeights `yaml:"weights_pct" json:"weights_pct"`
	RevenueSpan float64        `yaml:"revenue_span" json:"revenue_span"` // 만점까지의 초과 성장률
	EPSSpan     float64        `yaml:"eps_span" json:"eps_span"`
}

type ScoringWeights struct {
	RSI      float64 `yaml:"rsi_oversold" json:"rsi_oversold"`
	Revenue  float64 `yaml:"revenue_growth" json:"revenue_growth"`
	EPS      float64 `yaml:"eps_fcf_strength" json:"eps_fcf_strength"`
	Drawdown float64 `yaml:"drawdown_severity" json:"drawdown_severity"`
}

// Sum returns the sum of all weights
func (w ScoringWeights) Sum() float64 {
	return w.RSI + w.Revenue + w.EPS + w.Drawdown
}

// Ranking 최종 선정 수
type Ranking struct {
	TopN int `yaml:"top_n" json:"top_n"`
}

// DecisionSnapshot 실행 시점 설정 스냅샷 (재현성용)
type DecisionSnapshot struct {
	ConfigHash string    `json:"config_hash"`
	ConfigYAML string    `json:"config_yaml"`
	StrategyID string    `json:"strategy_id"`
	CreatedAt  time.Time `json:"created_at"`
}

// Default returns the built-in oversold/high-growth strategy
func Default() *Config {
	return &Config{
		Meta: Meta{StrategyID: "oversold_growth", Version: "1"},
		PreScreen: PreScreen{
			MarketCapMin: 5e9,
			AvgVolumeMin: 1.5e6,
		},
		Filters: Filters{
			MarketCapMin:      5e9,
			AvgVolumeMin:      1.5e6,
			RSIMax:            28,
			PriceVs52wHighMax: 0.75,
			PriceVsSMA200Min:  0.85,
			RevenueGrowthMin:  0.10,
			EPSGrowthMin:      0.08,
			DebtToEquityMax:   0.80,
			GrossMarginMin:    0.30,
			TrailingPEMax:     25,
			PriceToSalesMax:   4.0,
		},
		Scoring: Scoring{
			WeightsPct:  ScoringWeights{RSI: 35, Revenue: 25, EPS: 20, Drawdown: 20},
			RevenueSpan: 0.40,
			EPSSpan:     0.32,
		},
		Ranking: Ranking{TopN: 10},
	}
}
