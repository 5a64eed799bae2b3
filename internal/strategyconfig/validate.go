package strategyconfig

import (
	"fmt"
	"math"
)

// ValidationError 검증 실패 (프로그램 중단)
type ValidationError struct {
	Field   string
	Message string
}

func (e ValidationError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Message)
}

// Warning 권장 위반 (경고만)
type Warning struct {
	Code    string
	Message string
}

// Validate checks all required constraints
// 실패 시 error 반환 (프로그램 중단)
func Validate(cfg *Config) error {
	// === Meta ===
	if cfg.Meta.StrategyID == "" {
		return ValidationError{"meta.strategy_id", "required"}
	}

	// === PreScreen ===
	if cfg.PreScreen.MarketCapMin < 0 {
		return ValidationError{"prescreen.market_cap_min", "must be >= 0"}
	}
	if cfg.PreScreen.AvgVolumeMin < 0 {
		return ValidationError{"prescreen.avg_volume_min", "must be >= 0"}
	}

	// === Filters ===
	f := cfg.Filters
	if f.MarketCapMin <= 0 {
		return ValidationError{"filters.market_cap_min", "must be > 0"}
	}
	if f.AvgVolumeMin <= 0 {
		return ValidationError{"filters.avg_volume_min", "must be > 0"}
	}
	if f.RSIMax <= 0 || f.RSIMax > 100 {
		return ValidationError{"filters.rsi_max", "must be in (0, 100]"}
	}
	if err := validateRatio(f.PriceVs52wHighMax, "filters.price_vs_52w_high_max"); err != nil {
		return err
	}
	if f.PriceVsSMA200Min <= 0 {
		return ValidationError{"filters.price_vs_sma200_min", "must be > 0"}
	}
	if f.GrossMarginMin < 0 || f.GrossMarginMin > 1 {
		return ValidationError{"filters.gross_margin_min", "must be in range [0, 1]"}
	}
	if f.DebtToEquityMax <= 0 {
		return ValidationError{"filters.debt_to_equity_max", "must be > 0"}
	}
	if f.TrailingPEMax <= 0 {
		return ValidationError{"filters.trailing_pe_max", "must be > 0"}
	}
	if f.PriceToSalesMax <= 0 {
		return ValidationError{"filters.price_to_sales_max", "must be > 0"}
	}

	// === Scoring ===
	w := cfg.Scoring.WeightsPct
	for field, v := range map[string]float64{
		"rsi_oversold":      w.RSI,
		"revenue_growth":    w.Revenue,
		"eps_fcf_strength":  w.EPS,
		"drawdown_severity": w.Drawdown,
	} {
		if v < 0 {
			return ValidationError{"scoring.weights_pct." + field, "must be >= 0"}
		}
	}
	if math.Abs(w.Sum()-100) > 1e-6 {
		return ValidationError{"scoring.weights_pct", fmt.Sprintf("must sum to 100, got %.2f", w.Sum())}
	}
	if cfg.Scoring.RevenueSpan <= 0 {
		return ValidationError{"scoring.revenue_span", "must be > 0"}
	}
	if cfg.Scoring.EPSSpan <= 0 {
		return ValidationError{"scoring.eps_span", "must be > 0"}
	}

	// === Ranking ===
	if cfg.Ranking.TopN < 1 || cfg.Ranking.TopN > 10 {
		return ValidationError{"ranking.top_n", "must be in [1, 10]"}
	}

	return nil
}

// CheckWarnings returns non-fatal recommendations
func CheckWarnings(cfg *Config) []Warning {
	var warnings []Warning

	// 사전 필터가 본 필터보다 엄격하면 후보가 불필요하게 줄어듦
	if cfg.PreScreen.MarketCapMin > cfg.Filters.MarketCapMin {
		warnings = append(warnings, Warning{
			Code:    "PRESCREEN_STRICTER",
			Message: "prescreen market cap is stricter than rule 1",
		})
	}
	if cfg.PreScreen.AvgVolumeMin > cfg.Filters.AvgVolumeMin {
		warnings = append(warnings, Warning{
			Code:    "PRESCREEN_STRICTER",
			Message: "prescreen average volume is stricter than rule 2",
		})
	}

	if cfg.Filters.RSIMax > 35 {
		warnings = append(warnings, Warning{
			Code:    "LOOSE_RSI",
			Message: "rsi_max > 35 no longer selects oversold names",
		})
	}

	return warnings
}

// validateRatio는 비율 값이 (0, 1] 범위인지 검증
func validateRatio(v float64, field string) error {
	if v <= 0 || v > 1 {
		return ValidationError{field, "must be in range (0, 1]"}
	}
	return nil
}
