package handlers

import (
	"context"
	"fmt"
	"math"
	"net/http"
	"strconv"
	"time"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/internal/pipeline"
	"github.com/wonny/aegis-screener/internal/selection"
	"github.com/wonny/aegis-screener/pkg/logger"
)

// ScreeningService is what the handlers need from pipeline.Service
type ScreeningService interface {
	GetDailyStocks(ctx context.Context, forceRefresh bool) (*pipeline.Result, error)
	Universe() contracts.UniverseKind
	Filters() selection.FilterConfig
	Weights() selection.WeightConfig
	Progress() *pipeline.ProgressTracker
}

// ScreeningHandler handles the screener API endpoints
// ⭐ SSOT: 스크리닝 API 핸들러는 이 구조체에서만
type ScreeningHandler struct {
	service ScreeningService
	stream  StreamConfig
	logger  *logger.Logger
}

// NewScreeningHandler creates a new screening handler
func NewScreeningHandler(service ScreeningService, stream StreamConfig, log *logger.Logger) *ScreeningHandler {
	return &ScreeningHandler{
		service: service,
		stream:  stream.withDefaults(),
		logger:  log.WithComponent("api"),
	}
}

// DailyStocksResponse is the body of GET /api/daily-stocks
type DailyStocksResponse struct {
	Success        bool                     `json:"success"`
	Stocks         []contracts.FilterResult `json:"stocks"`
	Count          int                      `json:"count"`
	LastUpdated    time.Time                `json:"last_updated"`
	Universe       contracts.UniverseKind   `json:"universe"`
	Cached         bool                     `json:"cached"`
	TotalScreened  int                      `json:"total_screened"`
	Candidates     int                      `json:"candidates"`
	PassedFilters  int                      `json:"passed_filters"`
	FiltersApplied map[string]interface{}   `json:"filters_applied"`
	ScoringWeights map[string]string        `json:"scoring_weights"`
	Methodology    map[string]string        `json:"methodology"`
}

// GetDailyStocks returns the ranked shortlist, running the screen on a
// cold cache
// GET /api/daily-stocks?force_refresh=true
func (h *ScreeningHandler) GetDailyStocks(w http.ResponseWriter, r *http.Request) {
	force := false
	if v := r.URL.Query().Get("force_refresh"); v != "" {
		parsed, err := strconv.ParseBool(v)
		if err != nil {
			respondError(w, http.StatusBadRequest, "force_refresh must be a boolean")
			return
		}
		force = parsed
	}

	result, err := h.service.GetDailyStocks(r.Context(), force)
	if err != nil {
		h.logger.WithError(err).Error("Screening failed")
		respondError(w, http.StatusInternalServerError, err.Error())
		return
	}

	respondJSON(w, http.StatusOK, h.buildResponse(result))
}

func (h *ScreeningHandler) buildResponse(result *pipeline.Result) DailyStocksResponse {
	run := result.Run
	kind := h.service.Universe()

	stocks := run.Stocks
	if stocks == nil {
		stocks = []contracts.FilterResult{}
	}

	return DailyStocksResponse{
		Success:        true,
		Stocks:         stocks,
		Count:          len(stocks),
		LastUpdated:    run.Timestamp,
		Universe:       kind,
		Cached:         result.Cached,
		TotalScreened:  run.TotalScreened,
		Candidates:     run.Candidates,
		PassedFilters:  run.PassedFilters,
		FiltersApplied: filtersApplied(kind, h.service.Filters()),
		ScoringWeights: scoringWeights(h.service.Weights()),
		Methodology:    methodology(kind),
	}
}

// GetFilters returns the rule order and active thresholds
// GET /api/filters
func (h *ScreeningHandler) GetFilters(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"rules":           selection.Rules(),
		"filters_applied": filtersApplied(h.service.Universe(), h.service.Filters()),
		"scoring_weights": scoringWeights(h.service.Weights()),
	})
}

func filtersApplied(kind contracts.UniverseKind, f selection.FilterConfig) map[string]interface{} {
	return map[string]interface{}{
		"exchange":            exchangeLabel(kind),
		"min_market_cap":      fmt.Sprintf("$%.0fB", f.MinMarketCap/1e9),
		"min_volume":          fmt.Sprintf("%.1fM shares", f.MinAvgVolume/1e6),
		"max_rsi":             f.MaxRSI,
		"max_price_vs_52w":    pct(f.MaxPriceVs52wHigh),
		"min_price_vs_sma200": pct(f.MinPriceVsSMA200),
		"min_revenue_growth":  pct(f.MinRevenueGrowth),
		"min_eps_growth":      pct(f.MinEPSGrowth) + " OR positive FCF",
		"min_gross_margin":    pct(f.MinGrossMargin),
		"max_debt_to_equity":  f.MaxDebtToEquity,
		"max_trailing_pe":     f.MaxTrailingPE,
		"max_price_to_sales":  f.MaxPriceToSales,
	}
}

func scoringWeights(w selection.WeightConfig) map[string]string {
	return map[string]string{
		"rsi_oversold":      fmt.Sprintf("%.0f%%", w.RSI),
		"revenue_growth":    fmt.Sprintf("%.0f%%", w.Revenue),
		"eps_fcf_strength":  fmt.Sprintf("%.0f%%", w.EPS),
		"drawdown_severity": fmt.Sprintf("%.0f%%", w.Drawdown),
	}
}

func methodology(kind contracts.UniverseKind) map[string]string {
	return map[string]string{
		"step_1":    "Screen " + universeScope(kind),
		"step_2":    "Pre-filter by market cap + volume",
		"step_3":    "Fetch detailed data for candidates",
		"step_4":    "Apply all 12 strict filters",
		"step_5":    "Rank by composite score",
		"time":      "3-5 minutes",
		"advantage": "Finds hidden opportunities across entire market",
	}
}

func exchangeLabel(kind contracts.UniverseKind) string {
	switch kind {
	case contracts.UniverseNasdaq100:
		return "NASDAQ (NASDAQ-100)"
	case contracts.UniverseBoth:
		return "NYSE/NASDAQ (S&P 500 + NASDAQ-100)"
	default:
		return "NYSE/NASDAQ (S&P 500)"
	}
}

func universeScope(kind contracts.UniverseKind) string {
	switch kind {
	case contracts.UniverseNasdaq100:
		return "NASDAQ-100 (~100 stocks)"
	case contracts.UniverseBoth:
		return "S&P 500 + NASDAQ-100 (~520 stocks)"
	default:
		return "S&P 500 (~500 stocks)"
	}
}

// pct formats a fraction as a whole percentage (0.75 → "75%")
func pct(v float64) string {
	return strconv.FormatFloat(math.Round(v*10000)/100, 'f', -1, 64) + "%"
}
