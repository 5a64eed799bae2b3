package selection

import (
	"math/rand"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-screener/internal/contracts"
)

var fixedNow = time.Date(2026, 3, 2, 14, 30, 0, 0, time.UTC)

func newTestEngine() *FilterEngine {
	cfg := DefaultFilterConfig()
	return NewFilterEngine(cfg, NewScorer(cfg, DefaultWeightConfig()), nil).
		WithClock(func() time.Time { return fixedNow })
}

// passingSnapshot passes all twelve rules with an expected score of 15.71
func passingSnapshot() *contracts.StockSnapshot {
	f := contracts.Float
	return &contracts.StockSnapshot{
		Symbol:        "TEST",
		Name:          "Test Corp",
		Price:         70,
		MarketCap:     f(6e9),
		AvgVolume20:   f(2e6),
		RSI14:         f(20),
		High52w:       f(100),
		SMA20:         f(72),
		SMA200:        f(80),
		RevenueGrowth: f(0.15),
		EPSGrowth:     f(0.10),
		DebtToEquity:  f(0.5),
		GrossMargin:   f(0.4),
		TrailingPE:    f(20),
		PriceToSales:  f(3),
		FreeCashFlow:  f(0),
	}
}

func TestEvaluate_ConcreteScenario(t *testing.T) {
	ev := newTestEngine().Evaluate(passingSnapshot())

	require.True(t, ev.Passed)
	require.NotNil(t, ev.Result)
	assert.Equal(t, 15.71, ev.Result.CompositeScore)
	assert.InDelta(t, 10.0, ev.Result.Scores.RSI, 0.01)
	assert.InDelta(t, 3.125, ev.Result.Scores.Revenue, 0.01)
	assert.InDelta(t, 1.25, ev.Result.Scores.EPS, 0.01)
	assert.InDelta(t, 1.33, ev.Result.Scores.Drawdown, 0.01)
	assert.InDelta(t, 0.70, *ev.Result.PriceVs52wHigh, 1e-9)
	assert.Equal(t, fixedNow, ev.Result.LastUpdated)
	assert.Equal(t, "TEST", ev.Result.Symbol)
}

func TestEvaluate_MarketCapRejectedRegardless(t *testing.T) {
	snap := passingSnapshot()
	snap.MarketCap = contracts.Float(4e9)

	ev := newTestEngine().Evaluate(snap)
	assert.False(t, ev.Passed)
	assert.Equal(t, RuleMarketCap, ev.Failed)
	assert.Nil(t, ev.Result)
}

func TestEvaluate_EachRuleFails(t *testing.T) {
	f := contracts.Float
	tests := []struct {
		name   string
		mutate func(s *contracts.StockSnapshot)
		want   RuleID
	}{
		{"avg volume", func(s *contracts.StockSnapshot) { s.AvgVolume20 = f(1e6) }, RuleAvgVolume},
		{"rsi", func(s *contracts.StockSnapshot) { s.RSI14 = f(28.01) }, RuleRSI},
		{"52w high", func(s *contracts.StockSnapshot) { s.High52w = f(90) }, RulePriceVs52w},
		{"sma20", func(s *contracts.StockSnapshot) { s.SMA20 = f(69) }, RulePriceVsSMA20},
		{"sma200", func(s *contracts.StockSnapshot) { s.SMA200 = f(90) }, RulePriceVsSMA200},
		{"revenue", func(s *contracts.StockSnapshot) { s.RevenueGrowth = f(0.05) }, RuleRevenueGrowth},
		{"eps and fcf", func(s *contracts.StockSnapshot) { s.EPSGrowth = f(0.02) }, RuleEPSOrFCF},
		{"eps and fcf absent", func(s *contracts.StockSnapshot) { s.EPSGrowth, s.FreeCashFlow = nil, nil }, RuleEPSOrFCF},
		{"debt", func(s *contracts.StockSnapshot) { s.DebtToEquity = f(1.2) }, RuleDebtToEquity},
		{"margin", func(s *contracts.StockSnapshot) { s.GrossMargin = f(0.2) }, RuleGrossMargin},
		{"pe", func(s *contracts.StockSnapshot) { s.TrailingPE = f(30) }, RuleTrailingPE},
		{"ps", func(s *contracts.StockSnapshot) { s.PriceToSales = f(5) }, RulePriceToSales},
	}

	engine := newTestEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := passingSnapshot()
			tt.mutate(snap)
			ev := engine.Evaluate(snap)
			assert.False(t, ev.Passed)
			assert.Equal(t, tt.want, ev.Failed)
		})
	}
}

func TestEvaluate_BoundaryValuesPass(t *testing.T) {
	f := contracts.Float
	snap := passingSnapshot()
	snap.MarketCap = f(5e9)
	snap.AvgVolume20 = f(1.5e6)
	snap.RSI14 = f(28)
	snap.SMA20 = f(70)
	snap.RevenueGrowth = f(0.10)
	snap.EPSGrowth = f(0.08)
	snap.DebtToEquity = f(0.80)
	snap.GrossMargin = f(0.30)
	snap.TrailingPE = f(25)
	snap.PriceToSales = f(4)

	ev := newTestEngine().Evaluate(snap)
	require.True(t, ev.Passed, "failed at %s", ev.Failed)
}

func TestEvaluate_MandatoryStrictness(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(s *contracts.StockSnapshot)
		want   RuleID
	}{
		{"market cap absent", func(s *contracts.StockSnapshot) { s.MarketCap = nil }, RuleMarketCap},
		{"avg volume absent", func(s *contracts.StockSnapshot) { s.AvgVolume20 = nil }, RuleAvgVolume},
		{"rsi absent", func(s *contracts.StockSnapshot) { s.RSI14 = nil }, RuleRSI},
	}

	engine := newTestEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := passingSnapshot()
			tt.mutate(snap)
			ev := engine.Evaluate(snap)
			assert.False(t, ev.Passed)
			assert.Equal(t, tt.want, ev.Failed)
		})
	}
}

func TestEvaluate_SoftRuleTolerance(t *testing.T) {
	f := contracts.Float
	tests := []struct {
		name       string
		mutate     func(s *contracts.StockSnapshot)
		zeroedTerm func(d contracts.ScoreDetail) float64
	}{
		{"52w high absent", func(s *contracts.StockSnapshot) { s.High52w = nil }, func(d contracts.ScoreDetail) float64 { return d.Drawdown }},
		{"52w high zero", func(s *contracts.StockSnapshot) { s.High52w = f(0) }, func(d contracts.ScoreDetail) float64 { return d.Drawdown }},
		{"sma20 absent", func(s *contracts.StockSnapshot) { s.SMA20 = nil }, nil},
		{"sma200 absent", func(s *contracts.StockSnapshot) { s.SMA200 = nil }, nil},
		{"revenue absent", func(s *contracts.StockSnapshot) { s.RevenueGrowth = nil }, func(d contracts.ScoreDetail) float64 { return d.Revenue }},
		{"debt absent", func(s *contracts.StockSnapshot) { s.DebtToEquity = nil }, nil},
		{"margin absent", func(s *contracts.StockSnapshot) { s.GrossMargin = nil }, nil},
		{"pe absent", func(s *contracts.StockSnapshot) { s.TrailingPE = nil }, nil},
		{"pe zero", func(s *contracts.StockSnapshot) { s.TrailingPE = f(0) }, nil},
		{"ps absent", func(s *contracts.StockSnapshot) { s.PriceToSales = nil }, nil},
		{"ps zero", func(s *contracts.StockSnapshot) { s.PriceToSales = f(0) }, nil},
	}

	engine := newTestEngine()
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			snap := passingSnapshot()
			tt.mutate(snap)
			ev := engine.Evaluate(snap)
			require.True(t, ev.Passed, "failed at %s", ev.Failed)
			if tt.zeroedTerm != nil {
				assert.Equal(t, 0.0, tt.zeroedTerm(ev.Result.Scores))
			}
		})
	}
}

func TestEvaluate_FCFOnlyPassContributesNoEPSTerm(t *testing.T) {
	snap := passingSnapshot()
	snap.EPSGrowth = contracts.Float(-0.30)
	snap.FreeCashFlow = contracts.Float(1e9)

	ev := newTestEngine().Evaluate(snap)
	require.True(t, ev.Passed)
	assert.Equal(t, 0.0, ev.Result.Scores.EPS)
}

func TestEvaluate_Determinism(t *testing.T) {
	engine := newTestEngine()
	first := engine.Evaluate(passingSnapshot())
	for i := 0; i < 10; i++ {
		again := engine.Evaluate(passingSnapshot())
		assert.Equal(t, first.Passed, again.Passed)
		assert.Equal(t, first.Result.CompositeScore, again.Result.CompositeScore)
	}
}

func TestEvaluate_MonotonicShortCircuit(t *testing.T) {
	engine := newTestEngine()
	f := contracts.Float

	// rule 3 fails; later fields must not change the outcome
	base := passingSnapshot()
	base.RSI14 = f(60)
	want := engine.Evaluate(base)
	require.Equal(t, RuleRSI, want.Failed)

	variants := []func(s *contracts.StockSnapshot){
		func(s *contracts.StockSnapshot) { s.High52w = nil },
		func(s *contracts.StockSnapshot) { s.SMA20 = f(1) },
		func(s *contracts.StockSnapshot) { s.RevenueGrowth = f(-1) },
		func(s *contracts.StockSnapshot) { s.EPSGrowth, s.FreeCashFlow = nil, nil },
		func(s *contracts.StockSnapshot) { s.TrailingPE = f(500) },
		func(s *contracts.StockSnapshot) { s.PriceToSales = f(100) },
	}
	for _, mutate := range variants {
		snap := passingSnapshot()
		snap.RSI14 = f(60)
		mutate(snap)
		got := engine.Evaluate(snap)
		assert.Equal(t, want.Passed, got.Passed)
		assert.Equal(t, want.Failed, got.Failed)
	}
}

func TestEvaluate_ScoreBounds(t *testing.T) {
	engine := newTestEngine()
	rng := rand.New(rand.NewSource(42))
	f := contracts.Float

	passed := 0
	for i := 0; i < 2000; i++ {
		price := 10 + rng.Float64()*200
		snap := &contracts.StockSnapshot{
			Symbol:        "R",
			Price:         price,
			MarketCap:     f(5e9 + rng.Float64()*1e12),
			AvgVolume20:   f(1.5e6 + rng.Float64()*1e8),
			RSI14:         f(rng.Float64() * 28),
			High52w:       f(price * (1 + rng.Float64()*5)),
			RevenueGrowth: f(0.10 + rng.Float64()*3),
			EPSGrowth:     f(-1 + rng.Float64()*5),
			FreeCashFlow:  f(1),
		}
		ev := engine.Evaluate(snap)
		if !ev.Passed {
			continue
		}
		passed++
		assert.GreaterOrEqual(t, ev.Result.CompositeScore, 0.0)
		assert.LessOrEqual(t, ev.Result.CompositeScore, 100.0)
	}
	assert.Greater(t, passed, 0)
}

func TestRules_Order(t *testing.T) {
	rules := Rules()
	require.Len(t, rules, 12)
	for i, r := range rules {
		assert.Equal(t, i+1, r.Number)
	}
	assert.True(t, rules[7].Mandatory)
	assert.Equal(t, RuleEPSOrFCF, rules[7].ID)
}
