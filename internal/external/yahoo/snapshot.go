package yahoo

import (
	"context"
	"errors"
	"time"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/internal/indicators"
)

const unknown = "Unknown"

// FetchSnapshot implements contracts.MarketDataProvider: one year of
// daily bars for the technical facts plus quoteSummary fundamentals.
func (c *Client) FetchSnapshot(ctx context.Context, symbol string) (*contracts.StockSnapshot, error) {
	bars, meta, err := c.fetchChart(ctx, symbol)
	if err != nil {
		return nil, err
	}

	fund, err := c.FetchFundamentals(ctx, symbol)
	if err != nil {
		return nil, err
	}

	snap := BuildSnapshot(symbol, bars, fund, time.Now())
	if snap.Name == symbol && meta.Name != "" {
		snap.Name = meta.Name
	}
	if snap.Exchange == unknown && meta.Exchange != "" {
		snap.Exchange = meta.Exchange
	}
	return snap, nil
}

// BuildSnapshot computes the technical facts from bars and merges the
// fundamentals. bars must be non-empty and oldest first.
func BuildSnapshot(symbol string, bars []indicators.Bar, fund *Fundamentals, fetchedAt time.Time) *contracts.StockSnapshot {
	closes := indicators.Closes(bars)

	snap := &contracts.StockSnapshot{
		Symbol:    symbol,
		Name:      symbol,
		Sector:    unknown,
		Industry:  unknown,
		Exchange:  unknown,
		Price:     closes[len(closes)-1],
		FetchedAt: fetchedAt,
	}

	if rsi, err := indicators.RSI(closes, 14); err == nil {
		snap.RSI14 = contracts.Float(rsi)
	}
	if sma, err := indicators.SMA(closes, 20); err == nil {
		snap.SMA20 = contracts.Float(sma)
	}
	// 200개 미만이면 SMA200 없음
	if sma, err := indicators.SMA(closes, 200); err == nil {
		snap.SMA200 = contracts.Float(sma)
	}
	if high, low, err := indicators.Range52w(bars); err == nil {
		snap.High52w = contracts.Float(high)
		snap.Low52w = contracts.Float(low)
	}
	if vol, err := indicators.AvgVolume(bars, 20); err == nil {
		snap.AvgVolume20 = contracts.Float(vol)
	}

	if fund != nil {
		if fund.Name != "" {
			snap.Name = fund.Name
		}
		if fund.Sector != "" {
			snap.Sector = fund.Sector
		}
		if fund.Industry != "" {
			snap.Industry = fund.Industry
		}
		if fund.Exchange != "" {
			snap.Exchange = fund.Exchange
		}
		snap.MarketCap = fund.MarketCap
		snap.TrailingPE = fund.TrailingPE
		snap.PriceToSales = fund.PriceToSales
		snap.RevenueGrowth = fund.RevenueGrowth
		snap.EPSGrowth = fund.EPSGrowth
		snap.GrossMargin = fund.GrossMargin
		snap.DebtToEquity = fund.DebtToEquity
		snap.FreeCashFlow = fund.FreeCashFlow
	}

	return snap
}

// IsNoData reports whether err means the symbol has no tradable history
func IsNoData(err error) bool {
	return errors.Is(err, contracts.ErrNoData)
}
