package yahoo

import (
	"context"
	"fmt"
	"net/url"

	"github.com/wonny/aegis-screener/internal/contracts"
)

const summaryModules = "price,summaryDetail,financialData,assetProfile"

// rawValue is Yahoo's {"raw": 1.23, "fmt": "1.23"} wrapper
type rawValue struct {
	Raw *float64 `json:"raw"`
}

type summaryResponse struct {
	QuoteSummary struct {
		Result []struct {
			Price struct {
				LongName     string   `json:"longName"`
				ShortName    string   `json:"shortName"`
				ExchangeName string   `json:"exchangeName"`
				MarketCap    rawValue `json:"marketCap"`
			} `json:"price"`
			SummaryDetail struct {
				MarketCap     rawValue `json:"marketCap"`
				AverageVolume rawValue `json:"averageVolume"`
				TrailingPE    rawValue `json:"trailingPE"`
				PriceToSales  rawValue `json:"priceToSalesTrailing12Months"`
			} `json:"summaryDetail"`
			FinancialData struct {
				RevenueGrowth  rawValue `json:"revenueGrowth"`
				EarningsGrowth rawValue `json:"earningsGrowth"`
				GrossMargins   rawValue `json:"grossMargins"`
				DebtToEquity   rawValue `json:"debtToEquity"`
				FreeCashflow   rawValue `json:"freeCashflow"`
			} `json:"financialData"`
			AssetProfile struct {
				Sector   string `json:"sector"`
				Industry string `json:"industry"`
			} `json:"assetProfile"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"quoteSummary"`
}

// Fundamentals is the quoteSummary part of a snapshot
type Fundamentals struct {
	Name          string
	Exchange      string
	Sector        string
	Industry      string
	MarketCap     *float64
	AvgVolume     *float64 // 3개월 평균
	TrailingPE    *float64
	PriceToSales  *float64
	RevenueGrowth *float64
	EPSGrowth     *float64
	GrossMargin   *float64
	DebtToEquity  *float64 // fraction (Yahoo reports percent)
	FreeCashFlow  *float64
}

// FetchFundamentals fetches the quoteSummary modules for one symbol
func (c *Client) FetchFundamentals(ctx context.Context, symbol string) (*Fundamentals, error) {
	u := fmt.Sprintf("%s/%s?modules=%s", c.opts.SummaryURL, url.PathEscape(symbol), url.QueryEscape(summaryModules))

	var resp summaryResponse
	if err := c.getJSONWithCrumb(ctx, u, &resp); err != nil {
		return nil, fmt.Errorf("quoteSummary %s: %w", symbol, err)
	}
	if resp.QuoteSummary.Error != nil {
		return nil, fmt.Errorf("quoteSummary %s: %w (%s)", symbol, contracts.ErrNoData, resp.QuoteSummary.Error.Description)
	}
	if len(resp.QuoteSummary.Result) == 0 {
		return nil, fmt.Errorf("quoteSummary %s: %w", symbol, contracts.ErrNoData)
	}

	r := resp.QuoteSummary.Result[0]
	f := &Fundamentals{
		Name:          r.Price.LongName,
		Exchange:      r.Price.ExchangeName,
		Sector:        r.AssetProfile.Sector,
		Industry:      r.AssetProfile.Industry,
		MarketCap:     r.Price.MarketCap.Raw,
		AvgVolume:     r.SummaryDetail.AverageVolume.Raw,
		TrailingPE:    r.SummaryDetail.TrailingPE.Raw,
		PriceToSales:  r.SummaryDetail.PriceToSales.Raw,
		RevenueGrowth: r.FinancialData.RevenueGrowth.Raw,
		EPSGrowth:     r.FinancialData.EarningsGrowth.Raw,
		GrossMargin:   r.FinancialData.GrossMargins.Raw,
		FreeCashFlow:  r.FinancialData.FreeCashflow.Raw,
	}
	if f.Name == "" {
		f.Name = r.Price.ShortName
	}
	if f.MarketCap == nil {
		f.MarketCap = r.SummaryDetail.MarketCap.Raw
	}
	if de := r.FinancialData.DebtToEquity.Raw; de != nil {
		f.DebtToEquity = contracts.Float(*de / 100)
	}

	return f, nil
}

// FetchSummary implements contracts.SummaryProvider over quoteSummary.
// Used when the quote endpoint is unavailable.
func (c *Client) FetchSummary(ctx context.Context, symbol string) (*contracts.QuoteSummary, error) {
	f, err := c.FetchFundamentals(ctx, symbol)
	if err != nil {
		return nil, err
	}
	return &contracts.QuoteSummary{
		Symbol:    symbol,
		MarketCap: f.MarketCap,
		AvgVolume: f.AvgVolume,
	}, nil
}
