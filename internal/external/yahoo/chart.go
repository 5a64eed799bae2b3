package yahoo

import (
	"context"
	"fmt"
	"net/url"
	"sort"
	"time"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/internal/indicators"
)

// chartResponse is the v8 chart API payload. Values are nullable on
// holidays and halted sessions.
type chartResponse struct {
	Chart struct {
		Result []struct {
			Meta struct {
				Symbol             string  `json:"symbol"`
				ExchangeName       string  `json:"exchangeName"`
				FullExchangeName   string  `json:"fullExchangeName"`
				LongName           string  `json:"longName"`
				ShortName          string  `json:"shortName"`
				RegularMarketPrice float64 `json:"regularMarketPrice"`
			} `json:"meta"`
			Timestamp  []int64 `json:"timestamp"`
			Indicators struct {
				Quote []struct {
					Open   []*float64 `json:"open"`
					High   []*float64 `json:"high"`
					Low    []*float64 `json:"low"`
					Close  []*float64 `json:"close"`
					Volume []*float64 `json:"volume"`
				} `json:"quote"`
			} `json:"indicators"`
		} `json:"result"`
		Error *struct {
			Code        string `json:"code"`
			Description string `json:"description"`
		} `json:"error"`
	} `json:"chart"`
}

// chartMeta is the identity part of the chart payload
type chartMeta struct {
	Name     string
	Exchange string
}

// FetchDailyBars fetches one year of daily bars, oldest first.
// Returns contracts.ErrNoData when there is no tradable history.
func (c *Client) FetchDailyBars(ctx context.Context, symbol string) ([]indicators.Bar, error) {
	bars, _, err := c.fetchChart(ctx, symbol)
	return bars, err
}

func (c *Client) fetchChart(ctx context.Context, symbol string) ([]indicators.Bar, chartMeta, error) {
	u := fmt.Sprintf("%s/%s?interval=1d&range=1y", c.opts.ChartURL, url.PathEscape(symbol))

	var resp chartResponse
	if err := c.httpClient.GetJSON(ctx, u, &resp); err != nil {
		return nil, chartMeta{}, fmt.Errorf("chart %s: %w", symbol, err)
	}
	if resp.Chart.Error != nil {
		return nil, chartMeta{}, fmt.Errorf("chart %s: %w (%s)", symbol, contracts.ErrNoData, resp.Chart.Error.Description)
	}
	if len(resp.Chart.Result) == 0 || len(resp.Chart.Result[0].Indicators.Quote) == 0 {
		return nil, chartMeta{}, fmt.Errorf("chart %s: %w", symbol, contracts.ErrNoData)
	}

	result := resp.Chart.Result[0]
	q := result.Indicators.Quote[0]

	bars := make([]indicators.Bar, 0, len(result.Timestamp))
	for i, ts := range result.Timestamp {
		cl := at(q.Close, i)
		if cl == nil {
			continue // null bar (휴장 등)
		}
		bars = append(bars, indicators.Bar{
			Time:   time.Unix(ts, 0).UTC(),
			Open:   deref(at(q.Open, i), *cl),
			High:   deref(at(q.High, i), *cl),
			Low:    deref(at(q.Low, i), *cl),
			Close:  *cl,
			Volume: deref(at(q.Volume, i), 0),
		})
	}
	if len(bars) == 0 {
		return nil, chartMeta{}, fmt.Errorf("chart %s: %w", symbol, contracts.ErrNoData)
	}

	sort.SliceStable(bars, func(i, j int) bool { return bars[i].Time.Before(bars[j].Time) })

	meta := chartMeta{Name: result.Meta.LongName, Exchange: result.Meta.ExchangeName}
	if meta.Name == "" {
		meta.Name = result.Meta.ShortName
	}
	return bars, meta, nil
}

func at(values []*float64, i int) *float64 {
	if i < len(values) {
		return values[i]
	}
	return nil
}

func deref(p *float64, fallback float64) float64 {
	if p == nil {
		return fallback
	}
	return *p
}
