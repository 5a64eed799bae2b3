package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	finance "github.com/piquette/finance-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/internal/indicators"
	"github.com/wonny/aegis-screener/pkg/httputil"
	"github.com/wonny/aegis-screener/pkg/logger"
)

const summaryJSON = `{"quoteSummary":{"result":[{
	"price":{"longName":"Acme Corp","shortName":"Acme","exchangeName":"NMS","marketCap":{"raw":12000000000}},
	"summaryDetail":{"averageVolume":{"raw":2500000},"trailingPE":{"raw":18.5},"priceToSalesTrailing12Months":{"raw":3.1}},
	"financialData":{"revenueGrowth":{"raw":0.22},"earningsGrowth":{"raw":0.15},"grossMargins":{"raw":0.45},"debtToEquity":{"raw":55.0}},
	"assetProfile":{"sector":"Technology","industry":"Software"}
}],"error":null}}`

// chartJSON builds n daily bars with a null bar at index 1
func chartJSON(n int) string {
	var ts, closes, vols []string
	base := time.Date(2025, 1, 2, 14, 30, 0, 0, time.UTC).Unix()
	for i := 0; i < n; i++ {
		ts = append(ts, fmt.Sprintf("%d", base+int64(i)*86400))
		if i == 1 {
			closes = append(closes, "null")
			vols = append(vols, "null")
			continue
		}
		closes = append(closes, fmt.Sprintf("%d", 100+i))
		vols = append(vols, "1000000")
	}
	return fmt.Sprintf(`{"chart":{"result":[{"meta":{"symbol":"ACME","exchangeName":"NMS","longName":"Acme Corp"},
		"timestamp":[%s],"indicators":{"quote":[{"open":[%s],"high":[%s],"low":[%s],"close":[%s],"volume":[%s]}]}}],"error":null}}`,
		strings.Join(ts, ","), strings.Join(closes, ","), strings.Join(closes, ","), strings.Join(closes, ","),
		strings.Join(closes, ","), strings.Join(vols, ","))
}

func newTestClient(t *testing.T, handler http.Handler, withCrumb bool) *Client {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	opts := Options{ChartURL: srv.URL + "/chart", SummaryURL: srv.URL + "/summary"}
	if withCrumb {
		opts.CookieURL = srv.URL + "/cookie"
		opts.CrumbURL = srv.URL + "/crumb"
	}
	hc := httputil.New(logger.Nop(), 5*time.Second).DisableRetry().WithCookieJar()
	return NewClient(hc, logger.Nop(), opts)
}

func TestFetchDailyBars_SkipsNullCloses(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chart/ACME", func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "1d", r.URL.Query().Get("interval"))
		assert.Equal(t, "1y", r.URL.Query().Get("range"))
		fmt.Fprint(w, chartJSON(30))
	})
	c := newTestClient(t, mux, false)

	bars, err := c.FetchDailyBars(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Len(t, bars, 29)
	assert.Equal(t, 100.0, bars[0].Close)
	assert.Equal(t, 102.0, bars[1].Close)
	assert.True(t, bars[0].Time.Before(bars[1].Time))
}

func TestFetchDailyBars_NoData(t *testing.T) {
	tests := []struct {
		name string
		body string
	}{
		{"empty result", `{"chart":{"result":[],"error":null}}`},
		{"chart error", `{"chart":{"result":null,"error":{"code":"Not Found","description":"No data found, symbol may be delisted"}}}`},
		{"all null", `{"chart":{"result":[{"meta":{},"timestamp":[1,2],"indicators":{"quote":[{"close":[null,null]}]}}],"error":null}}`},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				fmt.Fprint(w, tt.body)
			}), false)

			_, err := c.FetchDailyBars(context.Background(), "GONE")
			assert.True(t, IsNoData(err), "got %v", err)
		})
	}
}

func TestFetchFundamentals(t *testing.T) {
	c := newTestClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Query().Get("modules"), "financialData")
		fmt.Fprint(w, summaryJSON)
	}), false)

	f, err := c.FetchFundamentals(context.Background(), "ACME")
	require.NoError(t, err)

	assert.Equal(t, "Acme Corp", f.Name)
	assert.Equal(t, "Technology", f.Sector)
	assert.Equal(t, 12e9, *f.MarketCap)
	assert.Equal(t, 2.5e6, *f.AvgVolume)
	assert.InDelta(t, 0.55, *f.DebtToEquity, 1e-9)
	assert.Nil(t, f.FreeCashFlow)
}

func TestFetchSnapshot(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/chart/ACME", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, chartJSON(220))
	})
	mux.HandleFunc("/summary/ACME", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, summaryJSON)
	})
	c := newTestClient(t, mux, false)

	snap, err := c.FetchSnapshot(context.Background(), "ACME")
	require.NoError(t, err)

	assert.Equal(t, "ACME", snap.Symbol)
	assert.Equal(t, "Acme Corp", snap.Name)
	assert.Equal(t, 319.0, snap.Price)
	require.NotNil(t, snap.SMA200)
	require.NotNil(t, snap.RSI14)
	assert.Equal(t, 100.0, *snap.RSI14) // 상승만 있음
	assert.Equal(t, 1e6, *snap.AvgVolume20)
	assert.Equal(t, 319.0, *snap.High52w)
	assert.Equal(t, 0.22, *snap.RevenueGrowth)
}

func TestBuildSnapshot_ShortHistory(t *testing.T) {
	bars := make([]indicators.Bar, 10)
	for i := range bars {
		bars[i] = indicators.Bar{Close: 50, High: 55, Low: 45, Volume: 100}
	}

	snap := BuildSnapshot("NEW", bars, nil, time.Now())

	assert.Equal(t, "NEW", snap.Name)
	assert.Equal(t, "Unknown", snap.Sector)
	assert.Equal(t, "Unknown", snap.Industry)
	assert.Nil(t, snap.SMA200)
	assert.Nil(t, snap.SMA20)
	assert.Nil(t, snap.RSI14)
	assert.Equal(t, 55.0, *snap.High52w)
	assert.Nil(t, snap.MarketCap)
}

func TestCrumb_RefreshedOnUnauthorized(t *testing.T) {
	var crumbCalls, summaryCalls int32

	mux := http.NewServeMux()
	mux.HandleFunc("/cookie", func(w http.ResponseWriter, r *http.Request) {
		http.SetCookie(w, &http.Cookie{Name: "A1", Value: "session", Path: "/"})
		w.WriteHeader(http.StatusNotFound)
	})
	mux.HandleFunc("/crumb", func(w http.ResponseWriter, r *http.Request) {
		n := atomic.AddInt32(&crumbCalls, 1)
		fmt.Fprintf(w, "crumb%d", n)
	})
	mux.HandleFunc("/summary/ACME", func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&summaryCalls, 1)
		if r.URL.Query().Get("crumb") == "crumb1" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		fmt.Fprint(w, summaryJSON)
	})
	c := newTestClient(t, mux, true)

	_, err := c.FetchFundamentals(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&crumbCalls))
	assert.Equal(t, int32(2), atomic.LoadInt32(&summaryCalls))

	// cached
	_, err = c.FetchFundamentals(context.Background(), "ACME")
	require.NoError(t, err)
	assert.Equal(t, int32(2), atomic.LoadInt32(&crumbCalls))
}

func TestCrumb_RejectsHTML(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/crumb", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html>consent</html>")
	})
	c := newTestClient(t, mux, true)

	_, err := c.getCrumb(context.Background())
	assert.Error(t, err)
}

type stubSummary struct {
	calls int
}

func (s *stubSummary) FetchSummary(ctx context.Context, symbol string) (*contracts.QuoteSummary, error) {
	s.calls++
	return &contracts.QuoteSummary{Symbol: symbol, MarketCap: contracts.Float(1)}, nil
}

func TestQuoteSummarizer(t *testing.T) {
	t.Run("maps quote fields", func(t *testing.T) {
		q := NewQuoteSummarizer(0, 0, nil, logger.Nop()).WithGetter(func(symbol string) (*finance.Equity, error) {
			eq := &finance.Equity{MarketCap: 6_000_000_000}
			eq.AverageDailyVolume3Month = 2_000_000
			return eq, nil
		})

		s, err := q.FetchSummary(context.Background(), "ACME")
		require.NoError(t, err)
		assert.Equal(t, 6e9, *s.MarketCap)
		assert.Equal(t, 2e6, *s.AvgVolume)
	})

	t.Run("zero means unknown", func(t *testing.T) {
		q := NewQuoteSummarizer(0, 0, nil, logger.Nop()).WithGetter(func(symbol string) (*finance.Equity, error) {
			return &finance.Equity{}, nil
		})

		s, err := q.FetchSummary(context.Background(), "ACME")
		require.NoError(t, err)
		assert.Nil(t, s.MarketCap)
		assert.Nil(t, s.AvgVolume)
	})

	t.Run("falls back on error", func(t *testing.T) {
		fb := &stubSummary{}
		q := NewQuoteSummarizer(0, 0, fb, logger.Nop()).WithGetter(func(symbol string) (*finance.Equity, error) {
			return nil, errors.New("boom")
		})

		s, err := q.FetchSummary(context.Background(), "ACME")
		require.NoError(t, err)
		assert.Equal(t, 1, fb.calls)
		assert.Equal(t, 1.0, *s.MarketCap)
	})

	t.Run("zero quote falls back", func(t *testing.T) {
		fb := &stubSummary{}
		q := NewQuoteSummarizer(0, 0, fb, logger.Nop()).WithGetter(func(symbol string) (*finance.Equity, error) {
			return &finance.Equity{}, nil
		})

		s, err := q.FetchSummary(context.Background(), "ACME")
		require.NoError(t, err)
		assert.Equal(t, 1, fb.calls)
		require.NotNil(t, s.MarketCap)
		assert.Equal(t, 1.0, *s.MarketCap)
	})

	t.Run("one zero field keeps the quote", func(t *testing.T) {
		fb := &stubSummary{}
		q := NewQuoteSummarizer(0, 0, fb, logger.Nop()).WithGetter(func(symbol string) (*finance.Equity, error) {
			return &finance.Equity{MarketCap: 6_000_000_000}, nil
		})

		s, err := q.FetchSummary(context.Background(), "ACME")
		require.NoError(t, err)
		assert.Equal(t, 0, fb.calls)
		assert.Equal(t, 6e9, *s.MarketCap)
		assert.Nil(t, s.AvgVolume)
	})

	t.Run("slow quote times out to fallback", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)

		fb := &stubSummary{}
		q := NewQuoteSummarizer(0, 0, fb, logger.Nop()).
			WithTimeout(20 * time.Millisecond).
			WithGetter(func(symbol string) (*finance.Equity, error) {
				<-release
				return nil, errors.New("late")
			})

		start := time.Now()
		s, err := q.FetchSummary(context.Background(), "ACME")
		require.NoError(t, err)
		assert.Less(t, time.Since(start), time.Second)
		assert.Equal(t, 1, fb.calls)
		assert.Equal(t, 1.0, *s.MarketCap)
	})

	t.Run("cancelled caller gets ctx error", func(t *testing.T) {
		release := make(chan struct{})
		defer close(release)

		fb := &stubSummary{}
		q := NewQuoteSummarizer(0, 0, fb, logger.Nop()).WithGetter(func(symbol string) (*finance.Equity, error) {
			<-release
			return nil, nil
		})

		ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
		defer cancel()

		_, err := q.FetchSummary(ctx, "ACME")
		assert.ErrorIs(t, err, context.DeadlineExceeded)
		assert.Equal(t, 0, fb.calls)
	})

	t.Run("error without fallback", func(t *testing.T) {
		q := NewQuoteSummarizer(0, 0, nil, logger.Nop()).WithGetter(func(symbol string) (*finance.Equity, error) {
			return nil, nil
		})

		_, err := q.FetchSummary(context.Background(), "ACME")
		assert.ErrorIs(t, err, contracts.ErrNoData)
	})
}
