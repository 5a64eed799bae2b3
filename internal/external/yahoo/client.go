package yahoo

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/wonny/aegis-screener/pkg/httputil"
	"github.com/wonny/aegis-screener/pkg/logger"
)

// Default endpoints
const (
	DefaultChartURL   = "https://query1.finance.yahoo.com/v8/finance/chart"
	DefaultSummaryURL = "https://query2.finance.yahoo.com/v10/finance/quoteSummary"
	DefaultCookieURL  = "https://fc.yahoo.com"
	DefaultCrumbURL   = "https://query1.finance.yahoo.com/v1/test/getcrumb"
)

// Options configures the endpoints. Empty CrumbURL disables the
// cookie/crumb handshake (chart requests never need it).
type Options struct {
	ChartURL   string
	SummaryURL string
	CookieURL  string
	CrumbURL   string
}

// DefaultOptions returns the public Yahoo Finance endpoints
func DefaultOptions() Options {
	return Options{
		ChartURL:   DefaultChartURL,
		SummaryURL: DefaultSummaryURL,
		CookieURL:  DefaultCookieURL,
		CrumbURL:   DefaultCrumbURL,
	}
}

// Client handles communication with Yahoo Finance
// ⭐ SSOT: Yahoo Finance API 호출은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
	opts       Options

	mu     sync.RWMutex
	crumb  string
	crumbG singleflight.Group
}

// NewClient creates a new Yahoo Finance client. The http client should
// carry a cookie jar when the crumb handshake is enabled.
func NewClient(httpClient *httputil.Client, log *logger.Logger, opts Options) *Client {
	if opts.ChartURL == "" {
		opts.ChartURL = DefaultChartURL
	}
	if opts.SummaryURL == "" {
		opts.SummaryURL = DefaultSummaryURL
	}
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("yahoo"),
		opts:       opts,
	}
}

// getCrumb returns the cached crumb, fetching it once on first use.
// Concurrent callers share a single handshake.
func (c *Client) getCrumb(ctx context.Context) (string, error) {
	if c.opts.CrumbURL == "" {
		return "", nil
	}

	c.mu.RLock()
	crumb := c.crumb
	c.mu.RUnlock()
	if crumb != "" {
		return crumb, nil
	}

	v, err, _ := c.crumbG.Do("crumb", func() (interface{}, error) {
		// 1. 쿠키 세션 (응답 코드는 무시, 쿠키만 필요)
		if c.opts.CookieURL != "" {
			if resp, err := c.httpClient.Get(ctx, c.opts.CookieURL); err == nil {
				resp.Body.Close()
			}
		}

		// 2. crumb
		body, err := c.httpClient.GetBody(ctx, c.opts.CrumbURL)
		if err != nil {
			return "", fmt.Errorf("fetch crumb: %w", err)
		}
		crumb := strings.TrimSpace(string(body))
		if crumb == "" || strings.Contains(crumb, "<") {
			return "", errors.New("invalid crumb received")
		}

		c.mu.Lock()
		c.crumb = crumb
		c.mu.Unlock()
		return crumb, nil
	})
	if err != nil {
		return "", err
	}
	return v.(string), nil
}

func (c *Client) resetCrumb() {
	c.mu.Lock()
	c.crumb = ""
	c.mu.Unlock()
}

// getJSONWithCrumb appends the crumb to u and retries once with a fresh
// crumb on 401.
func (c *Client) getJSONWithCrumb(ctx context.Context, u string, out interface{}) error {
	for attempt := 0; attempt < 2; attempt++ {
		target := u
		crumb, err := c.getCrumb(ctx)
		if err != nil {
			c.logger.WithError(err).Debug("Crumb unavailable, continuing without it")
		} else if crumb != "" {
			target = u + "&crumb=" + url.QueryEscape(crumb)
		}

		err = c.httpClient.GetJSON(ctx, target, out)
		var statusErr *httputil.StatusError
		if errors.As(err, &statusErr) && statusErr.StatusCode == http.StatusUnauthorized && attempt == 0 {
			c.resetCrumb()
			continue
		}
		return err
	}
	return nil
}
