package wikipedia

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"github.com/wonny/aegis-screener/pkg/httputil"
	"github.com/wonny/aegis-screener/pkg/logger"
)

// ErrColumnNotFound is returned when no table on the page has the column
var ErrColumnNotFound = errors.New("constituent column not found")

// Client scrapes index constituent tables from Wikipedia
// ⭐ SSOT: Wikipedia 스크래핑은 이 클라이언트에서만
type Client struct {
	httpClient *httputil.Client
	logger     *logger.Logger
}

// NewClient creates a new Wikipedia client
func NewClient(httpClient *httputil.Client, log *logger.Logger) *Client {
	return &Client{
		httpClient: httpClient,
		logger:     log.WithComponent("wikipedia"),
	}
}

// FetchColumn downloads pageURL and returns the cells of column from the
// first table whose header contains it, in page order.
func (c *Client) FetchColumn(ctx context.Context, pageURL, column string) ([]string, error) {
	body, err := c.httpClient.GetBody(ctx, pageURL)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", pageURL, err)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("parse %s: %w", pageURL, err)
	}

	values, err := ParseColumn(doc, column)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", pageURL, err)
	}

	c.logger.WithFields(map[string]interface{}{
		"url":    pageURL,
		"column": column,
		"count":  len(values),
	}).Debug("Scraped constituent table")

	return values, nil
}

// ParseColumn extracts column from the first matching table in doc
func ParseColumn(doc *goquery.Document, column string) ([]string, error) {
	var values []string
	found := false

	doc.Find("table").EachWithBreak(func(_ int, table *goquery.Selection) bool {
		idx := headerIndex(table, column)
		if idx < 0 {
			return true
		}
		found = true

		table.Find("tr").Each(func(_ int, row *goquery.Selection) {
			cells := row.Find("td")
			if cells.Length() <= idx {
				return // 헤더 행
			}
			v := strings.TrimSpace(cells.Eq(idx).Text())
			if v != "" {
				values = append(values, v)
			}
		})
		return false
	})

	if !found {
		return nil, fmt.Errorf("%w: %q", ErrColumnNotFound, column)
	}
	return values, nil
}

// headerIndex returns the position of column in the table's header row,
// or -1.
func headerIndex(table *goquery.Selection, column string) int {
	idx := -1
	table.Find("tr").First().Find("th").EachWithBreak(func(i int, th *goquery.Selection) bool {
		if strings.EqualFold(strings.TrimSpace(th.Text()), column) {
			idx = i
			return false
		}
		return true
	})
	return idx
}
