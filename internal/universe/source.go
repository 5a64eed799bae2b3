package universe

import (
	"context"
	"fmt"
	"regexp"
	"strings"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/pkg/logger"
)

// 티커 형식 (BRK-B, GOOGL 등). 각주나 빈 셀은 제외
var tickerPattern = regexp.MustCompile(`^[A-Z][A-Z0-9]*(-[A-Z0-9]+)?$`)

// ColumnFetcher reads one column of a constituent table
type ColumnFetcher interface {
	FetchColumn(ctx context.Context, pageURL, column string) ([]string, error)
}

// Config holds the constituent page locations
type Config struct {
	SP500URL        string
	SP500Column     string
	Nasdaq100URL    string
	Nasdaq100Column string
}

// DefaultConfig returns the Wikipedia constituent pages
func DefaultConfig() Config {
	return Config{
		SP500URL:        "https://en.wikipedia.org/wiki/List_of_S%26P_500_companies",
		SP500Column:     "Symbol",
		Nasdaq100URL:    "https://en.wikipedia.org/wiki/Nasdaq-100",
		Nasdaq100Column: "Ticker",
	}
}

// Source implements contracts.UniverseSource
// ⭐ SSOT: 유니버스 생성은 여기서만
type Source struct {
	fetcher ColumnFetcher
	config  Config
	logger  *logger.Logger
}

// NewSource creates a new universe source
func NewSource(fetcher ColumnFetcher, config Config, log *logger.Logger) *Source {
	def := DefaultConfig()
	if config.SP500Column == "" {
		config.SP500Column = def.SP500Column
	}
	if config.Nasdaq100Column == "" {
		config.Nasdaq100Column = def.Nasdaq100Column
	}
	return &Source{
		fetcher: fetcher,
		config:  config,
		logger:  log.WithComponent("universe"),
	}
}

// Fetch returns the ordered symbols of kind. An empty result is always
// reported as contracts.ErrEmptyUniverse.
func (s *Source) Fetch(ctx context.Context, kind contracts.UniverseKind) ([]string, error) {
	var (
		symbols []string
		err     error
	)

	switch kind {
	case contracts.UniverseSP500:
		symbols, err = s.fetchIndex(ctx, s.config.SP500URL, s.config.SP500Column)
	case contracts.UniverseNasdaq100:
		symbols, err = s.fetchIndex(ctx, s.config.Nasdaq100URL, s.config.Nasdaq100Column)
	case contracts.UniverseBoth:
		symbols, err = s.fetchUnion(ctx)
	default:
		return nil, fmt.Errorf("%w: %q", contracts.ErrUnknownUniverse, kind)
	}

	if err != nil {
		return nil, fmt.Errorf("%w: %v", contracts.ErrEmptyUniverse, err)
	}
	if len(symbols) == 0 {
		return nil, contracts.ErrEmptyUniverse
	}

	s.logger.WithFields(map[string]interface{}{
		"universe": kind.Label(),
		"count":    len(symbols),
	}).Info("Universe fetched")

	return symbols, nil
}

// fetchUnion merges both indexes, S&P 500 first. One failed half is
// tolerated.
func (s *Source) fetchUnion(ctx context.Context) ([]string, error) {
	sp, spErr := s.fetchIndex(ctx, s.config.SP500URL, s.config.SP500Column)
	if spErr != nil {
		s.logger.WithError(spErr).Warn("S&P 500 constituents unavailable")
	}

	nq, nqErr := s.fetchIndex(ctx, s.config.Nasdaq100URL, s.config.Nasdaq100Column)
	if nqErr != nil {
		s.logger.WithError(nqErr).Warn("NASDAQ-100 constituents unavailable")
	}

	if spErr != nil && nqErr != nil {
		return nil, fmt.Errorf("both indexes failed: %v; %v", spErr, nqErr)
	}

	return Dedupe(append(sp, nq...)), nil
}

func (s *Source) fetchIndex(ctx context.Context, pageURL, column string) ([]string, error) {
	raw, err := s.fetcher.FetchColumn(ctx, pageURL, column)
	if err != nil {
		return nil, err
	}

	symbols := make([]string, 0, len(raw))
	for _, v := range raw {
		sym := Normalize(v)
		if sym == "" {
			s.logger.WithField("value", v).Debug("Skipping non-ticker cell")
			continue
		}
		symbols = append(symbols, sym)
	}
	return Dedupe(symbols), nil
}

// Normalize converts a constituent cell to a Yahoo symbol (BRK.B → BRK-B).
// Returns "" when the cell is not a ticker.
func Normalize(v string) string {
	sym := strings.ToUpper(strings.TrimSpace(v))
	sym = strings.ReplaceAll(sym, ".", "-")
	if !tickerPattern.MatchString(sym) {
		return ""
	}
	return sym
}

// Dedupe removes repeated symbols keeping the first occurrence
func Dedupe(symbols []string) []string {
	seen := make(map[string]struct{}, len(symbols))
	out := make([]string, 0, len(symbols))
	for _, s := range symbols {
		if _, ok := seen[s]; ok {
			continue
		}
		seen[s] = struct{}{}
		out = append(out, s)
	}
	return out
}
