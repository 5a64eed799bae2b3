package universe

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/wonny/aegis-screener/internal/contracts"
	"github.com/wonny/aegis-screener/pkg/logger"
)

type fakeFetcher struct {
	pages map[string][]string
	errs  map[string]error
	calls []string
}

func (f *fakeFetcher) FetchColumn(ctx context.Context, pageURL, column string) ([]string, error) {
	f.calls = append(f.calls, pageURL+"#"+column)
	if err := f.errs[pageURL]; err != nil {
		return nil, err
	}
	return f.pages[pageURL], nil
}

func testConfig() Config {
	return Config{SP500URL: "sp", Nasdaq100URL: "nq"}
}

func TestSource_Fetch(t *testing.T) {
	fetcher := &fakeFetcher{pages: map[string][]string{
		"sp": {"AAPL", "BRK.B", "MSFT", "[1]"},
		"nq": {"ADBE", "AAPL", "msft"},
	}}
	src := NewSource(fetcher, testConfig(), logger.Nop())

	tests := []struct {
		kind contracts.UniverseKind
		want []string
	}{
		{contracts.UniverseSP500, []string{"AAPL", "BRK-B", "MSFT"}},
		{contracts.UniverseNasdaq100, []string{"ADBE", "AAPL", "MSFT"}},
		{contracts.UniverseBoth, []string{"AAPL", "BRK-B", "MSFT", "ADBE"}},
	}

	for _, tt := range tests {
		t.Run(string(tt.kind), func(t *testing.T) {
			got, err := src.Fetch(context.Background(), tt.kind)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}

	assert.Contains(t, fetcher.calls, "sp#Symbol")
	assert.Contains(t, fetcher.calls, "nq#Ticker")
}

func TestSource_Fetch_Errors(t *testing.T) {
	boom := errors.New("boom")

	t.Run("source error", func(t *testing.T) {
		src := NewSource(&fakeFetcher{errs: map[string]error{"sp": boom}}, testConfig(), logger.Nop())
		_, err := src.Fetch(context.Background(), contracts.UniverseSP500)
		assert.ErrorIs(t, err, contracts.ErrEmptyUniverse)
	})

	t.Run("empty table", func(t *testing.T) {
		src := NewSource(&fakeFetcher{pages: map[string][]string{"sp": {}}}, testConfig(), logger.Nop())
		_, err := src.Fetch(context.Background(), contracts.UniverseSP500)
		assert.ErrorIs(t, err, contracts.ErrEmptyUniverse)
	})

	t.Run("unknown kind", func(t *testing.T) {
		src := NewSource(&fakeFetcher{}, testConfig(), logger.Nop())
		_, err := src.Fetch(context.Background(), contracts.UniverseKind("dow"))
		assert.ErrorIs(t, err, contracts.ErrUnknownUniverse)
	})

	t.Run("union tolerates one failed half", func(t *testing.T) {
		src := NewSource(&fakeFetcher{
			pages: map[string][]string{"nq": {"ADBE"}},
			errs:  map[string]error{"sp": boom},
		}, testConfig(), logger.Nop())

		got, err := src.Fetch(context.Background(), contracts.UniverseBoth)
		require.NoError(t, err)
		assert.Equal(t, []string{"ADBE"}, got)
	})

	t.Run("union with both halves failed", func(t *testing.T) {
		src := NewSource(&fakeFetcher{errs: map[string]error{"sp": boom, "nq": boom}}, testConfig(), logger.Nop())
		_, err := src.Fetch(context.Background(), contracts.UniverseBoth)
		assert.ErrorIs(t, err, contracts.ErrEmptyUniverse)
	})
}

func TestNormalize(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"AAPL", "AAPL"},
		{" brk.b ", "BRK-B"},
		{"BF.B", "BF-B"},
		{"", ""},
		{"[a]", ""},
		{"Apple Inc.", ""},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, Normalize(tt.in), tt.in)
	}
}
