package contracts

import "context"

// UniverseSource returns the ticker symbols to screen
// ⭐ SSOT: 유니버스 공급 인터페이스
type UniverseSource interface {
	Fetch(ctx context.Context, kind UniverseKind) ([]string, error)
}

// QuoteSummary holds the cheap fields used by the pre-screen
type QuoteSummary struct {
	Symbol    string
	MarketCap *float64
	AvgVolume *float64 // average daily volume (3 month)
}

// SummaryProvider fetches pre-screen fields for one symbol
// ⭐ SSOT: 사전 필터 데이터 인터페이스
type SummaryProvider interface {
	FetchSummary(ctx context.Context, symbol string) (*QuoteSummary, error)
}

// MarketDataProvider fetches the fully hydrated snapshot for one symbol.
// ErrNoData means the symbol has no tradable history.
// ⭐ SSOT: 상세 데이터 인터페이스
type MarketDataProvider interface {
	FetchSnapshot(ctx context.Context, symbol string) (*StockSnapshot, error)
}

// ResultCache stores the last completed run in a single global slot
// ⭐ SSOT: 결과 캐시 인터페이스
type ResultCache interface {
	Load(ctx context.Context) (*ScreeningRun, bool, error)
	Save(ctx context.Context, run *ScreeningRun) error
	Clear(ctx context.Context) error
}
