package contracts

import "fmt"

// UniverseKind selects which constituent list is screened
type UniverseKind string

const (
	UniverseSP500     UniverseKind = "sp500"
	UniverseNasdaq100 UniverseKind = "nasdaq100"
	UniverseBoth      UniverseKind = "both" // S&P 500 ∪ NASDAQ-100
)

// ParseUniverseKind validates a universe identifier
func ParseUniverseKind(s string) (UniverseKind, error) {
	switch k := UniverseKind(s); k {
	case UniverseSP500, UniverseNasdaq100, UniverseBoth:
		return k, nil
	default:
		return "", fmt.Errorf("%w: %q", ErrUnknownUniverse, s)
	}
}

// Label returns the display name used in progress messages
func (k UniverseKind) Label() string {
	switch k {
	case UniverseSP500:
		return "SP500"
	case UniverseNasdaq100:
		return "NASDAQ100"
	case UniverseBoth:
		return "BOTH"
	default:
		return string(k)
	}
}
