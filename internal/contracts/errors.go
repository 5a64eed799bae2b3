package contracts

import "errors"

var (
	// ErrEmptyUniverse aborts a run: the universe source returned nothing
	ErrEmptyUniverse = errors.New("failed to fetch stock universe")

	// ErrNoData means a symbol has no tradable history
	ErrNoData = errors.New("no market data")

	// ErrCacheMiss is returned by stores when the slot is empty
	ErrCacheMiss = errors.New("cache miss")

	// ErrUnknownUniverse is returned for an unsupported universe kind
	ErrUnknownUniverse = errors.New("unknown universe")
)
