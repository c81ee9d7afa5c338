package txcache

import "time"

const (
	// DefaultTTL is how long a fetched history is served without asking the provider.
	DefaultTTL = 10 * time.Minute
	// MaxTransactionsLimit is the hard cap on the history length handed
	// downstream; larger settings are clamped to it.
	MaxTransactionsLimit = 500
	// DefaultMaxTransactions caps the history length handed downstream.
	DefaultMaxTransactions = MaxTransactionsLimit
	// DefaultFetchTimeout bounds a single shared provider fetch.
	DefaultFetchTimeout = 30 * time.Second
)

const (
	resultHit           = "hit"
	resultMiss          = "miss"
	resultStaleFallback = "stale_fallback"
	resultError         = "error"
)
