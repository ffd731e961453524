package cache

import "time"

// KV is the maintenance and lookup surface of the store. Implementations
// must be safe for concurrent use by multiple goroutines.
type KV interface {
	Get(ticker, category string) (any, bool)
	Set(ticker, category string, value any)
	SetWithTTL(ticker, category string, value any, ttl time.Duration)
	Delete(ticker, category string)
	ClearTicker(ticker string) int
	ClearAll()
	SweepExpired() int
	Stats() Stats
}

var _ KV = (*Store)(nil)
