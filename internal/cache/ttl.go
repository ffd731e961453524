package cache

import (
	"strings"
	"time"
)

// Known categories. Any other string is accepted as a category and uses the
// fundamentals TTL.
const (
	CategoryPrice          = "price"
	CategoryStockData      = "stock_data"
	CategoryFundamental    = "fundamental"
	CategoryFundamentals   = "fundamentals"
	CategoryOptions        = "options"
	CategoryOptionsChain   = "options_chain"
	CategoryNews           = "news"
	CategoryAnalystRatings = "analyst_ratings"
	CategoryMarketData     = "market_data"
)

// TTLPolicy holds the default lifetime of each category group.
type TTLPolicy struct {
	Price        time.Duration
	Fundamentals time.Duration
	News         time.Duration
	Options      time.Duration
}

// DefaultTTLPolicy returns 15m for prices and options, 24h for fundamentals
// and 1h for news.
func DefaultTTLPolicy() TTLPolicy {
	return TTLPolicy{
		Price:        15 * time.Minute,
		Fundamentals: 24 * time.Hour,
		News:         time.Hour,
		Options:      15 * time.Minute,
	}
}

// For resolves the default TTL for category.
func (p TTLPolicy) For(category string) time.Duration {
	switch strings.ToLower(category) {
	case CategoryPrice, CategoryStockData, CategoryMarketData:
		return p.Price
	case CategoryOptions, CategoryOptionsChain:
		return p.Options
	case CategoryNews:
		return p.News
	default:
		return p.Fundamentals
	}
}

// withDefaults fills zero durations from DefaultTTLPolicy.
func (p TTLPolicy) withDefaults() TTLPolicy {
	d := DefaultTTLPolicy()
	if p.Price == 0 {
		p.Price = d.Price
	}
	if p.Fundamentals == 0 {
		p.Fundamentals = d.Fundamentals
	}
	if p.News == 0 {
		p.News = d.News
	}
	if p.Options == 0 {
		p.Options = d.Options
	}
	return p
}
