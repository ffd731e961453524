// Package fetcher defines the per-category fetch contract and the
// cache-aside wrapper that puts a cache in front of it.
package fetcher

import (
	"context"
	"fmt"

	"github.com/leonardcser/quickscope/internal/market"
)

// PriceOptions selects the window of a price history request.
type PriceOptions struct {
	Period   string
	Interval string
}

// DefaultPriceOptions is one year of daily bars.
var DefaultPriceOptions = PriceOptions{Period: "1y", Interval: "1d"}

// PerCategory fetches one category of market data at a time.
type PerCategory interface {
	FetchPriceHistory(ctx context.Context, ticker string, opts PriceOptions) (*market.StockData, error)
	FetchFundamentals(ctx context.Context, ticker string) (*market.Fundamentals, error)
	FetchOptionsChain(ctx context.Context, ticker string) (*market.OptionsChain, error)
	FetchAnalystRecommendations(ctx context.Context, ticker string) (*market.AnalystRatings, error)
	FetchNews(ctx context.Context, ticker string, maxItems int) ([]market.NewsItem, error)
}

// Fetcher is a PerCategory source that can also build the full bundle.
type Fetcher interface {
	PerCategory
	FetchAll(ctx context.Context, ticker string) (*market.MarketData, error)
}

// Cache is the lookup surface the wrapper needs. *cache.Store satisfies it.
type Cache interface {
	Get(ticker, category string) (any, bool)
	Set(ticker, category string, value any)
}

// FetchError reports a provider failure for one category.
type FetchError struct {
	Ticker   string
	Category string
	Err      error
}

func (e *FetchError) Error() string {
	return fmt.Sprintf("fetch %s %s: %v", e.Ticker, e.Category, e.Err)
}

func (e *FetchError) Unwrap() error { return e.Err }
