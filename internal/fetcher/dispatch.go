package fetcher

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/leonardcser/quickscope/internal/cache"
)

var ErrUnknownCategory = errors.New("unknown category")

// Request names one category of data for one ticker. An empty Category
// means the full bundle.
type Request struct {
	Ticker   string
	Category string
	Price    PriceOptions
	MaxNews  int
}

// Categories lists the names accepted by Resolve, bundle first.
var Categories = []string{"all", "price", "fundamentals", "options", "analyst_ratings", "news"}

// Resolve maps a user-facing category name to the cache category the
// wrapper stores it under.
func Resolve(category string) (string, error) {
	switch strings.ToLower(strings.TrimSpace(category)) {
	case "", "all", cache.CategoryMarketData:
		return cache.CategoryMarketData, nil
	case cache.CategoryPrice, cache.CategoryStockData, "history":
		return cache.CategoryStockData, nil
	case cache.CategoryFundamental, cache.CategoryFundamentals:
		return cache.CategoryFundamentals, nil
	case cache.CategoryOptions, cache.CategoryOptionsChain:
		return cache.CategoryOptionsChain, nil
	case cache.CategoryAnalystRatings, "analyst", "ratings":
		return cache.CategoryAnalystRatings, nil
	case cache.CategoryNews:
		return cache.CategoryNews, nil
	}
	return "", fmt.Errorf("%w %q (want one of %s)", ErrUnknownCategory, category, strings.Join(Categories, ", "))
}

// Dispatch runs the Fetcher method that serves req.Category.
func Dispatch(ctx context.Context, f Fetcher, req Request) (any, error) {
	category, err := Resolve(req.Category)
	if err != nil {
		return nil, err
	}
	if strings.TrimSpace(req.Ticker) == "" {
		return nil, errors.New("ticker is required")
	}
	switch category {
	case cache.CategoryStockData:
		opts := req.Price
		if opts.Period == "" {
			opts.Period = DefaultPriceOptions.Period
		}
		if opts.Interval == "" {
			opts.Interval = DefaultPriceOptions.Interval
		}
		return f.FetchPriceHistory(ctx, req.Ticker, opts)
	case cache.CategoryFundamentals:
		return f.FetchFundamentals(ctx, req.Ticker)
	case cache.CategoryOptionsChain:
		return f.FetchOptionsChain(ctx, req.Ticker)
	case cache.CategoryAnalystRatings:
		return f.FetchAnalystRecommendations(ctx, req.Ticker)
	case cache.CategoryNews:
		n := req.MaxNews
		if n <= 0 {
			n = DefaultBundleNews
		}
		return f.FetchNews(ctx, req.Ticker, n)
	default:
		return f.FetchAll(ctx, req.Ticker)
	}
}
