package fetcher

import (
	"context"
	"fmt"
	"strings"

	"github.com/rs/zerolog"
	"golang.org/x/sync/singleflight"

	"github.com/leonardcser/quickscope/internal/cache"
	"github.com/leonardcser/quickscope/internal/logger"
	"github.com/leonardcser/quickscope/internal/market"
)

// Cached wraps a Fetcher with read-through caching. Each call looks up the
// category key, returns a hit as is, and otherwise fetches, stores and
// returns the fresh record. Provider errors are returned unchanged.
//
// The cache key ignores period, interval and item count, so a cached price
// history is served for any window until it expires.
type Cached struct {
	src      Fetcher
	store    Cache
	useCache bool
	log      zerolog.Logger
	group    *singleflight.Group
}

type Option func(*Cached)

// WithUseCache toggles cache lookups and writes. Enabled by default.
func WithUseCache(use bool) Option {
	return func(c *Cached) { c.useCache = use }
}

func WithLogger(l zerolog.Logger) Option {
	return func(c *Cached) { c.log = l }
}

// WithSingleFlight collapses concurrent misses for the same key into one
// provider call. The shared call ignores cancellation of the caller that
// started it; a canceled caller returns its context error while the others
// still receive the result.
func WithSingleFlight() Option {
	return func(c *Cached) { c.group = &singleflight.Group{} }
}

func NewCached(src Fetcher, store Cache, opts ...Option) *Cached {
	c := &Cached{
		src:      src,
		store:    store,
		useCache: true,
		log:      logger.Component("fetcher"),
	}
	for _, opt := range opts {
		opt(c)
	}
	if store == nil {
		c.useCache = false
	}
	return c
}

var _ Fetcher = (*Cached)(nil)

func (c *Cached) FetchPriceHistory(ctx context.Context, ticker string, opts PriceOptions) (*market.StockData, error) {
	return readThrough(ctx, c, ticker, cache.CategoryStockData, func(ctx context.Context) (*market.StockData, error) {
		return c.src.FetchPriceHistory(ctx, ticker, opts)
	})
}

func (c *Cached) FetchFundamentals(ctx context.Context, ticker string) (*market.Fundamentals, error) {
	return readThrough(ctx, c, ticker, cache.CategoryFundamentals, func(ctx context.Context) (*market.Fundamentals, error) {
		return c.src.FetchFundamentals(ctx, ticker)
	})
}

func (c *Cached) FetchOptionsChain(ctx context.Context, ticker string) (*market.OptionsChain, error) {
	return readThrough(ctx, c, ticker, cache.CategoryOptionsChain, func(ctx context.Context) (*market.OptionsChain, error) {
		return c.src.FetchOptionsChain(ctx, ticker)
	})
}

func (c *Cached) FetchAnalystRecommendations(ctx context.Context, ticker string) (*market.AnalystRatings, error) {
	return readThrough(ctx, c, ticker, cache.CategoryAnalystRatings, func(ctx context.Context) (*market.AnalystRatings, error) {
		return c.src.FetchAnalystRecommendations(ctx, ticker)
	})
}

func (c *Cached) FetchNews(ctx context.Context, ticker string, maxItems int) ([]market.NewsItem, error) {
	return readThrough(ctx, c, ticker, cache.CategoryNews, func(ctx context.Context) ([]market.NewsItem, error) {
		return c.src.FetchNews(ctx, ticker, maxItems)
	})
}

// FetchAll caches the bundle under its own key, independent of the
// per-category entries.
func (c *Cached) FetchAll(ctx context.Context, ticker string) (*market.MarketData, error) {
	return readThrough(ctx, c, ticker, cache.CategoryMarketData, func(ctx context.Context) (*market.MarketData, error) {
		return c.src.FetchAll(ctx, ticker)
	})
}

func readThrough[T any](ctx context.Context, c *Cached, ticker, category string, fetch func(context.Context) (T, error)) (T, error) {
	if !c.useCache {
		return fetch(ctx)
	}
	log := c.log.With().Str("ticker", ticker).Str("category", category).Logger()

	if v, ok := c.store.Get(ticker, category); ok {
		if rec, ok := v.(T); ok {
			return rec, nil
		}
		log.Warn().Str("type", fmt.Sprintf("%T", v)).Msg("cached value has unexpected type, refetching")
	}

	load := func(ctx context.Context) (T, error) {
		rec, err := fetch(ctx)
		if err != nil {
			return rec, err
		}
		c.store.Set(ticker, category, rec)
		return rec, nil
	}
	if c.group == nil {
		return load(ctx)
	}

	// The flight outlives any one caller; each caller stops waiting when
	// its own context ends.
	flightCtx := context.WithoutCancel(ctx)
	ch := c.group.DoChan(strings.ToUpper(ticker)+":"+category, func() (any, error) {
		return load(flightCtx)
	})
	select {
	case <-ctx.Done():
		var zero T
		return zero, ctx.Err()
	case res := <-ch:
		if res.Shared {
			log.Debug().Msg("joined in-flight fetch")
		}
		if res.Err != nil {
			var zero T
			return zero, res.Err
		}
		return res.Val.(T), nil
	}
}
