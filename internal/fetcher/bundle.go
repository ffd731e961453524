package fetcher

import (
	"context"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/sync/errgroup"

	"github.com/leonardcser/quickscope/internal/cache"
	"github.com/leonardcser/quickscope/internal/market"
)

// DefaultBundleNews is the number of headlines Bundle asks for.
const DefaultBundleNews = 10

// Bundle fetches every category for ticker concurrently and keeps whatever
// succeeds. Failures are logged, never returned: price and fundamentals at
// error level since the bundle is incomplete without them, the rest at warn.
func Bundle(ctx context.Context, src PerCategory, ticker string, log zerolog.Logger) *market.MarketData {
	md := &market.MarketData{
		Ticker:    strings.ToUpper(ticker),
		Timestamp: time.Now().UTC(),
	}
	log = log.With().Str("ticker", md.Ticker).Logger()

	report := func(category string, mandatory bool, err error) {
		ev := log.Warn()
		if mandatory {
			ev = log.Error()
		}
		ev.Err(err).Str("category", category).Msg("bundle category failed")
	}

	var g errgroup.Group
	g.Go(func() error {
		sd, err := src.FetchPriceHistory(ctx, ticker, DefaultPriceOptions)
		if err != nil {
			report(cache.CategoryStockData, true, err)
			return nil
		}
		md.StockData = sd
		return nil
	})
	g.Go(func() error {
		f, err := src.FetchFundamentals(ctx, ticker)
		if err != nil {
			report(cache.CategoryFundamentals, true, err)
			return nil
		}
		md.Fundamentals = f
		return nil
	})
	g.Go(func() error {
		oc, err := src.FetchOptionsChain(ctx, ticker)
		if err != nil {
			report(cache.CategoryOptionsChain, false, err)
			return nil
		}
		md.OptionsChain = oc
		return nil
	})
	g.Go(func() error {
		news, err := src.FetchNews(ctx, ticker, DefaultBundleNews)
		if err != nil {
			report(cache.CategoryNews, false, err)
			return nil
		}
		md.News = news
		return nil
	})
	g.Go(func() error {
		ar, err := src.FetchAnalystRecommendations(ctx, ticker)
		if err != nil {
			report(cache.CategoryAnalystRatings, false, err)
			return nil
		}
		md.AnalystRatings = ar
		return nil
	})
	_ = g.Wait()

	if !md.IsComplete() {
		log.Warn().Bool("stock_data", md.StockData != nil).Bool("fundamentals", md.Fundamentals != nil).
			Msg("bundle is missing mandatory data")
	}
	return md
}
