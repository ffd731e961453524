package fetcher

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leonardcser/quickscope/internal/cache"
	"github.com/leonardcser/quickscope/internal/market"
)

func TestResolve(t *testing.T) {
	tests := map[string]string{
		"":             cache.CategoryMarketData,
		"all":          cache.CategoryMarketData,
		"PRICE":        cache.CategoryStockData,
		"stock_data":   cache.CategoryStockData,
		"fundamental":  cache.CategoryFundamentals,
		"options":      cache.CategoryOptionsChain,
		"analyst":      cache.CategoryAnalystRatings,
		" news ":       cache.CategoryNews,
		"market_data":  cache.CategoryMarketData,
		"fundamentals": cache.CategoryFundamentals,
	}
	for in, want := range tests {
		got, err := Resolve(in)
		require.NoError(t, err, in)
		assert.Equal(t, want, got, in)
	}

	_, err := Resolve("crypto")
	assert.ErrorIs(t, err, ErrUnknownCategory)
}

func TestDispatch(t *testing.T) {
	src := &stubSource{}
	ctx := context.Background()

	v, err := Dispatch(ctx, src, Request{Ticker: "AAPL", Category: "price"})
	require.NoError(t, err)
	assert.IsType(t, &market.StockData{}, v)

	v, err = Dispatch(ctx, src, Request{Ticker: "AAPL", Category: "news"})
	require.NoError(t, err)
	assert.IsType(t, []market.NewsItem{}, v)

	v, err = Dispatch(ctx, src, Request{Ticker: "AAPL"})
	require.NoError(t, err)
	assert.IsType(t, &market.MarketData{}, v)
	assert.Equal(t, 1, src.count(cache.CategoryMarketData))

	_, err = Dispatch(ctx, src, Request{Ticker: " ", Category: "news"})
	assert.Error(t, err)
	_, err = Dispatch(ctx, src, Request{Ticker: "AAPL", Category: "bonds"})
	assert.ErrorIs(t, err, ErrUnknownCategory)
}
