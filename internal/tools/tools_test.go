package tools

import (
	"context"
	"errors"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	json "github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/leonardcser/quickscope/internal/cache"
	"github.com/leonardcser/quickscope/internal/fetcher"
	"github.com/leonardcser/quickscope/internal/market"
)

var asOf = time.Date(2025, 6, 2, 0, 0, 0, 0, time.UTC)

type fakeFetcher struct {
	mu    sync.Mutex
	calls map[string]int
	err   error
}

func (f *fakeFetcher) count(cat string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[cat]
}

func (f *fakeFetcher) hit(cat string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.calls == nil {
		f.calls = map[string]int{}
	}
	f.calls[cat]++
	return f.err
}

func (f *fakeFetcher) FetchPriceHistory(_ context.Context, t string, o fetcher.PriceOptions) (*market.StockData, error) {
	if err := f.hit(cache.CategoryStockData); err != nil {
		return nil, err
	}
	return &market.StockData{Ticker: strings.ToUpper(t), CurrentPrice: 190.5, Timestamp: asOf}, nil
}

func (f *fakeFetcher) FetchFundamentals(_ context.Context, t string) (*market.Fundamentals, error) {
	if err := f.hit(cache.CategoryFundamentals); err != nil {
		return nil, err
	}
	return &market.Fundamentals{Ticker: strings.ToUpper(t), Timestamp: asOf, PERatio: market.Float(28)}, nil
}

func (f *fakeFetcher) FetchOptionsChain(_ context.Context, t string) (*market.OptionsChain, error) {
	if err := f.hit(cache.CategoryOptionsChain); err != nil {
		return nil, err
	}
	return &market.OptionsChain{Ticker: strings.ToUpper(t), Timestamp: asOf}, nil
}

func (f *fakeFetcher) FetchAnalystRecommendations(_ context.Context, t string) (*market.AnalystRatings, error) {
	if err := f.hit(cache.CategoryAnalystRatings); err != nil {
		return nil, err
	}
	return &market.AnalystRatings{Ticker: strings.ToUpper(t), Timestamp: asOf, Buy: 2}, nil
}

func (f *fakeFetcher) FetchNews(_ context.Context, t string, n int) ([]market.NewsItem, error) {
	if err := f.hit(cache.CategoryNews); err != nil {
		return nil, err
	}
	items := make([]market.NewsItem, n)
	for i := range items {
		items[i] = market.NewsItem{Ticker: strings.ToUpper(t), Title: "headline", PublishedAt: asOf}
	}
	return items, nil
}

func (f *fakeFetcher) FetchAll(ctx context.Context, t string) (*market.MarketData, error) {
	if err := f.hit(cache.CategoryMarketData); err != nil {
		return nil, err
	}
	return fetcher.Bundle(ctx, f, strings.ToUpper(t), zerolog.Nop()), nil
}

func openStore(t *testing.T) *cache.Store {
	t.Helper()
	nop := zerolog.Nop()
	s, err := cache.Open(filepath.Join(t.TempDir(), "cache.bbolt"), cache.Options{Logger: &nop})
	require.NoError(t, err)
	t.Cleanup(func() { _ = s.Close() })
	return s
}

func call(t *testing.T, h Handler, args map[string]any) *mcp.CallToolResult {
	t.Helper()
	var req mcp.CallToolRequest
	req.Params.Arguments = args
	res, err := h(context.Background(), req)
	require.NoError(t, err)
	require.NotNil(t, res)
	return res
}

func text(t *testing.T, res *mcp.CallToolResult) string {
	t.Helper()
	require.NotEmpty(t, res.Content)
	tc, ok := res.Content[0].(mcp.TextContent)
	require.True(t, ok)
	return tc.Text
}

func TestMarketDataCategories(t *testing.T) {
	src := &fakeFetcher{}
	store := openStore(t)
	cached := fetcher.NewCached(src, store, fetcher.WithLogger(zerolog.Nop()))
	h := MarketDataHandler(cached, store)

	res := call(t, h, map[string]any{"ticker": "aapl", "category": "fundamentals"})
	require.False(t, res.IsError, text(t, res))
	var f market.Fundamentals
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &f))
	assert.Equal(t, "AAPL", f.Ticker)

	res = call(t, h, map[string]any{"ticker": "AAPL", "category": "news", "max_items": 3})
	require.False(t, res.IsError)
	var news []market.NewsItem
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &news))
	assert.Len(t, news, 3)

	res = call(t, h, map[string]any{"ticker": "AAPL"})
	require.False(t, res.IsError)
	var md market.MarketData
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &md))
	assert.NotNil(t, md.StockData)
	assert.NotNil(t, md.Fundamentals)
}

func TestMarketDataRefreshBypassesCache(t *testing.T) {
	src := &fakeFetcher{}
	store := openStore(t)
	cached := fetcher.NewCached(src, store, fetcher.WithLogger(zerolog.Nop()))
	h := MarketDataHandler(cached, store)

	call(t, h, map[string]any{"ticker": "MSFT", "category": "fundamentals"})
	call(t, h, map[string]any{"ticker": "MSFT", "category": "fundamentals"})
	assert.Equal(t, 1, src.count(cache.CategoryFundamentals))

	call(t, h, map[string]any{"ticker": "MSFT", "category": "fundamentals", "refresh": true})
	assert.Equal(t, 2, src.count(cache.CategoryFundamentals))
}

func TestMarketDataErrors(t *testing.T) {
	h := MarketDataHandler(&fakeFetcher{err: errors.New("upstream down")}, nil)

	res := call(t, h, map[string]any{})
	assert.True(t, res.IsError, "ticker is required")

	res = call(t, h, map[string]any{"ticker": "AAPL", "category": "bonds"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "unknown category")

	res = call(t, h, map[string]any{"ticker": "AAPL", "category": "news"})
	assert.True(t, res.IsError)
	assert.Contains(t, text(t, res), "upstream down")
}

func TestCacheTools(t *testing.T) {
	store := openStore(t)
	store.Set("AAPL", cache.CategoryNews, []market.NewsItem{{Title: "a", PublishedAt: asOf}})
	store.Set("AAPL", cache.CategoryFundamentals, &market.Fundamentals{Ticker: "AAPL", Timestamp: asOf})
	store.Set("MSFT", cache.CategoryNews, []market.NewsItem{{Title: "b", PublishedAt: asOf}})
	store.SetWithTTL("TSLA", cache.CategoryNews, []market.NewsItem{{Title: "c", PublishedAt: asOf}}, -time.Second)

	var st statsView
	res := call(t, CacheStatsHandler(store), nil)
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &st))
	assert.Equal(t, 4, st.TotalEntries)
	assert.Equal(t, 1, st.ExpiredEntries)

	var swept map[string]int
	res = call(t, CacheSweepHandler(store), nil)
	require.NoError(t, json.Unmarshal([]byte(text(t, res)), &swept))
	assert.Equal(t, 1, swept["removed"])

	res = call(t, CacheClearHandler(store), map[string]any{"ticker": "aapl"})
	assert.Contains(t, text(t, res), `"removed": 2`)
	assert.Equal(t, 1, store.Stats().TotalEntries)

	call(t, CacheClearHandler(store), nil)
	assert.Equal(t, 0, store.Stats().TotalEntries)
}

func TestCacheToolsDisabled(t *testing.T) {
	for name, h := range map[string]Handler{
		"stats": CacheStatsHandler(nil),
		"clear": CacheClearHandler(nil),
		"sweep": CacheSweepHandler(nil),
	} {
		res := call(t, h, nil)
		assert.True(t, res.IsError, name)
	}
}
