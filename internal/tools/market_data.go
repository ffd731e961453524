package tools

import (
	"context"

	json "github.com/goccy/go-json"
	"github.com/mark3labs/mcp-go/mcp"

	"github.com/leonardcser/quickscope/internal/cache"
	"github.com/leonardcser/quickscope/internal/fetcher"
)

// Handler is the signature mcp-go expects for tool callbacks.
type Handler = func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// MarketDataHandler returns the MCP tool handler for the "market-data" tool.
// kv may be nil when caching is disabled; refresh is then a no-op.
func MarketDataHandler(f fetcher.Fetcher, kv cache.KV) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if ctx.Err() != nil {
			return mcp.NewToolResultError(ctx.Err().Error()), nil
		}
		ticker, err := req.RequireString("ticker")
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		r := fetcher.Request{
			Ticker:   ticker,
			Category: req.GetString("category", "all"),
			Price: fetcher.PriceOptions{
				Period:   req.GetString("period", fetcher.DefaultPriceOptions.Period),
				Interval: req.GetString("interval", fetcher.DefaultPriceOptions.Interval),
			},
			MaxNews: req.GetInt("max_items", fetcher.DefaultBundleNews),
		}

		category, err := fetcher.Resolve(r.Category)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		if req.GetBool("refresh", false) && kv != nil {
			kv.Delete(ticker, category)
		}

		v, err := fetcher.Dispatch(ctx, f, r)
		if err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return jsonResult(v)
	}
}

// jsonResult renders v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	b, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return mcp.NewToolResultError("encode result: " + err.Error()), nil
	}
	return mcp.NewToolResultText(string(b)), nil
}
