package tools

import (
	"context"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/leonardcser/quickscope/internal/cache"
)

type statsView struct {
	cache.Stats
	StorageSizeMB float64 `json:"storage_size_mb"`
}

// CacheStatsHandler reports entry counts and file size. It never deletes.
func CacheStatsHandler(kv cache.KV) Handler {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if kv == nil {
			return mcp.NewToolResultError("cache is disabled"), nil
		}
		st := kv.Stats()
		return jsonResult(statsView{Stats: st, StorageSizeMB: st.SizeMB()})
	}
}

// CacheClearHandler removes one ticker's rows, or everything when no ticker
// is given.
func CacheClearHandler(kv cache.KV) Handler {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if kv == nil {
			return mcp.NewToolResultError("cache is disabled"), nil
		}
		ticker := strings.TrimSpace(req.GetString("ticker", ""))
		if ticker == "" {
			kv.ClearAll()
			return jsonResult(map[string]any{"cleared": "all"})
		}
		n := kv.ClearTicker(ticker)
		return jsonResult(map[string]any{"cleared": strings.ToUpper(ticker), "removed": n})
	}
}

// CacheSweepHandler deletes expired rows and reports how many went.
func CacheSweepHandler(kv cache.KV) Handler {
	return func(ctx context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		if kv == nil {
			return mcp.NewToolResultError("cache is disabled"), nil
		}
		return jsonResult(map[string]int{"removed": kv.SweepExpired()})
	}
}
