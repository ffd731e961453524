package main

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/spf13/cobra"

	"github.com/leonardcser/quickscope/internal/cache"
	"github.com/leonardcser/quickscope/internal/config"
	"github.com/leonardcser/quickscope/internal/fetcher"
	"github.com/leonardcser/quickscope/internal/logger"
	tools "github.com/leonardcser/quickscope/internal/tools"
)

var version = "0.1.0"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// newRootCmd builds the server command. It takes no arguments and serves
// MCP on stdio until the client disconnects.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:          "quickscope-mcp",
		Short:        "QuickScope market data MCP server (stdio)",
		Version:      version,
		Args:         cobra.NoArgs,
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			path, _ := cmd.Flags().GetString("config")
			return serve(path)
		},
	}
	cmd.PersistentFlags().String("config", "", "config file (default $XDG_CONFIG_HOME/quickscope/config.yaml)")
	return cmd
}

func serve(configPath string) error {
	// Bootstrap logging from the environment until the config is read.
	if err := logger.InitFromEnv(); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Errorf("load config: %v", err)
		return err
	}
	// stdout carries the MCP protocol, so logs go to the file or stderr.
	if err := logger.Init(logger.Options{
		Path:    cfg.Logging.File,
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.File == "",
	}); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	defer logger.Close()

	logger.Infof("Starting QuickScope MCP server")

	var kv cache.KV
	var store fetcher.Cache
	if cfg.Cache.Enabled {
		s := cache.OpenDefault(cfg.Cache.Path, cache.Options{
			TTL:     cfg.TTLPolicy(),
			Metrics: cache.NewPrometheusMetrics("quickscope", prometheus.DefaultRegisterer),
		})
		defer s.Close()
		kv, store = s, s
		logger.Infof("Cache at %s (%s)", cfg.Cache.Path, cfg.Cache.TTL)
	} else {
		logger.Warnf("Cache disabled by configuration")
	}

	src := cfg.NewProvider()
	if cfg.Provider.APIKey == "" {
		logger.Warnf("No EODHD API key configured; provider calls will fail until %s is set", config.EnvAPIKey)
	}
	cached := fetcher.NewCached(src, store, fetcher.WithSingleFlight())
	logger.Infof("Initialized cached fetcher (news source: %s)", cfg.News())

	if cfg.Metrics.Addr != "" {
		go serveMetrics(cfg.Metrics.Addr)
	}

	s := server.NewMCPServer(
		"QuickScope",
		version,
		server.WithRecovery(),
		server.WithToolCapabilities(false),
	)

	toolMarket := mcp.NewTool("market-data",
		mcp.WithDescription(multiline(
			"Returns market data for a stock ticker as JSON",
			"\nFunctionality:",
			"- category selects price history, fundamentals, options, analyst ratings, news or all of them",
			"- Results are cached per ticker and category: 15 minutes for prices and options, 1 hour for news, 24 hours for fundamentals",
			"- The price history window (period, interval) is not part of the cache key",
			"\nUsage notes:",
			"- Set refresh to true to drop the cached entry and fetch again",
			"- With category 'all', a failed optional category is left out rather than failing the call",
		)),
		mcp.WithString("ticker", mcp.Required(), mcp.Description("Ticker symbol, e.g. AAPL or VOD.LSE")),
		mcp.WithString("category",
			mcp.Description("Which data to return"),
			mcp.Enum(fetcher.Categories...),
			mcp.DefaultString("all"),
		),
		mcp.WithString("period", mcp.Description("History window for price: 1d, 5d, 1mo, 3mo, 6mo, ytd, 1y, 2y, 5y, 10y or max")),
		mcp.WithString("interval", mcp.Description("Bar size for price: 1d, 1wk or 1mo")),
		mcp.WithNumber("max_items", mcp.Description("Maximum news items")),
		mcp.WithBoolean("refresh", mcp.Description("Bypass the cached entry")),
	)
	s.AddTool(toolMarket, tools.MarketDataHandler(cached, kv))
	logger.Debugf("Registered market-data tool")

	s.AddTool(mcp.NewTool("cache-stats",
		mcp.WithDescription("Reports total, expired and valid cache entries and the file size. Does not delete anything."),
	), tools.CacheStatsHandler(kv))

	s.AddTool(mcp.NewTool("cache-clear",
		mcp.WithDescription(multiline(
			"Removes cached market data",
			"- With ticker, removes every category for that ticker",
			"- Without ticker, removes everything",
		)),
		mcp.WithString("ticker", mcp.Description("Ticker to clear; omit to clear all")),
	), tools.CacheClearHandler(kv))

	s.AddTool(mcp.NewTool("cache-sweep",
		mcp.WithDescription("Deletes expired cache entries and returns how many were removed."),
	), tools.CacheSweepHandler(kv))
	logger.Infof("Registered market-data and cache tools")

	logger.Infof("Starting MCP server on stdio")
	if err := server.ServeStdio(s); err != nil {
		logger.Errorf("server error: %v", err)
		return err
	}
	return nil
}

// multiline joins lines with newlines for tool descriptions.
func multiline(lines ...string) string { return strings.Join(lines, "\n") }

func serveMetrics(addr string) {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.Handler())
	srv := &http.Server{Addr: addr, Handler: mux, ReadHeaderTimeout: 5 * time.Second}
	logger.Infof("Serving metrics on %s/metrics", addr)
	if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		logger.Errorf("metrics server: %v", err)
	}
}
