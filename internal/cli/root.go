// Package cli implements the quickscope command line.
package cli

import (
	"errors"
	"fmt"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/leonardcser/quickscope/internal/cache"
	"github.com/leonardcser/quickscope/internal/config"
	"github.com/leonardcser/quickscope/internal/fetcher"
	"github.com/leonardcser/quickscope/internal/logger"
)

var errCacheDisabled = errors.New("cache is disabled (see --no-cache and cache.enabled)")

// session holds what PersistentPreRunE resolved for the running command.
type session struct {
	cfg   *config.Config
	store *cache.Store
	src   fetcher.Fetcher
	log   zerolog.Logger
}

// kv returns the store, or nil when caching is off.
func (s *session) kv() cache.KV {
	if s.store == nil {
		return nil
	}
	return s.store
}

// cached wraps the provider with the store unless caching is off.
func (s *session) cached() *fetcher.Cached {
	var c fetcher.Cache
	if s.store != nil {
		c = s.store
	}
	return fetcher.NewCached(s.src, c, fetcher.WithLogger(s.log))
}

// NewRootCmd creates the root command backed by the configured EODHD
// provider.
func NewRootCmd(ver string) *cobra.Command {
	return NewRootCmdWithFetcher(ver, nil)
}

// NewRootCmdWithFetcher creates the root command with src as the upstream
// fetcher. A nil src builds the provider from configuration.
func NewRootCmdWithFetcher(ver string, src fetcher.Fetcher) *cobra.Command {
	s := &session{}

	cmd := &cobra.Command{
		Use:          "quickscope",
		Short:        "Cached market data from the command line",
		Long:         "QuickScope fetches stock market data and keeps it in a local TTL cache.",
		Version:      ver,
		Example:      rootCmdExample,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return s.setup(cmd, src)
		},
		PersistentPostRunE: func(_ *cobra.Command, _ []string) error {
			return s.close()
		},
	}

	cmd.PersistentFlags().String("config", "", "config file (default $XDG_CONFIG_HOME/quickscope/config.yaml)")
	cmd.PersistentFlags().String("cache-db", "", "cache database path (overrides config and "+config.EnvCacheDB+")")
	cmd.PersistentFlags().Bool("debug", false, "enable debug logging")
	cmd.PersistentFlags().Bool("no-cache", false, "bypass the cache entirely")
	cmd.AddCommand(newFetchCmd(s), newCacheCmd(s), newConfigCmd(s))

	return cmd
}

func (s *session) setup(cmd *cobra.Command, src fetcher.Fetcher) error {
	path, _ := cmd.Flags().GetString("config")
	cfg, err := config.Load(path)
	if err != nil {
		return err
	}
	if db, _ := cmd.Flags().GetString("cache-db"); db != "" {
		cfg.Cache.Path = db
	}
	if noCache, _ := cmd.Flags().GetBool("no-cache"); noCache {
		cfg.Cache.Enabled = false
	}
	if debug, _ := cmd.Flags().GetBool("debug"); debug {
		cfg.Logging.Level = "debug"
		cfg.Logging.File = ""
	}

	if err := logger.Init(logger.Options{
		Path:    cfg.Logging.File,
		Level:   cfg.Logging.Level,
		Console: cfg.Logging.File == "",
	}); err != nil {
		return fmt.Errorf("init logging: %w", err)
	}
	s.log = logger.Component("cli")
	s.cfg = cfg

	if cfg.Cache.Enabled {
		s.store = cache.OpenDefault(cfg.Cache.Path, cache.Options{TTL: cfg.TTLPolicy()})
	}
	s.src = src
	if s.src == nil {
		s.src = cfg.NewProvider()
	}
	s.log.Debug().Str("cache", cfg.Cache.Path).Bool("enabled", cfg.Cache.Enabled).Msg("session ready")
	return nil
}

func (s *session) close() error {
	var err error
	if s.store != nil {
		err = s.store.Close()
		s.store = nil
	}
	return errors.Join(err, logger.Close())
}

const rootCmdExample = `  # Everything for one ticker
  quickscope fetch AAPL

  # Only fundamentals, skipping the cache
  quickscope fetch MSFT --category fundamentals --no-cache

  # Six months of weekly bars
  quickscope fetch TSLA --category price --period 6mo --interval 1wk

  # Inspect and maintain the cache
  quickscope cache stats
  quickscope cache clear AAPL
  quickscope cache sweep`
