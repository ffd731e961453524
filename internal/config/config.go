// Package config loads QuickScope settings from defaults, an optional YAML
// file and QUICKSCOPE_* environment variables, in that order.
package config

import (
	"errors"
	"fmt"
	"net/http"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/leonardcser/quickscope/internal/cache"
	"github.com/leonardcser/quickscope/internal/provider"
)

// Environment variables that override file values.
const (
	EnvCacheDB          = "QUICKSCOPE_CACHE_DB"
	EnvCacheEnabled     = "QUICKSCOPE_CACHE_ENABLED"
	EnvTTLPrice         = "QUICKSCOPE_CACHE_TTL_PRICE"
	EnvTTLFundamentals  = "QUICKSCOPE_CACHE_TTL_FUNDAMENTALS"
	EnvTTLOptions       = "QUICKSCOPE_CACHE_TTL_OPTIONS"
	EnvTTLNews          = "QUICKSCOPE_CACHE_TTL_NEWS"
	EnvAPIKey           = "EODHD_API_KEY"
	EnvLogLevel         = "QUICKSCOPE_LOG_LEVEL"
	EnvLogFile          = "QUICKSCOPE_LOG"
	EnvMetricsAddr      = "QUICKSCOPE_METRICS_ADDR"
	EnvConfigPath       = "QUICKSCOPE_CONFIG"
	defaultConfigSubdir = "quickscope"
)

// News source selectors.
const (
	NewsAuto  = "auto"
	NewsEODHD = "eodhd"
	NewsRSS   = "rss"
)

type Config struct {
	Cache    CacheConfig    `yaml:"cache"`
	Provider ProviderConfig `yaml:"provider"`
	Logging  LoggingConfig  `yaml:"logging"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type CacheConfig struct {
	Enabled bool      `yaml:"enabled"`
	Path    string    `yaml:"path"`
	TTL     TTLConfig `yaml:"ttl"`
}

type TTLConfig struct {
	Price        Duration `yaml:"price"`
	Fundamentals Duration `yaml:"fundamentals"`
	Options      Duration `yaml:"options"`
	News         Duration `yaml:"news"`
}

type ProviderConfig struct {
	APIKey     string   `yaml:"api_key"`
	BaseURL    string   `yaml:"base_url"`
	Exchange   string   `yaml:"exchange"`
	NewsSource string   `yaml:"news_source"`
	RSSURL     string   `yaml:"rss_url"`
	Timeout    Duration `yaml:"timeout"`
}

type LoggingConfig struct {
	Level string `yaml:"level"`
	File  string `yaml:"file"`
}

type MetricsConfig struct {
	// Addr is the listen address for /metrics. Empty disables the endpoint.
	Addr string `yaml:"addr"`
}

// Default returns the built-in configuration.
func Default() *Config {
	ttl := cache.DefaultTTLPolicy()
	return &Config{
		Cache: CacheConfig{
			Enabled: true,
			Path:    DefaultCachePath(),
			TTL: TTLConfig{
				Price:        Duration(ttl.Price),
				Fundamentals: Duration(ttl.Fundamentals),
				Options:      Duration(ttl.Options),
				News:         Duration(ttl.News),
			},
		},
		Provider: ProviderConfig{
			BaseURL:    provider.DefaultBaseURL,
			Exchange:   provider.DefaultExchange,
			NewsSource: NewsAuto,
			RSSURL:     provider.DefaultRSSURL,
			Timeout:    Duration(provider.RequestTimeout),
		},
		Logging: LoggingConfig{Level: "info"},
	}
}

// DefaultCachePath is ~/.cache/quickscope/cache.bbolt, or a path under the
// working directory when the home directory is unknown.
func DefaultCachePath() string {
	home, _ := os.UserHomeDir()
	if home == "" {
		home = "."
	}
	return filepath.Join(home, ".cache", "quickscope", "cache.bbolt")
}

// DefaultPath is where Load looks when no path is given.
func DefaultPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	dir, err := os.UserConfigDir()
	if err != nil {
		return ""
	}
	return filepath.Join(dir, defaultConfigSubdir, "config.yaml")
}

// Load builds the configuration. An empty path means DefaultPath, which is
// allowed not to exist; an explicit path must exist.
func Load(path string) (*Config, error) {
	cfg := Default()

	explicit := path != ""
	if !explicit {
		path = DefaultPath()
	}
	if path != "" {
		if err := cfg.loadFile(path); err != nil {
			if explicit || !errors.Is(err, os.ErrNotExist) {
				return nil, err
			}
		}
	}

	if err := cfg.applyEnv(); err != nil {
		return nil, err
	}
	cfg.Cache.Path = expandHome(cfg.Cache.Path)
	cfg.Logging.File = expandHome(cfg.Logging.File)

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

func (c *Config) loadFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("read config %s: %w", path, err)
	}
	if err := yaml.Unmarshal(data, c); err != nil {
		return fmt.Errorf("parse config %s: %w", path, err)
	}
	return nil
}

func (c *Config) applyEnv() error {
	if v := os.Getenv(EnvCacheDB); v != "" {
		c.Cache.Path = v
	}
	if v := os.Getenv(EnvCacheEnabled); v != "" {
		b, err := strconv.ParseBool(v)
		if err != nil {
			return fmt.Errorf("%s: %w", EnvCacheEnabled, err)
		}
		c.Cache.Enabled = b
	}
	ttls := []struct {
		env string
		dst *Duration
	}{
		{EnvTTLPrice, &c.Cache.TTL.Price},
		{EnvTTLFundamentals, &c.Cache.TTL.Fundamentals},
		{EnvTTLOptions, &c.Cache.TTL.Options},
		{EnvTTLNews, &c.Cache.TTL.News},
	}
	for _, t := range ttls {
		v := os.Getenv(t.env)
		if v == "" {
			continue
		}
		d, err := ParseTTL(v)
		if err != nil {
			return fmt.Errorf("%s: %w", t.env, err)
		}
		*t.dst = Duration(d)
	}
	if v := os.Getenv(EnvAPIKey); v != "" {
		c.Provider.APIKey = v
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Logging.Level = v
	}
	if v := os.Getenv(EnvLogFile); v != "" {
		c.Logging.File = v
	}
	if v := os.Getenv(EnvMetricsAddr); v != "" {
		c.Metrics.Addr = v
	}
	return nil
}

// Validate reports the first invalid setting.
func (c *Config) Validate() error {
	ttls := map[string]Duration{
		"cache.ttl.price":        c.Cache.TTL.Price,
		"cache.ttl.fundamentals": c.Cache.TTL.Fundamentals,
		"cache.ttl.options":      c.Cache.TTL.Options,
		"cache.ttl.news":         c.Cache.TTL.News,
	}
	for name, d := range ttls {
		if d < 0 {
			return fmt.Errorf("%s: %w", name, ErrNegativeTTL)
		}
	}
	if c.Provider.Timeout < 0 {
		return errors.New("provider.timeout must not be negative")
	}
	switch strings.ToLower(c.Provider.NewsSource) {
	case "", NewsAuto, NewsEODHD, NewsRSS:
	default:
		return fmt.Errorf("provider.news_source: unknown source %q (want auto, eodhd or rss)", c.Provider.NewsSource)
	}
	if c.Cache.Enabled && c.Cache.Path == "" {
		return errors.New("cache.path is required when the cache is enabled")
	}
	return nil
}

// TTLPolicy converts the configured TTLs; zero values fall back to the
// store defaults.
func (c *Config) TTLPolicy() cache.TTLPolicy {
	return cache.TTLPolicy{
		Price:        c.Cache.TTL.Price.Std(),
		Fundamentals: c.Cache.TTL.Fundamentals.Std(),
		Options:      c.Cache.TTL.Options.Std(),
		News:         c.Cache.TTL.News.Std(),
	}
}

// News resolves the news source selector. auto picks EODHD when an API key
// is configured and RSS otherwise.
func (c *Config) News() string {
	switch s := strings.ToLower(c.Provider.NewsSource); s {
	case NewsEODHD, NewsRSS:
		return s
	}
	if c.Provider.APIKey != "" {
		return NewsEODHD
	}
	return NewsRSS
}

// NewProvider builds the EODHD client described by the provider section.
func (c *Config) NewProvider() *provider.Client {
	timeout := c.Provider.Timeout.Std()
	if timeout <= 0 {
		timeout = provider.RequestTimeout
	}
	opts := []provider.Option{
		provider.WithHTTPClient(&http.Client{Timeout: timeout}),
	}
	if c.Provider.BaseURL != "" {
		opts = append(opts, provider.WithBaseURL(c.Provider.BaseURL))
	}
	if c.Provider.Exchange != "" {
		opts = append(opts, provider.WithExchange(c.Provider.Exchange))
	}
	if c.News() == NewsRSS {
		opts = append(opts, provider.WithNewsSource(provider.NewRSSNews(c.Provider.RSSURL)))
	}
	return provider.New(c.Provider.APIKey, opts...)
}

func expandHome(p string) string {
	if p != "~" && !strings.HasPrefix(p, "~/") {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil || home == "" {
		return p
	}
	return filepath.Join(home, strings.TrimPrefix(p, "~"))
}

// String renders a TTL summary for log lines.
func (t TTLConfig) String() string {
	return fmt.Sprintf("price=%s fundamentals=%s options=%s news=%s",
		FormatDuration(time.Duration(t.Price)), FormatDuration(time.Duration(t.Fundamentals)),
		FormatDuration(time.Duration(t.Options)), FormatDuration(time.Duration(t.News)))
}
