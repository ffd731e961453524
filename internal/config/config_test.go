package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"

	"github.com/leonardcser/quickscope/internal/provider"
)

// isolate clears every override and points the default config path at an
// empty temp dir.
func isolate(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	for _, k := range []string{
		EnvCacheDB, EnvCacheEnabled, EnvTTLPrice, EnvTTLFundamentals, EnvTTLOptions,
		EnvTTLNews, EnvAPIKey, EnvLogLevel, EnvLogFile, EnvMetricsAddr,
	} {
		t.Setenv(k, "")
	}
	t.Setenv(EnvConfigPath, filepath.Join(dir, "missing.yaml"))
	return dir
}

func writeFile(t *testing.T, dir, body string) string {
	t.Helper()
	p := filepath.Join(dir, "config.yaml")
	require.NoError(t, os.WriteFile(p, []byte(body), 0o600))
	return p
}

func TestLoadDefaults(t *testing.T) {
	isolate(t)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.True(t, cfg.Cache.Enabled)
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL.Price.Std())
	assert.Equal(t, 24*time.Hour, cfg.Cache.TTL.Fundamentals.Std())
	assert.Equal(t, time.Hour, cfg.Cache.TTL.News.Std())
	assert.Equal(t, provider.DefaultBaseURL, cfg.Provider.BaseURL)
	assert.Equal(t, NewsAuto, cfg.Provider.NewsSource)
	assert.Equal(t, "cache.bbolt", filepath.Base(cfg.Cache.Path))
}

func TestLoadExplicitMissingFile(t *testing.T) {
	dir := isolate(t)
	_, err := Load(filepath.Join(dir, "nope.yaml"))
	require.Error(t, err)
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestLoadFileThenEnv(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, `
cache:
  enabled: true
  path: /tmp/qs/cache.bbolt
  ttl:
    price: 5m
    fundamentals: 3600
provider:
  api_key: from-file
  news_source: rss
logging:
  level: debug
`)

	cfg, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "/tmp/qs/cache.bbolt", cfg.Cache.Path)
	assert.Equal(t, 5*time.Minute, cfg.Cache.TTL.Price.Std())
	assert.Equal(t, time.Hour, cfg.Cache.TTL.Fundamentals.Std())
	assert.Equal(t, 15*time.Minute, cfg.Cache.TTL.Options.Std(), "unset keys keep defaults")
	assert.Equal(t, "from-file", cfg.Provider.APIKey)
	assert.Equal(t, "debug", cfg.Logging.Level)

	t.Setenv(EnvCacheDB, filepath.Join(dir, "env.bbolt"))
	t.Setenv(EnvTTLPrice, "30")
	t.Setenv(EnvAPIKey, "from-env")
	t.Setenv(EnvCacheEnabled, "false")
	t.Setenv(EnvMetricsAddr, ":9100")

	cfg, err = Load(path)
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "env.bbolt"), cfg.Cache.Path)
	assert.Equal(t, 30*time.Second, cfg.Cache.TTL.Price.Std())
	assert.Equal(t, "from-env", cfg.Provider.APIKey)
	assert.False(t, cfg.Cache.Enabled)
	assert.Equal(t, ":9100", cfg.Metrics.Addr)
}

func TestLoadDefaultPathFromEnv(t *testing.T) {
	dir := isolate(t)
	path := writeFile(t, dir, "metrics:\n  addr: 127.0.0.1:9000\n")
	t.Setenv(EnvConfigPath, path)

	cfg, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "127.0.0.1:9000", cfg.Metrics.Addr)
}

func TestLoadRejectsInvalid(t *testing.T) {
	tests := []struct {
		name string
		body string
		env  map[string]string
	}{
		{name: "unknown news source", body: "provider:\n  news_source: carrier-pigeon\n"},
		{name: "negative ttl", body: "cache:\n  ttl:\n    news: -1m\n"},
		{name: "bad duration", body: "cache:\n  ttl:\n    price: soon\n"},
		{name: "bad env ttl", env: map[string]string{EnvTTLNews: "-5"}},
		{name: "bad env bool", env: map[string]string{EnvCacheEnabled: "maybe"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			dir := isolate(t)
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			path := writeFile(t, dir, tt.body)
			_, err := Load(path)
			assert.Error(t, err)
		})
	}
}

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ".cache", "x.bbolt"), expandHome("~/.cache/x.bbolt"))
	assert.Equal(t, "/abs/x.bbolt", expandHome("/abs/x.bbolt"))
	assert.Equal(t, "", expandHome(""))
}

func TestTTLPolicy(t *testing.T) {
	cfg := Default()
	cfg.Cache.TTL.News = Duration(2 * time.Hour)
	p := cfg.TTLPolicy()
	assert.Equal(t, 2*time.Hour, p.News)
	assert.Equal(t, 15*time.Minute, p.Price)
	assert.Equal(t, 2*time.Hour, p.For("news"))
}

func TestNewsSelection(t *testing.T) {
	cfg := Default()
	assert.Equal(t, NewsRSS, cfg.News(), "auto without a key uses rss")
	cfg.Provider.APIKey = "k"
	assert.Equal(t, NewsEODHD, cfg.News())
	cfg.Provider.NewsSource = "RSS"
	assert.Equal(t, NewsRSS, cfg.News())
	assert.NotNil(t, cfg.NewProvider())
}

func TestParseTTL(t *testing.T) {
	tests := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{in: "3600", want: time.Hour},
		{in: "0", want: 0},
		{in: "15m", want: 15 * time.Minute},
		{in: " 1h30m ", want: 90 * time.Minute},
		{in: "-1", wantErr: true},
		{in: "-2h", wantErr: true},
		{in: "", wantErr: true},
		{in: "tomorrow", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTTL(tt.in)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatDuration(t *testing.T) {
	tests := map[time.Duration]string{
		45 * time.Second: "45s",
		15 * time.Minute: "15m",
		time.Hour:        "1h",
		90 * time.Minute: "1h30m",
		24 * time.Hour:   "1d",
		30 * time.Hour:   "1d6h",
	}
	for d, want := range tests {
		assert.Equal(t, want, FormatDuration(d), d.String())
	}
}

func TestDurationYAML(t *testing.T) {
	var v struct {
		A Duration `yaml:"a"`
		B Duration `yaml:"b"`
	}
	require.NoError(t, yaml.Unmarshal([]byte("a: 90\nb: 2h\n"), &v))
	assert.Equal(t, 90*time.Second, v.A.Std())
	assert.Equal(t, 2*time.Hour, v.B.Std())

	out, err := yaml.Marshal(v)
	require.NoError(t, err)
	assert.Contains(t, string(out), "b: 2h0m0s")

	assert.Error(t, yaml.Unmarshal([]byte("a: [1, 2]\n"), &v))
}
