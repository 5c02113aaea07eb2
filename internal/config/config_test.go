package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func chdirTemp(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	origDir, _ := os.Getwd()
	require.NoError(t, os.Chdir(dir))
	t.Cleanup(func() { os.Chdir(origDir) })
	return dir
}

func TestLoadDefaults(t *testing.T) {
	chdirTemp(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "info", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "https://suggestqueries.google.com", cfg.Suggest.BaseURL)
	assert.Equal(t, "firefox", cfg.Suggest.Client)
	assert.Equal(t, "en", cfg.Suggest.Language)
	assert.Equal(t, "us", cfg.Suggest.Country)
	assert.InDelta(t, 5.0, cfg.Suggest.RatePerSec, 0.001)
	assert.Equal(t, 5, cfg.Expand.BatchSize)
	assert.True(t, cfg.Expand.AlphaSweep)
	assert.Equal(t, "seeds.yaml", cfg.Ingest.SeedFile)
	assert.True(t, cfg.Ingest.Expand)
	assert.Equal(t, 2, cfg.Resilience.MaxAttempts)
	assert.Equal(t, 8, cfg.Resilience.FailureThreshold)
	assert.InDelta(t, 1.25, cfg.Scorer.GeoMultiplier, 0.001)
	assert.InDelta(t, 0.45, cfg.Scorer.LocalBoostCap, 0.001)
	assert.Equal(t, 60, cfg.Scorer.HardDifficulty)
	assert.InDelta(t, 1.1, cfg.Scorer.BucketWeights["weather"], 0.001)
	assert.InDelta(t, 0.8, cfg.Scorer.BucketWeights["services"], 0.001)
	assert.False(t, cfg.Monitoring.Enabled)
	assert.Equal(t, 300, cfg.Monitoring.CheckIntervalSecs)
	assert.Equal(t, 24, cfg.Monitoring.LookbackWindowHours)
	assert.Equal(t, 48, cfg.Monitoring.StaleAfterHours)
}

func TestLoadFromYAML(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
  database_url: radar.db
log:
  level: debug
  format: console
server:
  port: 9090
expand:
  batch_size: 3
  suffixes: ["near me", "hours"]
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "sqlite", cfg.Store.Driver)
	assert.Equal(t, "radar.db", cfg.Store.DatabaseURL)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, "console", cfg.Log.Format)
	assert.Equal(t, 9090, cfg.Server.Port)
	assert.Equal(t, 3, cfg.Expand.BatchSize)
	assert.Equal(t, []string{"near me", "hours"}, cfg.Expand.Suffixes)
	// Defaults still apply for unset values
	assert.Equal(t, "firefox", cfg.Suggest.Client)
}

func TestLoadEnvOverridesFile(t *testing.T) {
	dir := chdirTemp(t)

	yaml := `
store:
  driver: sqlite
log:
  level: debug
`
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte(yaml), 0644))

	t.Setenv("RADAR_STORE_DRIVER", "postgres")
	t.Setenv("RADAR_LOG_LEVEL", "warn")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "postgres", cfg.Store.Driver)
	assert.Equal(t, "warn", cfg.Log.Level)
}

func TestLoadEnvOverridesDefaults(t *testing.T) {
	chdirTemp(t)

	t.Setenv("RADAR_SERVER_PORT", "3000")
	t.Setenv("RADAR_SUGGEST_BASE_URL", "http://localhost:9999")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, 3000, cfg.Server.Port)
	assert.Equal(t, "http://localhost:9999", cfg.Suggest.BaseURL)
}

func TestLoadBadYAML(t *testing.T) {
	dir := chdirTemp(t)
	require.NoError(t, os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("store: [unclosed"), 0644))

	_, err := Load()
	assert.Error(t, err)
}

func TestInitLoggerConsole(t *testing.T) {
	err := InitLogger(LogConfig{Level: "debug", Format: "console"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerJSON(t *testing.T) {
	err := InitLogger(LogConfig{Level: "info", Format: "json"})
	require.NoError(t, err)
	assert.NotNil(t, zap.L())
}

func TestInitLoggerInvalidLevel(t *testing.T) {
	err := InitLogger(LogConfig{Level: "verbose", Format: "json"})
	assert.Error(t, err)
	assert.Contains(t, err.Error(), "parse log level")
}

func validDefaults() *Config {
	return &Config{
		Store:   StoreConfig{Driver: "sqlite", DatabaseURL: "radar.db"},
		Suggest: SuggestConfig{BaseURL: "https://suggestqueries.google.com", RatePerSec: 5},
		Expand:  ExpandConfig{BatchSize: 5},
		Server:  ServerConfig{Port: 8080},
	}
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mode    string
		mutate  func(c *Config)
		wantErr string
	}{
		{name: "ingest ok", mode: "ingest"},
		{name: "store ok", mode: "store"},
		{name: "serve ok", mode: "serve"},
		{
			name:    "missing database url",
			mode:    "store",
			mutate:  func(c *Config) { c.Store.DatabaseURL = "" },
			wantErr: "store.database_url is required",
		},
		{
			name:    "bad driver",
			mode:    "store",
			mutate:  func(c *Config) { c.Store.Driver = "mysql" },
			wantErr: "store.driver must be postgres or sqlite",
		},
		{
			name:    "missing suggest url",
			mode:    "ingest",
			mutate:  func(c *Config) { c.Suggest.BaseURL = "" },
			wantErr: "suggest.base_url is required",
		},
		{
			name:    "batch size out of range",
			mode:    "ingest",
			mutate:  func(c *Config) { c.Expand.BatchSize = 0 },
			wantErr: "expand.batch_size must be between 1 and 20",
		},
		{
			name:    "negative rate",
			mode:    "serve",
			mutate:  func(c *Config) { c.Suggest.RatePerSec = -1 },
			wantErr: "suggest.rate_per_sec must be >= 0",
		},
		{
			name:    "zero port",
			mode:    "serve",
			mutate:  func(c *Config) { c.Server.Port = 0 },
			wantErr: "server.port must be > 0",
		},
		{
			name:   "store mode ignores suggest",
			mode:   "store",
			mutate: func(c *Config) { c.Suggest.BaseURL = "" },
		},
		{
			name:    "unknown mode",
			mode:    "bogus",
			wantErr: "unknown mode",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := validDefaults()
			if tt.mutate != nil {
				tt.mutate(cfg)
			}
			err := cfg.Validate(tt.mode)
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestValidateCollectsAllErrors(t *testing.T) {
	cfg := &Config{}
	err := cfg.Validate("serve")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "store.database_url is required")
	assert.Contains(t, err.Error(), "suggest.base_url is required")
	assert.Contains(t, err.Error(), "server.port must be > 0")
}
