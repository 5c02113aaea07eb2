package config

import (
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Store      StoreConfig      `yaml:"store" mapstructure:"store"`
	Suggest    SuggestConfig    `yaml:"suggest" mapstructure:"suggest"`
	Expand     ExpandConfig     `yaml:"expand" mapstructure:"expand"`
	Ingest     IngestConfig     `yaml:"ingest" mapstructure:"ingest"`
	Resilience ResilienceConfig `yaml:"resilience" mapstructure:"resilience"`
	Scorer     ScorerConfig     `yaml:"scorer" mapstructure:"scorer"`
	Server     ServerConfig     `yaml:"server" mapstructure:"server"`
	Monitoring MonitoringConfig `yaml:"monitoring" mapstructure:"monitoring"`
	Log        LogConfig        `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the keyword store backend.
type StoreConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
	MaxConns    int32  `yaml:"max_conns" mapstructure:"max_conns"`
	MinConns    int32  `yaml:"min_conns" mapstructure:"min_conns"`
}

// SuggestConfig configures the autocomplete provider.
type SuggestConfig struct {
	BaseURL     string  `yaml:"base_url" mapstructure:"base_url"`
	Client      string  `yaml:"client" mapstructure:"client"`
	Language    string  `yaml:"language" mapstructure:"language"`
	Country     string  `yaml:"country" mapstructure:"country"`
	TimeoutSecs int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RatePerSec  float64 `yaml:"rate_per_sec" mapstructure:"rate_per_sec"`
	Burst       int     `yaml:"burst" mapstructure:"burst"`
}

// ExpandConfig configures autocomplete expansion.
type ExpandConfig struct {
	BatchSize  int      `yaml:"batch_size" mapstructure:"batch_size"`
	Suffixes   []string `yaml:"suffixes" mapstructure:"suffixes"`
	AlphaSweep bool     `yaml:"alpha_sweep" mapstructure:"alpha_sweep"`
}

// IngestConfig configures the ingestion run.
type IngestConfig struct {
	SeedFile      string `yaml:"seed_file" mapstructure:"seed_file"`
	DefaultVolume int    `yaml:"default_volume" mapstructure:"default_volume"`
	Expand        bool   `yaml:"expand" mapstructure:"expand"`
}

// ResilienceConfig configures retries and the circuit breaker around the
// autocomplete provider.
type ResilienceConfig struct {
	MaxAttempts      int     `yaml:"max_attempts" mapstructure:"max_attempts"`
	InitialBackoffMs int     `yaml:"initial_backoff_ms" mapstructure:"initial_backoff_ms"`
	MaxBackoffMs     int     `yaml:"max_backoff_ms" mapstructure:"max_backoff_ms"`
	Multiplier       float64 `yaml:"multiplier" mapstructure:"multiplier"`
	JitterFraction   float64 `yaml:"jitter_fraction" mapstructure:"jitter_fraction"`
	FailureThreshold int     `yaml:"failure_threshold" mapstructure:"failure_threshold"`
	ResetTimeoutSecs int     `yaml:"reset_timeout_secs" mapstructure:"reset_timeout_secs"`
}

// ScorerConfig holds the strategic/opportunity scoring weights.
type ScorerConfig struct {
	GeoMultiplier       float64            `yaml:"geo_multiplier" mapstructure:"geo_multiplier" json:"geo_multiplier"`
	LocalBoostCap       float64            `yaml:"local_boost_cap" mapstructure:"local_boost_cap" json:"local_boost_cap"`
	HeadTermPenalty     float64            `yaml:"head_term_penalty" mapstructure:"head_term_penalty" json:"head_term_penalty"`
	MinMultiplier       float64            `yaml:"min_multiplier" mapstructure:"min_multiplier" json:"min_multiplier"`
	HardDifficulty      int                `yaml:"hard_difficulty" mapstructure:"hard_difficulty" json:"hard_difficulty"`
	HardExponent        float64            `yaml:"hard_exponent" mapstructure:"hard_exponent" json:"hard_exponent"`
	GapMultiplier       float64            `yaml:"gap_multiplier" mapstructure:"gap_multiplier" json:"gap_multiplier"`
	DefaultBucketWeight float64            `yaml:"default_bucket_weight" mapstructure:"default_bucket_weight" json:"default_bucket_weight"`
	BucketWeights       map[string]float64 `yaml:"bucket_weights" mapstructure:"bucket_weights" json:"bucket_weights"`
}

// ServerConfig configures the operator HTTP server.
type ServerConfig struct {
	Port           int      `yaml:"port" mapstructure:"port"`
	AllowedOrigins []string `yaml:"allowed_origins" mapstructure:"allowed_origins"`
}

// MonitoringConfig configures the background ingest health checker.
type MonitoringConfig struct {
	Enabled              bool    `yaml:"enabled" mapstructure:"enabled"`
	WebhookURL           string  `yaml:"webhook_url" mapstructure:"webhook_url"`
	CheckIntervalSecs    int     `yaml:"check_interval_secs" mapstructure:"check_interval_secs"`
	LookbackWindowHours  int     `yaml:"lookback_window_hours" mapstructure:"lookback_window_hours"`
	FailureRateThreshold float64 `yaml:"failure_rate_threshold" mapstructure:"failure_rate_threshold"`
	StaleAfterHours      int     `yaml:"stale_after_hours" mapstructure:"stale_after_hours"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("RADAR")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.driver", "postgres")
	v.SetDefault("store.max_conns", 10)
	v.SetDefault("store.min_conns", 2)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("server.port", 8080)
	v.SetDefault("server.allowed_origins", []string{"https://admin.atx.guide"})
	v.SetDefault("suggest.base_url", "https://suggestqueries.google.com")
	v.SetDefault("suggest.client", "firefox")
	v.SetDefault("suggest.language", "en")
	v.SetDefault("suggest.country", "us")
	v.SetDefault("suggest.timeout_secs", 8)
	v.SetDefault("suggest.rate_per_sec", 5.0)
	v.SetDefault("suggest.burst", 5)
	v.SetDefault("expand.batch_size", 5)
	v.SetDefault("expand.alpha_sweep", true)
	v.SetDefault("ingest.seed_file", "seeds.yaml")
	v.SetDefault("ingest.default_volume", 0)
	v.SetDefault("ingest.expand", true)
	v.SetDefault("resilience.max_attempts", 2)
	v.SetDefault("resilience.initial_backoff_ms", 300)
	v.SetDefault("resilience.max_backoff_ms", 3000)
	v.SetDefault("resilience.multiplier", 2.0)
	v.SetDefault("resilience.jitter_fraction", 0.25)
	v.SetDefault("resilience.failure_threshold", 8)
	v.SetDefault("resilience.reset_timeout_secs", 30)
	v.SetDefault("monitoring.enabled", false)
	v.SetDefault("monitoring.check_interval_secs", 300)
	v.SetDefault("monitoring.lookback_window_hours", 24)
	v.SetDefault("monitoring.failure_rate_threshold", 0.5)
	v.SetDefault("monitoring.stale_after_hours", 48)
	v.SetDefault("scorer.geo_multiplier", 1.25)
	v.SetDefault("scorer.local_boost_cap", 0.45)
	v.SetDefault("scorer.head_term_penalty", 0.30)
	v.SetDefault("scorer.min_multiplier", 0.10)
	v.SetDefault("scorer.hard_difficulty", 60)
	v.SetDefault("scorer.hard_exponent", 1.5)
	v.SetDefault("scorer.gap_multiplier", 1.5)
	v.SetDefault("scorer.default_bucket_weight", 0.9)
	v.SetDefault("scorer.bucket_weights", map[string]float64{
		"weather":       1.1,
		"outdoors":      1.1,
		"events":        1.05,
		"food":          1.0,
		"neighborhoods": 1.0,
		"nightlife":     0.95,
		"family":        0.95,
		"shopping":      0.85,
		"services":      0.8,
	})

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// Validate checks the fields a command mode depends on. Modes: "ingest",
// "store", "serve".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "ingest":
		errs = append(errs, c.validateStore()...)
		errs = append(errs, c.validateSuggest()...)
	case "store":
		errs = append(errs, c.validateStore()...)
	case "serve":
		errs = append(errs, c.validateStore()...)
		errs = append(errs, c.validateSuggest()...)
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateStore() []string {
	var errs []string
	switch c.Store.Driver {
	case "postgres", "sqlite":
	default:
		errs = append(errs, fmt.Sprintf("store.driver must be postgres or sqlite, got %q", c.Store.Driver))
	}
	if c.Store.DatabaseURL == "" {
		errs = append(errs, "store.database_url is required")
	}
	return errs
}

func (c *Config) validateSuggest() []string {
	var errs []string
	if c.Suggest.BaseURL == "" {
		errs = append(errs, "suggest.base_url is required")
	}
	if c.Expand.BatchSize < 1 || c.Expand.BatchSize > 20 {
		errs = append(errs, "expand.batch_size must be between 1 and 20")
	}
	if c.Suggest.RatePerSec < 0 {
		errs = append(errs, "suggest.rate_per_sec must be >= 0")
	}
	return errs
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}
