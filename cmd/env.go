package main

import (
	"context"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/rotisserie/eris"
	"golang.org/x/time/rate"

	"github.com/sells-group/radar/internal/db"
	"github.com/sells-group/radar/internal/expand"
	"github.com/sells-group/radar/internal/ingest"
	"github.com/sells-group/radar/internal/monitoring"
	"github.com/sells-group/radar/internal/resilience"
	"github.com/sells-group/radar/internal/scorer"
	"github.com/sells-group/radar/internal/store"
	"github.com/sells-group/radar/pkg/suggest"
)

// initStore opens the configured keyword store. Callers own Close.
func initStore(ctx context.Context) (store.KeywordStore, error) {
	switch cfg.Store.Driver {
	case "sqlite":
		return store.NewSQLite(cfg.Store.DatabaseURL)
	case "postgres":
		return store.NewPostgres(ctx, cfg.Store.DatabaseURL, db.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}

// openStore validates the store config, opens the store and applies
// migrations.
func openStore(ctx context.Context) (store.KeywordStore, error) {
	if err := cfg.Validate("store"); err != nil {
		return nil, err
	}
	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}
	return st, nil
}

// radarEnv holds everything the ingest and serve commands share.
type radarEnv struct {
	Store        store.KeywordStore
	Registry     *prometheus.Registry
	Metrics      *monitoring.Metrics
	Orchestrator *ingest.Orchestrator
}

// Close releases resources held by the environment.
func (e *radarEnv) Close() {
	if e.Store != nil {
		_ = e.Store.Close()
	}
}

// initEnv opens the store and builds the suggest client, expander and
// orchestrator. withExpansion false skips the autocomplete provider
// entirely. Callers should defer env.Close().
func initEnv(ctx context.Context, mode string, withExpansion bool) (*radarEnv, error) {
	if err := cfg.Validate(mode); err != nil {
		return nil, err
	}
	if err := scorer.ValidateConfig(cfg.Scorer); err != nil {
		return nil, err
	}

	st, err := initStore(ctx)
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		_ = st.Close()
		return nil, eris.Wrap(err, "migrate store")
	}

	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		monitoring.NewStoreCollector(st),
	)
	metrics := monitoring.NewMetrics(reg)

	opts := ingest.Options{
		Classifier:    ingest.NewClassifier(scorer.New(cfg.Scorer, nil), nil, nil),
		Recorder:      metrics,
		DefaultVolume: cfg.Ingest.DefaultVolume,
	}
	if withExpansion {
		opts.Expander = newExpander(newSuggestClient(metrics))
	}

	return &radarEnv{
		Store:        st,
		Registry:     reg,
		Metrics:      metrics,
		Orchestrator: ingest.New(st, opts),
	}, nil
}

// newSuggestClient builds the autocomplete client with retries, a circuit
// breaker and metrics hooks from config.
func newSuggestClient(metrics *monitoring.Metrics) suggest.Client {
	policy, breakerCfg := resilience.FromConfig(cfg.Resilience)
	breakerCfg.OnStateChange = metrics.BreakerChanged

	return suggest.NewClient(
		suggest.WithBaseURL(cfg.Suggest.BaseURL),
		suggest.WithClientName(cfg.Suggest.Client),
		suggest.WithLocale(cfg.Suggest.Language, cfg.Suggest.Country),
		suggest.WithHTTPClient(&http.Client{Timeout: time.Duration(cfg.Suggest.TimeoutSecs) * time.Second}),
		suggest.WithRetryPolicy(policy),
		suggest.WithBreaker(resilience.NewBreaker(breakerCfg)),
		suggest.WithObserver(metrics.ObserveSuggest),
	)
}

// newExpander builds an expander sharing one rate limiter across all seeds.
func newExpander(client suggest.Client) *expand.Expander {
	limit := rate.Inf
	if cfg.Suggest.RatePerSec > 0 {
		limit = rate.Limit(cfg.Suggest.RatePerSec)
	}
	return expand.New(client, expand.Options{
		BatchSize: cfg.Expand.BatchSize,
		Limiter:   rate.NewLimiter(limit, max(cfg.Suggest.Burst, 1)),
		Suffixes:  cfg.Expand.Suffixes,
		SkipAlpha: !cfg.Expand.AlphaSweep,
	})
}
