// Package monitoring exposes Prometheus metrics and watches ingestion health.
package monitoring

import (
	"time"

	"github.com/prometheus/client_golang/prometheus"

	"github.com/sells-group/radar/internal/model"
	"github.com/sells-group/radar/internal/resilience"
	"github.com/sells-group/radar/pkg/suggest"
)

const namespace = "radar"

// Metrics holds the process-level instruments. It satisfies the ingest
// recorder and plugs into the suggest client and circuit breaker hooks.
type Metrics struct {
	SuggestRequests *prometheus.CounterVec
	SuggestLatency  prometheus.Histogram
	Keywords        *prometheus.CounterVec
	Runs            *prometheus.CounterVec
	RunDuration     prometheus.Histogram
	BreakerState    prometheus.Gauge
}

// NewMetrics creates the instruments and registers them with reg.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		SuggestRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "suggest_requests_total",
			Help:      "Autocomplete requests by outcome.",
		}, []string{"outcome"}),
		SuggestLatency: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "suggest_request_duration_seconds",
			Help:      "Autocomplete request latency including retries.",
			Buckets:   prometheus.ExponentialBuckets(0.05, 2, 8),
		}),
		Keywords: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "keywords_ingested_total",
			Help:      "Keywords processed by ingestion runs, by outcome.",
		}, []string{"outcome"}),
		Runs: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "ingest_runs_total",
			Help:      "Finished ingestion runs by status.",
		}, []string{"status"}),
		RunDuration: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "ingest_run_duration_seconds",
			Help:      "Wall time of ingestion runs.",
			Buckets:   prometheus.ExponentialBuckets(1, 2, 12),
		}),
		BreakerState: prometheus.NewGauge(prometheus.GaugeOpts{
			Namespace: namespace,
			Name:      "suggest_breaker_state",
			Help:      "Suggest circuit breaker state: 0 closed, 1 open, 2 half-open.",
		}),
	}
	reg.MustRegister(
		m.SuggestRequests,
		m.SuggestLatency,
		m.Keywords,
		m.Runs,
		m.RunDuration,
		m.BreakerState,
	)
	return m
}

// ObserveSuggest records one finished autocomplete call.
func (m *Metrics) ObserveSuggest(outcome suggest.Outcome, d time.Duration) {
	m.SuggestRequests.WithLabelValues(string(outcome)).Inc()
	if outcome != suggest.OutcomeRejected {
		m.SuggestLatency.Observe(d.Seconds())
	}
}

// KeywordProcessed counts one keyword outcome.
func (m *Metrics) KeywordProcessed(outcome string) {
	m.Keywords.WithLabelValues(outcome).Inc()
}

// RunFinished records a run's status and duration.
func (m *Metrics) RunFinished(status model.IngestRunStatus, d time.Duration) {
	m.Runs.WithLabelValues(string(status)).Inc()
	m.RunDuration.Observe(d.Seconds())
}

// BreakerChanged tracks circuit breaker transitions.
func (m *Metrics) BreakerChanged(_, to resilience.State) {
	m.BreakerState.Set(float64(to))
}
