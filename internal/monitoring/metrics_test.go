package monitoring

import (
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/radar/internal/model"
	"github.com/sells-group/radar/internal/resilience"
	"github.com/sells-group/radar/pkg/suggest"
)

// gather flattens counters, gauges and histogram sample counts by
// name/label values.
func gather(t *testing.T, reg *prometheus.Registry) map[string]float64 {
	t.Helper()
	families, err := reg.Gather()
	require.NoError(t, err)

	out := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, l := range m.GetLabel() {
				key += "/" + l.GetValue()
			}
			switch {
			case m.GetCounter() != nil:
				out[key] = m.GetCounter().GetValue()
			case m.GetGauge() != nil:
				out[key] = m.GetGauge().GetValue()
			case m.GetHistogram() != nil:
				out[key] = float64(m.GetHistogram().GetSampleCount())
			}
		}
	}
	return out
}

func TestMetrics_Suggest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.ObserveSuggest(suggest.OutcomeOK, 120*time.Millisecond)
	m.ObserveSuggest(suggest.OutcomeOK, 80*time.Millisecond)
	m.ObserveSuggest(suggest.OutcomeError, time.Second)
	m.ObserveSuggest(suggest.OutcomeRejected, 0)

	got := gather(t, reg)
	assert.Equal(t, 2.0, got["radar_suggest_requests_total/ok"])
	assert.Equal(t, 1.0, got["radar_suggest_requests_total/error"])
	assert.Equal(t, 1.0, got["radar_suggest_requests_total/rejected"])
	assert.Equal(t, 3.0, got["radar_suggest_request_duration_seconds"])
}

func TestMetrics_Ingest(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.KeywordProcessed("new")
	m.KeywordProcessed("new")
	m.KeywordProcessed("skipped")
	m.RunFinished(model.IngestComplete, 3*time.Second)

	got := gather(t, reg)
	assert.Equal(t, 2.0, got["radar_keywords_ingested_total/new"])
	assert.Equal(t, 1.0, got["radar_keywords_ingested_total/skipped"])
	assert.Equal(t, 1.0, got["radar_ingest_runs_total/complete"])
	assert.Equal(t, 1.0, got["radar_ingest_run_duration_seconds"])
}

func TestMetrics_Breaker(t *testing.T) {
	reg := prometheus.NewRegistry()
	m := NewMetrics(reg)

	m.BreakerChanged(resilience.Closed, resilience.Open)
	assert.Equal(t, 1.0, gather(t, reg)["radar_suggest_breaker_state"])

	m.BreakerChanged(resilience.Open, resilience.HalfOpen)
	assert.Equal(t, 2.0, gather(t, reg)["radar_suggest_breaker_state"])
}

func TestMetrics_DoubleRegisterPanics(t *testing.T) {
	reg := prometheus.NewRegistry()
	NewMetrics(reg)
	assert.Panics(t, func() { NewMetrics(reg) })
}
