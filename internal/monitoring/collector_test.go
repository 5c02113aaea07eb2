package monitoring

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/radar/internal/model"
	"github.com/sells-group/radar/internal/store"
)

type fakeSource struct {
	runs      []model.IngestRun
	counts    map[string][]store.GroupCount
	runsErr   error
	countsErr error
}

func (f *fakeSource) ListRuns(_ context.Context, limit int) ([]model.IngestRun, error) {
	if f.runsErr != nil {
		return nil, f.runsErr
	}
	if len(f.runs) > limit {
		return f.runs[:limit], nil
	}
	return f.runs, nil
}

func (f *fakeSource) CountBy(_ context.Context, field string) ([]store.GroupCount, error) {
	if f.countsErr != nil {
		return nil, f.countsErr
	}
	return f.counts[field], nil
}

func newTestCollector(src Source) *Collector {
	c := NewCollector(src)
	c.now = func() time.Time { return now }
	return c
}

func testRuns() []model.IngestRun {
	return []model.IngestRun{
		{ID: "r4", Status: model.IngestRunning, StartedAt: now.Add(-10 * time.Minute)},
		{ID: "r3", Status: model.IngestFailed, StartedAt: now.Add(-2 * time.Hour), CompletedAt: ago(2 * time.Hour)},
		{ID: "r2", Status: model.IngestComplete, StartedAt: now.Add(-5 * time.Hour), CompletedAt: ago(5 * time.Hour)},
		{ID: "r1", Status: model.IngestComplete, StartedAt: now.Add(-50 * time.Hour), CompletedAt: ago(50 * time.Hour)},
	}
}

func testCounts() map[string][]store.GroupCount {
	return map[string][]store.GroupCount{
		"intent": {
			{Value: "informational", Count: 7},
			{Value: "local", Count: 3},
		},
		"matched_app": {
			{Value: "", Count: 6},
			{Value: "pollen", Count: 4},
		},
	}
}

func TestCollector_Collect(t *testing.T) {
	c := newTestCollector(&fakeSource{runs: testRuns(), counts: testCounts()})

	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)

	assert.Equal(t, 3, snap.RunsTotal)
	assert.Equal(t, 1, snap.RunsComplete)
	assert.Equal(t, 1, snap.RunsFailed)
	assert.Equal(t, 1, snap.RunsRunning)
	assert.InDelta(t, 0.5, snap.RunFailRate, 0.001)
	require.NotNil(t, snap.LastCompletedAt)
	assert.True(t, ago(5*time.Hour).Equal(*snap.LastCompletedAt))

	assert.Equal(t, 10, snap.KeywordsTotal)
	assert.Equal(t, 6, snap.KeywordGaps)
	assert.Equal(t, map[string]int{"informational": 7, "local": 3}, snap.ByIntent)
	assert.Equal(t, 24, snap.LookbackHours)
	assert.Equal(t, now, snap.CollectedAt)
}

func TestCollector_EmptyStore(t *testing.T) {
	c := newTestCollector(&fakeSource{})

	snap, err := c.Collect(context.Background(), 24)
	require.NoError(t, err)
	assert.Zero(t, snap.RunsTotal)
	assert.Zero(t, snap.RunFailRate)
	assert.Nil(t, snap.LastCompletedAt)
	assert.Zero(t, snap.KeywordsTotal)
	assert.Empty(t, snap.ByIntent)
}

func TestCollector_Errors(t *testing.T) {
	_, err := newTestCollector(&fakeSource{runsErr: errors.New("down")}).Collect(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitoring: list runs")

	_, err = newTestCollector(&fakeSource{countsErr: errors.New("down")}).Collect(context.Background(), 1)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "monitoring: count by intent")
}

func TestStoreCollector_Gather(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewStoreCollector(&fakeSource{counts: testCounts()}))

	families, err := reg.Gather()
	require.NoError(t, err)

	got := map[string]float64{}
	for _, mf := range families {
		for _, m := range mf.GetMetric() {
			key := mf.GetName()
			for _, l := range m.GetLabel() {
				key += "/" + l.GetValue()
			}
			got[key] = m.GetGauge().GetValue()
		}
	}
	assert.Equal(t, map[string]float64{
		"radar_keywords/informational": 7,
		"radar_keywords/local":         3,
		"radar_keyword_gaps":           6,
	}, got)
}

func TestStoreCollector_ErrorEmitsNothing(t *testing.T) {
	reg := prometheus.NewRegistry()
	reg.MustRegister(NewStoreCollector(&fakeSource{runsErr: errors.New("down")}))

	families, err := reg.Gather()
	require.NoError(t, err)
	assert.Empty(t, families)
}
