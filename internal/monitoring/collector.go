package monitoring

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/radar/internal/model"
	"github.com/sells-group/radar/internal/store"
)

// runScanLimit bounds how many recent runs a snapshot reads.
const runScanLimit = 500

// Snapshot holds a point-in-time view of ingestion health.
type Snapshot struct {
	// Runs started within the lookback window.
	RunsTotal    int     `json:"runs_total"`
	RunsComplete int     `json:"runs_complete"`
	RunsFailed   int     `json:"runs_failed"`
	RunsRunning  int     `json:"runs_running"`
	RunFailRate  float64 `json:"run_fail_rate"`

	// LastCompletedAt is the newest successful run, regardless of window.
	LastCompletedAt *time.Time `json:"last_completed_at,omitempty"`

	// Store contents.
	KeywordsTotal int            `json:"keywords_total"`
	KeywordGaps   int            `json:"keyword_gaps"`
	ByIntent      map[string]int `json:"by_intent"`

	LookbackHours int       `json:"lookback_hours"`
	CollectedAt   time.Time `json:"collected_at"`
}

// Source is the slice of the keyword store the collector reads.
type Source interface {
	ListRuns(ctx context.Context, limit int) ([]model.IngestRun, error)
	CountBy(ctx context.Context, field string) ([]store.GroupCount, error)
}

// Collector gathers snapshots from the store.
type Collector struct {
	src Source
	now func() time.Time
}

// NewCollector creates a snapshot collector.
func NewCollector(src Source) *Collector {
	return &Collector{src: src, now: time.Now}
}

// Collect gathers a snapshot over the given lookback window.
func (c *Collector) Collect(ctx context.Context, lookbackHours int) (*Snapshot, error) {
	now := c.now().UTC()
	snap := &Snapshot{
		LookbackHours: lookbackHours,
		CollectedAt:   now,
		ByIntent:      map[string]int{},
	}
	cutoff := now.Add(-time.Duration(lookbackHours) * time.Hour)

	runs, err := c.src.ListRuns(ctx, runScanLimit)
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: list runs")
	}
	for _, r := range runs {
		if r.Status == model.IngestComplete && r.CompletedAt != nil {
			if snap.LastCompletedAt == nil || r.CompletedAt.After(*snap.LastCompletedAt) {
				completed := *r.CompletedAt
				snap.LastCompletedAt = &completed
			}
		}
		if r.StartedAt.Before(cutoff) {
			continue
		}
		snap.RunsTotal++
		switch r.Status {
		case model.IngestComplete:
			snap.RunsComplete++
		case model.IngestFailed:
			snap.RunsFailed++
		case model.IngestRunning:
			snap.RunsRunning++
		}
	}
	if finished := snap.RunsComplete + snap.RunsFailed; finished > 0 {
		snap.RunFailRate = float64(snap.RunsFailed) / float64(finished)
	}

	intents, err := c.src.CountBy(ctx, "intent")
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: count by intent")
	}
	for _, g := range intents {
		snap.ByIntent[g.Value] = g.Count
		snap.KeywordsTotal += g.Count
	}

	apps, err := c.src.CountBy(ctx, "matched_app")
	if err != nil {
		return nil, eris.Wrap(err, "monitoring: count by app")
	}
	for _, g := range apps {
		if g.Value == "" {
			snap.KeywordGaps = g.Count
		}
	}

	return snap, nil
}

var (
	keywordsDesc = prometheus.NewDesc(
		namespace+"_keywords",
		"Stored keywords by intent.",
		[]string{"intent"},
		nil,
	)
	gapsDesc = prometheus.NewDesc(
		namespace+"_keyword_gaps",
		"Stored keywords with no existing content.",
		nil,
		nil,
	)
)

// StoreCollector is a Prometheus collector that reads keyword counts from the
// store on each scrape.
type StoreCollector struct {
	collector *Collector
	timeout   time.Duration
}

// NewStoreCollector wraps src for registration with a Prometheus registry.
func NewStoreCollector(src Source) *StoreCollector {
	return &StoreCollector{collector: NewCollector(src), timeout: 5 * time.Second}
}

// Describe sends the metric descriptors to the channel.
func (c *StoreCollector) Describe(ch chan<- *prometheus.Desc) {
	ch <- keywordsDesc
	ch <- gapsDesc
}

// Collect queries the store and emits current counts as gauges.
func (c *StoreCollector) Collect(ch chan<- prometheus.Metric) {
	ctx, cancel := context.WithTimeout(context.Background(), c.timeout)
	defer cancel()

	snap, err := c.collector.Collect(ctx, 0)
	if err != nil {
		zap.L().Error("monitoring: failed to collect keyword metrics", zap.Error(err))
		return
	}
	for intent, n := range snap.ByIntent {
		ch <- prometheus.MustNewConstMetric(keywordsDesc, prometheus.GaugeValue, float64(n), intent)
	}
	ch <- prometheus.MustNewConstMetric(gapsDesc, prometheus.GaugeValue, float64(snap.KeywordGaps))
}
