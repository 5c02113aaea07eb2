// Package ingest runs ingestion passes: seeds are expanded through the
// autocomplete provider, classified, scored and persisted.
package ingest

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/sells-group/radar/internal/expand"
	"github.com/sells-group/radar/internal/model"
	"github.com/sells-group/radar/internal/scorer"
	"github.com/sells-group/radar/internal/store"
)

// Keyword outcomes reported to the Recorder.
const (
	OutcomeNew       = "new"
	OutcomeRefreshed = "refreshed"
	OutcomeSkipped   = "skipped"
	OutcomeFailed    = "failed"
)

// Expander surfaces related keywords for a seed.
type Expander interface {
	Expand(ctx context.Context, seed string) ([]expand.Discovery, error)
}

// Recorder receives run telemetry.
type Recorder interface {
	KeywordProcessed(outcome string)
	RunFinished(status model.IngestRunStatus, d time.Duration)
}

type nopRecorder struct{}

func (nopRecorder) KeywordProcessed(string)                          {}
func (nopRecorder) RunFinished(model.IngestRunStatus, time.Duration) {}

// Options configures an Orchestrator.
type Options struct {
	// Expander is optional; nil disables expansion.
	Expander Expander
	// Classifier defaults to the built-in classifier.
	Classifier *Classifier
	// Recorder defaults to a no-op.
	Recorder Recorder
	// DefaultVolume is stored for newly inserted keywords that carry no
	// volume. It never overwrites a stored volume.
	DefaultVolume int
	// Now supplies the clock. Default: time.Now.
	Now func() time.Time
}

// Summary reports the outcome of one run.
type Summary struct {
	RunID        string        `json:"run_id"`
	Seeded       int           `json:"seeded"`
	Expanded     int           `json:"expanded"`
	Total        int           `json:"total"`
	New          int           `json:"new"`
	Refreshed    int           `json:"refreshed"`
	Skipped      int           `json:"skipped"`
	Failed       int           `json:"failed"`
	ModelVersion string        `json:"model_version"`
	Duration     time.Duration `json:"duration"`
}

// Orchestrator drives ingestion runs against a keyword store.
type Orchestrator struct {
	store store.KeywordStore
	opts  Options
}

// New creates an Orchestrator.
func New(st store.KeywordStore, opts Options) *Orchestrator {
	if opts.Classifier == nil {
		opts.Classifier = defaultClassifier
	}
	if opts.Recorder == nil {
		opts.Recorder = nopRecorder{}
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	if opts.DefaultVolume < 0 {
		opts.DefaultVolume = 0
	}
	return &Orchestrator{store: st, opts: opts}
}

type candidate struct {
	keyword string
	bucket  string
	volume  int
	source  model.DiscoverySource
}

// Run seeds, expands, classifies and persists. Per-seed expansion failures
// and per-keyword persistence failures are logged and counted; the run only
// aborts when the store is unreachable or ctx ends. The returned summary is
// non-nil even on error.
func (o *Orchestrator) Run(ctx context.Context, seeds []Seed) (*Summary, error) {
	start := o.opts.Now()
	sum := &Summary{
		RunID:        uuid.New().String(),
		ModelVersion: scorer.ModelVersion,
	}
	log := zap.L().With(zap.String("component", "ingest"), zap.String("run_id", sum.RunID))

	if err := o.store.Ping(ctx); err != nil {
		o.opts.Recorder.RunFinished(model.IngestFailed, o.opts.Now().Sub(start))
		return sum, eris.Wrap(err, "ingest: store unavailable")
	}

	run := &model.IngestRun{
		ID:           sum.RunID,
		Status:       model.IngestRunning,
		ModelVersion: sum.ModelVersion,
		StartedAt:    start.UTC(),
	}
	if err := o.store.CreateRun(ctx, run); err != nil {
		return sum, eris.Wrap(err, "ingest: create run")
	}
	log.Info("ingest: run started", zap.Int("seeds", len(seeds)))

	// Seeding.
	cands, index := o.seed(seeds)
	sum.Seeded = len(cands)

	// Expanding.
	if o.opts.Expander != nil {
		seedCands := cands
		for _, sc := range seedCands {
			if ctx.Err() != nil {
				break
			}
			found, err := o.opts.Expander.Expand(ctx, sc.keyword)
			if err != nil {
				log.Warn("ingest: expansion failed", zap.String("seed", sc.keyword), zap.Error(err))
				continue
			}
			for _, d := range found {
				if _, ok := index[d.Keyword]; ok {
					continue
				}
				index[d.Keyword] = len(cands)
				cands = append(cands, candidate{
					keyword: d.Keyword,
					bucket:  sc.bucket,
					source:  d.Source,
				})
				sum.Expanded++
			}
		}
	}
	sum.Total = len(cands)
	log.Info("ingest: candidates ready",
		zap.Int("seeded", sum.Seeded),
		zap.Int("expanded", sum.Expanded),
	)

	// Classifying, scoring and persisting.
	err := o.persist(ctx, log, cands, sum)

	sum.Duration = o.opts.Now().Sub(start)
	o.complete(ctx, log, run, sum, err)

	if err != nil {
		return sum, err
	}
	log.Info("ingest: run complete",
		zap.Int("total", sum.Total),
		zap.Int("new", sum.New),
		zap.Int("refreshed", sum.Refreshed),
		zap.Int("skipped", sum.Skipped),
		zap.Int("failed", sum.Failed),
		zap.Duration("duration", sum.Duration),
	)
	return sum, nil
}

// seed normalizes and de-duplicates seeds. The first occurrence of a keyword
// keeps its bucket and volume.
func (o *Orchestrator) seed(seeds []Seed) ([]candidate, map[string]int) {
	cands := make([]candidate, 0, len(seeds))
	index := make(map[string]int, len(seeds))
	for _, s := range seeds {
		kw := model.NormalizeKeyword(s.Keyword)
		if kw == "" {
			continue
		}
		if _, ok := index[kw]; ok {
			continue
		}
		index[kw] = len(cands)
		cands = append(cands, candidate{
			keyword: kw,
			bucket:  s.Bucket,
			volume:  max(s.Volume, 0),
			source:  model.SourceSeed,
		})
	}
	return cands, index
}

func (o *Orchestrator) persist(ctx context.Context, log *zap.Logger, cands []candidate, sum *Summary) error {
	var refreshes []store.Refresh

	for _, c := range cands {
		if err := ctx.Err(); err != nil {
			return eris.Wrap(err, "ingest: run canceled")
		}

		if !o.opts.Classifier.InScope(c.keyword) {
			sum.Skipped++
			o.opts.Recorder.KeywordProcessed(OutcomeSkipped)
			continue
		}

		existing, err := o.store.Get(ctx, c.keyword)
		switch {
		case err == nil:
			refreshes = append(refreshes, o.refreshFor(c, existing))
			continue
		case !eris.Is(err, store.ErrNotFound):
			if pingErr := o.store.Ping(ctx); pingErr != nil {
				return eris.Wrap(pingErr, "ingest: store unavailable")
			}
			log.Warn("ingest: lookup failed", zap.String("keyword", c.keyword), zap.Error(err))
			sum.Failed++
			o.opts.Recorder.KeywordProcessed(OutcomeFailed)
			continue
		}

		vol := c.volume
		if vol == 0 && c.source != model.SourceSeed {
			vol = o.opts.DefaultVolume
		}
		k := o.opts.Classifier.Classify(c.keyword, c.bucket, vol)
		k.DiscoverySource = c.source
		inserted, err := o.store.Insert(ctx, &k)
		if err != nil {
			log.Warn("ingest: insert failed", zap.String("keyword", c.keyword), zap.Error(err))
			sum.Failed++
			o.opts.Recorder.KeywordProcessed(OutcomeFailed)
			continue
		}
		if !inserted {
			// Another writer stored it between Get and Insert.
			stored, err := o.store.Get(ctx, c.keyword)
			if err != nil {
				log.Warn("ingest: lookup after insert conflict failed",
					zap.String("keyword", c.keyword), zap.Error(err))
				sum.Failed++
				o.opts.Recorder.KeywordProcessed(OutcomeFailed)
				continue
			}
			refreshes = append(refreshes, o.refreshFor(c, stored))
			continue
		}
		sum.New++
		o.opts.Recorder.KeywordProcessed(OutcomeNew)
	}

	o.refresh(ctx, log, refreshes, sum)
	return nil
}

// refreshFor builds the volume/last-seen touch for a stored keyword. A
// candidate without a volume keeps the stored one.
func (o *Orchestrator) refreshFor(c candidate, existing *model.Keyword) store.Refresh {
	vol := c.volume
	if vol == 0 && existing != nil {
		vol = existing.MonthlyVolume
	}
	return store.Refresh{Keyword: c.keyword, Volume: vol, SeenAt: o.opts.Now().UTC()}
}

// refresh applies refreshes in one bulk statement, falling back to row by
// row updates when the bulk path fails.
func (o *Orchestrator) refresh(ctx context.Context, log *zap.Logger, refreshes []store.Refresh, sum *Summary) {
	if len(refreshes) == 0 {
		return
	}

	_, err := o.store.BulkRefresh(ctx, refreshes)
	if err == nil {
		sum.Refreshed += len(refreshes)
		for range refreshes {
			o.opts.Recorder.KeywordProcessed(OutcomeRefreshed)
		}
		return
	}
	log.Warn("ingest: bulk refresh failed, falling back to single rows",
		zap.Int("rows", len(refreshes)), zap.Error(err))

	for _, r := range refreshes {
		if err := o.store.RefreshSeen(ctx, r.Keyword, r.Volume, r.SeenAt); err != nil {
			log.Warn("ingest: refresh failed", zap.String("keyword", r.Keyword), zap.Error(err))
			sum.Failed++
			o.opts.Recorder.KeywordProcessed(OutcomeFailed)
			continue
		}
		sum.Refreshed++
		o.opts.Recorder.KeywordProcessed(OutcomeRefreshed)
	}
}

func (o *Orchestrator) complete(ctx context.Context, log *zap.Logger, run *model.IngestRun, sum *Summary, runErr error) {
	completed := o.opts.Now().UTC()
	run.Seeded = sum.Seeded
	run.Expanded = sum.Expanded
	run.Total = sum.Total
	run.Inserted = sum.New
	run.Refreshed = sum.Refreshed
	run.Skipped = sum.Skipped
	run.Failed = sum.Failed
	run.CompletedAt = &completed
	run.Status = model.IngestComplete
	if runErr != nil {
		run.Status = model.IngestFailed
		run.Error = runErr.Error()
	}

	// The run context may already be done; the audit row should still land.
	if err := o.store.CompleteRun(context.WithoutCancel(ctx), run); err != nil {
		log.Error("ingest: complete run failed", zap.Error(err))
	}
	o.opts.Recorder.RunFinished(run.Status, sum.Duration)
}
