package ingest

import (
	"context"
	"errors"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/radar/internal/expand"
	"github.com/sells-group/radar/internal/model"
	"github.com/sells-group/radar/internal/scorer"
	"github.com/sells-group/radar/internal/store"
	"github.com/sells-group/radar/pkg/suggest/mocks"
)

func newTestStore(t *testing.T) *store.SQLiteStore {
	t.Helper()
	st, err := store.NewSQLite(filepath.Join(t.TempDir(), "radar.db"))
	require.NoError(t, err)
	t.Cleanup(func() { st.Close() }) //nolint:errcheck
	require.NoError(t, st.Migrate(context.Background()))
	return st
}

// newTestExpander only issues the bare seed query.
func newTestExpander(t *testing.T, results map[string][]string) *expand.Expander {
	t.Helper()
	client := mocks.NewMockClient(t)
	for q, res := range results {
		client.On("Complete", mock.Anything, q).Return(res, nil).Maybe()
	}
	return expand.New(client, expand.Options{Suffixes: []string{}, SkipAlpha: true})
}

type countingRecorder struct {
	mu       sync.Mutex
	outcomes map[string]int
	runs     []model.IngestRunStatus
}

func (r *countingRecorder) KeywordProcessed(outcome string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.outcomes == nil {
		r.outcomes = map[string]int{}
	}
	r.outcomes[outcome]++
}

func (r *countingRecorder) RunFinished(status model.IngestRunStatus, _ time.Duration) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.runs = append(r.runs, status)
}

var testSeeds = []Seed{
	{Keyword: "Austin Tacos", Bucket: "food", Volume: 900},
	{Keyword: "dallas tacos", Bucket: "food"},
	{Keyword: "austin tacos", Bucket: "nightlife", Volume: 5},
}

var testSuggestions = map[string][]string{
	"austin tacos": {"austin tacos near me", "Austin Tacos East Side", "tacos", "austin tacos"},
	"dallas tacos": {"dallas tacos downtown"},
}

func TestRun_FirstPass(t *testing.T) {
	st := newTestStore(t)
	rec := &countingRecorder{}
	o := New(st, Options{
		Expander:   newTestExpander(t, testSuggestions),
		Classifier: NewClassifier(nil, nil, fixedClock),
		Recorder:   rec,
		Now:        fixedClock,
	})

	sum, err := o.Run(context.Background(), testSeeds)
	require.NoError(t, err)

	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, scorer.ModelVersion, sum.ModelVersion)
	assert.Equal(t, 2, sum.Seeded)
	assert.Equal(t, 3, sum.Expanded)
	assert.Equal(t, 5, sum.Total)
	assert.Equal(t, 3, sum.New)
	assert.Equal(t, 2, sum.Skipped)
	assert.Equal(t, 0, sum.Refreshed)
	assert.Equal(t, 0, sum.Failed)

	seed, err := st.Get(context.Background(), "austin tacos")
	require.NoError(t, err)
	assert.Equal(t, "food", seed.Bucket)
	assert.Equal(t, 900, seed.MonthlyVolume)
	assert.Equal(t, model.SourceSeed, seed.DiscoverySource)

	exp, err := st.Get(context.Background(), "austin tacos east side")
	require.NoError(t, err)
	assert.Equal(t, "food", exp.Bucket)
	assert.Equal(t, model.SourceSuffix, exp.DiscoverySource)

	_, err = st.Get(context.Background(), "dallas tacos")
	assert.ErrorIs(t, err, store.ErrNotFound)
	_, err = st.Get(context.Background(), "tacos")
	assert.ErrorIs(t, err, store.ErrNotFound)

	assert.Equal(t, map[string]int{OutcomeNew: 3, OutcomeSkipped: 2}, rec.outcomes)
	assert.Equal(t, []model.IngestRunStatus{model.IngestComplete}, rec.runs)

	runs, err := st.ListRuns(context.Background(), 10)
	require.NoError(t, err)
	require.Len(t, runs, 1)
	assert.Equal(t, sum.RunID, runs[0].ID)
	assert.Equal(t, model.IngestComplete, runs[0].Status)
	assert.Equal(t, 3, runs[0].Inserted)
	assert.Equal(t, 2, runs[0].Skipped)
	assert.NotNil(t, runs[0].CompletedAt)
}

func TestRun_ReingestIsIdempotent(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	now := t0
	clock := func() time.Time { return now }

	o := New(st, Options{
		Expander:   newTestExpander(t, testSuggestions),
		Classifier: NewClassifier(nil, nil, clock),
		Now:        clock,
	})

	_, err := o.Run(ctx, testSeeds)
	require.NoError(t, err)
	before, err := st.Get(ctx, "austin tacos near me")
	require.NoError(t, err)

	now = t0.Add(48 * time.Hour)
	sum, err := o.Run(ctx, testSeeds)
	require.NoError(t, err)

	assert.Equal(t, 0, sum.New)
	assert.Equal(t, 3, sum.Refreshed)
	assert.Equal(t, 2, sum.Skipped)

	all, err := st.List(ctx, store.ListFilter{})
	require.NoError(t, err)
	assert.Len(t, all, 3)

	after, err := st.Get(ctx, "austin tacos near me")
	require.NoError(t, err)
	assert.Equal(t, before.StrategicScore, after.StrategicScore)
	assert.Equal(t, before.Intent, after.Intent)
	assert.True(t, before.FirstSeen.Equal(after.FirstSeen))
	assert.True(t, now.Equal(after.LastSeen))

	seed, err := st.Get(ctx, "austin tacos")
	require.NoError(t, err)
	assert.Equal(t, 900, seed.MonthlyVolume)
}

func TestRun_RefreshUpdatesVolume(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()
	o := New(st, Options{Now: fixedClock})

	_, err := o.Run(ctx, []Seed{{Keyword: "zilker park", Bucket: "outdoors", Volume: 800}})
	require.NoError(t, err)

	_, err = o.Run(ctx, []Seed{{Keyword: "zilker park", Bucket: "outdoors", Volume: 1500}})
	require.NoError(t, err)
	got, err := st.Get(ctx, "zilker park")
	require.NoError(t, err)
	assert.Equal(t, 1500, got.MonthlyVolume)

	// A seed without a volume keeps the stored one.
	_, err = o.Run(ctx, []Seed{{Keyword: "zilker park", Bucket: "outdoors"}})
	require.NoError(t, err)
	got, err = st.Get(ctx, "zilker park")
	require.NoError(t, err)
	assert.Equal(t, 1500, got.MonthlyVolume)
}

func TestRun_ExpansionFailureIsSkipped(t *testing.T) {
	st := newTestStore(t)
	client := mocks.NewMockClient(t)
	client.On("Complete", mock.Anything, "austin weather").Return(nil, errors.New("boom"))
	client.On("Complete", mock.Anything, "barton springs").Return([]string{"barton springs pool hours"}, nil)

	o := New(st, Options{
		Expander: expand.New(client, expand.Options{Suffixes: []string{}, SkipAlpha: true}),
		Now:      fixedClock,
	})

	sum, err := o.Run(context.Background(), []Seed{
		{Keyword: "austin weather", Bucket: "weather"},
		{Keyword: "barton springs", Bucket: "outdoors"},
	})
	require.NoError(t, err)
	assert.Equal(t, 2, sum.Seeded)
	assert.Equal(t, 1, sum.Expanded)
	assert.Equal(t, 3, sum.New)
}

func TestRun_WithoutExpander(t *testing.T) {
	st := newTestStore(t)
	o := New(st, Options{Now: fixedClock})

	sum, err := o.Run(context.Background(), []Seed{{Keyword: "austin weather", Bucket: "weather"}})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Seeded)
	assert.Equal(t, 0, sum.Expanded)
	assert.Equal(t, 1, sum.New)
}

func TestRun_DefaultVolumeForExpansions(t *testing.T) {
	st := newTestStore(t)
	o := New(st, Options{
		Expander:      newTestExpander(t, map[string][]string{"austin weather": {"austin weather radar"}}),
		DefaultVolume: 40,
		Now:           fixedClock,
	})

	_, err := o.Run(context.Background(), []Seed{{Keyword: "austin weather", Bucket: "weather", Volume: 7000}})
	require.NoError(t, err)

	got, err := st.Get(context.Background(), "austin weather radar")
	require.NoError(t, err)
	assert.Equal(t, 40, got.MonthlyVolume)
	assert.Equal(t, "weather", got.Bucket)
}

func TestRun_RediscoveryKeepsStoredVolume(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := New(st, Options{Now: fixedClock}).Run(ctx,
		[]Seed{{Keyword: "austin weather radar", Bucket: "weather", Volume: 900}})
	require.NoError(t, err)

	o := New(st, Options{
		Expander:      newTestExpander(t, map[string][]string{"austin weather": {"austin weather radar"}}),
		DefaultVolume: 50,
		Now:           fixedClock,
	})
	sum, err := o.Run(ctx, []Seed{{Keyword: "austin weather", Bucket: "weather", Volume: 7000}})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.Refreshed)

	got, err := st.Get(ctx, "austin weather radar")
	require.NoError(t, err)
	assert.Equal(t, 900, got.MonthlyVolume)
}

// racingStore hides a stored row from the first Get, as if another writer
// inserted it between lookup and insert.
type racingStore struct {
	*store.SQLiteStore
	hidden map[string]bool
}

func (r *racingStore) Get(ctx context.Context, keyword string) (*model.Keyword, error) {
	if r.hidden[keyword] {
		delete(r.hidden, keyword)
		return nil, store.ErrNotFound
	}
	return r.SQLiteStore.Get(ctx, keyword)
}

func TestRun_InsertConflictKeepsStoredVolume(t *testing.T) {
	st := newTestStore(t)
	ctx := context.Background()

	_, err := New(st, Options{Now: fixedClock}).Run(ctx,
		[]Seed{{Keyword: "austin weather radar", Bucket: "weather", Volume: 900}})
	require.NoError(t, err)

	racing := &racingStore{SQLiteStore: st, hidden: map[string]bool{"austin weather radar": true}}
	o := New(racing, Options{
		Expander:      newTestExpander(t, map[string][]string{"austin weather": {"austin weather radar"}}),
		DefaultVolume: 50,
		Now:           fixedClock,
	})
	sum, err := o.Run(ctx, []Seed{{Keyword: "austin weather", Bucket: "weather", Volume: 7000}})
	require.NoError(t, err)
	assert.Equal(t, 1, sum.New)
	assert.Equal(t, 1, sum.Refreshed)
	assert.Zero(t, sum.Failed)

	got, err := st.Get(ctx, "austin weather radar")
	require.NoError(t, err)
	assert.Equal(t, 900, got.MonthlyVolume)
}

func TestRun_StoreUnavailable(t *testing.T) {
	st := newTestStore(t)
	require.NoError(t, st.Close())
	rec := &countingRecorder{}

	o := New(st, Options{Recorder: rec, Now: fixedClock})
	sum, err := o.Run(context.Background(), testSeeds)

	require.Error(t, err)
	assert.Contains(t, err.Error(), "ingest: store unavailable")
	require.NotNil(t, sum)
	assert.NotEmpty(t, sum.RunID)
	assert.Equal(t, 0, sum.New)
	assert.Equal(t, []model.IngestRunStatus{model.IngestFailed}, rec.runs)
}

func TestRun_CanceledContext(t *testing.T) {
	st := newTestStore(t)
	o := New(st, Options{Now: fixedClock})

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	sum, err := o.Run(ctx, testSeeds)
	require.Error(t, err)
	require.NotNil(t, sum)
	assert.Equal(t, 0, sum.New)
}

func TestRun_EmptySeeds(t *testing.T) {
	st := newTestStore(t)
	o := New(st, Options{Now: fixedClock})

	sum, err := o.Run(context.Background(), nil)
	require.NoError(t, err)
	assert.Equal(t, 0, sum.Total)

	runs, err := st.ListRuns(context.Background(), 5)
	require.NoError(t, err)
	assert.Len(t, runs, 1)
}
