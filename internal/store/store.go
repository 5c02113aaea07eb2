// Package store persists keywords and ingestion runs.
package store

import (
	"context"
	"time"

	"github.com/rotisserie/eris"

	"github.com/sells-group/radar/internal/model"
)

// ErrNotFound is returned when a keyword or run does not exist.
var ErrNotFound = eris.New("store: not found")

// ScoreField selects which score a listing filters and sorts on.
type ScoreField string

const (
	ScoreStrategic   ScoreField = "strategic"
	ScoreOpportunity ScoreField = "opportunity"
	ScoreComposite   ScoreField = "composite"
)

func (f ScoreField) column() (string, error) {
	switch f {
	case "", ScoreStrategic:
		return "strategic_score", nil
	case ScoreOpportunity:
		return "opportunity_score", nil
	case ScoreComposite:
		return "composite_score", nil
	}
	return "", eris.Errorf("store: unknown score field %q", f)
}

// ListFilter specifies criteria for listing keywords. Zero values mean no
// constraint.
type ListFilter struct {
	Bucket   string       `json:"bucket,omitempty"`
	Intent   model.Intent `json:"intent,omitempty"`
	Prefix   string       `json:"prefix,omitempty"`
	SortBy   ScoreField   `json:"sort_by,omitempty"`
	MinScore int          `json:"min_score,omitempty"`
	MaxScore int          `json:"max_score,omitempty"`
	GapOnly  bool         `json:"gap_only,omitempty"`
	Limit    int          `json:"limit,omitempty"`
	Offset   int          `json:"offset,omitempty"`
}

// GroupCount is one row of a grouped count.
type GroupCount struct {
	Value string `json:"value"`
	Count int    `json:"count"`
}

// Refresh is a volume/last-seen touch for an existing keyword.
type Refresh struct {
	Keyword string
	Volume  int
	SeenAt  time.Time
}

// KeywordStore defines the persistence interface for keywords.
type KeywordStore interface {
	// Keywords
	Get(ctx context.Context, keyword string) (*model.Keyword, error)
	Insert(ctx context.Context, k *model.Keyword) (bool, error)
	RefreshSeen(ctx context.Context, keyword string, volume int, seenAt time.Time) error
	BulkRefresh(ctx context.Context, refreshes []Refresh) (int64, error)
	List(ctx context.Context, filter ListFilter) ([]model.Keyword, error)
	CountBy(ctx context.Context, field string) ([]GroupCount, error)
	SaveBrief(ctx context.Context, keyword, title string, links []string) error

	// Runs
	CreateRun(ctx context.Context, run *model.IngestRun) error
	CompleteRun(ctx context.Context, run *model.IngestRun) error
	ListRuns(ctx context.Context, limit int) ([]model.IngestRun, error)

	// Lifecycle
	Ping(ctx context.Context) error
	Migrate(ctx context.Context) error
	Close() error
}
