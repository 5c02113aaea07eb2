package ingest

import (
	"time"

	"github.com/sells-group/radar/internal/coverage"
	"github.com/sells-group/radar/internal/difficulty"
	"github.com/sells-group/radar/internal/geo"
	"github.com/sells-group/radar/internal/intent"
	"github.com/sells-group/radar/internal/model"
	"github.com/sells-group/radar/internal/scorer"
	"github.com/sells-group/radar/internal/seasonality"
	"github.com/sells-group/radar/internal/subtype"
)

// Classifier runs the classification and scoring pipeline for single
// keywords. It holds no mutable state and is safe for concurrent use.
type Classifier struct {
	scorer *scorer.Scorer
	geo    *geo.Filter
	now    func() time.Time
}

// NewClassifier creates a Classifier. Nil arguments fall back to the built-in
// scorer, geo filter and wall clock.
func NewClassifier(s *scorer.Scorer, filter *geo.Filter, now func() time.Time) *Classifier {
	if s == nil {
		s = scorer.Default()
	}
	if filter == nil {
		filter = geo.Default()
	}
	if now == nil {
		now = time.Now
	}
	return &Classifier{scorer: s, geo: filter, now: now}
}

var defaultClassifier = NewClassifier(nil, nil, nil)

// Classify runs the built-in classifier. See Classifier.Classify.
func Classify(keyword, bucket string, volume int) model.Keyword {
	return defaultClassifier.Classify(keyword, bucket, volume)
}

// InScope reports whether keyword passes the classifier's geo filter.
func (c *Classifier) InScope(keyword string) bool {
	return c.geo.IsInScope(keyword)
}

// Classify builds a complete keyword record: intent, validated difficulty,
// subtypes, coverage match, the three scores and the model version. The
// discovery source defaults to seed; callers override it for expansions.
func (c *Classifier) Classify(keyword, bucket string, volume int) model.Keyword {
	kw := model.NormalizeKeyword(keyword)
	volume = max(volume, 0)
	now := c.now().UTC()

	in := intent.Classify(kw)
	raw := difficulty.Estimate(kw, volume, in)
	diff := difficulty.Validate(kw, raw, volume, model.DifficultyEstimated)
	tags := subtype.Tag(kw)
	match := coverage.MatchToExistingContent(kw)

	si := scorer.Input{
		Keyword:     kw,
		Bucket:      bucket,
		Volume:      volume,
		Difficulty:  diff.Difficulty,
		Intent:      in,
		Subtypes:    tags,
		Covered:     match != nil,
		Seasonality: seasonality.Boost(kw, now.Month()),
	}

	k := model.Keyword{
		Keyword:              kw,
		Bucket:               bucket,
		MonthlyVolume:        volume,
		Intent:               in,
		Subtypes:             tags,
		Difficulty:           diff.Difficulty,
		DifficultySource:     diff.Source,
		DifficultyConfidence: diff.Confidence,
		DifficultyAnomaly:    diff.AnomalyText(),
		CompositeScore:       c.scorer.Composite(si),
		StrategicScore:       c.scorer.Strategic(si),
		OpportunityScore:     c.scorer.Opportunity(si),
		DiscoverySource:      model.SourceSeed,
		ModelVersion:         scorer.ModelVersion,
		FirstSeen:            now,
		LastSeen:             now,
	}
	if match != nil {
		k.MatchedApp = model.StringPtr(match.App)
		k.MatchedURL = model.StringPtr(match.URL)
	}
	return k
}
