package scorer

import (
	"math"

	"github.com/sells-group/radar/internal/config"
	"github.com/sells-group/radar/internal/geo"
	"github.com/sells-group/radar/internal/model"
)

// Input carries everything the scoring formulas read.
type Input struct {
	Keyword     string
	Bucket      string
	Volume      int
	Difficulty  int
	Intent      model.Intent
	Subtypes    []model.Subtype
	Covered     bool
	Seasonality float64
}

// StrategicBreakdown exposes each term of the strategic formula.
type StrategicBreakdown struct {
	InScope      bool    `json:"in_scope"`
	VolNorm      float64 `json:"vol_norm"`
	DiffFactor   float64 `json:"diff_factor"`
	Base         float64 `json:"base"`
	Fit          float64 `json:"fit"`
	LocalBoost   float64 `json:"local_boost"`
	HeadPenalty  float64 `json:"head_penalty"`
	Multiplier   float64 `json:"multiplier"`
	BucketWeight float64 `json:"bucket_weight"`
	Raw          float64 `json:"raw"`
	Score        int     `json:"score"`
}

// Scorer applies the scoring formulas under one config.
type Scorer struct {
	cfg config.ScorerConfig
	geo *geo.Filter
}

// New creates a Scorer. A nil filter uses the built-in geo filter.
func New(cfg config.ScorerConfig, filter *geo.Filter) *Scorer {
	if filter == nil {
		filter = geo.Default()
	}
	return &Scorer{cfg: cfg, geo: filter}
}

var defaultScorer = New(DefaultScorerConfig(), nil)

// Default returns a Scorer with the production weights.
func Default() *Scorer {
	return defaultScorer
}

// Config returns the scorer's weights.
func (s *Scorer) Config() config.ScorerConfig {
	return s.cfg
}

// Strategic answers how good a content investment the keyword is for this
// site. Out-of-scope keywords score 0 and in-scope keywords at least 1.
func (s *Scorer) Strategic(in Input) int {
	return s.ExplainStrategic(in).Score
}

// ExplainStrategic computes the strategic score and returns every term.
func (s *Scorer) ExplainStrategic(in Input) StrategicBreakdown {
	var b StrategicBreakdown
	if !s.geo.IsInScope(in.Keyword) {
		return b
	}
	b.InScope = true

	b.VolNorm = strategicVolNorm(in.Volume)
	b.DiffFactor = s.diffFactor(in.Difficulty)
	b.Base = b.VolNorm * b.DiffFactor

	b.Fit = FitAdjustment(in.Subtypes)
	b.LocalBoost = LocalBoost(in.Keyword, s.cfg.LocalBoostCap)
	b.HeadPenalty = HeadPenalty(in.Keyword, s.cfg.HeadTermPenalty)
	b.Multiplier = math.Max(s.cfg.MinMultiplier, 1+b.Fit+b.LocalBoost-b.HeadPenalty)
	b.BucketWeight = s.BucketWeight(in.Bucket)

	b.Raw = b.Base * b.Multiplier * s.cfg.GeoMultiplier * b.BucketWeight
	// 0 is reserved for out-of-scope keywords.
	b.Score = max(1, clampScore(b.Raw))
	return b
}

// Opportunity answers how easy and urgent the keyword is to capture now,
// independent of site fit.
func (s *Scorer) Opportunity(in Input) int {
	volNorm := strategicVolNorm(in.Volume)
	diffPenalty := float64(clampInt(in.Difficulty, 0, 100)) / 100

	season := in.Seasonality
	if season <= 0 {
		season = 1
	}
	gap := 1.0
	if !in.Covered {
		gap = s.cfg.GapMultiplier
	}
	return clampScore(volNorm * (1 - diffPenalty) * season * gap)
}

// Composite is the blended headline score: normalized volume and ease weigh
// 40 points each, intent up to 20.
func (s *Scorer) Composite(in Input) int {
	ease := float64(100 - clampInt(in.Difficulty, 0, 100))
	raw := float64(NormalizeVolume(in.Volume))*0.4 + ease*0.4 + intentWeight(in.Intent)*20
	return clampScore(raw)
}

// BucketWeight returns the strategic weight of a topical bucket.
func (s *Scorer) BucketWeight(bucket string) float64 {
	if w, ok := s.cfg.BucketWeights[bucket]; ok {
		return w
	}
	return s.cfg.DefaultBucketWeight
}

func (s *Scorer) diffFactor(difficulty int) float64 {
	d := clampInt(difficulty, 0, 100)
	f := 1 - float64(d)/100
	if d > s.cfg.HardDifficulty {
		f = math.Pow(f, s.cfg.HardExponent)
	}
	return f
}

// strategicVolNorm is min(100, round(log10(max(volume,1)+1)*22)).
func strategicVolNorm(volume int) float64 {
	v := math.Round(math.Log10(float64(max(volume, 1))+1) * 22)
	return math.Min(100, v)
}

// NormalizeVolume maps a raw monthly volume onto 0-100 on a log scale where
// 100,000 searches is the top.
func NormalizeVolume(volume int) int {
	if volume <= 0 {
		return 0
	}
	return clampScore(math.Log10(float64(volume)) / math.Log10(100000) * 100)
}

func intentWeight(i model.Intent) float64 {
	switch i {
	case model.IntentLocal:
		return 1.0
	case model.IntentCommercial:
		return 0.9
	case model.IntentInformational:
		return 0.6
	case model.IntentNavigational:
		return 0.3
	}
	return 0
}

func clampScore(v float64) int {
	if math.IsNaN(v) {
		return 0
	}
	return int(math.Round(math.Max(0, math.Min(100, v))))
}

func clampInt(v, lo, hi int) int {
	return max(lo, min(v, hi))
}

// Strategic scores in with the production weights.
func Strategic(in Input) int { return defaultScorer.Strategic(in) }

// Opportunity scores in with the production weights.
func Opportunity(in Input) int { return defaultScorer.Opportunity(in) }

// Composite scores in with the production weights.
func Composite(in Input) int { return defaultScorer.Composite(in) }
