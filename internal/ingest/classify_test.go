package ingest

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/radar/internal/difficulty"
	"github.com/sells-group/radar/internal/intent"
	"github.com/sells-group/radar/internal/model"
	"github.com/sells-group/radar/internal/scorer"
)

var t0 = time.Date(2026, time.February, 3, 15, 0, 0, 0, time.UTC)

func fixedClock() time.Time { return t0 }

func TestClassify_CoveredKeyword(t *testing.T) {
	c := NewClassifier(nil, nil, fixedClock)
	k := c.Classify("  Cedar POLLEN  austin ", "weather", 2400)

	assert.Equal(t, "cedar pollen austin", k.Keyword)
	assert.Equal(t, "weather", k.Bucket)
	assert.Equal(t, 2400, k.MonthlyVolume)
	assert.Equal(t, intent.Classify("cedar pollen austin"), k.Intent)
	assert.True(t, k.HasSubtype(model.SubtypeSeasonal))

	require.NotNil(t, k.MatchedApp)
	assert.Equal(t, "pollen", *k.MatchedApp)
	require.NotNil(t, k.MatchedURL)
	assert.Equal(t, "https://atx.guide/pollen", *k.MatchedURL)
	assert.False(t, k.IsGap())
	assert.Empty(t, k.SuggestedLinks, "links are filled when a brief is saved")

	assert.Equal(t, model.SourceSeed, k.DiscoverySource)
	assert.Equal(t, scorer.ModelVersion, k.ModelVersion)
	assert.True(t, t0.Equal(k.FirstSeen))
	assert.True(t, t0.Equal(k.LastSeen))
}

func TestClassify_DifficultyIsValidated(t *testing.T) {
	k := Classify("best restaurants austin", "food", 12000)

	raw := difficulty.Estimate(k.Keyword, k.MonthlyVolume, k.Intent)
	want := difficulty.Validate(k.Keyword, raw, k.MonthlyVolume, model.DifficultyEstimated)

	assert.Equal(t, want.Difficulty, k.Difficulty)
	assert.Equal(t, model.DifficultyEstimated, k.DifficultySource)
	assert.Equal(t, want.Confidence, k.DifficultyConfidence)
	assert.Equal(t, want.AnomalyText(), k.DifficultyAnomaly)
	assert.GreaterOrEqual(t, k.Difficulty, difficulty.Floor)
}

func TestClassify_ScoresBounded(t *testing.T) {
	for _, kw := range []string{
		"austin weather", "zilker park hours", "tacos near me", "dallas bbq", "",
	} {
		k := Classify(kw, "food", 5000)
		for _, s := range []int{k.StrategicScore, k.OpportunityScore, k.CompositeScore} {
			assert.GreaterOrEqual(t, s, 0, kw)
			assert.LessOrEqual(t, s, 100, kw)
		}
	}
}

func TestClassify_OutOfScopeHasZeroStrategic(t *testing.T) {
	k := Classify("dallas bbq", "food", 9000)
	assert.Equal(t, 0, k.StrategicScore)
	assert.Greater(t, k.CompositeScore, 0)
}

func TestClassify_InScopeHasPositiveStrategic(t *testing.T) {
	for _, kw := range []string{"austin bars jobs pdf phone", "austin restaurants menu hours phone jobs pdf"} {
		k := Classify(kw, "services", 0)
		assert.Positive(t, k.StrategicScore, kw)
	}
}

func TestClassify_PluralCompetitiveTerm(t *testing.T) {
	k := Classify("happy hours austin", "food", 150)
	assert.Equal(t, model.IntentLocal, k.Intent)
	assert.Equal(t, 35, k.Difficulty)
	assert.Equal(t, model.ConfidenceLow, k.DifficultyConfidence)
	require.NotNil(t, k.DifficultyAnomaly)
	assert.Contains(t, *k.DifficultyAnomaly, "happy hour")
}

func TestClassify_GapKeyword(t *testing.T) {
	k := Classify("austin dmv appointment", "services", 300)
	assert.True(t, k.IsGap())
	assert.Nil(t, k.MatchedURL)
	assert.Empty(t, k.SuggestedLinks)
}

func TestClassify_NegativeVolume(t *testing.T) {
	k := Classify("austin weather", "weather", -5)
	assert.Equal(t, 0, k.MonthlyVolume)
}

func TestClassifier_InScope(t *testing.T) {
	c := NewClassifier(nil, nil, nil)
	assert.True(t, c.InScope("zilker park"))
	assert.False(t, c.InScope("dallas tacos"))
}
