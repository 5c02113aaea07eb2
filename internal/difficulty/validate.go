package difficulty

import (
	"fmt"
	"math"
	"strings"

	"github.com/sells-group/radar/internal/model"
	"github.com/sells-group/radar/internal/textmatch"
)

// Floor is the minimum difficulty enforced when an estimate is implausible.
const Floor = 35

// lowDifficulty and highVolume bound the "popular but trivially easy" check.
const (
	lowDifficulty = 15
	highVolume    = 100
)

// Trigger identifies why a correction was applied.
type Trigger string

const (
	TriggerHighVolumeLowDifficulty Trigger = "high_volume_low_difficulty"
	TriggerCompetitiveTerm         Trigger = "competitive_term"
)

// CompetitiveTerms correlate with contested results whatever the estimate says.
var CompetitiveTerms = []string{
	"restaurants", "best", "happy hour", "bars", "things to do", "hotels",
	"coffee shops", "apartments", "food trucks",
}

// Anomaly is one recorded correction.
type Anomaly struct {
	Trigger Trigger `json:"trigger"`
	Detail  string  `json:"detail"`
}

// Result is a validated difficulty.
type Result struct {
	Difficulty int                    `json:"difficulty"`
	Source     model.DifficultySource `json:"source"`
	Confidence model.Confidence       `json:"confidence"`
	Anomalies  []Anomaly              `json:"anomalies,omitempty"`
}

// HasTrigger reports whether the result carries an anomaly of kind t.
func (r Result) HasTrigger(t Trigger) bool {
	for _, a := range r.Anomalies {
		if a.Trigger == t {
			return true
		}
	}
	return false
}

// AnomalyText joins the anomaly details for storage. It returns nil when no
// correction was applied.
func (r Result) AnomalyText() *string {
	if len(r.Anomalies) == 0 {
		return nil
	}
	parts := make([]string, len(r.Anomalies))
	for i, a := range r.Anomalies {
		parts[i] = a.Detail
	}
	s := strings.Join(parts, "; ")
	return &s
}

// Validate checks raw against volume and the keyword's terms. API values pass
// through with high confidence. Estimated values are floored at 35 when
// (a) raw < 15 while volume > 100, or (b) raw <= 35 while a competitive term
// is present. Re-validating a floored value leaves it unchanged.
func Validate(keyword string, raw, volume int, source model.DifficultySource) Result {
	if source == model.DifficultyAPI {
		return Result{
			Difficulty: clamp(raw, 0, 100),
			Source:     model.DifficultyAPI,
			Confidence: model.ConfidenceHigh,
		}
	}

	kw := textmatch.Normalize(keyword)
	res := Result{
		Difficulty: clamp(raw, 0, 100),
		Source:     model.DifficultyEstimated,
	}

	if raw < lowDifficulty && volume > highVolume {
		res.Anomalies = append(res.Anomalies, Anomaly{
			Trigger: TriggerHighVolumeLowDifficulty,
			Detail: fmt.Sprintf("difficulty %d implausibly low for volume %d; floored to %d",
				raw, volume, Floor),
		})
	}
	if raw <= Floor {
		if term, ok := textmatch.FirstInflected(kw, CompetitiveTerms); ok {
			res.Anomalies = append(res.Anomalies, Anomaly{
				Trigger: TriggerCompetitiveTerm,
				Detail:  fmt.Sprintf("competitive term %q present; floored to %d", term, Floor),
			})
		}
	}

	if len(res.Anomalies) > 0 {
		res.Difficulty = max(res.Difficulty, Floor)
		res.Confidence = model.ConfidenceLow
		return res
	}

	lo, hi := ExpectedBand(volume)
	if res.Difficulty >= lo && res.Difficulty <= hi {
		res.Confidence = model.ConfidenceHigh
	} else {
		res.Confidence = model.ConfidenceMedium
	}
	return res
}

// ExpectedBand returns the plausible difficulty range for volume.
func ExpectedBand(volume int) (lo, hi int) {
	lo = max(10, int(math.Round(math.Log10(float64(max(volume, 10)))*8)))
	hi = min(95, lo+40)
	return lo, hi
}
