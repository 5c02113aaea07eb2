// Package seasonality maps keywords to a time-of-year relevance multiplier.
package seasonality

import (
	"time"

	"github.com/sells-group/radar/internal/textmatch"
)

// Neutral is the weight for keywords with no seasonal pattern.
const Neutral = 1.0

// Curve holds one weight per month, January first.
type Curve [12]float64

// Pattern maps keyword fragments to a monthly curve.
type Pattern struct {
	Name      string
	Fragments []string
	Curve     Curve
}

// Patterns is scanned in order; the first pattern with a matching fragment
// wins, so narrow patterns precede broad ones.
var Patterns = []Pattern{
	{"cedar", []string{"cedar fever", "mountain cedar", "cedar pollen", "cedar allergy"},
		Curve{1.6, 1.5, 1.1, 0.7, 0.6, 0.6, 0.6, 0.6, 0.6, 0.7, 0.9, 1.5}},
	{"oak", []string{"oak pollen", "oak allergy"},
		Curve{0.7, 0.9, 1.5, 1.6, 1.1, 0.8, 0.7, 0.7, 0.7, 0.7, 0.7, 0.7}},
	{"ragweed", []string{"ragweed"},
		Curve{0.7, 0.7, 0.7, 0.7, 0.7, 0.8, 0.9, 1.1, 1.5, 1.6, 1.1, 0.8}},
	{"pollen", []string{"pollen", "allergy", "allergies"},
		Curve{1.3, 1.3, 1.4, 1.4, 1.1, 0.9, 0.8, 0.8, 1.0, 1.1, 1.0, 1.2}},
	{"bluebonnet", []string{"bluebonnet", "bluebonnets", "wildflower", "wildflowers"},
		Curve{0.6, 0.9, 1.6, 1.7, 1.1, 0.7, 0.6, 0.6, 0.6, 0.6, 0.6, 0.6}},
	{"sxsw", []string{"sxsw", "south by southwest"},
		Curve{0.9, 1.3, 1.8, 0.8, 0.6, 0.6, 0.6, 0.6, 0.6, 0.7, 0.8, 0.8}},
	{"acl", []string{"acl fest", "acl festival", "austin city limits festival"},
		Curve{0.6, 0.6, 0.7, 0.7, 0.8, 0.9, 1.0, 1.3, 1.7, 1.6, 0.7, 0.6}},
	{"trail of lights", []string{"trail of lights", "christmas lights", "37th street lights"},
		Curve{0.5, 0.4, 0.4, 0.4, 0.4, 0.4, 0.4, 0.4, 0.5, 0.8, 1.4, 1.9}},
	{"halloween", []string{"halloween", "haunted house", "pumpkin patch"},
		Curve{0.4, 0.4, 0.4, 0.4, 0.4, 0.4, 0.5, 0.7, 1.3, 1.9, 0.6, 0.4}},
	{"fireworks", []string{"fireworks", "4th of july", "fourth of july"},
		Curve{0.8, 0.4, 0.4, 0.4, 0.5, 1.2, 1.9, 0.5, 0.4, 0.4, 0.5, 1.0}},
	{"swimming", []string{"swimming hole", "swim spot", "barton springs", "splash pad", "tubing", "lake travis"},
		Curve{0.5, 0.5, 0.7, 0.9, 1.3, 1.6, 1.7, 1.6, 1.2, 0.8, 0.6, 0.5}},
	{"bats", []string{"bat bridge", "bats congress", "congress avenue bridge"},
		Curve{0.5, 0.5, 0.8, 1.0, 1.2, 1.4, 1.5, 1.5, 1.2, 0.8, 0.5, 0.5}},
	{"freeze", []string{"freeze warning", "ice storm", "snow"},
		Curve{1.6, 1.6, 0.9, 0.5, 0.4, 0.4, 0.4, 0.4, 0.4, 0.5, 1.0, 1.4}},
	{"heat", []string{"heat advisory", "heat wave", "splash", "air conditioning"},
		Curve{0.5, 0.5, 0.6, 0.8, 1.1, 1.5, 1.7, 1.7, 1.3, 0.8, 0.5, 0.5}},
}

// Boost returns the seasonal weight of keyword for month.
func Boost(keyword string, month time.Month) float64 {
	if month < time.January || month > time.December {
		return Neutral
	}
	kw := textmatch.Normalize(keyword)
	for _, p := range Patterns {
		if _, ok := textmatch.FirstPhrase(kw, p.Fragments); ok {
			return p.Curve[month-1]
		}
	}
	return Neutral
}

// BoostNow returns the seasonal weight of keyword for the current month.
func BoostNow(keyword string) float64 {
	return Boost(keyword, time.Now().Month())
}
