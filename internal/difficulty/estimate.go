// Package difficulty estimates keyword ranking difficulty and flags
// implausible values.
package difficulty

import (
	"math"
	"strings"

	"github.com/sells-group/radar/internal/model"
	"github.com/sells-group/radar/internal/textmatch"
)

// Bounds for estimated difficulty.
const (
	MinDifficulty = 5
	MaxDifficulty = 95

	baseCap = 85
)

// Modifiers are qualifying terms that narrow a query. Each one present makes
// the keyword easier to rank for.
var Modifiers = []string{
	// Cuisines.
	"mexican", "tex-mex", "tex mex", "thai", "vietnamese", "pho", "indian",
	"italian", "japanese", "sushi", "ramen", "korean", "chinese", "ethiopian",
	"bbq", "barbecue", "cajun", "mediterranean", "greek",
	// Dietary.
	"vegan", "vegetarian", "gluten free", "gluten-free", "halal", "kosher",
	"keto", "dairy free",
	// Meal times.
	"breakfast", "brunch", "lunch", "dinner", "late night",
	// Audience.
	"kids", "kid friendly", "family", "family friendly", "date night",
	"couples", "groups", "students", "seniors", "dog friendly", "pet friendly",
	// Ambience.
	"rooftop", "patio", "outdoor", "romantic", "quiet", "live music",
	"with a view", "waterfront", "hidden gem",
	// Dates and seasons.
	"spring", "summer", "fall", "winter", "christmas", "halloween",
	"thanksgiving", "easter", "valentines", "new years", "this weekend",
	"tonight", "2026", "2027", "sxsw", "acl",
}

// units are multi-word phrases counted as a single word.
var units = []string{
	"near me", "open now", "open late", "happy hour", "this weekend",
	"things to do", "with a view", "dog friendly", "pet friendly",
	"kid friendly", "family friendly", "date night", "live music",
	"late night", "gluten free",
}

// Estimate returns a 5-95 difficulty estimate for keyword.
//  1. base = round(log10(max(volume,10))*15), capped at 85
//  2. intent: commercial +12 (cap 95), local -15 (floor 10),
//     navigational -20 (floor 5)
//  3. words: 3+ -8, 4+ -10, 5+ -8, 6+ -5 (floor 5 each)
//  4. modifiers: 1 match -10, 2+ a further -5 (floor 5 each)
//  5. clamp to [5, 95]
func Estimate(keyword string, volume int, intent model.Intent) int {
	kw := textmatch.Normalize(keyword)

	d := int(math.Round(math.Log10(float64(max(volume, 10))) * 15))
	d = min(d, baseCap)

	switch intent {
	case model.IntentCommercial:
		d = min(d+12, MaxDifficulty)
	case model.IntentLocal:
		d = max(d-15, 10)
	case model.IntentNavigational:
		d = max(d-20, MinDifficulty)
	}

	words := WordCount(kw)
	for _, step := range []struct{ words, discount int }{
		{3, 8}, {4, 10}, {5, 8}, {6, 5},
	} {
		if words >= step.words {
			d = max(d-step.discount, MinDifficulty)
		}
	}

	switch n := textmatch.CountPhrases(kw, Modifiers); {
	case n >= 2:
		d = max(d-10, MinDifficulty)
		d = max(d-5, MinDifficulty)
	case n == 1:
		d = max(d-10, MinDifficulty)
	}

	return clamp(d, MinDifficulty, MaxDifficulty)
}

// WordCount counts the words of a normalized keyword, treating each known
// multi-word unit ("near me", "happy hour") as one word.
func WordCount(kw string) int {
	padded := " " + kw + " "
	for _, u := range units {
		padded = strings.ReplaceAll(padded, " "+u+" ", " "+strings.ReplaceAll(u, " ", "_")+" ")
	}
	return len(strings.Fields(padded))
}

func clamp(v, lo, hi int) int {
	return max(lo, min(v, hi))
}
