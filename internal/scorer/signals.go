package scorer

import (
	"github.com/sells-group/radar/internal/model"
	"github.com/sells-group/radar/internal/textmatch"
)

// SubtypeFit rewards page kinds the site does well and penalizes utility
// queries that rarely convert into readers.
var SubtypeFit = map[model.Subtype]float64{
	model.SubtypeGuide:    0.15,
	model.SubtypeMap:      0.12,
	model.SubtypeSeasonal: 0.10,
	model.SubtypeEvent:    0.10,
	model.SubtypeNearMe:   0.08,
	model.SubtypeHours:    -0.10,
	model.SubtypeMenu:     -0.15,
	model.SubtypePDF:      -0.20,
	model.SubtypePhone:    -0.25,
	model.SubtypeJob:      -0.30,
}

// LocalSignal is one fine-grained local-intent phrase group. A signal listed
// in another's SubsumedBy does not count when that parent also matched.
type LocalSignal struct {
	ID         string
	Phrases    []string
	Weight     float64
	SubsumedBy []string
}

// LocalSignals feeds LocalBoost.
var LocalSignals = []LocalSignal{
	{ID: "near_me", Phrases: []string{"near me"}, Weight: 0.15},
	{ID: "nearby", Phrases: []string{"nearby", "closest"}, Weight: 0.10},
	{ID: "near", Phrases: []string{"near"}, Weight: 0.05, SubsumedBy: []string{"near_me"}},
	{ID: "open_now", Phrases: []string{"open now"}, Weight: 0.12},
	{ID: "open_today", Phrases: []string{"open today"}, Weight: 0.08},
	{ID: "today", Phrases: []string{"today"}, Weight: 0.04, SubsumedBy: []string{"open_today"}},
	{ID: "open_late", Phrases: []string{"open late"}, Weight: 0.08},
	{ID: "late_night", Phrases: []string{"late night"}, Weight: 0.07},
	{ID: "happy_hour", Phrases: []string{"happy hour", "happy hours"}, Weight: 0.12},
	{ID: "hours", Phrases: []string{"hours", "hour"}, Weight: 0.05, SubsumedBy: []string{"happy_hour"}},
	{ID: "this_weekend", Phrases: []string{"this weekend"}, Weight: 0.10},
	{ID: "weekend", Phrases: []string{"weekend"}, Weight: 0.04, SubsumedBy: []string{"this_weekend"}},
	{ID: "tonight", Phrases: []string{"tonight"}, Weight: 0.08},
	{ID: "reservations", Phrases: []string{"reservations", "reservation"}, Weight: 0.08},
	{ID: "delivery", Phrases: []string{"delivery", "takeout", "take out"}, Weight: 0.05},
	{ID: "patio", Phrases: []string{"patio", "patios", "outdoor seating"}, Weight: 0.07},
	{ID: "dog_friendly", Phrases: []string{"dog friendly", "pet friendly"}, Weight: 0.08},
	{ID: "kid_friendly", Phrases: []string{"kid friendly", "family friendly"}, Weight: 0.07},
	{ID: "view", Phrases: []string{"with a view", "rooftop"}, Weight: 0.08},
	{ID: "live_music", Phrases: []string{"live music"}, Weight: 0.08},
	{ID: "parking", Phrases: []string{"parking"}, Weight: 0.04},
	{ID: "walkable", Phrases: []string{"walking distance", "walkable"}, Weight: 0.05},
	{ID: "downtown", Phrases: []string{"downtown"}, Weight: 0.05},
}

// HeadTerms are bare category phrases presumed to be maximally competitive.
var HeadTerms = []string{
	"restaurants", "bars", "things to do", "coffee", "coffee shops", "tacos",
	"bbq", "barbecue", "hotels", "pizza", "parks", "events", "weather",
	"pollen", "food", "concerts", "hiking", "apartments", "shopping",
}

// HeadModifiers rescue a head term from the penalty: any one of them makes
// the keyword a long-tail variant.
var HeadModifiers = []string{
	// Geography below the metro level.
	"downtown", "east austin", "east side", "south austin", "north austin",
	"west austin", "south congress", "soco", "zilker", "hyde park", "mueller",
	"rainey street", "6th street", "south lamar", "north loop", "the domain",
	"round rock", "cedar park", "pflugerville", "lake travis", "barton springs",
	"near me", "nearby",
	// Cuisine and diet.
	"mexican", "tex-mex", "tex mex", "thai", "vietnamese", "indian", "italian",
	"japanese", "sushi", "ramen", "korean", "chinese", "breakfast tacos",
	"vegan", "vegetarian", "gluten free", "halal", "keto",
	// Audience.
	"kids", "kid friendly", "family", "family friendly", "dog friendly",
	"pet friendly", "date night", "couples", "groups", "students", "seniors",
	// Ambience.
	"rooftop", "patio", "outdoor", "romantic", "quiet", "live music",
	"with a view", "waterfront", "hidden gem", "cheap", "free", "luxury",
	// Time.
	"breakfast", "brunch", "lunch", "dinner", "late night", "open now",
	"open late", "tonight", "today", "this weekend", "sunday", "saturday",
	"2026", "2027",
	// Season.
	"spring", "summer", "fall", "winter", "christmas", "halloween",
	"thanksgiving", "sxsw", "acl",
	// Query refinements.
	"forecast", "count", "level", "levels", "map", "hours", "guide", "history",
	"symptoms", "calendar", "for kids",
}

// LocalBoost sums the weights of matched local signals, skipping subsumed
// ones, and caps the total at ceiling.
func LocalBoost(keyword string, ceiling float64) float64 {
	kw := textmatch.Normalize(keyword)

	matched := make(map[string]bool, len(LocalSignals))
	for _, s := range LocalSignals {
		if _, ok := textmatch.FirstPhrase(kw, s.Phrases); ok {
			matched[s.ID] = true
		}
	}

	var sum float64
	for _, s := range LocalSignals {
		if !matched[s.ID] || subsumed(s, matched) {
			continue
		}
		sum += s.Weight
	}
	return min(sum, ceiling)
}

func subsumed(s LocalSignal, matched map[string]bool) bool {
	for _, parent := range s.SubsumedBy {
		if matched[parent] {
			return true
		}
	}
	return false
}

// FitAdjustment sums the subtype fit weights.
func FitAdjustment(subtypes []model.Subtype) float64 {
	var sum float64
	for _, s := range subtypes {
		sum += SubtypeFit[s]
	}
	return sum
}

// HeadPenalty returns penalty when keyword contains a head term and none of
// the head modifiers, and 0 otherwise.
func HeadPenalty(keyword string, penalty float64) float64 {
	kw := textmatch.Normalize(keyword)
	if _, ok := textmatch.FirstPhrase(kw, HeadTerms); !ok {
		return 0
	}
	if _, ok := textmatch.FirstPhrase(kw, HeadModifiers); ok {
		return 0
	}
	return penalty
}
