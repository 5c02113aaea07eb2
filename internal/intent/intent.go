// Package intent assigns a searcher-intent category to a keyword.
package intent

import (
	"github.com/sells-group/radar/internal/model"
	"github.com/sells-group/radar/internal/textmatch"
)

// Rule maps an intent to the phrases that trigger it.
type Rule struct {
	Intent  model.Intent
	Signals []string
}

// Rules is evaluated top to bottom; the first rule with a matching signal
// wins. Local and commercial signals are specific enough to pre-empt the
// informational catch-all, and navigational is checked before it too.
var Rules = []Rule{
	{
		Intent: model.IntentLocal,
		Signals: []string{
			// Proximity.
			"near me", "nearby", "near", "closest", "close to", "walking distance",
			"directions to", "open now", "open late", "open today",
			// Sub-areas.
			"downtown", "south congress", "soco", "east austin", "east side",
			"zilker", "rainey street", "6th street", "sixth street", "south lamar",
			"north loop", "hyde park", "mueller", "the domain", "lady bird lake",
			"barton springs",
			// Amenities.
			"with a view", "dog friendly", "pet friendly", "kid friendly",
			"family friendly", "patio", "outdoor seating", "rooftop", "parking",
			"wheelchair accessible", "reservations", "happy hour", "late night",
		},
	},
	{
		Intent: model.IntentCommercial,
		Signals: []string{
			"best", "top", "cheap", "cheapest", "affordable", "luxury", "price",
			"prices", "pricing", "cost", "deals", "deal", "discount", "coupon",
			"vs", "versus", "compare", "comparison", "review", "reviews",
			"rated", "top rated", "worth it", "buy", "for sale", "rent", "rental",
		},
	},
	{
		Intent: model.IntentNavigational,
		Signals: []string{
			"login", "log in", "sign in", "app", "website", "official site",
			"official", "phone number", "contact", "customer service", "address",
			".com", "facebook", "instagram", "yelp", "reddit", "menu",
		},
	},
	{
		Intent: model.IntentInformational,
		Signals: []string{
			"what", "how", "why", "when", "who", "is it", "does", "can you",
			"guide", "history", "facts", "meaning", "tips", "ideas", "list of",
			"forecast", "calendar", "schedule", "symptoms", "count", "level",
			"levels", "today",
		},
	},
}

// Classify returns the intent of keyword. Keywords matching no rule are
// informational.
func Classify(keyword string) model.Intent {
	kw := textmatch.Normalize(keyword)
	for _, r := range Rules {
		if _, ok := textmatch.FirstInflected(kw, r.Signals); ok {
			return r.Intent
		}
	}
	return model.IntentInformational
}
