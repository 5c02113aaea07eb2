// Package geo decides whether a keyword belongs to the Austin metro area.
package geo

import (
	"strings"

	"github.com/sells-group/radar/internal/textmatch"
)

// DominantToken is the geography token every expanded suggestion must keep.
const DominantToken = "austin"

// allowList holds Austin neighborhoods, landmarks, nearby towns and regional
// phenomena. Matching is plain substring containment.
var allowList = []string{
	"austin", "atx",
	// Neighborhoods and districts.
	"south congress", "soco", "east side", "eastside", "zilker", "hyde park",
	"mueller", "rainey street", "6th street", "sixth street", "south lamar",
	"north loop", "clarksville", "bouldin", "tarrytown", "cherrywood",
	"travis heights", "domain northside", "the domain", "east cesar chavez",
	"st. elmo", "st elmo", "crestview", "allandale", "windsor park",
	// Landmarks.
	"barton springs", "barton creek", "lady bird lake", "town lake",
	"mount bonnell", "mt bonnell", "lake travis", "lake austin", "pennybacker",
	"texas capitol", "congress avenue bridge", "umlauf", "mckinney falls",
	"hamilton pool", "pedernales falls", "enchanted rock",
	// Surrounding towns and county.
	"travis county", "williamson county", "hays county", "round rock",
	"cedar park", "pflugerville", "georgetown tx", "leander", "lakeway",
	"dripping springs", "bee cave", "manor tx", "kyle tx", "buda tx",
	"san marcos", "wimberley", "bastrop", "hutto", "hill country",
	// Regional phenomena.
	"cedar fever", "mountain cedar", "cedar pollen",
}

// denyList holds well-known other locations. A deny hit always wins.
var denyList = []string{
	"austin mn", "austin minnesota", "austin, mn", "austin, minnesota",
	"austin indiana", "austin, in", "austin nv", "austin pa",
	"dallas", "fort worth", "houston", "san antonio", "el paso", "waco",
	"corpus christi", "lubbock", "new york", "nyc", "chicago",
	"los angeles", "san francisco", "seattle", "denver", "portland",
	"nashville", "atlanta", "miami", "phoenix", "boston", "las vegas",
	"new orleans", "minnesota", "california", "florida", "colorado",
	"oklahoma", "london", "toronto",
}

// Filter is an allow/deny substring classifier.
type Filter struct {
	allow []string
	deny  []string
}

// NewFilter builds a Filter from the given lists. Entries are lower-cased;
// blank entries are dropped.
func NewFilter(allow, deny []string) *Filter {
	return &Filter{allow: clean(allow), deny: clean(deny)}
}

var defaultFilter = NewFilter(allowList, denyList)

// Default returns the built-in Austin filter.
func Default() *Filter {
	return defaultFilter
}

// IsInScope reports whether keyword targets the metro area. Rules:
//   - any deny-list substring: false
//   - any allow-list substring: true
//   - otherwise: false
func (f *Filter) IsInScope(keyword string) bool {
	kw := strings.ToLower(strings.TrimSpace(keyword))
	if kw == "" {
		return false
	}
	if textmatch.ContainsAny(kw, f.deny...) {
		return false
	}
	return textmatch.ContainsAny(kw, f.allow...)
}

// IsInScope applies the default filter.
func IsInScope(keyword string) bool {
	return defaultFilter.IsInScope(keyword)
}

// ContainsDominantToken reports whether s mentions the dominant token.
func ContainsDominantToken(s string) bool {
	return strings.Contains(strings.ToLower(s), DominantToken)
}

func clean(list []string) []string {
	out := make([]string, 0, len(list))
	for _, s := range list {
		s = strings.ToLower(strings.TrimSpace(s))
		if s != "" {
			out = append(out, s)
		}
	}
	return out
}
