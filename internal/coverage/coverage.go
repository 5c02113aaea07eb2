// Package coverage matches keywords to the site's existing sections.
package coverage

import (
	"github.com/sells-group/radar/internal/textmatch"
)

// Site identifies the content domain the tables point into.
const (
	SiteDomain = "atx.guide"
	SiteRoot   = "https://atx.guide/"
)

// MaxInternalLinks caps SuggestInternalLinks.
const MaxInternalLinks = 3

// Match is an existing sub-application that already serves a keyword.
type Match struct {
	App    string `json:"app"`
	Domain string `json:"domain"`
	URL    string `json:"url"`
}

// App is one entry of the coverage table.
type App struct {
	Name     string
	Path     string
	Patterns []string
}

// Apps is evaluated in order; the first app with a matching pattern wins.
var Apps = []App{
	{"pollen", "/pollen", []string{
		"pollen", "cedar fever", "mountain cedar", "allergy", "allergies", "ragweed",
	}},
	{"weather", "/weather", []string{
		"weather", "forecast", "rain", "heat index", "freeze", "storm", "flood",
	}},
	{"wildflowers", "/wildflowers", []string{
		"bluebonnet", "bluebonnets", "wildflower", "wildflowers",
	}},
	{"spots", "/map", []string{
		"swimming hole", "swimming holes", "swim spot", "swim spots", "springs",
		"splash pad", "map",
	}},
	{"trails", "/trails", []string{
		"trail", "trails", "hike", "hikes", "hiking", "greenbelt", "bike path",
	}},
	{"events", "/events", []string{
		"events", "event", "festival", "concert", "concerts", "this weekend",
		"sxsw", "acl",
	}},
	{"food", "/food", []string{
		"tacos", "taco", "bbq", "barbecue", "brunch", "restaurants",
		"food truck", "food trucks",
	}},
}

// Section is one entry of the internal-link table.
type Section struct {
	Path     string
	Patterns []string
}

// Sections is broader than Apps and every matching section contributes.
var Sections = []Section{
	{"/pollen", []string{"pollen", "cedar", "allergy", "allergies", "ragweed", "oak"}},
	{"/weather", []string{"weather", "forecast", "rain", "heat", "freeze", "storm"}},
	{"/map", []string{"swim", "swimming", "springs", "lake", "river", "creek", "map", "park"}},
	{"/trails", []string{"trail", "trails", "hike", "hiking", "greenbelt", "park", "outdoor", "outdoors"}},
	{"/events", []string{"event", "events", "festival", "concert", "weekend", "tonight", "live music", "sxsw", "acl"}},
	{"/food", []string{
		"taco", "tacos", "bbq", "barbecue", "brunch", "restaurant", "restaurants",
		"food", "eat", "coffee", "bar", "bars", "happy hour", "dinner", "lunch", "breakfast",
	}},
	{"/neighborhoods", []string{
		"east austin", "south congress", "downtown", "zilker", "hyde park", "mueller",
		"rainey street", "south lamar", "north loop",
	}},
	{"/wildflowers", []string{"bluebonnet", "bluebonnets", "wildflower", "wildflowers"}},
}

// MatchToExistingContent returns the app serving keyword, or nil for a
// coverage gap.
func MatchToExistingContent(keyword string) *Match {
	kw := textmatch.Normalize(keyword)
	for _, a := range Apps {
		if _, ok := textmatch.FirstPhrase(kw, a.Patterns); ok {
			return &Match{App: a.Name, Domain: SiteDomain, URL: SiteRoot + a.Path[1:]}
		}
	}
	return nil
}

// SuggestInternalLinks returns up to MaxInternalLinks distinct section URLs
// related to keyword, or the site root when nothing matches.
func SuggestInternalLinks(keyword string) []string {
	kw := textmatch.Normalize(keyword)
	var links []string
	for _, s := range Sections {
		if len(links) == MaxInternalLinks {
			break
		}
		if _, ok := textmatch.FirstPhrase(kw, s.Patterns); ok {
			links = append(links, SiteRoot+s.Path[1:])
		}
	}
	if len(links) == 0 {
		return []string{SiteRoot}
	}
	return links
}
