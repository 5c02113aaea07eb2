// Package brief drafts advisory content briefs for keywords.
package brief

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"github.com/sells-group/radar/internal/coverage"
	"github.com/sells-group/radar/internal/geo"
	"github.com/sells-group/radar/internal/model"
	"github.com/sells-group/radar/internal/subtype"
)

const (
	maxTitleLen = 60
	maxMetaLen  = 155
	cityName    = "Austin"
)

// Brief is a draft page plan for a keyword.
type Brief struct {
	Keyword         string   `json:"keyword"`
	SuggestedTitle  string   `json:"suggested_title"`
	MetaDescription string   `json:"meta_description"`
	Outline         []string `json:"outline"`
	InternalLinks   []string `json:"internal_links"`
}

// acronyms keep their casing in titles.
var acronyms = map[string]string{
	"atx":  "ATX",
	"tx":   "TX",
	"sxsw": "SXSW",
	"acl":  "ACL",
	"bbq":  "BBQ",
	"ut":   "UT",
	"5k":   "5K",
	"10k":  "10K",
}

// titleSuffixes are tried in order; the first subtype the keyword carries
// picks the suffix.
var titleSuffixes = []struct {
	subtype model.Subtype
	suffix  string
}{
	{model.SubtypeEvent, "Dates, Tickets & Tips"},
	{model.SubtypeHours, "Hours, Location & Tips"},
	{model.SubtypeMenu, "Menu Highlights & Prices"},
	{model.SubtypeMap, "Map & Local Guide"},
	{model.SubtypeSeasonal, "When to Go & What to Expect"},
	{model.SubtypeNearMe, "Top Local Picks"},
	{model.SubtypeGuide, "The Local's Guide"},
}

// outlineSections lists extra sections per subtype, in canonical order.
var outlineSections = map[model.Subtype][]string{
	model.SubtypeMap:      {"Map and neighborhoods"},
	model.SubtypeHours:    {"Hours and holiday schedules"},
	model.SubtypeEvent:    {"Dates and schedule", "Tickets and admission"},
	model.SubtypeSeasonal: {"Best time of year", "Month-by-month outlook"},
	model.SubtypeGuide:    {"Local tips"},
	model.SubtypeNearMe:   {"Top picks by neighborhood"},
	model.SubtypeMenu:     {"Menu highlights"},
	model.SubtypePhone:    {"Contact details"},
	model.SubtypeJob:      {"Hiring and openings"},
	model.SubtypePDF:      {"Printable version"},
}

// Generate drafts a brief from a keyword record. Only the keyword, intent,
// subtypes and matched URL are read. Records without subtypes are tagged on
// the fly.
func Generate(k model.Keyword) Brief {
	kw := model.NormalizeKeyword(k.Keyword)
	subtypes := k.Subtypes
	if len(subtypes) == 0 {
		subtypes = subtype.Tag(kw)
	}

	return Brief{
		Keyword:         kw,
		SuggestedTitle:  title(kw, subtypes),
		MetaDescription: meta(kw, k.Intent),
		Outline:         outline(kw, k.Intent, subtypes),
		InternalLinks:   links(kw, k.MatchedURL),
	}
}

func title(kw string, subtypes []model.Subtype) string {
	head := titleCase(kw)
	if !geo.ContainsDominantToken(kw) {
		head += " in " + cityName
	}

	suffix := "Local Guide"
	for _, ts := range titleSuffixes {
		if containsSubtype(subtypes, ts.subtype) {
			suffix = ts.suffix
			break
		}
	}

	full := head + ": " + suffix
	if len(full) <= maxTitleLen {
		return full
	}
	return truncate(head, maxTitleLen)
}

func meta(kw string, intent model.Intent) string {
	var s string
	switch intent {
	case model.IntentLocal:
		s = fmt.Sprintf("Looking for %s? Find addresses, hours and local tips from people who live in %s.", kw, cityName)
	case model.IntentCommercial:
		s = fmt.Sprintf("Compare the best options for %s with honest picks, prices and neighborhood notes for %s.", kw, cityName)
	case model.IntentNavigational:
		s = fmt.Sprintf("Everything you need to reach %s: directions, parking and what to know before you go.", kw)
	default:
		s = fmt.Sprintf("A clear, local answer to %s, with context, timing and tips for %s residents and visitors.", kw, cityName)
	}
	return truncate(s, maxMetaLen)
}

func outline(kw string, intent model.Intent, subtypes []model.Subtype) []string {
	out := []string{"What to know about " + kw}
	switch intent {
	case model.IntentCommercial:
		out = append(out, "Our top picks", "How we chose")
	case model.IntentLocal:
		out = append(out, "Where to go", "Getting there and parking")
	case model.IntentNavigational:
		out = append(out, "Directions and parking")
	}
	for _, st := range subtypes {
		out = append(out, outlineSections[st]...)
	}
	return append(out, "Frequently asked questions")
}

func links(kw string, matchedURL *string) []string {
	var out []string
	seen := map[string]bool{}
	add := func(u string) {
		if u == "" || seen[u] || len(out) == coverage.MaxInternalLinks {
			return
		}
		seen[u] = true
		out = append(out, u)
	}

	if matchedURL != nil {
		add(*matchedURL)
	}
	for _, u := range coverage.SuggestInternalLinks(kw) {
		add(u)
	}
	return out
}

func titleCase(kw string) string {
	words := strings.Fields(cases.Title(language.AmericanEnglish).String(kw))
	for i, w := range words {
		if a, ok := acronyms[strings.ToLower(w)]; ok {
			words[i] = a
		}
	}
	return strings.Join(words, " ")
}

func containsSubtype(list []model.Subtype, s model.Subtype) bool {
	for _, t := range list {
		if t == s {
			return true
		}
	}
	return false
}

const ellipsis = "…"

// truncate cuts s to at most n bytes, preferring a word boundary, and marks
// the cut with an ellipsis.
func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	end := n - len(ellipsis)
	for end > 0 && !utf8.RuneStart(s[end]) {
		end--
	}
	cut := s[:end]
	if i := strings.LastIndex(cut, " "); i > 0 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " ,:;") + ellipsis
}
