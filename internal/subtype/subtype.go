// Package subtype tags keywords with the kinds of page that would satisfy them.
package subtype

import (
	"regexp"

	"github.com/sells-group/radar/internal/model"
	"github.com/sells-group/radar/internal/textmatch"
)

// Rule maps a subtype to the patterns that trigger it.
type Rule struct {
	Subtype  model.Subtype
	Patterns []*regexp.Regexp
}

// Rules lists every subtype in canonical order.
var Rules = []Rule{
	{model.SubtypeMap, []*regexp.Regexp{
		regexp.MustCompile(`\bmaps?\b`),
		regexp.MustCompile(`\bdirections\b`),
		regexp.MustCompile(`\bwhere is\b`),
		regexp.MustCompile(`\blocations?\b`),
		regexp.MustCompile(`\bhow to get to\b`),
	}},
	{model.SubtypeHours, []*regexp.Regexp{
		regexp.MustCompile(`\bhours\b`),
		regexp.MustCompile(`\bopen (now|today|late|on \w+)\b`),
		regexp.MustCompile(`\bwhat time\b`),
		regexp.MustCompile(`\bclos(e|es|ing) (at|time)\b`),
	}},
	{model.SubtypeEvent, []*regexp.Regexp{
		regexp.MustCompile(`\bevents?\b`),
		regexp.MustCompile(`\bfest(ival)?s?\b`),
		regexp.MustCompile(`\bconcerts?\b`),
		regexp.MustCompile(`\b(this weekend|tonight)\b`),
		regexp.MustCompile(`\b(sxsw|acl|parade|fireworks|rodeo)\b`),
		regexp.MustCompile(`\btickets?\b`),
	}},
	{model.SubtypeSeasonal, []*regexp.Regexp{
		regexp.MustCompile(`\b(spring|summer|fall|autumn|winter)\b`),
		regexp.MustCompile(`\bpollen\b`),
		regexp.MustCompile(`\bcedar fever\b`),
		regexp.MustCompile(`\b(bluebonnets?|wildflowers?)\b`),
		regexp.MustCompile(`\b(christmas|halloween|thanksgiving|holiday)\b`),
	}},
	{model.SubtypeGuide, []*regexp.Regexp{
		regexp.MustCompile(`\bguides?\b`),
		regexp.MustCompile(`\bbest\b`),
		regexp.MustCompile(`\btop \d+\b`),
		regexp.MustCompile(`\bthings to do\b`),
		regexp.MustCompile(`\b(ideas|itinerary|tips)\b`),
		regexp.MustCompile(`\bhow to\b`),
	}},
	{model.SubtypeNearMe, []*regexp.Regexp{
		regexp.MustCompile(`\bnear ?me\b`),
		regexp.MustCompile(`\bnearby\b`),
		regexp.MustCompile(`\bclosest\b`),
	}},
	{model.SubtypeMenu, []*regexp.Regexp{
		regexp.MustCompile(`\bmenus?\b`),
	}},
	{model.SubtypePhone, []*regexp.Regexp{
		regexp.MustCompile(`\bphone( number)?\b`),
		regexp.MustCompile(`\bcontact\b`),
		regexp.MustCompile(`\bcall\b`),
	}},
	{model.SubtypeJob, []*regexp.Regexp{
		regexp.MustCompile(`\bjobs?\b`),
		regexp.MustCompile(`\bhiring\b`),
		regexp.MustCompile(`\bcareers?\b`),
		regexp.MustCompile(`\b(employment|salary|internships?)\b`),
	}},
	{model.SubtypePDF, []*regexp.Regexp{
		regexp.MustCompile(`\bpdf\b`),
		regexp.MustCompile(`\bprintable\b`),
		regexp.MustCompile(`\bdownload\b`),
	}},
}

// Tag returns every subtype whose patterns match keyword, in canonical order.
// An empty result is valid.
func Tag(keyword string) []model.Subtype {
	kw := textmatch.Normalize(keyword)
	var tags []model.Subtype
	for _, r := range Rules {
		for _, p := range r.Patterns {
			if p.MatchString(kw) {
				tags = append(tags, r.Subtype)
				break
			}
		}
	}
	return tags
}
