package brief

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/radar/internal/model"
)

func TestGenerate_Title(t *testing.T) {
	tests := []struct {
		name    string
		keyword string
		want    string
	}{
		{"seasonal suffix", "cedar pollen", "Cedar Pollen in Austin: When to Go & What to Expect"},
		{"acronym kept", "sxsw tickets", "SXSW Tickets in Austin: Dates, Tickets & Tips"},
		{"city already present", "austin bbq near me", "Austin BBQ Near Me: Top Local Picks"},
		{"default suffix", "zilker park", "Zilker Park in Austin: Local Guide"},
		{"event wins over guide", "best events this weekend", "Best Events This Weekend in Austin: Dates, Tickets & Tips"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			b := Generate(model.Keyword{Keyword: tt.keyword})
			assert.Equal(t, tt.want, b.SuggestedTitle)
			assert.LessOrEqual(t, len(b.SuggestedTitle), maxTitleLen)
		})
	}
}

func TestGenerate_LongTitleTruncated(t *testing.T) {
	b := Generate(model.Keyword{
		Keyword: "outdoor brunch patios with live music and dog friendly seating on the east side",
	})
	assert.LessOrEqual(t, len(b.SuggestedTitle), maxTitleLen)
	assert.True(t, strings.HasSuffix(b.SuggestedTitle, ellipsis))
	assert.True(t, strings.HasPrefix(b.SuggestedTitle, "Outdoor Brunch Patios"))
	assert.NotContains(t, b.SuggestedTitle, ":")
}

func TestGenerate_NormalizesKeyword(t *testing.T) {
	b := Generate(model.Keyword{Keyword: "  Cedar   POLLEN "})
	assert.Equal(t, "cedar pollen", b.Keyword)
}

func TestGenerate_Meta(t *testing.T) {
	for _, intent := range []model.Intent{
		model.IntentLocal, model.IntentCommercial, model.IntentNavigational, model.IntentInformational, "",
	} {
		b := Generate(model.Keyword{Keyword: "barton springs pool", Intent: intent})
		assert.Contains(t, b.MetaDescription, "barton springs pool", "intent %q", intent)
		assert.LessOrEqual(t, len(b.MetaDescription), maxMetaLen, "intent %q", intent)
	}

	long := Generate(model.Keyword{
		Keyword: strings.Repeat("very long keyword phrase ", 8),
		Intent:  model.IntentLocal,
	})
	assert.LessOrEqual(t, len(long.MetaDescription), maxMetaLen)
	assert.True(t, strings.HasSuffix(long.MetaDescription, ellipsis))
}

func TestGenerate_Outline(t *testing.T) {
	b := Generate(model.Keyword{Keyword: "tacos near me", Intent: model.IntentLocal})

	require.NotEmpty(t, b.Outline)
	assert.Equal(t, "What to know about tacos near me", b.Outline[0])
	assert.Equal(t, "Frequently asked questions", b.Outline[len(b.Outline)-1])
	assert.Contains(t, b.Outline, "Where to go")
	assert.Contains(t, b.Outline, "Top picks by neighborhood")
}

func TestGenerate_OutlineUsesStoredSubtypes(t *testing.T) {
	b := Generate(model.Keyword{
		Keyword:  "cedar pollen",
		Subtypes: []model.Subtype{model.SubtypePDF},
	})
	assert.Contains(t, b.Outline, "Printable version")
	assert.NotContains(t, b.Outline, "Best time of year")
}

func TestGenerate_Links(t *testing.T) {
	t.Run("matched url first", func(t *testing.T) {
		b := Generate(model.Keyword{
			Keyword:    "cedar pollen",
			MatchedURL: model.StringPtr("https://atx.guide/pollen"),
		})
		assert.Equal(t, []string{"https://atx.guide/pollen"}, b.InternalLinks)
	})

	t.Run("capped", func(t *testing.T) {
		b := Generate(model.Keyword{
			Keyword:    "zilker park",
			MatchedURL: model.StringPtr("https://atx.guide/map"),
		})
		assert.Equal(t, []string{
			"https://atx.guide/map",
			"https://atx.guide/trails",
			"https://atx.guide/neighborhoods",
		}, b.InternalLinks)
	})

	t.Run("site root fallback", func(t *testing.T) {
		b := Generate(model.Keyword{Keyword: "dmv appointment"})
		assert.Equal(t, []string{"https://atx.guide/"}, b.InternalLinks)
	})
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	got := truncate("alpha beta gamma delta", 14)
	assert.Equal(t, "alpha beta…", got)
	assert.LessOrEqual(t, len(got), 14)

	// Multi-byte runes are never split.
	got = truncate("ééééééééé", 8)
	assert.LessOrEqual(t, len(got), 8)
	assert.True(t, strings.HasSuffix(got, ellipsis))
}
