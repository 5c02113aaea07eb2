// Package textmatch holds the phrase-containment helpers shared by the
// keyword classifiers.
package textmatch

import "strings"

// Normalize lower-cases s, trims it, and collapses whitespace runs.
func Normalize(s string) string {
	return strings.Join(strings.Fields(strings.ToLower(s)), " ")
}

// ContainsPhrase reports whether phrase occurs in text on token boundaries.
// Both arguments must already be normalized. "app" does not match "happy".
func ContainsPhrase(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	return strings.Contains(" "+text+" ", " "+phrase+" ")
}

// ContainsInflected is ContainsPhrase that also accepts a plural "s" or
// "es" on the phrase's last token: "happy hour" matches "happy hours".
// Matches still start and end on token boundaries.
func ContainsInflected(text, phrase string) bool {
	if phrase == "" {
		return false
	}
	padded := " " + text + " "
	for _, suffix := range []string{"", "s", "es"} {
		if strings.Contains(padded, " "+phrase+suffix+" ") {
			return true
		}
	}
	return false
}

// FirstInflected returns the first phrase found in text by ContainsInflected.
func FirstInflected(text string, phrases []string) (string, bool) {
	for _, p := range phrases {
		if ContainsInflected(text, p) {
			return p, true
		}
	}
	return "", false
}

// FirstPhrase returns the first phrase found in text and true, or "" and
// false when none match.
func FirstPhrase(text string, phrases []string) (string, bool) {
	for _, p := range phrases {
		if ContainsPhrase(text, p) {
			return p, true
		}
	}
	return "", false
}

// CountPhrases returns how many distinct phrases occur in text.
func CountPhrases(text string, phrases []string) int {
	n := 0
	for _, p := range phrases {
		if ContainsPhrase(text, p) {
			n++
		}
	}
	return n
}

// ContainsAny reports whether any of subs is a raw substring of text.
func ContainsAny(text string, subs ...string) bool {
	for _, s := range subs {
		if s != "" && strings.Contains(text, s) {
			return true
		}
	}
	return false
}
