package model

import (
	"strings"
	"time"

	"golang.org/x/text/cases"
)

// Intent is the presumed goal of the searcher.
type Intent string

const (
	IntentCommercial    Intent = "commercial"
	IntentInformational Intent = "informational"
	IntentLocal         Intent = "local"
	IntentNavigational  Intent = "navigational"
)

// Valid reports whether i is one of the known intents.
func (i Intent) Valid() bool {
	switch i {
	case IntentCommercial, IntentInformational, IntentLocal, IntentNavigational:
		return true
	}
	return false
}

// Subtype is a structural tag describing what kind of page satisfies a query.
type Subtype string

const (
	SubtypeMap      Subtype = "MAP"
	SubtypeHours    Subtype = "HOURS"
	SubtypeEvent    Subtype = "EVENT"
	SubtypeSeasonal Subtype = "SEASONAL"
	SubtypeGuide    Subtype = "GUIDE"
	SubtypeNearMe   Subtype = "NEAR_ME"
	SubtypeMenu     Subtype = "MENU"
	SubtypePhone    Subtype = "PHONE"
	SubtypeJob      Subtype = "JOB"
	SubtypePDF      Subtype = "PDF"
)

// DifficultySource records where a difficulty value came from.
type DifficultySource string

const (
	DifficultyEstimated DifficultySource = "estimated"
	DifficultyAPI       DifficultySource = "api"
)

// Confidence grades an estimated difficulty.
type Confidence string

const (
	ConfidenceHigh   Confidence = "high"
	ConfidenceMedium Confidence = "medium"
	ConfidenceLow    Confidence = "low"
)

// DiscoverySource records how a keyword first entered the store.
type DiscoverySource string

const (
	SourceSeed   DiscoverySource = "seed"
	SourceSuffix DiscoverySource = "suffix"
	SourceAlpha  DiscoverySource = "alpha"
)

// Keyword is a candidate search phrase and everything Radar knows about it.
type Keyword struct {
	Keyword              string           `json:"keyword"`
	Bucket               string           `json:"bucket"`
	MonthlyVolume        int              `json:"monthly_volume"`
	Intent               Intent           `json:"intent"`
	Subtypes             []Subtype        `json:"subtypes"`
	Difficulty           int              `json:"difficulty"`
	DifficultySource     DifficultySource `json:"difficulty_source"`
	DifficultyConfidence Confidence       `json:"difficulty_confidence"`
	DifficultyAnomaly    *string          `json:"difficulty_anomaly,omitempty"`
	CompositeScore       int              `json:"composite_score"`
	StrategicScore       int              `json:"strategic_score"`
	OpportunityScore     int              `json:"opportunity_score"`
	MatchedApp           *string          `json:"matched_app,omitempty"`
	MatchedURL           *string          `json:"matched_url,omitempty"`
	SuggestedTitle       *string          `json:"suggested_title,omitempty"`
	SuggestedLinks       []string         `json:"suggested_internal_links,omitempty"`
	DiscoverySource      DiscoverySource  `json:"discovery_source"`
	ModelVersion         string           `json:"model_version"`
	FirstSeen            time.Time        `json:"first_seen"`
	LastSeen             time.Time        `json:"last_seen"`
}

// IsGap reports whether no existing content serves the keyword.
func (k *Keyword) IsGap() bool {
	return k.MatchedApp == nil
}

// HasSubtype reports whether the keyword carries tag s.
func (k *Keyword) HasSubtype(s Subtype) bool {
	for _, t := range k.Subtypes {
		if t == s {
			return true
		}
	}
	return false
}

// NormalizeKeyword case-folds s and collapses internal whitespace. The result
// is the storage key for a keyword.
func NormalizeKeyword(s string) string {
	// Casers carry state; build one per call.
	return strings.Join(strings.Fields(cases.Fold().String(s)), " ")
}

// StringPtr returns a pointer to s, or nil when s is empty.
func StringPtr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
