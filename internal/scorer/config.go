// Package scorer computes strategic, opportunity and composite scores for
// candidate keywords.
package scorer

import (
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"

	"github.com/sells-group/radar/internal/config"
)

// ModelVersion identifies the scoring formulas. Bump it whenever a formula or
// default weight changes so historical scores are not compared across versions.
const ModelVersion = "radar-2026.10-r3"

// DefaultScorerConfig returns a config.ScorerConfig with the production weights.
func DefaultScorerConfig() config.ScorerConfig {
	return config.ScorerConfig{
		GeoMultiplier:       1.25,
		LocalBoostCap:       0.45,
		HeadTermPenalty:     0.30,
		MinMultiplier:       0.10,
		HardDifficulty:      60,
		HardExponent:        1.5,
		GapMultiplier:       1.5,
		DefaultBucketWeight: 0.9,
		BucketWeights: map[string]float64{
			"weather":       1.1,
			"outdoors":      1.1,
			"events":        1.05,
			"food":          1.0,
			"neighborhoods": 1.0,
			"nightlife":     0.95,
			"family":        0.95,
			"shopping":      0.85,
			"services":      0.8,
		},
	}
}

// ValidateConfig checks that a ScorerConfig is internally consistent.
func ValidateConfig(c config.ScorerConfig) error {
	var errs []string

	if c.GeoMultiplier <= 0 {
		errs = append(errs, "geo_multiplier must be > 0")
	}
	if c.LocalBoostCap < 0 || c.LocalBoostCap > 1 {
		errs = append(errs, "local_boost_cap must be between 0 and 1")
	}
	if c.HeadTermPenalty < 0 || c.HeadTermPenalty > 1 {
		errs = append(errs, "head_term_penalty must be between 0 and 1")
	}
	if c.MinMultiplier <= 0 {
		errs = append(errs, "min_multiplier must be > 0")
	}
	if c.HardDifficulty < 0 || c.HardDifficulty > 100 {
		errs = append(errs, "hard_difficulty must be between 0 and 100")
	}
	if c.HardExponent < 1 {
		errs = append(errs, "hard_exponent must be >= 1")
	}
	if c.GapMultiplier < 1 {
		errs = append(errs, "gap_multiplier must be >= 1")
	}
	if c.DefaultBucketWeight < 0.8 || c.DefaultBucketWeight > 1.1 {
		errs = append(errs, "default_bucket_weight must be between 0.8 and 1.1")
	}
	for bucket, w := range c.BucketWeights {
		if w < 0.8 || w > 1.1 {
			errs = append(errs, fmt.Sprintf("bucket weight %q must be between 0.8 and 1.1, got %.2f", bucket, w))
		}
	}

	if len(errs) > 0 {
		return eris.Errorf("scorer: config validation failed: %s", strings.Join(errs, "; "))
	}
	return nil
}

// ConfigHash returns a SHA-256 hash of the scoring config for reproducibility.
func ConfigHash(cfg interface{}) string {
	data, err := json.Marshal(cfg)
	if err != nil {
		return ""
	}
	h := sha256.Sum256(data)
	return fmt.Sprintf("%x", h[:16])
}
