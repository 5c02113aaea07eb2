package main

import (
	"encoding/json"
	"os"

	"github.com/spf13/cobra"

	"github.com/sells-group/radar/internal/coverage"
	"github.com/sells-group/radar/internal/difficulty"
	"github.com/sells-group/radar/internal/geo"
	"github.com/sells-group/radar/internal/ingest"
	"github.com/sells-group/radar/internal/model"
	"github.com/sells-group/radar/internal/scorer"
	"github.com/sells-group/radar/internal/seasonality"
)

// classification is the classify command's output for one keyword.
type classification struct {
	model.Keyword
	InScope   bool                       `json:"in_scope"`
	Anomalies []difficulty.Anomaly       `json:"anomalies,omitempty"`
	Breakdown *scorer.StrategicBreakdown `json:"strategic_breakdown,omitempty"`
}

var classifyCmd = &cobra.Command{
	Use:   "classify <keyword>...",
	Short: "Classify and score keywords without touching the store",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		bucket, _ := cmd.Flags().GetString("bucket")
		volume, _ := cmd.Flags().GetInt("volume")
		explain, _ := cmd.Flags().GetBool("explain")

		if err := scorer.ValidateConfig(cfg.Scorer); err != nil {
			return err
		}
		sc := scorer.New(cfg.Scorer, nil)
		cls := ingest.NewClassifier(sc, nil, nil)

		out := make([]classification, 0, len(args))
		for _, a := range args {
			out = append(out, classifyOne(cls, sc, a, bucket, volume, explain))
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(out)
	},
}

func classifyOne(cls *ingest.Classifier, sc *scorer.Scorer, keyword, bucket string, volume int, explain bool) classification {
	k := cls.Classify(keyword, bucket, volume)
	c := classification{Keyword: k, InScope: geo.IsInScope(k.Keyword)}

	raw := difficulty.Estimate(k.Keyword, k.MonthlyVolume, k.Intent)
	c.Anomalies = difficulty.Validate(k.Keyword, raw, k.MonthlyVolume, model.DifficultyEstimated).Anomalies

	if explain {
		b := sc.ExplainStrategic(scorer.Input{
			Keyword:     k.Keyword,
			Bucket:      k.Bucket,
			Volume:      k.MonthlyVolume,
			Difficulty:  k.Difficulty,
			Intent:      k.Intent,
			Subtypes:    k.Subtypes,
			Covered:     coverage.MatchToExistingContent(k.Keyword) != nil,
			Seasonality: seasonality.BoostNow(k.Keyword),
		})
		c.Breakdown = &b
	}
	return c
}

func init() {
	classifyCmd.Flags().String("bucket", "general", "topical bucket")
	classifyCmd.Flags().Int("volume", 0, "monthly search volume")
	classifyCmd.Flags().Bool("explain", false, "include the strategic score breakdown")
	rootCmd.AddCommand(classifyCmd)
}
