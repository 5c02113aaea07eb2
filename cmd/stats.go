package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/radar/internal/model"
	"github.com/sells-group/radar/internal/store"
)

var statsCmd = &cobra.Command{
	Use:   "stats",
	Short: "Show grouped keyword counts and recent ingestion runs",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()
		by, _ := cmd.Flags().GetString("by")
		runs, _ := cmd.Flags().GetInt("runs")

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		counts, err := st.CountBy(ctx, by)
		if err != nil {
			return eris.Wrap(err, "stats")
		}
		formatCounts(os.Stdout, by, counts)

		if runs > 0 {
			recent, err := st.ListRuns(ctx, runs)
			if err != nil {
				return eris.Wrap(err, "stats: list runs")
			}
			_, _ = fmt.Fprintln(os.Stdout)
			formatRuns(os.Stdout, recent)
		}
		return nil
	},
}

// formatCounts writes grouped counts with a share column and a total row.
func formatCounts(out io.Writer, field string, counts []store.GroupCount) {
	total := 0
	for _, c := range counts {
		total += c.Count
	}

	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "%s\tCOUNT\tSHARE\n", headerName(field))
	for _, c := range counts {
		value := c.Value
		if value == "" {
			value = "(none)"
		}
		share := 0.0
		if total > 0 {
			share = float64(c.Count) / float64(total) * 100
		}
		_, _ = fmt.Fprintf(w, "%s\t%d\t%.1f%%\n", value, c.Count, share)
	}
	_, _ = fmt.Fprintf(w, "TOTAL\t%d\t\n", total)
	_ = w.Flush()
}

// formatRuns writes a tabular list of ingestion runs to out.
func formatRuns(out io.Writer, runs []model.IngestRun) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "RUN\tSTATUS\tSTARTED\tSEEDED\tEXPANDED\tNEW\tREFRESHED\tSKIPPED\tFAILED")
	for _, r := range runs {
		_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%d\t%d\t%d\t%d\n",
			truncateID(r.ID), r.Status, r.StartedAt.UTC().Format("2006-01-02 15:04"),
			r.Seeded, r.Expanded, r.Inserted, r.Refreshed, r.Skipped, r.Failed,
		)
	}
	_ = w.Flush()
}

func headerName(field string) string {
	switch field {
	case "matched_app":
		return "APP"
	case "difficulty_source":
		return "SOURCE"
	case "difficulty_confidence":
		return "CONFIDENCE"
	case "discovery_source":
		return "DISCOVERY"
	case "model_version":
		return "MODEL"
	}
	return strings.ToUpper(field)
}

// truncateID shortens a UUID for display.
func truncateID(id string) string {
	if len(id) > 8 {
		return id[:8]
	}
	return id
}

func init() {
	statsCmd.Flags().String("by", "intent", "field to group by (bucket, intent, difficulty_source, difficulty_confidence, discovery_source, matched_app, model_version)")
	statsCmd.Flags().Int("runs", 5, "number of recent runs to show (0 = none)")
	rootCmd.AddCommand(statsCmd)
}
