package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/radar/internal/export"
	"github.com/sells-group/radar/internal/model"
	"github.com/sells-group/radar/internal/store"
)

var keywordsCmd = &cobra.Command{
	Use:   "keywords",
	Short: "Browse and export stored keywords",
}

// -- keywords list --

var keywordsListCmd = &cobra.Command{
	Use:   "list",
	Short: "List stored keywords by score",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		filter, err := listFilterFromFlags(cmd)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ks, err := st.List(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "keywords list")
		}
		if len(ks) == 0 {
			fmt.Fprintln(os.Stderr, "No keywords found.")
			return nil
		}

		formatKeywordList(os.Stdout, ks)
		return nil
	},
}

// -- keywords export --

var keywordsExportCmd = &cobra.Command{
	Use:   "export",
	Short: "Export stored keywords as CSV or XLSX",
	RunE: func(cmd *cobra.Command, _ []string) error {
		ctx := cmd.Context()

		formatFlag, _ := cmd.Flags().GetString("format")
		outPath, _ := cmd.Flags().GetString("out")
		format, err := export.ParseFormat(formatFlag)
		if err != nil {
			return err
		}
		filter, err := listFilterFromFlags(cmd)
		if err != nil {
			return err
		}

		st, err := openStore(ctx)
		if err != nil {
			return err
		}
		defer st.Close() //nolint:errcheck

		ks, err := st.List(ctx, filter)
		if err != nil {
			return eris.Wrap(err, "keywords export")
		}

		var w io.Writer = os.Stdout
		if outPath != "" && outPath != "-" {
			f, err := os.Create(outPath)
			if err != nil {
				return eris.Wrap(err, "keywords export: create file")
			}
			defer f.Close() //nolint:errcheck
			w = f
		}

		if err := export.Write(w, format, ks); err != nil {
			return err
		}
		if outPath != "" && outPath != "-" {
			fmt.Fprintf(os.Stderr, "Exported %d keywords to %s\n", len(ks), outPath)
		}
		return nil
	},
}

// listFilterFromFlags reads the shared listing flags.
func listFilterFromFlags(cmd *cobra.Command) (store.ListFilter, error) {
	bucket, _ := cmd.Flags().GetString("bucket")
	intent, _ := cmd.Flags().GetString("intent")
	prefix, _ := cmd.Flags().GetString("prefix")
	sortBy, _ := cmd.Flags().GetString("sort")
	minScore, _ := cmd.Flags().GetInt("min-score")
	maxScore, _ := cmd.Flags().GetInt("max-score")
	gaps, _ := cmd.Flags().GetBool("gaps")
	limit, _ := cmd.Flags().GetInt("limit")
	offset, _ := cmd.Flags().GetInt("offset")

	f := store.ListFilter{
		Bucket:   bucket,
		Prefix:   prefix,
		MinScore: minScore,
		MaxScore: maxScore,
		GapOnly:  gaps,
		Limit:    limit,
		Offset:   offset,
	}
	return validateListFilter(f, intent, sortBy)
}

// validateListFilter applies the intent and sort names to f, normalizes the
// prefix and checks the score bounds.
func validateListFilter(f store.ListFilter, intent, sortBy string) (store.ListFilter, error) {
	f.Intent = model.Intent(strings.ToLower(intent))
	f.SortBy = store.ScoreField(strings.ToLower(sortBy))
	f.Prefix = model.NormalizeKeyword(f.Prefix)

	if f.Intent != "" && !f.Intent.Valid() {
		return f, eris.Errorf("unknown intent %q", intent)
	}
	switch f.SortBy {
	case "", store.ScoreStrategic, store.ScoreOpportunity, store.ScoreComposite:
	default:
		return f, eris.Errorf("unknown sort %q (want strategic, opportunity or composite)", sortBy)
	}
	if f.MinScore < 0 || f.MaxScore < 0 || f.MinScore > 100 || f.MaxScore > 100 {
		return f, eris.New("scores must be between 0 and 100")
	}
	if f.Limit < 0 || f.Offset < 0 {
		return f, eris.New("limit and offset must be >= 0")
	}
	return f, nil
}

func addListFlags(cmd *cobra.Command, defaultLimit int) {
	cmd.Flags().String("bucket", "", "filter by bucket")
	cmd.Flags().String("intent", "", "filter by intent (commercial, informational, local, navigational)")
	cmd.Flags().String("prefix", "", "filter by keyword prefix")
	cmd.Flags().String("sort", "strategic", "score to sort and filter on (strategic, opportunity, composite)")
	cmd.Flags().Int("min-score", 0, "minimum score")
	cmd.Flags().Int("max-score", 0, "maximum score (0 = no limit)")
	cmd.Flags().Bool("gaps", false, "only keywords with no existing content")
	cmd.Flags().Int("limit", defaultLimit, "max number of keywords")
	cmd.Flags().Int("offset", 0, "skip this many keywords")
}

// formatKeywordList writes a tabular keyword listing to out.
func formatKeywordList(out io.Writer, ks []model.Keyword) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintln(w, "KEYWORD\tBUCKET\tVOLUME\tINTENT\tDIFF\tSTRAT\tOPP\tCOMP\tCOVERAGE")
	for _, k := range ks {
		cov := "gap"
		if k.MatchedApp != nil {
			cov = *k.MatchedApp
		}
		_, _ = fmt.Fprintf(w, "%s\t%s\t%d\t%s\t%d\t%d\t%d\t%d\t%s\n",
			k.Keyword, k.Bucket, k.MonthlyVolume, k.Intent, k.Difficulty,
			k.StrategicScore, k.OpportunityScore, k.CompositeScore, cov,
		)
	}
	_ = w.Flush()
}

func init() {
	addListFlags(keywordsListCmd, 50)
	addListFlags(keywordsExportCmd, 10000)
	keywordsExportCmd.Flags().String("format", "csv", "output format (csv, xlsx)")
	keywordsExportCmd.Flags().String("out", "-", "output file (- for stdout)")

	keywordsCmd.AddCommand(keywordsListCmd)
	keywordsCmd.AddCommand(keywordsExportCmd)
	rootCmd.AddCommand(keywordsCmd)
}
