package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"
	"text/tabwriter"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"

	"github.com/sells-group/radar/internal/ingest"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [keyword...]",
	Short: "Run an ingestion pass over seed keywords",
	Long: "Loads seeds from the seed file (YAML, CSV or XLSX) or the command line, expands them through autocomplete, " +
		"classifies and scores every in-scope keyword, and persists new keywords while refreshing known ones.",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		seedFile, _ := cmd.Flags().GetString("seeds")
		bucket, _ := cmd.Flags().GetString("bucket")
		volume, _ := cmd.Flags().GetInt("volume")
		noExpand, _ := cmd.Flags().GetBool("no-expand")
		asJSON, _ := cmd.Flags().GetBool("json")

		seeds, err := resolveSeeds(args, seedFile, bucket, volume)
		if err != nil {
			return err
		}
		if len(seeds) == 0 {
			return eris.New("ingest: no seeds (pass keywords or --seeds)")
		}

		env, err := initEnv(ctx, "ingest", cfg.Ingest.Expand && !noExpand)
		if err != nil {
			return err
		}
		defer env.Close()

		sum, err := env.Orchestrator.Run(ctx, seeds)
		if sum != nil {
			if asJSON {
				enc := json.NewEncoder(os.Stdout)
				enc.SetIndent("", "  ")
				_ = enc.Encode(sum)
			} else {
				formatSummary(os.Stdout, sum)
			}
		}
		return err
	},
}

// resolveSeeds prefers command-line keywords over the seed file.
func resolveSeeds(args []string, seedFile, bucket string, volume int) ([]ingest.Seed, error) {
	if len(args) > 0 {
		seeds := make([]ingest.Seed, 0, len(args))
		for _, a := range args {
			seeds = append(seeds, ingest.Seed{Keyword: a, Bucket: bucket, Volume: volume})
		}
		return seeds, nil
	}
	if seedFile == "" {
		seedFile = cfg.Ingest.SeedFile
	}
	return ingest.LoadSeeds(seedFile)
}

// formatSummary writes a run summary as aligned key/value lines.
func formatSummary(out io.Writer, s *ingest.Summary) {
	w := tabwriter.NewWriter(out, 0, 0, 2, ' ', 0)
	_, _ = fmt.Fprintf(w, "Run:\t%s\n", s.RunID)
	_, _ = fmt.Fprintf(w, "Model:\t%s\n", s.ModelVersion)
	_, _ = fmt.Fprintf(w, "Seeded:\t%d\n", s.Seeded)
	_, _ = fmt.Fprintf(w, "Expanded:\t%d\n", s.Expanded)
	_, _ = fmt.Fprintf(w, "Total:\t%d\n", s.Total)
	_, _ = fmt.Fprintf(w, "New:\t%d\n", s.New)
	_, _ = fmt.Fprintf(w, "Refreshed:\t%d\n", s.Refreshed)
	_, _ = fmt.Fprintf(w, "Skipped:\t%d\n", s.Skipped)
	_, _ = fmt.Fprintf(w, "Failed:\t%d\n", s.Failed)
	_, _ = fmt.Fprintf(w, "Duration:\t%s\n", s.Duration.Round(time.Millisecond))
	_ = w.Flush()
}

func init() {
	ingestCmd.Flags().String("seeds", "", "seed file (default from config ingest.seed_file)")
	ingestCmd.Flags().String("bucket", "general", "bucket for keywords given as arguments")
	ingestCmd.Flags().Int("volume", 0, "monthly volume for keywords given as arguments")
	ingestCmd.Flags().Bool("no-expand", false, "skip autocomplete expansion")
	ingestCmd.Flags().Bool("json", false, "print the summary as JSON")
	rootCmd.AddCommand(ingestCmd)
}
