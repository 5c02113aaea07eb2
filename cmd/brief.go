package main

import (
	"context"
	"encoding/json"
	"os"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/sells-group/radar/internal/brief"
	"github.com/sells-group/radar/internal/ingest"
	"github.com/sells-group/radar/internal/model"
	"github.com/sells-group/radar/internal/store"
)

var briefCmd = &cobra.Command{
	Use:   "brief <keyword>",
	Short: "Draft a content brief for a keyword",
	Long:  "Drafts a title, meta description, outline and internal links. Stored keywords use their stored classification; unknown keywords are classified on the fly.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx := cmd.Context()
		save, _ := cmd.Flags().GetBool("save")
		offline, _ := cmd.Flags().GetBool("offline")

		var st store.KeywordStore
		if !offline {
			var err error
			st, err = openStore(ctx)
			if err != nil {
				return err
			}
			defer st.Close() //nolint:errcheck
		}

		b, err := briefFor(ctx, st, args[0], save)
		if err != nil {
			return err
		}

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(b)
	},
}

// briefFor drafts a brief from the stored record, falling back to a fresh
// classification when st is nil or the keyword is unknown. save persists the
// title and links, which requires a stored record.
func briefFor(ctx context.Context, st store.KeywordStore, keyword string, save bool) (brief.Brief, error) {
	kw := model.NormalizeKeyword(keyword)
	if kw == "" {
		return brief.Brief{}, eris.New("brief: keyword is required")
	}

	var k model.Keyword
	stored := false
	if st != nil {
		got, err := st.Get(ctx, kw)
		switch {
		case err == nil:
			k, stored = *got, true
		case eris.Is(err, store.ErrNotFound):
		default:
			return brief.Brief{}, eris.Wrap(err, "brief: lookup")
		}
	}
	if !stored {
		k = ingest.Classify(kw, "", 0)
	}

	b := brief.Generate(k)
	if save {
		if !stored {
			return b, eris.Wrapf(store.ErrNotFound, "brief: cannot save %q", kw)
		}
		if err := st.SaveBrief(ctx, kw, b.SuggestedTitle, b.InternalLinks); err != nil {
			return b, eris.Wrap(err, "brief: save")
		}
		zap.L().Info("brief saved", zap.String("keyword", kw))
	}
	return b, nil
}

func init() {
	briefCmd.Flags().Bool("save", false, "store the suggested title and links on the keyword")
	briefCmd.Flags().Bool("offline", false, "classify on the fly without opening the store")
	rootCmd.AddCommand(briefCmd)
}
