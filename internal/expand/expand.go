// Package expand discovers candidate keywords from a seed through an
// autocomplete provider.
package expand

import (
	"context"
	"strconv"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"
	"golang.org/x/time/rate"

	"github.com/sells-group/radar/internal/geo"
	"github.com/sells-group/radar/internal/model"
	"github.com/sells-group/radar/pkg/suggest"
)

// DefaultBatchSize is the number of provider requests in flight at once.
const DefaultBatchSize = 5

// baseSuffixes are appended to the seed for suffix expansion. The current
// year is added at query time.
var baseSuffixes = []string{
	"near me",
	"this weekend",
	"today",
	"tonight",
	"guide",
	"best",
	"map",
	"hours",
	"events",
	"free",
}

// DefaultSuffixes returns the suffix list for the given year.
func DefaultSuffixes(year int) []string {
	out := make([]string, 0, len(baseSuffixes)+1)
	out = append(out, baseSuffixes...)
	return append(out, strconv.Itoa(year))
}

// Discovery is a keyword surfaced by expansion.
type Discovery struct {
	Keyword string                `json:"keyword"`
	Source  model.DiscoverySource `json:"source"`
}

// Options configures an Expander. The limiter and batch width are owned by
// the caller so several expanders can share one provider budget.
type Options struct {
	// BatchSize bounds concurrent requests. Default: DefaultBatchSize.
	BatchSize int
	// Limiter paces requests. Nil means unpaced.
	Limiter *rate.Limiter
	// Suffixes overrides DefaultSuffixes.
	Suffixes []string
	// SkipAlpha disables the a–z sweep.
	SkipAlpha bool
	// Now supplies the clock for the year suffix. Default: time.Now.
	Now func() time.Time
}

// Expander runs suffix and alpha-sweep expansion for seeds.
type Expander struct {
	client suggest.Client
	opts   Options
}

// New creates an Expander.
func New(client suggest.Client, opts Options) *Expander {
	if opts.BatchSize <= 0 {
		opts.BatchSize = DefaultBatchSize
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	return &Expander{client: client, opts: opts}
}

type query struct {
	text   string
	source model.DiscoverySource
}

// Queries returns the provider queries for seed in execution order: the
// bare seed and each suffix, then the seed followed by each letter.
func (e *Expander) Queries(seed string) []string {
	qs := e.plan(model.NormalizeKeyword(seed))
	out := make([]string, len(qs))
	for i, q := range qs {
		out[i] = q.text
	}
	return out
}

func (e *Expander) plan(seed string) []query {
	suffixes := e.opts.Suffixes
	if suffixes == nil {
		suffixes = DefaultSuffixes(e.opts.Now().Year())
	}

	qs := make([]query, 0, 1+len(suffixes)+26)
	qs = append(qs, query{text: seed, source: model.SourceSuffix})
	for _, s := range suffixes {
		qs = append(qs, query{text: seed + " " + s, source: model.SourceSuffix})
	}
	if !e.opts.SkipAlpha {
		for c := 'a'; c <= 'z'; c++ {
			qs = append(qs, query{text: seed + " " + string(c), source: model.SourceAlpha})
		}
	}
	return qs
}

// Expand returns the distinct suggestions for seed, in query order. A
// suggestion found by several queries keeps the source of the first. When
// the seed names the dominant geography, suggestions that drop it are
// discarded. A failed query contributes nothing; Expand fails only when ctx
// ends or every query failed.
func (e *Expander) Expand(ctx context.Context, seed string) ([]Discovery, error) {
	seed = model.NormalizeKeyword(seed)
	if seed == "" {
		return nil, nil
	}
	log := zap.L().With(zap.String("component", "expand"), zap.String("seed", seed))

	qs := e.plan(seed)
	results := make([][]string, len(qs))
	failed := make([]bool, len(qs))

	for start := 0; start < len(qs); start += e.opts.BatchSize {
		end := min(start+e.opts.BatchSize, len(qs))

		g, gctx := errgroup.WithContext(ctx)
		g.SetLimit(e.opts.BatchSize)
		for i := start; i < end; i++ {
			g.Go(func() error {
				if e.opts.Limiter != nil {
					if err := e.opts.Limiter.Wait(gctx); err != nil {
						failed[i] = true
						return nil
					}
				}
				out, err := e.client.Complete(gctx, qs[i].text)
				if err != nil {
					log.Debug("suggest query failed", zap.String("query", qs[i].text), zap.Error(err))
					failed[i] = true
					return nil
				}
				results[i] = out
				return nil
			})
		}
		_ = g.Wait() // workers never return errors

		if err := ctx.Err(); err != nil {
			return nil, eris.Wrapf(err, "expand: %q", seed)
		}
	}

	nFailed := 0
	for _, f := range failed {
		if f {
			nFailed++
		}
	}
	if nFailed == len(qs) {
		return nil, eris.Errorf("expand: all %d queries failed for %q", len(qs), seed)
	}

	out := merge(seed, qs, results)
	log.Debug("expanded seed",
		zap.Int("queries", len(qs)),
		zap.Int("failed", nFailed),
		zap.Int("discovered", len(out)),
	)
	return out, nil
}

func merge(seed string, qs []query, results [][]string) []Discovery {
	requireToken := geo.ContainsDominantToken(seed)
	seen := map[string]bool{seed: true}

	var out []Discovery
	for i, suggestions := range results {
		for _, s := range suggestions {
			kw := model.NormalizeKeyword(s)
			if kw == "" || seen[kw] {
				continue
			}
			if requireToken && !geo.ContainsDominantToken(kw) {
				continue
			}
			seen[kw] = true
			out = append(out, Discovery{Keyword: kw, Source: qs[i].source})
		}
	}
	return out
}
