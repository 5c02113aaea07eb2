package store

import (
	"database/sql"
	"encoding/json"
	"strings"

	sq "github.com/Masterminds/squirrel"
	"github.com/rotisserie/eris"

	"github.com/sells-group/radar/internal/model"
)

const defaultListLimit = 100

var keywordColumns = []string{
	"keyword", "bucket", "monthly_volume", "intent", "subtypes",
	"difficulty", "difficulty_source", "difficulty_confidence", "difficulty_anomaly",
	"composite_score", "strategic_score", "opportunity_score",
	"matched_app", "matched_url", "suggested_title", "suggested_links",
	"discovery_source", "model_version", "first_seen", "last_seen",
}

var runColumns = []string{
	"id", "status", "seeded", "expanded", "total", "inserted", "refreshed",
	"skipped", "failed", "model_version", "error", "started_at", "completed_at",
}

// countColumns lists the fields CountBy may group on.
var countColumns = map[string]string{
	"bucket":                "bucket",
	"intent":                "intent",
	"difficulty_source":     "difficulty_source",
	"difficulty_confidence": "difficulty_confidence",
	"discovery_source":      "discovery_source",
	"matched_app":           "COALESCE(matched_app, '')",
	"model_version":         "model_version",
}

func buildListQuery(f ListFilter, ph sq.PlaceholderFormat) (string, []any, error) {
	scoreCol, err := f.SortBy.column()
	if err != nil {
		return "", nil, err
	}

	q := sq.Select(keywordColumns...).From("keywords").PlaceholderFormat(ph)
	if f.Bucket != "" {
		q = q.Where(sq.Eq{"bucket": f.Bucket})
	}
	if f.Intent != "" {
		q = q.Where(sq.Eq{"intent": string(f.Intent)})
	}
	if f.Prefix != "" {
		q = q.Where(sq.Like{"keyword": escapeLike(model.NormalizeKeyword(f.Prefix)) + "%"})
	}
	if f.MinScore > 0 {
		q = q.Where(sq.GtOrEq{scoreCol: f.MinScore})
	}
	if f.MaxScore > 0 {
		q = q.Where(sq.LtOrEq{scoreCol: f.MaxScore})
	}
	if f.GapOnly {
		q = q.Where(sq.Eq{"matched_app": nil})
	}

	limit := f.Limit
	if limit <= 0 {
		limit = defaultListLimit
	}
	q = q.OrderBy(scoreCol+" DESC", "keyword ASC").Limit(uint64(limit))
	if f.Offset > 0 {
		q = q.Offset(uint64(f.Offset))
	}

	query, args, err := q.ToSql()
	if err != nil {
		return "", nil, eris.Wrap(err, "store: build list query")
	}
	return query, args, nil
}

func buildCountQuery(field string, ph sq.PlaceholderFormat) (string, error) {
	col, ok := countColumns[field]
	if !ok {
		return "", eris.Errorf("store: cannot count by %q", field)
	}
	query, _, err := sq.Select(col+" AS value", "COUNT(*) AS n").
		From("keywords").
		GroupBy(col).
		OrderBy("n DESC", "value ASC").
		PlaceholderFormat(ph).
		ToSql()
	if err != nil {
		return "", eris.Wrap(err, "store: build count query")
	}
	return query, nil
}

func escapeLike(s string) string {
	return strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`).Replace(s)
}

// keywordArgs returns column values in keywordColumns order.
func keywordArgs(k *model.Keyword) ([]any, error) {
	subtypes, err := json.Marshal(nonNilSubtypes(k.Subtypes))
	if err != nil {
		return nil, eris.Wrap(err, "store: marshal subtypes")
	}
	links, err := marshalLinks(k.SuggestedLinks)
	if err != nil {
		return nil, err
	}
	return []any{
		k.Keyword, k.Bucket, k.MonthlyVolume, string(k.Intent), string(subtypes),
		k.Difficulty, string(k.DifficultySource), string(k.DifficultyConfidence), k.DifficultyAnomaly,
		k.CompositeScore, k.StrategicScore, k.OpportunityScore,
		k.MatchedApp, k.MatchedURL, k.SuggestedTitle, links,
		string(k.DiscoverySource), k.ModelVersion, k.FirstSeen, k.LastSeen,
	}, nil
}

type scannable interface {
	Scan(dest ...any) error
}

func scanKeyword(row scannable) (*model.Keyword, error) {
	var (
		k                                      model.Keyword
		intent, source, confidence, discovery  string
		subtypesJSON, linksJSON                string
		anomaly, matchedApp, matchedURL, title sql.NullString
	)
	err := row.Scan(
		&k.Keyword, &k.Bucket, &k.MonthlyVolume, &intent, &subtypesJSON,
		&k.Difficulty, &source, &confidence, &anomaly,
		&k.CompositeScore, &k.StrategicScore, &k.OpportunityScore,
		&matchedApp, &matchedURL, &title, &linksJSON,
		&discovery, &k.ModelVersion, &k.FirstSeen, &k.LastSeen,
	)
	if err != nil {
		return nil, err
	}

	k.Intent = model.Intent(intent)
	k.DifficultySource = model.DifficultySource(source)
	k.DifficultyConfidence = model.Confidence(confidence)
	k.DiscoverySource = model.DiscoverySource(discovery)
	k.DifficultyAnomaly = nullString(anomaly)
	k.MatchedApp = nullString(matchedApp)
	k.MatchedURL = nullString(matchedURL)
	k.SuggestedTitle = nullString(title)

	if err := json.Unmarshal([]byte(subtypesJSON), &k.Subtypes); err != nil {
		return nil, eris.Wrapf(err, "store: unmarshal subtypes for %s", k.Keyword)
	}
	if err := json.Unmarshal([]byte(linksJSON), &k.SuggestedLinks); err != nil {
		return nil, eris.Wrapf(err, "store: unmarshal links for %s", k.Keyword)
	}
	if len(k.Subtypes) == 0 {
		k.Subtypes = nil
	}
	if len(k.SuggestedLinks) == 0 {
		k.SuggestedLinks = nil
	}
	return &k, nil
}

func runArgs(r *model.IngestRun) []any {
	return []any{
		r.ID, string(r.Status), r.Seeded, r.Expanded, r.Total, r.Inserted, r.Refreshed,
		r.Skipped, r.Failed, r.ModelVersion, r.Error, r.StartedAt, r.CompletedAt,
	}
}

func scanRun(row scannable) (*model.IngestRun, error) {
	var (
		r      model.IngestRun
		status string
	)
	err := row.Scan(
		&r.ID, &status, &r.Seeded, &r.Expanded, &r.Total, &r.Inserted, &r.Refreshed,
		&r.Skipped, &r.Failed, &r.ModelVersion, &r.Error, &r.StartedAt, &r.CompletedAt,
	)
	if err != nil {
		return nil, err
	}
	r.Status = model.IngestRunStatus(status)
	return &r, nil
}

func nullString(ns sql.NullString) *string {
	if !ns.Valid {
		return nil
	}
	s := ns.String
	return &s
}

func nonNilSubtypes(s []model.Subtype) []model.Subtype {
	if s == nil {
		return []model.Subtype{}
	}
	return s
}

func marshalLinks(links []string) (string, error) {
	if links == nil {
		links = []string{}
	}
	b, err := json.Marshal(links)
	if err != nil {
		return "", eris.Wrap(err, "store: marshal links")
	}
	return string(b), nil
}

func placeholders(n int, ph sq.PlaceholderFormat) string {
	marks := make([]string, n)
	for i := range marks {
		marks[i] = "?"
	}
	out, _ := ph.ReplacePlaceholders(strings.Join(marks, ", "))
	return out
}
