package store

import (
	"context"
	"errors"
	"testing"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/jackc/pgx/v5"
	"github.com/pashagolub/pgxmock/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/sells-group/radar/internal/model"
)

// newMockPostgresStore creates a PostgresStore backed by pgxmock for unit testing.
func newMockPostgresStore(t *testing.T) (*PostgresStore, pgxmock.PgxPoolIface) {
	t.Helper()
	mock, err := pgxmock.NewPool(pgxmock.QueryMatcherOption(pgxmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { mock.Close() })

	return NewPostgresWithPool(mock, ""), mock
}

func keywordRow(k *model.Keyword) []any {
	return []any{
		k.Keyword, k.Bucket, k.MonthlyVolume, string(k.Intent), `["SEASONAL"]`,
		k.Difficulty, string(k.DifficultySource), string(k.DifficultyConfidence), "floored",
		k.CompositeScore, k.StrategicScore, k.OpportunityScore,
		"pollen", "https://atx.guide/pollen", "Cedar Pollen Guide", `[]`,
		string(k.DiscoverySource), k.ModelVersion, k.FirstSeen, k.LastSeen,
	}
}

func TestPostgresStore_Get(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	k := testKeyword("cedar pollen austin", "weather", 70, 60, "")

	mock.ExpectQuery(`SELECT keyword, bucket, .* FROM keywords WHERE keyword = \$1`).
		WithArgs("cedar pollen austin").
		WillReturnRows(pgxmock.NewRows(keywordColumns).AddRow(keywordRow(k)...))

	got, err := s.Get(context.Background(), "Cedar Pollen Austin")
	require.NoError(t, err)
	assert.Equal(t, "cedar pollen austin", got.Keyword)
	assert.Equal(t, []model.Subtype{model.SubtypeSeasonal}, got.Subtypes)
	require.NotNil(t, got.MatchedApp)
	assert.Equal(t, "pollen", *got.MatchedApp)
	require.NotNil(t, got.DifficultyAnomaly)
	assert.Equal(t, "floored", *got.DifficultyAnomaly)
	assert.Nil(t, got.SuggestedLinks)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetNotFound(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM keywords WHERE keyword = \$1`).
		WithArgs("nothing").
		WillReturnError(pgx.ErrNoRows)

	_, err := s.Get(context.Background(), "nothing")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_GetError(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`FROM keywords WHERE keyword = \$1`).
		WithArgs("austin").
		WillReturnError(errors.New("connection refused"))

	_, err := s.Get(context.Background(), "austin")
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrNotFound)
	assert.Contains(t, err.Error(), "postgres: get keyword")
}

func TestPostgresStore_Insert(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	k := testKeyword("zilker park", "outdoors", 60, 40, "")

	mock.ExpectExec(`INSERT INTO keywords \(keyword, .*\) VALUES \(\$1, .*\$20\) ON CONFLICT \(keyword\) DO NOTHING`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	mock.ExpectExec(`INSERT INTO keywords`).
		WithArgs(pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(),
			pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg(), pgxmock.AnyArg()).
		WillReturnResult(pgxmock.NewResult("INSERT", 0))

	inserted, err := s.Insert(context.Background(), k)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = s.Insert(context.Background(), k)
	require.NoError(t, err)
	assert.False(t, inserted)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_RefreshSeen(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	seen := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectExec(`UPDATE keywords SET monthly_volume = \$1, last_seen = \$2 WHERE keyword = \$3`).
		WithArgs(900, seen, "barton springs").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	mock.ExpectExec(`UPDATE keywords SET monthly_volume`).
		WithArgs(1, seen, "ghost").
		WillReturnResult(pgxmock.NewResult("UPDATE", 0))

	require.NoError(t, s.RefreshSeen(context.Background(), "Barton Springs", 900, seen))
	assert.ErrorIs(t, s.RefreshSeen(context.Background(), "ghost", 1, seen), ErrNotFound)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_BulkRefresh(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	seen := time.Date(2026, time.April, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectBegin()
	mock.ExpectExec(`CREATE TEMP TABLE "_tmp_update_keywords"`).
		WillReturnResult(pgxmock.NewResult("CREATE TABLE", 0))
	mock.ExpectCopyFrom(pgx.Identifier{"_tmp_update_keywords"}, []string{"keyword", "monthly_volume", "last_seen"}).
		WillReturnResult(2)
	mock.ExpectExec(`UPDATE "keywords" SET "monthly_volume"`).
		WillReturnResult(pgxmock.NewResult("UPDATE", 2))
	mock.ExpectCommit()

	n, err := s.BulkRefresh(context.Background(), []Refresh{
		{Keyword: "austin weather", Volume: 1200, SeenAt: seen},
		{Keyword: "austin pollen", Volume: 700, SeenAt: seen},
	})
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)
}

func TestPostgresStore_List(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	k := testKeyword("austin pollen count", "weather", 70, 90, "")

	mock.ExpectQuery(`SELECT keyword, .* FROM keywords WHERE bucket = \$1 AND matched_app IS NULL ORDER BY opportunity_score DESC, keyword ASC LIMIT 25`).
		WithArgs("weather").
		WillReturnRows(pgxmock.NewRows(keywordColumns).AddRow(keywordRow(k)...))

	got, err := s.List(context.Background(), ListFilter{Bucket: "weather", GapOnly: true, SortBy: ScoreOpportunity, Limit: 25})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "austin pollen count", got[0].Keyword)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CountBy(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectQuery(`SELECT intent AS value, COUNT\(\*\) AS n FROM keywords GROUP BY intent ORDER BY n DESC, value ASC`).
		WillReturnRows(pgxmock.NewRows([]string{"value", "n"}).
			AddRow("local", 4).
			AddRow("informational", 2))

	counts, err := s.CountBy(context.Background(), "intent")
	require.NoError(t, err)
	assert.Equal(t, []GroupCount{{Value: "local", Count: 4}, {Value: "informational", Count: 2}}, counts)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_SaveBrief(t *testing.T) {
	s, mock := newMockPostgresStore(t)

	mock.ExpectExec(`UPDATE keywords SET suggested_title = \$1, suggested_links = \$2 WHERE keyword = \$3`).
		WithArgs("Austin Bats Guide", `["https://atx.guide/map"]`, "austin bats").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))

	err := s.SaveBrief(context.Background(), "austin bats", "Austin Bats Guide", []string{"https://atx.guide/map"})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_CreateAndCompleteRun(t *testing.T) {
	s, mock := newMockPostgresStore(t)
	started := time.Date(2026, time.April, 1, 6, 0, 0, 0, time.UTC)
	run := &model.IngestRun{ID: "run-1", Status: model.IngestRunning, ModelVersion: "v", StartedAt: started}

	mock.ExpectExec(`INSERT INTO ingest_runs \(id, status, .*\) VALUES \(\$1, .*\$13\)`).
		WithArgs("run-1", "running", 0, 0, 0, 0, 0, 0, 0, "v", "", started, (*time.Time)(nil)).
		WillReturnResult(pgxmock.NewResult("INSERT", 1))
	require.NoError(t, s.CreateRun(context.Background(), run))

	done := started.Add(time.Minute)
	run.Status = model.IngestComplete
	run.CompletedAt = &done
	mock.ExpectExec(`UPDATE ingest_runs SET status = \$1`).
		WithArgs("complete", 0, 0, 0, 0, 0, 0, 0, "", &done, "run-1").
		WillReturnResult(pgxmock.NewResult("UPDATE", 1))
	require.NoError(t, s.CompleteRun(context.Background(), run))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestPostgresStore_MigrateWithoutURL(t *testing.T) {
	s, _ := newMockPostgresStore(t)

	err := s.Migrate(context.Background())
	require.Error(t, err)
	assert.Contains(t, err.Error(), "no connection string")
}

func TestBuildListQuery(t *testing.T) {
	query, args, err := buildListQuery(ListFilter{
		Intent:   model.IntentLocal,
		Prefix:   "Austin 100%",
		MinScore: 40,
		MaxScore: 90,
		SortBy:   ScoreComposite,
		Offset:   10,
	}, sq.Dollar)
	require.NoError(t, err)
	assert.Contains(t, query, "WHERE intent = $1 AND keyword LIKE $2 AND composite_score >= $3 AND composite_score <= $4")
	assert.Contains(t, query, "ORDER BY composite_score DESC, keyword ASC LIMIT 100 OFFSET 10")
	assert.Equal(t, []any{"local", `austin 100\%%`, 40, 90}, args)
}
