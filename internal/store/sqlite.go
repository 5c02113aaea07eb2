package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/rotisserie/eris"
	_ "modernc.org/sqlite" // database/sql driver

	"github.com/sells-group/radar/internal/model"
)

// SQLiteStore implements KeywordStore using modernc.org/sqlite.
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLite opens a SQLite database at the given path and configures WAL mode.
func NewSQLite(dsn string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: open")
	}
	for _, pragma := range []string{
		"PRAGMA journal_mode=WAL",
		"PRAGMA busy_timeout=5000",
		"PRAGMA synchronous=NORMAL",
	} {
		if _, err := db.Exec(pragma); err != nil {
			db.Close() //nolint:errcheck
			return nil, eris.Wrapf(err, "sqlite: exec %s", pragma)
		}
	}
	return &SQLiteStore{db: db}, nil
}

const sqliteMigration = `
CREATE TABLE IF NOT EXISTS keywords (
	keyword               TEXT PRIMARY KEY,
	bucket                TEXT NOT NULL,
	monthly_volume        INTEGER NOT NULL DEFAULT 0,
	intent                TEXT NOT NULL,
	subtypes              TEXT NOT NULL DEFAULT '[]',
	difficulty            INTEGER NOT NULL,
	difficulty_source     TEXT NOT NULL,
	difficulty_confidence TEXT NOT NULL,
	difficulty_anomaly    TEXT,
	composite_score       INTEGER NOT NULL DEFAULT 0,
	strategic_score       INTEGER NOT NULL DEFAULT 0,
	opportunity_score     INTEGER NOT NULL DEFAULT 0,
	matched_app           TEXT,
	matched_url           TEXT,
	suggested_title       TEXT,
	suggested_links       TEXT NOT NULL DEFAULT '[]',
	discovery_source      TEXT NOT NULL DEFAULT 'seed',
	model_version         TEXT NOT NULL,
	first_seen            DATETIME NOT NULL,
	last_seen             DATETIME NOT NULL
);

CREATE INDEX IF NOT EXISTS idx_keywords_bucket ON keywords(bucket);
CREATE INDEX IF NOT EXISTS idx_keywords_strategic ON keywords(strategic_score DESC);
CREATE INDEX IF NOT EXISTS idx_keywords_opportunity ON keywords(opportunity_score DESC);

CREATE TABLE IF NOT EXISTS ingest_runs (
	id            TEXT PRIMARY KEY,
	status        TEXT NOT NULL DEFAULT 'running',
	seeded        INTEGER NOT NULL DEFAULT 0,
	expanded      INTEGER NOT NULL DEFAULT 0,
	total         INTEGER NOT NULL DEFAULT 0,
	inserted      INTEGER NOT NULL DEFAULT 0,
	refreshed     INTEGER NOT NULL DEFAULT 0,
	skipped       INTEGER NOT NULL DEFAULT 0,
	failed        INTEGER NOT NULL DEFAULT 0,
	model_version TEXT NOT NULL,
	error         TEXT NOT NULL DEFAULT '',
	started_at    DATETIME NOT NULL,
	completed_at  DATETIME
);

CREATE INDEX IF NOT EXISTS idx_ingest_runs_started ON ingest_runs(started_at DESC);
`

func (s *SQLiteStore) Migrate(ctx context.Context) error {
	_, err := s.db.ExecContext(ctx, sqliteMigration)
	return eris.Wrap(err, "sqlite: migrate")
}

func (s *SQLiteStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.db.PingContext(ctx), "sqlite: ping")
}

func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

var sqliteSelectKeyword = fmt.Sprintf("SELECT %s FROM keywords WHERE keyword = ?", strings.Join(keywordColumns, ", "))

func (s *SQLiteStore) Get(ctx context.Context, keyword string) (*model.Keyword, error) {
	k, err := scanKeyword(s.db.QueryRowContext(ctx, sqliteSelectKeyword, model.NormalizeKeyword(keyword)))
	if errors.Is(err, sql.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: get keyword %q", keyword)
	}
	return k, nil
}

var sqliteInsertKeyword = fmt.Sprintf(
	"INSERT INTO keywords (%s) VALUES (%s) ON CONFLICT (keyword) DO NOTHING",
	strings.Join(keywordColumns, ", "), placeholders(len(keywordColumns), sq.Question),
)

// Insert adds k unless the keyword already exists. It reports whether a row
// was written.
func (s *SQLiteStore) Insert(ctx context.Context, k *model.Keyword) (bool, error) {
	args, err := keywordArgs(k)
	if err != nil {
		return false, err
	}
	res, err := s.db.ExecContext(ctx, sqliteInsertKeyword, args...)
	if err != nil {
		return false, eris.Wrapf(err, "sqlite: insert keyword %q", k.Keyword)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, eris.Wrap(err, "sqlite: rows affected")
	}
	return n == 1, nil
}

const sqliteRefresh = `UPDATE keywords SET monthly_volume = ?, last_seen = ? WHERE keyword = ?`

func (s *SQLiteStore) RefreshSeen(ctx context.Context, keyword string, volume int, seenAt time.Time) error {
	res, err := s.db.ExecContext(ctx, sqliteRefresh, volume, seenAt, model.NormalizeKeyword(keyword))
	if err != nil {
		return eris.Wrapf(err, "sqlite: refresh keyword %q", keyword)
	}
	return checkRowsAffected(res)
}

// BulkRefresh applies refreshes in a single transaction. Unknown keywords
// are ignored.
func (s *SQLiteStore) BulkRefresh(ctx context.Context, refreshes []Refresh) (int64, error) {
	if len(refreshes) == 0 {
		return 0, nil
	}
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: bulk refresh: begin tx")
	}
	defer tx.Rollback() //nolint:errcheck

	stmt, err := tx.PrepareContext(ctx, sqliteRefresh)
	if err != nil {
		return 0, eris.Wrap(err, "sqlite: bulk refresh: prepare")
	}
	defer stmt.Close() //nolint:errcheck

	var total int64
	for _, r := range refreshes {
		res, err := stmt.ExecContext(ctx, r.Volume, r.SeenAt, model.NormalizeKeyword(r.Keyword))
		if err != nil {
			return 0, eris.Wrapf(err, "sqlite: bulk refresh %q", r.Keyword)
		}
		n, err := res.RowsAffected()
		if err != nil {
			return 0, eris.Wrap(err, "sqlite: rows affected")
		}
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, eris.Wrap(err, "sqlite: bulk refresh: commit")
	}
	return total, nil
}

func (s *SQLiteStore) List(ctx context.Context, filter ListFilter) ([]model.Keyword, error) {
	query, args, err := buildListQuery(filter, sq.Question)
	if err != nil {
		return nil, err
	}
	// SQLite has no default LIKE escape character.
	query = strings.Replace(query, "keyword LIKE ?", `keyword LIKE ? ESCAPE '\'`, 1)

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list keywords")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.Keyword
	for rows.Next() {
		k, err := scanKeyword(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan keyword")
		}
		out = append(out, *k)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate keywords")
}

func (s *SQLiteStore) CountBy(ctx context.Context, field string) ([]GroupCount, error) {
	query, err := buildCountQuery(field, sq.Question)
	if err != nil {
		return nil, err
	}
	rows, err := s.db.QueryContext(ctx, query)
	if err != nil {
		return nil, eris.Wrapf(err, "sqlite: count by %s", field)
	}
	defer rows.Close() //nolint:errcheck

	var out []GroupCount
	for rows.Next() {
		var gc GroupCount
		if err := rows.Scan(&gc.Value, &gc.Count); err != nil {
			return nil, eris.Wrap(err, "sqlite: scan count")
		}
		out = append(out, gc)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate counts")
}

func (s *SQLiteStore) SaveBrief(ctx context.Context, keyword, title string, links []string) error {
	linksJSON, err := marshalLinks(links)
	if err != nil {
		return err
	}
	res, err := s.db.ExecContext(ctx,
		`UPDATE keywords SET suggested_title = ?, suggested_links = ? WHERE keyword = ?`,
		title, linksJSON, model.NormalizeKeyword(keyword),
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: save brief %q", keyword)
	}
	return checkRowsAffected(res)
}

var sqliteInsertRun = fmt.Sprintf(
	"INSERT INTO ingest_runs (%s) VALUES (%s)",
	strings.Join(runColumns, ", "), placeholders(len(runColumns), sq.Question),
)

func (s *SQLiteStore) CreateRun(ctx context.Context, run *model.IngestRun) error {
	if _, err := s.db.ExecContext(ctx, sqliteInsertRun, runArgs(run)...); err != nil {
		return eris.Wrapf(err, "sqlite: create run %s", run.ID)
	}
	return nil
}

func (s *SQLiteStore) CompleteRun(ctx context.Context, run *model.IngestRun) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE ingest_runs SET status = ?, seeded = ?, expanded = ?, total = ?, inserted = ?,
			refreshed = ?, skipped = ?, failed = ?, error = ?, completed_at = ? WHERE id = ?`,
		string(run.Status), run.Seeded, run.Expanded, run.Total, run.Inserted,
		run.Refreshed, run.Skipped, run.Failed, run.Error, run.CompletedAt, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "sqlite: complete run %s", run.ID)
	}
	return checkRowsAffected(res)
}

var sqliteListRuns = fmt.Sprintf(
	"SELECT %s FROM ingest_runs ORDER BY started_at DESC LIMIT ?",
	strings.Join(runColumns, ", "),
)

func (s *SQLiteStore) ListRuns(ctx context.Context, limit int) ([]model.IngestRun, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.db.QueryContext(ctx, sqliteListRuns, limit)
	if err != nil {
		return nil, eris.Wrap(err, "sqlite: list runs")
	}
	defer rows.Close() //nolint:errcheck

	var out []model.IngestRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "sqlite: scan run")
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "sqlite: iterate runs")
}

func checkRowsAffected(res sql.Result) error {
	n, err := res.RowsAffected()
	if err != nil {
		return eris.Wrap(err, "sqlite: rows affected")
	}
	if n == 0 {
		return ErrNotFound
	}
	return nil
}
