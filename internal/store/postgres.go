package store

import (
	"context"
	"embed"
	"errors"
	"fmt"
	"strings"
	"time"

	sq "github.com/Masterminds/squirrel"
	"github.com/golang-migrate/migrate/v4"
	_ "github.com/golang-migrate/migrate/v4/database/postgres" // migrate driver
	"github.com/golang-migrate/migrate/v4/source/iofs"
	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"

	"github.com/sells-group/radar/internal/db"
	"github.com/sells-group/radar/internal/model"
)

//go:embed migrations/*.sql
var migrationsFS embed.FS

// PostgresStore implements KeywordStore using a pgx pool.
type PostgresStore struct {
	pool       db.Pool
	migrateURL string
}

// NewPostgres connects to Postgres and returns a store.
func NewPostgres(ctx context.Context, connString string, poolCfg db.PoolConfig) (*PostgresStore, error) {
	pool, err := db.Connect(ctx, connString, poolCfg)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: connect")
	}
	return &PostgresStore{pool: pool, migrateURL: connString}, nil
}

// NewPostgresWithPool wraps an existing pool. Migrate is unavailable unless
// migrateURL is set.
func NewPostgresWithPool(pool db.Pool, migrateURL string) *PostgresStore {
	return &PostgresStore{pool: pool, migrateURL: migrateURL}
}

// Migrate applies the embedded schema migrations.
func (s *PostgresStore) Migrate(_ context.Context) error {
	if s.migrateURL == "" {
		return eris.New("postgres: migrate: no connection string")
	}
	src, err := iofs.New(migrationsFS, "migrations")
	if err != nil {
		return eris.Wrap(err, "postgres: migrate: open source")
	}
	m, err := migrate.NewWithSourceInstance("iofs", src, s.migrateURL)
	if err != nil {
		return eris.Wrap(err, "postgres: migrate: init")
	}
	defer m.Close() //nolint:errcheck

	if err := m.Up(); err != nil && !errors.Is(err, migrate.ErrNoChange) {
		return eris.Wrap(err, "postgres: migrate: up")
	}
	return nil
}

func (s *PostgresStore) Ping(ctx context.Context) error {
	return eris.Wrap(s.pool.Ping(ctx), "postgres: ping")
}

func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

var pgSelectKeyword = fmt.Sprintf("SELECT %s FROM keywords WHERE keyword = $1", strings.Join(keywordColumns, ", "))

func (s *PostgresStore) Get(ctx context.Context, keyword string) (*model.Keyword, error) {
	k, err := scanKeyword(s.pool.QueryRow(ctx, pgSelectKeyword, model.NormalizeKeyword(keyword)))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: get keyword %q", keyword)
	}
	return k, nil
}

var pgInsertKeyword = fmt.Sprintf(
	"INSERT INTO keywords (%s) VALUES (%s) ON CONFLICT (keyword) DO NOTHING",
	strings.Join(keywordColumns, ", "), placeholders(len(keywordColumns), sq.Dollar),
)

// Insert adds k unless the keyword already exists. It reports whether a row
// was written.
func (s *PostgresStore) Insert(ctx context.Context, k *model.Keyword) (bool, error) {
	args, err := keywordArgs(k)
	if err != nil {
		return false, err
	}
	tag, err := s.pool.Exec(ctx, pgInsertKeyword, args...)
	if err != nil {
		return false, eris.Wrapf(err, "postgres: insert keyword %q", k.Keyword)
	}
	return tag.RowsAffected() == 1, nil
}

func (s *PostgresStore) RefreshSeen(ctx context.Context, keyword string, volume int, seenAt time.Time) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE keywords SET monthly_volume = $1, last_seen = $2 WHERE keyword = $3`,
		volume, seenAt, model.NormalizeKeyword(keyword),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: refresh keyword %q", keyword)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var refreshUpdate = db.UpdateConfig{
	Table: "keywords",
	Key:   db.Column{Name: "keyword", Type: "TEXT"},
	Columns: []db.Column{
		{Name: "monthly_volume", Type: "INTEGER"},
		{Name: "last_seen", Type: "TIMESTAMPTZ"},
	},
}

// BulkRefresh applies many refreshes in one COPY-backed transaction.
func (s *PostgresStore) BulkRefresh(ctx context.Context, refreshes []Refresh) (int64, error) {
	rows := make([][]any, len(refreshes))
	for i, r := range refreshes {
		rows[i] = []any{model.NormalizeKeyword(r.Keyword), r.Volume, r.SeenAt}
	}
	n, err := db.BulkUpdate(ctx, s.pool, refreshUpdate, rows)
	if err != nil {
		return 0, eris.Wrap(err, "postgres: bulk refresh")
	}
	return n, nil
}

func (s *PostgresStore) List(ctx context.Context, filter ListFilter) ([]model.Keyword, error) {
	query, args, err := buildListQuery(filter, sq.Dollar)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list keywords")
	}
	defer rows.Close()

	var out []model.Keyword
	for rows.Next() {
		k, err := scanKeyword(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan keyword")
		}
		out = append(out, *k)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate keywords")
}

func (s *PostgresStore) CountBy(ctx context.Context, field string) ([]GroupCount, error) {
	query, err := buildCountQuery(field, sq.Dollar)
	if err != nil {
		return nil, err
	}
	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, eris.Wrapf(err, "postgres: count by %s", field)
	}
	defer rows.Close()

	var out []GroupCount
	for rows.Next() {
		var gc GroupCount
		if err := rows.Scan(&gc.Value, &gc.Count); err != nil {
			return nil, eris.Wrap(err, "postgres: scan count")
		}
		out = append(out, gc)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate counts")
}

func (s *PostgresStore) SaveBrief(ctx context.Context, keyword, title string, links []string) error {
	linksJSON, err := marshalLinks(links)
	if err != nil {
		return err
	}
	tag, err := s.pool.Exec(ctx,
		`UPDATE keywords SET suggested_title = $1, suggested_links = $2 WHERE keyword = $3`,
		title, linksJSON, model.NormalizeKeyword(keyword),
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: save brief %q", keyword)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var pgInsertRun = fmt.Sprintf(
	"INSERT INTO ingest_runs (%s) VALUES (%s)",
	strings.Join(runColumns, ", "), placeholders(len(runColumns), sq.Dollar),
)

func (s *PostgresStore) CreateRun(ctx context.Context, run *model.IngestRun) error {
	if _, err := s.pool.Exec(ctx, pgInsertRun, runArgs(run)...); err != nil {
		return eris.Wrapf(err, "postgres: create run %s", run.ID)
	}
	return nil
}

func (s *PostgresStore) CompleteRun(ctx context.Context, run *model.IngestRun) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE ingest_runs SET status = $1, seeded = $2, expanded = $3, total = $4, inserted = $5,
			refreshed = $6, skipped = $7, failed = $8, error = $9, completed_at = $10 WHERE id = $11`,
		string(run.Status), run.Seeded, run.Expanded, run.Total, run.Inserted,
		run.Refreshed, run.Skipped, run.Failed, run.Error, run.CompletedAt, run.ID,
	)
	if err != nil {
		return eris.Wrapf(err, "postgres: complete run %s", run.ID)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

var pgListRuns = fmt.Sprintf(
	"SELECT %s FROM ingest_runs ORDER BY started_at DESC LIMIT $1",
	strings.Join(runColumns, ", "),
)

func (s *PostgresStore) ListRuns(ctx context.Context, limit int) ([]model.IngestRun, error) {
	if limit <= 0 {
		limit = 10
	}
	rows, err := s.pool.Query(ctx, pgListRuns, limit)
	if err != nil {
		return nil, eris.Wrap(err, "postgres: list runs")
	}
	defer rows.Close()

	var out []model.IngestRun
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, eris.Wrap(err, "postgres: scan run")
		}
		out = append(out, *r)
	}
	return out, eris.Wrap(rows.Err(), "postgres: iterate runs")
}
