package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Column is a staged column and its Postgres type.
type Column struct {
	Name string
	Type string
}

// UpdateConfig defines the parameters for a bulk keyed update.
type UpdateConfig struct {
	Table   string   // target table (e.g., "keywords")
	Key     Column   // match column; must be the first value of each row
	Columns []Column // columns to overwrite from the staged rows
}

// BulkUpdate overwrites Columns on existing rows matched by Key.
// 1. Creates a temp table holding the key and the update columns
// 2. COPY rows into the temp table
// 3. UPDATE target SET ... FROM temp WHERE target.key = temp.key
// Rows whose key does not exist in the target are ignored.
func BulkUpdate(ctx context.Context, pool Pool, cfg UpdateConfig, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if cfg.Key.Name == "" {
		return 0, eris.New("db: update: no key column specified")
	}
	if len(cfg.Columns) == 0 {
		return 0, eris.New("db: update: no columns specified")
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: update: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	tempTable := fmt.Sprintf("_tmp_update_%s", strings.ReplaceAll(cfg.Table, ".", "_"))
	staged := append([]Column{cfg.Key}, cfg.Columns...)

	if _, err := tx.Exec(ctx, createTempSQL(tempTable, staged)); err != nil {
		return 0, eris.Wrapf(err, "db: update: create temp table for %s", cfg.Table)
	}

	names := make([]string, len(staged))
	for i, c := range staged {
		names[i] = c.Name
	}
	if _, err := tx.CopyFrom(ctx, pgx.Identifier{tempTable}, names, pgx.CopyFromRows(rows)); err != nil {
		return 0, eris.Wrapf(err, "db: update: COPY into temp table for %s", cfg.Table)
	}

	tag, err := tx.Exec(ctx, updateSQL(cfg, tempTable))
	if err != nil {
		return 0, eris.Wrapf(err, "db: update: UPDATE FROM for %s", cfg.Table)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: update: commit tx")
	}
	return tag.RowsAffected(), nil
}

func createTempSQL(tempTable string, cols []Column) string {
	defs := make([]string, len(cols))
	for i, c := range cols {
		defs[i] = pgx.Identifier{c.Name}.Sanitize() + " " + c.Type
	}
	return fmt.Sprintf("CREATE TEMP TABLE %s (%s) ON COMMIT DROP",
		pgx.Identifier{tempTable}.Sanitize(), strings.Join(defs, ", "))
}

func updateSQL(cfg UpdateConfig, tempTable string) string {
	tmp := pgx.Identifier{tempTable}.Sanitize()
	sets := make([]string, len(cfg.Columns))
	for i, c := range cfg.Columns {
		col := pgx.Identifier{c.Name}.Sanitize()
		sets[i] = fmt.Sprintf("%s = %s.%s", col, tmp, col)
	}
	key := pgx.Identifier{cfg.Key.Name}.Sanitize()
	table := sanitizeTable(cfg.Table)
	return fmt.Sprintf("UPDATE %s SET %s FROM %s WHERE %s.%s = %s.%s",
		table, strings.Join(sets, ", "), tmp, table, key, tmp, key)
}

// sanitizeTable handles schema-qualified table names like "radar.keywords".
func sanitizeTable(table string) string {
	parts := strings.SplitN(table, ".", 2)
	if len(parts) == 2 {
		return pgx.Identifier{parts[0], parts[1]}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}
