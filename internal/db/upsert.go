package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/rotisserie/eris"
)

// Target names a table and its column set for a bulk write. Key lists the
// columns of the unique constraint; on conflict every other column is
// refreshed from the incoming row.
type Target struct {
	Table   string
	Columns []string
	Key     []string
}

func (t Target) validate() error {
	if t.Table == "" {
		return eris.New("db: upsert: no table specified")
	}
	if len(t.Columns) == 0 {
		return eris.New("db: upsert: no columns specified")
	}
	if len(t.Key) == 0 {
		return eris.New("db: upsert: no conflict keys specified")
	}
	return nil
}

// updateColumns returns the columns refreshed on conflict, preserving the
// declared column order.
func (t Target) updateColumns() []string {
	key := make(map[string]bool, len(t.Key))
	for _, k := range t.Key {
		key[k] = true
	}
	var cols []string
	for _, c := range t.Columns {
		if !key[c] {
			cols = append(cols, c)
		}
	}
	return cols
}

// mergeSQL builds the INSERT ... SELECT ... ON CONFLICT DO UPDATE statement
// moving rows from the staging table into the target.
func (t Target) mergeSQL(staging string) string {
	cols := quoteList(t.Columns)

	var b strings.Builder
	fmt.Fprintf(&b, "INSERT INTO %s (%s) SELECT %s FROM %s ON CONFLICT (%s) DO UPDATE SET ",
		quoteTable(t.Table), cols, cols,
		pgx.Identifier{staging}.Sanitize(),
		quoteList(t.Key),
	)
	for i, col := range t.updateColumns() {
		if i > 0 {
			b.WriteString(", ")
		}
		q := pgx.Identifier{col}.Sanitize()
		fmt.Fprintf(&b, "%s = EXCLUDED.%s", q, q)
	}
	return b.String()
}

// BulkUpsert writes rows into target in one transaction: COPY into a
// session temp table, then merge with INSERT ... ON CONFLICT DO UPDATE.
// The temp table drops on commit. Returns the number of rows merged.
func BulkUpsert(ctx context.Context, pool Pool, target Target, rows [][]any) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}
	if err := target.validate(); err != nil {
		return 0, err
	}

	tx, err := pool.Begin(ctx)
	if err != nil {
		return 0, eris.Wrap(err, "db: upsert: begin tx")
	}
	defer tx.Rollback(ctx) //nolint:errcheck

	staging := "staging_" + strings.ReplaceAll(target.Table, ".", "_")
	create := fmt.Sprintf("CREATE TEMP TABLE %s (LIKE %s INCLUDING DEFAULTS) ON COMMIT DROP",
		pgx.Identifier{staging}.Sanitize(), quoteTable(target.Table))
	if _, err := tx.Exec(ctx, create); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: create staging table for %s", target.Table)
	}

	if _, err := CopyFrom(ctx, tx, staging, target.Columns, rows); err != nil {
		return 0, eris.Wrapf(err, "db: upsert: load staging table for %s", target.Table)
	}

	tag, err := tx.Exec(ctx, target.mergeSQL(staging))
	if err != nil {
		return 0, eris.Wrapf(err, "db: upsert: merge into %s", target.Table)
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, eris.Wrap(err, "db: upsert: commit tx")
	}
	return tag.RowsAffected(), nil
}

// quoteTable quotes a table name, splitting an optional schema qualifier.
func quoteTable(table string) string {
	if schema, name, ok := strings.Cut(table, "."); ok {
		return pgx.Identifier{schema, name}.Sanitize()
	}
	return pgx.Identifier{table}.Sanitize()
}

func quoteList(cols []string) string {
	quoted := make([]string, len(cols))
	for i, c := range cols {
		quoted[i] = pgx.Identifier{c}.Sanitize()
	}
	return strings.Join(quoted, ", ")
}
