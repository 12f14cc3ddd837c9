// Package sqlite stores price rows in a local SQLite file through the pure-Go
// modernc.org/sqlite driver.
package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"pricetrack/internal/storage"
)

// maxParams keeps every INSERT well under SQLite's bind variable limit.
const maxParams = 999

// Repo implements storage.Repository for SQLite.
//
// SQLite has no native timestamp type, so timestamp_utc is stored as an
// RFC3339Nano string; it sorts lexically and round-trips exactly.
type Repo struct {
	db    *sql.DB
	table string
}

func init() {
	storage.Register("sqlite", New)
}

// New opens (creating if needed) the database file named by cfg.DSN.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	if strings.TrimSpace(cfg.DSN) == "" {
		return nil, fmt.Errorf("sqlite: empty dsn")
	}
	db, err := sql.Open("sqlite", cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("sqlite: open: %w", err)
	}
	// One writer at a time; SQLite serialises writes anyway.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("sqlite: ping: %w", err)
	}
	return &Repo{db: db, table: cfg.Table}, nil
}

func (r *Repo) Close() { _ = r.db.Close() }

// EnsureTable creates the price table if it does not exist.
func (r *Repo) EnsureTable(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, buildCreateTableSQL(r.table)); err != nil {
		return fmt.Errorf("sqlite: create table %s: %w", r.table, err)
	}
	return nil
}

// AppendRows inserts rows in chunks inside one transaction, so a failed
// batch leaves the table untouched.
func (r *Repo) AppendRows(ctx context.Context, rows []storage.Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("sqlite: begin: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var total int64
	for _, part := range storage.Chunk(rows, maxParams) {
		q, args := buildInsertSQL(r.table, part)
		res, err := tx.ExecContext(ctx, q, args...)
		if err != nil {
			return 0, fmt.Errorf("sqlite: insert into %s: %w", r.table, err)
		}
		n, _ := res.RowsAffected()
		total += n
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("sqlite: commit: %w", err)
	}
	return total, nil
}

func buildCreateTableSQL(table string) string {
	return fmt.Sprintf(
		`CREATE TABLE IF NOT EXISTS %s (%s TEXT NOT NULL, %s TEXT, %s REAL, %s TEXT NOT NULL DEFAULT '', %s TEXT NOT NULL)`,
		sqlIdent(table),
		sqlIdent("source_url"),
		sqlIdent("product_name"),
		sqlIdent("price_value"),
		sqlIdent("comment"),
		sqlIdent("timestamp_utc"),
	)
}

// buildInsertSQL builds one multi-row INSERT with "?" placeholders.
func buildInsertSQL(table string, rows []storage.Row) (string, []any) {
	colList := make([]string, 0, len(storage.Columns))
	for _, c := range storage.Columns {
		colList = append(colList, sqlIdent(c))
	}
	placeholders := "(" + strings.TrimRight(strings.Repeat("?,", len(storage.Columns)), ",") + ")"

	var b strings.Builder
	b.WriteString("INSERT INTO ")
	b.WriteString(sqlIdent(table))
	b.WriteString(" (")
	b.WriteString(strings.Join(colList, ", "))
	b.WriteString(") VALUES ")

	args := make([]any, 0, len(rows)*len(storage.Columns))
	for i, row := range rows {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteString(placeholders)
		vals := row.Values()
		vals[4] = formatSQLiteTime(row.TimestampUTC)
		args = append(args, vals...)
	}
	return b.String(), args
}

func sqlIdent(id string) string {
	return `"` + strings.ReplaceAll(id, `"`, `""`) + `"`
}

func formatSQLiteTime(t time.Time) string {
	return t.UTC().Format(time.RFC3339Nano)
}
