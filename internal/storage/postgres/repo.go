// Package postgres stores price rows in PostgreSQL through a pgx connection
// pool. Rows are loaded with COPY inside a transaction.
package postgres

import (
	"context"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"pricetrack/internal/storage"
)

// Repo implements storage.Repository for Postgres.
type Repo struct {
	pool  *pgxpool.Pool
	table pgx.Identifier
}

func init() {
	storage.Register("postgres", New)
}

// New creates a pool for cfg.DSN and checks connectivity.
//
// cfg.Table may be schema-qualified ("prices.database_price"); the schema is
// created by EnsureTable when missing.
func New(ctx context.Context, cfg storage.Config) (storage.Repository, error) {
	table, err := tableIdentifier(cfg.Table)
	if err != nil {
		return nil, err
	}
	pool, err := pgxpool.New(ctx, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("postgres: new pool: %w", err)
	}
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres: ping: %w", err)
	}
	return &Repo{pool: pool, table: table}, nil
}

// Close closes the connection pool.
func (r *Repo) Close() {
	r.pool.Close()
}

// EnsureTable creates the schema (if qualified) and the price table.
func (r *Repo) EnsureTable(ctx context.Context) error {
	for _, stmt := range buildCreateSQL(r.table) {
		if _, err := r.pool.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("postgres: ensure table %s: %w", r.table.Sanitize(), err)
		}
	}
	return nil
}

// AppendRows COPYs rows into the table inside one transaction.
func (r *Repo) AppendRows(ctx context.Context, rows []storage.Row) (int64, error) {
	if len(rows) == 0 {
		return 0, nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("postgres: begin: %w", err)
	}
	defer func() { _ = tx.Rollback(ctx) }()

	n, err := tx.CopyFrom(ctx, r.table, storage.Columns, pgx.CopyFromRows(copyRows(rows)))
	if err != nil {
		return 0, fmt.Errorf("postgres: copy into %s: %w", r.table.Sanitize(), err)
	}
	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("postgres: commit: %w", err)
	}
	return n, nil
}

func copyRows(rows []storage.Row) [][]any {
	out := make([][]any, len(rows))
	for i, row := range rows {
		out[i] = row.Values()
	}
	return out
}

// buildCreateSQL returns the DDL statements needed for table, in order.
func buildCreateSQL(table pgx.Identifier) []string {
	var stmts []string
	if len(table) == 2 {
		stmts = append(stmts, "CREATE SCHEMA IF NOT EXISTS "+pgx.Identifier{table[0]}.Sanitize())
	}
	stmts = append(stmts, fmt.Sprintf(
		"CREATE TABLE IF NOT EXISTS %s (%s TEXT NOT NULL, %s TEXT, %s DOUBLE PRECISION, %s TEXT NOT NULL DEFAULT '', %s TIMESTAMPTZ NOT NULL)",
		table.Sanitize(),
		pgIdent("source_url"),
		pgIdent("product_name"),
		pgIdent("price_value"),
		pgIdent("comment"),
		pgIdent("timestamp_utc"),
	))
	return stmts
}

// tableIdentifier splits an optionally schema-qualified table name. Only a
// single dot is understood.
func tableIdentifier(name string) (pgx.Identifier, error) {
	schema, table := splitQualifiedName(name)
	if table == "" {
		return nil, fmt.Errorf("postgres: table name is empty")
	}
	if schema == "" {
		return pgx.Identifier{table}, nil
	}
	return pgx.Identifier{schema, table}, nil
}

func splitQualifiedName(name string) (schema string, table string) {
	name = strings.TrimSpace(name)
	parts := strings.Split(name, ".")
	if len(parts) != 2 {
		return "", name
	}
	return strings.TrimSpace(parts[0]), strings.TrimSpace(parts[1])
}

func pgIdent(name string) string {
	return pgx.Identifier{name}.Sanitize()
}
