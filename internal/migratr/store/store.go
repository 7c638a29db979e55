// Package store is the thin database/sql layer over the normalized target
// schema. The migration is single-threaded and one-shot: one connection,
// synchronous statements, driver defaults for everything else.
package store

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
)

// Dialect abstracts the placeholder style difference between the two
// supported drivers.
type Dialect string

const (
	MySQL    Dialect = "mysql"
	Postgres Dialect = "postgres"
)

// Placeholder returns the i-th (1-based) statement placeholder.
func (d Dialect) Placeholder(i int) string {
	if d == Postgres {
		return fmt.Sprintf("$%d", i)
	}
	return "?"
}

// Insert builds a plain single-row INSERT for the dialect.
func (d Dialect) Insert(table string, cols ...string) string {
	ph := make([]string, len(cols))
	for i := range cols {
		ph[i] = d.Placeholder(i + 1)
	}
	return fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		table, strings.Join(cols, ", "), strings.Join(ph, ", "))
}

// DB wraps the shared connection for the run.
type DB struct {
	sql     *sql.DB
	dialect Dialect
}

// Open connects to the target store and verifies the connection. driver is
// "mysql" or "postgres".
func Open(driver, dsn string) (*DB, error) {
	var dialect Dialect
	switch driver {
	case "mysql":
		dialect = MySQL
	case "postgres":
		dialect = Postgres
	default:
		return nil, fmt.Errorf("unsupported driver %q", driver)
	}

	db, err := sql.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", driver, err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("ping %s: %w", driver, err)
	}
	return &DB{sql: db, dialect: dialect}, nil
}

func (d *DB) Close() error {
	return d.sql.Close()
}

// Placeholder exposes the dialect's placeholder style for callers that build
// their own WHERE clauses.
func (d *DB) Placeholder(i int) string {
	return d.dialect.Placeholder(i)
}

// InsertSQL builds a single-row INSERT statement for the run's dialect.
func (d *DB) InsertSQL(table string, cols ...string) string {
	return d.dialect.Insert(table, cols...)
}

// Exec runs a statement and discards the result.
func (d *DB) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := d.sql.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("exec: %w", err)
	}
	return nil
}

// SelectPairs runs a two-column (id, key) query and returns key → id. NULL
// keys are skipped.
func (d *DB) SelectPairs(ctx context.Context, query string, args ...any) (map[string]int64, error) {
	rows, err := d.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query pairs: %w", err)
	}
	defer rows.Close()

	out := make(map[string]int64)
	for rows.Next() {
		var id int64
		var key sql.NullString
		if err := rows.Scan(&id, &key); err != nil {
			return nil, fmt.Errorf("scan pair: %w", err)
		}
		if key.Valid {
			out[key.String] = id
		}
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate pairs: %w", err)
	}
	return out, nil
}

// QueryInt64 runs a single-value query. sql.ErrNoRows passes through so
// callers can distinguish "absent" from a store failure.
func (d *DB) QueryInt64(ctx context.Context, query string, args ...any) (int64, error) {
	var v int64
	if err := d.sql.QueryRowContext(ctx, query, args...).Scan(&v); err != nil {
		return 0, err
	}
	return v, nil
}

// QueryRowStrings runs a single-row query and returns every column as a
// string ("" for NULL). Used by verify, where MySQL and Postgres hand back
// dates in different shapes anyway.
func (d *DB) QueryRowStrings(ctx context.Context, query string, args ...any) ([]string, error) {
	rows, err := d.sql.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query row: %w", err)
	}
	defer rows.Close()

	cols, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("columns: %w", err)
	}
	if !rows.Next() {
		if err := rows.Err(); err != nil {
			return nil, fmt.Errorf("iterate row: %w", err)
		}
		return nil, sql.ErrNoRows
	}

	raw := make([]sql.NullString, len(cols))
	dest := make([]any, len(cols))
	for i := range raw {
		dest[i] = &raw[i]
	}
	if err := rows.Scan(dest...); err != nil {
		return nil, fmt.Errorf("scan row: %w", err)
	}

	out := make([]string, len(cols))
	for i, v := range raw {
		if v.Valid {
			out[i] = v.String
		}
	}
	return out, nil
}

// BuildDSN constructs a DSN for postgres/mysql from discrete parts, for
// callers that do not hand in a full DSN.
func BuildDSN(driver, user, pass, host string, port int, db string) string {
	if driver == "postgres" {
		return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=disable", user, pass, host, port, db)
	}
	return fmt.Sprintf("%s:%s@tcp(%s:%d)/%s?parseTime=true&charset=utf8mb4", user, pass, host, port, db)
}
