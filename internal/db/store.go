//-------------------------------------------------------------------------
//
// pgEdge Vendor Summary
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package db provides storage backends for pgedge-vendorsummary.
//
// Two backends implement Store: an embedded SQLite database and a
// PostgreSQL server. Callers write SQL with '?' placeholders and
// double-quoted identifiers; each backend adapts it to its dialect.
package db

import (
	"context"
	"fmt"
	"strings"

	"github.com/pgEdge/pgedge-vendorsummary/internal/logging"
)

// Dialect names.
const (
	DialectSQLite   = "sqlite"
	DialectPostgres = "postgres"
)

// Scanner reads the current row of a result set.
type Scanner interface {
	Scan(dest ...any) error
}

// BatchFunc is called after every batch written by ReplaceTable.
type BatchFunc func(batch int, rows int64)

// Store is the storage surface used by the pipeline and the tooling commands.
type Store interface {
	// Dialect returns DialectSQLite or DialectPostgres.
	Dialect() string

	// Exec runs a statement that returns no rows.
	Exec(ctx context.Context, sql string, args ...any) error

	// Query runs a statement and calls fn once per result row.
	Query(ctx context.Context, sql string, fn func(Scanner) error, args ...any) error

	// ReplaceTable drops table if it exists, creates it with the given
	// columns and writes rows in batches of batchSize, all in a single
	// transaction. It returns the number of rows written.
	ReplaceTable(ctx context.Context, table string, columns []Column, rows [][]any,
		batchSize int, onBatch BatchFunc) (int64, error)

	// Close releases the underlying connection(s).
	Close() error
}

// Open connects to the database identified by driver and dsn.
func Open(ctx context.Context, driver, dsn string, log *logging.Logger) (Store, error) {
	switch driver {
	case DialectSQLite:
		return OpenSQLite(ctx, dsn, log)
	case DialectPostgres:
		return OpenPostgres(ctx, dsn, log)
	default:
		return nil, fmt.Errorf("unknown driver: %s", driver)
	}
}

// QuoteIdent quotes a table or column name.
func QuoteIdent(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}

// CreateTableSQL builds a CREATE TABLE statement for the given dialect.
func CreateTableSQL(dialect, table string, columns []Column) string {
	defs := make([]string, len(columns))
	for i, c := range columns {
		defs[i] = QuoteIdent(c.Name) + " " + c.Type.SQL(dialect)
	}
	return fmt.Sprintf("CREATE TABLE %s (\n    %s\n)", QuoteIdent(table), strings.Join(defs, ",\n    "))
}

// DropTableSQL builds a DROP TABLE IF EXISTS statement.
func DropTableSQL(table string) string {
	return "DROP TABLE IF EXISTS " + QuoteIdent(table)
}

// TableExists reports whether a table with the given name exists.
func TableExists(ctx context.Context, store Store, table string) (bool, error) {
	var query string
	switch store.Dialect() {
	case DialectPostgres:
		query = `SELECT COUNT(*) FROM information_schema.tables WHERE table_schema = current_schema() AND table_name = ?`
	default:
		query = `SELECT COUNT(*) FROM sqlite_master WHERE type = 'table' AND name = ?`
	}

	var count int64
	err := store.Query(ctx, query, func(s Scanner) error {
		return s.Scan(&count)
	}, table)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// CountRows returns the number of rows in table.
func CountRows(ctx context.Context, store Store, table string) (int64, error) {
	var count int64
	err := store.Query(ctx, "SELECT COUNT(*) FROM "+QuoteIdent(table), func(s Scanner) error {
		return s.Scan(&count)
	})
	return count, err
}

func validateBatch(table string, columns []Column, batchSize int) error {
	if table == "" {
		return fmt.Errorf("table name must not be empty")
	}
	if len(columns) == 0 {
		return fmt.Errorf("columns must not be empty")
	}
	if batchSize < 1 {
		return fmt.Errorf("batch size must be at least 1")
	}
	return nil
}
