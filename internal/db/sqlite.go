//-------------------------------------------------------------------------
//
// pgEdge Vendor Summary
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	_ "modernc.org/sqlite"

	"github.com/pgEdge/pgedge-vendorsummary/internal/logging"
)

// SQLiteStore is a Store backed by an embedded SQLite database.
type SQLiteStore struct {
	db  *sql.DB
	log *logging.Logger
}

// OpenSQLite opens (creating if needed) the SQLite database at dsn.
// dsn is passed to database/sql unchanged, e.g. "inventory.db" or
// "file:inventory.db?_pragma=busy_timeout(5000)".
func OpenSQLite(ctx context.Context, dsn string, log *logging.Logger) (*SQLiteStore, error) {
	if strings.TrimSpace(dsn) == "" {
		return nil, fmt.Errorf("sqlite: DSN must not be empty")
	}

	log.Debug().
		Str("dsn", dsn).
		Msg("Opening SQLite database")

	conn, err := sql.Open("sqlite", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database: %w", err)
	}

	// One connection: the pipeline is sequential and ":memory:" databases
	// are per-connection.
	conn.SetMaxOpenConns(1)

	pingCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	if err := conn.PingContext(pingCtx); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to ping sqlite database: %w", err)
	}

	log.Info().
		Str("database", dsn).
		Msg("Connected to database")

	return &SQLiteStore{db: conn, log: log}, nil
}

// Dialect returns DialectSQLite.
func (s *SQLiteStore) Dialect() string {
	return DialectSQLite
}

// DB exposes the underlying handle for tests and tooling.
func (s *SQLiteStore) DB() *sql.DB {
	return s.db
}

// Exec runs a statement that returns no rows.
func (s *SQLiteStore) Exec(ctx context.Context, query string, args ...any) error {
	if _, err := s.db.ExecContext(ctx, query, args...); err != nil {
		return err
	}
	return nil
}

// Query runs a statement and calls fn once per result row.
func (s *SQLiteStore) Query(ctx context.Context, query string, fn func(Scanner) error, args ...any) error {
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

// ReplaceTable drops, recreates and fills table inside one transaction.
// Each batch runs through a single prepared INSERT.
func (s *SQLiteStore) ReplaceTable(ctx context.Context, table string, columns []Column, rows [][]any,
	batchSize int, onBatch BatchFunc) (int64, error) {
	if err := validateBatch(table, columns, batchSize); err != nil {
		return 0, err
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx, DropTableSQL(table)); err != nil {
		return 0, fmt.Errorf("failed to drop table %s: %w", table, err)
	}
	if _, err := tx.ExecContext(ctx, CreateTableSQL(DialectSQLite, table, columns)); err != nil {
		return 0, fmt.Errorf("failed to create table %s: %w", table, err)
	}

	names := make([]string, len(columns))
	placeholders := make([]string, len(columns))
	for i, c := range columns {
		names[i] = QuoteIdent(c.Name)
		placeholders[i] = "?"
	}
	stmt, err := tx.PrepareContext(ctx, fmt.Sprintf("INSERT INTO %s (%s) VALUES (%s)",
		QuoteIdent(table), strings.Join(names, ", "), strings.Join(placeholders, ", ")))
	if err != nil {
		return 0, fmt.Errorf("failed to prepare insert: %w", err)
	}
	defer stmt.Close()

	var written int64
	for batch, start := 1, 0; start < len(rows); batch, start = batch+1, start+batchSize {
		end := min(start+batchSize, len(rows))
		for _, row := range rows[start:end] {
			if len(row) != len(columns) {
				return 0, fmt.Errorf("row has %d values, table %s has %d columns", len(row), table, len(columns))
			}
			if _, err := stmt.ExecContext(ctx, row...); err != nil {
				return 0, fmt.Errorf("failed to insert into %s: %w", table, err)
			}
		}
		written += int64(end - start)
		if onBatch != nil {
			onBatch(batch, written)
		}
	}

	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("failed to commit %s: %w", table, err)
	}
	return written, nil
}

// Close closes the database.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}
