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
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/pgEdge/pgedge-vendorsummary/internal/logging"
)

// DefaultPoolConfig returns default connection pool configuration. The
// pipeline is sequential, so the pool is kept small.
func DefaultPoolConfig() *pgxpool.Config {
	config, _ := pgxpool.ParseConfig("")

	config.MaxConns = 2
	config.MinConns = 1
	config.MaxConnLifetime = 30 * time.Minute
	config.MaxConnIdleTime = 5 * time.Minute
	config.HealthCheckPeriod = 30 * time.Second

	return config
}

// PostgresStore is a Store backed by a PostgreSQL connection pool.
type PostgresStore struct {
	pool *pgxpool.Pool
	log  *logging.Logger
}

// OpenPostgres establishes a connection pool to the PostgreSQL database.
func OpenPostgres(ctx context.Context, connString string, log *logging.Logger) (*PostgresStore, error) {
	config, err := pgxpool.ParseConfig(connString)
	if err != nil {
		return nil, fmt.Errorf("failed to parse connection string: %w", err)
	}

	defaults := DefaultPoolConfig()
	config.MaxConns = defaults.MaxConns
	config.MinConns = defaults.MinConns
	config.MaxConnLifetime = defaults.MaxConnLifetime
	config.MaxConnIdleTime = defaults.MaxConnIdleTime
	config.HealthCheckPeriod = defaults.HealthCheckPeriod

	log.Debug().
		Str("host", config.ConnConfig.Host).
		Uint16("port", config.ConnConfig.Port).
		Str("database", config.ConnConfig.Database).
		Msg("Connecting to database")

	pool, err := pgxpool.NewWithConfig(ctx, config)
	if err != nil {
		return nil, fmt.Errorf("failed to create connection pool: %w", err)
	}

	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	log.Info().
		Str("host", config.ConnConfig.Host).
		Str("database", config.ConnConfig.Database).
		Msg("Connected to database")

	return &PostgresStore{pool: pool, log: log}, nil
}

// Dialect returns DialectPostgres.
func (s *PostgresStore) Dialect() string {
	return DialectPostgres
}

// Pool exposes the underlying pool for tests and tooling.
func (s *PostgresStore) Pool() *pgxpool.Pool {
	return s.pool
}

// Exec runs a statement that returns no rows.
func (s *PostgresStore) Exec(ctx context.Context, query string, args ...any) error {
	_, err := s.pool.Exec(ctx, Rebind(query), args...)
	return describe(err)
}

// Query runs a statement and calls fn once per result row.
func (s *PostgresStore) Query(ctx context.Context, query string, fn func(Scanner) error, args ...any) error {
	rows, err := s.pool.Query(ctx, Rebind(query), args...)
	if err != nil {
		return describe(err)
	}
	defer rows.Close()

	for rows.Next() {
		if err := fn(rows); err != nil {
			return err
		}
	}
	return describe(rows.Err())
}

// ReplaceTable drops, recreates and fills table inside one transaction,
// issuing one COPY per batch.
func (s *PostgresStore) ReplaceTable(ctx context.Context, table string, columns []Column, rows [][]any,
	batchSize int, onBatch BatchFunc) (int64, error) {
	if err := validateBatch(table, columns, batchSize); err != nil {
		return 0, err
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, DropTableSQL(table)); err != nil {
		return 0, fmt.Errorf("failed to drop table %s: %w", table, describe(err))
	}
	if _, err := tx.Exec(ctx, CreateTableSQL(DialectPostgres, table, columns)); err != nil {
		return 0, fmt.Errorf("failed to create table %s: %w", table, describe(err))
	}

	names := make([]string, len(columns))
	for i, c := range columns {
		names[i] = c.Name
	}

	var written int64
	for batch, start := 1, 0; start < len(rows); batch, start = batch+1, start+batchSize {
		end := min(start+batchSize, len(rows))
		n, err := tx.CopyFrom(ctx, pgx.Identifier{table}, names, pgx.CopyFromRows(rows[start:end]))
		if err != nil {
			return 0, fmt.Errorf("failed to copy into %s: %w", table, describe(err))
		}
		written += n
		if onBatch != nil {
			onBatch(batch, written)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to commit %s: %w", table, err)
	}
	return written, nil
}

// Close closes the pool.
func (s *PostgresStore) Close() error {
	s.pool.Close()
	return nil
}

// describe appends the server's detail and hint to a PostgreSQL error.
func describe(err error) error {
	var pgErr *pgconn.PgError
	if !errors.As(err, &pgErr) {
		return err
	}
	var extra string
	if pgErr.Detail != "" {
		extra += "; " + pgErr.Detail
	}
	if pgErr.Hint != "" {
		extra += "; hint: " + pgErr.Hint
	}
	if extra == "" {
		return err
	}
	return fmt.Errorf("%w%s", err, extra)
}

// Rebind rewrites '?' placeholders as $1, $2, ... skipping quoted text.
func Rebind(query string) string {
	if !strings.Contains(query, "?") {
		return query
	}

	var (
		b     strings.Builder
		n     int
		quote rune
	)
	b.Grow(len(query) + 8)
	for _, r := range query {
		switch {
		case quote != 0:
			if r == quote {
				quote = 0
			}
		case r == '\'' || r == '"':
			quote = r
		case r == '?':
			n++
			b.WriteByte('$')
			b.WriteString(strconv.Itoa(n))
			continue
		}
		b.WriteRune(r)
	}
	return b.String()
}
