//-------------------------------------------------------------------------
//
// pgEdge Vendor Summary
//
// Portions copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

// Package ingest loads CSV exports of the inventory tables into the store.
// Each file becomes one table named after the file; the header row gives
// the column names and column types are inferred from the values.
package ingest

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/pgEdge/pgedge-vendorsummary/internal/db"
	"github.com/pgEdge/pgedge-vendorsummary/internal/logging"
)

const utf8BOM = "\uFEFF"

// Result describes one ingested file.
type Result struct {
	File    string
	Table   string
	Columns []db.Column
	Rows    int64
}

// Files expands paths into the list of CSV files to ingest. Directories
// contribute their *.csv entries (not recursively) in name order.
func Files(paths []string) ([]string, error) {
	var files []string
	for _, p := range paths {
		info, err := os.Stat(p)
		if err != nil {
			return nil, fmt.Errorf("failed to stat %s: %w", p, err)
		}
		if !info.IsDir() {
			files = append(files, p)
			continue
		}

		entries, err := os.ReadDir(p)
		if err != nil {
			return nil, fmt.Errorf("failed to read directory %s: %w", p, err)
		}
		var found []string
		for _, e := range entries {
			if e.IsDir() || !strings.EqualFold(filepath.Ext(e.Name()), ".csv") {
				continue
			}
			found = append(found, filepath.Join(p, e.Name()))
		}
		sort.Strings(found)
		files = append(files, found...)
	}
	if len(files) == 0 {
		return nil, errors.New("no CSV files found")
	}
	return files, nil
}

// TableName derives the destination table from a file path:
// "data/vendor_invoice.csv" becomes "vendor_invoice".
func TableName(path string) string {
	base := filepath.Base(path)
	name := strings.TrimSuffix(base, filepath.Ext(base))
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9', r == '_':
			return r
		default:
			return '_'
		}
	}, name)
}

// ReadCSV parses a CSV stream with a header row. Cells are converted with
// db.ParseValue; empty cells become NULL.
func ReadCSV(r io.Reader) ([]string, [][]any, error) {
	reader := csv.NewReader(r)
	reader.TrimLeadingSpace = true
	reader.ReuseRecord = true

	header, err := reader.Read()
	if err == io.EOF {
		return nil, nil, errors.New("missing header row")
	}
	if err != nil {
		return nil, nil, fmt.Errorf("failed to read header: %w", err)
	}

	names := make([]string, len(header))
	for i, h := range header {
		names[i] = strings.TrimSpace(h)
	}
	if len(names) > 0 {
		names[0] = strings.TrimPrefix(names[0], utf8BOM)
	}
	if err := checkHeader(names); err != nil {
		return nil, nil, err
	}

	var rows [][]any
	for {
		record, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, nil, fmt.Errorf("failed to read row %d: %w", len(rows)+1, err)
		}
		row := make([]any, len(record))
		for i, cell := range record {
			row[i] = db.ParseValue(cell)
		}
		rows = append(rows, row)
	}
	return names, rows, nil
}

func checkHeader(names []string) error {
	seen := make(map[string]bool, len(names))
	for i, n := range names {
		if n == "" {
			return fmt.Errorf("header column %d is empty", i+1)
		}
		if seen[n] {
			return fmt.Errorf("duplicate header column %q", n)
		}
		seen[n] = true
	}
	return nil
}

// Loader writes CSV files into a store.
type Loader struct {
	store     db.Store
	log       *logging.Logger
	batchSize int
}

// NewLoader creates a loader writing batchSize rows per batch.
func NewLoader(store db.Store, log *logging.Logger, batchSize int) *Loader {
	if batchSize < 1 {
		batchSize = 5000
	}
	return &Loader{store: store, log: log, batchSize: batchSize}
}

// LoadFile replaces the table named after path with the file's contents.
func (l *Loader) LoadFile(ctx context.Context, path string) (*Result, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s: %w", path, err)
	}
	defer f.Close()

	names, rows, err := ReadCSV(f)
	if err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w", path, err)
	}

	table := TableName(path)
	columns := db.InferColumns(names, rows)
	db.CoerceRows(columns, rows)

	l.log.Info().
		Str("file", path).
		Str("table", table).
		Int("columns", len(columns)).
		Int("rows", len(rows)).
		Msg("Ingesting file")

	n, err := l.store.ReplaceTable(ctx, table, columns, rows, l.batchSize, func(batch int, total int64) {
		l.log.Debug().
			Str("table", table).
			Int("batch", batch).
			Int64("rows", total).
			Msg("Batch written")
	})
	if err != nil {
		return nil, fmt.Errorf("failed to load %s into %s: %w", path, table, err)
	}

	return &Result{File: path, Table: table, Columns: columns, Rows: n}, nil
}

// Load ingests every file in paths, stopping at the first failure. Two
// files that map to the same table are rejected before anything is
// written.
func (l *Loader) Load(ctx context.Context, paths []string) ([]Result, error) {
	files, err := Files(paths)
	if err != nil {
		return nil, err
	}

	owner := make(map[string]string, len(files))
	for _, f := range files {
		table := TableName(f)
		if prev, ok := owner[table]; ok {
			return nil, fmt.Errorf("%s and %s both map to table %s", prev, f, table)
		}
		owner[table] = f
	}

	results := make([]Result, 0, len(files))
	for _, f := range files {
		res, err := l.LoadFile(ctx, f)
		if err != nil {
			return results, err
		}
		results = append(results, *res)
	}
	return results, nil
}
