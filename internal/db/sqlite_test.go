//-------------------------------------------------------------------------
//
// pgEdge Vendor Summary
//
// Copyright (c) 2025 - 2026, pgEdge, Inc.
// This software is released under The PostgreSQL License
//
//-------------------------------------------------------------------------

package db

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/pgEdge/pgedge-vendorsummary/internal/logging"
)

func openTestSQLite(t *testing.T) *SQLiteStore {
	t.Helper()

	store, err := OpenSQLite(context.Background(), filepath.Join(t.TempDir(), "test.db"), logging.Nop())
	if err != nil {
		t.Fatalf("OpenSQLite failed: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func TestOpenUnknownDriver(t *testing.T) {
	_, err := Open(context.Background(), "oracle", "x", logging.Nop())
	if err == nil {
		t.Fatal("Expected error for unknown driver")
	}
}

func TestOpenSQLiteEmptyDSN(t *testing.T) {
	_, err := OpenSQLite(context.Background(), "  ", logging.Nop())
	if err == nil {
		t.Fatal("Expected error for empty DSN")
	}
}

func TestSQLiteReplaceTable(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()

	columns := []Column{
		{Name: "VendorNumber", Type: TypeInteger},
		{Name: "VendorName", Type: TypeText},
		{Name: "Dollars", Type: TypeDouble},
	}
	rows := [][]any{
		{int64(1), "ALPHA", 10.5},
		{int64(2), "BETA", 20.0},
		{int64(3), "GAMMA", 30.25},
		{int64(4), "DELTA", 40.0},
		{int64(5), "EPSILON", 50.0},
	}

	var batches []int
	n, err := store.ReplaceTable(ctx, "vendors", columns, rows, 2, func(batch int, total int64) {
		batches = append(batches, batch)
	})
	if err != nil {
		t.Fatalf("ReplaceTable failed: %v", err)
	}
	if n != 5 {
		t.Errorf("Expected 5 rows written, got %d", n)
	}
	if len(batches) != 3 {
		t.Errorf("Expected 3 batches for 5 rows of size 2, got %d", len(batches))
	}

	count, err := CountRows(ctx, store, "vendors")
	if err != nil {
		t.Fatalf("CountRows failed: %v", err)
	}
	if count != 5 {
		t.Errorf("Expected 5 rows in table, got %d", count)
	}

	// A second replace drops the previous contents and schema.
	n, err = store.ReplaceTable(ctx, "vendors", []Column{{Name: "Only", Type: TypeText}},
		[][]any{{"x"}}, 5000, nil)
	if err != nil {
		t.Fatalf("Second ReplaceTable failed: %v", err)
	}
	if n != 1 {
		t.Errorf("Expected 1 row written, got %d", n)
	}

	var only string
	err = store.Query(ctx, `SELECT "Only" FROM "vendors"`, func(s Scanner) error {
		return s.Scan(&only)
	})
	if err != nil {
		t.Fatalf("Query failed: %v", err)
	}
	if only != "x" {
		t.Errorf("Expected 'x', got %q", only)
	}
}

func TestSQLiteReplaceTableRowWidthMismatch(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()

	if err := store.Exec(ctx, `CREATE TABLE "keep" ("a" INTEGER)`); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}
	if err := store.Exec(ctx, `INSERT INTO "keep" VALUES (1)`); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}

	_, err := store.ReplaceTable(ctx, "keep", []Column{{Name: "a", Type: TypeInteger}},
		[][]any{{int64(1), int64(2)}}, 10, nil)
	if err == nil {
		t.Fatal("Expected error for row width mismatch")
	}

	// The failed replace rolled back, so the original table survives.
	count, err := CountRows(ctx, store, "keep")
	if err != nil {
		t.Fatalf("CountRows failed: %v", err)
	}
	if count != 1 {
		t.Errorf("Expected original row to survive rollback, got %d rows", count)
	}
}

func TestSQLiteReplaceTableValidation(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()
	cols := []Column{{Name: "a", Type: TypeText}}

	if _, err := store.ReplaceTable(ctx, "", cols, nil, 10, nil); err == nil {
		t.Error("Expected error for empty table name")
	}
	if _, err := store.ReplaceTable(ctx, "t", nil, nil, 10, nil); err == nil {
		t.Error("Expected error for empty columns")
	}
	if _, err := store.ReplaceTable(ctx, "t", cols, nil, 0, nil); err == nil {
		t.Error("Expected error for zero batch size")
	}
}

func TestTableExists(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()

	exists, err := TableExists(ctx, store, "purchases")
	if err != nil {
		t.Fatalf("TableExists failed: %v", err)
	}
	if exists {
		t.Error("Table should not exist yet")
	}

	if err := store.Exec(ctx, `CREATE TABLE "purchases" ("x" INTEGER)`); err != nil {
		t.Fatalf("Exec failed: %v", err)
	}

	exists, err = TableExists(ctx, store, "purchases")
	if err != nil {
		t.Fatalf("TableExists failed: %v", err)
	}
	if !exists {
		t.Error("Table should exist")
	}
}

func TestMetadataRoundTrip(t *testing.T) {
	store := openTestSQLite(t)
	ctx := context.Background()

	_, found, err := GetMetadataValue(ctx, store, "last_run_id")
	if err != nil {
		t.Fatalf("GetMetadataValue on empty db failed: %v", err)
	}
	if found {
		t.Error("Metadata should not be found before it is saved")
	}

	if err := SaveMetadata(ctx, store, map[string]string{"last_run_id": "a", "rows": "10"}); err != nil {
		t.Fatalf("SaveMetadata failed: %v", err)
	}
	if err := SaveMetadata(ctx, store, map[string]string{"last_run_id": "b"}); err != nil {
		t.Fatalf("SaveMetadata update failed: %v", err)
	}

	value, found, err := GetMetadataValue(ctx, store, "last_run_id")
	if err != nil {
		t.Fatalf("GetMetadataValue failed: %v", err)
	}
	if !found || value != "b" {
		t.Errorf("Expected updated value 'b', got %q (found=%v)", value, found)
	}

	all, err := GetAllMetadata(ctx, store)
	if err != nil {
		t.Fatalf("GetAllMetadata failed: %v", err)
	}
	if len(all) != 2 || all["rows"] != "10" {
		t.Errorf("Unexpected metadata: %v", all)
	}

	if err := DropMetadata(ctx, store); err != nil {
		t.Fatalf("DropMetadata failed: %v", err)
	}
	all, err = GetAllMetadata(ctx, store)
	if err != nil {
		t.Fatalf("GetAllMetadata after drop failed: %v", err)
	}
	if len(all) != 0 {
		t.Errorf("Expected no metadata after drop, got %v", all)
	}
}
