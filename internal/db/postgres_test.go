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
	"errors"
	"strings"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
)

func TestDescribe(t *testing.T) {
	if describe(nil) != nil {
		t.Error("describe(nil) should be nil")
	}

	plain := errors.New("boom")
	if describe(plain) != plain {
		t.Error("non-PostgreSQL errors should pass through unchanged")
	}

	pgErr := &pgconn.PgError{
		Severity: "ERROR",
		Code:     "42809",
		Message:  `"vendor_sales_summary" is not a table`,
		Hint:     "Use DROP VIEW to remove a view.",
	}
	err := describe(pgErr)
	if !strings.Contains(err.Error(), "hint: Use DROP VIEW") {
		t.Errorf("describe = %q, want hint included", err)
	}
	var target *pgconn.PgError
	if !errors.As(err, &target) || target.Code != "42809" {
		t.Error("described error should still unwrap to *pgconn.PgError")
	}

	bare := &pgconn.PgError{Code: "42P01", Message: "relation does not exist"}
	if describe(bare) != error(bare) {
		t.Error("errors without detail or hint should pass through unchanged")
	}
}
