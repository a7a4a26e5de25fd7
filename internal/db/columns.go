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
	"math"
	"strconv"
)

// ColumnType is the storage type of a column.
type ColumnType int

const (
	TypeText ColumnType = iota
	TypeInteger
	TypeDouble
)

// String returns the type name.
func (t ColumnType) String() string {
	switch t {
	case TypeInteger:
		return "integer"
	case TypeDouble:
		return "double"
	default:
		return "text"
	}
}

// SQL returns the column type for the given dialect.
func (t ColumnType) SQL(dialect string) string {
	switch dialect {
	case DialectPostgres:
		switch t {
		case TypeInteger:
			return "BIGINT"
		case TypeDouble:
			return "DOUBLE PRECISION"
		default:
			return "TEXT"
		}
	default:
		switch t {
		case TypeInteger:
			return "INTEGER"
		case TypeDouble:
			return "REAL"
		default:
			return "TEXT"
		}
	}
}

// Column describes a table column.
type Column struct {
	Name string
	Type ColumnType
}

// InferColumns picks a type for every column from the values in rows.
// Values must be nil, int64, float64 or string. A column holding only
// integers is TypeInteger, integers mixed with floats are TypeDouble, and
// any string (or a column of nothing but nils) makes it TypeText.
func InferColumns(names []string, rows [][]any) []Column {
	columns := make([]Column, len(names))
	for i, name := range names {
		columns[i] = Column{Name: name, Type: inferColumn(rows, i)}
	}
	return columns
}

func inferColumn(rows [][]any, idx int) ColumnType {
	var sawInt, sawFloat bool
	for _, row := range rows {
		if idx >= len(row) {
			continue
		}
		switch row[idx].(type) {
		case nil:
		case int64:
			sawInt = true
		case float64:
			sawFloat = true
		default:
			return TypeText
		}
	}
	switch {
	case sawFloat:
		return TypeDouble
	case sawInt:
		return TypeInteger
	default:
		return TypeText
	}
}

// CoerceRows converts values in place so that every value matches its
// column type: integers widen to float64 in double columns and numbers are
// formatted in text columns.
func CoerceRows(columns []Column, rows [][]any) {
	for _, row := range rows {
		for i := range row {
			if i >= len(columns) {
				break
			}
			row[i] = coerce(columns[i].Type, row[i])
		}
	}
}

func coerce(t ColumnType, v any) any {
	switch t {
	case TypeDouble:
		if n, ok := v.(int64); ok {
			return float64(n)
		}
	case TypeText:
		switch n := v.(type) {
		case int64:
			return strconv.FormatInt(n, 10)
		case float64:
			return FormatFloat(n)
		}
	}
	return v
}

// FormatFloat formats a float the shortest way that round-trips.
func FormatFloat(v float64) string {
	switch {
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	case math.IsNaN(v):
		return "nan"
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// ParseValue converts raw text into nil, int64, float64 or string.
func ParseValue(s string) any {
	if s == "" {
		return nil
	}
	if n, err := strconv.ParseInt(s, 10, 64); err == nil {
		return n
	}
	if f, err := strconv.ParseFloat(s, 64); err == nil && !math.IsInf(f, 0) && !math.IsNaN(f) {
		return f
	}
	return s
}
