// Package querysql lowers run filters to parameterized SQLite queries.
//
// Every compiled query selects the full runs row set, carries its values
// as ? parameters (never interpolated), and ends in ORDER BY id ASC
// COLLATE BINARY so results are deterministic across SQLite versions.
package querysql

import (
	"fmt"
	"strings"
	"time"

	"github.com/roach88/paradox/internal/query"
	"github.com/roach88/paradox/internal/store"
)

// selectRuns is the fixed projection every compiled query uses. Column
// order matches store.ListRuns scanning.
const selectRuns = "SELECT id, name, family, backend, shots, catalog_hash, " +
	"created_at, verdict, deviation, reason FROM runs"

// orderBy pins result order to insertion order. COLLATE BINARY keeps
// text comparison byte-wise regardless of database collation settings.
const orderBy = " ORDER BY id ASC COLLATE BINARY"

// Compile lowers a filter to one SELECT over the runs table. A nil
// filter compiles to an unfiltered, still-ordered scan. The filter is
// validated first; the first violation aborts compilation.
func Compile(f query.Filter) (string, []any, error) {
	if errs := query.Validate(f); len(errs) > 0 {
		return "", nil, fmt.Errorf("compile filter: %w", errs[0])
	}
	if f == nil {
		return selectRuns + orderBy, nil, nil
	}

	where, params, err := compileFilter(f)
	if err != nil {
		return "", nil, fmt.Errorf("compile filter: %w", err)
	}
	return selectRuns + " WHERE " + where + orderBy, params, nil
}

// compileFilter returns a WHERE fragment and its parameters.
func compileFilter(f query.Filter) (string, []any, error) {
	switch node := f.(type) {
	case query.Equals:
		return compileEquals(node)
	case *query.Equals:
		return compileEquals(*node)
	case query.Since:
		return "created_at >= ?", []any{formatTime(node.T)}, nil
	case *query.Since:
		return "created_at >= ?", []any{formatTime(node.T)}, nil
	case query.Until:
		return "created_at < ?", []any{formatTime(node.T)}, nil
	case *query.Until:
		return "created_at < ?", []any{formatTime(node.T)}, nil
	case query.And:
		return compileAnd(node)
	case *query.And:
		return compileAnd(*node)
	default:
		return "", nil, fmt.Errorf("unsupported filter type %T", f)
	}
}

// compileEquals interpolates only the field name, which Validate has
// already pinned to the closed filterable set. The value is a parameter.
func compileEquals(eq query.Equals) (string, []any, error) {
	return eq.Field + " = ?", []any{eq.Value}, nil
}

func compileAnd(and query.And) (string, []any, error) {
	if len(and.Filters) == 0 {
		return "1 = 1", nil, nil
	}

	parts := make([]string, 0, len(and.Filters))
	var params []any
	for _, member := range and.Filters {
		sql, memberParams, err := compileFilter(member)
		if err != nil {
			return "", nil, err
		}
		parts = append(parts, sql)
		params = append(params, memberParams...)
	}
	return strings.Join(parts, " AND "), params, nil
}

// formatTime renders a bound the way the store writes created_at, so
// string comparison in SQLite matches chronological comparison.
func formatTime(t time.Time) string {
	return t.UTC().Format(store.TimeFormat)
}
