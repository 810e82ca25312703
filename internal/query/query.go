// Package query defines the filter language for stored runs.
//
// A Filter describes which rows of the runs table a read should return.
// The interface is sealed with a marker method so backend compilers can
// switch exhaustively: Equals over a closed field set, Since/Until over
// the creation time, and And for conjunction. There is no Or; run two
// queries instead.
//
// Filters carry no SQL. Lowering to a concrete query lives in the
// querysql package, which keeps every value parameterized.
package query

import "time"

// Filter is a predicate over stored runs.
//
// Sealed: only types in this package implement it.
type Filter interface {
	filterNode()
}

// Equals matches runs whose field equals the given value exactly.
// Field must be one of Fields(); Validate rejects anything else.
type Equals struct {
	Field string
	Value string
}

func (Equals) filterNode() {}

// Since matches runs created at or after T.
type Since struct {
	T time.Time
}

func (Since) filterNode() {}

// Until matches runs created strictly before T, so Since+Until form a
// half-open interval and adjacent windows never double-count a run.
type Until struct {
	T time.Time
}

func (Until) filterNode() {}

// And matches runs satisfying every member filter. Empty means
// "always true".
type And struct {
	Filters []Filter
}

func (And) filterNode() {}

// Fields returns the run columns Equals may filter on, sorted.
func Fields() []string {
	return []string{"backend", "family", "name", "verdict"}
}

// FilterableField reports whether Equals may target the given field.
func FilterableField(name string) bool {
	for _, f := range Fields() {
		if f == name {
			return true
		}
	}
	return false
}
