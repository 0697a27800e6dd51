// Package aggregate merges independently shaped scouting record streams into
// the nested viewer structure.
//
// A build walks the registry's collections in order, derives a natural key
// for every record, finds (or creates) the leaf at that key path and merges
// the sanitized record into it. Later collections win field conflicts. The
// package knows nothing about HTTP or storage: records arrive through the
// DataSource interface and the result is a plain View value owned by the
// caller.
package aggregate

import (
	"context"
	"iter"
	"maps"

	"github.com/citruscircuits/grosbeak/internal/registry"
)

// Record is one source document: an open mapping from field name to a
// JSON-compatible value.
type Record map[string]any

// Clone returns a shallow copy of the record.
func (r Record) Clone() Record {
	if r == nil {
		return Record{}
	}
	return maps.Clone(r)
}

// Node is one level of a per-type tree. Intermediate levels map key
// components to child Nodes; leaves map field names to values.
type Node map[string]any

// View is the aggregated output: one tree per document type. Every document
// type of the registry is present, even when its tree is empty.
type View map[registry.DocumentType]Node

// DataSource yields the records of a collection. Sequences are finite and
// single pass; a collection that does not exist yields nothing. An error
// yielded by the sequence aborts the build.
//
//go:generate mockgen -destination=mocks/mock_data_source.go -package=mocks -source=types.go DataSource
type DataSource interface {
	Fetch(ctx context.Context, collection string) iter.Seq2[Record, error]
}

// DataSourceFunc adapts a function to the DataSource interface.
type DataSourceFunc func(ctx context.Context, collection string) iter.Seq2[Record, error]

// Fetch calls f(ctx, collection).
func (f DataSourceFunc) Fetch(ctx context.Context, collection string) iter.Seq2[Record, error] {
	return f(ctx, collection)
}

// Set is a set of strings, used for the collection and field filters.
type Set map[string]struct{}

// NewSet builds a set from the given values.
func NewSet(values ...string) Set {
	s := make(Set, len(values))
	for _, v := range values {
		s[v] = struct{}{}
	}
	return s
}

// Has reports whether v is in the set. A nil set is empty.
func (s Set) Has(v string) bool {
	_, ok := s[v]
	return ok
}

// Options controls a single build.
type Options struct {
	// UseStrings renders non-primitive field values as strings
	UseStrings bool

	// IgnoredCollections are skipped entirely
	IgnoredCollections Set

	// IgnoredStringifyFields are never stringified
	IgnoredStringifyFields Set

	// IgnoredStringifyCollections are never stringified
	IgnoredStringifyCollections Set
}

// BuildStats reports how much input a build consumed.
type BuildStats struct {
	Collections int
	Records     int
}
