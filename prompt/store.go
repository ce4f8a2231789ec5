package prompt

import (
	"context"
	"errors"
	"strings"
)

// ErrNotFound is returned when no record matches a store query.
var ErrNotFound = errors.New("prompt not found")

// Query is a point lookup by (area, key, locals) with exact-match-
// including-null semantics: an empty local means the stored record must
// have that local unset.
type Query struct {
	Area   string
	Key    string
	Local1 string
	Local2 string
	Local3 string
}

// StoreKey returns the canonical key for this query. Locals are appended
// in order, so a record with unset locals occupies a different key than one
// with locals, which gives exact-including-null match semantics for free.
// Area, key, and locals must not contain the '.' separator.
func (q Query) StoreKey() string {
	parts := []string{q.Area, q.Key}
	for _, local := range []string{q.Local1, q.Local2, q.Local3} {
		if local == "" {
			break
		}
		parts = append(parts, local)
	}
	return strings.Join(parts, ".")
}

// QueryFor returns the store query matching a record's identity.
func QueryFor(rec *Record) Query {
	return Query{
		Area:   rec.Area,
		Key:    rec.Key,
		Local1: rec.Local1,
		Local2: rec.Local2,
		Local3: rec.Local3,
	}
}

// Store is the backing store contract consumed by the fallback lookup.
type Store interface {
	// Lookup performs a point query, returning ErrNotFound when no record
	// matches exactly.
	Lookup(ctx context.Context, q Query) (*Record, error)

	// Put inserts or replaces a record under its identity.
	Put(ctx context.Context, rec *Record) error

	// Delete removes the record matching the query. Deleting an absent
	// record is not an error.
	Delete(ctx context.Context, q Query) error
}
