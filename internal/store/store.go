// Package store defines the generic persistence contract every entity
// shares: filtered search, single-row read, create, partial update, delete
// and boolean-flag toggling, all parameterized by an entity descriptor.
package store

import (
	"context"

	"tetoca.org/internal/query"
	"tetoca.org/internal/schema"
)

// Record is one entity row keyed by column name. Values are int64, float64,
// bool, string, time.Time or nil.
type Record = map[string]any

// Store is the generic CRUD forwarder. Implementations: pg (PostgreSQL)
// and memory (tests, DSN-less runs). Every operation is a single attempt;
// expected failures surface as the package's sentinel errors and anything
// else is an internal persistence fault.
type Store interface {
	// Search returns the rows matching the criteria, ordered by primary
	// key, windowed by offset and limit. A negative limit returns all
	// remaining rows.
	Search(ctx context.Context, desc *schema.Descriptor, c *query.Criteria, skip, limit int) ([]Record, error)

	// Read expects exactly one match: ErrNotFound on zero rows,
	// ErrAmbiguous when the filter matches more than one.
	Read(ctx context.Context, desc *schema.Descriptor, c *query.Criteria) (Record, error)

	// Create inserts the record and returns it with the generated primary
	// key. Uniqueness is enforced by the storage constraints; a violation
	// is reported as ErrConflict, a missing referenced row as
	// ErrBadRequest.
	Create(ctx context.Context, desc *schema.Descriptor, rec Record) (Record, error)

	// Update applies the non-key fields of patch to the single row
	// identified by the key fields, and returns the refreshed row. The
	// patch must carry every key and at least one other field.
	Update(ctx context.Context, desc *schema.Descriptor, patch Record, keys []string) (Record, error)

	// Delete removes the single matching row, cascading to dependents,
	// and returns the removed row.
	Delete(ctx context.Context, desc *schema.Descriptor, c *query.Criteria) (Record, error)

	// Toggle flips a boolean column on the single matching row and
	// returns the refreshed row.
	Toggle(ctx context.Context, desc *schema.Descriptor, column string, c *query.Criteria) (Record, error)

	// Ping reports whether the backing storage is reachable.
	Ping(ctx context.Context) error

	Close() error
}
