// Package store provides the remote table abstraction used by the portfolio backend.
//
// The admin dashboard never talks to a particular database directly. Every screen is a
// form bound to a named collection (stats, works, pa_indicators, ...) and every operation
// it needs is one of five generic calls: select, insert, update, delete by id and delete
// by filter. [Table] captures exactly that surface so the consistency routines in
// [github.com/sonsunin65/portfolio-lugsana/pkg/consistency] can coordinate multi-step
// changes without knowing which backend holds the rows.
//
// # Implementations
//
//   - [github.com/sonsunin65/portfolio-lugsana/pkg/store/postgres.PostgresTable]: PostgreSQL through GORM,
//     with schema created from [github.com/sonsunin65/portfolio-lugsana/pkg/models] by AutoMigrate
//   - [github.com/sonsunin65/portfolio-lugsana/pkg/store/surrealdb.SurrealTable]: SurrealDB through
//     parameterized SurrealQL
//   - [github.com/sonsunin65/portfolio-lugsana/pkg/store/memory.MemoryTable]: an in-process table with
//     failure injection, used by tests and local development
//
// [ReadOnlyTable] wraps any of them and rejects writes while the site is in maintenance.
//
// # Rows
//
// A [Row] is a plain map keyed by column name. The "id" column is always a string,
// generated by the store when the caller leaves it empty. Array and object columns
// (images, external_links) come back in whatever shape the driver produces; callers
// normalize them with [github.com/sonsunin65/portfolio-lugsana/pkg/models.ToList] before use.
//
// # Consistency
//
// No operation spans more than one call and nothing here is transactional across
// collections. Ordering and cleanup guarantees are the caller's job.
package store

import (
	"context"
	"errors"
	"fmt"
)

var (
	// ErrNotFound is returned by Update and Delete when no row has the given id.
	ErrNotFound = errors.New("record not found")

	// ErrReadOnly is returned by every write on a [ReadOnlyTable] in read-only mode.
	ErrReadOnly = errors.New("operation denied: site is in read-only mode")
)

// IDField is the primary key column shared by every collection.
const IDField = "id"

// Row is one record of a collection.
type Row map[string]any

// ID returns the row's primary key as a string, or "" if it has none.
func (r Row) ID() string {
	return r.String(IDField)
}

// String returns the named column as a string. Missing and nil values yield "".
func (r Row) String(field string) string {
	v, ok := r[field]
	if !ok || v == nil {
		return ""
	}
	if s, ok := v.(string); ok {
		return s
	}
	if s, ok := v.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprint(v)
}

// Clone returns a shallow copy of the row.
func (r Row) Clone() Row {
	out := make(Row, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Filter is an equality predicate on one column.
type Filter struct {
	Field string
	Value any
}

// Eq builds a Filter.
func Eq(field string, value any) Filter {
	return Filter{Field: field, Value: value}
}

// Order sorts a selection by one column.
type Order struct {
	Field string
	Desc  bool
}

// Query selects rows matching all Filters, sorted by OrderBy. Rows that compare equal on
// every OrderBy column keep the store's default order (insertion order).
type Query struct {
	Filters []Filter
	OrderBy []Order
}

// Where returns a Query with the given filters.
func Where(filters ...Filter) Query {
	return Query{Filters: filters}
}

// OrderedBy returns a copy of q that additionally sorts ascending by field.
func (q Query) OrderedBy(field string) Query {
	q.OrderBy = append(append([]Order(nil), q.OrderBy...), Order{Field: field})
	return q
}

// Table defines the remote table operations the portfolio backend relies on.
//
// All methods accept a context for cancellation and timeouts; the table is the only place
// deadlines are enforced. Implementations must be safe for concurrent use.
type Table interface {
	// Select returns the rows of collection matching q. It returns an empty slice,
	// never an error, when nothing matches.
	Select(ctx context.Context, collection string, q Query) ([]Row, error)

	// Insert adds rows to collection and returns them as stored, with generated ids
	// and timestamps filled in. Inserting zero rows is a no-op.
	Insert(ctx context.Context, collection string, rows []Row) ([]Row, error)

	// Update sets the given fields on the row with id. It returns an error wrapping
	// ErrNotFound when no such row exists.
	Update(ctx context.Context, collection, id string, fields Row) error

	// Delete removes the row with id. It returns an error wrapping ErrNotFound when no
	// such row exists.
	Delete(ctx context.Context, collection, id string) error

	// DeleteWhere removes every row matching all filters. With no filters it empties
	// the collection.
	DeleteWhere(ctx context.Context, collection string, filters ...Filter) error

	// Migrate prepares the backend schema. It is safe to run repeatedly.
	Migrate(ctx context.Context) error

	// Close releases the underlying connection.
	Close() error
}
