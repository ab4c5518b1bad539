package store

import (
	"context"
)

// ReadOnlyTable wraps a Table and rejects write operations while the site is in
// read-only mode.
//
// The admin uses read-only mode during maintenance windows, for example while a
// backup is taken or while rows are being copied between backends. The state is
// read through the isReadOnly function on every write, so it can be toggled at
// runtime without recreating the table.
//
// Writes (Insert, Update, Delete, DeleteWhere, Migrate) return ErrReadOnly; Select
// passes through.
type ReadOnlyTable struct {
	Table
	isReadOnly func() bool
}

// NewReadOnlyTable creates a read-only wrapper for a table
func NewReadOnlyTable(table Table, isReadOnly func() bool) *ReadOnlyTable {
	return &ReadOnlyTable{
		Table:      table,
		isReadOnly: isReadOnly,
	}
}

// Unwrap returns the underlying table
func (r *ReadOnlyTable) Unwrap() Table {
	return r.Table
}

func (r *ReadOnlyTable) checkReadOnly() error {
	if r.isReadOnly() {
		return ErrReadOnly
	}
	return nil
}

func (r *ReadOnlyTable) Insert(ctx context.Context, collection string, rows []Row) ([]Row, error) {
	if err := r.checkReadOnly(); err != nil {
		return nil, err
	}
	return r.Table.Insert(ctx, collection, rows)
}

func (r *ReadOnlyTable) Update(ctx context.Context, collection, id string, fields Row) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Table.Update(ctx, collection, id, fields)
}

func (r *ReadOnlyTable) Delete(ctx context.Context, collection, id string) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Table.Delete(ctx, collection, id)
}

func (r *ReadOnlyTable) DeleteWhere(ctx context.Context, collection string, filters ...Filter) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Table.DeleteWhere(ctx, collection, filters...)
}

func (r *ReadOnlyTable) Migrate(ctx context.Context) error {
	if err := r.checkReadOnly(); err != nil {
		return err
	}
	return r.Table.Migrate(ctx)
}
