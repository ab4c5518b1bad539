// Package memory provides an in-process [store.Table] for tests and local development.
//
// MemoryTable keeps every collection as an insertion-ordered slice of rows guarded by a
// mutex. It records each call it receives and lets tests inject failures for specific
// operations, collections or ids, which is how the consistency routines are exercised
// against partial failures without a real database.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/sonsunin65/portfolio-lugsana/pkg/store"
)

// Op names a Table operation for call recording and failure injection.
type Op string

const (
	OpSelect      Op = "select"
	OpInsert      Op = "insert"
	OpUpdate      Op = "update"
	OpDelete      Op = "delete"
	OpDeleteWhere Op = "delete_where"
)

// Call is one recorded operation. ID is empty for operations that do not target a
// single row; Rows is the number of rows passed to Insert.
type Call struct {
	Op         Op
	Collection string
	ID         string
	Rows       int
}

// FailFunc decides whether an operation should fail. Returning nil lets it proceed.
type FailFunc func(op Op, collection, id string) error

type entry struct {
	seq uint64
	row store.Row
}

// MemoryTable implements store.Table in memory.
type MemoryTable struct {
	mu          sync.Mutex
	collections map[string][]entry
	seq         uint64
	calls       []Call
	fail        FailFunc
	now         func() time.Time
}

// New creates an empty MemoryTable.
func New() *MemoryTable {
	return &MemoryTable{
		collections: make(map[string][]entry),
		now:         time.Now,
	}
}

// FailWhen installs a failure injector. Pass nil to clear it.
func (m *MemoryTable) FailWhen(fn FailFunc) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.fail = fn
}

// Calls returns a copy of the recorded calls.
func (m *MemoryTable) Calls() []Call {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Call(nil), m.calls...)
}

// ResetCalls forgets the recorded calls.
func (m *MemoryTable) ResetCalls() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = nil
}

// Len returns the number of rows in collection.
func (m *MemoryTable) Len(collection string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.collections[collection])
}

func (m *MemoryTable) record(op Op, collection, id string, rows int) error {
	m.calls = append(m.calls, Call{Op: op, Collection: collection, ID: id, Rows: rows})
	if m.fail != nil {
		return m.fail(op, collection, id)
	}
	return nil
}

func (m *MemoryTable) Select(ctx context.Context, collection string, q store.Query) ([]store.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpSelect, collection, "", 0); err != nil {
		return nil, err
	}

	var matched []entry
	for _, e := range m.collections[collection] {
		if matches(e.row, q.Filters) {
			matched = append(matched, e)
		}
	}
	sort.SliceStable(matched, func(i, j int) bool {
		for _, o := range q.OrderBy {
			c := compare(matched[i].row[o.Field], matched[j].row[o.Field])
			if c == 0 {
				continue
			}
			if o.Desc {
				return c > 0
			}
			return c < 0
		}
		return matched[i].seq < matched[j].seq
	})

	rows := make([]store.Row, 0, len(matched))
	for _, e := range matched {
		rows = append(rows, e.row.Clone())
	}
	return rows, nil
}

func (m *MemoryTable) Insert(ctx context.Context, collection string, rows []store.Row) ([]store.Row, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpInsert, collection, "", len(rows)); err != nil {
		return nil, err
	}

	out := make([]store.Row, 0, len(rows))
	for _, r := range rows {
		row := r.Clone()
		if row.ID() == "" {
			row[store.IDField] = uuid.NewString()
		}
		if _, ok := row["created_at"]; !ok {
			row["created_at"] = m.now()
		}
		m.seq++
		m.collections[collection] = append(m.collections[collection], entry{seq: m.seq, row: row})
		out = append(out, row.Clone())
	}
	return out, nil
}

func (m *MemoryTable) Update(ctx context.Context, collection, id string, fields store.Row) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpUpdate, collection, id, 0); err != nil {
		return err
	}

	for _, e := range m.collections[collection] {
		if e.row.ID() != id {
			continue
		}
		for k, v := range fields {
			if k == store.IDField {
				continue
			}
			e.row[k] = v
		}
		return nil
	}
	return fmt.Errorf("update %s %s: %w", collection, id, store.ErrNotFound)
}

func (m *MemoryTable) Delete(ctx context.Context, collection, id string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpDelete, collection, id, 0); err != nil {
		return err
	}

	entries := m.collections[collection]
	for i, e := range entries {
		if e.row.ID() == id {
			m.collections[collection] = append(entries[:i:i], entries[i+1:]...)
			return nil
		}
	}
	return fmt.Errorf("delete %s %s: %w", collection, id, store.ErrNotFound)
}

func (m *MemoryTable) DeleteWhere(ctx context.Context, collection string, filters ...store.Filter) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.record(OpDeleteWhere, collection, "", 0); err != nil {
		return err
	}

	kept := m.collections[collection][:0:0]
	for _, e := range m.collections[collection] {
		if !matches(e.row, filters) {
			kept = append(kept, e)
		}
	}
	m.collections[collection] = kept
	return nil
}

// Migrate is a no-op; collections appear on first insert.
func (m *MemoryTable) Migrate(ctx context.Context) error {
	return nil
}

func (m *MemoryTable) Close() error {
	return nil
}

func matches(row store.Row, filters []store.Filter) bool {
	for _, f := range filters {
		if !equal(row[f.Field], f.Value) {
			return false
		}
	}
	return true
}

func equal(a, b any) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return fmt.Sprint(a) == fmt.Sprint(b)
}

// compare orders numbers numerically, times chronologically and everything else by its
// string form. nil sorts first.
func compare(a, b any) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	if fa, ok := toFloat(a); ok {
		if fb, ok := toFloat(b); ok {
			switch {
			case fa < fb:
				return -1
			case fa > fb:
				return 1
			}
			return 0
		}
	}
	if ta, ok := a.(time.Time); ok {
		if tb, ok := b.(time.Time); ok {
			return ta.Compare(tb)
		}
	}
	return strings.Compare(fmt.Sprint(a), fmt.Sprint(b))
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case int:
		return float64(n), true
	case int32:
		return float64(n), true
	case int64:
		return float64(n), true
	case uint64:
		return float64(n), true
	case float32:
		return float64(n), true
	case float64:
		return n, true
	}
	return 0, false
}
