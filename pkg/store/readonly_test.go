package store_test

import (
	"context"
	"testing"

	"github.com/sonsunin65/portfolio-lugsana/pkg/store"
	"github.com/sonsunin65/portfolio-lugsana/pkg/store/memory"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestReadOnlyTable(t *testing.T) {
	ctx := context.Background()
	inner := memory.New()
	rows, err := inner.Insert(ctx, "stats", []store.Row{{"title": "a"}})
	require.NoError(t, err)
	id := rows[0].ID()

	readOnly := true
	table := store.NewReadOnlyTable(inner, func() bool { return readOnly })
	assert.Same(t, inner, table.Unwrap())

	_, err = table.Insert(ctx, "stats", []store.Row{{"title": "b"}})
	assert.ErrorIs(t, err, store.ErrReadOnly)
	assert.ErrorIs(t, table.Update(ctx, "stats", id, store.Row{"title": "c"}), store.ErrReadOnly)
	assert.ErrorIs(t, table.Delete(ctx, "stats", id), store.ErrReadOnly)
	assert.ErrorIs(t, table.DeleteWhere(ctx, "stats"), store.ErrReadOnly)
	assert.ErrorIs(t, table.Migrate(ctx), store.ErrReadOnly)

	got, err := table.Select(ctx, "stats", store.Query{})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "a", got[0]["title"])

	readOnly = false
	require.NoError(t, table.Update(ctx, "stats", id, store.Row{"title": "c"}))
	require.NoError(t, table.Delete(ctx, "stats", id))
	assert.Equal(t, 0, inner.Len("stats"))
}
