package surrealdb

import (
	"testing"
	"time"

	"github.com/sonsunin65/portfolio-lugsana/pkg/store"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdbmodels "github.com/surrealdb/surrealdb.go/pkg/models"
)

func TestBuildWhere(t *testing.T) {
	where, params, err := buildWhere("pa_works", []store.Filter{
		store.Eq("indicator_id", "i1"),
		store.Eq("id", "w1"),
	})
	require.NoError(t, err)
	assert.Equal(t, " WHERE indicator_id = $f0 AND id = type::thing($tb, $f1)", where)
	assert.Equal(t, map[string]any{"tb": "pa_works", "f0": "i1", "f1": "w1"}, params)

	where, params, err = buildWhere("stats", nil)
	require.NoError(t, err)
	assert.Empty(t, where)
	assert.Equal(t, map[string]any{"tb": "stats"}, params)

	_, _, err = buildWhere("stats", []store.Filter{store.Eq("x; DELETE stats", 1)})
	assert.Error(t, err)
}

func TestBuildOrder(t *testing.T) {
	order, err := buildOrder([]store.Order{{Field: "display_order"}, {Field: "title", Desc: true}})
	require.NoError(t, err)
	assert.Equal(t, " ORDER BY display_order ASC, title DESC, created_at ASC, id ASC", order)

	order, err = buildOrder(nil)
	require.NoError(t, err)
	assert.Empty(t, order)

	_, err = buildOrder([]store.Order{{Field: "a b"}})
	assert.Error(t, err)
}

func TestFromRecord(t *testing.T) {
	created := time.Date(2024, 5, 1, 10, 0, 0, 0, time.UTC)
	row := fromRecord(map[string]any{
		"id":         sdbmodels.RecordID{Table: "works", ID: "w1"},
		"created_at": sdbmodels.CustomDateTime{Time: created},
		"images":     []any{"a", "b"},
	})

	assert.Equal(t, "w1", row.ID())
	assert.Equal(t, created, row["created_at"])
	assert.Equal(t, []any{"a", "b"}, row["images"])
}

func TestRecordKey(t *testing.T) {
	tests := []struct {
		name string
		in   any
		want string
	}{
		{"RecordID", sdbmodels.RecordID{Table: "stats", ID: "s1"}, "s1"},
		{"RecordIDPointer", &sdbmodels.RecordID{Table: "stats", ID: "s2"}, "s2"},
		{"PlainString", "stats:s3", "s3"},
		{"EscapedString", "stats:⟨9d1c-uuid⟩", "9d1c-uuid"},
		{"BareKey", "s4", "s4"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, recordKey(tt.in))
		})
	}
}
