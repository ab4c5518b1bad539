package models

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestToList(t *testing.T) {
	tests := []struct {
		name  string
		input any
		want  []string
	}{
		{"Nil", nil, []string{}},
		{"EmptyString", "", []string{}},
		{"BareString", "https://x/a.webp", []string{"https://x/a.webp"}},
		{"JSONString", `["a","b"]`, []string{"a", "b"}},
		{"JSONBytes", []byte(`["a"]`), []string{"a"}},
		{"JSONNull", []byte("null"), []string{}},
		{"StringSlice", []string{"a", "b", "c"}, []string{"a", "b", "c"}},
		{"AnySlice", []any{"a", "b"}, []string{"a", "b"}},
		{"Duplicates", []any{"a", "a"}, []string{"a", "a"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ToList(tt.input)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestToList_Malformed(t *testing.T) {
	for name, input := range map[string]any{
		"Number":       42,
		"MixedSlice":   []any{"a", 1},
		"Object":       map[string]any{"url": "a"},
		"BrokenJSON":   "[\"a\",",
		"NumbersArray": `[1,2]`,
	} {
		t.Run(name, func(t *testing.T) {
			_, err := ToList(input)
			assert.Error(t, err)
		})
	}
}

func TestStringList_JSON(t *testing.T) {
	var a Activity
	require.NoError(t, json.Unmarshal([]byte(`{"title":"camp","images":"legacy.webp"}`), &a))
	assert.Equal(t, StringList{"legacy.webp"}, a.Images)

	a.Images = nil
	b, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(b), `"images":[]`)
}

func TestStringList_ValueScan(t *testing.T) {
	v, err := StringList{"a", "b"}.Value()
	require.NoError(t, err)
	assert.Equal(t, `["a","b"]`, v)

	var l StringList
	require.NoError(t, l.Scan(v))
	assert.Equal(t, StringList{"a", "b"}, l)

	require.NoError(t, l.Scan(nil))
	assert.Empty(t, l)

	assert.Error(t, l.Scan(3.5))
}
