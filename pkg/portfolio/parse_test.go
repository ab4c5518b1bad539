package portfolio

import (
	"bytes"
	"io"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParse(t *testing.T) {
	t.Setenv("POSTGRES_DSN", "postgres://u:p@db:5432/portfolio")
	t.Setenv("STORAGE_PUBLIC_URL", "https://abc.supabase.co")
	t.Setenv("PORT", "")

	cmd, config, err := Parse([]string{"run", "--backend", "memory", "--storage", "memory", "--read-only", "--allowed-origins", "https://a.example, https://b.example"}, io.Discard)
	require.NoError(t, err)
	assert.IsType(t, &RunCommand{}, cmd)
	assert.Equal(t, BackendMemory, config.Backend)
	assert.Equal(t, StorageMemory, config.Storage)
	assert.True(t, config.ReadOnly)
	assert.Equal(t, "8080", config.ServerPort)
	assert.Equal(t, []string{"https://a.example", "https://b.example"}, config.AllowedOrigins)
	assert.Equal(t, "postgres://u:p@db:5432/portfolio", config.PostgresDSN)
	assert.Equal(t, "https://abc.supabase.co", config.StoragePublicURL)
	assert.Equal(t, "ws://localhost:8000/rpc", config.SurrealDBURL)
}

func TestParseEnvironmentDefaults(t *testing.T) {
	t.Setenv("PORTFOLIO_BACKEND", "surrealdb")
	t.Setenv("PORTFOLIO_READ_ONLY", "true")
	t.Setenv("PORT", "9090")

	cmd, config, err := Parse([]string{"migrate"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, "migrate", cmd.Name())
	assert.Equal(t, BackendSurrealDB, config.Backend)
	assert.True(t, config.ReadOnly)
	assert.Equal(t, "9090", config.ServerPort)
	assert.Equal(t, []string{"*"}, config.AllowedOrigins)
}

func TestParseCleanup(t *testing.T) {
	cmd, _, err := Parse([]string{"cleanup", "pa_categories", "abc"}, io.Discard)
	require.NoError(t, err)
	assert.Equal(t, &CleanupCommand{Collection: "pa_categories", ID: "abc"}, cmd)

	_, _, err = Parse([]string{"cleanup", "users", "abc"}, io.Discard)
	assert.ErrorContains(t, err, "unknown collection")

	_, _, err = Parse([]string{"cleanup", "works"}, io.Discard)
	assert.Error(t, err)
}

func TestParseErrors(t *testing.T) {
	tests := []struct {
		name string
		args []string
	}{
		{"NoCommand", nil},
		{"UnknownCommand", []string{"serve"}},
		{"BadBackend", []string{"run", "--backend", "mysql"}},
		{"BadStorage", []string{"run", "--storage", "gcs"}},
		{"UnknownFlag", []string{"run", "--verbose"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var out bytes.Buffer
			cmd, config, err := Parse(tt.args, &out)
			assert.Error(t, err)
			assert.Nil(t, cmd)
			assert.Nil(t, config)
		})
	}
}

func TestParseHelp(t *testing.T) {
	for _, args := range [][]string{{"--help"}, {"run", "--help"}, {"help"}} {
		var out bytes.Buffer
		cmd, config, err := Parse(args, &out)
		assert.ErrorIs(t, err, ErrHelp, args)
		assert.Nil(t, cmd)
		assert.Nil(t, config)
		assert.Contains(t, out.String(), "Usage:", args)
	}

	var out bytes.Buffer
	_, _, err := Parse(nil, &out)
	assert.ErrorContains(t, err, "subcommand required")
}

func TestDefaultCollections(t *testing.T) {
	colls := DefaultCollections()

	for name, c := range colls {
		assert.Equal(t, name, c.Name)
		assert.Equal(t, name, c.Tree.Collection, "cascade tree is rooted at the collection itself")
		if c.Reorderable() {
			require.NotEmpty(t, c.OrderBy, name)
			assert.Equal(t, c.PositionField, c.OrderBy[0].Field, name)
		}
	}

	assert.Equal(t, "pa_indicators", colls["pa_categories"].Tree.Children[0].Collection)
	assert.Len(t, colls["pa_indicators"].Tree.Children, 2)
	assert.False(t, colls["messages"].Public)

	works := colls["pa_works"].BlobFields()
	require.Len(t, works, 1)
	assert.True(t, works[0].SkipIf(map[string]any{"work_type": "link"}))
	assert.False(t, works[0].SkipIf(map[string]any{"work_type": "file"}))
}
