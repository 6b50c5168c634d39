package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func loadCatalog(t *testing.T) *Catalog {
	t.Helper()
	data, err := os.ReadFile(filepath.Join("testdata", "configured_catalog.json"))
	require.NoError(t, err)
	c, err := Decode(data)
	require.NoError(t, err)
	return c
}

func TestDecode(t *testing.T) {
	c := loadCatalog(t)

	require.Len(t, c.Streams, 3)
	assert.Equal(t, []string{"users", "orders", "countries"}, c.Names())

	users, ok := c.Stream("users")
	require.True(t, ok)
	assert.Equal(t, SyncModeIncremental, users.SyncMode)
	assert.Equal(t, []string{"updated_at"}, users.Stream.DefaultCursorField)
	assert.True(t, users.Stream.SourceDefinedCursor)
	assert.Equal(t, [][]string{{"id"}}, users.PrimaryKey)

	_, ok = c.Stream("missing")
	assert.False(t, ok)
}

func TestDecodeRequiresStreamName(t *testing.T) {
	_, err := Decode([]byte(`{"streams":[{"stream":{},"sync_mode":"incremental"}]}`))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "name is required")
}

func TestMarshalKeepsUnknownMembers(t *testing.T) {
	c := loadCatalog(t)

	data, err := c.IncrementalOnly().Marshal()
	require.NoError(t, err)
	assert.Contains(t, string(data), "is_resumable")

	again, err := Decode(data)
	require.NoError(t, err)
	assert.Equal(t, []string{"users", "orders"}, again.Names())
}

func TestIncrementalOnly(t *testing.T) {
	c := loadCatalog(t)

	inc := c.IncrementalOnly()

	assert.Equal(t, []string{"users", "orders"}, inc.Names())
	assert.Len(t, c.Streams, 3, "source catalog is not modified")
}

func TestWithDefaultCursors(t *testing.T) {
	c := loadCatalog(t).IncrementalOnly()

	filled, err := c.WithDefaultCursors()
	require.NoError(t, err)

	users, _ := filled.Stream("users")
	assert.Equal(t, []string{"updated_at"}, users.CursorField)
	orders, _ := filled.Stream("orders")
	assert.Equal(t, []string{"meta", "seq"}, orders.CursorField)

	original, _ := c.Stream("users")
	assert.Empty(t, original.CursorField, "source catalog is not modified")
}

func TestWithDefaultCursorsMissingBoth(t *testing.T) {
	c, err := Decode([]byte(`{"streams":[{"stream":{"name":"events"},"sync_mode":"incremental"}]}`))
	require.NoError(t, err)

	_, err = c.ForIncremental()

	var cfgErr *ConfigError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "events", cfgErr.Stream)
	assert.Contains(t, err.Error(), "default_cursor_field")
}

func TestResolveCursorsDefaults(t *testing.T) {
	c, err := loadCatalog(t).ForIncremental()
	require.NoError(t, err)

	locations, err := ResolveCursors(c, nil)
	require.NoError(t, err)
	require.Len(t, locations, 2)

	users := locations["users"]
	assert.Equal(t, []string{"updated_at"}, users.CursorField)
	assert.Equal(t, []string{"updated_at"}, users.StatePath)
	assert.True(t, users.Field.IsDate())

	orders := locations["orders"]
	assert.Equal(t, []string{"meta", "seq"}, orders.CursorField)
	assert.Equal(t, []string{"seq"}, orders.StatePath, "state path defaults to the last cursor element")
	assert.Equal(t, "orders: meta.seq -> seq", orders.String())
}

func TestResolveCursorsOverride(t *testing.T) {
	c, err := loadCatalog(t).ForIncremental()
	require.NoError(t, err)

	locations, err := ResolveCursors(c, map[string][]string{
		"users": {"bookmarks", "users", "updated_at"},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"bookmarks", "users", "updated_at"}, locations["users"].StatePath)
}

func TestResolveCursorsErrors(t *testing.T) {
	tests := []struct {
		name      string
		catalog   string
		overrides map[string][]string
		reason    string
	}{
		{
			name:    "cursor not in schema",
			catalog: `{"streams":[{"stream":{"name":"a","json_schema":{"properties":{"id":{"type":"integer"}}}},"sync_mode":"incremental","cursor_field":["updated_at"]}]}`,
			reason:  "not declared in json_schema",
		},
		{
			name:    "no schema at all",
			catalog: `{"streams":[{"stream":{"name":"a"},"sync_mode":"incremental","cursor_field":["updated_at"]}]}`,
			reason:  "not declared in json_schema",
		},
		{
			name:      "override for unknown stream",
			catalog:   `{"streams":[]}`,
			overrides: map[string][]string{"ghost": {"x"}},
			reason:    "not in the incremental catalog",
		},
		{
			name:      "empty override",
			catalog:   `{"streams":[{"stream":{"name":"a","json_schema":{"properties":{"c":{"type":"integer"}}}},"sync_mode":"incremental","cursor_field":["c"]}]}`,
			overrides: map[string][]string{"a": {}},
			reason:    "cursor_paths entry is empty",
		},
		{
			name:    "no cursor field",
			catalog: `{"streams":[{"stream":{"name":"a"},"sync_mode":"incremental"}]}`,
			reason:  "no cursor field",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := Decode([]byte(tt.catalog))
			require.NoError(t, err)

			_, err = ResolveCursors(c, tt.overrides)

			var cfgErr *ConfigError
			require.True(t, errors.As(err, &cfgErr), "got %v", err)
			assert.Contains(t, cfgErr.Reason, tt.reason)
		})
	}
}
