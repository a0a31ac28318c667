package registry

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefault_CoversEveryIntent(t *testing.T) {
	cat := Default()
	for _, intent := range []string{
		"add_task", "list_tasks", "update_task", "complete_task", "incomplete_task",
		"delete_task", "complete_all", "delete_all", "summary",
	} {
		cmd, ok := cat.Lookup(intent)
		require.True(t, ok, intent)
		assert.NotEmpty(t, cmd.Examples, intent)
	}

	_, ok := cat.Lookup("unknown")
	assert.False(t, ok)
	assert.Contains(t, cat.Examples(), "list tasks")
}

func TestLoadCatalog(t *testing.T) {
	dir := t.TempDir()

	t.Run("empty path uses default", func(t *testing.T) {
		cat, err := LoadCatalog("")
		require.NoError(t, err)
		assert.Equal(t, Default().Version, cat.Version)
	})

	t.Run("file", func(t *testing.T) {
		path := filepath.Join(dir, "catalog.json")
		require.NoError(t, os.WriteFile(path, []byte(`{
			"version": "2.0.0",
			"commands": [{"intent": "list_tasks", "displayName": "List", "examples": ["what are my tasks"]}]
		}`), 0o644))

		cat, err := LoadCatalog(path)
		require.NoError(t, err)
		assert.Equal(t, "2.0.0", cat.Version)
		assert.Equal(t, []string{"what are my tasks"}, cat.Examples())
	})

	t.Run("no commands", func(t *testing.T) {
		path := filepath.Join(dir, "empty.json")
		require.NoError(t, os.WriteFile(path, []byte(`{"version": "1"}`), 0o644))

		_, err := LoadCatalog(path)
		assert.Error(t, err)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := LoadCatalog(filepath.Join(dir, "nope.json"))
		assert.Error(t, err)
	})
}
