package file

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfigStore(t *testing.T) {
	t.Run("set and get round-trip", func(t *testing.T) {
		store, err := NewConfigStore(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, store.Set("llm.backend", "local"))
		require.NoError(t, store.Set("index.importance_calls_per_second", 2.5))
		require.NoError(t, store.Set("api.port", int64(8181)))
		require.NoError(t, store.Set("persona.enabled", true))

		assert.Equal(t, "local", store.GetString("llm.backend"))
		assert.Equal(t, 2.5, store.GetFloat("index.importance_calls_per_second"))
		assert.Equal(t, 8181, store.GetInt("api.port"))
		assert.True(t, store.GetBool("persona.enabled"))
	})

	t.Run("persists across loads", func(t *testing.T) {
		dir := t.TempDir()

		store, err := NewConfigStore(dir)
		require.NoError(t, err)
		require.NoError(t, store.Set("embedding.provider", "ollama"))
		require.NoError(t, store.Set("embedding.model", "nomic-embed-text"))

		reopened, err := NewConfigStore(dir)
		require.NoError(t, err)
		assert.Equal(t, "ollama", reopened.GetString("embedding.provider"))
		assert.Equal(t, "nomic-embed-text", reopened.GetString("embedding.model"))
	})

	t.Run("saves dotted keys as nested tables", func(t *testing.T) {
		dir := t.TempDir()

		store, err := NewConfigStore(dir)
		require.NoError(t, err)
		require.NoError(t, store.Set("openai.api_key", "sk-test"))

		content, err := os.ReadFile(filepath.Join(dir, "config.toml"))
		require.NoError(t, err)
		assert.Contains(t, string(content), "[openai]")
		assert.Contains(t, string(content), "api_key")
	})

	t.Run("missing keys return zero values", func(t *testing.T) {
		store, err := NewConfigStore(t.TempDir())
		require.NoError(t, err)

		assert.Empty(t, store.GetString("nope"))
		assert.Zero(t, store.GetInt("nope"))
		assert.Zero(t, store.GetFloat("nope"))
		assert.False(t, store.GetBool("nope"))

		_, ok := store.Get("nope")
		assert.False(t, ok)
	})

	t.Run("delete removes the key", func(t *testing.T) {
		store, err := NewConfigStore(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, store.Set("llm.backend", "hosted"))
		require.NoError(t, store.Delete("llm.backend"))

		_, ok := store.Get("llm.backend")
		assert.False(t, ok)
	})

	t.Run("widens integers to floats", func(t *testing.T) {
		store, err := NewConfigStore(t.TempDir())
		require.NoError(t, err)

		require.NoError(t, store.Set("index.importance_calls_per_second", int64(3)))
		assert.Equal(t, 3.0, store.GetFloat("index.importance_calls_per_second"))
	})

	t.Run("config file is created with restricted permissions", func(t *testing.T) {
		dir := t.TempDir()
		store, err := NewConfigStore(dir)
		require.NoError(t, err)
		require.NoError(t, store.Set("openai.api_key", "sk-test"))

		info, err := os.Stat(filepath.Join(dir, "config.toml"))
		require.NoError(t, err)
		assert.Equal(t, os.FileMode(0600), info.Mode().Perm())
	})
}
