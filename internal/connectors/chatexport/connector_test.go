package chatexport

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
)

const validExport = `[{"from": "alice", "value": "hi", "timestamp": "2024-03-01T10:00:00Z"}]`

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0600))
	return path
}

func TestConnectorFetch(t *testing.T) {
	ctx := context.Background()

	t.Run("loads a single export file", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "export.json", validExport)

		docs, err := New(path).Fetch(ctx)
		require.NoError(t, err)
		require.Len(t, docs, 1)

		assert.Equal(t, "export.json", docs[0].Name)
		assert.Equal(t, "application/json", docs[0].ContentType)
		assert.Equal(t, validExport, docs[0].Content)
		assert.Equal(t, int64(len(validExport)), docs[0].Size)
	})

	t.Run("loads all json files in a directory", func(t *testing.T) {
		dir := t.TempDir()
		writeFile(t, dir, "a.json", validExport)
		writeFile(t, dir, "b.json", validExport)
		writeFile(t, dir, "notes.txt", "not an export")

		docs, err := New(dir).Fetch(ctx)
		require.NoError(t, err)
		assert.Len(t, docs, 2)
	})

	t.Run("missing path fails", func(t *testing.T) {
		_, err := New(filepath.Join(t.TempDir(), "nope.json")).Fetch(ctx)
		assert.Error(t, err)
	})
}

func TestConnectorValidate(t *testing.T) {
	ctx := context.Background()

	t.Run("accepts a parseable export", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "export.json", validExport)
		assert.NoError(t, New(path).Validate(ctx))
	})

	t.Run("rejects an unparseable export", func(t *testing.T) {
		path := writeFile(t, t.TempDir(), "export.json", "not json")
		assert.Error(t, New(path).Validate(ctx))
	})

	t.Run("rejects a directory without exports", func(t *testing.T) {
		assert.Error(t, New(t.TempDir()).Validate(ctx))
	})
}

func TestConnectorWatch(t *testing.T) {
	_, err := New(t.TempDir()).Watch(context.Background())
	assert.ErrorIs(t, err, domain.ErrUnsupportedType)
}
