package chatexport

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
	"github.com/keepsake-labs/memoir-cli/internal/core/ports/driven"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// Connector loads chat export files. path may be a single export file or
// a directory of .json exports.
type Connector struct {
	path string
}

// New creates a chat export connector for the given path.
func New(path string) *Connector {
	return &Connector{path: path}
}

// Name returns the connector type identifier.
func (c *Connector) Name() string {
	return "chat_export"
}

// Validate checks that the path exists and at least one export parses.
func (c *Connector) Validate(ctx context.Context) error {
	docs, err := c.Fetch(ctx)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		return fmt.Errorf("chat_export: no export files found at %s", c.path)
	}
	for _, doc := range docs {
		if _, err := Parse(doc.Content); err != nil {
			return fmt.Errorf("chat_export: %s: %w", doc.Name, err)
		}
	}
	return nil
}

// Fetch loads all export files as raw documents.
func (c *Connector) Fetch(ctx context.Context) ([]domain.RawDocument, error) {
	info, err := os.Stat(c.path)
	if err != nil {
		return nil, fmt.Errorf("chat_export: %w", err)
	}

	var paths []string
	if info.IsDir() {
		entries, err := os.ReadDir(c.path)
		if err != nil {
			return nil, fmt.Errorf("chat_export: read directory: %w", err)
		}
		for _, entry := range entries {
			if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
				continue
			}
			paths = append(paths, filepath.Join(c.path, entry.Name()))
		}
	} else {
		paths = []string{c.path}
	}

	docs := make([]domain.RawDocument, 0, len(paths))
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		content, err := os.ReadFile(path)
		if err != nil {
			return nil, fmt.Errorf("chat_export: read %s: %w", path, err)
		}

		docs = append(docs, domain.RawDocument{
			Name:        filepath.Base(path),
			ContentType: "application/json",
			Content:     string(content),
			Size:        int64(len(content)),
		})
	}
	return docs, nil
}

// Watch is not supported for one-shot exports.
func (c *Connector) Watch(_ context.Context) (<-chan domain.RawDocument, error) {
	return nil, domain.ErrUnsupportedType
}

// Close releases resources.
func (c *Connector) Close() error {
	return nil
}
