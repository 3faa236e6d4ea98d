// Package textfiles ingests a directory of plain text files and can watch
// it for changes.
package textfiles

import (
	"context"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/fsnotify/fsnotify"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
	"github.com/keepsake-labs/memoir-cli/internal/core/ports/driven"
	"github.com/keepsake-labs/memoir-cli/internal/logger"
)

// Ensure Connector implements the interface.
var _ driven.Connector = (*Connector)(nil)

// textExtensions are the file extensions treated as indexable text.
var textExtensions = map[string]bool{
	".txt":      true,
	".md":       true,
	".markdown": true,
	".log":      true,
}

// Connector reads text files under a root directory.
type Connector struct {
	rootPath string
	watcher  *fsnotify.Watcher
}

// New creates a text files connector rooted at rootPath.
func New(rootPath string) *Connector {
	return &Connector{rootPath: rootPath}
}

// Name returns the connector type identifier.
func (c *Connector) Name() string {
	return "text_files"
}

// Validate checks that the root path is an existing directory.
func (c *Connector) Validate(_ context.Context) error {
	info, err := os.Stat(c.rootPath)
	if err != nil {
		return fmt.Errorf("text_files: %w", err)
	}
	if !info.IsDir() {
		return fmt.Errorf("text_files: %s is not a directory", c.rootPath)
	}
	return nil
}

// Fetch loads every text file under the root as a raw document. Names are
// paths relative to the root.
func (c *Connector) Fetch(ctx context.Context) ([]domain.RawDocument, error) {
	var docs []domain.RawDocument

	err := filepath.WalkDir(c.rootPath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() || !isTextFile(path) {
			return nil
		}

		doc, err := c.loadFile(path)
		if err != nil {
			return err
		}
		docs = append(docs, *doc)
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("text_files: walk %s: %w", c.rootPath, err)
	}

	return docs, nil
}

// Watch emits a refreshed raw document whenever a text file under the
// root is created or written. The channel closes when ctx is cancelled.
func (c *Connector) Watch(ctx context.Context) (<-chan domain.RawDocument, error) {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("text_files: create watcher: %w", err)
	}
	c.watcher = watcher

	// Watch the root and all existing subdirectories
	err = filepath.WalkDir(c.rootPath, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if entry.IsDir() {
			return watcher.Add(path)
		}
		return nil
	})
	if err != nil {
		watcher.Close()
		return nil, fmt.Errorf("text_files: watch %s: %w", c.rootPath, err)
	}

	out := make(chan domain.RawDocument)
	go func() {
		defer close(out)
		defer watcher.Close()

		for {
			select {
			case <-ctx.Done():
				return

			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if !event.Has(fsnotify.Create) && !event.Has(fsnotify.Write) {
					continue
				}

				// New directories need to be added to the watch set
				if info, err := os.Stat(event.Name); err == nil && info.IsDir() {
					if err := watcher.Add(event.Name); err != nil {
						logger.Warn("Failed to watch new directory %s: %v", event.Name, err)
					}
					continue
				}

				if !isTextFile(event.Name) {
					continue
				}
				doc, err := c.loadFile(event.Name)
				if err != nil {
					logger.Warn("Failed to load changed file %s: %v", event.Name, err)
					continue
				}

				select {
				case out <- *doc:
				case <-ctx.Done():
					return
				}

			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				logger.Warn("Watcher error: %v", err)
			}
		}
	}()

	return out, nil
}

// Close releases the watcher if one is active.
func (c *Connector) Close() error {
	if c.watcher != nil {
		return c.watcher.Close()
	}
	return nil
}

func (c *Connector) loadFile(path string) (*domain.RawDocument, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", path, err)
	}

	name, err := filepath.Rel(c.rootPath, path)
	if err != nil {
		name = filepath.Base(path)
	}

	return &domain.RawDocument{
		Name:        name,
		ContentType: "text/plain",
		Content:     string(content),
		Size:        int64(len(content)),
	}, nil
}

func isTextFile(path string) bool {
	return textExtensions[strings.ToLower(filepath.Ext(path))]
}
