package driven

import (
	"context"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
)

// Connector produces raw documents from a personal data source (chat
// export, text files directory). The core accepts any content type and
// treats all content as indexable text.
type Connector interface {
	// Name returns the connector type identifier (used as the document
	// source tag).
	Name() string

	// Validate checks the connector is properly configured.
	Validate(ctx context.Context) error

	// Fetch loads all raw documents from the source.
	Fetch(ctx context.Context) ([]domain.RawDocument, error)

	// Watch listens for source changes and emits refreshed documents.
	// Connectors that cannot watch return domain.ErrUnsupportedType.
	Watch(ctx context.Context) (<-chan domain.RawDocument, error)

	// Close releases resources.
	Close() error
}

// Chunker splits a raw document's content into indexable documents.
// Chunking is total: every non-empty input yields at least one chunk
// unless it is entirely redacted.
type Chunker interface {
	// Name returns the chunker name for logging and configuration.
	Name() string

	// Chunk splits the raw document into embedding documents tagged with
	// the given source and back-referencing the raw document.
	Chunk(ctx context.Context, doc *domain.RawDocument, source string) ([]domain.EmbeddingDocument, error)
}
