package driven

import (
	"context"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
)

// RawDocumentStore persists raw documents and their connector-level
// connections. Backed by SQLite. It owns RawDocuments only; indexed data
// lives in the VectorIndexStore and is cascade-deleted by core services,
// not by this store.
type RawDocumentStore interface {
	// SaveConnection stores or updates a document connection.
	SaveConnection(ctx context.Context, conn *domain.DocumentConnection) error

	// GetConnection retrieves a connection by ID.
	GetConnection(ctx context.Context, id string) (*domain.DocumentConnection, error)

	// ListConnections returns all connections.
	ListConnections(ctx context.Context) ([]domain.DocumentConnection, error)

	// DeleteConnection removes a connection. Its documents are removed by
	// the caller beforehand (cascade handled in core).
	DeleteConnection(ctx context.Context, id string) error

	// SaveDocument stores or updates a raw document.
	SaveDocument(ctx context.Context, doc *domain.RawDocument) error

	// GetDocument retrieves a raw document by ID.
	GetDocument(ctx context.Context, id string) (*domain.RawDocument, error)

	// ListDocuments returns documents, optionally filtered by connection.
	// An empty connectionID returns all documents.
	ListDocuments(ctx context.Context, connectionID string) ([]domain.RawDocument, error)

	// DeleteDocuments removes raw documents by ID.
	DeleteDocuments(ctx context.Context, ids []string) error

	// Close releases resources.
	Close() error
}
