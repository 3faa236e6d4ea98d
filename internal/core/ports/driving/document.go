package driving

import (
	"context"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
)

// DocumentService manages raw documents and their indexed data.
type DocumentService interface {
	// Ingest stores raw documents produced by a connector under a
	// connection and returns them with assigned IDs.
	Ingest(ctx context.Context, conn *domain.DocumentConnection, docs []domain.RawDocument) ([]domain.RawDocument, error)

	// IndexDocuments chunks and indexes the given raw documents. isChat
	// selects message-window chunking; otherwise sentence chunking is
	// used. extractImportance computes importance scores eagerly.
	IndexDocuments(ctx context.Context, documentIDs []string, isChat, extractImportance bool) ([]domain.EmbeddingDocument, error)

	// UnindexDocuments removes indexed data derived from the given raw
	// documents without touching the raw documents themselves.
	UnindexDocuments(ctx context.Context, documentIDs []string) (int, error)

	// ListDocuments returns raw documents, optionally scoped to a
	// connection.
	ListDocuments(ctx context.Context, connectionID string) ([]domain.RawDocument, error)

	// RemoveDocuments deletes raw documents; when deleteIndexedData is
	// true, every indexed document whose source_document_id matches is
	// cascade-deleted as well.
	RemoveDocuments(ctx context.Context, documentIDs []string, deleteIndexedData bool) error

	// RemoveConnection deletes a connection, cascading to its documents
	// and, when deleteIndexedData is true, to their indexed data.
	RemoveConnection(ctx context.Context, connectionID string, deleteDocuments, deleteIndexedData bool) error

	// IndexedDocumentCount reports how many embedding documents exist,
	// optionally filtered to the given raw documents.
	IndexedDocumentCount(ctx context.Context, documentIDs []string) (int, error)
}
