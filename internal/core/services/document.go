package services

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
	"github.com/keepsake-labs/memoir-cli/internal/core/ports/driven"
	"github.com/keepsake-labs/memoir-cli/internal/core/ports/driving"
	"github.com/keepsake-labs/memoir-cli/internal/logger"
)

// Ensure DocumentManager implements the interface.
var _ driving.DocumentService = (*DocumentManager)(nil)

// DocumentManager handles the raw document lifecycle: ingestion, chunking
// into the vector index, and deletion with optional cascade to indexed
// data.
type DocumentManager struct {
	store        driven.RawDocumentStore
	index        driven.VectorIndexStore
	chatChunker  driven.Chunker
	plainChunker driven.Chunker
}

// NewDocumentManager creates a document manager. chatChunker handles
// chat-shaped documents; plainChunker handles everything else.
func NewDocumentManager(
	store driven.RawDocumentStore,
	index driven.VectorIndexStore,
	chatChunker driven.Chunker,
	plainChunker driven.Chunker,
) *DocumentManager {
	return &DocumentManager{
		store:        store,
		index:        index,
		chatChunker:  chatChunker,
		plainChunker: plainChunker,
	}
}

// Ingest stores raw documents under the given connection. Documents
// without an ID are assigned one; sizes and timestamps are filled in.
func (m *DocumentManager) Ingest(ctx context.Context, conn *domain.DocumentConnection, docs []domain.RawDocument) ([]domain.RawDocument, error) {
	logger.Section("Document Ingestion")
	now := time.Now().UTC()

	if conn != nil {
		if conn.ID == "" {
			conn.ID = uuid.NewString()
			conn.CreatedAt = now
		}
		conn.UpdatedAt = now
		if err := m.store.SaveConnection(ctx, conn); err != nil {
			return nil, fmt.Errorf("save connection: %w", err)
		}
	}

	saved := make([]domain.RawDocument, 0, len(docs))
	for _, doc := range docs {
		if doc.ID == "" {
			doc.ID = uuid.NewString()
			doc.CreatedAt = now
		}
		if conn != nil {
			doc.ConnectionID = conn.ID
		}
		doc.Size = int64(len(doc.Content))
		doc.UpdatedAt = now

		if err := m.store.SaveDocument(ctx, &doc); err != nil {
			return nil, fmt.Errorf("save document %s: %w", doc.Name, err)
		}
		saved = append(saved, doc)
	}

	logger.Info("Ingested %d documents", len(saved))
	return saved, nil
}

// IndexDocuments chunks the given raw documents and upserts the chunks
// into the vector index. Re-indexing an unchanged document is a no-op at
// the index level because upsert dedupes on content identity.
func (m *DocumentManager) IndexDocuments(ctx context.Context, documentIDs []string, isChat, extractImportance bool) ([]domain.EmbeddingDocument, error) {
	logger.Section("Document Indexing")

	chunker := m.plainChunker
	if isChat {
		chunker = m.chatChunker
	}
	if chunker == nil {
		return nil, fmt.Errorf("index documents: no chunker configured")
	}

	var chunks []domain.EmbeddingDocument
	for _, id := range documentIDs {
		doc, err := m.store.GetDocument(ctx, id)
		if err != nil {
			return nil, fmt.Errorf("get document %s: %w", id, err)
		}

		docChunks, err := chunker.Chunk(ctx, doc, doc.Name)
		if err != nil {
			return nil, fmt.Errorf("chunk document %s: %w", id, err)
		}
		logger.Debug("Document %s: %d chunks (%s)", id, len(docChunks), chunker.Name())
		chunks = append(chunks, docChunks...)
	}

	if len(chunks) == 0 {
		logger.Debug("Nothing to index")
		return []domain.EmbeddingDocument{}, nil
	}

	indexed, err := m.index.Index(ctx, chunks, extractImportance)
	if err != nil {
		return nil, fmt.Errorf("index chunks: %w", err)
	}

	logger.Info("Indexed %d chunks from %d documents", len(indexed), len(documentIDs))
	return indexed, nil
}

// UnindexDocuments removes indexed data derived from the given raw
// documents, leaving the raw documents in place.
func (m *DocumentManager) UnindexDocuments(ctx context.Context, documentIDs []string) (int, error) {
	if len(documentIDs) == 0 {
		return 0, nil
	}

	removed, err := m.index.DeleteBySourceDocuments(ctx, documentIDs)
	if err != nil {
		return 0, fmt.Errorf("unindex documents: %w", err)
	}

	logger.Info("Removed %d indexed chunks for %d documents", removed, len(documentIDs))
	return removed, nil
}

// ListDocuments returns raw documents, optionally scoped to a connection.
func (m *DocumentManager) ListDocuments(ctx context.Context, connectionID string) ([]domain.RawDocument, error) {
	docs, err := m.store.ListDocuments(ctx, connectionID)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	return docs, nil
}

// RemoveDocuments deletes raw documents, cascading to their indexed data
// when requested. Indexed data is removed first so a failure never leaves
// orphaned chunks pointing at deleted documents.
func (m *DocumentManager) RemoveDocuments(ctx context.Context, documentIDs []string, deleteIndexedData bool) error {
	if len(documentIDs) == 0 {
		return nil
	}

	if deleteIndexedData {
		if _, err := m.UnindexDocuments(ctx, documentIDs); err != nil {
			return err
		}
	}

	if err := m.store.DeleteDocuments(ctx, documentIDs); err != nil {
		return fmt.Errorf("delete documents: %w", err)
	}

	logger.Info("Removed %d documents (cascade=%t)", len(documentIDs), deleteIndexedData)
	return nil
}

// RemoveConnection deletes a connection and, when requested, its documents
// and their indexed data.
func (m *DocumentManager) RemoveConnection(ctx context.Context, connectionID string, deleteDocuments, deleteIndexedData bool) error {
	if _, err := m.store.GetConnection(ctx, connectionID); err != nil {
		if errors.Is(err, domain.ErrNotFound) {
			return fmt.Errorf("connection %s: %w", connectionID, domain.ErrNotFound)
		}
		return fmt.Errorf("get connection %s: %w", connectionID, err)
	}

	if deleteDocuments {
		docs, err := m.store.ListDocuments(ctx, connectionID)
		if err != nil {
			return fmt.Errorf("list connection documents: %w", err)
		}

		ids := make([]string, 0, len(docs))
		for _, doc := range docs {
			ids = append(ids, doc.ID)
		}
		if err := m.RemoveDocuments(ctx, ids, deleteIndexedData); err != nil {
			return err
		}
	}

	if err := m.store.DeleteConnection(ctx, connectionID); err != nil {
		return fmt.Errorf("delete connection %s: %w", connectionID, err)
	}

	logger.Info("Removed connection %s", connectionID)
	return nil
}

// IndexedDocumentCount reports how many embedding documents exist,
// optionally filtered to chunks derived from the given raw documents.
func (m *DocumentManager) IndexedDocumentCount(ctx context.Context, documentIDs []string) (int, error) {
	count, err := m.index.Count(ctx, documentIDs)
	if err != nil {
		return 0, fmt.Errorf("count indexed documents: %w", err)
	}
	return count, nil
}
