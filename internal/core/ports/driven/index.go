package driven

import (
	"context"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
)

// VectorIndexStore owns the embedding index: a durable mapping from
// (implicit) vector to {id, text, metadata} with similarity search.
//
// All mutating operations are serialized through a single-writer queue so
// concurrent callers never race on the underlying index file. Callers block
// until their enqueued write completes (or their context is cancelled while
// waiting; a write already started completes rather than being aborted
// mid-write). Reads run directly against the last-persisted state.
//
// A store that has never been populated returns empty results from all
// read operations; write operations create it.
type VectorIndexStore interface {
	// Index upserts documents and returns them with assigned IDs.
	// A document equal to an existing entry under the
	// (text, timestamp, source, source_document_id) tuple updates that
	// entry in place, keeping its ID stable. extractImportance computes
	// importance eagerly for documents that do not carry one.
	Index(ctx context.Context, docs []domain.EmbeddingDocument, extractImportance bool) ([]domain.EmbeddingDocument, error)

	// Query runs a structured metadata query, optionally combined with a
	// free-text similarity search. Rows carry a per-row similarity score
	// when QueryOptions.Topic is set.
	Query(ctx context.Context, opts QueryOptions) ([]QueryHit, error)

	// Get fetches a single document by ID. Returns domain.ErrNotFound if
	// no such document exists (distinct from an empty index).
	Get(ctx context.Context, id int64) (*domain.EmbeddingDocument, error)

	// Delete removes documents by ID. Missing IDs are not an error.
	Delete(ctx context.Context, ids []int64) error

	// DeleteBySourceDocuments removes every document whose
	// source_document_id matches, returning the number of deletions.
	//
	// Known limitation: IDs are resolved via Query and then deleted; a
	// document indexed between the resolve and the delete may survive.
	// The resolve+delete pair is not atomic under concurrent writers.
	DeleteBySourceDocuments(ctx context.Context, sourceDocumentIDs []string) (int, error)

	// Count returns the number of indexed documents, optionally filtered
	// by source document membership.
	Count(ctx context.Context, sourceDocumentIDs []string) (int, error)

	// Close drains the write queue and releases resources.
	Close() error
}

// QueryOptions is a structured filter over the index.
type QueryOptions struct {
	// Topic, when non-empty, adds a free-text similarity search; each hit
	// carries a certainty score in [0,1].
	Topic string

	// SourceDocumentIDs filters by source document membership.
	SourceDocumentIDs []string

	// Identity filters by the exact dedup tuple of the given document.
	Identity *domain.EmbeddingDocument

	// Limit caps the number of rows. Zero means no explicit cap.
	Limit int

	// Offset skips rows.
	Offset int

	// OrderBy is one of the OrderBy* constants. Ignored when Topic is set
	// (similarity ranking wins).
	OrderBy string

	// GroupBySourceDocument keeps one row per source document.
	GroupBySourceDocument bool
}

// Supported orderings for metadata queries.
const (
	OrderByTimestampDesc = "timestamp_desc"
	OrderByTimestampAsc  = "timestamp_asc"
)

// QueryHit is a single query result row.
type QueryHit struct {
	// Document is the stored document.
	Document domain.EmbeddingDocument

	// Certainty is the similarity score in [0,1] when the query included
	// a topic, zero otherwise.
	Certainty float64
}
