package domain

import "time"

// EmbeddingDocument is the atomic indexed unit: a bounded-size text chunk
// with provenance and scoring metadata. Its persisted representation is
// owned exclusively by the vector index store.
type EmbeddingDocument struct {
	// ID is assigned by the index on first insert. Zero means unassigned.
	ID int64 `json:"id"`

	// Text is the chunk content.
	Text string `json:"text"`

	// Source tags the origin (connector name or "Unknown").
	Source string `json:"source"`

	// Importance is the lazily computed importance score in [0,1].
	// Nil means not yet computed.
	Importance *float64 `json:"importance"`

	// Timestamp is the semantic time the underlying event occurred
	// (e.g. when a message was sent), distinct from indexing time.
	Timestamp time.Time `json:"timestamp"`

	// CreatedTimestamp is when the document was first indexed.
	CreatedTimestamp time.Time `json:"created_timestamp"`

	// UpdatedTimestamp is when the document was last updated.
	// Invariant: UpdatedTimestamp >= CreatedTimestamp.
	UpdatedTimestamp time.Time `json:"updated_timestamp"`

	// SourceDocumentID is a weak back-reference to the originating raw
	// document, used for cascade deletes and grouping. Empty means none.
	SourceDocumentID string `json:"source_document_id"`
}

// NewEmbeddingDocument constructs a document with bookkeeping timestamps set.
func NewEmbeddingDocument(text, source string, timestamp time.Time) EmbeddingDocument {
	now := time.Now().UTC()
	return EmbeddingDocument{
		Text:             text,
		Source:           source,
		Timestamp:        timestamp,
		CreatedTimestamp: now,
		UpdatedTimestamp: now,
	}
}

// Touch bumps the updated timestamp.
func (d *EmbeddingDocument) Touch() {
	d.UpdatedTimestamp = time.Now().UTC()
}

// SameIdentity reports whether two documents are duplicates under
// upsert-by-equality semantics: equal (text, timestamp, source,
// source_document_id) tuples refer to the same stored entry.
func (d EmbeddingDocument) SameIdentity(other EmbeddingDocument) bool {
	return d.Text == other.Text &&
		d.Timestamp.Equal(other.Timestamp) &&
		d.Source == other.Source &&
		d.SourceDocumentID == other.SourceDocumentID
}

// ScoredDocument is an EmbeddingDocument plus per-query scores.
// It is derived at recall time and never persisted.
type ScoredDocument struct {
	EmbeddingDocument

	// Score is the composite retrieval score in [0,1].
	Score float64 `json:"score"`

	// Relevance is the similarity-derived score in [0,1].
	Relevance float64 `json:"relevance"`

	// Recency is the decay-derived score in [0,1].
	Recency float64 `json:"recency"`
}
