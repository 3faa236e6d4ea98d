package domain

import "time"

// RawDocument represents an unprocessed ingested artifact: a full chat
// export, a text file, etc. It is produced by a connector and chunked into
// zero or more EmbeddingDocuments. The relational store owns RawDocuments;
// the vector index only keeps a weak back-reference to them.
type RawDocument struct {
	// ID is the unique identifier for the raw document.
	ID string `json:"id"`

	// ConnectionID links to the DocumentConnection that produced this
	// document. Empty for documents ingested directly.
	ConnectionID string `json:"connection_id"`

	// Name is the human-readable name (file name, export name).
	Name string `json:"name"`

	// ContentType is the declared content type. All content is treated
	// as indexable text regardless of this value.
	ContentType string `json:"content_type"`

	// Content is the full text content.
	Content string `json:"content"`

	// Size is the content size in bytes.
	Size int64 `json:"size"`

	// CreatedAt is when the document was ingested.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the document was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}

// DocumentConnection is a connector-level grouping of raw documents.
// Removing a connection cascades to its documents and, optionally, to
// their indexed data.
type DocumentConnection struct {
	// ID is the unique identifier for the connection.
	ID string `json:"id"`

	// ConnectorName identifies the connector that created this connection.
	ConnectorName string `json:"connector_name"`

	// Configuration contains connector-specific settings.
	Configuration map[string]any `json:"configuration"`

	// CreatedAt is when the connection was created.
	CreatedAt time.Time `json:"created_at"`

	// UpdatedAt is when the connection was last updated.
	UpdatedAt time.Time `json:"updated_at"`
}
