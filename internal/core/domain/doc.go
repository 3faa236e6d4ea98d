// Package domain defines the core business entities for Memoir.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - EmbeddingDocument: An indexed, embeddable text chunk with provenance
//   - ScoredDocument: An EmbeddingDocument with per-query scores
//   - RawDocument: An unprocessed ingested artifact (chat export, text file)
//   - DocumentConnection: A connector-level grouping of raw documents
//   - ChatCompletionRequest / CompletionRequest: In-flight completion requests
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
