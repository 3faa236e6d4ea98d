package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	// Only explicit fetch-by-id operations return this; bulk queries on
	// missing data return empty results instead.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrInvalidWeights indicates a score weight configuration that is
	// negative or sums to zero.
	ErrInvalidWeights = errors.New("invalid score weights")

	// ErrLLMUnavailable indicates no completion backend is configured.
	// Query generation, importance scoring and summarization need one.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not
	// configured. Similarity search is disabled without embeddings.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrIndexClosed indicates the vector index store has been closed and
	// its write queue no longer accepts work.
	ErrIndexClosed = errors.New("vector index closed")

	// ErrAugmentationDisabled indicates the request opted out of
	// augmentation.
	ErrAugmentationDisabled = errors.New("augmentation disabled for request")

	// ErrUnsupportedType indicates an unknown connector type.
	ErrUnsupportedType = errors.New("unsupported type")
)
