package services

import (
	"context"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
	"github.com/keepsake-labs/memoir-cli/internal/core/ports/driven"
)

// mockIndex is a scriptable VectorIndexStore.
type mockIndex struct {
	count    int
	countErr error

	hits     []driven.QueryHit
	queryErr error

	lastQuery *driven.QueryOptions

	indexed  []domain.EmbeddingDocument
	indexErr error

	deletedSourceIDs []string
	deleteBySourceN  int
}

func (m *mockIndex) Index(_ context.Context, docs []domain.EmbeddingDocument, _ bool) ([]domain.EmbeddingDocument, error) {
	if m.indexErr != nil {
		return nil, m.indexErr
	}
	out := make([]domain.EmbeddingDocument, len(docs))
	copy(out, docs)
	for i := range out {
		out[i].ID = int64(i + 1)
	}
	m.indexed = append(m.indexed, out...)
	return out, nil
}

func (m *mockIndex) Query(_ context.Context, opts driven.QueryOptions) ([]driven.QueryHit, error) {
	m.lastQuery = &opts
	if m.queryErr != nil {
		return nil, m.queryErr
	}
	return m.hits, nil
}

func (m *mockIndex) Get(_ context.Context, id int64) (*domain.EmbeddingDocument, error) {
	for _, hit := range m.hits {
		if hit.Document.ID == id {
			doc := hit.Document
			return &doc, nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockIndex) Delete(_ context.Context, _ []int64) error {
	return nil
}

func (m *mockIndex) DeleteBySourceDocuments(_ context.Context, sourceDocumentIDs []string) (int, error) {
	m.deletedSourceIDs = append(m.deletedSourceIDs, sourceDocumentIDs...)
	return m.deleteBySourceN, nil
}

func (m *mockIndex) Count(_ context.Context, _ []string) (int, error) {
	return m.count, m.countErr
}

func (m *mockIndex) Close() error { return nil }

// mockCompletion is a scriptable CompletionService recording the last
// prompt it saw.
type mockCompletion struct {
	completeResponse string
	completeErr      error
	chatResponse     string
	chatErr          error

	lastPrompt   string
	lastMessages []driven.ChatMessage
	lastOptions  driven.CompleteOptions
}

func (m *mockCompletion) Complete(_ context.Context, prompt string, opts driven.CompleteOptions) (string, error) {
	m.lastPrompt = prompt
	m.lastOptions = opts
	return m.completeResponse, m.completeErr
}

func (m *mockCompletion) Chat(_ context.Context, messages []driven.ChatMessage, opts driven.CompleteOptions) (string, error) {
	m.lastMessages = messages
	m.lastOptions = opts
	return m.chatResponse, m.chatErr
}

func (m *mockCompletion) CompleteWithTool(_ context.Context, _ string, _ driven.Tool, _ driven.CompleteOptions) ([]byte, error) {
	return nil, nil
}

func (m *mockCompletion) ModelName() string { return "mock" }
func (m *mockCompletion) Close() error      { return nil }

// mockRecall is a scriptable RecallService recording the last call.
type mockRecall struct {
	result *domain.RecallResult
	err    error

	lastTopic string
	lastOpts  domain.RecallOptions
}

func (m *mockRecall) Recall(_ context.Context, topic string, opts domain.RecallOptions) (*domain.RecallResult, error) {
	m.lastTopic = topic
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.result, nil
}
