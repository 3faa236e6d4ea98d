package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
	"github.com/keepsake-labs/memoir-cli/internal/core/ports/driven"
)

type mockRecall struct {
	result *domain.RecallResult
	err    error

	lastTopic string
	lastOpts  domain.RecallOptions
}

func (m *mockRecall) Recall(_ context.Context, topic string, opts domain.RecallOptions) (*domain.RecallResult, error) {
	m.lastTopic = topic
	m.lastOpts = opts
	return m.result, m.err
}

// mockAugmenter marks requests so tests can see that augmentation ran.
type mockAugmenter struct {
	note string
	err  error
}

func (m *mockAugmenter) AugmentChat(_ context.Context, req domain.ChatCompletionRequest) (domain.ChatCompletionRequest, domain.AugmentState, error) {
	if m.err != nil {
		return req, domain.AugmentStateUnaugmented, m.err
	}
	out := req.Clone()
	out.Messages = append(out.Messages, domain.Message{Role: domain.RoleSystem, Content: m.note})
	return out, domain.AugmentStateAugmented, nil
}

func (m *mockAugmenter) AugmentCompletion(_ context.Context, req domain.CompletionRequest) (domain.CompletionRequest, domain.AugmentState, error) {
	if m.err != nil {
		return req, domain.AugmentStateUnaugmented, m.err
	}
	out := req
	out.Prompt = m.note + "\n\n" + req.Prompt
	return out, domain.AugmentStateAugmented, nil
}

type mockDocuments struct {
	ingested  []domain.RawDocument
	removed   []string
	cascade   bool
	unindexed int
}

func (m *mockDocuments) Ingest(_ context.Context, conn *domain.DocumentConnection, docs []domain.RawDocument) ([]domain.RawDocument, error) {
	if conn != nil {
		conn.ID = "conn-1"
	}
	for i := range docs {
		docs[i].ID = "doc-1"
	}
	m.ingested = append(m.ingested, docs...)
	return docs, nil
}

func (m *mockDocuments) IndexDocuments(_ context.Context, documentIDs []string, _, _ bool) ([]domain.EmbeddingDocument, error) {
	out := make([]domain.EmbeddingDocument, len(documentIDs))
	for i, id := range documentIDs {
		out[i] = domain.EmbeddingDocument{ID: int64(i + 1), SourceDocumentID: id}
	}
	return out, nil
}

func (m *mockDocuments) UnindexDocuments(_ context.Context, documentIDs []string) (int, error) {
	m.unindexed += len(documentIDs)
	return len(documentIDs), nil
}

func (m *mockDocuments) ListDocuments(_ context.Context, _ string) ([]domain.RawDocument, error) {
	return m.ingested, nil
}

func (m *mockDocuments) RemoveDocuments(_ context.Context, documentIDs []string, deleteIndexedData bool) error {
	m.removed = append(m.removed, documentIDs...)
	m.cascade = deleteIndexedData
	return nil
}

func (m *mockDocuments) RemoveConnection(_ context.Context, connectionID string, _, _ bool) error {
	if connectionID == "missing" {
		return domain.ErrNotFound
	}
	m.removed = append(m.removed, connectionID)
	return nil
}

func (m *mockDocuments) IndexedDocumentCount(_ context.Context, _ []string) (int, error) {
	return 0, nil
}

type mockIndex struct {
	doc     *domain.EmbeddingDocument
	deleted []int64
}

func (m *mockIndex) Index(_ context.Context, docs []domain.EmbeddingDocument, _ bool) ([]domain.EmbeddingDocument, error) {
	return docs, nil
}

func (m *mockIndex) Query(_ context.Context, _ driven.QueryOptions) ([]driven.QueryHit, error) {
	if m.doc == nil {
		return nil, nil
	}
	return []driven.QueryHit{{Document: *m.doc}}, nil
}

func (m *mockIndex) Get(_ context.Context, id int64) (*domain.EmbeddingDocument, error) {
	if m.doc == nil || m.doc.ID != id {
		return nil, domain.ErrNotFound
	}
	return m.doc, nil
}

func (m *mockIndex) Delete(_ context.Context, ids []int64) error {
	m.deleted = append(m.deleted, ids...)
	return nil
}

func (m *mockIndex) DeleteBySourceDocuments(_ context.Context, sourceDocumentIDs []string) (int, error) {
	return len(sourceDocumentIDs), nil
}

func (m *mockIndex) Count(_ context.Context, _ []string) (int, error) { return 0, nil }
func (m *mockIndex) Close() error                                     { return nil }

type mockCompletion struct {
	response string
	err      error

	lastPrompt   string
	lastMessages []driven.ChatMessage
}

func (m *mockCompletion) Complete(_ context.Context, prompt string, _ driven.CompleteOptions) (string, error) {
	m.lastPrompt = prompt
	return m.response, m.err
}

func (m *mockCompletion) Chat(_ context.Context, messages []driven.ChatMessage, _ driven.CompleteOptions) (string, error) {
	m.lastMessages = messages
	return m.response, m.err
}

func (m *mockCompletion) CompleteWithTool(_ context.Context, _ string, _ driven.Tool, _ driven.CompleteOptions) ([]byte, error) {
	return nil, nil
}

func (m *mockCompletion) ModelName() string { return "mock-model" }
func (m *mockCompletion) Close() error      { return nil }

type serverMocks struct {
	recall     *mockRecall
	augmenter  *mockAugmenter
	documents  *mockDocuments
	index      *mockIndex
	completion *mockCompletion
}

func newTestServer() (*Server, *serverMocks) {
	mocks := &serverMocks{
		recall:     &mockRecall{result: &domain.RecallResult{Documents: []domain.ScoredDocument{}}},
		augmenter:  &mockAugmenter{note: "memory note"},
		documents:  &mockDocuments{},
		index:      &mockIndex{},
		completion: &mockCompletion{response: "generated text"},
	}
	server := NewServer("", mocks.recall, mocks.augmenter, mocks.documents, mocks.index, mocks.completion)
	return server, mocks
}

func do(t *testing.T, server *Server, method, target, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	rec := httptest.NewRecorder()
	server.Handler().ServeHTTP(rec, req)
	return rec
}

func TestHandleSearch(t *testing.T) {
	t.Run("returns the recall result", func(t *testing.T) {
		server, mocks := newTestServer()
		mocks.recall.result = &domain.RecallResult{
			Documents: []domain.ScoredDocument{{EmbeddingDocument: domain.EmbeddingDocument{ID: 1, Text: "memory"}}},
			Summary:   "a summary",
			MeanScore: 0.8,
		}

		rec := do(t, server, http.MethodGet, "/v1/documents/search?topic=cats", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var result domain.RecallResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		require.Len(t, result.Documents, 1)
		assert.Equal(t, "a summary", result.Summary)
		assert.Equal(t, "cats", mocks.recall.lastTopic)
	})

	t.Run("parses query options", func(t *testing.T) {
		server, mocks := newTestServer()

		rec := do(t, server, http.MethodGet,
			"/v1/documents/search?topic=cats&limit=3&min_score=0.6&include_summary=false&local_llm=false", "")
		require.Equal(t, http.StatusOK, rec.Code)

		assert.Equal(t, 3, mocks.recall.lastOpts.Limit)
		assert.Equal(t, 0.6, mocks.recall.lastOpts.MinScore)
		assert.False(t, mocks.recall.lastOpts.IncludeSummary)
		assert.False(t, mocks.recall.lastOpts.UseLocalLLM)
	})

	t.Run("parses score weights", func(t *testing.T) {
		server, mocks := newTestServer()

		rec := do(t, server, http.MethodGet,
			"/v1/documents/search?topic=cats&relevance_weight=1&recency_weight=0&importance_weight=0.5", "")
		require.Equal(t, http.StatusOK, rec.Code)

		assert.Equal(t, 1.0, mocks.recall.lastOpts.Weights.Relevance)
		assert.Equal(t, 0.0, mocks.recall.lastOpts.Weights.Recency)
		assert.Equal(t, 0.5, mocks.recall.lastOpts.Weights.Importance)
	})

	t.Run("omitted weights keep the defaults", func(t *testing.T) {
		server, mocks := newTestServer()

		rec := do(t, server, http.MethodGet, "/v1/documents/search?topic=cats", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, domain.DefaultScoreWeights(), mocks.recall.lastOpts.Weights)
	})

	t.Run("rejects a negative weight", func(t *testing.T) {
		server, _ := newTestServer()
		rec := do(t, server, http.MethodGet, "/v1/documents/search?topic=x&recency_weight=-1", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("requires a topic", func(t *testing.T) {
		server, _ := newTestServer()
		rec := do(t, server, http.MethodGet, "/v1/documents/search", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects a bad limit", func(t *testing.T) {
		server, _ := newTestServer()
		rec := do(t, server, http.MethodGet, "/v1/documents/search?topic=x&limit=zero", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("maps recall errors to statuses", func(t *testing.T) {
		server, mocks := newTestServer()
		mocks.recall.result = nil
		mocks.recall.err = domain.ErrLLMUnavailable

		rec := do(t, server, http.MethodGet, "/v1/documents/search?topic=x", "")
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHandleChatCompletion(t *testing.T) {
	t.Run("augments and forwards the conversation", func(t *testing.T) {
		server, mocks := newTestServer()

		body := `{"messages": [{"role": "user", "content": "hello"}]}`
		rec := do(t, server, http.MethodPost, "/v1/chat/completions", body)
		require.Equal(t, http.StatusOK, rec.Code)

		// The augmenter's note reached the backend.
		require.Len(t, mocks.completion.lastMessages, 2)
		assert.Equal(t, "memory note", mocks.completion.lastMessages[1].Content)

		var result completionResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "chat.completion", result.Object)
		assert.Equal(t, "mock-model", result.Model)
		require.Len(t, result.Choices, 1)
		require.NotNil(t, result.Choices[0].Message)
		assert.Equal(t, "generated text", result.Choices[0].Message.Content)
		assert.Equal(t, "stop", result.Choices[0].FinishReason)
	})

	t.Run("requires messages", func(t *testing.T) {
		server, _ := newTestServer()
		rec := do(t, server, http.MethodPost, "/v1/chat/completions", `{"messages": []}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("rejects malformed JSON", func(t *testing.T) {
		server, _ := newTestServer()
		rec := do(t, server, http.MethodPost, "/v1/chat/completions", "{not json")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("augmentation failure surfaces", func(t *testing.T) {
		server, mocks := newTestServer()
		mocks.augmenter.err = domain.ErrLLMUnavailable

		body := `{"messages": [{"role": "user", "content": "hello"}]}`
		rec := do(t, server, http.MethodPost, "/v1/chat/completions", body)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})

	t.Run("no backend yields service unavailable", func(t *testing.T) {
		mocks := &serverMocks{augmenter: &mockAugmenter{}}
		server := NewServer("", &mockRecall{}, mocks.augmenter, &mockDocuments{}, &mockIndex{}, nil)

		body := `{"messages": [{"role": "user", "content": "hello"}]}`
		rec := do(t, server, http.MethodPost, "/v1/chat/completions", body)
		assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	})
}

func TestHandleCompletion(t *testing.T) {
	t.Run("augments and forwards the prompt", func(t *testing.T) {
		server, mocks := newTestServer()

		rec := do(t, server, http.MethodPost, "/v1/completions", `{"prompt": "tell me about cats"}`)
		require.Equal(t, http.StatusOK, rec.Code)

		assert.Equal(t, "memory note\n\ntell me about cats", mocks.completion.lastPrompt)

		var result completionResult
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, "text_completion", result.Object)
		require.Len(t, result.Choices, 1)
		assert.Equal(t, "generated text", result.Choices[0].Text)
	})

	t.Run("requires a prompt", func(t *testing.T) {
		server, _ := newTestServer()
		rec := do(t, server, http.MethodPost, "/v1/completions", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}

func TestIndexDocumentHandlers(t *testing.T) {
	t.Run("get returns a stored chunk", func(t *testing.T) {
		server, mocks := newTestServer()
		mocks.index.doc = &domain.EmbeddingDocument{ID: 7, Text: "chunk"}

		rec := do(t, server, http.MethodGet, "/v1/index_documents/7", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var doc domain.EmbeddingDocument
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &doc))
		assert.Equal(t, int64(7), doc.ID)
		assert.Equal(t, "chunk", doc.Text)
	})

	t.Run("get of a missing chunk is 404", func(t *testing.T) {
		server, _ := newTestServer()
		rec := do(t, server, http.MethodGet, "/v1/index_documents/99", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("get rejects a non-numeric id", func(t *testing.T) {
		server, _ := newTestServer()
		rec := do(t, server, http.MethodGet, "/v1/index_documents/abc", "")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete requires ids", func(t *testing.T) {
		server, _ := newTestServer()
		rec := do(t, server, http.MethodDelete, "/v1/index_documents", `{"ids": []}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete removes by id", func(t *testing.T) {
		server, mocks := newTestServer()
		rec := do(t, server, http.MethodDelete, "/v1/index_documents", `{"ids": [1, 2]}`)
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []int64{1, 2}, mocks.index.deleted)
	})
}

func TestDocumentHandlers(t *testing.T) {
	t.Run("ingest stores documents", func(t *testing.T) {
		server, mocks := newTestServer()

		body := `{"connector_name": "chat_export", "documents": [{"name": "a.json", "content": "[]"}]}`
		rec := do(t, server, http.MethodPost, "/v1/documents", body)
		require.Equal(t, http.StatusCreated, rec.Code)
		require.Len(t, mocks.documents.ingested, 1)
		assert.Equal(t, "a.json", mocks.documents.ingested[0].Name)
	})

	t.Run("ingest requires documents", func(t *testing.T) {
		server, _ := newTestServer()
		rec := do(t, server, http.MethodPost, "/v1/documents", `{"documents": []}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete honors the cascade parameter", func(t *testing.T) {
		server, mocks := newTestServer()

		rec := do(t, server, http.MethodDelete, "/v1/documents/doc-1?delete_indexed_data=true", "")
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, []string{"doc-1"}, mocks.documents.removed)
		assert.True(t, mocks.documents.cascade)
	})

	t.Run("index requires document ids", func(t *testing.T) {
		server, _ := newTestServer()
		rec := do(t, server, http.MethodPost, "/v1/documents/index", `{"document_ids": []}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("unindex reports the removed count", func(t *testing.T) {
		server, _ := newTestServer()

		rec := do(t, server, http.MethodPost, "/v1/documents/unindex", `{"document_ids": ["a", "b"]}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var result struct {
			Removed int `json:"removed"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &result))
		assert.Equal(t, 2, result.Removed)
	})

	t.Run("deleting a missing connection is 404", func(t *testing.T) {
		server, _ := newTestServer()
		rec := do(t, server, http.MethodDelete, "/v1/connections/missing", "")
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
