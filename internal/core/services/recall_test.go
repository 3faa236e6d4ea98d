package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
	"github.com/keepsake-labs/memoir-cli/internal/core/ports/driven"
	"github.com/keepsake-labs/memoir-cli/internal/core/scoring"
)

var testNow = time.Date(2024, 6, 1, 12, 0, 0, 0, time.UTC)

func newTestEngine(index *mockIndex, llm driven.CompletionService) *RecallEngine {
	engine := NewRecallEngine(index, llm, nil)
	engine.SetRecencyScorer(scoring.NewRecencyScorerAt(func() time.Time { return testNow }))
	return engine
}

func hit(id int64, text string, certainty float64, age time.Duration) driven.QueryHit {
	return driven.QueryHit{
		Document: domain.EmbeddingDocument{
			ID:        id,
			Text:      text,
			Source:    "chat_export",
			Timestamp: testNow.Add(-age),
		},
		Certainty: certainty,
	}
}

func noSummaryOpts() domain.RecallOptions {
	opts := domain.DefaultRecallOptions()
	opts.IncludeSummary = false
	return opts
}

func TestRecall(t *testing.T) {
	ctx := context.Background()

	t.Run("empty index returns the no-documents result without searching", func(t *testing.T) {
		index := &mockIndex{count: 0}
		engine := newTestEngine(index, nil)

		result, err := engine.Recall(ctx, "cats", domain.DefaultRecallOptions())
		require.NoError(t, err)

		assert.Empty(t, result.Documents)
		assert.Equal(t, domain.NoDocumentsSummary, result.Summary)
		assert.Zero(t, result.MeanScore)
		assert.Nil(t, index.lastQuery)
	})

	t.Run("rejects invalid weights", func(t *testing.T) {
		engine := newTestEngine(&mockIndex{count: 1}, nil)

		opts := noSummaryOpts()
		opts.Weights = domain.ScoreWeights{Importance: -1, Recency: 1, Relevance: 1}

		_, err := engine.Recall(ctx, "cats", opts)
		assert.ErrorIs(t, err, domain.ErrInvalidWeights)
	})

	t.Run("zero-value weights fall back to defaults", func(t *testing.T) {
		index := &mockIndex{count: 1, hits: []driven.QueryHit{hit(1, "fresh", 0.9, 0)}}
		engine := newTestEngine(index, nil)

		opts := noSummaryOpts()
		opts.Weights = domain.ScoreWeights{}

		result, err := engine.Recall(ctx, "cats", opts)
		require.NoError(t, err)
		require.Len(t, result.Documents, 1)

		// Default weights blend recency and relevance equally.
		assert.InDelta(t, (1.0+0.9)/2, result.Documents[0].Score, 1e-6)
	})

	t.Run("over-fetches similarity candidates", func(t *testing.T) {
		index := &mockIndex{count: 1}
		engine := newTestEngine(index, nil)

		opts := noSummaryOpts()
		opts.Limit = 3

		_, err := engine.Recall(ctx, "cats", opts)
		require.NoError(t, err)
		require.NotNil(t, index.lastQuery)
		assert.Equal(t, "cats", index.lastQuery.Topic)
		assert.Equal(t, 3*overFetchFactor, index.lastQuery.Limit)
	})

	t.Run("drops candidates at or below the minimum score", func(t *testing.T) {
		// With weights {0,1,1} and zero age, score = (1 + certainty) / 2.
		index := &mockIndex{count: 3, hits: []driven.QueryHit{
			hit(1, "clearly above", 0.9, 0),
			hit(2, "exactly at threshold", 0.5, 0),
			hit(3, "stale and weak", 0.5, 200*365*24*time.Hour),
		}}
		engine := newTestEngine(index, nil)

		opts := noSummaryOpts()
		opts.MinScore = 0.75

		result, err := engine.Recall(ctx, "cats", opts)
		require.NoError(t, err)
		require.Len(t, result.Documents, 1)
		assert.Equal(t, int64(1), result.Documents[0].ID)
	})

	t.Run("sorts by descending score and truncates to limit", func(t *testing.T) {
		index := &mockIndex{count: 3, hits: []driven.QueryHit{
			hit(1, "middle", 0.5, 0),
			hit(2, "best", 0.95, 0),
			hit(3, "good", 0.8, 0),
		}}
		engine := newTestEngine(index, nil)

		opts := noSummaryOpts()
		opts.Limit = 2

		result, err := engine.Recall(ctx, "cats", opts)
		require.NoError(t, err)
		require.Len(t, result.Documents, 2)

		assert.Equal(t, int64(2), result.Documents[0].ID)
		assert.Equal(t, int64(3), result.Documents[1].ID)
		assert.InDelta(t,
			(result.Documents[0].Score+result.Documents[1].Score)/2,
			result.MeanScore, 1e-9)
	})

	t.Run("nothing above threshold returns the no-documents result", func(t *testing.T) {
		index := &mockIndex{count: 1, hits: []driven.QueryHit{
			hit(1, "ancient", 0.1, 250*365*24*time.Hour),
		}}
		engine := newTestEngine(index, nil)

		result, err := engine.Recall(ctx, "cats", noSummaryOpts())
		require.NoError(t, err)
		assert.Empty(t, result.Documents)
		assert.Equal(t, domain.NoDocumentsSummary, result.Summary)
	})

	t.Run("summarizes survivors through the completion backend", func(t *testing.T) {
		index := &mockIndex{count: 1, hits: []driven.QueryHit{
			hit(1, "we talked about sailing", 0.9, time.Hour),
		}}
		llm := &mockCompletion{chatResponse: "  the user enjoys sailing.  "}
		engine := newTestEngine(index, llm)

		result, err := engine.Recall(ctx, "sailing", domain.DefaultRecallOptions())
		require.NoError(t, err)

		assert.Equal(t, "the user enjoys sailing.", result.Summary)
		require.Len(t, llm.lastMessages, 1)
		assert.Equal(t, domain.RoleUser, llm.lastMessages[0].Role)
		assert.Contains(t, llm.lastMessages[0].Content, "we talked about sailing")
		assert.Contains(t, llm.lastMessages[0].Content, "ago")
		assert.Contains(t, llm.lastMessages[0].Content, summaryLeadIn)
		assert.Zero(t, llm.lastOptions.Temperature)
	})

	t.Run("persona name shapes the summary prompt", func(t *testing.T) {
		index := &mockIndex{count: 1, hits: []driven.QueryHit{hit(1, "memory", 0.9, 0)}}
		llm := &mockCompletion{chatResponse: "ok"}
		engine := newTestEngine(index, llm)
		engine.SetPersonaName("Samantha")

		_, err := engine.Recall(ctx, "anything", domain.DefaultRecallOptions())
		require.NoError(t, err)
		assert.Contains(t, llm.lastMessages[0].Content, "You are Samantha.")
	})

	t.Run("summarization failure propagates", func(t *testing.T) {
		index := &mockIndex{count: 1, hits: []driven.QueryHit{hit(1, "memory", 0.9, 0)}}
		llm := &mockCompletion{chatErr: errors.New("backend down")}
		engine := newTestEngine(index, llm)

		_, err := engine.Recall(ctx, "anything", domain.DefaultRecallOptions())
		assert.Error(t, err)
	})

	t.Run("summary without any backend fails", func(t *testing.T) {
		index := &mockIndex{count: 1, hits: []driven.QueryHit{hit(1, "memory", 0.9, 0)}}
		engine := newTestEngine(index, nil)

		_, err := engine.Recall(ctx, "anything", domain.DefaultRecallOptions())
		assert.ErrorIs(t, err, domain.ErrLLMUnavailable)
	})

	t.Run("query failure propagates", func(t *testing.T) {
		index := &mockIndex{count: 1, queryErr: errors.New("disk gone")}
		engine := newTestEngine(index, nil)

		_, err := engine.Recall(ctx, "cats", noSummaryOpts())
		assert.Error(t, err)
	})
}

func TestPickBackend(t *testing.T) {
	local := &mockCompletion{}
	hosted := &mockCompletion{}

	t.Run("prefers the requested backend", func(t *testing.T) {
		engine := NewRecallEngine(&mockIndex{}, local, hosted)
		assert.Same(t, local, engine.pickBackend(true).(*mockCompletion))
		assert.Same(t, hosted, engine.pickBackend(false).(*mockCompletion))
	})

	t.Run("falls through when the preferred backend is missing", func(t *testing.T) {
		engine := NewRecallEngine(&mockIndex{}, nil, hosted)
		assert.Same(t, hosted, engine.pickBackend(true).(*mockCompletion))

		engine = NewRecallEngine(&mockIndex{}, local, nil)
		assert.Same(t, local, engine.pickBackend(false).(*mockCompletion))
	})
}
