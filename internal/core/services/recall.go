package services

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/dustin/go-humanize"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
	"github.com/keepsake-labs/memoir-cli/internal/core/ports/driven"
	"github.com/keepsake-labs/memoir-cli/internal/core/ports/driving"
	"github.com/keepsake-labs/memoir-cli/internal/core/scoring"
	"github.com/keepsake-labs/memoir-cli/internal/logger"
)

// Ensure RecallEngine implements the interface.
var _ driving.RecallService = (*RecallEngine)(nil)

// overFetchFactor controls how many similarity candidates are pulled per
// requested result. The similarity ranking and the composite ranking
// disagree, so fetching exactly limit rows would let a low-relevance but
// very recent document get cut before re-scoring.
const overFetchFactor = 4

// summaryLeadIn is the completion prefix the summarization prompt ends
// with; the model continues the sentence.
const summaryLeadIn = "Based on the given conversation fragments, it can be concluded that "

// RecallEngine retrieves documents for a topic: similarity search,
// composite re-scoring, threshold filtering and an optional one-sentence
// LLM synthesis of the survivors.
type RecallEngine struct {
	index     driven.VectorIndexStore
	localLLM  driven.CompletionService
	hostedLLM driven.CompletionService

	relevance *scoring.RelevanceScorer
	recency   *scoring.RecencyScorer

	personaName string
}

// NewRecallEngine creates a recall engine. localLLM and hostedLLM are each
// optional; summarization picks whichever is available when the preferred
// backend is nil.
func NewRecallEngine(index driven.VectorIndexStore, localLLM, hostedLLM driven.CompletionService) *RecallEngine {
	return &RecallEngine{
		index:     index,
		localLLM:  localLLM,
		hostedLLM: hostedLLM,
		relevance: scoring.NewRelevanceScorer(),
		recency:   scoring.NewRecencyScorer(),
	}
}

// SetPersonaName sets the name the summarizer speaks as. Empty means the
// memories are summarized in a neutral voice.
func (e *RecallEngine) SetPersonaName(name string) {
	e.personaName = name
}

// SetRecencyScorer replaces the recency scorer, mainly to pin the clock
// under test.
func (e *RecallEngine) SetRecencyScorer(scorer *scoring.RecencyScorer) {
	e.recency = scorer
}

// Recall runs a similarity search for topic, blends relevance, recency and
// importance into a composite score per candidate, drops candidates at or
// below the minimum score, and returns the top documents sorted by
// descending score.
func (e *RecallEngine) Recall(ctx context.Context, topic string, opts domain.RecallOptions) (*domain.RecallResult, error) {
	logger.Section("Recall")
	logger.Debug("Topic: %q", topic)

	limit := opts.Limit
	if limit <= 0 {
		limit = domain.DefaultRecallLimit
	}

	weights := opts.Weights
	if weights == (domain.ScoreWeights{}) {
		weights = domain.DefaultScoreWeights()
	}
	if !weights.Valid() {
		return nil, fmt.Errorf("recall: %w", domain.ErrInvalidWeights)
	}

	// An empty index short-circuits without touching the embedding
	// backend.
	count, err := e.index.Count(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("count documents: %w", err)
	}
	if count == 0 {
		logger.Debug("Index is empty, nothing to recall")
		return emptyRecallResult(), nil
	}

	hits, err := e.index.Query(ctx, driven.QueryOptions{
		Topic: topic,
		Limit: limit * overFetchFactor,
	})
	if err != nil {
		return nil, fmt.Errorf("similarity query: %w", err)
	}
	logger.Debug("Similarity candidates: %d", len(hits))

	scored := make([]domain.ScoredDocument, 0, len(hits))
	for _, hit := range hits {
		relevanceScore := e.relevance.Score(hit.Document, hit.Certainty)
		recencyScore := e.recency.Score(hit.Document)

		score, err := scoring.RetrievalScore(hit.Document.Importance, recencyScore, relevanceScore, weights)
		if err != nil {
			return nil, fmt.Errorf("score document %d: %w", hit.Document.ID, err)
		}

		if score <= opts.MinScore {
			continue
		}
		scored = append(scored, domain.ScoredDocument{
			EmbeddingDocument: hit.Document,
			Score:             score,
			Relevance:         relevanceScore,
			Recency:           recencyScore,
		})
	}

	if len(scored) == 0 {
		logger.Debug("No candidates above min score %.2f", opts.MinScore)
		return emptyRecallResult(), nil
	}

	sort.SliceStable(scored, func(i, j int) bool {
		return scored[i].Score > scored[j].Score
	})
	if len(scored) > limit {
		scored = scored[:limit]
	}

	result := &domain.RecallResult{
		Documents: scored,
		MeanScore: meanScore(scored),
	}

	if opts.IncludeSummary {
		contextText := opts.TopicContext
		if contextText == "" {
			contextText = topic
		}
		summary, err := e.summarize(ctx, scored, contextText, opts.UseLocalLLM)
		if err != nil {
			return nil, fmt.Errorf("summarize recall results: %w", err)
		}
		result.Summary = summary
	}

	logger.Info("Recalled %d documents, mean score %.3f", len(result.Documents), result.MeanScore)
	return result, nil
}

// summarize asks a completion backend to draw a one-sentence conclusion
// from the recalled documents, seen through the persona when one is set.
func (e *RecallEngine) summarize(ctx context.Context, docs []domain.ScoredDocument, contextText string, useLocal bool) (string, error) {
	backend := e.pickBackend(useLocal)
	if backend == nil {
		return "", fmt.Errorf("summarize: %w", domain.ErrLLMUnavailable)
	}

	prompt := e.summaryPrompt(docs, contextText)
	logger.Debug("Summarizing %d documents with %s", len(docs), backend.ModelName())

	response, err := backend.Chat(ctx, []driven.ChatMessage{
		{Role: domain.RoleUser, Content: prompt},
	}, driven.CompleteOptions{Temperature: 0})
	if err != nil {
		return "", fmt.Errorf("summary completion: %w", err)
	}

	return strings.TrimSpace(response), nil
}

// summaryPrompt renders recalled documents as humanized memories and asks
// the model to conclude something about the topic from them.
func (e *RecallEngine) summaryPrompt(docs []domain.ScoredDocument, contextText string) string {
	now := time.Now().UTC()
	fragments := make([]string, 0, len(docs))
	for _, doc := range docs {
		fragments = append(fragments, humanize.RelTime(doc.Timestamp, now, "ago", "from now")+"\n"+doc.Text)
	}
	memories := strings.Join(fragments, "\n\n")

	if e.personaName != "" {
		return fmt.Sprintf("### Instruction:\nYou are %s. Below are conversation fragments from your recent memories. You are gathering your thoughts in preparation of writing a response for %q. In a sentence, concisely tell yourself what you can conclude about this topic from your memories, especially as it relates to you personally.\n\n### Input:\nStart of memories:\n%s\nEnd of memories.\n\n### Concise response:\n%s:\n%s",
			e.personaName, contextText, memories, e.personaName, summaryLeadIn)
	}
	return fmt.Sprintf("### Instruction:\nBelow are conversation fragments from an unknown person. You are gathering your thoughts in preparation of writing a response for %q. In a sentence, concisely answer what you can conclude about this topic from the memories.\n\n### Input:\nStart of memories:\n%s\nEnd of memories.\n\n### Concise response:\nYou:\n%s",
		contextText, memories, summaryLeadIn)
}

// pickBackend prefers the requested backend but falls through to the other
// one rather than failing when only one is configured.
func (e *RecallEngine) pickBackend(useLocal bool) driven.CompletionService {
	if useLocal {
		if e.localLLM != nil {
			return e.localLLM
		}
		return e.hostedLLM
	}
	if e.hostedLLM != nil {
		return e.hostedLLM
	}
	return e.localLLM
}

func emptyRecallResult() *domain.RecallResult {
	return &domain.RecallResult{
		Documents: []domain.ScoredDocument{},
		Summary:   domain.NoDocumentsSummary,
		MeanScore: 0,
	}
}

func meanScore(docs []domain.ScoredDocument) float64 {
	if len(docs) == 0 {
		return 0
	}
	var total float64
	for _, doc := range docs {
		total += doc.Score
	}
	return total / float64(len(docs))
}
