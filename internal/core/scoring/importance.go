package scoring

import (
	"context"
	"encoding/json"
	"fmt"

	"golang.org/x/time/rate"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
	"github.com/keepsake-labs/memoir-cli/internal/core/ports/driven"
	"github.com/keepsake-labs/memoir-cli/internal/logger"
)

// importancePrompt asks the model to rate poignancy on a 1-10 scale.
const importancePrompt = `On the scale of 1 to 10, where 1 is purely mundane (e.g., brushing teeth, making bed) and 10 is extremely poignant (e.g., a break up, college acceptance), rate the likely poignancy of the following document.
Document: %s`

// rateDocumentTool is the structured function call used to extract the
// numeric rating from the model.
var rateDocumentTool = driven.Tool{
	Name:        "rate_document",
	Description: "This function rates document importance for the given part of the conversation.",
	Parameters: map[string]any{
		"type": "object",
		"properties": map[string]any{
			"importanceScore": map[string]any{
				"type":        "number",
				"description": "Importance score on the scale of 1 to 10, where 1 is purely mundane and 10 is extremely poignant",
			},
		},
		"required": []string{"importanceScore"},
	},
}

// ImportanceScorer rates document poignancy by asking a language model for
// a 1-10 score through a function-call interface and normalizing it to
// [0,1] via (score-1)/9.
//
// Importance scoring is best-effort: any failure (backend error, malformed
// response, cancellation) yields 0 and never aborts indexing. Calls are
// rate-limited so bulk indexing cannot stampede the backend.
type ImportanceScorer struct {
	completion driven.CompletionService
	limiter    *rate.Limiter
}

// NewImportanceScorer creates an importance scorer. callsPerSecond bounds
// the LLM call rate; zero or negative disables limiting.
func NewImportanceScorer(completion driven.CompletionService, callsPerSecond float64) *ImportanceScorer {
	var limiter *rate.Limiter
	if callsPerSecond > 0 {
		limiter = rate.NewLimiter(rate.Limit(callsPerSecond), 1)
	}
	return &ImportanceScorer{completion: completion, limiter: limiter}
}

// Score returns the normalized importance of the document, or 0 when the
// rating could not be obtained.
func (s *ImportanceScorer) Score(ctx context.Context, doc domain.EmbeddingDocument) float64 {
	raw, err := s.rawScore(ctx, doc)
	if err != nil {
		logger.Warn("Importance scoring failed, falling back to 0: %v", err)
		return 0
	}
	return normalizeImportance(raw)
}

func (s *ImportanceScorer) rawScore(ctx context.Context, doc domain.EmbeddingDocument) (float64, error) {
	if s.completion == nil {
		return 0, domain.ErrLLMUnavailable
	}

	if s.limiter != nil {
		if err := s.limiter.Wait(ctx); err != nil {
			return 0, fmt.Errorf("rate limit wait: %w", err)
		}
	}

	prompt := fmt.Sprintf(importancePrompt, doc.Text)
	args, err := s.completion.CompleteWithTool(ctx, prompt, rateDocumentTool, driven.CompleteOptions{})
	if err != nil {
		return 0, fmt.Errorf("rate_document call: %w", err)
	}

	var parsed struct {
		ImportanceScore float64 `json:"importanceScore"`
	}
	if err := json.Unmarshal(args, &parsed); err != nil {
		return 0, fmt.Errorf("decode rate_document arguments: %w", err)
	}

	return parsed.ImportanceScore, nil
}

// normalizeImportance maps a 1-10 rating to [0,1]. A zero raw score (the
// failure fallback) stays 0.
func normalizeImportance(raw float64) float64 {
	if raw == 0 {
		return 0
	}
	return clampUnit((raw - 1) / 9)
}
