// Package scoring implements the scorer set behind the composite retrieval
// score: relevance, recency and importance, each producing a normalized
// value in [0,1], blended by configurable weights.
package scoring

import (
	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
)

// DefaultImportance substitutes for documents whose importance was never
// computed.
const DefaultImportance = 0.3

// clampUnit normalizes a raw score to [0,1].
func clampUnit(score float64) float64 {
	if score < 0 {
		return 0
	}
	if score > 1 {
		return 1
	}
	return score
}

// RetrievalScore blends importance, recency and relevance into the
// composite retrieval score. A nil importance falls back to
// DefaultImportance; a zero importance weight makes that fallback
// irrelevant, so importance never has to be computed for the common
// importance-weight=0 configuration.
func RetrievalScore(importance *float64, recency, relevance float64, w domain.ScoreWeights) (float64, error) {
	if !w.Valid() {
		return 0, domain.ErrInvalidWeights
	}

	imp := DefaultImportance
	if importance != nil {
		imp = *importance
	}

	score := (imp*w.Importance + recency*w.Recency + relevance*w.Relevance) / w.Sum()
	return clampUnit(score), nil
}
