package scoring

import "github.com/keepsake-labs/memoir-cli/internal/core/domain"

// RelevanceScorer scores a document by the certainty value the similarity
// search already produced. Certainty is constructed in [0,1], so
// normalization reduces to a clamp.
type RelevanceScorer struct{}

// NewRelevanceScorer creates a relevance scorer.
func NewRelevanceScorer() *RelevanceScorer {
	return &RelevanceScorer{}
}

// Score returns the certainty as the relevance score.
func (s *RelevanceScorer) Score(_ domain.EmbeddingDocument, certainty float64) float64 {
	return clampUnit(certainty)
}
