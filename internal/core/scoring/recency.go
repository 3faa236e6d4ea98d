package scoring

import (
	"math"
	"time"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
)

// decayPerYear tunes the exponential age decay so the half-life is on the
// order of months. Visualize exp(-0.75x) with x in years to see the curve.
const decayPerYear = 0.75

const secondsPerYear = 365 * 24 * 60 * 60

// RecencyScorer scores a document by exponential decay of its age. The
// current time is injected so results are deterministic under test.
type RecencyScorer struct {
	now func() time.Time
}

// NewRecencyScorer creates a recency scorer reading the wall clock.
func NewRecencyScorer() *RecencyScorer {
	return &RecencyScorer{now: func() time.Time { return time.Now().UTC() }}
}

// NewRecencyScorerAt creates a recency scorer with a fixed reference time.
func NewRecencyScorerAt(now func() time.Time) *RecencyScorer {
	return &RecencyScorer{now: now}
}

// Score returns the decay-based recency score for the document.
func (s *RecencyScorer) Score(doc domain.EmbeddingDocument) float64 {
	return clampUnit(s.byDate(doc))
}

// ScoreAt blends the decay score 50/50 with a positional recency term for
// use when ingestion-order context is available, e.g. ranking within one
// conversation. index is the document's position among total documents.
func (s *RecencyScorer) ScoreAt(doc domain.EmbeddingDocument, index, total int) float64 {
	if total <= 0 {
		return s.Score(doc)
	}
	byPosition := 1 - float64(total-index)/float64(total)
	return clampUnit((s.byDate(doc) + byPosition) / 2)
}

func (s *RecencyScorer) byDate(doc domain.EmbeddingDocument) float64 {
	age := s.now().Sub(doc.Timestamp).Seconds()
	return math.Exp(-(decayPerYear / secondsPerYear) * age)
}
