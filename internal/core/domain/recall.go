package domain

// Recall defaults. MinScore and the weight defaults mirror the retrieval
// engine's tuning: importance scoring is commonly skipped, so its weight
// defaults to zero.
const (
	DefaultRecallLimit = 5
	DefaultMinScore    = 0.4

	DefaultImportanceWeight = 0.0
	DefaultRecencyWeight    = 1.0
	DefaultRelevanceWeight  = 1.0
)

// NoDocumentsSummary is returned when recall finds nothing.
const NoDocumentsSummary = "No documents found."

// ScoreWeights configures the composite retrieval score blend.
// All weights must be non-negative and sum to a positive value.
type ScoreWeights struct {
	Importance float64
	Recency    float64
	Relevance  float64
}

// DefaultScoreWeights returns the standard blend (importance skipped).
func DefaultScoreWeights() ScoreWeights {
	return ScoreWeights{
		Importance: DefaultImportanceWeight,
		Recency:    DefaultRecencyWeight,
		Relevance:  DefaultRelevanceWeight,
	}
}

// Sum returns the total weight.
func (w ScoreWeights) Sum() float64 {
	return w.Importance + w.Recency + w.Relevance
}

// Valid reports whether the weights are non-negative with a positive sum.
func (w ScoreWeights) Valid() bool {
	return w.Importance >= 0 && w.Recency >= 0 && w.Relevance >= 0 && w.Sum() > 0
}

// RecallOptions configures a recall operation.
type RecallOptions struct {
	// TopicContext gives the summarizer conversational context beyond the
	// bare topic string. Empty falls back to the topic itself.
	TopicContext string

	// Limit is the maximum number of documents to return.
	Limit int

	// MinScore excludes documents whose composite score is <= this value.
	MinScore float64

	// Weights blends importance, recency and relevance.
	Weights ScoreWeights

	// IncludeSummary asks for an LLM-generated synthesis of the results.
	IncludeSummary bool

	// UseLocalLLM selects the local generation backend for summarization.
	UseLocalLLM bool
}

// DefaultRecallOptions returns options with all defaults applied.
func DefaultRecallOptions() RecallOptions {
	return RecallOptions{
		Limit:          DefaultRecallLimit,
		MinScore:       DefaultMinScore,
		Weights:        DefaultScoreWeights(),
		IncludeSummary: true,
		UseLocalLLM:    true,
	}
}

// RecallResult is the outcome of a recall operation.
type RecallResult struct {
	// Documents are the surviving candidates, sorted by descending score.
	Documents []ScoredDocument `json:"documents"`

	// Summary is the LLM synthesis, or NoDocumentsSummary when nothing
	// matched, or empty when summarization was not requested.
	Summary string `json:"summary"`

	// MeanScore is the arithmetic mean of the returned documents' scores,
	// zero when no documents are returned.
	MeanScore float64 `json:"mean_score"`
}
