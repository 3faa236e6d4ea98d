package driving

import (
	"context"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
)

// RecallService turns a topic string into ranked, scored documents plus an
// optional summary.
type RecallService interface {
	// Recall runs a similarity search for topic, scores and filters the
	// candidates, and optionally summarizes the survivors.
	Recall(ctx context.Context, topic string, opts domain.RecallOptions) (*domain.RecallResult, error)
}
