package driving

import (
	"context"

	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
)

// Augmenter rewrites in-flight completion requests to inject recalled
// memory. Augmentation is an immutable transform: the input request is
// never modified, a new request value is returned.
type Augmenter interface {
	// AugmentChat augments a chat-shaped request. When the request opts
	// out, the original request is returned unchanged with state
	// AugmentStateUnaugmented. Query-generation or recall failures abort
	// augmentation and propagate.
	AugmentChat(ctx context.Context, req domain.ChatCompletionRequest) (domain.ChatCompletionRequest, domain.AugmentState, error)

	// AugmentCompletion augments a plain-prompt request.
	AugmentCompletion(ctx context.Context, req domain.CompletionRequest) (domain.CompletionRequest, domain.AugmentState, error)
}
