package domain

// Message roles understood by completion backends.
const (
	RoleSystem    = "system"
	RoleUser      = "user"
	RoleAssistant = "assistant"
)

// Message is a single chat message in a completion request.
type Message struct {
	// Role is one of "system", "user", or "assistant".
	Role string `json:"role"`

	// Content is the message text.
	Content string `json:"content"`
}

// ChatCompletionRequest is an in-flight chat-shaped completion request.
// Augmentation never mutates a request in place; it returns a new value.
type ChatCompletionRequest struct {
	// Model selects the downstream model. Empty uses the backend default.
	Model string `json:"model,omitempty"`

	// Messages is the conversation so far.
	Messages []Message `json:"messages"`

	// MaxTokens bounds the generation. Zero uses the backend default.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness.
	Temperature float64 `json:"temperature,omitempty"`

	// DisableAugmentation opts this request out of memory augmentation.
	DisableAugmentation bool `json:"disable_augmentation,omitempty"`
}

// Clone returns a deep copy of the request. The messages slice is copied
// so the original and the clone never alias.
func (r ChatCompletionRequest) Clone() ChatCompletionRequest {
	out := r
	out.Messages = make([]Message, len(r.Messages))
	copy(out.Messages, r.Messages)
	return out
}

// CompletionRequest is an in-flight plain-prompt completion request.
type CompletionRequest struct {
	// Model selects the downstream model. Empty uses the backend default.
	Model string `json:"model,omitempty"`

	// Prompt is the raw prompt text.
	Prompt string `json:"prompt"`

	// MaxTokens bounds the generation. Zero uses the backend default.
	MaxTokens int `json:"max_tokens,omitempty"`

	// Temperature controls randomness.
	Temperature float64 `json:"temperature,omitempty"`

	// DisableAugmentation opts this request out of memory augmentation.
	DisableAugmentation bool `json:"disable_augmentation,omitempty"`
}

// AugmentState tracks the augmentation protocol's progress for a request.
type AugmentState string

// Augmentation protocol states. AugmentStateAugmented is terminal; a
// request that opts out stays AugmentStateUnaugmented, which is an
// equivalent terminal.
const (
	AugmentStateUnaugmented    AugmentState = "unaugmented"
	AugmentStateQueryGenerated AugmentState = "query_generated"
	AugmentStateRecalled       AugmentState = "recalled"
	AugmentStateAugmented      AugmentState = "augmented"
)
