package driven

import "context"

// CompletionService provides language model completions. The core consumes
// it for query generation, importance scoring and summarization; the outer
// chat/completion capability that receives augmented requests also
// implements this shape.
//
// Implementations may include:
//   - OpenAI-compatible cloud APIs (hosted backend)
//   - Ollama (local backend)
type CompletionService interface {
	// Complete produces a text completion for a prompt.
	Complete(ctx context.Context, prompt string, opts CompleteOptions) (string, error)

	// Chat conducts a multi-turn conversation.
	Chat(ctx context.Context, messages []ChatMessage, opts CompleteOptions) (string, error)

	// CompleteWithTool forces a structured function call and returns the
	// raw JSON arguments the model produced for it.
	CompleteWithTool(ctx context.Context, prompt string, tool Tool, opts CompleteOptions) ([]byte, error)

	// ModelName returns the name of the model being used.
	ModelName() string

	// Close releases resources.
	Close() error
}

// CompleteOptions configures a completion call.
type CompleteOptions struct {
	// MaxTokens is the maximum number of tokens to generate.
	MaxTokens int

	// Temperature controls randomness (0.0 = deterministic).
	Temperature float64

	// StopWords are sequences that stop generation when encountered.
	StopWords []string
}

// ChatMessage is a single message in a backend conversation.
type ChatMessage struct {
	// Role is one of "system", "user", or "assistant".
	Role string

	// Content is the message text.
	Content string
}

// Tool describes a function the model is asked to call.
type Tool struct {
	// Name is the function name.
	Name string

	// Description tells the model what the function does.
	Description string

	// Parameters is a JSON Schema object describing the arguments.
	Parameters map[string]any
}
