package domain

const unknownDescription = "Unknown"

// BackendKind selects a generation backend class. The backend is chosen
// once at configuration time, never branched on per call.
type BackendKind string

// Available backend kinds.
const (
	// BackendLocal is a locally hosted inference server (e.g. Ollama).
	BackendLocal BackendKind = "local"

	// BackendHosted is a cloud completion API (e.g. OpenAI).
	BackendHosted BackendKind = "hosted"
)

// IsValid returns true if the backend kind is recognised.
func (k BackendKind) IsValid() bool {
	switch k {
	case BackendLocal, BackendHosted:
		return true
	default:
		return false
	}
}

// String returns the string representation.
func (k BackendKind) String() string {
	return string(k)
}

// Description returns a human-readable description of the backend kind.
func (k BackendKind) Description() string {
	switch k {
	case BackendLocal:
		return "Local (self-hosted inference)"
	case BackendHosted:
		return "Hosted (cloud completion API)"
	default:
		return unknownDescription
	}
}

// AIProvider identifies an AI service provider for embeddings or completions.
type AIProvider string

// Available AI providers.
const (
	// AIProviderOllama is a local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is the OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderOllama, AIProviderOpenAI:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI
}
