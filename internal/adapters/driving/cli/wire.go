package cli

import (
	"fmt"

	configfile "github.com/keepsake-labs/memoir-cli/internal/adapters/driven/config/file"
	embeddingollama "github.com/keepsake-labs/memoir-cli/internal/adapters/driven/embedding/ollama"
	embeddingopenai "github.com/keepsake-labs/memoir-cli/internal/adapters/driven/embedding/openai"
	indexsqlite "github.com/keepsake-labs/memoir-cli/internal/adapters/driven/index/sqlite"
	llmollama "github.com/keepsake-labs/memoir-cli/internal/adapters/driven/llm/ollama"
	llmopenai "github.com/keepsake-labs/memoir-cli/internal/adapters/driven/llm/openai"
	storagesqlite "github.com/keepsake-labs/memoir-cli/internal/adapters/driven/storage/sqlite"
	"github.com/keepsake-labs/memoir-cli/internal/chunkers/sentence"
	"github.com/keepsake-labs/memoir-cli/internal/chunkers/window"
	"github.com/keepsake-labs/memoir-cli/internal/connectors/chatexport"
	"github.com/keepsake-labs/memoir-cli/internal/core/domain"
	"github.com/keepsake-labs/memoir-cli/internal/core/ports/driven"
	"github.com/keepsake-labs/memoir-cli/internal/core/scoring"
	"github.com/keepsake-labs/memoir-cli/internal/core/services"
	"github.com/keepsake-labs/memoir-cli/internal/logger"
)

// defaultImportanceRate bounds importance scoring LLM calls per second
// during bulk indexing.
const defaultImportanceRate = 2.0

// initServices builds the full service graph from configuration. Called
// once per invocation by the root command.
func initServices() error {
	var err error
	configStore, err = configfile.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("open config store: %w", err)
	}

	embedder, err := buildEmbedder()
	if err != nil {
		return err
	}

	localLLM, hostedLLM := buildCompletionBackends()
	completionBackend = pickPrimaryBackend(localLLM, hostedLLM)

	store, err := indexsqlite.NewStore(dataDir, embedder)
	if err != nil {
		return fmt.Errorf("open index store: %w", err)
	}
	if rater := buildImportanceScorer(localLLM, hostedLLM); rater != nil {
		store.SetImportanceRater(rater)
	}
	indexStore = store

	rawStore, err = storagesqlite.NewStore(dataDir)
	if err != nil {
		return fmt.Errorf("open document store: %w", err)
	}

	engine := services.NewRecallEngine(indexStore, localLLM, hostedLLM)
	if persona := configStore.GetString("persona.name"); persona != "" {
		engine.SetPersonaName(persona)
	}
	recallService = engine

	augmenterService = services.NewAugmenter(recallService, completionBackend)

	documentService = services.NewDocumentManager(
		rawStore,
		indexStore,
		window.New(chatexport.Parse),
		sentence.New(),
	)

	return nil
}

// buildEmbedder selects the embedding provider from config. Defaults to a
// local Ollama instance so the tool works without any cloud credentials.
func buildEmbedder() (driven.EmbeddingService, error) {
	provider := domain.AIProvider(configStore.GetString("embedding.provider"))
	if !provider.IsValid() {
		provider = domain.AIProviderOllama
	}

	switch provider {
	case domain.AIProviderOpenAI:
		return embeddingopenai.NewEmbeddingService(embeddingopenai.Config{
			APIKey:  configStore.GetString("openai.api_key"),
			BaseURL: configStore.GetString("openai.base_url"),
			Model:   configStore.GetString("embedding.model"),
		})
	default:
		return embeddingollama.NewEmbeddingService(embeddingollama.Config{
			BaseURL:    configStore.GetString("ollama.base_url"),
			Model:      configStore.GetString("embedding.model"),
			Dimensions: configStore.GetInt("embedding.dimensions"),
		}), nil
	}
}

// buildCompletionBackends constructs whichever generation backends the
// configuration supports. The hosted backend needs an API key; the local
// one is always constructed.
func buildCompletionBackends() (local, hosted driven.CompletionService) {
	local = llmollama.NewCompletionService(llmollama.Config{
		BaseURL: configStore.GetString("ollama.base_url"),
		Model:   configStore.GetString("llm.local_model"),
	})

	if apiKey := configStore.GetString("openai.api_key"); apiKey != "" {
		svc, err := llmopenai.NewCompletionService(llmopenai.Config{
			APIKey:  apiKey,
			BaseURL: configStore.GetString("openai.base_url"),
			Model:   configStore.GetString("llm.hosted_model"),
		})
		if err != nil {
			logger.Warn("Hosted completion backend unavailable: %v", err)
		} else {
			hosted = svc
		}
	}

	return local, hosted
}

// pickPrimaryBackend applies the configured backend kind to choose which
// backend serves completion passthrough and query generation.
func pickPrimaryBackend(local, hosted driven.CompletionService) driven.CompletionService {
	kind := domain.BackendKind(configStore.GetString("llm.backend"))
	if !kind.IsValid() {
		kind = domain.BackendLocal
	}
	logger.Debug("Generation backend: %s", kind.Description())

	if kind == domain.BackendHosted && hosted != nil {
		return hosted
	}
	return local
}

// buildImportanceScorer wires eager importance scoring when a completion
// backend exists. Hosted is preferred for tool-call reliability.
func buildImportanceScorer(local, hosted driven.CompletionService) *scoring.ImportanceScorer {
	backend := hosted
	if backend == nil {
		backend = local
	}
	if backend == nil {
		return nil
	}

	rate := configStore.GetFloat("index.importance_calls_per_second")
	if rate <= 0 {
		rate = defaultImportanceRate
	}
	return scoring.NewImportanceScorer(backend, rate)
}
