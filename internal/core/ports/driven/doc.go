// Package driven defines the interfaces that core calls OUT to infrastructure.
//
// These are the "driven" or "secondary" ports in hexagonal architecture.
// Core services depend on these interfaces, and infrastructure adapters
// implement them.
//
// # Required Interfaces
//
// These must be provided for the application to function:
//
//   - VectorIndexStore: Durable embedding index with similarity search
//   - EmbeddingService: Generates vector embeddings
//   - RawDocumentStore: Relational persistence for raw documents and connections
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - CompletionService: Language model completions. Without it, query
//     generation, importance scoring and summarization are disabled and
//     recall degrades to unsummarized results.
//   - Connector: Fetches raw documents from personal data sources.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or connector package
package driven
