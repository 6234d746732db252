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
//   - EmbeddingService: Maps text to vectors (feature hashing by default)
//   - VectorIndex: Stores chunk vectors and answers similarity queries
//   - LLMService: Completion provider, one per primary/fallback role
//   - DocumentStore: Document metadata persistence
//   - ExtractorRegistry: Turns uploaded files into plain text
//   - FileStore: Keeps uploaded bytes
//   - ConfigStore: Application configuration
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMStreamer: Incremental output. Without it, answers are replayed as fixed-size fragments.
//   - UsageStore: Usage analytics. Without it, events are dropped.
//   - PromptStore: Custom prompt templates. Without it, built-in prompts are used.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter or extractor package
package driven
