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
//   - SourceRegistry: Lookup of configured crawl targets
//   - DedupStore: Fingerprint ledger with atomic check-and-insert
//   - PageFetcher: Retrieves raw pages over the network
//   - Extractor: Turns raw pages into text and attachments
//   - VectorStore: Chunk storage and similarity search (the bridge). The
//     active implementation — in-process or remote — is chosen once at
//     startup and is invisible to callers.
//
// # Optional Interfaces
//
// These can be nil - the application degrades gracefully:
//
//   - LLMService: Language model generation. Without it, ask is disabled
//     but crawl and search keep working.
//
// # Import Rules
//
//   - Can Import: domain package only
//   - Cannot Import: Any adapter package
package driven
