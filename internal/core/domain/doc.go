// Package domain defines the core business entities for sercha-kb.
//
// This package is part of the hexagonal architecture's innermost layer.
// It has NO external dependencies and defines the fundamental types:
//
//   - Document: Metadata for an uploaded file
//   - Chunk: A bounded passage of a document's text
//   - IndexRecord and Hit: What the vector index stores and returns
//   - StreamEvent: A labelled unit of streamed generation output
//   - ProviderError: A classified completion provider failure
//
// # Architectural Position
//
// Domain is at the centre of the hexagon. It may only import
// the Go standard library. All other packages depend on domain,
// never the reverse.
//
// # Import Rules
//
//   - Can Import: Standard library only
//   - Cannot Import: Any internal/ package, any external dependency
package domain
