package domain

import "errors"

// Domain errors represent business logic failures.
// These are distinct from infrastructure errors.
var (
	// ErrNotFound indicates a requested entity does not exist.
	ErrNotFound = errors.New("not found")

	// ErrInvalidInput indicates malformed or invalid input.
	ErrInvalidInput = errors.New("invalid input")

	// ErrUnsupportedType indicates an unknown provider, backend or format.
	ErrUnsupportedType = errors.New("unsupported type")

	// ErrFileTooLarge indicates an upload exceeded MaxUploadSize.
	ErrFileTooLarge = errors.New("file too large")

	// ErrExtractionEmpty indicates no text could be extracted from a document.
	// Ingestion aborts before chunking.
	ErrExtractionEmpty = errors.New("no text extracted")

	// ErrIndexUnavailable indicates the vector index is unreachable or errored.
	// Writes must propagate it; reads may degrade to an empty result.
	ErrIndexUnavailable = errors.New("vector index unavailable")

	// ErrNoContext indicates a grounded request found no chunks for its filter.
	ErrNoContext = errors.New("no chunks for document")

	// Provider Errors.

	// ErrProviderQuotaExceeded indicates the provider rejected the call for quota
	// or rate-limit reasons. It triggers fallback and is never shown to callers.
	ErrProviderQuotaExceeded = errors.New("provider quota exceeded")

	// ErrProviderUnavailable is the generic, non-leaking provider failure.
	ErrProviderUnavailable = errors.New("provider unavailable")

	// ErrPrimaryFailed indicates the primary provider failed for a reason that
	// does not allow fallback on the raw completion path.
	ErrPrimaryFailed = errors.New("primary provider failed")

	// ErrLLMUnavailable indicates no completion provider is configured.
	ErrLLMUnavailable = errors.New("LLM service unavailable")

	// ErrEmbeddingUnavailable indicates the embedding service is not configured.
	ErrEmbeddingUnavailable = errors.New("embedding service unavailable")

	// ErrRateLimited indicates the API rate limit was exceeded.
	ErrRateLimited = errors.New("rate limited")
)
