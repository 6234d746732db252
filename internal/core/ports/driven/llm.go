// Package driven provides interfaces for infrastructure adapters (secondary/outbound ports).
package driven

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// LLMService is a completion provider.
// Failures are returned as *domain.ProviderError so callers can decide on
// fallback from the failure kind instead of parsing messages.
//
// Implementations include:
//   - OpenAI (o4-mini, gpt-4o-mini)
//   - Anthropic (Claude)
//   - Ollama (local models)
type LLMService interface {
	// Complete returns the full completion for a prompt.
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)

	// Name returns the provider name used in logs.
	Name() string

	// ModelName returns the name of the model being used.
	ModelName() string

	// Ping validates the service is reachable by making a lightweight test request.
	Ping(ctx context.Context) error

	// Close releases resources.
	Close() error
}

// LLMStreamer is implemented by providers that can emit incremental output.
type LLMStreamer interface {
	LLMService

	// Stream calls onFragment for each text fragment in order.
	// It returns when the provider finishes, onFragment returns an error,
	// or ctx is cancelled. The underlying connection is released on return.
	Stream(ctx context.Context, req domain.CompletionRequest, onFragment func(string) error) error
}
