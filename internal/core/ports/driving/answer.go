package driving

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// AnswerService produces answers grounded in indexed chunks.
// Grounded paths fall back to the secondary provider on any primary failure.
type AnswerService interface {
	// Ask answers a question from the chunks of one document.
	Ask(ctx context.Context, req AskRequest) (*domain.Answer, error)

	// AskStream answers a question as an ordered event stream.
	// The channel always ends with a done event and is then closed.
	AskStream(ctx context.Context, req AskRequest) (<-chan domain.StreamEvent, error)

	// Summarize summarises one document.
	Summarize(ctx context.Context, req SummarizeRequest) (*domain.Answer, error)
}

// AskRequest is a grounded question.
type AskRequest struct {
	// Query is the question text. Blank queries are rejected.
	Query string

	// DocumentID restricts retrieval to one document when set.
	DocumentID string
}

// SummarizeRequest asks for a document summary.
type SummarizeRequest struct {
	DocumentID string

	// Style replaces the default summarisation instruction when set.
	Style string
}

// ChatService exposes raw completions without retrieval.
// The raw path falls back only when the primary reports quota exhaustion.
type ChatService interface {
	// Complete returns a full completion.
	Complete(ctx context.Context, req domain.CompletionRequest) (string, error)

	// Stream returns an ordered event stream ending with done.
	Stream(ctx context.Context, req domain.CompletionRequest) <-chan domain.StreamEvent
}
