package services

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Ensure ChatService implements the interface.
var _ driving.ChatService = (*ChatService)(nil)

// ChatService sends prompts straight to the providers without retrieval.
// It falls back only when the primary reports quota exhaustion.
type ChatService struct {
	generator *Generator
}

// NewChatService creates a new chat service.
func NewChatService(generator *Generator) *ChatService {
	return &ChatService{generator: generator}
}

// Complete returns the full reply.
func (s *ChatService) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	logger.Section("Chat")
	text, _, err := s.generator.Complete(ctx, req, domain.PolicyQuotaOnly)
	return text, err
}

// Stream returns the reply as an event stream.
// A non-quota primary failure ends with "openai_failed"; a fallback failure with "ollama_failed".
func (s *ChatService) Stream(ctx context.Context, req domain.CompletionRequest) <-chan domain.StreamEvent {
	logger.Section("Chat Stream")
	return s.generator.Stream(ctx, req, domain.PolicyQuotaOnly, chatLabels)
}
