// Package ai provides factory functions for creating AI service adapters.
package ai

import (
	"context"
	"fmt"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/embedding/hashing"
	ollamaembed "github.com/custodia-labs/sercha-kb/internal/adapters/driven/embedding/ollama"
	openaiembed "github.com/custodia-labs/sercha-kb/internal/adapters/driven/embedding/openai"
	anthropicllm "github.com/custodia-labs/sercha-kb/internal/adapters/driven/llm/anthropic"
	ollamallm "github.com/custodia-labs/sercha-kb/internal/adapters/driven/llm/ollama"
	openaillm "github.com/custodia-labs/sercha-kb/internal/adapters/driven/llm/openai"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// pingTimeout is the maximum time to wait for service connectivity validation.
const pingTimeout = 5 * time.Second

// Providers holds the completion provider roles.
// Either role may be nil when it is not configured.
type Providers struct {
	Primary  driven.LLMService
	Fallback driven.LLMService
	Warnings []string // Roles that were configured but could not be built.
}

// Close releases both providers.
func (p *Providers) Close() {
	if p.Primary != nil {
		p.Primary.Close()
	}
	if p.Fallback != nil {
		p.Fallback.Close()
	}
}

// CreateProviders builds the primary and fallback roles.
// Construction errors are recorded as warnings and leave the role nil, so a
// missing API key never prevents the fallback from serving.
func CreateProviders(settings domain.LLMSettings) *Providers {
	p := &Providers{}

	primary, err := CreateLLMService(&settings.Primary, settings.OllamaUseGenerate)
	if err != nil {
		p.Warnings = append(p.Warnings, fmt.Sprintf("primary provider %s: %v", settings.Primary.Provider, err))
	} else {
		p.Primary = primary
	}

	fallback, err := CreateLLMService(&settings.Fallback, settings.OllamaUseGenerate)
	if err != nil {
		p.Warnings = append(p.Warnings, fmt.Sprintf("fallback provider %s: %v", settings.Fallback.Provider, err))
	} else {
		p.Fallback = fallback
	}

	for _, w := range p.Warnings {
		logger.Warn("%s", w)
	}
	return p
}

// CreateAndValidateEmbeddingService creates an embedding service and validates connectivity.
// Returns the service if successful, or an error with guidance.
func CreateAndValidateEmbeddingService(ctx context.Context, settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := CreateEmbeddingService(settings)
	if err != nil {
		return nil, fmt.Errorf("%w: %w. Run 'sercha-kb settings' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	ctx, cancel := context.WithTimeout(ctx, pingTimeout)
	defer cancel()

	if err := svc.Ping(ctx); err != nil {
		svc.Close()
		return nil, fmt.Errorf("%w: service unreachable (%w). Run 'sercha-kb settings' to fix",
			domain.ErrEmbeddingUnavailable, err)
	}

	return svc, nil
}

// CreateEmbeddingService creates the embedding service selected by settings.
// Nil or unconfigured settings select the hashing embedder.
func CreateEmbeddingService(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	if settings == nil || settings.Provider == "" {
		return hashing.NewEmbeddingService(domain.DefaultEmbeddingDimensions), nil
	}

	switch settings.Provider {
	case domain.AIProviderHashing:
		return hashing.NewEmbeddingService(settings.Dimensions), nil

	case domain.AIProviderOllama:
		return createOllamaEmbedding(settings), nil

	case domain.AIProviderOpenAI:
		return createOpenAIEmbedding(settings)

	case domain.AIProviderAnthropic:
		// Anthropic does not support embeddings.
		return nil, fmt.Errorf("anthropic does not support embeddings, use hashing, ollama or openai")

	default:
		return nil, fmt.Errorf("unsupported embedding provider: %s", settings.Provider)
	}
}

// CreateLLMService creates the completion service for one provider role.
// Returns nil if the role is not configured.
func CreateLLMService(settings *domain.ProviderSettings, ollamaUseGenerate bool) (driven.LLMService, error) {
	if settings == nil || !settings.IsConfigured() {
		return nil, nil
	}

	switch settings.Provider {
	case domain.AIProviderOllama:
		return createOllamaLLM(settings, ollamaUseGenerate), nil

	case domain.AIProviderOpenAI:
		return createOpenAILLM(settings)

	case domain.AIProviderAnthropic:
		return createAnthropicLLM(settings)

	default:
		return nil, fmt.Errorf("unsupported LLM provider: %s", settings.Provider)
	}
}

// embeddingDimensions resolves the vector size: explicit setting, known model, then fallback.
func embeddingDimensions(settings *domain.EmbeddingSettings, fallback int) int {
	if settings.Dimensions > 0 {
		return settings.Dimensions
	}
	if d := domain.EmbeddingDimensions()[settings.Model]; d > 0 {
		return d
	}
	return fallback
}

// createOllamaEmbedding creates an Ollama embedding service.
func createOllamaEmbedding(settings *domain.EmbeddingSettings) driven.EmbeddingService {
	return ollamaembed.NewEmbeddingService(ollamaembed.Config{
		BaseURL:    settings.BaseURL,
		Model:      settings.Model,
		Dimensions: embeddingDimensions(settings, ollamaembed.DefaultDimensions),
	})
}

// createOpenAIEmbedding creates an OpenAI embedding service.
func createOpenAIEmbedding(settings *domain.EmbeddingSettings) (driven.EmbeddingService, error) {
	svc, err := openaiembed.NewEmbeddingService(openaiembed.Config{
		APIKey:            settings.APIKey,
		BaseURL:           settings.BaseURL,
		Model:             settings.Model,
		Dimensions:        embeddingDimensions(settings, 0),
		RequestsPerSecond: settings.RequestsPerSecond,
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// createOllamaLLM creates an Ollama LLM service.
func createOllamaLLM(settings *domain.ProviderSettings, useGenerate bool) driven.LLMService {
	return ollamallm.NewLLMService(ollamallm.LLMConfig{
		BaseURL:     settings.BaseURL,
		Model:       settings.Model,
		Timeout:     settings.Timeout,
		UseGenerate: useGenerate,
	})
}

// createOpenAILLM creates an OpenAI LLM service.
func createOpenAILLM(settings *domain.ProviderSettings) (driven.LLMService, error) {
	svc, err := openaillm.NewLLMService(openaillm.Config{
		APIKey:            settings.APIKey,
		BaseURL:           settings.BaseURL,
		Model:             settings.Model,
		Timeout:           settings.Timeout,
		RequestsPerSecond: settings.RequestsPerSecond,
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}

// createAnthropicLLM creates an Anthropic LLM service.
func createAnthropicLLM(settings *domain.ProviderSettings) (driven.LLMService, error) {
	svc, err := anthropicllm.NewLLMService(anthropicllm.Config{
		APIKey:            settings.APIKey,
		BaseURL:           settings.BaseURL,
		Model:             settings.Model,
		Timeout:           settings.Timeout,
		RequestsPerSecond: settings.RequestsPerSecond,
	})
	if err != nil {
		return nil, err
	}
	return svc, nil
}
