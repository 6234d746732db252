package driven

import "github.com/custodia-labs/sercha-kb/internal/core/domain"

// AIConfigValidator validates AI provider configurations.
// Implementations verify configurations by testing connectivity
// to the underlying AI services.
type AIConfigValidator interface {
	// ValidateEmbedding validates an embedding configuration by pinging the provider.
	// Returns nil if configuration is valid or not configured.
	ValidateEmbedding(config *domain.EmbeddingSettings) error

	// ValidateProvider validates one completion provider role by pinging it.
	// Returns nil if configuration is valid or not configured.
	ValidateProvider(config *domain.ProviderSettings) error
}
