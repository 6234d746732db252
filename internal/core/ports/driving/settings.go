package driving

import "github.com/custodia-labs/sercha-kb/internal/core/domain"

// SettingsService manages application settings.
type SettingsService interface {
	// Get resolves current settings: environment over config file over defaults.
	Get() (*domain.AppSettings, error)

	// Save persists application settings to the config file.
	Save(settings *domain.AppSettings) error

	// Set persists one config file value by dotted key.
	Set(key, value string) error

	// Keys returns the dotted keys accepted by Set.
	Keys() []string

	// GetDefaults returns default settings.
	GetDefaults() domain.AppSettings

	// GetPipelineConfig returns the chunking pipeline configuration.
	GetPipelineConfig() domain.PipelineConfig

	// Validate checks current settings for consistency.
	Validate() error

	// ValidateEmbeddingConfig pings the configured embedding provider.
	ValidateEmbeddingConfig() error

	// ValidateProviders pings the configured completion providers.
	ValidateProviders() error
}
