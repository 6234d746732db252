package domain

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAIProvider_IsValid(t *testing.T) {
	for _, p := range []AIProvider{AIProviderHashing, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic} {
		assert.True(t, p.IsValid(), p)
	}
	assert.False(t, AIProvider("").IsValid())
	assert.False(t, AIProvider("cohere").IsValid())
}

func TestAIProvider_Traits(t *testing.T) {
	assert.True(t, AIProviderOpenAI.RequiresAPIKey())
	assert.True(t, AIProviderAnthropic.RequiresAPIKey())
	assert.False(t, AIProviderOllama.RequiresAPIKey())
	assert.True(t, AIProviderOllama.IsLocal())
	assert.True(t, AIProviderHashing.IsLocal())
	assert.Equal(t, "Ollama (local)", AIProviderOllama.Description())
	assert.Equal(t, "Unknown", AIProvider("x").Description())
}

func TestProviderSettings_IsConfigured(t *testing.T) {
	tests := []struct {
		name     string
		settings ProviderSettings
		expected bool
	}{
		{"openai without key", ProviderSettings{Provider: AIProviderOpenAI}, false},
		{"openai with key", ProviderSettings{Provider: AIProviderOpenAI, APIKey: "sk-1"}, true},
		{"ollama needs no key", ProviderSettings{Provider: AIProviderOllama}, true},
		{"hashing cannot complete", ProviderSettings{Provider: AIProviderHashing}, false},
		{"empty", ProviderSettings{}, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.expected, tt.settings.IsConfigured())
		})
	}
}

func TestEmbeddingSettings_IsConfigured(t *testing.T) {
	assert.True(t, EmbeddingSettings{Provider: AIProviderHashing}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderOpenAI}.IsConfigured())
	assert.True(t, EmbeddingSettings{Provider: AIProviderOpenAI, APIKey: "k"}.IsConfigured())
	assert.False(t, EmbeddingSettings{Provider: AIProviderAnthropic, APIKey: "k"}.IsConfigured())
}

func TestDefaultAppSettings(t *testing.T) {
	s := DefaultAppSettings()

	assert.Equal(t, AIProviderOpenAI, s.LLM.Primary.Provider)
	assert.Equal(t, "o4-mini", s.LLM.Primary.Model)
	assert.False(t, s.LLM.Primary.IsConfigured(), "primary inactive without key")
	assert.Equal(t, AIProviderOllama, s.LLM.Fallback.Provider)
	assert.Equal(t, "llama3.1:8b", s.LLM.Fallback.Model)
	assert.Equal(t, "http://127.0.0.1:11434", s.LLM.Fallback.BaseURL)
	assert.Equal(t, 120*time.Second, s.LLM.Fallback.Timeout)

	assert.Equal(t, AIProviderHashing, s.Embedding.Provider)
	assert.Equal(t, 384, s.Embedding.Dimensions)
	assert.Equal(t, VectorBackendMemory, s.VectorIndex.Backend)
	assert.Equal(t, StoreBackendSQLite, s.Storage.Backend)
	assert.Equal(t, 1200, s.Chunking.Size)
	assert.Equal(t, 200, s.Chunking.Overlap)
	assert.Len(t, s.Server.AllowedOrigins, 3)
}

func TestBackends_IsValid(t *testing.T) {
	assert.True(t, VectorBackendChroma.IsValid())
	assert.True(t, VectorBackendPGVector.IsValid())
	assert.False(t, VectorBackend("qdrant").IsValid())
	assert.True(t, StoreBackendMongo.IsValid())
	assert.False(t, StoreBackend("postgres").IsValid())
}

func TestPipelineConfig(t *testing.T) {
	cfg := DefaultPipelineConfig()
	require.Equal(t, []string{"chunker"}, cfg.Processors)
	chunker := cfg.GetProcessorConfig("chunker")
	require.NotNil(t, chunker)
	assert.Equal(t, 1200, chunker["chunk_size"])
	assert.Equal(t, 200, chunker["overlap"])
	assert.Nil(t, cfg.GetProcessorConfig("missing"))

	empty := PipelineConfig{}
	assert.Nil(t, empty.GetProcessorConfig("chunker"))
}

func TestValidSummaryDays(t *testing.T) {
	assert.True(t, ValidSummaryDays(1))
	assert.True(t, ValidSummaryDays(90))
	assert.False(t, ValidSummaryDays(0))
	assert.False(t, ValidSummaryDays(91))
}
