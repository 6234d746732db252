package domain

import "time"

const unknownDescription = "Unknown"

// AIProvider identifies an AI service provider for embeddings or completions.
type AIProvider string

// Available AI providers.
const (
	// AIProviderHashing is the model-free feature-hashing embedder.
	AIProviderHashing AIProvider = "hashing"

	// AIProviderOllama is local Ollama instance.
	AIProviderOllama AIProvider = "ollama"

	// AIProviderOpenAI is OpenAI cloud API.
	AIProviderOpenAI AIProvider = "openai"

	// AIProviderAnthropic is Anthropic cloud API.
	AIProviderAnthropic AIProvider = "anthropic"
)

// IsValid returns true if the AI provider is recognised.
func (p AIProvider) IsValid() bool {
	switch p {
	case AIProviderHashing, AIProviderOllama, AIProviderOpenAI, AIProviderAnthropic:
		return true
	default:
		return false
	}
}

// RequiresAPIKey returns true if this provider needs an API key.
func (p AIProvider) RequiresAPIKey() bool {
	return p == AIProviderOpenAI || p == AIProviderAnthropic
}

// IsLocal returns true if this provider runs locally.
func (p AIProvider) IsLocal() bool {
	return p == AIProviderOllama || p == AIProviderHashing
}

// String returns the string representation.
func (p AIProvider) String() string {
	return string(p)
}

// Description returns a human-readable description of the provider.
func (p AIProvider) Description() string {
	switch p {
	case AIProviderHashing:
		return "Feature hashing (built in, no model)"
	case AIProviderOllama:
		return "Ollama (local)"
	case AIProviderOpenAI:
		return "OpenAI (cloud)"
	case AIProviderAnthropic:
		return "Anthropic (cloud)"
	default:
		return unknownDescription
	}
}

// DefaultLLMTimeout bounds each provider request or stream read.
const DefaultLLMTimeout = 120 * time.Second

// ProviderSettings configures one completion provider role.
// Read-only for the lifetime of the process.
type ProviderSettings struct {
	// Provider is the completion backend.
	Provider AIProvider

	// Model is the model identifier.
	Model string

	// BaseURL is the API endpoint. Empty uses the adapter default.
	BaseURL string

	// APIKey is the credential for cloud providers.
	APIKey string

	// Timeout bounds each request or stream read.
	Timeout time.Duration

	// RequestsPerSecond throttles calls to cloud providers. Zero disables it.
	RequestsPerSecond float64
}

// IsConfigured returns true if the provider can be used.
// A cloud provider without its key counts as not configured.
func (s ProviderSettings) IsConfigured() bool {
	if !s.Provider.IsValid() || s.Provider == AIProviderHashing {
		return false
	}
	if s.Provider.RequiresAPIKey() && s.APIKey == "" {
		return false
	}
	return true
}

// LLMSettings holds the primary and fallback provider roles.
type LLMSettings struct {
	// Primary is tried first when configured.
	Primary ProviderSettings

	// Fallback is used when the primary is absent or fails.
	Fallback ProviderSettings

	// OllamaUseGenerate forces Ollama's /api/generate endpoint.
	OllamaUseGenerate bool
}

// EmbeddingSettings holds embedding provider configuration.
type EmbeddingSettings struct {
	// Provider is the embedding service provider.
	Provider AIProvider

	// Model is the embedding model name (model-backed providers only).
	Model string

	// BaseURL is the API endpoint (for Ollama).
	BaseURL string

	// APIKey is the API key (for OpenAI).
	APIKey string

	// Dimensions is the vector size.
	Dimensions int

	// RequestsPerSecond throttles calls to cloud providers. Zero disables it.
	RequestsPerSecond float64
}

// IsConfigured returns true if the embedding provider is set up.
func (e EmbeddingSettings) IsConfigured() bool {
	if !e.Provider.IsValid() || e.Provider == AIProviderAnthropic {
		return false
	}
	if e.Provider.RequiresAPIKey() && e.APIKey == "" {
		return false
	}
	return true
}

// VectorBackend selects the vector index implementation.
type VectorBackend string

// Available vector backends.
const (
	VectorBackendMemory   VectorBackend = "memory"
	VectorBackendChroma   VectorBackend = "chroma"
	VectorBackendPGVector VectorBackend = "pgvector"
)

// IsValid returns true if the backend is recognised.
func (b VectorBackend) IsValid() bool {
	switch b {
	case VectorBackendMemory, VectorBackendChroma, VectorBackendPGVector:
		return true
	default:
		return false
	}
}

// VectorIndexSettings holds vector index configuration.
type VectorIndexSettings struct {
	// Backend is the index implementation.
	Backend VectorBackend

	// ChromaHost and ChromaPort locate the Chroma server.
	ChromaHost string
	ChromaPort int

	// ChromaAPI is the Chroma HTTP API version, "v1" or "v2".
	ChromaAPI string

	// PostgresDSN is the pgvector connection string.
	PostgresDSN string
}

// StoreBackend selects the metadata store implementation.
type StoreBackend string

// Available metadata stores.
const (
	StoreBackendSQLite StoreBackend = "sqlite"
	StoreBackendMongo  StoreBackend = "mongo"
	StoreBackendMemory StoreBackend = "memory"
)

// IsValid returns true if the backend is recognised.
func (b StoreBackend) IsValid() bool {
	switch b {
	case StoreBackendSQLite, StoreBackendMongo, StoreBackendMemory:
		return true
	default:
		return false
	}
}

// StorageSettings holds document and usage storage configuration.
type StorageSettings struct {
	// Backend is the metadata store implementation.
	Backend StoreBackend

	// DataDir holds the sqlite database.
	DataDir string

	// FileDir holds uploaded file bytes.
	FileDir string

	// MongoURI and MongoDB locate the Mongo database.
	MongoURI string
	MongoDB  string
}

// ChunkingSettings holds chunker defaults.
type ChunkingSettings struct {
	Size    int
	Overlap int
}

// ServerSettings holds HTTP server configuration.
type ServerSettings struct {
	// Addr is the listen address.
	Addr string

	// AllowedOrigins is the CORS allow list.
	AllowedOrigins []string
}

// AppSettings holds all application settings.
type AppSettings struct {
	LLM         LLMSettings
	Embedding   EmbeddingSettings
	VectorIndex VectorIndexSettings
	Storage     StorageSettings
	Chunking    ChunkingSettings
	Server      ServerSettings
}

// DefaultAppSettings returns settings with sensible defaults.
// OpenAI is the primary role but stays inactive until a key is supplied.
func DefaultAppSettings() AppSettings {
	return AppSettings{
		LLM: LLMSettings{
			Primary: ProviderSettings{
				Provider: AIProviderOpenAI,
				Model:    DefaultLLMModels()[AIProviderOpenAI],
				Timeout:  DefaultLLMTimeout,
			},
			Fallback: ProviderSettings{
				Provider: AIProviderOllama,
				Model:    DefaultLLMModels()[AIProviderOllama],
				BaseURL:  "http://127.0.0.1:11434",
				Timeout:  DefaultLLMTimeout,
			},
		},
		Embedding: EmbeddingSettings{
			Provider:   AIProviderHashing,
			Dimensions: DefaultEmbeddingDimensions,
		},
		VectorIndex: VectorIndexSettings{
			Backend:    VectorBackendMemory,
			ChromaHost: "localhost",
			ChromaPort: 8001,
			ChromaAPI:  "v1",
		},
		Storage: StorageSettings{
			Backend:  StoreBackendSQLite,
			MongoURI: "mongodb://localhost:27017",
			MongoDB:  "bkp",
		},
		Chunking: ChunkingSettings{
			Size:    DefaultChunkSize,
			Overlap: DefaultChunkOverlap,
		},
		Server: ServerSettings{
			Addr: "127.0.0.1:8010",
			AllowedOrigins: []string{
				"http://localhost:5173",
				"http://127.0.0.1:8010",
				"http://localhost:8010",
			},
		},
	}
}

// DefaultEmbeddingDimensions is the hashing embedder's vector size.
const DefaultEmbeddingDimensions = 384

// AllEmbeddingProviders returns providers that support embeddings.
func AllEmbeddingProviders() []AIProvider {
	return []AIProvider{
		AIProviderHashing,
		AIProviderOllama,
		AIProviderOpenAI,
	}
}

// AllLLMProviders returns providers that support completions.
func AllLLMProviders() []AIProvider {
	return []AIProvider{
		AIProviderOllama,
		AIProviderOpenAI,
		AIProviderAnthropic,
	}
}

// DefaultLLMModels returns default models for each completion provider.
func DefaultLLMModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama:    "llama3.1:8b",
		AIProviderOpenAI:    "o4-mini",
		AIProviderAnthropic: "claude-3-5-sonnet-latest",
	}
}

// DefaultEmbeddingModels returns default models for each model-backed embedding provider.
func DefaultEmbeddingModels() map[AIProvider]string {
	return map[AIProvider]string{
		AIProviderOllama: "all-minilm",
		AIProviderOpenAI: "text-embedding-3-small",
	}
}

// EmbeddingDimensions returns the vector dimensions for known models.
func EmbeddingDimensions() map[string]int {
	return map[string]int{
		// Ollama models
		"nomic-embed-text":  768,
		"mxbai-embed-large": 1024,
		"all-minilm":        384,
		// OpenAI models
		"text-embedding-3-small": 1536,
		"text-embedding-3-large": 3072,
		"text-embedding-ada-002": 1536,
	}
}

// PipelineConfig holds post-processor pipeline configuration.
// Uses generic map-based config so processors can be added
// without modifying this struct.
type PipelineConfig struct {
	// Processors is the ordered list of processor names to run.
	Processors []string

	// ProcessorConfigs holds per-processor configuration keyed by processor name.
	ProcessorConfigs map[string]map[string]any
}

// GetProcessorConfig returns config for a specific processor, or nil if not set.
func (c *PipelineConfig) GetProcessorConfig(name string) map[string]any {
	if c.ProcessorConfigs == nil {
		return nil
	}
	return c.ProcessorConfigs[name]
}

// PipelineConfigFor returns a chunker-only pipeline using the given settings.
func PipelineConfigFor(c ChunkingSettings) PipelineConfig {
	return PipelineConfig{
		Processors: []string{"chunker"},
		ProcessorConfigs: map[string]map[string]any{
			"chunker": {
				"chunk_size": c.Size,
				"overlap":    c.Overlap,
			},
		},
	}
}

// DefaultPipelineConfig returns the default pipeline configuration.
func DefaultPipelineConfig() PipelineConfig {
	return PipelineConfigFor(ChunkingSettings{Size: DefaultChunkSize, Overlap: DefaultChunkOverlap})
}
