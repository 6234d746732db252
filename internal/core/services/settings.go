package services

import (
	"errors"
	"fmt"
	"os"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

// Ensure SettingsService implements the interface.
var _ driving.SettingsService = (*SettingsService)(nil)

// Config keys for settings storage.
//
//nolint:gosec // G101: These are config key names, not actual credentials.
const (
	keyPrimaryProvider   = "llm.primary.provider"
	keyPrimaryModel      = "llm.primary.model"
	keyPrimaryBaseURL    = "llm.primary.base_url"
	keyPrimaryAPIKey     = "llm.primary.api_key"
	keyFallbackProvider  = "llm.fallback.provider"
	keyFallbackModel     = "llm.fallback.model"
	keyFallbackBaseURL   = "llm.fallback.base_url"
	keyLLMTimeout        = "llm.timeout"
	keyLLMRate           = "llm.requests_per_second"
	keyOllamaGenerate    = "llm.ollama_use_generate"
	keyEmbedProvider     = "embedding.provider"
	keyEmbedModel        = "embedding.model"
	keyEmbedBaseURL      = "embedding.base_url"
	keyEmbedAPIKey       = "embedding.api_key"
	keyEmbedDims         = "embedding.dimensions"
	keyEmbedRate         = "embedding.requests_per_second"
	keyVectorBackend     = "vector.backend"
	keyChromaHost        = "vector.chroma_host"
	keyChromaPort        = "vector.chroma_port"
	keyChromaAPI         = "vector.chroma_api"
	keyPGVectorDSN       = "vector.pgvector_dsn"
	keyStoreBackend      = "storage.backend"
	keyDataDir           = "storage.data_dir"
	keyFileDir           = "storage.file_dir"
	keyMongoURI          = "storage.mongo_uri"
	keyMongoDB           = "storage.mongo_db"
	keyChunkSize         = "chunking.size"
	keyChunkOverlap      = "chunking.overlap"
	keyServerAddr        = "server.addr"
	keyServerOriginsList = "server.allowed_origins"
)

// keyKinds lists every settable key with its value kind.
var keyKinds = map[string]string{
	keyPrimaryProvider:   "provider",
	keyPrimaryModel:      "string",
	keyPrimaryBaseURL:    "string",
	keyPrimaryAPIKey:     "string",
	keyFallbackProvider:  "provider",
	keyFallbackModel:     "string",
	keyFallbackBaseURL:   "string",
	keyLLMTimeout:        "duration",
	keyLLMRate:           "float",
	keyOllamaGenerate:    "bool",
	keyEmbedProvider:     "provider",
	keyEmbedModel:        "string",
	keyEmbedBaseURL:      "string",
	keyEmbedAPIKey:       "string",
	keyEmbedDims:         "int",
	keyEmbedRate:         "float",
	keyVectorBackend:     "vector",
	keyChromaHost:        "string",
	keyChromaPort:        "int",
	keyChromaAPI:         "string",
	keyPGVectorDSN:       "string",
	keyStoreBackend:      "store",
	keyDataDir:           "string",
	keyFileDir:           "string",
	keyMongoURI:          "string",
	keyMongoDB:           "string",
	keyChunkSize:         "int",
	keyChunkOverlap:      "int",
	keyServerAddr:        "string",
	keyServerOriginsList: "list",
}

// SettingsService resolves application settings.
// Precedence is environment, then config file, then defaults.
type SettingsService struct {
	configStore driven.ConfigStore
	aiValidator driven.AIConfigValidator
	lookupEnv   func(string) (string, bool)
}

// NewSettingsService creates a new settings service.
// The aiValidator is optional (can be nil).
func NewSettingsService(configStore driven.ConfigStore, aiValidator driven.AIConfigValidator) *SettingsService {
	return &SettingsService{
		configStore: configStore,
		aiValidator: aiValidator,
		lookupEnv:   os.LookupEnv,
	}
}

// SetEnvLookup replaces the environment source. Used by tests.
func (s *SettingsService) SetEnvLookup(lookup func(string) (string, bool)) {
	s.lookupEnv = lookup
}

// Get resolves current application settings.
func (s *SettingsService) Get() (*domain.AppSettings, error) {
	settings := s.fromConfig()
	if err := s.applyEnv(&settings); err != nil {
		return nil, err
	}
	return &settings, nil
}

// fromConfig overlays config file values on the defaults.
func (s *SettingsService) fromConfig() domain.AppSettings {
	d := domain.DefaultAppSettings()

	return domain.AppSettings{
		LLM: domain.LLMSettings{
			Primary: domain.ProviderSettings{
				Provider: s.getProvider(keyPrimaryProvider, d.LLM.Primary.Provider),
				Model:    s.getString(keyPrimaryModel, d.LLM.Primary.Model),
				BaseURL:  s.getString(keyPrimaryBaseURL, d.LLM.Primary.BaseURL),
				APIKey:   s.configStore.GetString(keyPrimaryAPIKey),
				Timeout:  s.getDuration(keyLLMTimeout, d.LLM.Primary.Timeout),

				RequestsPerSecond: s.getFloat(keyLLMRate, d.LLM.Primary.RequestsPerSecond),
			},
			Fallback: domain.ProviderSettings{
				Provider: s.getProvider(keyFallbackProvider, d.LLM.Fallback.Provider),
				Model:    s.getString(keyFallbackModel, d.LLM.Fallback.Model),
				BaseURL:  s.getString(keyFallbackBaseURL, d.LLM.Fallback.BaseURL),
				Timeout:  s.getDuration(keyLLMTimeout, d.LLM.Fallback.Timeout),
			},
			OllamaUseGenerate: s.getBool(keyOllamaGenerate, d.LLM.OllamaUseGenerate),
		},
		Embedding: domain.EmbeddingSettings{
			Provider:   s.getProvider(keyEmbedProvider, d.Embedding.Provider),
			Model:      s.getString(keyEmbedModel, d.Embedding.Model),
			BaseURL:    s.configStore.GetString(keyEmbedBaseURL),
			APIKey:     s.configStore.GetString(keyEmbedAPIKey),
			Dimensions: s.getInt(keyEmbedDims, d.Embedding.Dimensions),

			RequestsPerSecond: s.getFloat(keyEmbedRate, d.Embedding.RequestsPerSecond),
		},
		VectorIndex: domain.VectorIndexSettings{
			Backend:     domain.VectorBackend(s.getString(keyVectorBackend, string(d.VectorIndex.Backend))),
			ChromaHost:  s.getString(keyChromaHost, d.VectorIndex.ChromaHost),
			ChromaPort:  s.getInt(keyChromaPort, d.VectorIndex.ChromaPort),
			ChromaAPI:   s.getString(keyChromaAPI, d.VectorIndex.ChromaAPI),
			PostgresDSN: s.configStore.GetString(keyPGVectorDSN),
		},
		Storage: domain.StorageSettings{
			Backend:  domain.StoreBackend(s.getString(keyStoreBackend, string(d.Storage.Backend))),
			DataDir:  s.getString(keyDataDir, d.Storage.DataDir),
			FileDir:  s.getString(keyFileDir, d.Storage.FileDir),
			MongoURI: s.getString(keyMongoURI, d.Storage.MongoURI),
			MongoDB:  s.getString(keyMongoDB, d.Storage.MongoDB),
		},
		Chunking: domain.ChunkingSettings{
			Size:    s.getInt(keyChunkSize, d.Chunking.Size),
			Overlap: s.getIntAllowZero(keyChunkOverlap, d.Chunking.Overlap),
		},
		Server: domain.ServerSettings{
			Addr:           s.getString(keyServerAddr, d.Server.Addr),
			AllowedOrigins: s.getStringSlice(keyServerOriginsList, d.Server.AllowedOrigins),
		},
	}
}

// applyEnv overlays environment variables. Malformed numbers are errors.
//
//nolint:gocognit,gocyclo // Flat list of overrides
func (s *SettingsService) applyEnv(st *domain.AppSettings) error {
	var errs []error
	envInt := func(name string, dst *int) {
		if v, ok := s.env(name); ok {
			n, err := strconv.Atoi(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = n
		}
	}

	envRate := func(name string, dst *float64) {
		if v, ok := s.env(name); ok {
			f, err := parseRate(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", name, err))
				return
			}
			*dst = f
		}
	}

	// Primary role. Selecting the fallback's provider as primary disables the
	// primary role, so generation starts in USE_FALLBACK.
	if v, ok := s.env("LLM_PRIMARY"); ok {
		p := domain.AIProvider(strings.ToLower(v))
		switch {
		case p == st.LLM.Fallback.Provider:
			st.LLM.Primary = domain.ProviderSettings{}
		case p.IsValid() && p != domain.AIProviderHashing:
			if p != st.LLM.Primary.Provider {
				st.LLM.Primary.Provider = p
				st.LLM.Primary.Model = domain.DefaultLLMModels()[p]
				st.LLM.Primary.BaseURL = ""
				st.LLM.Primary.APIKey = ""
			}
		default:
			errs = append(errs, fmt.Errorf("LLM_PRIMARY: %w: %s", domain.ErrUnsupportedType, v))
		}
	}
	switch st.LLM.Primary.Provider {
	case domain.AIProviderOpenAI:
		s.envString("OPENAI_API_KEY", &st.LLM.Primary.APIKey)
		s.envString("OPENAI_MODEL", &st.LLM.Primary.Model)
		s.envString("OPENAI_BASE_URL", &st.LLM.Primary.BaseURL)
	case domain.AIProviderAnthropic:
		s.envString("ANTHROPIC_API_KEY", &st.LLM.Primary.APIKey)
	}
	envRate("LLM_REQUESTS_PER_SECOND", &st.LLM.Primary.RequestsPerSecond)

	// Fallback role.
	if st.LLM.Fallback.Provider == domain.AIProviderOllama {
		s.envString("OLLAMA_URL", &st.LLM.Fallback.BaseURL)
		s.envString("LLM_MODEL", &st.LLM.Fallback.Model)
	}
	if v, ok := s.env("OLLAMA_USE_GENERATE"); ok {
		b, err := strconv.ParseBool(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("OLLAMA_USE_GENERATE: %w", err))
		} else {
			st.LLM.OllamaUseGenerate = b
		}
	}
	if v, ok := s.env("LLM_TIMEOUT"); ok {
		d, err := parseTimeout(v)
		if err != nil {
			errs = append(errs, fmt.Errorf("LLM_TIMEOUT: %w", err))
		} else {
			st.LLM.Primary.Timeout = d
			st.LLM.Fallback.Timeout = d
		}
	}

	// Embedding.
	if v, ok := s.env("EMBED_PROVIDER"); ok {
		st.Embedding.Provider = domain.AIProvider(strings.ToLower(v))
	}
	envInt("EMBED_DIM", &st.Embedding.Dimensions)
	envRate("EMBED_REQUESTS_PER_SECOND", &st.Embedding.RequestsPerSecond)
	switch st.Embedding.Provider {
	case domain.AIProviderOllama:
		s.envString("OLLAMA_URL", &st.Embedding.BaseURL)
	case domain.AIProviderOpenAI:
		if st.Embedding.APIKey == "" {
			s.envString("OPENAI_API_KEY", &st.Embedding.APIKey)
		}
	}

	// Chunking.
	envInt("CHUNK_SIZE", &st.Chunking.Size)
	envInt("CHUNK_OVERLAP", &st.Chunking.Overlap)

	// Vector index.
	if v, ok := s.env("VECTOR_BACKEND"); ok {
		st.VectorIndex.Backend = domain.VectorBackend(strings.ToLower(v))
	}
	s.envString("CHROMA_HOST", &st.VectorIndex.ChromaHost)
	envInt("CHROMA_PORT", &st.VectorIndex.ChromaPort)
	s.envString("CHROMA_API_VERSION", &st.VectorIndex.ChromaAPI)
	s.envString("PGVECTOR_DSN", &st.VectorIndex.PostgresDSN)

	// Storage.
	if v, ok := s.env("DOC_STORE"); ok {
		st.Storage.Backend = domain.StoreBackend(strings.ToLower(v))
	}
	s.envString("MONGO_URI", &st.Storage.MongoURI)
	s.envString("MONGO_DB", &st.Storage.MongoDB)
	s.envString("FILE_STORAGE_DIR", &st.Storage.FileDir)
	s.envString("DATA_DIR", &st.Storage.DataDir)

	// Server.
	s.envString("HTTP_ADDR", &st.Server.Addr)
	if v, ok := s.env("ALLOWED_ORIGINS"); ok {
		st.Server.AllowedOrigins = splitList(v)
	}

	return errors.Join(errs...)
}

// env returns a non-blank environment value.
func (s *SettingsService) env(name string) (string, bool) {
	v, ok := s.lookupEnv(name)
	v = strings.TrimSpace(v)
	return v, ok && v != ""
}

func (s *SettingsService) envString(name string, dst *string) {
	if v, ok := s.env(name); ok {
		*dst = v
	}
}

// parseTimeout accepts a Go duration ("90s") or a number of seconds ("90").
func parseTimeout(v string) (time.Duration, error) {
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	return time.ParseDuration(v)
}

// parseRate accepts a non-negative requests-per-second value.
func parseRate(v string) (float64, error) {
	f, err := strconv.ParseFloat(v, 64)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, fmt.Errorf("must not be negative: %s", v)
	}
	return f, nil
}

func splitList(v string) []string {
	var out []string
	for _, p := range strings.Split(v, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Save persists application settings to the config file.
// API keys are written only when set.
func (s *SettingsService) Save(settings *domain.AppSettings) error {
	values := []struct {
		key   string
		value any
		skip  bool
	}{
		{keyPrimaryProvider, settings.LLM.Primary.Provider.String(), false},
		{keyPrimaryModel, settings.LLM.Primary.Model, false},
		{keyPrimaryBaseURL, settings.LLM.Primary.BaseURL, false},
		{keyPrimaryAPIKey, settings.LLM.Primary.APIKey, settings.LLM.Primary.APIKey == ""},
		{keyFallbackProvider, settings.LLM.Fallback.Provider.String(), false},
		{keyFallbackModel, settings.LLM.Fallback.Model, false},
		{keyFallbackBaseURL, settings.LLM.Fallback.BaseURL, false},
		{keyLLMTimeout, settings.LLM.Primary.Timeout.String(), settings.LLM.Primary.Timeout == 0},
		{keyLLMRate, settings.LLM.Primary.RequestsPerSecond, settings.LLM.Primary.RequestsPerSecond == 0},
		{keyOllamaGenerate, settings.LLM.OllamaUseGenerate, false},
		{keyEmbedProvider, settings.Embedding.Provider.String(), false},
		{keyEmbedModel, settings.Embedding.Model, false},
		{keyEmbedBaseURL, settings.Embedding.BaseURL, false},
		{keyEmbedAPIKey, settings.Embedding.APIKey, settings.Embedding.APIKey == ""},
		{keyEmbedDims, settings.Embedding.Dimensions, false},
		{keyEmbedRate, settings.Embedding.RequestsPerSecond, settings.Embedding.RequestsPerSecond == 0},
		{keyVectorBackend, string(settings.VectorIndex.Backend), false},
		{keyChromaHost, settings.VectorIndex.ChromaHost, false},
		{keyChromaPort, settings.VectorIndex.ChromaPort, false},
		{keyChromaAPI, settings.VectorIndex.ChromaAPI, settings.VectorIndex.ChromaAPI == ""},
		{keyPGVectorDSN, settings.VectorIndex.PostgresDSN, false},
		{keyStoreBackend, string(settings.Storage.Backend), false},
		{keyDataDir, settings.Storage.DataDir, false},
		{keyFileDir, settings.Storage.FileDir, false},
		{keyMongoURI, settings.Storage.MongoURI, false},
		{keyMongoDB, settings.Storage.MongoDB, false},
		{keyChunkSize, settings.Chunking.Size, false},
		{keyChunkOverlap, settings.Chunking.Overlap, false},
		{keyServerAddr, settings.Server.Addr, false},
		{keyServerOriginsList, settings.Server.AllowedOrigins, false},
	}

	for _, v := range values {
		if v.skip {
			continue
		}
		if err := s.configStore.Set(v.key, v.value); err != nil {
			return fmt.Errorf("save %s: %w", v.key, err)
		}
	}
	return nil
}

// Set validates and persists one value by dotted key.
func (s *SettingsService) Set(key, value string) error {
	kind, ok := keyKinds[key]
	if !ok {
		return fmt.Errorf("%w: unknown setting %q", domain.ErrInvalidInput, key)
	}

	var parsed any = value
	switch kind {
	case "int":
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be an integer", domain.ErrInvalidInput, key)
		}
		parsed = n
	case "float":
		f, err := parseRate(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be a non-negative number", domain.ErrInvalidInput, key)
		}
		parsed = f
	case "bool":
		b, err := strconv.ParseBool(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be true or false", domain.ErrInvalidInput, key)
		}
		parsed = b
	case "duration":
		d, err := parseTimeout(value)
		if err != nil {
			return fmt.Errorf("%w: %s must be a duration", domain.ErrInvalidInput, key)
		}
		parsed = d.String()
	case "provider":
		if !domain.AIProvider(value).IsValid() {
			return fmt.Errorf("%w: invalid provider %q", domain.ErrInvalidInput, value)
		}
	case "vector":
		if !domain.VectorBackend(value).IsValid() {
			return fmt.Errorf("%w: invalid vector backend %q", domain.ErrInvalidInput, value)
		}
	case "store":
		if !domain.StoreBackend(value).IsValid() {
			return fmt.Errorf("%w: invalid storage backend %q", domain.ErrInvalidInput, value)
		}
	case "list":
		parsed = splitList(value)
	}

	return s.configStore.Set(key, parsed)
}

// Keys returns the dotted keys accepted by Set, sorted.
func (s *SettingsService) Keys() []string {
	keys := make([]string, 0, len(keyKinds))
	for k := range keyKinds {
		keys = append(keys, k)
	}
	slices.Sort(keys)
	return keys
}

// GetDefaults returns default settings.
func (s *SettingsService) GetDefaults() domain.AppSettings {
	return domain.DefaultAppSettings()
}

// GetPipelineConfig returns the chunking pipeline configuration.
// Falls back to the defaults when settings cannot be resolved.
func (s *SettingsService) GetPipelineConfig() domain.PipelineConfig {
	settings, err := s.Get()
	if err != nil {
		return domain.DefaultPipelineConfig()
	}
	return domain.PipelineConfigFor(settings.Chunking)
}

// Validate checks current settings for consistency.
func (s *SettingsService) Validate() error {
	settings, err := s.Get()
	if err != nil {
		return err
	}

	var errs []error
	if p := settings.LLM.Primary.Provider; p != "" && !p.IsValid() {
		errs = append(errs, fmt.Errorf("invalid primary provider: %s", p))
	}
	if p := settings.LLM.Fallback.Provider; p != "" && !p.IsValid() {
		errs = append(errs, fmt.Errorf("invalid fallback provider: %s", p))
	}
	if !settings.Embedding.Provider.IsValid() || !slices.Contains(domain.AllEmbeddingProviders(), settings.Embedding.Provider) {
		errs = append(errs, fmt.Errorf("invalid embedding provider: %s", settings.Embedding.Provider))
	}
	if settings.Embedding.Dimensions < 0 {
		errs = append(errs, fmt.Errorf("embedding dimensions must not be negative"))
	}
	if !settings.VectorIndex.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("invalid vector backend: %s", settings.VectorIndex.Backend))
	}
	if v := settings.VectorIndex.ChromaAPI; v != "" && v != "v1" && v != "v2" {
		errs = append(errs, fmt.Errorf("chroma api must be v1 or v2: %s", v))
	}
	if settings.VectorIndex.Backend == domain.VectorBackendPGVector && settings.VectorIndex.PostgresDSN == "" {
		errs = append(errs, fmt.Errorf("vector backend pgvector requires a DSN"))
	}
	if !settings.Storage.Backend.IsValid() {
		errs = append(errs, fmt.Errorf("invalid storage backend: %s", settings.Storage.Backend))
	}
	if settings.Chunking.Size < 1 {
		errs = append(errs, fmt.Errorf("chunk size must be positive"))
	}
	if settings.Chunking.Overlap < 0 {
		errs = append(errs, fmt.Errorf("chunk overlap must not be negative"))
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", domain.ErrInvalidInput, errors.Join(errs...))
	}
	return nil
}

// ValidateEmbeddingConfig pings the configured embedding provider.
func (s *SettingsService) ValidateEmbeddingConfig() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	return s.aiValidator.ValidateEmbedding(&settings.Embedding)
}

// ValidateProviders pings the configured completion providers.
func (s *SettingsService) ValidateProviders() error {
	if s.aiValidator == nil {
		return nil
	}
	settings, err := s.Get()
	if err != nil {
		return err
	}
	if err := s.aiValidator.ValidateProvider(&settings.LLM.Primary); err != nil {
		return fmt.Errorf("primary: %w", err)
	}
	if err := s.aiValidator.ValidateProvider(&settings.LLM.Fallback); err != nil {
		return fmt.Errorf("fallback: %w", err)
	}
	return nil
}

// Helper methods for reading config with defaults.

func (s *SettingsService) getString(key, defaultVal string) string {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getInt(key string, defaultVal int) int {
	val := s.configStore.GetInt(key)
	if val == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getIntAllowZero(key string, defaultVal int) int {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetInt(key)
}

func (s *SettingsService) getBool(key string, defaultVal bool) bool {
	if _, exists := s.configStore.Get(key); !exists {
		return defaultVal
	}
	return s.configStore.GetBool(key)
}

func (s *SettingsService) getDuration(key string, defaultVal time.Duration) time.Duration {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	d, err := parseTimeout(val)
	if err != nil || d <= 0 {
		return defaultVal
	}
	return d
}

func (s *SettingsService) getFloat(key string, defaultVal float64) float64 {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	f, err := parseRate(val)
	if err != nil {
		return defaultVal
	}
	return f
}

func (s *SettingsService) getStringSlice(key string, defaultVal []string) []string {
	val := s.configStore.GetStringSlice(key)
	if len(val) == 0 {
		return defaultVal
	}
	return val
}

func (s *SettingsService) getProvider(key string, defaultVal domain.AIProvider) domain.AIProvider {
	val := s.configStore.GetString(key)
	if val == "" {
		return defaultVal
	}
	provider := domain.AIProvider(val)
	if !provider.IsValid() {
		return defaultVal
	}
	return provider
}
