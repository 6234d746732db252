package driven

// ConfigStore is the persisted settings layer. Keys are dot-separated
// ("llm.primary.model"); typed getters return the zero value when a key is
// missing or holds another type.
type ConfigStore interface {
	Get(key string) (any, bool)
	GetString(key string) string
	GetInt(key string) int
	GetBool(key string) bool
	GetStringSlice(key string) []string

	// Set stores value and persists the file.
	Set(key string, value any) error

	Save() error
	Load() error

	// Path is the backing file.
	Path() string
}
