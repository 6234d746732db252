package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage application settings",
	Long: `View and configure completion providers, embeddings, storage and other options.

Values resolve in order: environment variables, then ~/.sercha-kb/config.toml,
then defaults. Use subcommands to change the config file.`,
	Annotations: map[string]string{noServices: ""},
	RunE:        runSettingsShow,
}

var settingsShowCmd = &cobra.Command{
	Use:         "show",
	Short:       "Show current settings",
	Annotations: map[string]string{noServices: ""},
	RunE:        runSettingsShow,
}

var settingsSetCmd = &cobra.Command{
	Use:   "set [key] [value]",
	Short: "Set one config file value",
	Long: `Set one value in the config file by dotted key, for example:

  sercha-kb settings set llm.primary.provider anthropic
  sercha-kb settings set chunking.size 800

Run 'sercha-kb settings keys' for the full list.`,
	Args:        cobra.ExactArgs(2),
	Annotations: map[string]string{noServices: ""},
	RunE:        runSettingsSet,
}

var settingsKeysCmd = &cobra.Command{
	Use:         "keys",
	Short:       "List the keys accepted by set",
	Annotations: map[string]string{noServices: ""},
	Run: func(cmd *cobra.Command, _ []string) {
		if settingsService == nil {
			return
		}
		for _, k := range settingsService.Keys() {
			cmd.Println(k)
		}
	},
}

var settingsValidateCmd = &cobra.Command{
	Use:         "validate",
	Short:       "Check settings and ping the configured providers",
	Annotations: map[string]string{noServices: ""},
	RunE:        runSettingsValidate,
}

var settingsWizardCmd = &cobra.Command{
	Use:         "wizard",
	Short:       "Interactive setup wizard",
	Long:        `Run an interactive wizard to configure the completion providers step by step.`,
	Annotations: map[string]string{noServices: ""},
	RunE:        runSettingsWizard,
}

func init() {
	settingsCmd.AddCommand(settingsShowCmd)
	settingsCmd.AddCommand(settingsSetCmd)
	settingsCmd.AddCommand(settingsKeysCmd)
	settingsCmd.AddCommand(settingsValidateCmd)
	settingsCmd.AddCommand(settingsWizardCmd)
	rootCmd.AddCommand(settingsCmd)
}

func runSettingsShow(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("Current Settings")
	cmd.Println("================")
	cmd.Println()

	cmd.Println("[LLM]")
	printProvider(cmd, "Primary", settings.LLM.Primary)
	printProvider(cmd, "Fallback", settings.LLM.Fallback)
	cmd.Printf("  Timeout: %s\n", settings.LLM.Primary.Timeout)
	cmd.Printf("  Ollama generate endpoint: %t\n", settings.LLM.OllamaUseGenerate)
	cmd.Println()

	cmd.Println("[Embedding]")
	cmd.Printf("  Provider: %s\n", settings.Embedding.Provider.Description())
	if settings.Embedding.Model != "" {
		cmd.Printf("  Model: %s\n", settings.Embedding.Model)
	}
	if settings.Embedding.Provider.IsLocal() && settings.Embedding.BaseURL != "" {
		cmd.Printf("  Base URL: %s\n", settings.Embedding.BaseURL)
	}
	if settings.Embedding.Provider.RequiresAPIKey() {
		cmd.Printf("  API Key: %s\n", displayKey(settings.Embedding.APIKey))
	}
	if settings.Embedding.Dimensions > 0 {
		cmd.Printf("  Dimensions: %d\n", settings.Embedding.Dimensions)
	}
	cmd.Println()

	cmd.Println("[Vector Index]")
	cmd.Printf("  Backend: %s\n", settings.VectorIndex.Backend)
	switch settings.VectorIndex.Backend {
	case domain.VectorBackendChroma:
		cmd.Printf("  Chroma: %s:%d (API %s)\n", settings.VectorIndex.ChromaHost, settings.VectorIndex.ChromaPort, settings.VectorIndex.ChromaAPI)
	case domain.VectorBackendPGVector:
		cmd.Printf("  DSN: %s\n", displayKey(settings.VectorIndex.PostgresDSN))
	}
	cmd.Println()

	cmd.Println("[Storage]")
	cmd.Printf("  Backend: %s\n", settings.Storage.Backend)
	if settings.Storage.Backend == domain.StoreBackendMongo {
		cmd.Printf("  Mongo: %s (%s)\n", settings.Storage.MongoURI, settings.Storage.MongoDB)
	}
	if settings.Storage.DataDir != "" {
		cmd.Printf("  Data dir: %s\n", settings.Storage.DataDir)
	}
	if settings.Storage.FileDir != "" {
		cmd.Printf("  File dir: %s\n", settings.Storage.FileDir)
	}
	cmd.Println()

	cmd.Println("[Chunking]")
	cmd.Printf("  Size: %d\n", settings.Chunking.Size)
	cmd.Printf("  Overlap: %d\n", settings.Chunking.Overlap)
	cmd.Println()

	cmd.Println("[Server]")
	cmd.Printf("  Address: %s\n", settings.Server.Addr)
	cmd.Printf("  Allowed origins: %s\n", strings.Join(settings.Server.AllowedOrigins, ", "))
	cmd.Println()

	// Validation
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
		cmd.Println("Run 'sercha-kb settings wizard' to fix configuration issues.")
	} else {
		cmd.Println("Configuration is valid.")
	}

	return nil
}

func printProvider(cmd *cobra.Command, role string, p domain.ProviderSettings) {
	if p.Provider == "" {
		cmd.Printf("  %s: (none)\n", role)
		return
	}
	status := "configured"
	if !p.IsConfigured() {
		status = "not configured"
	}
	cmd.Printf("  %s: %s, model %s (%s)\n", role, p.Provider.Description(), p.Model, status)
	if p.BaseURL != "" {
		cmd.Printf("    Base URL: %s\n", p.BaseURL)
	}
	if p.Provider.RequiresAPIKey() {
		cmd.Printf("    API Key: %s\n", displayKey(p.APIKey))
	}
}

func runSettingsSet(cmd *cobra.Command, args []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Set(args[0], args[1]); err != nil {
		return fmt.Errorf("failed to set %s: %w", args[0], err)
	}
	cmd.Printf("Set %s\n", args[0])
	return nil
}

func runSettingsValidate(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	if err := settingsService.Validate(); err != nil {
		return err
	}
	cmd.Println("Settings: OK")

	cmd.Print("Embedding provider... ")
	if err := settingsService.ValidateEmbeddingConfig(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
	} else {
		cmd.Println("OK")
	}

	cmd.Print("Completion providers... ")
	if err := settingsService.ValidateProviders(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
		return errors.New("provider validation failed")
	}
	cmd.Println("OK")
	return nil
}

func runSettingsWizard(cmd *cobra.Command, _ []string) error {
	if settingsService == nil {
		return errors.New("settings service not configured")
	}

	settings, err := settingsService.Get()
	if err != nil {
		return fmt.Errorf("failed to get settings: %w", err)
	}

	cmd.Println("sercha-kb Settings Wizard")
	cmd.Println("=========================")
	cmd.Println()

	reader := bufio.NewReader(cmd.InOrStdin())

	// Step 1: Primary provider
	cmd.Println("Step 1: Primary Provider")
	cmd.Println("------------------------")
	primary, err := chooseProvider(cmd, reader, settings.LLM.Primary)
	if err != nil {
		return err
	}
	settings.LLM.Primary = primary
	cmd.Println()

	// Step 2: Local fallback
	cmd.Println("Step 2: Local Fallback (Ollama)")
	cmd.Println("-------------------------------")
	fallback := settings.LLM.Fallback
	fallback.Provider = domain.AIProviderOllama
	cmd.Printf("Enter Ollama URL [%s]: ", fallback.BaseURL)
	if v := readLine(reader); v != "" {
		fallback.BaseURL = v
	}
	if fallback.Model == "" {
		fallback.Model = domain.DefaultLLMModels()[domain.AIProviderOllama]
	}
	cmd.Printf("Enter model name [%s]: ", fallback.Model)
	if v := readLine(reader); v != "" {
		fallback.Model = v
	}
	settings.LLM.Fallback = fallback
	cmd.Println()

	if err := settingsService.Save(settings); err != nil {
		return fmt.Errorf("failed to save settings: %w", err)
	}

	cmd.Print("Validating providers... ")
	if err := settingsService.ValidateProviders(); err != nil {
		cmd.Printf("FAILED: %v\n", err)
	} else {
		cmd.Println("OK")
	}

	cmd.Println("Configuration Complete!")
	cmd.Println("=======================")
	if err := settingsService.Validate(); err != nil {
		cmd.Printf("Warning: %v\n", err)
	} else {
		cmd.Println("All settings are valid and saved.")
	}
	return nil
}

func chooseProvider(cmd *cobra.Command, reader *bufio.Reader, current domain.ProviderSettings) (domain.ProviderSettings, error) {
	providers := domain.AllLLMProviders()
	for i, p := range providers {
		cmd.Printf("  %d. %s\n", i+1, p.Description())
	}
	cmd.Print("\nEnter choice [1]: ")
	idx := parseChoice(readLine(reader), len(providers), 1)
	selected := providers[idx-1]

	out := current
	if out.Provider != selected {
		out = domain.ProviderSettings{Provider: selected, Timeout: current.Timeout}
	}

	defaultModel := out.Model
	if defaultModel == "" {
		defaultModel = domain.DefaultLLMModels()[selected]
	}
	cmd.Printf("Enter model name [%s]: ", defaultModel)
	out.Model = readLine(reader)
	if out.Model == "" {
		out.Model = defaultModel
	}

	if selected.RequiresAPIKey() {
		cmd.Print("Enter API key (blank keeps the current one): ")
		if key := readPassword(cmd.InOrStdin(), reader); key != "" {
			out.APIKey = key
		}
		cmd.Println()
		if out.APIKey == "" {
			return out, errors.New("API key is required for this provider")
		}
	}
	return out, nil
}

// Helper functions.

//nolint:errcheck // CLI helper, error ignored for UX
func readLine(reader *bufio.Reader) string {
	input, _ := reader.ReadString('\n')
	return strings.TrimSpace(input)
}

func parseChoice(input string, maxVal, defaultVal int) int {
	if input == "" {
		return defaultVal
	}
	val, err := strconv.Atoi(input)
	if err != nil || val < 1 || val > maxVal {
		return defaultVal
	}
	return val
}

func readPassword(in io.Reader, reader *bufio.Reader) string {
	// Try to read password without echo
	if f, ok := in.(*os.File); ok && term.IsTerminal(int(f.Fd())) {
		password, err := term.ReadPassword(int(f.Fd()))
		if err == nil {
			return string(password)
		}
	}
	// Fallback to regular input
	return readLine(reader)
}

func displayKey(key string) string {
	if key == "" {
		return "(not set)"
	}
	return maskAPIKey(key)
}

func maskAPIKey(key string) string {
	if len(key) <= 8 {
		return "****"
	}
	return key[:4] + "..." + key[len(key)-4:]
}
