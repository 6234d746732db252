// Package cli provides the sercha-kb command line interface.
package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// version is set at build time.
var version = "dev"

// Services holds the driving ports used by commands.
type Services struct {
	Ingest    driving.IngestService
	Search    driving.SearchService
	Answer    driving.AnswerService
	Chat      driving.ChatService
	Document  driving.DocumentService
	Analytics driving.AnalyticsService

	// Server configures the HTTP API.
	Server domain.ServerSettings

	// Providers names the completion providers in fallback order.
	Providers []string
}

// Builder constructs services on first use. The returned func releases them.
type Builder func(ctx context.Context) (*Services, func(), error)

// Package-level service references, set by the builder or by tests.
var (
	ingestService    driving.IngestService
	searchService    driving.SearchService
	answerService    driving.AnswerService
	chatService      driving.ChatService
	documentService  driving.DocumentService
	analyticsService driving.AnalyticsService
	settingsService  driving.SettingsService
	serverSettings   domain.ServerSettings
	providerNames    []string

	builder Builder
	release func()
	verbose bool
)

// noServices marks commands that run without the storage and provider stack.
const noServices = "no-services"

var rootCmd = &cobra.Command{
	Use:   "sercha-kb",
	Short: "Ask questions of your documents",
	Long: `sercha-kb ingests documents, indexes their chunks as vectors and answers
questions grounded in them, falling back to a local model when the primary
provider is unavailable.`,
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "print debug output")
}

func setup(cmd *cobra.Command, _ []string) error {
	logger.SetVerbose(verbose)
	if _, skip := cmd.Annotations[noServices]; skip {
		return nil
	}
	if builder == nil || searchService != nil {
		return nil
	}

	svcs, closeFn, err := builder(cmd.Context())
	if err != nil {
		return fmt.Errorf("starting services: %w", err)
	}
	SetServices(svcs)
	release = closeFn
	return nil
}

// SetServices installs the driving ports used by commands.
func SetServices(s *Services) {
	ingestService = s.Ingest
	searchService = s.Search
	answerService = s.Answer
	chatService = s.Chat
	documentService = s.Document
	analyticsService = s.Analytics
	serverSettings = s.Server
	providerNames = s.Providers
}

// SetSettingsService sets the settings service used by the settings command.
func SetSettingsService(s driving.SettingsService) {
	settingsService = s
}

// SetBuilder sets the function that constructs services on first use.
func SetBuilder(b Builder) {
	builder = b
}

// Execute runs the root command.
func Execute(ctx context.Context, v string) error {
	if v != "" {
		version = v
	}
	defer Close()
	return rootCmd.ExecuteContext(ctx)
}

// Close releases services created by the builder.
func Close() {
	if release != nil {
		release()
		release = nil
	}
}

// errNotConfigured reports a missing service dependency.
func errNotConfigured(name string) error {
	return errors.New(name + " service not configured")
}
