// Command sercha-kb answers questions grounded in uploaded documents.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/ai"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/cli"
	"github.com/custodia-labs/sercha-kb/internal/core/services"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// version is set at build time with -ldflags "-X main.version=...".
var version = ""

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}

func run() error {
	loaded, err := file.LoadEnv()
	if err != nil {
		return err
	}

	configStore, err := file.NewConfigStore("")
	if err != nil {
		return fmt.Errorf("opening config: %w", err)
	}
	settingsSvc := services.NewSettingsService(configStore, ai.NewConfigValidator())

	cli.SetSettingsService(settingsSvc)
	cli.SetBuilder(func(ctx context.Context) (*cli.Services, func(), error) {
		for _, p := range loaded {
			logger.Debug("Loaded environment from %s", p)
		}
		settings, err := settingsSvc.Get()
		if err != nil {
			return nil, nil, err
		}
		return build(ctx, settings, settingsSvc.GetPipelineConfig())
	})

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	return cli.Execute(ctx, version)
}
