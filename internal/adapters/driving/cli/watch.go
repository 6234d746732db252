package cli

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/services"
)

var watchSettle time.Duration

var watchCmd = &cobra.Command{
	Use:   "watch [dir]",
	Short: "Ingest files as they appear in a folder",
	Long: `Watches a folder and ingests every regular, non-hidden file that is
created or written, once it has been quiet for the settle delay.
Runs until interrupted.`,
	Args: cobra.ExactArgs(1),
	RunE: runWatch,
}

func init() {
	watchCmd.Flags().DurationVar(&watchSettle, "settle", services.DefaultSettleDelay, "quiet period before a changed file is ingested")
	rootCmd.AddCommand(watchCmd)
}

func runWatch(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	w := services.NewFolderWatcher(ingestService, args[0])
	w.SetSettleDelay(watchSettle)

	results, err := w.Watch(cmd.Context())
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", args[0], err)
	}

	cmd.Printf("Watching %s (Ctrl+C to stop)\n", args[0])
	for r := range results {
		if r.Err != nil {
			cmd.PrintErrf("  %s: %v\n", r.Path, r.Err)
			continue
		}
		cmd.Printf("  %s -> %s (%d chunks)\n", r.Path, r.Result.DocumentID, r.Result.Chunks)
	}
	return nil
}
