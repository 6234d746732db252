package cli

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

var analyticsDays int

var analyticsCmd = &cobra.Command{
	Use:   "analytics",
	Short: "Show usage over recent days",
	Args:  cobra.NoArgs,
	RunE:  runAnalytics,
}

func init() {
	analyticsCmd.Flags().IntVar(&analyticsDays, "days", domain.DefaultSummaryDays, "window in days (1-90)")
	rootCmd.AddCommand(analyticsCmd)
}

func runAnalytics(cmd *cobra.Command, _ []string) error {
	if analyticsService == nil {
		return errNotConfigured("analytics")
	}

	sum, err := analyticsService.Summary(cmd.Context(), analyticsDays)
	if err != nil {
		return fmt.Errorf("failed to summarise usage: %w", err)
	}

	cmd.Printf("Since:      %s\n", sum.Since.Local().Format(time.DateTime))
	cmd.Printf("Uploads:    %d\n", sum.Uploads)
	cmd.Printf("Questions:  %d\n", sum.Questions)
	if len(sum.PerDay) == 0 {
		return nil
	}

	cmd.Println()
	peak := 0
	for _, d := range sum.PerDay {
		peak = max(peak, d.Events)
	}
	for _, d := range sum.PerDay {
		cmd.Printf("  %s %4d %s\n", d.Date, d.Events, bar(d.Events, peak, 30))
	}
	return nil
}

// bar renders n relative to peak as at most width blocks.
func bar(n, peak, width int) string {
	if peak <= 0 || n <= 0 {
		return ""
	}
	return strings.Repeat("#", max(1, n*width/peak))
}
