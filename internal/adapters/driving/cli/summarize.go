package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

var (
	summarizeStyle  string
	summarizeFormat string
)

var summarizeCmd = &cobra.Command{
	Use:   "summarize [doc-id]",
	Short: "Summarise an ingested document",
	Long: `Summarises the first chunks of a document in index order.
Use --style to replace the default instruction.`,
	Args: cobra.ExactArgs(1),
	RunE: runSummarize,
}

func init() {
	summarizeCmd.Flags().StringVar(&summarizeStyle, "style", "", "instruction replacing the default summary style")
	summarizeCmd.Flags().StringVarP(&summarizeFormat, "format", "f", string(domain.AnswerFormatPlain), "answer format: plain, one_line, lines, text")
	rootCmd.AddCommand(summarizeCmd)
}

func runSummarize(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errNotConfigured("answer")
	}

	format, err := domain.ParseAnswerFormat(summarizeFormat)
	if err != nil {
		return fmt.Errorf("unknown format %q", summarizeFormat)
	}

	ans, err := answerService.Summarize(cmd.Context(), driving.SummarizeRequest{
		DocumentID: args[0],
		Style:      summarizeStyle,
	})
	if err != nil {
		return describeAnswerError(err)
	}
	printAnswer(cmd, ans, format)
	return nil
}
