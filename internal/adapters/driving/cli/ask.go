package cli

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

var (
	askDocument string
	askFormat   string
	askStream   bool
)

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a question from the ingested documents",
	Long: `Retrieves the most relevant chunks and asks the configured model to answer
using only them. The primary provider is tried first; any failure falls back
to the local model.

Formats:
  plain     - the answer as generated (default)
  one_line  - newlines collapsed to single spaces
  lines     - one non-empty line per row
  text      - the answer only, without sources`,
	Args: cobra.ExactArgs(1),
	RunE: runAsk,
}

func init() {
	askCmd.Flags().StringVarP(&askDocument, "document", "d", "", "restrict the answer to one document")
	askCmd.Flags().StringVarP(&askFormat, "format", "f", string(domain.AnswerFormatPlain), "answer format: plain, one_line, lines, text")
	askCmd.Flags().BoolVarP(&askStream, "stream", "s", false, "print the answer as it is generated")
	rootCmd.AddCommand(askCmd)
}

func runAsk(cmd *cobra.Command, args []string) error {
	if answerService == nil {
		return errNotConfigured("answer")
	}

	format, err := domain.ParseAnswerFormat(askFormat)
	if err != nil {
		return fmt.Errorf("unknown format %q", askFormat)
	}

	req := driving.AskRequest{Query: args[0], DocumentID: askDocument}

	if askStream {
		events, err := answerService.AskStream(cmd.Context(), req)
		if err != nil {
			return describeAnswerError(err)
		}
		return printStream(cmd, events)
	}

	ans, err := answerService.Ask(cmd.Context(), req)
	if err != nil {
		return describeAnswerError(err)
	}
	printAnswer(cmd, ans, format)
	return nil
}

// printAnswer writes the shaped answer followed by its sources.
func printAnswer(cmd *cobra.Command, ans *domain.Answer, format domain.AnswerFormat) {
	shaped := format.Shape(ans.Text)
	if shaped.Format == domain.AnswerFormatLines {
		for _, line := range shaped.Lines {
			cmd.Println(line)
		}
	} else {
		cmd.Println(shaped.Text)
	}

	if format == domain.AnswerFormatText || len(ans.Sources) == 0 {
		return
	}
	cmd.Println()
	cmd.Println("Sources:")
	for i, src := range ans.Sources {
		cmd.Printf("  [%d] %s #%d\n", i+1, src.Filename, src.ChunkIndex)
	}
}

// printStream relays token events to stdout until done.
// On a terminal a "thinking..." marker is shown until the first token.
func printStream(cmd *cobra.Command, events <-chan domain.StreamEvent) error {
	out := cmd.OutOrStdout()
	tty := isTerminal(out)
	waiting := false
	var label string

	for ev := range events {
		switch ev.Kind {
		case domain.EventTyping:
			if tty {
				fmt.Fprint(out, "thinking...")
				waiting = true
			}
		case domain.EventToken:
			if waiting {
				fmt.Fprint(out, "\r\033[K")
				waiting = false
			}
			fmt.Fprint(out, ev.Data)
		case domain.EventRestart:
			// Printed text cannot be retracted; mark where the fallback's answer begins.
			fmt.Fprintln(out)
			fmt.Fprintln(cmd.ErrOrStderr(), "primary provider failed; answering with fallback")
		case domain.EventError:
			label = ev.Data
		case domain.EventDone:
			if waiting {
				fmt.Fprint(out, "\r\033[K")
				waiting = false
			}
		}
	}
	fmt.Fprintln(out)

	if label != "" {
		return fmt.Errorf("generation failed: %s", label)
	}
	return nil
}

func describeAnswerError(err error) error {
	switch {
	case errors.Is(err, domain.ErrNoContext):
		return errors.New("no indexed chunks match; ingest documents first")
	case errors.Is(err, domain.ErrLLMUnavailable):
		return errors.New("no completion provider is configured")
	case errors.Is(err, domain.ErrProviderUnavailable):
		return errors.New("all completion providers failed")
	default:
		return err
	}
}

// isTerminal reports whether w is an interactive terminal.
func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	return ok && term.IsTerminal(int(f.Fd()))
}
