package cli

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

var (
	chatSystem   string
	chatModel    string
	chatNoStream bool
)

var chatCmd = &cobra.Command{
	Use:   "chat [prompt]",
	Short: "Talk to the model without retrieval",
	Long: `Sends a prompt straight to the completion providers. The local model is
used only when the primary reports quota exhaustion.

Without a prompt argument, chat reads prompts line by line from stdin.`,
	Args: cobra.MaximumNArgs(1),
	RunE: runChat,
}

func init() {
	chatCmd.Flags().StringVar(&chatSystem, "system", "", "system instruction")
	chatCmd.Flags().StringVar(&chatModel, "model", "", "override the provider model")
	chatCmd.Flags().BoolVar(&chatNoStream, "no-stream", false, "wait for the full reply")
	rootCmd.AddCommand(chatCmd)
}

func runChat(cmd *cobra.Command, args []string) error {
	if chatService == nil {
		return errNotConfigured("chat")
	}

	if len(args) == 1 {
		return chatOnce(cmd, args[0])
	}
	return chatLoop(cmd, cmd.InOrStdin())
}

func chatOnce(cmd *cobra.Command, prompt string) error {
	req := domain.CompletionRequest{Prompt: prompt, System: chatSystem, Model: chatModel}

	if chatNoStream {
		reply, err := chatService.Complete(cmd.Context(), req)
		if err != nil {
			return fmt.Errorf("chat failed: %w", err)
		}
		cmd.Println(reply)
		return nil
	}
	return printStream(cmd, chatService.Stream(cmd.Context(), req))
}

// chatLoop sends each non-blank input line as a prompt until EOF or "exit".
func chatLoop(cmd *cobra.Command, in io.Reader) error {
	interactive := false
	if f, ok := in.(*os.File); ok {
		interactive = term.IsTerminal(int(f.Fd()))
	}

	scanner := bufio.NewScanner(in)
	for {
		if interactive {
			cmd.Print("> ")
		}
		if !scanner.Scan() {
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if line == "exit" || line == "quit" {
			return nil
		}

		if err := chatOnce(cmd, line); err != nil {
			cmd.PrintErrln(err)
		}
		if cmd.Context().Err() != nil {
			return cmd.Context().Err()
		}
	}
}
