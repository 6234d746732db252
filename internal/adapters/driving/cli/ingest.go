package cli

import (
	"fmt"
	"mime"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest [files...]",
	Short: "Ingest documents into the knowledge base",
	Long: `Stores each file, extracts its text, splits it into chunks and indexes
the chunks for retrieval. Supported types include PDF, DOCX, XLSX, HTML,
Markdown and plain text.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	rootCmd.AddCommand(ingestCmd)
}

func runIngest(cmd *cobra.Command, args []string) error {
	if ingestService == nil {
		return errNotConfigured("ingest")
	}

	var failed int
	for _, path := range args {
		res, err := ingestFile(cmd, path)
		if err != nil {
			failed++
			cmd.PrintErrf("  %s: %v\n", path, err)
			continue
		}
		cmd.Printf("  %s -> %s (%d chunks)\n", path, res.DocumentID, res.Chunks)
	}

	if failed > 0 {
		return fmt.Errorf("%d of %d files failed", failed, len(args))
	}
	return nil
}

func ingestFile(cmd *cobra.Command, path string) (*driving.IngestResult, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	info, err := f.Stat()
	if err != nil {
		return nil, err
	}
	if info.IsDir() {
		return nil, fmt.Errorf("is a directory")
	}

	return ingestService.IngestFile(cmd.Context(), driving.IngestRequest{
		Filename:    filepath.Base(path),
		ContentType: mime.TypeByExtension(filepath.Ext(path)),
		Size:        info.Size(),
		Body:        f,
	})
}
