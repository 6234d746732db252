package cli

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

var (
	searchLimit    int
	searchDocument string
	searchJSON     bool
)

var searchCmd = &cobra.Command{
	Use:   "search [query]",
	Short: "Find the passages most similar to a query",
	Long: `Embeds the query and returns the nearest indexed chunks, best first.
No language model is involved.`,
	Args: cobra.ExactArgs(1),
	RunE: runSearch,
}

func init() {
	searchCmd.Flags().IntVarP(&searchLimit, "limit", "n", domain.DefaultTopK, "maximum number of results")
	searchCmd.Flags().StringVarP(&searchDocument, "document", "d", "", "restrict results to one document")
	searchCmd.Flags().BoolVar(&searchJSON, "json", false, "output results as JSON")
	rootCmd.AddCommand(searchCmd)
}

func runSearch(cmd *cobra.Command, args []string) error {
	if searchService == nil {
		return errNotConfigured("search")
	}

	hits, err := searchService.Retrieve(cmd.Context(), args[0], domain.RetrieveOptions{
		TopK:       searchLimit,
		DocumentID: searchDocument,
	})
	if err != nil {
		return fmt.Errorf("search failed: %w", err)
	}

	if searchJSON {
		return outputSearchJSON(cmd, hits)
	}
	outputSearchTable(cmd, hits)
	return nil
}

type hitJSON struct {
	ID         string  `json:"id"`
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
	Text       string  `json:"text"`
}

func outputSearchJSON(cmd *cobra.Command, hits []domain.Hit) error {
	out := make([]hitJSON, len(hits))
	for i, h := range hits {
		out[i] = hitJSON{
			ID:         h.ID,
			DocumentID: h.Metadata.DocumentID,
			Filename:   h.Metadata.Filename,
			ChunkIndex: h.Metadata.ChunkIndex,
			Score:      h.Score,
			Text:       h.Text,
		}
	}
	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal results: %w", err)
	}
	cmd.Println(string(data))
	return nil
}

func outputSearchTable(cmd *cobra.Command, hits []domain.Hit) {
	if len(hits) == 0 {
		cmd.Println("No results found.")
		return
	}

	cmd.Println("Results:")
	cmd.Println()
	for i, h := range hits {
		// Format: [N] filename #chunk (score)
		cmd.Printf("  [%d] %s #%d (%.2f)\n", i+1, h.Metadata.Filename, h.Metadata.ChunkIndex, h.Score)
		cmd.Printf("      %s\n", snippet(h.Text, 160))
		cmd.Println()
	}
}

// snippet flattens text to one line of at most n runes.
func snippet(text string, n int) string {
	flat := strings.Join(strings.Fields(text), " ")
	r := []rune(flat)
	if len(r) <= n {
		return flat
	}
	return string(r[:n]) + "..."
}
