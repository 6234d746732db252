package cli

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

var documentCmd = &cobra.Command{
	Use:     "documents",
	Aliases: []string{"document", "docs"},
	Short:   "Manage ingested documents",
	Long:    `List, inspect, or delete ingested documents.`,
}

var documentListCmd = &cobra.Command{
	Use:   "list",
	Short: "List documents, newest first",
	Args:  cobra.NoArgs,
	RunE:  runDocumentList,
}

var documentGetCmd = &cobra.Command{
	Use:   "get [doc-id]",
	Short: "Show document info",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentGet,
}

var documentDeleteCmd = &cobra.Command{
	Use:   "delete [doc-id]",
	Short: "Delete a document and its indexed chunks",
	Args:  cobra.ExactArgs(1),
	RunE:  runDocumentDelete,
}

// List flags.
var (
	listSearch string
	listExt    string
	listFrom   string
	listTo     string
	listPage   int
	listSize   int
	listJSON   bool
)

func init() {
	f := documentListCmd.Flags()
	f.StringVarP(&listSearch, "search", "s", "", "case-insensitive filename filter")
	f.StringVar(&listExt, "ext", "", "extension filter: pdf, docx, txt, md")
	f.StringVar(&listFrom, "from", "", "uploaded on or after (2006-01-02)")
	f.StringVar(&listTo, "to", "", "uploaded on or before (2006-01-02)")
	f.IntVar(&listPage, "page", 1, "page number")
	f.IntVar(&listSize, "size", domain.DefaultPageSize, "page size (max 100)")
	f.BoolVar(&listJSON, "json", false, "output as JSON")

	documentCmd.AddCommand(documentListCmd)
	documentCmd.AddCommand(documentGetCmd)
	documentCmd.AddCommand(documentDeleteCmd)
	rootCmd.AddCommand(documentCmd)
}

func runDocumentList(cmd *cobra.Command, _ []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	query := domain.DocumentQuery{
		Search: listSearch,
		Ext:    listExt,
		Page:   listPage,
		Size:   listSize,
	}
	if listFrom != "" {
		if query.DateFrom = domain.ParseDate(listFrom); query.DateFrom == nil {
			return fmt.Errorf("invalid --from date %q", listFrom)
		}
	}
	if listTo != "" {
		if query.DateTo = domain.ParseDate(listTo); query.DateTo == nil {
			return fmt.Errorf("invalid --to date %q", listTo)
		}
	}

	page, err := documentService.List(cmd.Context(), query)
	if err != nil {
		return fmt.Errorf("failed to list documents: %w", err)
	}

	if listJSON {
		data, err := json.MarshalIndent(page, "", "  ")
		if err != nil {
			return fmt.Errorf("failed to marshal documents: %w", err)
		}
		cmd.Println(string(data))
		return nil
	}

	if len(page.Items) == 0 {
		cmd.Println("No documents found.")
		return nil
	}

	for i := range page.Items {
		d := &page.Items[i]
		cmd.Printf("  %s  %-40s %6s  %3d chunks  %s\n",
			d.ID, d.Filename, d.Ext, d.ChunkCount, d.UploadedAt.Local().Format(time.DateTime))
	}
	cmd.Println()
	cmd.Printf("Page %d, showing %d of %d documents\n", page.Page, len(page.Items), page.Total)
	return nil
}

func runDocumentGet(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	doc, err := documentService.Get(cmd.Context(), args[0])
	if err != nil {
		return fmt.Errorf("failed to get document: %w", err)
	}

	cmd.Printf("ID:           %s\n", doc.ID)
	cmd.Printf("Filename:     %s\n", doc.Filename)
	cmd.Printf("Type:         %s\n", doc.ContentType)
	cmd.Printf("Size:         %d bytes\n", doc.Size)
	cmd.Printf("Chunks:       %d\n", doc.ChunkCount)
	cmd.Printf("Uploaded:     %s\n", doc.UploadedAt.Local().Format(time.DateTime))
	if doc.StoragePath != "" {
		cmd.Printf("Stored at:    %s\n", doc.StoragePath)
	}
	return nil
}

func runDocumentDelete(cmd *cobra.Command, args []string) error {
	if documentService == nil {
		return errNotConfigured("document")
	}

	if err := documentService.Delete(cmd.Context(), args[0]); err != nil {
		return fmt.Errorf("failed to delete document: %w", err)
	}
	cmd.Printf("Deleted document: %s\n", args[0])
	return nil
}
