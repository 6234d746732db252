package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/httpapi"
)

var serveAddr string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Serves the JSON and server-sent events API under /api until interrupted.

Routes:
  POST   /api/documents/upload      multipart "file"
  GET    /api/documents             search, ext, date_from, date_to, page, size
  GET    /api/documents/:id
  DELETE /api/documents/:id
  POST   /api/knowledge/ask         {query, document_id, format}
  POST   /api/knowledge/ask/stream  server-sent events
  POST   /api/knowledge/summarize   {document_id, style, format}
  POST   /api/knowledge/search      {query, top_k, document_id}
  POST   /api/chat/complete         {prompt, system, model}
  POST   /api/chat/stream           server-sent events
  GET    /api/analytics/summary     days
  GET    /api/health`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	serveCmd.Flags().StringVar(&serveAddr, "addr", "", "listen address (default from settings)")
	rootCmd.AddCommand(serveCmd)
}

func runServe(cmd *cobra.Command, _ []string) error {
	server, err := httpapi.NewServer(&httpapi.Ports{
		Ingest:    ingestService,
		Search:    searchService,
		Answer:    answerService,
		Document:  documentService,
		Chat:      chatService,
		Analytics: analyticsService,
	}, serverSettings)
	if err != nil {
		return err
	}

	addr := serveAddr
	if addr == "" {
		addr = serverSettings.Addr
	}
	cmd.Printf("Serving on http://%s\n", addr)
	if len(providerNames) > 0 {
		cmd.Printf("Providers: %v\n", providerNames)
	}
	return server.Run(cmd.Context(), addr)
}
