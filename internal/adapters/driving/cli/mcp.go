package cli

import (
	"github.com/spf13/cobra"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/mcp"
)

var mcpAddr string

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Serve the knowledge base to MCP clients",
	Long: `Serves the retrieve, ask, summarize and list_documents tools plus the
sercha-kb://documents resources over the Model Context Protocol.

Speaks JSON-RPC on stdio unless --addr is given, in which case the
streamable HTTP transport is used.

Client configuration:
  {"mcpServers": {"sercha-kb": {"command": "sercha-kb", "args": ["mcp"]}}}`,
	Args: cobra.NoArgs,
	RunE: runMCP,
}

func init() {
	mcpCmd.Flags().StringVar(&mcpAddr, "addr", "", "serve over HTTP on this address instead of stdio")
	rootCmd.AddCommand(mcpCmd)
}

func runMCP(cmd *cobra.Command, _ []string) error {
	server, err := mcp.NewServer(&mcp.Ports{
		Search:   searchService,
		Answer:   answerService,
		Document: documentService,
	})
	if err != nil {
		return err
	}

	if mcpAddr != "" {
		cmd.PrintErrf("MCP server listening on http://%s\n", mcpAddr)
		return server.RunHTTP(cmd.Context(), mcpAddr)
	}
	return server.Run(cmd.Context())
}
