package mcp

import (
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the MCP server.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Search provides similarity retrieval.
	Search driving.SearchService

	// Answer provides grounded answers and summaries.
	// Optional: the ask and summarize tools are omitted when nil.
	Answer driving.AnswerService

	// Document lists ingested documents.
	// Optional: list_documents and the document resources are omitted when nil.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
// Returns an error if any required port is nil.
func (p *Ports) Validate() error {
	if p.Search == nil {
		return ErrMissingSearchService
	}
	return nil
}
