// Package mcp provides an MCP (Model Context Protocol) server adapter for sercha-kb.
// It lets AI assistants retrieve passages from, ask questions of and summarise
// the ingested knowledge base.
package mcp

import "errors"

// ErrMissingSearchService is returned when the search service is not provided.
var ErrMissingSearchService = errors.New("mcp: search service is required")
