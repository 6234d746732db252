package mcp

import (
	"context"

	"github.com/modelcontextprotocol/go-sdk/mcp"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

// RetrieveInput is the input schema for the retrieve tool.
type RetrieveInput struct {
	Query      string `json:"query" jsonschema:"the text to find similar passages for"`
	TopK       int    `json:"top_k,omitempty" jsonschema:"maximum number of passages to return (default 5)"`
	DocumentID string `json:"document_id,omitempty" jsonschema:"restrict retrieval to one document"`
}

// RetrieveOutput is the output schema for the retrieve tool.
type RetrieveOutput struct {
	Hits  []HitOutput `json:"hits"`
	Count int         `json:"count"`
}

// HitOutput represents one retrieved passage.
type HitOutput struct {
	ID         string  `json:"id"`
	DocumentID string  `json:"document_id"`
	Filename   string  `json:"filename"`
	ChunkIndex int     `json:"chunk_index"`
	Score      float64 `json:"score"`
	Text       string  `json:"text"`
}

// AskInput is the input schema for the ask tool.
type AskInput struct {
	Query      string `json:"query" jsonschema:"the question to answer from the knowledge base"`
	DocumentID string `json:"document_id,omitempty" jsonschema:"restrict the answer to one document"`
}

// SummarizeInput is the input schema for the summarize tool.
type SummarizeInput struct {
	DocumentID string `json:"document_id" jsonschema:"the document to summarise"`
	Style      string `json:"style,omitempty" jsonschema:"instruction replacing the default summary style"`
}

// AnswerOutput is the output schema for the ask and summarize tools.
type AnswerOutput struct {
	Answer   string         `json:"answer"`
	Sources  []SourceOutput `json:"sources"`
	Provider string         `json:"provider,omitempty"`
}

// SourceOutput identifies a chunk used as context.
type SourceOutput struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	ChunkIndex int    `json:"chunk_index"`
}

// ListDocumentsInput is the input schema for the list_documents tool.
type ListDocumentsInput struct {
	Search string `json:"search,omitempty" jsonschema:"case-insensitive filename filter"`
	Ext    string `json:"ext,omitempty" jsonschema:"file extension filter such as pdf or md"`
	Page   int    `json:"page,omitempty" jsonschema:"page number starting at 1"`
	Size   int    `json:"size,omitempty" jsonschema:"page size (default 20, max 100)"`
}

// ListDocumentsOutput is the output schema for the list_documents tool.
type ListDocumentsOutput struct {
	Page      int              `json:"page"`
	Size      int              `json:"size"`
	Total     int              `json:"total"`
	Documents []DocumentOutput `json:"documents"`
}

// DocumentOutput summarises one document.
type DocumentOutput struct {
	ID         string `json:"id"`
	Filename   string `json:"filename"`
	Ext        string `json:"ext"`
	Size       int64  `json:"size"`
	UploadedAt string `json:"uploaded_at"`
	ChunkCount int    `json:"chunk_count"`
}

// registerTools registers all tool handlers with the MCP server.
func (s *Server) registerTools() {
	mcp.AddTool(s.server, &mcp.Tool{
		Name:        "retrieve",
		Description: "Find the knowledge base passages most similar to a query",
	}, s.handleRetrieve)

	if s.ports.Answer != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "ask",
			Description: "Answer a question using only the ingested documents",
		}, s.handleAsk)
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "summarize",
			Description: "Summarise one ingested document",
		}, s.handleSummarize)
	}

	if s.ports.Document != nil {
		mcp.AddTool(s.server, &mcp.Tool{
			Name:        "list_documents",
			Description: "List ingested documents, newest first",
		}, s.handleListDocuments)
	}
}

// handleRetrieve handles the retrieve tool invocation.
func (s *Server) handleRetrieve(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input RetrieveInput,
) (*mcp.CallToolResult, RetrieveOutput, error) {
	hits, err := s.ports.Search.Retrieve(ctx, input.Query, domain.RetrieveOptions{
		TopK:       input.TopK,
		DocumentID: input.DocumentID,
	})
	if err != nil {
		return nil, RetrieveOutput{}, err
	}

	output := RetrieveOutput{
		Hits:  make([]HitOutput, len(hits)),
		Count: len(hits),
	}
	for i, h := range hits {
		output.Hits[i] = HitOutput{
			ID:         h.ID,
			DocumentID: h.Metadata.DocumentID,
			Filename:   h.Metadata.Filename,
			ChunkIndex: h.Metadata.ChunkIndex,
			Score:      h.Score,
			Text:       h.Text,
		}
	}
	return nil, output, nil
}

// handleAsk handles the ask tool invocation.
func (s *Server) handleAsk(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input AskInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	ans, err := s.ports.Answer.Ask(ctx, driving.AskRequest{Query: input.Query, DocumentID: input.DocumentID})
	if err != nil {
		return nil, AnswerOutput{}, err
	}
	return nil, toAnswerOutput(ans), nil
}

// handleSummarize handles the summarize tool invocation.
func (s *Server) handleSummarize(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input SummarizeInput,
) (*mcp.CallToolResult, AnswerOutput, error) {
	ans, err := s.ports.Answer.Summarize(ctx, driving.SummarizeRequest{DocumentID: input.DocumentID, Style: input.Style})
	if err != nil {
		return nil, AnswerOutput{}, err
	}
	return nil, toAnswerOutput(ans), nil
}

// handleListDocuments handles the list_documents tool invocation.
func (s *Server) handleListDocuments(
	ctx context.Context,
	_ *mcp.CallToolRequest,
	input ListDocumentsInput,
) (*mcp.CallToolResult, ListDocumentsOutput, error) {
	page, err := s.ports.Document.List(ctx, domain.DocumentQuery{
		Search: input.Search,
		Ext:    input.Ext,
		Page:   input.Page,
		Size:   input.Size,
	})
	if err != nil {
		return nil, ListDocumentsOutput{}, err
	}

	output := ListDocumentsOutput{
		Page:      page.Page,
		Size:      page.Size,
		Total:     page.Total,
		Documents: make([]DocumentOutput, len(page.Items)),
	}
	for i := range page.Items {
		output.Documents[i] = toDocumentOutput(&page.Items[i])
	}
	return nil, output, nil
}

func toAnswerOutput(ans *domain.Answer) AnswerOutput {
	out := AnswerOutput{
		Answer:   ans.Text,
		Sources:  make([]SourceOutput, len(ans.Sources)),
		Provider: ans.Provider,
	}
	for i, src := range ans.Sources {
		out.Sources[i] = SourceOutput{ID: src.ID, Filename: src.Filename, ChunkIndex: src.ChunkIndex}
	}
	return out
}

func toDocumentOutput(doc *domain.Document) DocumentOutput {
	return DocumentOutput{
		ID:         doc.ID,
		Filename:   doc.Filename,
		Ext:        doc.Ext,
		Size:       doc.Size,
		UploadedAt: doc.UploadedAt.UTC().Format("2006-01-02T15:04:05Z"),
		ChunkCount: doc.ChunkCount,
	}
}
