package mcp

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func TestExtractDocumentID(t *testing.T) {
	tests := []struct {
		uri  string
		want string
	}{
		{"sercha-kb://documents/doc-123", "doc-123"},
		{"sercha-kb://documents/", ""},
		{"sercha-kb://documents/doc-1/chunks", ""},
		{"sercha://documents/doc-1", ""},
		{"sercha-kb://sources/doc-1", ""},
	}

	for _, tt := range tests {
		t.Run(tt.uri, func(t *testing.T) {
			assert.Equal(t, tt.want, extractDocumentID(tt.uri))
		})
	}
}

// Helper to create a ReadResourceRequest with the given URI.
func makeReadResourceRequest(uri string) *mcp.ReadResourceRequest {
	return &mcp.ReadResourceRequest{
		Params: &mcp.ReadResourceParams{
			URI: uri,
		},
	}
}

func TestServer_handleDocumentsResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns documents", func(t *testing.T) {
		docs := &mockDocumentService{page: &domain.DocumentPage{
			Page: 1, Size: 20, Total: 1,
			Items: []domain.Document{{ID: "doc-1", Filename: "notes.md", Ext: "md", UploadedAt: time.Now()}},
		}}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Document: docs})
		require.NoError(t, err)

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("sercha-kb://documents"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "application/json", result.Contents[0].MIMEType)
		assert.Contains(t, result.Contents[0].Text, `"id": "doc-1"`)
		assert.Contains(t, result.Contents[0].Text, `"filename": "notes.md"`)
	})

	t.Run("empty store returns empty list", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Document: &mockDocumentService{}})
		require.NoError(t, err)

		result, err := server.handleDocumentsResource(ctx, makeReadResourceRequest("sercha-kb://documents"))
		require.NoError(t, err)
		assert.Equal(t, "[]", result.Contents[0].Text)
	})

	t.Run("returns error on list failure", func(t *testing.T) {
		docs := &mockDocumentService{err: errors.New("database error")}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Document: docs})
		require.NoError(t, err)

		_, err = server.handleDocumentsResource(ctx, makeReadResourceRequest("sercha-kb://documents"))
		require.Error(t, err)
		assert.Contains(t, err.Error(), "listing documents")
	})
}

func TestServer_handleDocumentResource(t *testing.T) {
	ctx := context.Background()

	t.Run("returns metadata", func(t *testing.T) {
		docs := &mockDocumentService{doc: &domain.Document{ID: "doc-7", Filename: "plan.docx", Ext: "docx", ChunkCount: 4}}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Document: docs})
		require.NoError(t, err)

		result, err := server.handleDocumentResource(ctx, makeReadResourceRequest("sercha-kb://documents/doc-7"))
		require.NoError(t, err)
		require.Len(t, result.Contents, 1)
		assert.Equal(t, "sercha-kb://documents/doc-7", result.Contents[0].URI)
		assert.Contains(t, result.Contents[0].Text, `"chunk_count": 4`)
	})

	t.Run("invalid URI returns error", func(t *testing.T) {
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Document: &mockDocumentService{}})
		require.NoError(t, err)

		_, err = server.handleDocumentResource(ctx, makeReadResourceRequest("sercha-kb://invalid/uri"))
		require.Error(t, err)
	})

	t.Run("missing document returns error", func(t *testing.T) {
		docs := &mockDocumentService{err: fmt.Errorf("document missing: %w", domain.ErrNotFound)}
		server, err := NewServer(&Ports{Search: &mockSearchService{}, Document: docs})
		require.NoError(t, err)

		_, err = server.handleDocumentResource(ctx, makeReadResourceRequest("sercha-kb://documents/nope"))
		require.Error(t, err)
		assert.NotErrorIs(t, err, domain.ErrNotFound)
	})
}
