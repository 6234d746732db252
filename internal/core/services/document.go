package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
	"github.com/custodia-labs/sercha-kb/internal/logger"
)

// Ensure DocumentService implements the interface.
var _ driving.DocumentService = (*DocumentService)(nil)

// DocumentService manages ingested documents.
type DocumentService struct {
	docStore driven.DocumentStore
	index    driven.VectorIndex
	files    driven.FileStore
}

// NewDocumentService creates a new document service.
// The file store is optional (can be nil) for text-only deployments.
func NewDocumentService(docStore driven.DocumentStore, index driven.VectorIndex, files driven.FileStore) *DocumentService {
	return &DocumentService{
		docStore: docStore,
		index:    index,
		files:    files,
	}
}

// List returns one page of documents, newest first.
func (s *DocumentService) List(ctx context.Context, query domain.DocumentQuery) (*domain.DocumentPage, error) {
	query = query.Normalise()
	query.Search = strings.TrimSpace(query.Search)

	items, total, err := s.docStore.ListDocuments(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list documents: %w", err)
	}
	if items == nil {
		items = []domain.Document{}
	}

	return &domain.DocumentPage{
		Page:  query.Page,
		Size:  query.Size,
		Total: total,
		Items: items,
	}, nil
}

// Get retrieves a document by ID.
func (s *DocumentService) Get(ctx context.Context, documentID string) (*domain.Document, error) {
	if documentID == "" {
		return nil, domain.ErrInvalidInput
	}
	return s.docStore.GetDocument(ctx, documentID)
}

// Delete removes the index records, the document record and the stored file.
func (s *DocumentService) Delete(ctx context.Context, documentID string) error {
	doc, err := s.Get(ctx, documentID)
	if err != nil {
		return err
	}

	if err := s.index.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete index records: %w", err)
	}
	if err := s.docStore.DeleteDocument(ctx, documentID); err != nil {
		return fmt.Errorf("delete document: %w", err)
	}

	if s.files != nil && doc.StoragePath != "" {
		if err := s.files.Remove(ctx, doc.StoragePath); err != nil {
			logger.Warn("Failed to remove stored file %s: %v", doc.StoragePath, err)
		}
	}

	logger.Info("Deleted document %s (%s)", documentID, doc.Filename)
	return nil
}
