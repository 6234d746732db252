// Package memory provides in-memory metadata stores for tests and ephemeral runs.
package memory

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// Ensure DocumentStore implements the interface.
var _ driven.DocumentStore = (*DocumentStore)(nil)

// DocumentStore is an in-memory implementation of driven.DocumentStore.
type DocumentStore struct {
	mu        sync.RWMutex
	documents map[string]domain.Document
}

// NewDocumentStore creates a new in-memory document store.
func NewDocumentStore() *DocumentStore {
	return &DocumentStore{
		documents: make(map[string]domain.Document),
	}
}

// SaveDocument stores or updates a document.
func (s *DocumentStore) SaveDocument(_ context.Context, doc *domain.Document) error {
	if doc == nil || doc.ID == "" {
		return domain.ErrInvalidInput
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.documents[doc.ID] = *doc
	return nil
}

// GetDocument retrieves a document by ID.
func (s *DocumentStore) GetDocument(_ context.Context, id string) (*domain.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	doc, ok := s.documents[id]
	if !ok {
		return nil, domain.ErrNotFound
	}
	return &doc, nil
}

// DeleteDocument removes a document.
func (s *DocumentStore) DeleteDocument(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.documents[id]; !ok {
		return domain.ErrNotFound
	}
	delete(s.documents, id)
	return nil
}

// ListDocuments returns one page of matching documents, newest first.
func (s *DocumentStore) ListDocuments(_ context.Context, query domain.DocumentQuery) ([]domain.Document, int, error) {
	query = query.Normalise()
	search := strings.ToLower(query.Search)

	s.mu.RLock()
	matched := make([]domain.Document, 0, len(s.documents))
	for _, doc := range s.documents {
		if matches(doc, query, search) {
			matched = append(matched, doc)
		}
	}
	s.mu.RUnlock()

	sort.Slice(matched, func(i, j int) bool {
		if !matched[i].UploadedAt.Equal(matched[j].UploadedAt) {
			return matched[i].UploadedAt.After(matched[j].UploadedAt)
		}
		return matched[i].ID < matched[j].ID
	})

	total := len(matched)
	start := min(query.Offset(), total)
	end := min(start+query.Size, total)
	return matched[start:end], total, nil
}

func matches(doc domain.Document, q domain.DocumentQuery, search string) bool {
	if search != "" && !strings.Contains(strings.ToLower(doc.Filename), search) {
		return false
	}
	if q.Ext != "" && doc.Ext != q.Ext {
		return false
	}
	if q.DateFrom != nil && doc.UploadedAt.Before(*q.DateFrom) {
		return false
	}
	if q.DateTo != nil && doc.UploadedAt.After(*q.DateTo) {
		return false
	}
	return true
}
