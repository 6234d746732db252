package mcp

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

// mockSearchService is a mock implementation of driving.SearchService.
type mockSearchService struct {
	hits     []domain.Hit
	err      error
	lastOpts domain.RetrieveOptions
}

func (m *mockSearchService) Retrieve(
	_ context.Context,
	_ string,
	opts domain.RetrieveOptions,
) ([]domain.Hit, error) {
	m.lastOpts = opts
	return m.hits, m.err
}

// mockAnswerService is a mock implementation of driving.AnswerService.
type mockAnswerService struct {
	answer        *domain.Answer
	err           error
	lastAsk       driving.AskRequest
	lastSummarize driving.SummarizeRequest
}

func (m *mockAnswerService) Ask(_ context.Context, req driving.AskRequest) (*domain.Answer, error) {
	m.lastAsk = req
	return m.answer, m.err
}

func (m *mockAnswerService) AskStream(_ context.Context, _ driving.AskRequest) (<-chan domain.StreamEvent, error) {
	ch := make(chan domain.StreamEvent, 1)
	ch <- domain.DoneEvent()
	close(ch)
	return ch, m.err
}

func (m *mockAnswerService) Summarize(_ context.Context, req driving.SummarizeRequest) (*domain.Answer, error) {
	m.lastSummarize = req
	return m.answer, m.err
}

// mockDocumentService is a mock implementation of driving.DocumentService.
type mockDocumentService struct {
	page      *domain.DocumentPage
	doc       *domain.Document
	err       error
	lastQuery domain.DocumentQuery
}

func (m *mockDocumentService) List(_ context.Context, query domain.DocumentQuery) (*domain.DocumentPage, error) {
	m.lastQuery = query
	if m.err != nil {
		return nil, m.err
	}
	if m.page == nil {
		return &domain.DocumentPage{Page: 1, Size: 20, Items: []domain.Document{}}, nil
	}
	return m.page, nil
}

func (m *mockDocumentService) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.doc, m.err
}

func (m *mockDocumentService) Delete(_ context.Context, _ string) error {
	return m.err
}

// Compile-time interface checks.
var (
	_ driving.SearchService   = (*mockSearchService)(nil)
	_ driving.AnswerService   = (*mockAnswerService)(nil)
	_ driving.DocumentService = (*mockDocumentService)(nil)
)
