package httpapi

import (
	"context"
	"io"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

type mockIngest struct {
	result   *driving.IngestResult
	err      error
	lastReq  driving.IngestRequest
	lastBody string
}

func (m *mockIngest) IngestFile(_ context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	m.lastReq = req
	if req.Body != nil {
		data, _ := io.ReadAll(req.Body)
		m.lastBody = string(data)
	}
	return m.result, m.err
}

func (m *mockIngest) IngestText(_ context.Context, _, _ string) (*driving.IngestResult, error) {
	return m.result, m.err
}

type mockSearch struct {
	hits      []domain.Hit
	err       error
	lastQuery string
	lastOpts  domain.RetrieveOptions
}

func (m *mockSearch) Retrieve(_ context.Context, query string, opts domain.RetrieveOptions) ([]domain.Hit, error) {
	m.lastQuery = query
	m.lastOpts = opts
	return m.hits, m.err
}

type mockAnswer struct {
	answer        *domain.Answer
	events        []domain.StreamEvent
	err           error
	lastAsk       driving.AskRequest
	lastSummarize driving.SummarizeRequest
}

func (m *mockAnswer) Ask(_ context.Context, req driving.AskRequest) (*domain.Answer, error) {
	m.lastAsk = req
	return m.answer, m.err
}

func (m *mockAnswer) AskStream(_ context.Context, req driving.AskRequest) (<-chan domain.StreamEvent, error) {
	m.lastAsk = req
	if m.err != nil {
		return nil, m.err
	}
	return replay(m.events), nil
}

func (m *mockAnswer) Summarize(_ context.Context, req driving.SummarizeRequest) (*domain.Answer, error) {
	m.lastSummarize = req
	return m.answer, m.err
}

type mockDocuments struct {
	page      *domain.DocumentPage
	doc       *domain.Document
	err       error
	lastQuery domain.DocumentQuery
	deleted   string
}

func (m *mockDocuments) List(_ context.Context, query domain.DocumentQuery) (*domain.DocumentPage, error) {
	m.lastQuery = query
	return m.page, m.err
}

func (m *mockDocuments) Get(_ context.Context, _ string) (*domain.Document, error) {
	return m.doc, m.err
}

func (m *mockDocuments) Delete(_ context.Context, id string) error {
	m.deleted = id
	return m.err
}

type mockChat struct {
	reply   string
	err     error
	events  []domain.StreamEvent
	lastReq domain.CompletionRequest
}

func (m *mockChat) Complete(_ context.Context, req domain.CompletionRequest) (string, error) {
	m.lastReq = req
	return m.reply, m.err
}

func (m *mockChat) Stream(_ context.Context, req domain.CompletionRequest) <-chan domain.StreamEvent {
	m.lastReq = req
	return replay(m.events)
}

type mockAnalytics struct {
	summary  *domain.UsageSummary
	err      error
	lastDays int
}

func (m *mockAnalytics) Record(_ context.Context, _ domain.UsageEventType, _ map[string]any) {}

func (m *mockAnalytics) Summary(_ context.Context, days int) (*domain.UsageSummary, error) {
	m.lastDays = days
	return m.summary, m.err
}

func replay(events []domain.StreamEvent) <-chan domain.StreamEvent {
	ch := make(chan domain.StreamEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

var (
	_ driving.IngestService    = (*mockIngest)(nil)
	_ driving.SearchService    = (*mockSearch)(nil)
	_ driving.AnswerService    = (*mockAnswer)(nil)
	_ driving.DocumentService  = (*mockDocuments)(nil)
	_ driving.ChatService      = (*mockChat)(nil)
	_ driving.AnalyticsService = (*mockAnalytics)(nil)
)
