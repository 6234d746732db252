package cli

import (
	"bytes"
	"context"
	"io"
	"time"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

var testUploaded = time.Date(2026, 4, 2, 9, 30, 0, 0, time.UTC)

func testDocs() []domain.Document {
	return []domain.Document{
		{
			ID: "doc-1", Filename: "handbook.pdf", Ext: "pdf", ContentType: "application/pdf",
			Size: 2048, ChunkCount: 12, UploadedAt: testUploaded, StoragePath: "/data/files/doc-1.pdf",
		},
		{
			ID: "doc-2", Filename: "notes.md", Ext: "md", ContentType: "text/markdown",
			Size: 120, ChunkCount: 1, UploadedAt: testUploaded,
		},
	}
}

type mockIngestService struct {
	requests []driving.IngestRequest
	bodies   []string
	err      error
}

func (m *mockIngestService) IngestFile(_ context.Context, req driving.IngestRequest) (*driving.IngestResult, error) {
	if m.err != nil {
		return nil, m.err
	}
	body, _ := io.ReadAll(req.Body)
	m.requests = append(m.requests, req)
	m.bodies = append(m.bodies, string(body))
	return &driving.IngestResult{DocumentID: "doc-new", Chunks: 3}, nil
}

func (m *mockIngestService) IngestText(_ context.Context, filename, _ string) (*driving.IngestResult, error) {
	return &driving.IngestResult{DocumentID: filename, Chunks: 1}, nil
}

type mockSearchService struct {
	hits  []domain.Hit
	err   error
	query string
	opts  domain.RetrieveOptions
}

func (m *mockSearchService) Retrieve(_ context.Context, query string, opts domain.RetrieveOptions) ([]domain.Hit, error) {
	m.query = query
	m.opts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

type mockAnswerService struct {
	answer    *domain.Answer
	events    []domain.StreamEvent
	err       error
	askReq    driving.AskRequest
	summarize driving.SummarizeRequest
}

func (m *mockAnswerService) Ask(_ context.Context, req driving.AskRequest) (*domain.Answer, error) {
	m.askReq = req
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

func (m *mockAnswerService) AskStream(_ context.Context, req driving.AskRequest) (<-chan domain.StreamEvent, error) {
	m.askReq = req
	if m.err != nil {
		return nil, m.err
	}
	return eventStream(m.events...), nil
}

func (m *mockAnswerService) Summarize(_ context.Context, req driving.SummarizeRequest) (*domain.Answer, error) {
	m.summarize = req
	if m.err != nil {
		return nil, m.err
	}
	return m.answer, nil
}

type mockChatService struct {
	reply    string
	events   []domain.StreamEvent
	err      error
	requests []domain.CompletionRequest
}

func (m *mockChatService) Complete(_ context.Context, req domain.CompletionRequest) (string, error) {
	m.requests = append(m.requests, req)
	return m.reply, m.err
}

func (m *mockChatService) Stream(_ context.Context, req domain.CompletionRequest) <-chan domain.StreamEvent {
	m.requests = append(m.requests, req)
	return eventStream(m.events...)
}

type mockDocumentService struct {
	docs    []domain.Document
	err     error
	query   domain.DocumentQuery
	deleted string
}

func (m *mockDocumentService) List(_ context.Context, q domain.DocumentQuery) (*domain.DocumentPage, error) {
	m.query = q
	if m.err != nil {
		return nil, m.err
	}
	q = q.Normalise()
	return &domain.DocumentPage{Page: q.Page, Size: q.Size, Total: len(m.docs), Items: m.docs}, nil
}

func (m *mockDocumentService) Get(_ context.Context, id string) (*domain.Document, error) {
	if m.err != nil {
		return nil, m.err
	}
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Delete(_ context.Context, id string) error {
	if m.err != nil {
		return m.err
	}
	m.deleted = id
	return nil
}

type mockAnalyticsService struct {
	summary *domain.UsageSummary
	err     error
	days    int
}

func (m *mockAnalyticsService) Record(context.Context, domain.UsageEventType, map[string]any) {}

func (m *mockAnalyticsService) Summary(_ context.Context, days int) (*domain.UsageSummary, error) {
	m.days = days
	if m.err != nil {
		return nil, m.err
	}
	return m.summary, nil
}

type mockSettingsService struct {
	settings     domain.AppSettings
	validateErr  error
	providersErr error
	set          map[string]string
	saved        *domain.AppSettings
}

func (m *mockSettingsService) Get() (*domain.AppSettings, error) {
	s := m.settings
	return &s, nil
}

func (m *mockSettingsService) Save(s *domain.AppSettings) error {
	m.saved = s
	return nil
}

func (m *mockSettingsService) Set(key, value string) error {
	if m.set == nil {
		m.set = map[string]string{}
	}
	m.set[key] = value
	return nil
}

func (m *mockSettingsService) Keys() []string {
	return []string{"llm.primary.provider", "chunking.size"}
}

func (m *mockSettingsService) GetDefaults() domain.AppSettings { return domain.DefaultAppSettings() }

func (m *mockSettingsService) GetPipelineConfig() domain.PipelineConfig {
	return domain.DefaultPipelineConfig()
}

func (m *mockSettingsService) Validate() error                { return m.validateErr }
func (m *mockSettingsService) ValidateEmbeddingConfig() error { return nil }
func (m *mockSettingsService) ValidateProviders() error       { return m.providersErr }

func eventStream(events ...domain.StreamEvent) <-chan domain.StreamEvent {
	ch := make(chan domain.StreamEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

// Mocks installed by setupTestServices, for assertions.
var (
	testIngest    *mockIngestService
	testSearch    *mockSearchService
	testAnswer    *mockAnswerService
	testChat      *mockChatService
	testDocuments *mockDocumentService
	testAnalytics *mockAnalyticsService
	testSettings  *mockSettingsService
)

// setupTestServices installs fresh mocks and returns a cleanup that removes them.
func setupTestServices() func() {
	testIngest = &mockIngestService{}
	testSearch = &mockSearchService{hits: []domain.Hit{
		{
			ID: "doc-1:0", Text: "Employees accrue  25 days\nof leave.", Score: 0.91,
			Metadata: domain.ChunkMetadata{DocumentID: "doc-1", ChunkIndex: 0, Filename: "handbook.pdf"},
		},
	}}
	testAnswer = &mockAnswerService{answer: &domain.Answer{
		Text:     "Employees get 25 days.\n\nCarry-over is 5 days.",
		Sources:  []domain.Source{{ID: "doc-1:0", Filename: "handbook.pdf", ChunkIndex: 0}},
		Provider: "openai",
	}}
	testChat = &mockChatService{reply: "pong"}
	testDocuments = &mockDocumentService{docs: testDocs()}
	testAnalytics = &mockAnalyticsService{summary: &domain.UsageSummary{
		Since:     testUploaded,
		Uploads:   2,
		Questions: 5,
		PerDay: []domain.DailyCount{
			{Date: "2026-04-01", Events: 2},
			{Date: "2026-04-02", Events: 5},
		},
	}}
	testSettings = &mockSettingsService{settings: domain.DefaultAppSettings()}

	SetServices(&Services{
		Ingest:    testIngest,
		Search:    testSearch,
		Answer:    testAnswer,
		Chat:      testChat,
		Document:  testDocuments,
		Analytics: testAnalytics,
		Server:    domain.ServerSettings{Addr: "127.0.0.1:0"},
		Providers: []string{"openai", "ollama"},
	})
	SetSettingsService(testSettings)

	return func() {
		SetServices(&Services{})
		SetSettingsService(nil)
		resetFlags()
	}
}

// resetFlags restores flag variables shared across command executions.
func resetFlags() {
	searchLimit, searchDocument, searchJSON = domain.DefaultTopK, "", false
	askDocument, askFormat, askStream = "", string(domain.AnswerFormatPlain), false
	summarizeStyle, summarizeFormat = "", string(domain.AnswerFormatPlain)
	chatSystem, chatModel, chatNoStream = "", "", false
	listSearch, listExt, listFrom, listTo = "", "", "", ""
	listPage, listSize, listJSON = 1, domain.DefaultPageSize, false
	analyticsDays = domain.DefaultSummaryDays
	mcpAddr, serveAddr = "", ""
}

// execute runs the root command with args and returns combined output.
func execute(args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(new(bytes.Buffer))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}

// executeWithInput runs the root command reading stdin from input.
func executeWithInput(input string, args ...string) (string, error) {
	buf := new(bytes.Buffer)
	rootCmd.SetOut(buf)
	rootCmd.SetErr(buf)
	rootCmd.SetIn(bytes.NewBufferString(input))
	rootCmd.SetArgs(args)
	defer rootCmd.SetArgs(nil)

	err := rootCmd.Execute()
	return buf.String(), err
}
