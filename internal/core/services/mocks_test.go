package services

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/config/file"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
)

// --- Mock implementations ---

// mockLLM implements driven.LLMService with a canned reply or error.
type mockLLM struct {
	name  string
	reply string
	err   error

	calls   atomic.Int32
	mu      sync.Mutex
	lastReq domain.CompletionRequest
}

func newMockLLM(name, reply string, err error) *mockLLM {
	return &mockLLM{name: name, reply: reply, err: err}
}

func (m *mockLLM) Complete(ctx context.Context, req domain.CompletionRequest) (string, error) {
	m.calls.Add(1)
	m.mu.Lock()
	m.lastReq = req
	m.mu.Unlock()
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if m.err != nil {
		return "", m.err
	}
	return m.reply, nil
}

func (m *mockLLM) request() domain.CompletionRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.lastReq
}

func (m *mockLLM) Name() string                 { return m.name }
func (m *mockLLM) ModelName() string            { return m.name + "-model" }
func (m *mockLLM) Ping(_ context.Context) error { return nil }
func (m *mockLLM) Close() error                 { return nil }

// mockStreamer implements driven.LLMStreamer.
// It emits fragments, then returns err (if any).
type mockStreamer struct {
	mockLLM
	fragments []string
	streamErr error

	// block waits for ctx cancellation after the fragments instead of returning.
	block bool
}

func (m *mockStreamer) Stream(ctx context.Context, _ domain.CompletionRequest, onFragment func(string) error) error {
	m.calls.Add(1)
	for _, f := range m.fragments {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := onFragment(f); err != nil {
			return err
		}
	}
	if m.block {
		<-ctx.Done()
		return ctx.Err()
	}
	return m.streamErr
}

var _ driven.LLMStreamer = (*mockStreamer)(nil)

func quotaErr(provider string) error {
	return &domain.ProviderError{Provider: provider, Kind: domain.FailureQuota, StatusCode: 429}
}

func outageErr(provider string) error {
	return &domain.ProviderError{Provider: provider, Kind: domain.FailureUnavailable, StatusCode: 500, Err: errors.New("boom")}
}

// mockSearch implements driving.SearchService with fixed hits.
type mockSearch struct {
	hits []domain.Hit
	err  error

	lastQuery string
	lastOpts  domain.RetrieveOptions
}

func (m *mockSearch) Retrieve(_ context.Context, query string, opts domain.RetrieveOptions) ([]domain.Hit, error) {
	m.lastQuery = query
	m.lastOpts = opts
	if m.err != nil {
		return nil, m.err
	}
	return m.hits, nil
}

// faultyIndex wraps the memory index with injectable failures.
type faultyIndex struct {
	*memory.Index
	upsertErr error
	deleteErr error
	deletes   atomic.Int32
}

func newFaultyIndex() *faultyIndex {
	return &faultyIndex{Index: memory.NewIndex(0)}
}

func (f *faultyIndex) Upsert(ctx context.Context, records []domain.IndexRecord) error {
	if f.upsertErr != nil {
		return f.upsertErr
	}
	return f.Index.Upsert(ctx, records)
}

func (f *faultyIndex) DeleteDocument(ctx context.Context, documentID string) error {
	f.deletes.Add(1)
	if f.deleteErr != nil {
		return f.deleteErr
	}
	return f.Index.DeleteDocument(ctx, documentID)
}

// mockAnalytics captures recorded events.
type mockAnalytics struct {
	mu     sync.Mutex
	events []domain.UsageEventType
}

func (m *mockAnalytics) Record(_ context.Context, eventType domain.UsageEventType, _ map[string]any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, eventType)
}

func (m *mockAnalytics) Summary(_ context.Context, _ int) (*domain.UsageSummary, error) {
	return &domain.UsageSummary{}, nil
}

func (m *mockAnalytics) recorded() []domain.UsageEventType {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]domain.UsageEventType(nil), m.events...)
}

func newTestPrompts(t *testing.T) driven.PromptStore {
	t.Helper()
	prompts, err := file.NewPromptStore(t.TempDir())
	require.NoError(t, err)
	return prompts
}

// collect drains a stream into a slice.
func collect(events <-chan domain.StreamEvent) []domain.StreamEvent {
	var out []domain.StreamEvent
	for ev := range events {
		out = append(out, ev)
	}
	return out
}

func kinds(events []domain.StreamEvent) []domain.EventKind {
	out := make([]domain.EventKind, len(events))
	for i, ev := range events {
		out[i] = ev.Kind
	}
	return out
}
