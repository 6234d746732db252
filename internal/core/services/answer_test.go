package services

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	memstore "github.com/custodia-labs/sercha-kb/internal/adapters/driven/storage/memory"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driven/vector/memory"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driven"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

func hit(doc string, i int, text string) domain.Hit {
	return domain.Hit{
		ID:       domain.ChunkID(doc, i),
		Text:     text,
		Metadata: domain.ChunkMetadata{DocumentID: doc, ChunkIndex: i, Filename: doc + ".txt"},
	}
}

func TestSelectContext(t *testing.T) {
	hits := []domain.Hit{
		hit("d", 0, "Alpha"),
		hit("d", 1, "  alpha  "),
		hit("d", 2, "   "),
		hit("d", 3, "Beta"),
		hit("d", 4, "ALPHA"),
		hit("d", 5, "Gamma"),
	}

	got := SelectContext(hits, 8)
	require.Len(t, got, 3)
	assert.Equal(t, "d:0", got[0].ID)
	assert.Equal(t, "d:3", got[1].ID)
	assert.Equal(t, "d:5", got[2].ID)
}

func TestSelectContext_CapsAtLimit(t *testing.T) {
	var hits []domain.Hit
	for i := range 12 {
		hits = append(hits, hit("d", i, fmt.Sprintf("chunk %d", i)))
	}

	got := SelectContext(hits, domain.MaxContextHits)
	require.Len(t, got, 8)
	assert.Equal(t, "d:7", got[7].ID)
}

func TestContextBlock(t *testing.T) {
	got := ContextBlock([]domain.Hit{hit("d", 0, "one"), hit("d", 1, "two")})
	assert.Equal(t, "[1] one\n\n[2] two", got)
	assert.Empty(t, ContextBlock(nil))
}

func newAnswerFixture(t *testing.T, hits []domain.Hit, primary, fallback *mockLLM) (*AnswerService, *mockSearch, *mockAnalytics) {
	t.Helper()
	search := &mockSearch{hits: hits}
	analytics := &mockAnalytics{}
	svc := NewAnswerService(search, memory.NewIndex(0), NewGenerator(asLLM(primary), asLLM(fallback), 0), newTestPrompts(t), analytics)
	return svc, search, analytics
}

// asLLM avoids typed-nil interface values for absent providers.
func asLLM(m *mockLLM) driven.LLMService {
	if m == nil {
		return nil
	}
	return m
}

func TestAnswerService_Ask(t *testing.T) {
	hits := []domain.Hit{hit("d", 0, "Paris is in France."), hit("d", 1, "paris is in france."), hit("d", 2, "It has a tower.")}
	primary := newMockLLM("openai", "Paris.", nil)
	svc, search, analytics := newAnswerFixture(t, hits, primary, nil)

	ans, err := svc.Ask(context.Background(), driving.AskRequest{Query: "  Where is Paris?  ", DocumentID: "d"})
	require.NoError(t, err)

	assert.Equal(t, "Paris.", ans.Text)
	assert.Equal(t, "openai", ans.Provider)
	require.Len(t, ans.Sources, 2)
	assert.Equal(t, "d:0", ans.Sources[0].ID)
	assert.Equal(t, "d:2", ans.Sources[1].ID)

	assert.Equal(t, "Where is Paris?", search.lastQuery)
	assert.Equal(t, domain.AskTopK, search.lastOpts.TopK)
	assert.Equal(t, "d", search.lastOpts.DocumentID)

	req := primary.request()
	assert.Contains(t, req.Prompt, "[1] Paris is in France.\n\n[2] It has a tower.")
	assert.Contains(t, req.Prompt, "QUESTION:\nWhere is Paris?")
	assert.NotEmpty(t, req.System)

	assert.Equal(t, []domain.UsageEventType{domain.UsageQuestionAsked}, analytics.recorded())
}

func TestAnswerService_AskNotDelayedByStalledUsageStore(t *testing.T) {
	store := &blockingUsageStore{UsageStore: memstore.NewUsageStore(), release: make(chan struct{})}
	analytics := NewAnalyticsService(store)
	search := &mockSearch{hits: []domain.Hit{hit("d", 0, "ctx")}}
	gen := NewGenerator(asLLM(newMockLLM("openai", "answer", nil)), nil, 0)
	svc := NewAnswerService(search, memory.NewIndex(0), gen, newTestPrompts(t), analytics)

	start := time.Now()
	ans, err := svc.Ask(context.Background(), driving.AskRequest{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, "answer", ans.Text)
	assert.Less(t, time.Since(start), time.Second)

	close(store.release)
	analytics.Flush()
	assert.Len(t, store.Events(), 1)
}

func TestAnswerService_Ask_FallsBackOnAnyError(t *testing.T) {
	primary := newMockLLM("openai", "", outageErr("openai"))
	fallback := newMockLLM("ollama", "local answer", nil)
	svc, _, _ := newAnswerFixture(t, []domain.Hit{hit("d", 0, "ctx")}, primary, fallback)

	ans, err := svc.Ask(context.Background(), driving.AskRequest{Query: "q"})
	require.NoError(t, err)
	assert.Equal(t, "local answer", ans.Text)
	assert.Equal(t, "ollama", ans.Provider)
}

func TestAnswerService_Ask_Errors(t *testing.T) {
	t.Run("empty query", func(t *testing.T) {
		svc, _, _ := newAnswerFixture(t, nil, newMockLLM("openai", "x", nil), nil)
		_, err := svc.Ask(context.Background(), driving.AskRequest{Query: "   "})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("no context", func(t *testing.T) {
		svc, _, analytics := newAnswerFixture(t, []domain.Hit{hit("d", 0, " ")}, newMockLLM("openai", "x", nil), nil)
		_, err := svc.Ask(context.Background(), driving.AskRequest{Query: "q"})
		assert.ErrorIs(t, err, domain.ErrNoContext)
		assert.Empty(t, analytics.recorded())
	})

	t.Run("all providers fail", func(t *testing.T) {
		svc, _, _ := newAnswerFixture(t, []domain.Hit{hit("d", 0, "ctx")},
			newMockLLM("openai", "", outageErr("openai")), newMockLLM("ollama", "", outageErr("ollama")))
		_, err := svc.Ask(context.Background(), driving.AskRequest{Query: "q"})
		assert.ErrorIs(t, err, domain.ErrProviderUnavailable)
	})
}

func TestAnswerService_AskStream(t *testing.T) {
	svc, _, _ := newAnswerFixture(t, []domain.Hit{hit("d", 0, "ctx")}, newMockLLM("openai", "streamed answer", nil), nil)

	events, err := svc.AskStream(context.Background(), driving.AskRequest{Query: "q"})
	require.NoError(t, err)

	text, label := Drain(events)
	assert.Equal(t, "streamed answer", text)
	assert.Empty(t, label)
}

func TestAnswerService_AskStream_FailureLabel(t *testing.T) {
	svc, _, _ := newAnswerFixture(t, []domain.Hit{hit("d", 0, "ctx")},
		newMockLLM("openai", "", outageErr("openai")), newMockLLM("ollama", "", outageErr("ollama")))

	events, err := svc.AskStream(context.Background(), driving.AskRequest{Query: "q"})
	require.NoError(t, err)

	_, label := Drain(events)
	assert.Equal(t, domain.ErrorLabelUnavailable, label)
}

func TestAnswerService_AskStream_ValidatesBeforeStreaming(t *testing.T) {
	svc, _, _ := newAnswerFixture(t, nil, newMockLLM("openai", "x", nil), nil)
	events, err := svc.AskStream(context.Background(), driving.AskRequest{Query: ""})
	assert.ErrorIs(t, err, domain.ErrInvalidInput)
	assert.Nil(t, events)
}

func TestAnswerService_Summarize(t *testing.T) {
	index := memory.NewIndex(0)
	var records []domain.IndexRecord
	for i := 24; i >= 0; i-- {
		records = append(records, domain.IndexRecord{
			ID:       domain.ChunkID("doc", i),
			Vector:   []float32{1},
			Text:     fmt.Sprintf("chunk %02d", i),
			Metadata: domain.ChunkMetadata{DocumentID: "doc", ChunkIndex: i, Filename: "doc.md"},
		})
	}
	require.NoError(t, index.Upsert(context.Background(), records))

	primary := newMockLLM("openai", "summary", nil)
	svc := NewAnswerService(&mockSearch{}, index, NewGenerator(primary, nil, 0), newTestPrompts(t), nil)

	t.Run("default style", func(t *testing.T) {
		ans, err := svc.Summarize(context.Background(), driving.SummarizeRequest{DocumentID: "doc"})
		require.NoError(t, err)
		assert.Equal(t, "summary", ans.Text)
		require.Len(t, ans.Sources, domain.SummarizeContextHits)
		assert.Equal(t, 0, ans.Sources[0].ChunkIndex)
		assert.Equal(t, 19, ans.Sources[19].ChunkIndex)

		prompt := primary.request().Prompt
		assert.Contains(t, prompt, "[1] chunk 00")
		assert.Contains(t, prompt, "[20] chunk 19")
		assert.NotContains(t, prompt, "chunk 20")
		assert.Contains(t, prompt, "Summarize this document")
	})

	t.Run("custom style", func(t *testing.T) {
		_, err := svc.Summarize(context.Background(), driving.SummarizeRequest{DocumentID: "doc", Style: "Three bullets."})
		require.NoError(t, err)
		assert.Contains(t, primary.request().Prompt, "QUESTION:\nThree bullets.")
	})

	t.Run("missing document id", func(t *testing.T) {
		_, err := svc.Summarize(context.Background(), driving.SummarizeRequest{})
		assert.ErrorIs(t, err, domain.ErrInvalidInput)
	})

	t.Run("unknown document", func(t *testing.T) {
		_, err := svc.Summarize(context.Background(), driving.SummarizeRequest{DocumentID: "nope"})
		assert.ErrorIs(t, err, domain.ErrNoContext)
	})
}

func TestChatService(t *testing.T) {
	t.Run("complete does not fall back on outage", func(t *testing.T) {
		fallback := newMockLLM("ollama", "local", nil)
		svc := NewChatService(NewGenerator(newMockLLM("openai", "", outageErr("openai")), fallback, 0))

		_, err := svc.Complete(context.Background(), testReq)
		assert.ErrorIs(t, err, domain.ErrPrimaryFailed)
		assert.Equal(t, int32(0), fallback.calls.Load())
	})

	t.Run("complete falls back on quota", func(t *testing.T) {
		svc := NewChatService(NewGenerator(newMockLLM("openai", "", quotaErr("openai")), newMockLLM("ollama", "local", nil), 0))

		reply, err := svc.Complete(context.Background(), testReq)
		require.NoError(t, err)
		assert.Equal(t, "local", reply)
	})

	t.Run("stream labels primary failure", func(t *testing.T) {
		svc := NewChatService(NewGenerator(newMockLLM("openai", "", outageErr("openai")), newMockLLM("ollama", "local", nil), 0))

		_, label := Drain(svc.Stream(context.Background(), testReq))
		assert.Equal(t, domain.ErrorLabelPrimaryFailed, label)
	})

	t.Run("stream falls back when primary times out", func(t *testing.T) {
		primary := &mockStreamer{mockLLM: mockLLM{name: "openai"}, block: true}
		fallback := &mockStreamer{mockLLM: mockLLM{name: "ollama"}, fragments: []string{"hi"}}
		svc := NewChatService(NewGenerator(primary, fallback, 50*time.Millisecond))

		text, label := Drain(svc.Stream(context.Background(), testReq))
		assert.Equal(t, "hi", text)
		assert.Empty(t, label)
		assert.Equal(t, int32(1), fallback.calls.Load())
	})
}
