package tui

import (
	"context"

	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

func closedStream(events ...domain.StreamEvent) <-chan domain.StreamEvent {
	ch := make(chan domain.StreamEvent, len(events))
	for _, ev := range events {
		ch <- ev
	}
	close(ch)
	return ch
}

type mockAnswer struct {
	events []domain.StreamEvent
}

func (m *mockAnswer) Ask(context.Context, driving.AskRequest) (*domain.Answer, error) {
	return &domain.Answer{}, nil
}

func (m *mockAnswer) AskStream(context.Context, driving.AskRequest) (<-chan domain.StreamEvent, error) {
	return closedStream(m.events...), nil
}

func (m *mockAnswer) Summarize(context.Context, driving.SummarizeRequest) (*domain.Answer, error) {
	return &domain.Answer{}, nil
}

type mockChat struct{}

func (m *mockChat) Complete(context.Context, domain.CompletionRequest) (string, error) {
	return "", nil
}

func (m *mockChat) Stream(context.Context, domain.CompletionRequest) <-chan domain.StreamEvent {
	return closedStream(domain.TypingEvent(), domain.DoneEvent())
}

type mockDocuments struct {
	docs []domain.Document
}

func (m *mockDocuments) List(context.Context, domain.DocumentQuery) (*domain.DocumentPage, error) {
	return &domain.DocumentPage{Page: 1, Size: domain.MaxPageSize, Total: len(m.docs), Items: m.docs}, nil
}

func (m *mockDocuments) Get(_ context.Context, id string) (*domain.Document, error) {
	for i := range m.docs {
		if m.docs[i].ID == id {
			return &m.docs[i], nil
		}
	}
	return nil, domain.ErrNotFound
}

func (m *mockDocuments) Delete(context.Context, string) error { return nil }
