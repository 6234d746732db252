// Package messages defines Bubbletea message types for the TUI.
// Messages represent events and commands that flow through the Elm architecture.
package messages

import (
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

// Mode selects how a prompt is answered.
type Mode int

const (
	// ModeAsk answers from retrieved document chunks.
	ModeAsk Mode = iota
	// ModeChat sends the prompt straight to the model.
	ModeChat
)

// String returns the string representation of the mode.
func (m Mode) String() string {
	switch m {
	case ModeAsk:
		return "ask"
	case ModeChat:
		return "chat"
	default:
		return "unknown"
	}
}

// ViewType identifies which view is currently active.
type ViewType int

const (
	// ViewChat is the transcript and prompt view.
	ViewChat ViewType = iota
	// ViewDocuments is the document scope picker.
	ViewDocuments
)

// String returns the string representation of the view type.
func (v ViewType) String() string {
	switch v {
	case ViewChat:
		return "chat"
	case ViewDocuments:
		return "documents"
	default:
		return "unknown"
	}
}

// ViewChanged is sent when navigating between views.
type ViewChanged struct {
	View ViewType
}

// StreamStarted carries the event stream for a submitted prompt.
// Err is set when the request was rejected before streaming began.
type StreamStarted struct {
	Events <-chan domain.StreamEvent
	Err    error
}

// StreamEvent carries one event read from the active stream.
type StreamEvent struct {
	Event domain.StreamEvent
}

// StreamClosed signals the active stream has ended.
type StreamClosed struct{}

// DocumentsLoaded carries one page of documents for the picker.
type DocumentsLoaded struct {
	Documents []domain.Document
	Total     int
	Err       error
}

// ScopeChanged sets or clears the document that questions are restricted to.
// A nil Document means all documents.
type ScopeChanged struct {
	Document *domain.Document
}

// ErrorOccurred signals that an error happened.
type ErrorOccurred struct {
	Err error
}
