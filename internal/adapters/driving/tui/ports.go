// Package tui provides an interactive terminal chat for sercha-kb.
// It implements a driving adapter following hexagonal architecture principles.
package tui

import (
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

// Ports aggregates all driving port interfaces required by the TUI.
// This provides a single injection point for dependency injection.
type Ports struct {
	// Answer streams grounded answers.
	Answer driving.AnswerService

	// Chat streams raw completions. Optional: chat mode is disabled when nil.
	Chat driving.ChatService

	// Document lists documents for the scope picker. Optional.
	Document driving.DocumentService
}

// Validate ensures all required ports are set.
func (p *Ports) Validate() error {
	if p.Answer == nil {
		return ErrMissingAnswerService
	}
	return nil
}
