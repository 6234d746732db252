// Package input provides text input components for the TUI.
package input

import (
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
)

// maxPromptLength bounds a single prompt.
const maxPromptLength = 4000

// PromptInput wraps a bubbles textinput with a mode label.
type PromptInput struct {
	textinput textinput.Model
	styles    *styles.Styles
	mode      messages.Mode
	width     int
}

// NewPromptInput creates a focused prompt input in ask mode.
func NewPromptInput(s *styles.Styles) *PromptInput {
	if s == nil {
		s = styles.DefaultStyles()
	}

	ti := textinput.New()
	ti.Focus()
	ti.CharLimit = maxPromptLength
	ti.Width = 50

	p := &PromptInput{
		textinput: ti,
		styles:    s,
		width:     50,
	}
	p.SetMode(messages.ModeAsk)
	return p
}

// Init initialises the prompt input.
func (p *PromptInput) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles input messages.
func (p *PromptInput) Update(msg tea.Msg) (*PromptInput, tea.Cmd) {
	var cmd tea.Cmd
	p.textinput, cmd = p.textinput.Update(msg)
	return p, cmd
}

// View renders the label and input.
func (p *PromptInput) View() string {
	label := p.styles.Title.Render(p.label())
	field := p.styles.InputField.Render(p.textinput.View())
	//nolint:misspell // lipgloss.Center is the correct constant from the library
	return lipgloss.JoinHorizontal(lipgloss.Center, label, field)
}

func (p *PromptInput) label() string {
	if p.mode == messages.ModeChat {
		return "Chat: "
	}
	return "Ask: "
}

// SetMode switches the label and placeholder.
func (p *PromptInput) SetMode(mode messages.Mode) {
	p.mode = mode
	if mode == messages.ModeChat {
		p.textinput.Placeholder = "Say something to the model..."
	} else {
		p.textinput.Placeholder = "Ask a question about your documents..."
	}
}

// Mode returns the current mode.
func (p *PromptInput) Mode() messages.Mode {
	return p.mode
}

// Value returns the trimmed input value.
func (p *PromptInput) Value() string {
	return strings.TrimSpace(p.textinput.Value())
}

// SetValue sets the input value.
func (p *PromptInput) SetValue(value string) {
	p.textinput.SetValue(value)
}

// Focus sets focus on the input.
func (p *PromptInput) Focus() tea.Cmd {
	return p.textinput.Focus()
}

// Blur removes focus from the input.
func (p *PromptInput) Blur() {
	p.textinput.Blur()
}

// Focused returns whether the input is focused.
func (p *PromptInput) Focused() bool {
	return p.textinput.Focused()
}

// SetWidth sets the width of the input.
func (p *PromptInput) SetWidth(width int) {
	p.width = width
	// Account for label and padding
	p.textinput.Width = max(width-12, 20)
}

// Width returns the current width.
func (p *PromptInput) Width() int {
	return p.width
}

// Reset clears the input.
func (p *PromptInput) Reset() {
	p.textinput.Reset()
}
