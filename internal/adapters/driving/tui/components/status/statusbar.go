// Package status provides status bar components for the TUI.
package status

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
)

// State represents the current application state for display.
type State string

const (
	StateReady     State = "ready"
	StateThinking  State = "thinking"
	StateStreaming State = "streaming"
	StateError     State = "error"
	StatePicking   State = "picking"
)

// Bar displays the mode, document scope, progress and keybinding hints.
type Bar struct {
	styles  *styles.Styles
	keymap  *keymap.KeyMap
	spinner spinner.Model
	state   State
	mode    messages.Mode
	scope   string
	message string
	width   int
}

// NewBar creates a new status bar component.
func NewBar(s *styles.Styles, km *keymap.KeyMap) *Bar {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = s.Title

	return &Bar{
		styles:  s,
		keymap:  km,
		spinner: sp,
		state:   StateReady,
		width:   80,
	}
}

// Init initialises the status bar.
func (s *Bar) Init() tea.Cmd {
	return nil
}

// Update advances the spinner while busy.
func (s *Bar) Update(msg tea.Msg) (*Bar, tea.Cmd) {
	if _, ok := msg.(spinner.TickMsg); ok && s.Busy() {
		var cmd tea.Cmd
		s.spinner, cmd = s.spinner.Update(msg)
		return s, cmd
	}
	return s, nil
}

// View renders the status bar.
func (s *Bar) View() string {
	left := s.renderLeft()
	right := s.renderRight()

	// StatusBar pads one column each side
	padding := max(s.width-2-lipgloss.Width(left)-lipgloss.Width(right), 1)
	return s.styles.StatusBar.Width(s.width).Render(
		left + strings.Repeat(" ", padding) + right,
	)
}

// renderLeft renders the mode badge, scope and state.
func (s *Bar) renderLeft() string {
	parts := []string{s.styles.Badge.Render(s.mode.String())}
	if s.scope != "" {
		parts = append(parts, s.styles.Subtitle.Render(s.scope))
	}

	switch s.state {
	case StateThinking:
		parts = append(parts, s.spinner.View()+s.styles.Muted.Render("thinking"))
	case StateStreaming:
		parts = append(parts, s.spinner.View()+s.styles.Muted.Render("answering"))
	case StateError:
		msg := "Error"
		if s.message != "" {
			msg = fmt.Sprintf("Error: %s", s.message)
		}
		parts = append(parts, s.styles.Error.Render(msg))
	case StatePicking:
		parts = append(parts, s.styles.Normal.Render("Choose a document"))
	case StateReady:
		if s.message != "" {
			parts = append(parts, s.styles.Muted.Render(s.message))
		}
	}
	return strings.Join(parts, " ")
}

// renderRight renders keybinding hints for the state.
func (s *Bar) renderRight() string {
	var bindings []key.Binding
	switch s.state {
	case StateThinking, StateStreaming:
		bindings = s.keymap.StreamingHelp()
	case StatePicking:
		bindings = s.keymap.PickerHelp()
	default:
		bindings = s.keymap.ChatHelp()
	}

	hints := make([]string, 0, len(bindings))
	for _, b := range bindings {
		h := b.Help()
		hints = append(hints, fmt.Sprintf("%s: %s", h.Key, h.Desc))
	}
	return s.styles.Muted.Render(strings.Join(hints, " | "))
}

// SetState sets the current state. Entering a busy state returns the spinner tick.
func (s *Bar) SetState(state State) tea.Cmd {
	wasBusy := s.Busy()
	s.state = state
	if s.Busy() && !wasBusy {
		return s.spinner.Tick
	}
	return nil
}

// State returns the current state.
func (s *Bar) State() State {
	return s.state
}

// Busy reports whether an answer is being generated.
func (s *Bar) Busy() bool {
	return s.state == StateThinking || s.state == StateStreaming
}

// SetMode sets the displayed mode.
func (s *Bar) SetMode(mode messages.Mode) {
	s.mode = mode
}

// SetScope sets the displayed document scope. Empty means all documents.
func (s *Bar) SetScope(scope string) {
	s.scope = scope
}

// Scope returns the displayed document scope.
func (s *Bar) Scope() string {
	return s.scope
}

// SetMessage sets a custom message.
func (s *Bar) SetMessage(message string) {
	s.message = message
}

// Message returns the current message.
func (s *Bar) Message() string {
	return s.message
}

// SetWidth sets the status bar width.
func (s *Bar) SetWidth(width int) {
	s.width = width
}

// Width returns the current width.
func (s *Bar) Width() int {
	return s.width
}

// Clear resets the state and message, keeping mode and scope.
func (s *Bar) Clear() {
	s.state = StateReady
	s.message = ""
}
