// Package chat provides the transcript and prompt view for the TUI.
package chat

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/components/input"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

// turn is one prompt and the reply streamed for it.
type turn struct {
	mode     messages.Mode
	prompt   string
	reply    strings.Builder
	errLabel string
	stopped  bool
}

// View is the chat view: a scrolling transcript above the prompt.
type View struct {
	styles *styles.Styles
	keymap *keymap.KeyMap
	answer driving.AnswerService
	chat   driving.ChatService

	input    *input.PromptInput
	bar      *status.Bar
	viewport viewport.Model

	turns  []*turn
	events <-chan domain.StreamEvent
	cancel context.CancelFunc
	scope  *domain.Document
	mode   messages.Mode

	width  int
	height int
}

// NewView creates a chat view. chat may be nil, which disables chat mode.
func NewView(s *styles.Styles, km *keymap.KeyMap, answer driving.AnswerService, chat driving.ChatService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}

	v := &View{
		styles:   s,
		keymap:   km,
		answer:   answer,
		chat:     chat,
		input:    input.NewPromptInput(s),
		bar:      status.NewBar(s, km),
		viewport: viewport.New(80, 20),
		mode:     messages.ModeAsk,
	}
	v.bar.SetMode(v.mode)
	return v
}

// Init initialises the view.
func (v *View) Init() tea.Cmd {
	return v.input.Init()
}

// Update handles messages for the chat view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.StreamStarted:
		if msg.Err != nil {
			v.fail(describeError(msg.Err))
			v.finish()
			return v, nil
		}
		v.events = msg.Events
		return v, waitForEvent(v.events)

	case messages.StreamEvent:
		return v, v.handleEvent(msg.Event)

	case messages.StreamClosed:
		v.finish()
		return v, nil

	case messages.ScopeChanged:
		v.SetScope(msg.Document)
		return v, nil
	}

	var cmds []tea.Cmd
	var cmd tea.Cmd
	v.bar, cmd = v.bar.Update(msg)
	cmds = append(cmds, cmd)
	v.viewport, cmd = v.viewport.Update(msg)
	cmds = append(cmds, cmd)
	return v, tea.Batch(cmds...)
}

// handleKeyMsg handles key presses while chatting.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	key := msg.String()

	if v.Busy() {
		switch {
		case keymap.Matches(key, v.keymap.Cancel):
			v.stop()
		case keymap.Matches(key, v.keymap.PageUp), keymap.Matches(key, v.keymap.PageDown):
			var cmd tea.Cmd
			v.viewport, cmd = v.viewport.Update(msg)
			return v, cmd
		}
		return v, nil
	}

	switch {
	case keymap.Matches(key, v.keymap.Send):
		return v, v.submit()
	case keymap.Matches(key, v.keymap.ToggleMode):
		v.toggleMode()
		return v, nil
	case keymap.Matches(key, v.keymap.Documents):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewDocuments}
		}
	case keymap.Matches(key, v.keymap.Clear):
		v.turns = nil
		v.bar.Clear()
		v.refresh()
		return v, nil
	case keymap.Matches(key, v.keymap.PageUp), keymap.Matches(key, v.keymap.PageDown):
		var cmd tea.Cmd
		v.viewport, cmd = v.viewport.Update(msg)
		return v, cmd
	}

	var cmd tea.Cmd
	v.input, cmd = v.input.Update(msg)
	return v, cmd
}

// submit starts a stream for the prompt in the input.
func (v *View) submit() tea.Cmd {
	prompt := v.input.Value()
	if prompt == "" {
		return nil
	}
	v.input.Reset()

	t := &turn{mode: v.mode, prompt: prompt}
	v.turns = append(v.turns, t)
	v.refresh()

	ctx, cancel := context.WithCancel(context.Background())
	v.cancel = cancel

	barCmd := v.bar.SetState(status.StateThinking)
	v.bar.SetMessage("")
	return tea.Batch(barCmd, v.start(ctx, t))
}

// start returns a command that opens the stream for a turn.
func (v *View) start(ctx context.Context, t *turn) tea.Cmd {
	if t.mode == messages.ModeChat {
		chat := v.chat
		req := domain.CompletionRequest{Prompt: t.prompt}
		return func() tea.Msg {
			return messages.StreamStarted{Events: chat.Stream(ctx, req)}
		}
	}

	answer := v.answer
	req := driving.AskRequest{Query: t.prompt}
	if v.scope != nil {
		req.DocumentID = v.scope.ID
	}
	return func() tea.Msg {
		events, err := answer.AskStream(ctx, req)
		return messages.StreamStarted{Events: events, Err: err}
	}
}

// waitForEvent reads the next event from the stream.
func waitForEvent(events <-chan domain.StreamEvent) tea.Cmd {
	return func() tea.Msg {
		ev, ok := <-events
		if !ok {
			return messages.StreamClosed{}
		}
		return messages.StreamEvent{Event: ev}
	}
}

// handleEvent applies a stream event to the current turn.
func (v *View) handleEvent(ev domain.StreamEvent) tea.Cmd {
	t := v.current()
	if t == nil || v.events == nil {
		return nil
	}

	var cmd tea.Cmd
	switch ev.Kind {
	case domain.EventToken:
		if !t.stopped {
			t.reply.WriteString(ev.Data)
			if v.bar.State() == status.StateThinking {
				cmd = v.bar.SetState(status.StateStreaming)
			}
			v.refresh()
		}
	case domain.EventRestart:
		if !t.stopped {
			t.reply.Reset()
			v.refresh()
		}
	case domain.EventError:
		v.fail(ev.Data)
	case domain.EventTyping, domain.EventDone:
	}

	return tea.Batch(cmd, waitForEvent(v.events))
}

// fail records an error label on the current turn.
func (v *View) fail(label string) {
	if t := v.current(); t != nil {
		t.errLabel = label
	}
	v.bar.SetState(status.StateError)
	v.bar.SetMessage(label)
	v.refresh()
}

// stop cancels the active stream. Remaining events are drained until close.
func (v *View) stop() {
	if v.cancel != nil {
		v.cancel()
	}
	if t := v.current(); t != nil {
		t.stopped = true
	}
	v.refresh()
}

// finish releases the stream once it has closed.
func (v *View) finish() {
	if v.cancel != nil {
		v.cancel()
		v.cancel = nil
	}
	v.events = nil
	if v.bar.State() != status.StateError {
		v.bar.SetState(status.StateReady)
	}
}

func (v *View) current() *turn {
	if len(v.turns) == 0 {
		return nil
	}
	return v.turns[len(v.turns)-1]
}

func (v *View) toggleMode() {
	if v.chat == nil {
		v.bar.SetMessage("chat mode is not available")
		return
	}
	if v.mode == messages.ModeAsk {
		v.mode = messages.ModeChat
	} else {
		v.mode = messages.ModeAsk
	}
	v.input.SetMode(v.mode)
	v.bar.SetMode(v.mode)
	v.bar.SetMessage("")
}

// Busy reports whether a stream is open or being opened.
func (v *View) Busy() bool {
	return v.cancel != nil
}

// Mode returns the current prompt mode.
func (v *View) Mode() messages.Mode {
	return v.mode
}

// SetScope restricts questions to one document. Nil means all documents.
func (v *View) SetScope(doc *domain.Document) {
	v.scope = doc
	if doc == nil {
		v.bar.SetScope("")
		return
	}
	v.bar.SetScope(doc.Filename)
}

// Scope returns the scoped document, or nil.
func (v *View) Scope() *domain.Document {
	return v.scope
}

// Bar returns the status bar so other views can share it.
func (v *View) Bar() *status.Bar {
	return v.bar
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
	v.input.SetWidth(width)
	v.bar.SetWidth(width)
	v.viewport.Width = width
	// Input line, blank line and status bar
	v.viewport.Height = max(height-3, 1)
	v.refresh()
}

// refresh re-renders the transcript into the viewport.
func (v *View) refresh() {
	v.viewport.SetContent(v.renderTranscript())
	v.viewport.GotoBottom()
}

// Transcript returns the rendered transcript.
func (v *View) Transcript() string {
	return v.renderTranscript()
}

func (v *View) renderTranscript() string {
	if len(v.turns) == 0 {
		return v.styles.Muted.Render("Ask a question about your documents, or press tab for chat.")
	}

	wrap := lipgloss.NewStyle().Width(max(v.width-2, 20))
	var b strings.Builder
	for i, t := range v.turns {
		if i > 0 {
			b.WriteString("\n")
		}
		b.WriteString(v.styles.Question.Render(fmt.Sprintf("%s> %s", t.mode, t.prompt)))
		b.WriteString("\n")
		if reply := t.reply.String(); reply != "" {
			b.WriteString(v.styles.Answer.Render(wrap.Render(reply)))
			b.WriteString("\n")
		}
		if t.errLabel != "" {
			b.WriteString(v.styles.Error.Render("error: " + t.errLabel))
			b.WriteString("\n")
		}
		if t.stopped {
			b.WriteString(v.styles.Muted.Render("(stopped)"))
			b.WriteString("\n")
		}
	}
	return b.String()
}

// View renders the chat view.
func (v *View) View() string {
	return lipgloss.JoinVertical(lipgloss.Left,
		v.viewport.View(),
		v.input.View(),
		v.bar.View(),
	)
}

// describeError turns a rejected request into a short label.
func describeError(err error) string {
	switch {
	case errors.Is(err, domain.ErrNoContext):
		return "no matching chunks"
	case errors.Is(err, domain.ErrInvalidInput):
		return "invalid question"
	case errors.Is(err, domain.ErrIndexUnavailable):
		return "vector index unavailable"
	default:
		return err.Error()
	}
}
