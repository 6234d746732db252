package tui

import (
	"context"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/components/status"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/views/chat"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/views/documents"
)

// App is the main TUI application following the Elm architecture.
// It implements tea.Model for use with Bubbletea.
type App struct {
	// ports provides access to core services via driving ports.
	ports *Ports

	// ctx is the context for cancellation.
	ctx context.Context

	styles *styles.Styles
	keymap *keymap.KeyMap

	// chatView holds the transcript and prompt.
	chatView *chat.View

	// documentsView is the document scope picker.
	documentsView *documents.View

	// currentView tracks which view is active.
	currentView messages.ViewType

	// err holds the last error that occurred.
	err error

	// width and height are terminal dimensions.
	width  int
	height int

	// ready indicates if the app has initialised.
	ready bool
}

// Ensure App implements tea.Model.
var _ tea.Model = (*App)(nil)

// NewApp creates a new TUI application with the given ports.
func NewApp(ports *Ports) (*App, error) {
	if ports == nil {
		return nil, fmt.Errorf("creating app: %w", ErrMissingAnswerService)
	}
	if err := ports.Validate(); err != nil {
		return nil, fmt.Errorf("creating app: %w", err)
	}

	s := styles.DefaultStyles()
	km := keymap.DefaultKeyMap()

	return &App{
		ports:         ports,
		ctx:           context.Background(),
		styles:        s,
		keymap:        km,
		chatView:      chat.NewView(s, km, ports.Answer, ports.Chat),
		documentsView: documents.NewView(s, km, ports.Document),
		currentView:   messages.ViewChat,
	}, nil
}

// WithContext sets the context for the app. Cancelling it quits the program.
func (a *App) WithContext(ctx context.Context) *App {
	a.ctx = ctx
	return a
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		tea.EnterAltScreen,
		tea.SetWindowTitle("sercha-kb"),
		a.chatView.Init(),
		a.watchContext(),
	)
}

// watchContext quits when the app context is cancelled.
func (a *App) watchContext() tea.Cmd {
	ctx := a.ctx
	if ctx.Done() == nil {
		return nil
	}
	return func() tea.Msg {
		<-ctx.Done()
		return tea.QuitMsg{}
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.ready = true
		a.chatView.SetDimensions(msg.Width, msg.Height)
		a.documentsView.SetDimensions(msg.Width, msg.Height-1)
		return a, nil

	case tea.KeyMsg:
		if keymap.Matches(msg.String(), a.keymap.Quit) {
			return a, tea.Quit
		}
		if a.currentView == messages.ViewDocuments {
			a.documentsView, cmd = a.documentsView.Update(msg)
			return a, cmd
		}
		a.chatView, cmd = a.chatView.Update(msg)
		return a, cmd

	case messages.ViewChanged:
		return a, a.switchView(msg.View)

	case messages.DocumentsLoaded:
		a.documentsView, cmd = a.documentsView.Update(msg)
		return a, cmd

	case messages.ScopeChanged:
		a.chatView, cmd = a.chatView.Update(msg)
		return a, tea.Batch(cmd, a.switchView(messages.ViewChat))

	case messages.ErrorOccurred:
		a.err = msg.Err
		bar := a.chatView.Bar()
		bar.SetState(status.StateError)
		bar.SetMessage(msg.Err.Error())
		return a, nil
	}

	// Stream and spinner messages always belong to the chat view,
	// even while the picker is open.
	a.chatView, cmd = a.chatView.Update(msg)
	return a, cmd
}

// switchView activates a view.
func (a *App) switchView(view messages.ViewType) tea.Cmd {
	bar := a.chatView.Bar()
	switch view {
	case messages.ViewDocuments:
		if a.chatView.Busy() {
			return nil
		}
		a.currentView = messages.ViewDocuments
		bar.SetState(status.StatePicking)
		return a.documentsView.Init()
	case messages.ViewChat:
		a.currentView = messages.ViewChat
		if bar.State() == status.StatePicking {
			bar.Clear()
		}
	}
	return nil
}

// View implements tea.Model.
func (a *App) View() string {
	if !a.ready {
		return "Initialising..."
	}

	if a.currentView == messages.ViewDocuments {
		body := lipgloss.NewStyle().Height(max(a.height-1, 1)).Render(a.documentsView.View())
		return lipgloss.JoinVertical(lipgloss.Left, body, a.chatView.Bar().View())
	}
	return a.chatView.View()
}

// CurrentView returns the active view.
func (a *App) CurrentView() messages.ViewType {
	return a.currentView
}

// Err returns the last error.
func (a *App) Err() error {
	return a.err
}

// Run starts the TUI application.
func (a *App) Run() error {
	p := tea.NewProgram(a, tea.WithAltScreen())
	_, err := p.Run()
	return err
}
