package tui

import (
	"context"
	"errors"
	"testing"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

func newTestApp(t *testing.T) *App {
	t.Helper()
	app, err := NewApp(&Ports{
		Answer: &mockAnswer{},
		Chat:   &mockChat{},
		Document: &mockDocuments{docs: []domain.Document{
			{ID: "doc-1", Filename: "handbook.pdf", ChunkCount: 3},
		}},
	})
	require.NoError(t, err)
	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	return app
}

func TestNewApp(t *testing.T) {
	t.Run("valid ports", func(t *testing.T) {
		app, err := NewApp(&Ports{Answer: &mockAnswer{}})
		require.NoError(t, err)
		assert.Equal(t, messages.ViewChat, app.CurrentView())
		assert.NotNil(t, app.Init())
	})

	t.Run("missing answer service", func(t *testing.T) {
		_, err := NewApp(&Ports{})
		assert.ErrorIs(t, err, ErrMissingAnswerService)
	})

	t.Run("nil ports", func(t *testing.T) {
		_, err := NewApp(nil)
		assert.ErrorIs(t, err, ErrMissingAnswerService)
	})
}

func TestApp_WithContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	app, err := NewApp(&Ports{Answer: &mockAnswer{}})
	require.NoError(t, err)
	app.WithContext(ctx)

	cmd := app.watchContext()
	require.NotNil(t, cmd)
	cancel()
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_View(t *testing.T) {
	app, err := NewApp(&Ports{Answer: &mockAnswer{}})
	require.NoError(t, err)
	assert.Equal(t, "Initialising...", app.View())

	app.Update(tea.WindowSizeMsg{Width: 120, Height: 40})
	assert.Contains(t, app.View(), "Ask")
}

func TestApp_Quit(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyCtrlC})
	require.NotNil(t, cmd)
	assert.IsType(t, tea.QuitMsg{}, cmd())
}

func TestApp_DocumentScopeFlow(t *testing.T) {
	app := newTestApp(t)

	_, cmd := app.Update(messages.ViewChanged{View: messages.ViewDocuments})
	assert.Equal(t, messages.ViewDocuments, app.CurrentView())
	require.NotNil(t, cmd)

	loaded := cmd()
	app.Update(loaded)
	assert.Contains(t, app.View(), "handbook.pdf")

	_, cmd = app.Update(tea.KeyMsg{Type: tea.KeyEnter})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, messages.ViewChat, app.CurrentView())
	require.NotNil(t, app.chatView.Scope())
	assert.Equal(t, "doc-1", app.chatView.Scope().ID)
}

func TestApp_PickerEscReturnsToChat(t *testing.T) {
	app := newTestApp(t)
	app.Update(messages.ViewChanged{View: messages.ViewDocuments})

	_, cmd := app.Update(tea.KeyMsg{Type: tea.KeyEsc})
	require.NotNil(t, cmd)
	app.Update(cmd())

	assert.Equal(t, messages.ViewChat, app.CurrentView())
	assert.Nil(t, app.chatView.Scope())
}

func TestApp_ErrorOccurred(t *testing.T) {
	app := newTestApp(t)

	app.Update(messages.ErrorOccurred{Err: errors.New("index offline")})

	require.Error(t, app.Err())
	assert.Contains(t, app.View(), "index offline")
}
