package documents

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
)

type mockDocumentService struct {
	page  *domain.DocumentPage
	err   error
	query domain.DocumentQuery
}

func (m *mockDocumentService) List(_ context.Context, q domain.DocumentQuery) (*domain.DocumentPage, error) {
	m.query = q
	if m.err != nil {
		return nil, m.err
	}
	return m.page, nil
}

func (m *mockDocumentService) Get(context.Context, string) (*domain.Document, error) {
	return nil, domain.ErrNotFound
}

func (m *mockDocumentService) Delete(context.Context, string) error { return nil }

func testDocuments() []domain.Document {
	uploaded := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
	return []domain.Document{
		{ID: "doc-1", Filename: "report.pdf", ChunkCount: 4, UploadedAt: uploaded},
		{ID: "doc-2", Filename: "notes.md", ChunkCount: 1, UploadedAt: uploaded},
	}
}

func loadedView(t *testing.T) *View {
	t.Helper()
	v := NewView(nil, nil, nil)
	v.SetDimensions(80, 24)
	v, _ = v.Update(messages.DocumentsLoaded{Documents: testDocuments(), Total: 2})
	return v
}

func key(s string) tea.KeyMsg {
	switch s {
	case "enter":
		return tea.KeyMsg{Type: tea.KeyEnter}
	case "esc":
		return tea.KeyMsg{Type: tea.KeyEsc}
	case "down":
		return tea.KeyMsg{Type: tea.KeyDown}
	case "up":
		return tea.KeyMsg{Type: tea.KeyUp}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

func TestView_Init_LoadsDocuments(t *testing.T) {
	svc := &mockDocumentService{page: &domain.DocumentPage{Items: testDocuments(), Total: 2}}
	v := NewView(nil, nil, svc)

	cmd := v.Init()
	require.NotNil(t, cmd)
	assert.Contains(t, v.View(), "Loading")

	msg, ok := cmd().(messages.DocumentsLoaded)
	require.True(t, ok)
	require.NoError(t, msg.Err)
	assert.Len(t, msg.Documents, 2)
	assert.Equal(t, domain.MaxPageSize, svc.query.Size)
	assert.Equal(t, 1, svc.query.Page)
}

func TestView_Init_Errors(t *testing.T) {
	t.Run("no service", func(t *testing.T) {
		msg := NewView(nil, nil, nil).Init()().(messages.DocumentsLoaded)
		assert.ErrorIs(t, msg.Err, errNoDocumentService)
	})

	t.Run("list fails", func(t *testing.T) {
		svc := &mockDocumentService{err: errors.New("store offline")}
		v := NewView(nil, nil, svc)
		msg := v.Init()()

		v, _ = v.Update(msg)
		assert.Contains(t, v.View(), "store offline")
	})
}

func TestView_Navigation(t *testing.T) {
	v := loadedView(t)
	assert.Equal(t, "doc-1", v.Selected().ID)

	v, _ = v.Update(key("down"))
	assert.Equal(t, "doc-2", v.Selected().ID)

	v, _ = v.Update(key("down"))
	assert.Equal(t, "doc-2", v.Selected().ID, "stays at the end")

	v, _ = v.Update(key("k"))
	assert.Equal(t, "doc-1", v.Selected().ID)
}

func TestView_SelectScopesDocument(t *testing.T) {
	v := loadedView(t)
	v, _ = v.Update(key("down"))

	_, cmd := v.Update(key("enter"))
	require.NotNil(t, cmd)

	msg, ok := cmd().(messages.ScopeChanged)
	require.True(t, ok)
	require.NotNil(t, msg.Document)
	assert.Equal(t, "doc-2", msg.Document.ID)
}

func TestView_UnscopeAndCancel(t *testing.T) {
	v := loadedView(t)

	_, cmd := v.Update(key("a"))
	msg, ok := cmd().(messages.ScopeChanged)
	require.True(t, ok)
	assert.Nil(t, msg.Document)

	_, cmd = v.Update(key("esc"))
	changed, ok := cmd().(messages.ViewChanged)
	require.True(t, ok)
	assert.Equal(t, messages.ViewChat, changed.View)
}

func TestView_SelectOnEmptyList(t *testing.T) {
	v := NewView(nil, nil, nil)
	v, _ = v.Update(messages.DocumentsLoaded{})

	_, cmd := v.Update(key("enter"))
	assert.Nil(t, cmd)
	assert.Nil(t, v.Selected())
	assert.Contains(t, v.View(), "No documents")
}

func TestView_Render(t *testing.T) {
	view := loadedView(t).View()

	assert.Contains(t, view, "Documents (2)")
	assert.Contains(t, view, "> ")
	assert.Contains(t, view, "report.pdf")
	assert.Contains(t, view, "4 chunks, 2026-03-01")
}
