// Package documents provides the document scope picker for the TUI.
package documents

import (
	"context"
	"errors"
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/keymap"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/messages"
	"github.com/custodia-labs/sercha-kb/internal/adapters/driving/tui/styles"
	"github.com/custodia-labs/sercha-kb/internal/core/domain"
	"github.com/custodia-labs/sercha-kb/internal/core/ports/driving"
)

// errNoDocumentService is reported when the picker has nothing to list from.
var errNoDocumentService = errors.New("document service not available")

// View lists uploaded documents and emits ScopeChanged on selection.
type View struct {
	styles          *styles.Styles
	keymap          *keymap.KeyMap
	documentService driving.DocumentService

	documents    []domain.Document
	total        int
	selected     int
	scrollOffset int
	width        int
	height       int
	loading      bool
	err          error
}

// NewView creates a new documents view.
func NewView(s *styles.Styles, km *keymap.KeyMap, documentService driving.DocumentService) *View {
	if s == nil {
		s = styles.DefaultStyles()
	}
	if km == nil {
		km = keymap.DefaultKeyMap()
	}
	return &View{
		styles:          s,
		keymap:          km,
		documentService: documentService,
	}
}

// Init starts loading the first page of documents.
func (v *View) Init() tea.Cmd {
	v.loading = true
	v.err = nil
	return v.loadDocuments()
}

// loadDocuments returns a command that loads the largest page the store allows.
func (v *View) loadDocuments() tea.Cmd {
	svc := v.documentService
	return func() tea.Msg {
		if svc == nil {
			return messages.DocumentsLoaded{Err: errNoDocumentService}
		}
		page, err := svc.List(context.Background(), domain.DocumentQuery{
			Page: 1,
			Size: domain.MaxPageSize,
		})
		if err != nil {
			return messages.DocumentsLoaded{Err: err}
		}
		return messages.DocumentsLoaded{Documents: page.Items, Total: page.Total}
	}
}

// Update handles messages for the documents view.
func (v *View) Update(msg tea.Msg) (*View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)

	case messages.DocumentsLoaded:
		v.loading = false
		v.err = msg.Err
		if msg.Err == nil {
			v.documents = msg.Documents
			v.total = msg.Total
			v.selected = 0
			v.scrollOffset = 0
		}
		return v, nil
	}

	return v, nil
}

// handleKeyMsg handles key presses in the list.
func (v *View) handleKeyMsg(msg tea.KeyMsg) (*View, tea.Cmd) {
	switch key := msg.String(); {
	case keymap.Matches(key, v.keymap.Up):
		if v.selected > 0 {
			v.selected--
			v.adjustScroll()
		}
	case keymap.Matches(key, v.keymap.Down):
		if v.selected < len(v.documents)-1 {
			v.selected++
			v.adjustScroll()
		}
	case keymap.Matches(key, v.keymap.Select):
		if len(v.documents) == 0 {
			return v, nil
		}
		doc := v.documents[v.selected]
		return v, scope(&doc)
	case keymap.Matches(key, v.keymap.Unscope):
		return v, scope(nil)
	case keymap.Matches(key, v.keymap.Cancel):
		return v, func() tea.Msg {
			return messages.ViewChanged{View: messages.ViewChat}
		}
	}
	return v, nil
}

func scope(doc *domain.Document) tea.Cmd {
	return func() tea.Msg {
		return messages.ScopeChanged{Document: doc}
	}
}

// Selected returns the highlighted document, or nil when the list is empty.
func (v *View) Selected() *domain.Document {
	if v.selected >= len(v.documents) {
		return nil
	}
	return &v.documents[v.selected]
}

// SetDimensions sets the view dimensions.
func (v *View) SetDimensions(width, height int) {
	v.width = width
	v.height = height
}

// adjustScroll keeps the selected item visible.
func (v *View) adjustScroll() {
	visible := v.visibleItemCount()
	if v.selected < v.scrollOffset {
		v.scrollOffset = v.selected
	} else if v.selected >= v.scrollOffset+visible {
		v.scrollOffset = v.selected - visible + 1
	}
}

func (v *View) visibleItemCount() int {
	// Title, blank line, scroll indicator and status bar
	return max(v.height-6, 1)
}

// View renders the documents view.
func (v *View) View() string {
	var b strings.Builder

	b.WriteString(v.styles.Title.Render(fmt.Sprintf("Documents (%d)", v.total)))
	b.WriteString("\n\n")

	switch {
	case v.loading:
		b.WriteString(v.styles.Muted.Render("Loading documents..."))
		return b.String()
	case v.err != nil:
		b.WriteString(v.styles.Error.Render(fmt.Sprintf("Error: %s", v.err.Error())))
		return b.String()
	case len(v.documents) == 0:
		b.WriteString(v.styles.Muted.Render("No documents uploaded yet."))
		return b.String()
	}

	visible := v.visibleItemCount()
	end := min(v.scrollOffset+visible, len(v.documents))
	for i := v.scrollOffset; i < end; i++ {
		b.WriteString(v.renderDocument(i, &v.documents[i]))
		b.WriteString("\n")
	}

	if len(v.documents) > visible {
		b.WriteString(v.styles.Muted.Render(fmt.Sprintf("  [%d-%d of %d]",
			v.scrollOffset+1, end, len(v.documents))))
	}

	return b.String()
}

// renderDocument renders a single document line.
func (v *View) renderDocument(index int, doc *domain.Document) string {
	indicator := "  "
	style := v.styles.Normal
	if index == v.selected {
		indicator = "> "
		style = v.styles.Selected
	}

	name := doc.Filename
	maxLen := max(v.width/2, 16)
	if len(name) > maxLen {
		name = name[:maxLen-3] + "..."
	}

	meta := fmt.Sprintf("%d chunks, %s", doc.ChunkCount, doc.UploadedAt.Format("2006-01-02"))
	return indicator + style.Render(name) + "  " + v.styles.Muted.Render(meta)
}
