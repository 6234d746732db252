// Package styles holds the lipgloss palette used by the chat TUI.
package styles

import (
	"github.com/charmbracelet/lipgloss"
)

// Theme is the colour palette.
type Theme struct {
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Background lipgloss.Color
	Foreground lipgloss.Color
	Muted      lipgloss.Color
	Error      lipgloss.Color
	Border     lipgloss.Color
}

// DefaultTheme returns the dark palette.
func DefaultTheme() *Theme {
	return &Theme{
		Primary:    lipgloss.Color("#7C3AED"),
		Secondary:  lipgloss.Color("#06B6D4"),
		Background: lipgloss.Color("#1E1E2E"),
		Foreground: lipgloss.Color("#CDD6F4"),
		Muted:      lipgloss.Color("#6C7086"),
		Error:      lipgloss.Color("#F38BA8"),
		Border:     lipgloss.Color("#45475A"),
	}
}

// Styles are the rendered styles shared by the chat and document views.
type Styles struct {
	theme *Theme

	// Chrome.
	Title      lipgloss.Style
	Subtitle   lipgloss.Style
	InputField lipgloss.Style
	StatusBar  lipgloss.Style
	Badge      lipgloss.Style

	// Transcript and picker rows.
	Question lipgloss.Style
	Answer   lipgloss.Style
	Normal   lipgloss.Style
	Muted    lipgloss.Style
	Selected lipgloss.Style
	Error    lipgloss.Style
}

// NewStyles builds styles from a theme; nil uses DefaultTheme.
func NewStyles(theme *Theme) *Styles {
	if theme == nil {
		theme = DefaultTheme()
	}

	base := lipgloss.NewStyle()
	return &Styles{
		theme: theme,

		Title:    base.Bold(true).Foreground(theme.Primary),
		Subtitle: base.Bold(true).Foreground(theme.Secondary),
		InputField: base.
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(theme.Border).
			Padding(0, 1),
		StatusBar: base.Foreground(theme.Muted).Padding(0, 1),
		Badge: base.
			Bold(true).
			Foreground(theme.Background).
			Background(theme.Primary).
			Padding(0, 1),

		Question: base.Bold(true).Foreground(theme.Secondary),
		Answer:   base.Foreground(theme.Foreground),
		Normal:   base.Foreground(theme.Foreground),
		Muted:    base.Foreground(theme.Muted),
		Selected: base.Bold(true).Foreground(theme.Foreground).Background(theme.Primary),
		Error:    base.Foreground(theme.Error),
	}
}

// DefaultStyles returns NewStyles(DefaultTheme()).
func DefaultStyles() *Styles {
	return NewStyles(DefaultTheme())
}

// Theme returns the palette the styles were built from.
func (s *Styles) Theme() *Theme {
	return s.theme
}
