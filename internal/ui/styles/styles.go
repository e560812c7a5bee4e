// Package styles holds the lipgloss styles shared by the reader views.
// All styles are rebuilt from the active Theme by ApplyTheme.
package styles

import "github.com/charmbracelet/lipgloss"

var (
	// Colors
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Success    lipgloss.Color
	Warning    lipgloss.Color
	Error      lipgloss.Color
	Muted      lipgloss.Color
	Background lipgloss.Color
	Foreground lipgloss.Color
	Border     lipgloss.Color

	// Bars
	TitleBar  lipgloss.Style
	FooterBar lipgloss.Style

	// Help text
	Help    lipgloss.Style
	HelpKey lipgloss.Style

	MutedText     lipgloss.Style
	SecondaryText lipgloss.Style

	// Notices, one per severity
	InfoStyle    lipgloss.Style
	SuccessStyle lipgloss.Style
	WarningStyle lipgloss.Style
	ErrorStyle   lipgloss.Style

	InputFieldFocused lipgloss.Style

	// List styles
	ListItem         lipgloss.Style
	ListItemSelected lipgloss.Style
	ListItemDimmed   lipgloss.Style

	// Dialog/Modal styles
	Dialog      lipgloss.Style
	DialogTitle lipgloss.Style

	BookTitle lipgloss.Style

	// Reading state badges in the library list
	BadgeFinished lipgloss.Style
	BadgeReading  lipgloss.Style
)

// TruncateText shortens s to at most width cells, ending with an ellipsis
func TruncateText(s string, width int) string {
	if width <= 0 {
		return ""
	}
	if lipgloss.Width(s) <= width {
		return s
	}
	runes := []rune(s)
	for len(runes) > 0 && lipgloss.Width(string(runes))+1 > width {
		runes = runes[:len(runes)-1]
	}
	return string(runes) + "…"
}
