package styles

import "github.com/charmbracelet/lipgloss"

// Theme represents a color scheme for the application
type Theme struct {
	Name        string
	Description string

	// Core colors
	Primary    lipgloss.Color
	Secondary  lipgloss.Color
	Background lipgloss.Color
	Foreground lipgloss.Color

	// Semantic colors
	Success lipgloss.Color
	Warning lipgloss.Color
	Error   lipgloss.Color
	Muted   lipgloss.Color

	// UI element colors
	Border        lipgloss.Color
	Selection     lipgloss.Color
	SelectionText lipgloss.Color
	BadgeText     lipgloss.Color
}

// Built-in themes
var (
	// DarkTheme is the default dark theme
	DarkTheme = Theme{
		Name:          "dark",
		Description:   "Dark theme (default)",
		Primary:       lipgloss.Color("#7C3AED"),
		Secondary:     lipgloss.Color("#06B6D4"),
		Background:    lipgloss.Color("#1F2937"),
		Foreground:    lipgloss.Color("#F9FAFB"),
		Success:       lipgloss.Color("#10B981"),
		Warning:       lipgloss.Color("#F59E0B"),
		Error:         lipgloss.Color("#EF4444"),
		Muted:         lipgloss.Color("#6B7280"),
		Border:        lipgloss.Color("#374151"),
		Selection:     lipgloss.Color("#7C3AED"),
		SelectionText: lipgloss.Color("#F9FAFB"),
		BadgeText:     lipgloss.Color("#1F2937"),
	}

	// LightTheme is a light color scheme
	LightTheme = Theme{
		Name:          "light",
		Description:   "Light theme",
		Primary:       lipgloss.Color("#7C3AED"),
		Secondary:     lipgloss.Color("#0891B2"),
		Background:    lipgloss.Color("#FFFFFF"),
		Foreground:    lipgloss.Color("#1F2937"),
		Success:       lipgloss.Color("#059669"),
		Warning:       lipgloss.Color("#D97706"),
		Error:         lipgloss.Color("#DC2626"),
		Muted:         lipgloss.Color("#6B7280"),
		Border:        lipgloss.Color("#D1D5DB"),
		Selection:     lipgloss.Color("#EDE9FE"),
		SelectionText: lipgloss.Color("#5B21B6"),
		BadgeText:     lipgloss.Color("#FFFFFF"),
	}

	// InkTheme is a low contrast sepia scheme for long reading sessions
	InkTheme = Theme{
		Name:          "ink",
		Description:   "Sepia paper and ink",
		Primary:       lipgloss.Color("#8B5E34"),
		Secondary:     lipgloss.Color("#A47148"),
		Background:    lipgloss.Color("#F4ECD8"),
		Foreground:    lipgloss.Color("#3B2F2F"),
		Success:       lipgloss.Color("#6B8E23"),
		Warning:       lipgloss.Color("#CD853F"),
		Error:         lipgloss.Color("#A52A2A"),
		Muted:         lipgloss.Color("#8C7B6B"),
		Border:        lipgloss.Color("#D2C1A5"),
		Selection:     lipgloss.Color("#8B5E34"),
		SelectionText: lipgloss.Color("#F4ECD8"),
		BadgeText:     lipgloss.Color("#F4ECD8"),
	}

	// BuiltinThemes contains all available themes
	BuiltinThemes = []Theme{DarkTheme, LightTheme, InkTheme}

	currentTheme = DarkTheme
)

// GetTheme returns a theme by name, or the default theme if not found
func GetTheme(name string) Theme {
	for _, t := range BuiltinThemes {
		if t.Name == name {
			return t
		}
	}
	return DarkTheme
}

// CurrentTheme returns the currently active theme
func CurrentTheme() Theme {
	return currentTheme
}

// SetCurrentTheme sets the active theme by name
func SetCurrentTheme(name string) {
	currentTheme = GetTheme(name)
	ApplyTheme(currentTheme)
}

// NextTheme cycles to the next theme and returns its name
func NextTheme() string {
	for i, t := range BuiltinThemes {
		if t.Name == currentTheme.Name {
			next := BuiltinThemes[(i+1)%len(BuiltinThemes)]
			SetCurrentTheme(next.Name)
			return next.Name
		}
	}
	return currentTheme.Name
}

// ApplyTheme updates all global styles to use the given theme's colors
func ApplyTheme(theme Theme) {
	Primary = theme.Primary
	Secondary = theme.Secondary
	Success = theme.Success
	Warning = theme.Warning
	Error = theme.Error
	Muted = theme.Muted
	Background = theme.Background
	Foreground = theme.Foreground
	Border = theme.Border

	TitleBar = lipgloss.NewStyle().
		Foreground(theme.Foreground).
		Background(theme.Primary).
		Padding(0, 1).
		Bold(true)

	FooterBar = lipgloss.NewStyle().
		Foreground(theme.Muted).
		BorderStyle(lipgloss.NormalBorder()).
		BorderTop(true).
		BorderForeground(theme.Border).
		Padding(0, 1)

	Help = lipgloss.NewStyle().Foreground(theme.Muted)
	HelpKey = lipgloss.NewStyle().Foreground(theme.Secondary).Bold(true)
	MutedText = lipgloss.NewStyle().Foreground(theme.Muted)
	SecondaryText = lipgloss.NewStyle().Foreground(theme.Secondary)

	notice := lipgloss.NewStyle().Bold(true).Padding(0, 1)
	InfoStyle = notice.Foreground(theme.Secondary)
	SuccessStyle = notice.Foreground(theme.Success)
	WarningStyle = notice.Foreground(theme.Warning)
	ErrorStyle = notice.Foreground(theme.Error)

	InputFieldFocused = lipgloss.NewStyle().
		Foreground(theme.Foreground).
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Primary).
		Padding(0, 1)

	ListItem = lipgloss.NewStyle().
		Foreground(theme.Foreground).
		Padding(0, 2)

	ListItemSelected = lipgloss.NewStyle().
		Foreground(theme.SelectionText).
		Background(theme.Selection).
		Padding(0, 2).
		Bold(true)

	ListItemDimmed = lipgloss.NewStyle().
		Foreground(theme.Muted).
		Padding(0, 2)

	Dialog = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(theme.Primary).
		Padding(1, 2)

	DialogTitle = lipgloss.NewStyle().
		Foreground(theme.Primary).
		Bold(true).
		MarginBottom(1)

	BookTitle = lipgloss.NewStyle().
		Foreground(theme.Foreground).
		Bold(true)

	badge := lipgloss.NewStyle().Foreground(theme.BadgeText).Padding(0, 1).Bold(true)
	BadgeFinished = badge.Background(theme.Success)
	BadgeReading = badge.Background(theme.Warning)
}

// init applies the default theme on package load
func init() {
	ApplyTheme(DarkTheme)
}
