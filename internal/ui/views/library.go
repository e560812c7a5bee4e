package views

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/justyntemme/linga-t/internal/config"
	"github.com/justyntemme/linga-t/internal/ui/styles"
	"github.com/justyntemme/linga-t/pkg/models"
)

// LibraryView lists the books a source provides
type LibraryView struct {
	source Source
	config *config.Config
	keys   LibraryKeyMap

	// Books
	all    []models.BookSummary
	books  []models.BookSummary // all after filters
	cursor int
	offset int // For scrolling

	// State
	loading          bool
	err              error
	searchMode       bool
	searchInput      textinput.Model
	recentlyReadMode bool

	// Dimensions
	width  int
	height int
}

// NewLibraryView creates a new library view
func NewLibraryView(source Source, cfg *config.Config) *LibraryView {
	searchInput := textinput.New()
	searchInput.Placeholder = "Filter books..."
	searchInput.CharLimit = 100
	searchInput.Width = 40

	return &LibraryView{
		source:      source,
		config:      cfg,
		keys:        DefaultLibraryKeyMap(),
		searchInput: searchInput,
		width:       80,
		height:      24,
	}
}

// booksLoadedMsg is sent when books are loaded
type booksLoadedMsg struct {
	books []models.BookSummary
	err   error
}

// Init implements View
func (v *LibraryView) Init() tea.Cmd {
	v.loading = true
	return v.loadBooks()
}

// Books returns the books currently listed
func (v *LibraryView) Books() []models.BookSummary { return v.books }

// Filtering reports whether the filter input has focus
func (v *LibraryView) Filtering() bool { return v.searchMode }

// Update implements View
func (v *LibraryView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case booksLoadedMsg:
		v.loading = false
		v.err = msg.err
		if msg.err == nil {
			v.all = msg.books
			v.applyFilters()
		}
		return v, nil

	case tea.KeyMsg:
		if v.searchMode {
			return v.handleSearchKey(msg)
		}
		return v.handleKey(msg)
	}
	return v, nil
}

func (v *LibraryView) handleSearchKey(msg tea.KeyMsg) (View, tea.Cmd) {
	switch msg.String() {
	case "esc":
		v.searchMode = false
		v.searchInput.Blur()
		v.searchInput.SetValue("")
		v.applyFilters()
		return v, nil
	case "enter":
		v.searchMode = false
		v.searchInput.Blur()
		return v, nil
	}
	var cmd tea.Cmd
	v.searchInput, cmd = v.searchInput.Update(msg)
	v.applyFilters()
	return v, cmd
}

func (v *LibraryView) handleKey(msg tea.KeyMsg) (View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Down):
		v.moveCursor(1)
	case key.Matches(msg, v.keys.Up):
		v.moveCursor(-1)
	case key.Matches(msg, v.keys.Home):
		v.cursor = 0
		v.offset = 0
	case key.Matches(msg, v.keys.End):
		v.cursor = max(len(v.books)-1, 0)
		v.updateOffset()
	case key.Matches(msg, v.keys.PageDown):
		v.moveCursor(v.visibleLines() / 2)
	case key.Matches(msg, v.keys.PageUp):
		v.moveCursor(-v.visibleLines() / 2)
	case key.Matches(msg, v.keys.Search):
		v.searchMode = true
		v.searchInput.Focus()
		return v, textinput.Blink
	case key.Matches(msg, v.keys.Open):
		if v.cursor < len(v.books) {
			book := v.books[v.cursor]
			return v, func() tea.Msg {
				return OpenBookMsg{Book: book}
			}
		}
	case key.Matches(msg, v.keys.Refresh):
		v.loading = true
		return v, v.loadBooks()
	case key.Matches(msg, v.keys.Recent):
		v.recentlyReadMode = !v.recentlyReadMode
		v.applyFilters()
	case key.Matches(msg, v.keys.Theme):
		styles.NextTheme()
	}
	return v, nil
}

// applyFilters rebuilds the visible list from the loaded books
func (v *LibraryView) applyFilters() {
	books := v.all
	if v.recentlyReadMode && v.config != nil {
		byID := make(map[string]models.BookSummary, len(books))
		for _, b := range books {
			byID[b.ID] = b
		}
		recent := make([]models.BookSummary, 0)
		for _, id := range v.config.GetRecentlyReadIDs() {
			if b, ok := byID[id]; ok {
				recent = append(recent, b)
			}
		}
		books = recent
	}

	if q := strings.ToLower(strings.TrimSpace(v.searchInput.Value())); q != "" {
		matched := make([]models.BookSummary, 0)
		for _, b := range books {
			if strings.Contains(strings.ToLower(b.Name), q) || strings.Contains(strings.ToLower(b.RelPath), q) {
				matched = append(matched, b)
			}
		}
		books = matched
	}

	v.books = books
	v.cursor = min(v.cursor, max(len(books)-1, 0))
	v.updateOffset()
}

// View implements View
func (v *LibraryView) View() string {
	var b strings.Builder

	b.WriteString(v.renderHeader() + "\n")

	if v.searchMode {
		b.WriteString(styles.InputFieldFocused.Render(v.searchInput.View()) + "\n")
	}

	place := func(s string) string {
		return lipgloss.Place(v.width, max(v.height-4, 1), lipgloss.Center, lipgloss.Center, s)
	}

	switch {
	case v.loading:
		b.WriteString(place(styles.MutedText.Render("Loading books...")))
		return b.String()
	case v.err != nil:
		b.WriteString(place(styles.ErrorStyle.Render("Error: " + v.err.Error())))
		return b.String()
	case len(v.books) == 0:
		b.WriteString(place(styles.MutedText.Render("No books found")))
		return b.String()
	}

	for i := v.offset; i < min(v.offset+v.visibleLines(), len(v.books)); i++ {
		b.WriteString(v.renderBookLine(v.books[i], i == v.cursor) + "\n")
	}

	b.WriteString("\n")
	b.WriteString(v.renderFooter())

	return b.String()
}

// SetSize implements View
func (v *LibraryView) SetSize(width, height int) {
	v.width = width
	v.height = height
	v.searchInput.Width = max(min(40, width-10), 10)
	v.updateOffset()
}

// renderHeader renders the header bar
func (v *LibraryView) renderHeader() string {
	titleText := " Library "
	if v.recentlyReadMode {
		titleText = " Recently Read "
	}
	left := styles.TitleBar.Render(titleText)

	if q := v.searchInput.Value(); q != "" {
		left += styles.SecondaryText.Render(fmt.Sprintf(" [Filter: %s]", q))
	}

	right := styles.Help.Render(fmt.Sprintf(" %d books ", len(v.books)))
	if len(v.books) != len(v.all) {
		right = styles.Help.Render(fmt.Sprintf(" %d of %d books ", len(v.books), len(v.all)))
	}

	gap := max(v.width-lipgloss.Width(left)-lipgloss.Width(right), 0)
	return left + strings.Repeat(" ", gap) + right
}

// renderBookLine renders a single book line: badge, name and progress
func (v *LibraryView) renderBookLine(book models.BookSummary, selected bool) string {
	badge := "   "
	switch {
	case book.Finished:
		badge = styles.BadgeFinished.Render("✓") + " "
	case book.LastPage > 0:
		badge = styles.BadgeReading.Render("»") + " "
	}

	progress := fmt.Sprintf("%d pages", book.PageCount)
	if book.LastPage > 0 && !book.Finished {
		progress = fmt.Sprintf("%d/%d", book.LastPage, book.PageCount)
	}

	name := styles.TruncateText(book.Name, max(v.width-lipgloss.Width(progress)-12, 8))
	line := name + "  " + styles.MutedText.Render(progress)

	if selected {
		return styles.ListItemSelected.Width(v.width).Render("▸ " + badge + line)
	}
	return styles.ListItem.Render("  " + badge + line)
}

// renderFooter renders the footer help
func (v *LibraryView) renderFooter() string {
	help := []string{
		styles.HelpKey.Render("j/k") + styles.Help.Render(" nav"),
		styles.HelpKey.Render("enter") + styles.Help.Render(" read"),
		styles.HelpKey.Render("/") + styles.Help.Render(" filter"),
		styles.HelpKey.Render("R") + styles.Help.Render(" recent"),
		styles.HelpKey.Render("r") + styles.Help.Render(" refresh"),
		styles.HelpKey.Render("q") + styles.Help.Render(" quit"),
	}

	themeIndicator := styles.MutedText.Render(" [Theme: "+styles.CurrentTheme().Name+"] ") +
		styles.HelpKey.Render("t") + styles.Help.Render(" change")

	helpText := strings.Join(help, "  ")
	gap := max(v.width-lipgloss.Width(helpText)-lipgloss.Width(themeIndicator), 0)
	return helpText + strings.Repeat(" ", gap) + themeIndicator
}

// loadBooks fetches books from the source
func (v *LibraryView) loadBooks() tea.Cmd {
	return func() tea.Msg {
		books, err := v.source.ListBooks(context.Background())
		return booksLoadedMsg{books: books, err: err}
	}
}

// moveCursor moves the cursor by delta
func (v *LibraryView) moveCursor(delta int) {
	v.cursor = max(min(v.cursor+delta, len(v.books)-1), 0)
	v.updateOffset()
}

// updateOffset ensures the cursor is visible
func (v *LibraryView) updateOffset() {
	visibleLines := v.visibleLines()
	if v.cursor < v.offset {
		v.offset = v.cursor
	}
	if v.cursor >= v.offset+visibleLines {
		v.offset = v.cursor - visibleLines + 1
	}
}

// visibleLines returns the number of visible book lines
func (v *LibraryView) visibleLines() int {
	// Account for header, footer, and margins
	lines := v.height - 5
	if v.searchMode {
		lines -= 3
	}
	return max(lines, 1)
}
