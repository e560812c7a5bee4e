package views

import (
	"context"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/justyntemme/linga-t/internal/comic"
	"github.com/justyntemme/linga-t/pkg/models"
)

// ViewType represents different screens in the application
type ViewType int

const (
	ViewLibrary ViewType = iota
	ViewComic
)

// String returns the name of the view
func (v ViewType) String() string {
	switch v {
	case ViewLibrary:
		return "Library"
	case ViewComic:
		return "Comic Viewer"
	default:
		return "Unknown"
	}
}

// View is the interface that all views must implement
type View interface {
	Init() tea.Cmd
	Update(msg tea.Msg) (View, tea.Cmd)
	View() string
	SetSize(width, height int)
}

// Source provides books and page images, either from a server or from a
// local directory
type Source interface {
	ListBooks(ctx context.Context) ([]models.BookSummary, error)
	GetBook(ctx context.Context, id string) (models.BookDescriptor, error)
	PageImage(ctx context.Context, bookID string, page comic.Page) ([]byte, error)
}

// Message types for inter-view communication

// OpenBookMsg is sent when a book is selected to read
type OpenBookMsg struct {
	Book models.BookSummary
}

// SwitchViewMsg requests a view switch
type SwitchViewMsg struct {
	View ViewType
}

// SwitchTo creates a command to switch views
func SwitchTo(view ViewType) tea.Cmd {
	return func() tea.Msg {
		return SwitchViewMsg{View: view}
	}
}
