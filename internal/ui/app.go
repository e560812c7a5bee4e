// Package ui is the terminal reader: a library list and a comic viewer
// composed into one bubbletea program.
package ui

import (
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"go.uber.org/zap"

	"github.com/justyntemme/linga-t/internal/comic"
	"github.com/justyntemme/linga-t/internal/config"
	"github.com/justyntemme/linga-t/internal/ui/styles"
	"github.com/justyntemme/linga-t/internal/ui/terminal"
	"github.com/justyntemme/linga-t/internal/ui/views"
	"github.com/justyntemme/linga-t/pkg/models"
)

// noticeBuffer is how many undelivered sync notices are kept
const noticeBuffer = 8

// App is the main application model
type App struct {
	config *config.Config
	log    *zap.Logger
	keys   KeyMap

	// Current view state
	currentView views.ViewType

	// Window dimensions
	width  int
	height int

	// View models
	libraryView *views.LibraryView
	comicView   *views.ComicView

	// Sync failure notices
	notifier  *views.ChannelNotifier
	notice    *comic.Notice
	noticeSeq int

	showHelp bool
}

type appOptions struct {
	log      *zap.Logger
	termMode terminal.TermImageMode
	session  []comic.Option
	book     *models.BookSummary
}

// Option configures the App
type Option func(*appOptions)

// WithLogger sets the application logger
func WithLogger(log *zap.Logger) Option {
	return func(o *appOptions) { o.log = log }
}

// WithTermMode sets the terminal graphics protocol instead of probing
func WithTermMode(mode terminal.TermImageMode) Option {
	return func(o *appOptions) { o.termMode = mode }
}

// WithSessionOptions adds options to every reading session
func WithSessionOptions(opts ...comic.Option) Option {
	return func(o *appOptions) { o.session = append(o.session, opts...) }
}

// WithBook starts in the comic viewer with the given book open
func WithBook(book models.BookSummary) Option {
	return func(o *appOptions) { o.book = &book }
}

// NewApp creates a new application instance reading from source
func NewApp(cfg *config.Config, source views.Source, opts ...Option) *App {
	o := appOptions{termMode: -1}
	for _, opt := range opts {
		opt(&o)
	}
	if o.log == nil {
		o.log = zap.NewNop()
	}
	if o.termMode < 0 {
		o.termMode = terminal.DetectTerminalMode()
	}
	o.log.Debug("Terminal graphics", zap.Stringer("mode", o.termMode))

	notifier := views.NewChannelNotifier(noticeBuffer)
	sessionOpts := append([]comic.Option{comic.WithNotifier(notifier)}, o.session...)

	app := &App{
		config:      cfg,
		log:         o.log,
		keys:        DefaultKeyMap(),
		currentView: views.ViewLibrary,
		width:       80,
		height:      24,
		libraryView: views.NewLibraryView(source, cfg),
		comicView:   views.NewComicView(source, cfg.Reader, o.termMode, o.log.Named("reader"), sessionOpts...),
		notifier:    notifier,
	}

	if o.book != nil {
		app.openBook(*o.book)
	}
	return app
}

// Init implements tea.Model
func (a *App) Init() tea.Cmd {
	return tea.Batch(
		a.getCurrentView().Init(),
		a.notifier.Wait(),
		tea.SetWindowTitle("linga-t"),
	)
}

// Update implements tea.Model
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.libraryView.SetSize(msg.Width, msg.Height)
		a.comicView.SetSize(msg.Width, msg.Height-a.noticeHeight())
		return a, nil

	case tea.KeyMsg:
		if cmd, handled := a.handleGlobalKey(msg); handled {
			return a, cmd
		}

	case views.NoticeMsg:
		a.noticeSeq++
		n := msg.Notice
		a.notice = &n
		a.comicView.SetSize(a.width, a.height-a.noticeHeight())
		return a, tea.Batch(a.notifier.Wait(), views.DismissAfter(n.AutoDismiss, a.noticeSeq))

	case views.DismissNoticeMsg:
		if msg.Seq == a.noticeSeq {
			a.notice = nil
			a.comicView.SetSize(a.width, a.height)
		}
		return a, nil

	case views.OpenBookMsg:
		a.openBook(msg.Book)
		return a, a.comicView.Init()

	case views.SwitchViewMsg:
		return a.switchView(msg.View)
	}

	// Delegate to current view
	var cmd tea.Cmd
	switch a.currentView {
	case views.ViewLibrary:
		_, cmd = a.libraryView.Update(msg)
	case views.ViewComic:
		_, cmd = a.comicView.Update(msg)
	}
	return a, cmd
}

// handleGlobalKey processes keys that apply in every view
func (a *App) handleGlobalKey(msg tea.KeyMsg) (tea.Cmd, bool) {
	if key.Matches(msg, a.keys.ForceQuit) {
		return tea.Quit, true
	}
	if a.currentView == views.ViewLibrary && a.libraryView.Filtering() {
		return nil, false
	}

	switch {
	case key.Matches(msg, a.keys.Help):
		a.showHelp = !a.showHelp
		return nil, true
	case a.showHelp && key.Matches(msg, a.keys.Escape, a.keys.Quit):
		a.showHelp = false
		return nil, true
	case a.currentView == views.ViewLibrary && key.Matches(msg, a.keys.Quit):
		return tea.Quit, true
	}
	return nil, false
}

// openBook records the book as recently read and hands it to the viewer
func (a *App) openBook(book models.BookSummary) {
	if err := a.config.AddRecentlyRead(book.ID, book.Name); err != nil {
		a.log.Warn("Unable to save recently read", zap.String("book", book.ID), zap.Error(err))
	}
	a.comicView.SetBook(book)
	a.currentView = views.ViewComic
}

// View implements tea.Model
func (a *App) View() string {
	if a.showHelp {
		return a.renderHelp()
	}

	content := a.getCurrentView().View()
	if a.notice != nil {
		content = lipgloss.JoinVertical(lipgloss.Left, a.renderNotice(), content)
	}
	return content
}

func (a *App) noticeHeight() int {
	if a.notice == nil {
		return 0
	}
	return 1
}

// renderNotice renders the alert bar for the current notice
func (a *App) renderNotice() string {
	style := styles.InfoStyle
	switch a.notice.Severity {
	case comic.SeveritySuccess:
		style = styles.SuccessStyle
	case comic.SeverityWarning:
		style = styles.WarningStyle
	case comic.SeverityDanger:
		style = styles.ErrorStyle
	}
	return style.Render(styles.TruncateText(a.notice.Message, max(a.width-2, 1)))
}

// switchView changes the current view and initializes it
func (a *App) switchView(view views.ViewType) (*App, tea.Cmd) {
	a.currentView = view
	return a, a.getCurrentView().Init()
}

// getCurrentView returns the current view model
func (a *App) getCurrentView() views.View {
	if a.currentView == views.ViewComic {
		return a.comicView
	}
	return a.libraryView
}

// renderHelp renders the help overlay
func (a *App) renderHelp() string {
	help := styles.Dialog.Width(60).Render(
		styles.DialogTitle.Render("Keyboard Shortcuts") + "\n\n" +
			styles.HelpKey.Render("Library") + "\n" +
			"  j/k     Move down/up\n" +
			"  g/G     Top/bottom\n" +
			"  Ctrl+d  Page down\n" +
			"  Ctrl+u  Page up\n" +
			"  /       Filter\n" +
			"  R       Recently read\n" +
			"  r       Refresh\n" +
			"  t       Change theme\n" +
			"  Enter   Open book\n\n" +
			styles.HelpKey.Render("Comic Viewer") + "\n" +
			"  h/l     Turn left/right\n" +
			"  space/n Next in reading order\n" +
			"  p       Previous in reading order\n" +
			"  g/G     First/last page\n" +
			"  f       Cycle fit mode\n" +
			"  r       Toggle right to left\n" +
			"  d       Toggle dual page\n" +
			"  j/k     Scroll\n" +
			"  +/-/0   Zoom in/out/reset\n\n" +
			styles.HelpKey.Render("General") + "\n" +
			"  q       Quit/Back\n" +
			"  Esc     Back\n" +
			"  ?       Toggle help\n",
	)

	return lipgloss.Place(a.width, a.height, lipgloss.Center, lipgloss.Center, help)
}
