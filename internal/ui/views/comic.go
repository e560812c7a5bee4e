package views

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/disintegration/imaging"
	"go.uber.org/zap"

	"github.com/justyntemme/linga-t/internal/comic"
	"github.com/justyntemme/linga-t/internal/config"
	"github.com/justyntemme/linga-t/internal/ui/styles"
	"github.com/justyntemme/linga-t/internal/ui/terminal"
	"github.com/justyntemme/linga-t/pkg/models"
)

// Zoom levels available
var zoomLevels = []float64{1.0, 1.5, 2.0, 3.0, 4.0}

// cacheRadius is how far from the current position decoded pages are kept
const cacheRadius = 4

// ComicView displays comic pages and drives a reading session
type ComicView struct {
	source   Source
	defaults config.ReaderConfig
	opts     []comic.Option
	keys     ComicKeyMap
	log      *zap.Logger

	// Book info
	book    models.BookSummary
	session *comic.Session

	// Current state
	loading bool
	err     error

	// Decoded pages by position
	pages    map[int]image.Image
	pending  map[int]bool
	failures map[int]error

	// Zoom and pan state
	zoomIndex int     // Index into zoomLevels
	panX      float64 // Pan position as fraction (0.0 = left, 1.0 = right)
	panY      float64 // Pan position as fraction (0.0 = top, 1.0 = bottom)

	// Terminal capabilities
	termMode terminal.TermImageMode

	// Dimensions
	width  int
	height int
}

// NewComicView creates a new comic viewer drawing with the given terminal
// graphics protocol. opts are applied to every reading session it opens.
func NewComicView(source Source, defaults config.ReaderConfig, mode terminal.TermImageMode, log *zap.Logger, opts ...comic.Option) *ComicView {
	if log == nil {
		log = zap.NewNop()
	}
	return &ComicView{
		source:   source,
		defaults: defaults,
		opts:     append(opts, comic.WithLogger(log)),
		keys:     DefaultComicKeyMap(),
		log:      log,
		width:    80,
		height:   24,
		termMode: mode,
	}
}

// SetBook sets the comic to display
func (v *ComicView) SetBook(book models.BookSummary) {
	v.book = book
	v.session = nil
	v.err = nil
	v.pages = make(map[int]image.Image)
	v.pending = make(map[int]bool)
	v.failures = make(map[int]error)
	v.resetZoomPan()
}

// Session returns the open reading session, nil while the book loads
func (v *ComicView) Session() *comic.Session { return v.session }

// resetZoomPan resets zoom and pan to default
func (v *ComicView) resetZoomPan() {
	v.zoomIndex = 0
	v.panX = 0.5
	v.panY = 0
}

// currentZoom returns the current zoom level
func (v *ComicView) currentZoom() float64 {
	if v.zoomIndex >= 0 && v.zoomIndex < len(zoomLevels) {
		return zoomLevels[v.zoomIndex]
	}
	return 1.0
}

// isZoomed returns true if currently zoomed in
func (v *ComicView) isZoomed() bool {
	return v.zoomIndex > 0
}

// comicBookLoadedMsg is sent when the book descriptor is retrieved
type comicBookLoadedMsg struct {
	id   string
	desc models.BookDescriptor
	err  error
}

// comicPageLoadedMsg is sent when a page image is loaded and decoded
type comicPageLoadedMsg struct {
	id       string
	position int
	img      image.Image
	err      error
}

// Init implements View
func (v *ComicView) Init() tea.Cmd {
	if v.session != nil {
		return v.loadVisible()
	}
	v.loading = true
	return v.loadBook()
}

// Update implements View
func (v *ComicView) Update(msg tea.Msg) (View, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return v.handleKeyMsg(msg)
	case comicBookLoadedMsg:
		return v.handleBookLoaded(msg)
	case comicPageLoadedMsg:
		return v.handlePageLoaded(msg)
	}
	return v, nil
}

// handleKeyMsg processes key presses
func (v *ComicView) handleKeyMsg(msg tea.KeyMsg) (View, tea.Cmd) {
	switch {
	case key.Matches(msg, v.keys.Back):
		return v, tea.Sequence(terminal.ClearCmd(v.termMode), SwitchTo(ViewLibrary))
	case key.Matches(msg, v.keys.ZoomIn):
		v.zoomIn()
		return v, nil
	case key.Matches(msg, v.keys.ZoomOut):
		v.zoomOut()
		return v, nil
	case key.Matches(msg, v.keys.ZoomReset):
		v.resetZoomPan()
		return v, nil
	}

	if v.session == nil {
		return v, nil
	}

	// When zoomed, h and l pan instead of turning pages
	if v.isZoomed() {
		switch {
		case key.Matches(msg, v.keys.PanLeft):
			v.panX = max(v.panX-panStep, 0)
			return v, nil
		case key.Matches(msg, v.keys.PanRight):
			v.panX = min(v.panX+panStep, 1)
			return v, nil
		}
	}
	switch {
	case key.Matches(msg, v.keys.PanUp):
		v.panY = max(v.panY-panStep, 0)
		return v, nil
	case key.Matches(msg, v.keys.PanDown):
		v.panY = min(v.panY+panStep, 1)
		return v, nil
	}

	s := v.session
	switch {
	case key.Matches(msg, v.keys.StepLeft):
		return v, v.moved(s.StepLeft())
	case key.Matches(msg, v.keys.StepRight):
		return v, v.moved(s.StepRight())
	case key.Matches(msg, v.keys.Advance):
		return v, v.moved(s.Advance())
	case key.Matches(msg, v.keys.Retreat):
		return v, v.moved(s.Retreat())
	case key.Matches(msg, v.keys.First):
		return v, v.moved(s.GoToPosition(1))
	case key.Matches(msg, v.keys.Last):
		return v, v.moved(s.GoToPosition(s.PageCount()))
	case key.Matches(msg, v.keys.Fit):
		s.SetFitMode(s.FitMode().Next())
		v.panY = 0
		return v, nil
	case key.Matches(msg, v.keys.Direction):
		if s.Direction() == comic.RightToLeft {
			s.SetDirection(comic.LeftToRight)
		} else {
			s.SetDirection(comic.RightToLeft)
		}
		return v, v.loadVisible()
	case key.Matches(msg, v.keys.Spread):
		if s.Spread() == comic.DualPage {
			s.SetSpread(comic.SinglePage)
		} else {
			s.SetSpread(comic.DualPage)
		}
		return v, v.loadVisible()
	}
	return v, nil
}

// moved resets the viewport after a page turn and loads what is now visible
func (v *ComicView) moved(ok bool) tea.Cmd {
	if !ok {
		return nil
	}
	v.resetZoomPan()
	v.prune()
	return v.loadVisible()
}

// Zoom methods
func (v *ComicView) zoomIn() {
	if v.zoomIndex < len(zoomLevels)-1 {
		v.zoomIndex++
	}
}

func (v *ComicView) zoomOut() {
	if v.zoomIndex > 0 {
		v.zoomIndex--
		if v.zoomIndex == 0 {
			v.panX = 0.5
		}
	}
}

// Pan moves in 10% increments
const panStep = 0.1

// Message handlers
func (v *ComicView) handleBookLoaded(msg comicBookLoadedMsg) (View, tea.Cmd) {
	if msg.id != v.book.ID {
		return v, nil
	}
	v.loading = false
	if msg.err != nil {
		v.err = msg.err
		return v, nil
	}

	desc := msg.desc
	if desc.LastPage < 1 {
		desc = v.applyDefaults(desc)
	}
	v.session = comic.NewSession(desc, v.opts...)
	v.log.Info("Opened book", zap.String("book", desc.RelPath), zap.Int("pages", v.session.PageCount()), zap.Int("position", v.session.Position()))
	return v, v.loadVisible()
}

// applyDefaults fills in the configured reading modes for a book that has
// never been opened
func (v *ComicView) applyDefaults(desc models.BookDescriptor) models.BookDescriptor {
	if desc.FitMode == "" || desc.FitMode == models.FitModeFull {
		if v.defaults.FitMode != "" {
			desc.FitMode = v.defaults.FitMode
		}
	}
	desc.RightToLeft = desc.RightToLeft || v.defaults.RightToLeft
	desc.DualPage = desc.DualPage || v.defaults.DualPage
	return desc
}

func (v *ComicView) handlePageLoaded(msg comicPageLoadedMsg) (View, tea.Cmd) {
	if msg.id != v.book.ID {
		return v, nil
	}
	delete(v.pending, msg.position)
	if msg.err != nil {
		v.log.Warn("Unable to load page", zap.String("book", msg.id), zap.Int("page", msg.position), zap.Error(msg.err))
		v.failures[msg.position] = msg.err
		return v, nil
	}
	delete(v.failures, msg.position)
	v.pages[msg.position] = msg.img
	return v, nil
}

// visiblePositions lists what the current spread shows followed by the
// pages one gesture away in either direction
func (v *ComicView) visiblePositions() []int {
	s := v.session
	var out []int
	if p, ok := s.CurrentPage(); ok {
		out = append(out, p.Position)
	}
	if p, ok := s.SecondaryPage(); ok {
		out = append(out, p.Position)
	}
	for _, next := range []func() (comic.Page, bool){s.NextPageLeft, s.NextPageRight} {
		if p, ok := next(); ok {
			out = append(out, p.Position)
		}
	}
	return out
}

// loadVisible fetches any visible or adjacent page not yet decoded
func (v *ComicView) loadVisible() tea.Cmd {
	if v.session == nil {
		return nil
	}
	var cmds []tea.Cmd
	for _, pos := range v.visiblePositions() {
		if _, ok := v.pages[pos]; ok || v.pending[pos] {
			continue
		}
		page, ok := v.session.Pages().At(pos)
		if !ok {
			continue
		}
		v.pending[pos] = true
		cmds = append(cmds, v.loadPage(page))
	}
	return tea.Batch(cmds...)
}

// prune drops decoded pages far from the current position
func (v *ComicView) prune() {
	cur := v.session.Position()
	for pos := range v.pages {
		if pos < cur-cacheRadius || pos > cur+cacheRadius {
			delete(v.pages, pos)
		}
	}
}

// View implements View
func (v *ComicView) View() string {
	var b strings.Builder

	b.WriteString(v.renderHeader() + "\n")

	contentHeight := v.contentHeight()
	place := func(s string) string {
		return lipgloss.Place(v.width, contentHeight, lipgloss.Center, lipgloss.Center, s)
	}

	switch {
	case v.loading:
		b.WriteString(place(styles.MutedText.Render("Loading comic...")))
	case v.err != nil:
		b.WriteString(place(styles.ErrorStyle.Render("Error: " + v.err.Error())))
	case v.session == nil:
		b.WriteString(place(styles.MutedText.Render("No book selected")))
	case v.session.PageCount() == 0:
		b.WriteString(place(styles.MutedText.Render("This book has no pages")))
	case v.termMode == terminal.TermModeNone:
		b.WriteString(place(styles.MutedText.Render(v.describeSpread() +
			"\n\nTerminal does not support images.\n\nSupported terminals: Kitty, iTerm2, or Sixel-capable terminals.")))
	default:
		b.WriteString(v.renderPages(place))
	}

	b.WriteString("\n")
	b.WriteString(v.renderFooter())

	return b.String()
}

func (v *ComicView) contentHeight() int {
	return max(v.height-4, 1) // Header + footer + margins
}

// describeSpread names the visible pages for terminals without graphics
func (v *ComicView) describeSpread() string {
	var names []string
	if p, ok := v.session.CurrentPage(); ok {
		names = append(names, p.Name)
	}
	if p, ok := v.session.SecondaryPage(); ok {
		names = append(names, p.Name)
	}
	if v.session.Direction() == comic.RightToLeft {
		for i, j := 0, len(names)-1; i < j; i, j = i+1, j-1 {
			names[i], names[j] = names[j], names[i]
		}
	}
	return styles.BookTitle.Render(strings.Join(names, "  |  "))
}

// renderPages renders the current spread to the terminal
func (v *ComicView) renderPages(place func(string) string) string {
	cur := v.session.Position()
	if err, failed := v.failures[cur]; failed {
		return place(styles.ErrorStyle.Render(fmt.Sprintf("Unable to load page %d: %v", cur, err)))
	}
	first, ok := v.pages[cur]
	if !ok {
		return place(styles.MutedText.Render(fmt.Sprintf("Loading page %d...", cur)))
	}

	img := first
	if second, ok := v.session.SecondaryPage(); ok {
		if later, loaded := v.pages[second.Position]; loaded {
			img = terminal.ComposeSpread(first, later, v.session.Direction())
		} else if v.pending[second.Position] {
			return place(styles.MutedText.Render(fmt.Sprintf("Loading page %d...", second.Position)))
		}
	}

	img = terminal.Fit(img, v.session.FitMode(), v.width*terminal.CellWidth, v.contentHeight()*terminal.CellHeight, v.panY)
	img = terminal.Viewport(img, v.currentZoom(), v.panX, v.panY)

	out, err := terminal.Render(img, v.termMode)
	if err != nil {
		return place(styles.ErrorStyle.Render("Render error: " + err.Error()))
	}
	return out
}

// renderHeader renders the header bar with proper truncation
func (v *ComicView) renderHeader() string {
	maxTitleWidth := 40
	if v.width > 0 && v.width/2 < maxTitleWidth {
		maxTitleWidth = v.width / 2
	}
	titlePart := styles.BookTitle.Render(styles.TruncateText(v.book.Name, maxTitleWidth))

	rightPart := ""
	if s := v.session; s != nil && s.PageCount() > 0 {
		pageStr := fmt.Sprintf("%d/%d", s.Position(), s.PageCount())
		if p, ok := s.SecondaryPage(); ok {
			pageStr = fmt.Sprintf("%d-%d/%d", s.Position(), p.Position, s.PageCount())
		}
		pageStr += fmt.Sprintf(" [%s %s %s]", s.FitMode(), s.Direction(), s.Spread())
		if v.isZoomed() {
			pageStr += fmt.Sprintf(" [%d%%]", int(v.currentZoom()*100))
		}
		rightPart = styles.MutedText.Render(pageStr)
	}

	gap := max(v.width-lipgloss.Width(titlePart)-lipgloss.Width(rightPart), 0)
	return titlePart + strings.Repeat(" ", gap) + rightPart
}

// renderFooter renders the footer help; the page turn labels follow the
// reading direction
func (v *ComicView) renderFooter() string {
	var help []string

	if v.isZoomed() {
		help = []string{
			styles.HelpKey.Render("hjkl") + styles.Help.Render(" pan"),
			styles.HelpKey.Render("+/-") + styles.Help.Render(fmt.Sprintf(" zoom (%d%%)", int(v.currentZoom()*100))),
			styles.HelpKey.Render("0") + styles.Help.Render(" reset"),
			styles.HelpKey.Render("n/p") + styles.Help.Render(" page"),
			styles.HelpKey.Render("q") + styles.Help.Render(" back"),
		}
	} else {
		left, right := "Prev", "Next"
		if v.session != nil {
			left, right = v.session.LeftLabel(), v.session.RightLabel()
		}
		help = []string{
			styles.HelpKey.Render("h") + styles.Help.Render(" "+left),
			styles.HelpKey.Render("l") + styles.Help.Render(" "+right),
			styles.HelpKey.Render("g/G") + styles.Help.Render(" first/last"),
			styles.HelpKey.Render("f") + styles.Help.Render(" fit"),
			styles.HelpKey.Render("r") + styles.Help.Render(" direction"),
			styles.HelpKey.Render("d") + styles.Help.Render(" spread"),
			styles.HelpKey.Render("+/-") + styles.Help.Render(" zoom"),
			styles.HelpKey.Render("q") + styles.Help.Render(" back"),
		}
	}

	return styles.FooterBar.Width(v.width).Render(strings.Join(help, "  "))
}

// SetSize implements View
func (v *ComicView) SetSize(width, height int) {
	v.width = width
	v.height = height
}

// loadBook fetches the book descriptor
func (v *ComicView) loadBook() tea.Cmd {
	id := v.book.ID
	return func() tea.Msg {
		desc, err := v.source.GetBook(context.Background(), id)
		return comicBookLoadedMsg{id: id, desc: desc, err: err}
	}
}

// loadPage fetches and decodes a page image off the UI loop
func (v *ComicView) loadPage(page comic.Page) tea.Cmd {
	id := v.book.ID
	return func() tea.Msg {
		data, err := v.source.PageImage(context.Background(), id, page)
		if err != nil {
			return comicPageLoadedMsg{id: id, position: page.Position, err: err}
		}
		img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
		if err != nil {
			return comicPageLoadedMsg{id: id, position: page.Position, err: fmt.Errorf("decode page: %w", err)}
		}
		return comicPageLoadedMsg{id: id, position: page.Position, img: img}
	}
}
