package views

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	"image/png"
	"strings"
	"sync"
	"testing"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/justyntemme/linga-t/internal/comic"
	"github.com/justyntemme/linga-t/internal/config"
	"github.com/justyntemme/linga-t/internal/ui/terminal"
	"github.com/justyntemme/linga-t/pkg/models"
)

type fakeSource struct {
	books []models.BookSummary
	descs map[string]models.BookDescriptor
	img   []byte
}

func (f *fakeSource) ListBooks(context.Context) ([]models.BookSummary, error) {
	return f.books, nil
}

func (f *fakeSource) GetBook(_ context.Context, id string) (models.BookDescriptor, error) {
	d, ok := f.descs[id]
	if !ok {
		return models.BookDescriptor{}, errors.New("no such book")
	}
	return d, nil
}

func (f *fakeSource) PageImage(context.Context, string, comic.Page) ([]byte, error) {
	return f.img, nil
}

type recordingSyncer struct {
	mu    sync.Mutex
	calls []comic.Progress
}

func (r *recordingSyncer) SyncProgress(_ context.Context, p comic.Progress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, p)
	return nil
}

func newSource(t *testing.T, pages int, rtl bool) *fakeSource {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 4, 6))); err != nil {
		t.Fatal(err)
	}
	desc := models.BookDescriptor{ID: "saga", RelPath: "saga.cbz", Name: "Saga", RightToLeft: rtl}
	for i := 1; i <= pages; i++ {
		desc.Pages = append(desc.Pages, models.PageDescriptor{
			URL:  fmt.Sprintf("/api/books/saga/pages/%d", i),
			Name: fmt.Sprintf("%03d.png", i),
		})
	}
	return &fakeSource{
		books: []models.BookSummary{
			{ID: "saga", RelPath: "saga.cbz", Name: "Saga", PageCount: pages},
			{ID: "akira", RelPath: "manga/akira.cbz", Name: "Akira", PageCount: 3, LastPage: 2},
			{ID: "maus", RelPath: "maus.cbz", Name: "Maus", PageCount: 5, Finished: true},
		},
		descs: map[string]models.BookDescriptor{"saga": desc},
		img:   buf.Bytes(),
	}
}

func keyMsg(s string) tea.KeyMsg {
	if s == " " {
		return tea.KeyMsg{Type: tea.KeySpace, Runes: []rune{' '}}
	}
	return tea.KeyMsg{Type: tea.KeyRunes, Runes: []rune(s)}
}

// openComic runs the book load synchronously and returns the ready view
func openComic(t *testing.T, src *fakeSource, defaults config.ReaderConfig, opts ...comic.Option) *ComicView {
	t.Helper()
	v := NewComicView(src, defaults, terminal.TermModeNone, nil, opts...)
	v.SetBook(src.books[0])
	cmd := v.Init()
	if cmd == nil {
		t.Fatal("Init returned no command")
	}
	v.Update(cmd())
	if v.Session() == nil {
		t.Fatalf("session not opened: %v", v.err)
	}
	return v
}

func TestComicViewTurnsPages(t *testing.T) {
	syncer := &recordingSyncer{}
	v := openComic(t, newSource(t, 5, false), config.ReaderConfig{},
		comic.WithSyncer(syncer),
		comic.WithDispatcher(func(f func()) { f() }),
	)

	steps := []struct {
		key  string
		want int
	}{
		{"l", 2},
		{" ", 3},
		{"G", 5},
		{"l", 5},
		{"h", 4},
		{"p", 3},
		{"g", 1},
	}
	for _, s := range steps {
		v.Update(keyMsg(s.key))
		if got := v.Session().Position(); got != s.want {
			t.Fatalf("after %q position = %d, want %d", s.key, got, s.want)
		}
	}

	// holding on the last page still syncs
	if got := len(syncer.calls); got != len(steps) {
		t.Errorf("sync calls = %d, want %d", got, len(steps))
	}
}

func TestComicViewRightToLeft(t *testing.T) {
	v := openComic(t, newSource(t, 5, true), config.ReaderConfig{})
	v.Update(keyMsg("h"))
	if got := v.Session().Position(); got != 2 {
		t.Fatalf("h in rtl position = %d, want 2", got)
	}
	v.Update(keyMsg("l"))
	if got := v.Session().Position(); got != 1 {
		t.Fatalf("l in rtl position = %d, want 1", got)
	}
	if out := v.renderFooter(); !strings.Contains(out, "Next") || strings.Index(out, "Next") > strings.Index(out, "Prev") {
		t.Errorf("rtl footer should label left as Next: %q", out)
	}
}

func TestComicViewModeKeys(t *testing.T) {
	v := openComic(t, newSource(t, 6, false), config.ReaderConfig{})

	v.Update(keyMsg("d"))
	if v.Session().Spread() != comic.DualPage {
		t.Fatal("d should enable dual page")
	}
	v.Update(keyMsg("l"))
	if got := v.Session().Position(); got != 3 {
		t.Fatalf("dual step right = %d, want 3", got)
	}
	v.Update(keyMsg("r"))
	if v.Session().Direction() != comic.RightToLeft {
		t.Fatal("r should switch to right to left")
	}
	v.Update(keyMsg("f"))
	if v.Session().FitMode() != comic.FitHeight {
		t.Fatalf("f from full = %v, want height", v.Session().FitMode())
	}
}

func TestComicViewZoomPans(t *testing.T) {
	v := openComic(t, newSource(t, 5, false), config.ReaderConfig{})

	v.Update(keyMsg("+"))
	if !v.isZoomed() {
		t.Fatal("+ should zoom in")
	}
	v.Update(keyMsg("l"))
	if got := v.Session().Position(); got != 1 {
		t.Fatalf("l while zoomed turned the page to %d", got)
	}
	if v.panX <= 0.5 {
		t.Errorf("l while zoomed should pan right, panX = %v", v.panX)
	}
	v.Update(keyMsg("0"))
	if v.isZoomed() || v.panX != 0.5 {
		t.Error("0 should reset zoom and pan")
	}
}

func TestComicViewDefaultsOnlyForNewBooks(t *testing.T) {
	defaults := config.ReaderConfig{FitMode: models.FitModeWidth, RightToLeft: true, DualPage: true}

	v := openComic(t, newSource(t, 5, false), defaults)
	s := v.Session()
	if s.FitMode() != comic.FitWidth || s.Direction() != comic.RightToLeft || s.Spread() != comic.DualPage {
		t.Errorf("new book modes = %v %v %v, want configured defaults", s.FitMode(), s.Direction(), s.Spread())
	}

	src := newSource(t, 5, false)
	desc := src.descs["saga"]
	desc.LastPage = 3
	src.descs["saga"] = desc
	v = openComic(t, src, defaults)
	s = v.Session()
	if s.Position() != 3 || s.FitMode() != comic.FitFull || s.Direction() != comic.LeftToRight {
		t.Errorf("resumed book = page %d %v %v, want stored modes", s.Position(), s.FitMode(), s.Direction())
	}
}

func TestComicViewLoadsVisiblePages(t *testing.T) {
	v := openComic(t, newSource(t, 5, false), config.ReaderConfig{})

	// position 1 plus the page to the right
	if len(v.pending) != 2 || !v.pending[1] || !v.pending[2] {
		t.Fatalf("pending = %v, want pages 1 and 2", v.pending)
	}

	page, _ := v.Session().CurrentPage()
	v.Update(v.loadPage(page)())
	if _, ok := v.pages[1]; !ok {
		t.Fatal("page 1 not decoded")
	}
	if v.pending[1] {
		t.Error("page 1 still pending")
	}
	if out := v.View(); !strings.Contains(out, "001.png") {
		t.Errorf("view without graphics should name the page: %q", out)
	}
}

func TestComicViewIgnoresStaleMessages(t *testing.T) {
	v := openComic(t, newSource(t, 5, false), config.ReaderConfig{})
	v.Update(comicPageLoadedMsg{id: "other", position: 1, img: image.NewRGBA(image.Rect(0, 0, 1, 1))})
	if len(v.pages) != 0 {
		t.Error("page from another book was cached")
	}
}

func TestComicViewBookError(t *testing.T) {
	v := NewComicView(newSource(t, 1, false), config.ReaderConfig{}, terminal.TermModeNone, nil)
	v.SetBook(models.BookSummary{ID: "missing", Name: "Missing"})
	v.Update(v.Init()())
	if v.Session() != nil || v.err == nil {
		t.Fatal("missing book should surface an error")
	}
	if out := v.View(); !strings.Contains(out, "no such book") {
		t.Errorf("view should show the error: %q", out)
	}
}

func TestLibraryViewFilters(t *testing.T) {
	src := newSource(t, 5, false)
	cfg := &config.Config{}
	v := NewLibraryView(src, cfg)
	v.Update(v.Init()())

	if got := len(v.Books()); got != 3 {
		t.Fatalf("loaded %d books, want 3", got)
	}

	v.Update(keyMsg("/"))
	for _, r := range "manga" {
		v.Update(keyMsg(string(r)))
	}
	if got := v.Books(); len(got) != 1 || got[0].ID != "akira" {
		t.Fatalf("filter by path = %+v", got)
	}
	v.Update(tea.KeyMsg{Type: tea.KeyEsc})
	if got := len(v.Books()); got != 3 {
		t.Fatalf("esc should clear the filter, got %d books", got)
	}

	cfg.RecentlyRead = []config.RecentlyReadEntry{{BookID: "maus"}, {BookID: "saga"}}
	v.Update(keyMsg("R"))
	if got := v.Books(); len(got) != 2 || got[0].ID != "maus" || got[1].ID != "saga" {
		t.Fatalf("recently read = %+v, want maus then saga", got)
	}
}

func TestLibraryViewOpensSelection(t *testing.T) {
	v := NewLibraryView(newSource(t, 5, false), nil)
	v.Update(v.Init()())

	v.Update(keyMsg("j"))
	_, cmd := v.Update(tea.KeyMsg{Type: tea.KeyEnter})
	if cmd == nil {
		t.Fatal("enter returned no command")
	}
	msg, ok := cmd().(OpenBookMsg)
	if !ok || msg.Book.ID != "akira" {
		t.Fatalf("enter = %#v, want OpenBookMsg for akira", msg)
	}
}

func TestChannelNotifierDropsWhenFull(t *testing.T) {
	n := NewChannelNotifier(1)
	n.Notify(comic.Notice{Message: "first"})
	n.Notify(comic.Notice{Message: "second"})

	msg := n.Wait()().(NoticeMsg)
	if msg.Notice.Message != "first" {
		t.Errorf("got %q, want first", msg.Notice.Message)
	}
	if DismissAfter(0, 1) != nil {
		t.Error("zero duration should not schedule a dismissal")
	}
}
