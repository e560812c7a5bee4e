package store

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/justyntemme/linga-t/internal/comic"
	"github.com/justyntemme/linga-t/pkg/models"
)

func openTest(t *testing.T) *SQLite {
	t.Helper()
	s, err := OpenDir(t.TempDir(), zaptest.NewLogger(t))
	if err != nil {
		t.Fatalf("OpenDir() error = %v", err)
	}
	t.Cleanup(func() { s.Close() })
	return s
}

func TestPositions(t *testing.T) {
	s := openTest(t)

	if _, ok, err := s.LoadPosition("page:missing"); err != nil || ok {
		t.Fatalf("LoadPosition(missing) = ok %v, err %v", ok, err)
	}

	for _, pos := range []int{3, 7} {
		if err := s.SavePosition("page:spider-man-01", pos); err != nil {
			t.Fatalf("SavePosition(%d) error = %v", pos, err)
		}
	}
	got, ok, err := s.LoadPosition("page:spider-man-01")
	if err != nil || !ok || got != 7 {
		t.Errorf("LoadPosition() = (%d, %v, %v), want (7, true, nil)", got, ok, err)
	}
}

func TestPositionsSurviveReopen(t *testing.T) {
	dir := t.TempDir()
	log := zaptest.NewLogger(t)

	s, err := OpenDir(dir, log)
	if err != nil {
		t.Fatal(err)
	}
	if err := s.SavePosition("page:x", 4); err != nil {
		t.Fatal(err)
	}
	if err := s.Close(); err != nil {
		t.Fatal(err)
	}

	s, err = Open(filepath.Join(dir, FileName), log)
	if err != nil {
		t.Fatal(err)
	}
	defer s.Close()
	if got, ok, _ := s.LoadPosition("page:x"); !ok || got != 4 {
		t.Errorf("after reopen LoadPosition() = (%d, %v), want (4, true)", got, ok)
	}
}

func TestSyncProgress(t *testing.T) {
	s := openTest(t)
	ctx := context.Background()

	p := comic.Progress{
		RelPath:   "Marvel/Spider-Man_01.cbz",
		Position:  5,
		PageCount: 5,
		FitMode:   comic.FitWidth,
		Direction: comic.RightToLeft,
		Spread:    comic.DualPage,
	}
	if err := s.SyncProgress(ctx, p); err != nil {
		t.Fatalf("SyncProgress() error = %v", err)
	}

	got, ok, err := s.Progress(p.RelPath)
	if err != nil || !ok {
		t.Fatalf("Progress() = ok %v, err %v", ok, err)
	}
	if got.Page != 5 || got.FitMode != "width" || !got.RightToLeft || !got.DualPage || !got.Finished {
		t.Errorf("Progress() = %+v", got)
	}

	// paging back keeps the finished flag
	p.Position = 2
	p.Spread = comic.SinglePage
	if err := s.SyncProgress(ctx, p); err != nil {
		t.Fatal(err)
	}
	got, _, _ = s.Progress(p.RelPath)
	if got.Page != 2 || got.DualPage || !got.Finished {
		t.Errorf("after paging back Progress() = %+v", got)
	}

	if _, ok, err := s.Progress("other.cbz"); err != nil || ok {
		t.Errorf("Progress(unknown) = ok %v, err %v", ok, err)
	}
}

func TestSessionRestoresFromStore(t *testing.T) {
	s := openTest(t)
	desc := testBook(6)

	first := comic.NewSession(desc, comic.WithPositionStore(s), comic.WithSyncer(s),
		comic.WithDispatcher(func(f func()) { f() }))
	first.GoToPosition(4)

	second := comic.NewSession(desc, comic.WithPositionStore(s))
	if second.Position() != 4 {
		t.Errorf("reopened position = %d, want 4", second.Position())
	}
	if p, ok, _ := s.Progress(desc.RelPath); !ok || p.Page != 4 {
		t.Errorf("stored progress = %+v, %v", p, ok)
	}
}

func testBook(n int) models.BookDescriptor {
	desc := models.BookDescriptor{
		ID:      "Marvel--Spider-Man_01.cbz",
		RelPath: "Marvel/Spider-Man_01.cbz",
		Name:    "Spider Man 01",
	}
	for i := 1; i <= n; i++ {
		desc.Pages = append(desc.Pages, models.PageDescriptor{
			URL:  fmt.Sprintf("/page/%d", i),
			Name: fmt.Sprintf("%03d.jpg", i),
		})
	}
	return desc
}
