package comic

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"

	"go.uber.org/zap/zaptest"

	"github.com/justyntemme/linga-t/pkg/models"
)

type recordingSyncer struct {
	mu    sync.Mutex
	calls []Progress
	err   error
}

func (r *recordingSyncer) SyncProgress(_ context.Context, p Progress) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.calls = append(r.calls, p)
	return r.err
}

func (r *recordingSyncer) count() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.calls)
}

func (r *recordingSyncer) last() Progress {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.calls[len(r.calls)-1]
}

type memStore struct {
	positions map[string]int
	saves     int
	err       error
}

func newMemStore() *memStore {
	return &memStore{positions: make(map[string]int)}
}

func (m *memStore) LoadPosition(key string) (int, bool, error) {
	if m.err != nil {
		return 0, false, m.err
	}
	pos, ok := m.positions[key]
	return pos, ok, nil
}

func (m *memStore) SavePosition(key string, position int) error {
	m.saves++
	if m.err != nil {
		return m.err
	}
	m.positions[key] = position
	return nil
}

type fixture struct {
	session *Session
	syncer  *recordingSyncer
	store   *memStore
	notices []Notice
}

func newFixture(t *testing.T, desc models.BookDescriptor, opts ...Option) *fixture {
	t.Helper()
	f := &fixture{syncer: &recordingSyncer{}, store: newMemStore()}
	base := []Option{
		WithSyncer(f.syncer),
		WithPositionStore(f.store),
		WithNotifier(NotifierFunc(func(n Notice) { f.notices = append(f.notices, n) })),
		WithDispatcher(func(fn func()) { fn() }),
		WithLogger(zaptest.NewLogger(t)),
	}
	f.session = NewSession(desc, append(base, opts...)...)
	return f
}

func book(pages int) models.BookDescriptor {
	return models.BookDescriptor{
		ID:      "Marvel--Spider-Man_01.cbz",
		RelPath: "Marvel/Spider-Man_01.cbz",
		Name:    "Spider Man 01",
		Pages:   descriptors(pages),
	}
}

func TestGoToPositionBounds(t *testing.T) {
	for n := 0; n <= 5; n++ {
		f := newFixture(t, book(n))
		before := f.session.Position()
		for _, p := range []int{-3, -1, 0, n + 1, n + 7} {
			if f.session.GoToPosition(p) {
				t.Errorf("N=%d GoToPosition(%d) reported success", n, p)
			}
			if got := f.session.Position(); got != before {
				t.Errorf("N=%d GoToPosition(%d) moved to %d", n, p, got)
			}
		}
		if f.syncer.count() != 0 || f.store.saves != 0 {
			t.Errorf("N=%d out-of-range moves had side effects: syncs=%d saves=%d", n, f.syncer.count(), f.store.saves)
		}
	}
}

func TestEmptyBookHasNoPosition(t *testing.T) {
	f := newFixture(t, book(0))
	if f.session.Position() != 0 {
		t.Errorf("Position() = %d, want 0", f.session.Position())
	}
	if _, ok := f.session.CurrentPage(); ok {
		t.Error("CurrentPage() on empty book should be absent")
	}
	if f.session.StepRight() || f.session.StepLeft() || f.session.Advance() || f.session.Retreat() {
		t.Error("navigation on an empty book should never succeed")
	}
}

func TestAdvanceSinglePage(t *testing.T) {
	const n = 6
	f := newFixture(t, book(n))

	for p := 1; p < n; p++ {
		f.session.Advance()
		if got := f.session.Position(); got != p+1 {
			t.Fatalf("Advance() from %d = %d, want %d", p, got, p+1)
		}
	}
	if f.session.Advance() {
		t.Error("Advance() from last page should be a no-op")
	}
	if got := f.session.Position(); got != n {
		t.Errorf("Advance() from last page moved to %d", got)
	}

	f.session.Retreat()
	if got := f.session.Position(); got != n-1 {
		t.Errorf("Retreat() = %d, want %d", got, n-1)
	}
}

func TestAdvanceDualPage(t *testing.T) {
	desc := book(7)
	desc.DualPage = true
	f := newFixture(t, desc)

	f.session.Advance()
	f.session.Advance()
	if got := f.session.Position(); got != 5 {
		t.Fatalf("two dual advances = %d, want 5", got)
	}
	f.session.Advance()
	if got := f.session.Position(); got != 7 {
		t.Fatalf("third dual advance = %d, want 7", got)
	}
	// 9 is past the end
	if f.session.Advance() {
		t.Error("Advance() past the end should be a no-op")
	}
	f.session.Retreat()
	if got := f.session.Position(); got != 5 {
		t.Errorf("Retreat() = %d, want 5", got)
	}
}

func TestStepGesturesFollowDirection(t *testing.T) {
	desc := book(5)
	desc.LastPage = 3
	f := newFixture(t, desc)

	f.session.StepRight()
	if got := f.session.Position(); got != 4 {
		t.Fatalf("ltr StepRight() = %d, want 4", got)
	}

	f.session.SetDirection(RightToLeft)
	f.session.StepRight()
	if got := f.session.Position(); got != 3 {
		t.Fatalf("rtl StepRight() = %d, want 3", got)
	}
	f.session.StepLeft()
	f.session.StepLeft()
	if got := f.session.Position(); got != 5 {
		t.Fatalf("rtl StepLeft() twice = %d, want 5", got)
	}
	if f.session.LeftLabel() != "Next" || f.session.RightLabel() != "Prev" {
		t.Errorf("rtl labels = %s/%s", f.session.LeftLabel(), f.session.RightLabel())
	}

	f.session.SetDirection(LeftToRight)
	if f.session.LeftLabel() != "Prev" || f.session.RightLabel() != "Next" {
		t.Errorf("ltr labels = %s/%s", f.session.LeftLabel(), f.session.RightLabel())
	}
}

func TestSevenPageScenario(t *testing.T) {
	desc := book(7)
	desc.DualPage = true
	desc.RightToLeft = true
	desc.LastPage = 3
	f := newFixture(t, desc)

	page, ok := f.session.NextPageLeft()
	if !ok || page.Name != "page5" {
		t.Fatalf("NextPageLeft() from 3 = %q, want page5", page.Name)
	}

	f.session.GoToPosition(6)
	page, ok = f.session.NextPageLeft()
	if !ok || page.Name != "page7" {
		t.Fatalf("NextPageLeft() from 6 = %q, want page7", page.Name)
	}

	f.session.StepLeft()
	f.session.StepLeft()
	if got := f.session.Position(); got != 7 {
		t.Errorf("StepLeft() at the end = %d, want 7", got)
	}
	if page, _ := f.session.NextPageRight(); page.Name != "page5" {
		t.Errorf("NextPageRight() from 7 = %q, want page5", page.Name)
	}
}

func TestSkipSync(t *testing.T) {
	f := newFixture(t, book(4))

	f.session.GoToPosition(2, SkipSync())
	if f.syncer.count() != 0 {
		t.Fatalf("SkipSync still synced %d times", f.syncer.count())
	}
	if f.store.positions[PositionKey("Spider Man 01", "")] != 2 {
		t.Errorf("SkipSync should still persist locally, store = %v", f.store.positions)
	}

	f.session.GoToPosition(2)
	f.session.GoToPosition(2)
	if f.syncer.count() != 2 {
		t.Fatalf("same-position moves synced %d times, want 2", f.syncer.count())
	}
}

func TestSyncSnapshot(t *testing.T) {
	desc := book(4)
	desc.FitMode = "height"
	f := newFixture(t, desc)

	f.session.SetSpread(DualPage)
	f.session.GoToPosition(4)

	got := f.syncer.last()
	want := Progress{
		BookID:    desc.ID,
		RelPath:   desc.RelPath,
		Position:  4,
		PageCount: 4,
		FitMode:   FitHeight,
		Direction: LeftToRight,
		Spread:    DualPage,
	}
	if got != want {
		t.Fatalf("synced %+v, want %+v", got, want)
	}
	update := got.Update()
	if !update.Finished || update.FitMode != "height" || !update.DualPage || update.RightToLeft || update.Page != 4 {
		t.Errorf("Update() = %+v", update)
	}
	if f.session.LastPersisted() != 4 {
		t.Errorf("LastPersisted() = %d, want 4", f.session.LastPersisted())
	}
}

func TestModeChangesResync(t *testing.T) {
	f := newFixture(t, book(3))

	f.session.SetFitMode(FitWidth)
	f.session.SetDirection(RightToLeft)
	f.session.SetSpread(DualPage)

	if f.syncer.count() != 3 {
		t.Fatalf("mode changes synced %d times, want 3", f.syncer.count())
	}
	last := f.syncer.last()
	if last.FitMode != FitWidth || last.Direction != RightToLeft || last.Spread != DualPage || last.Position != 1 {
		t.Errorf("last sync = %+v", last)
	}
}

func TestSyncFailureIsNotified(t *testing.T) {
	f := newFixture(t, book(5))
	f.syncer.err = errors.New("database is locked")

	if !f.session.GoToPosition(3) {
		t.Fatal("GoToPosition(3) failed")
	}
	if f.session.Position() != 3 {
		t.Fatalf("failed sync rolled back position to %d", f.session.Position())
	}
	if len(f.notices) != 1 {
		t.Fatalf("got %d notices, want 1", len(f.notices))
	}
	n := f.notices[0]
	if n.Severity != SeverityDanger || n.AutoDismiss != syncFailureDismiss {
		t.Errorf("notice = %+v", n)
	}
	if !strings.Contains(n.Message, "database is locked") {
		t.Errorf("notice message %q lacks the reason", n.Message)
	}
	if f.session.LastPersisted() != 0 {
		t.Errorf("LastPersisted() = %d after failure, want 0", f.session.LastPersisted())
	}

	f.syncer.err = nil
	f.session.Advance()
	if f.session.Position() != 4 || len(f.notices) != 1 || f.session.LastPersisted() != 4 {
		t.Errorf("navigation after failure: pos=%d notices=%d persisted=%d", f.session.Position(), len(f.notices), f.session.LastPersisted())
	}
}

func TestLocalStoreFailureDoesNotBlock(t *testing.T) {
	f := newFixture(t, book(3))
	f.store.err = errors.New("disk full")

	f.session.Advance()
	if f.session.Position() != 2 {
		t.Errorf("Position() = %d, want 2", f.session.Position())
	}
	if f.syncer.count() != 1 || len(f.notices) != 0 {
		t.Errorf("syncs=%d notices=%d", f.syncer.count(), len(f.notices))
	}
}

func TestSeedPosition(t *testing.T) {
	key := PositionKey("Spider Man 01", "")

	t.Run("descriptor wins", func(t *testing.T) {
		store := newMemStore()
		store.positions[key] = 2
		desc := book(5)
		desc.LastPage = 4
		f := newFixture(t, desc, WithPositionStore(store))
		if f.session.Position() != 4 {
			t.Errorf("Position() = %d, want 4", f.session.Position())
		}
		if f.syncer.count() != 0 {
			t.Errorf("seeding synced %d times", f.syncer.count())
		}
	})

	t.Run("local store fallback", func(t *testing.T) {
		store := newMemStore()
		store.positions[key] = 2
		f := newFixture(t, book(5), WithPositionStore(store))
		if f.session.Position() != 2 {
			t.Errorf("Position() = %d, want 2", f.session.Position())
		}
	})

	t.Run("stale position", func(t *testing.T) {
		desc := book(5)
		desc.LastPage = 11
		f := newFixture(t, desc)
		if f.session.Position() != 1 {
			t.Errorf("Position() = %d, want 1", f.session.Position())
		}
	})

	t.Run("unknown fit mode", func(t *testing.T) {
		desc := book(2)
		desc.FitMode = "stretch"
		f := newFixture(t, desc)
		if f.session.FitMode() != FitFull {
			t.Errorf("FitMode() = %v, want full", f.session.FitMode())
		}
	})
}

func TestSecondaryPage(t *testing.T) {
	desc := book(3)
	desc.LastPage = 2
	f := newFixture(t, desc)

	if _, ok := f.session.SecondaryPage(); ok {
		t.Error("single mode has no secondary page")
	}
	f.session.SetSpread(DualPage)
	if page, ok := f.session.SecondaryPage(); !ok || page.Position != 3 {
		t.Errorf("SecondaryPage() = %+v, %v", page, ok)
	}
	f.session.GoToPosition(3)
	if _, ok := f.session.SecondaryPage(); ok {
		t.Error("final page has no secondary page")
	}
}

type signalSyncer chan Progress

func (c signalSyncer) SyncProgress(_ context.Context, p Progress) error {
	c <- p
	return nil
}

func TestDefaultDispatcherDoesNotBlock(t *testing.T) {
	syncer := make(signalSyncer)
	s := NewSession(book(2), WithSyncer(syncer))

	// an unbuffered channel would deadlock a synchronous dispatch
	if !s.Advance() {
		t.Fatal("Advance() failed")
	}
	if p := <-syncer; p.Position != 2 {
		t.Errorf("synced position %d, want 2", p.Position)
	}
}

func TestParseFitMode(t *testing.T) {
	for in, want := range map[string]FitMode{"": FitFull, "full": FitFull, "height": FitHeight, "width": FitWidth} {
		got, err := ParseFitMode(in)
		if err != nil || got != want {
			t.Errorf("ParseFitMode(%q) = %v, %v", in, got, err)
		}
		if in != "" && got.String() != in {
			t.Errorf("%v.String() = %q", got, got.String())
		}
	}
	if _, err := ParseFitMode("zoom"); err == nil {
		t.Error("ParseFitMode(zoom) should fail")
	}
	if FitWidth.Next() != FitFull {
		t.Error("FitWidth.Next() should wrap to full")
	}
}

func TestPositionKey(t *testing.T) {
	if got := PositionKey("Spider Man 01", "x"); got != "page:spider-man-01" {
		t.Errorf("PositionKey() = %q", got)
	}
	if got := PositionKey("", "abc--def.cbz"); got != "page:abc--def.cbz" {
		t.Errorf("PositionKey() without name = %q", got)
	}
}
