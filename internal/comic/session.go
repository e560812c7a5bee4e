// Package comic implements the reading state of a paginated comic book:
// the page registry, page turn resolution and the navigation session that
// persists progress locally and remotely.
package comic

import (
	"context"
	"sync/atomic"
	"time"

	"go.uber.org/zap"

	"github.com/justyntemme/linga-t/pkg/models"
)

// syncFailureDismiss is how long a sync failure notice stays visible
const syncFailureDismiss = 5 * time.Second

// Book identifies the book a session reads
type Book struct {
	ID      string
	RelPath string
	Name    string
}

// Session is the navigation state of one open book. It is not safe for
// concurrent use: callers serialize user input. Only progress syncs run
// outside the calling goroutine.
type Session struct {
	book  Book
	pages *Registry

	position int
	fit      FitMode
	dir      Direction
	spread   SpreadMode

	lastPersisted atomic.Int64

	ctx      context.Context
	syncer   ProgressSyncer
	notifier Notifier
	store    PositionStore
	dispatch func(func())
	log      *zap.Logger
}

// Option configures a Session
type Option func(*Session)

// WithSyncer sets the remote progress synchronizer
func WithSyncer(syncer ProgressSyncer) Option {
	return func(s *Session) { s.syncer = syncer }
}

// WithNotifier sets where sync failures are reported
func WithNotifier(n Notifier) Option {
	return func(s *Session) { s.notifier = n }
}

// WithPositionStore sets the per-device position store
func WithPositionStore(store PositionStore) Option {
	return func(s *Session) { s.store = store }
}

// WithLogger sets the session logger
func WithLogger(log *zap.Logger) Option {
	return func(s *Session) { s.log = log }
}

// WithContext sets the context passed to the synchronizer
func WithContext(ctx context.Context) Option {
	return func(s *Session) { s.ctx = ctx }
}

// WithDispatcher replaces how sync calls are started. The default starts a
// goroutine per call.
func WithDispatcher(dispatch func(func())) Option {
	return func(s *Session) { s.dispatch = dispatch }
}

// NewSession opens a book. The starting position is the descriptor's last
// page when known, otherwise the locally stored one, otherwise the first
// page. Seeding never triggers a remote sync.
func NewSession(desc models.BookDescriptor, opts ...Option) *Session {
	s := &Session{
		book:     Book{ID: desc.ID, RelPath: desc.RelPath, Name: desc.Name},
		pages:    NewRegistry(desc.Pages),
		dir:      DirectionFromRTL(desc.RightToLeft),
		spread:   SpreadFromDual(desc.DualPage),
		ctx:      context.Background(),
		syncer:   NopSyncer{},
		notifier: NotifierFunc(func(Notice) {}),
		dispatch: func(f func()) { go f() },
		log:      zap.NewNop(),
	}
	for _, opt := range opts {
		opt(s)
	}

	fit, err := ParseFitMode(desc.FitMode)
	if err != nil {
		s.log.Warn("Ignoring fit mode", zap.String("book", desc.RelPath), zap.Error(err))
	}
	s.fit = fit

	if s.pages.Count() > 0 {
		s.position = 1
	}
	s.restore(desc.LastPage)
	return s
}

func (s *Session) restore(lastPage int) {
	start := lastPage
	if start < 1 && s.store != nil {
		pos, ok, err := s.store.LoadPosition(s.key())
		switch {
		case err != nil:
			s.log.Warn("Unable to load local position", zap.String("book", s.book.RelPath), zap.Error(err))
		case ok:
			start = pos
		}
	}
	if start < 1 {
		return
	}
	if !s.GoToPosition(start, SkipSync()) {
		s.log.Debug("Stored position out of range", zap.String("book", s.book.RelPath), zap.Int("page", start), zap.Int("count", s.pages.Count()))
	}
}

type goConfig struct {
	skipSync bool
}

// GoOption modifies a single GoToPosition call
type GoOption func(*goConfig)

// SkipSync moves without notifying the progress synchronizer
func SkipSync() GoOption {
	return func(c *goConfig) { c.skipSync = true }
}

// GoToPosition moves to a 1-based position. Out-of-range targets are
// ignored and reported as false. Moving to the current position still
// persists and syncs, which is how mode changes reach the server.
func (s *Session) GoToPosition(target int, opts ...GoOption) bool {
	if target < 1 || target > s.pages.Count() {
		return false
	}
	var cfg goConfig
	for _, opt := range opts {
		opt(&cfg)
	}

	s.position = target
	if s.store != nil {
		if err := s.store.SavePosition(s.key(), target); err != nil {
			s.log.Warn("Unable to save local position", zap.String("book", s.book.RelPath), zap.Int("page", target), zap.Error(err))
		}
	}
	if !cfg.skipSync {
		s.sync()
	}
	return true
}

func (s *Session) sync() {
	p := s.Progress()
	s.dispatch(func() {
		if err := s.syncer.SyncProgress(s.ctx, p); err != nil {
			s.log.Warn("Unable to sync progress", zap.String("book", p.RelPath), zap.Int("page", p.Position), zap.Error(err))
			s.notifier.Notify(Notice{
				Message:     "Error updating last page: " + err.Error(),
				Severity:    SeverityDanger,
				AutoDismiss: syncFailureDismiss,
			})
			return
		}
		s.lastPersisted.Store(int64(p.Position))
	})
}

// Advance moves forward in reading order by one spread
func (s *Session) Advance() bool {
	return s.GoToPosition(s.position + s.spread.Step())
}

// Retreat moves backward in reading order by one spread
func (s *Session) Retreat() bool {
	return s.GoToPosition(s.position - s.spread.Step())
}

// StepLeft turns the page towards the physical left
func (s *Session) StepLeft() bool {
	return s.GoToPosition(ResolveStepLeft(s.pages.Count(), s.position, s.dir, s.spread))
}

// StepRight turns the page towards the physical right
func (s *Session) StepRight() bool {
	return s.GoToPosition(ResolveStepRight(s.pages.Count(), s.position, s.dir, s.spread))
}

// NextPageLeft is the page StepLeft would land on
func (s *Session) NextPageLeft() (Page, bool) {
	return s.pages.At(ResolveStepLeft(s.pages.Count(), s.position, s.dir, s.spread))
}

// NextPageRight is the page StepRight would land on
func (s *Session) NextPageRight() (Page, bool) {
	return s.pages.At(ResolveStepRight(s.pages.Count(), s.position, s.dir, s.spread))
}

// SetFitMode changes the fit mode and syncs it
func (s *Session) SetFitMode(m FitMode) {
	s.fit = m
	s.GoToPosition(s.position)
}

// SetDirection changes the reading direction and syncs it
func (s *Session) SetDirection(d Direction) {
	s.dir = d
	s.GoToPosition(s.position)
}

// SetSpread changes the spread mode and syncs it
func (s *Session) SetSpread(sp SpreadMode) {
	s.spread = sp
	s.GoToPosition(s.position)
}

// Book returns the identity of the open book
func (s *Session) Book() Book { return s.book }

// Pages returns the registry. Callers must not append to it.
func (s *Session) Pages() *Registry { return s.pages }

// PageCount returns the number of pages
func (s *Session) PageCount() int { return s.pages.Count() }

// Position returns the current 1-based position, 0 for an empty book
func (s *Session) Position() int { return s.position }

func (s *Session) FitMode() FitMode { return s.fit }

func (s *Session) Direction() Direction { return s.dir }

func (s *Session) Spread() SpreadMode { return s.spread }

// LastPersisted returns the last position the synchronizer accepted
func (s *Session) LastPersisted() int { return int(s.lastPersisted.Load()) }

// CurrentPage returns the page at the current position
func (s *Session) CurrentPage() (Page, bool) { return s.pages.At(s.position) }

func (s *Session) key() string { return PositionKey(s.book.Name, s.book.ID) }

// SecondaryPage is the page shown beside the current one in dual mode
func (s *Session) SecondaryPage() (Page, bool) {
	if s.spread != DualPage {
		return Page{}, false
	}
	return s.pages.At(s.position + 1)
}

// LeftLabel names what the left gesture does in reading order
func (s *Session) LeftLabel() string {
	if s.dir == RightToLeft {
		return "Next"
	}
	return "Prev"
}

// RightLabel names what the right gesture does in reading order
func (s *Session) RightLabel() string {
	if s.dir == RightToLeft {
		return "Prev"
	}
	return "Next"
}

// Progress snapshots the session for synchronization
func (s *Session) Progress() Progress {
	return Progress{
		BookID:    s.book.ID,
		RelPath:   s.book.RelPath,
		Position:  s.position,
		PageCount: s.pages.Count(),
		FitMode:   s.fit,
		Direction: s.dir,
		Spread:    s.spread,
	}
}
