package comic

import (
	"context"
	"time"

	"github.com/gosimple/slug"
	"github.com/justyntemme/linga-t/pkg/models"
)

// Progress is the snapshot handed to a ProgressSyncer after a page change
type Progress struct {
	BookID    string
	RelPath   string
	Position  int
	PageCount int
	FitMode   FitMode
	Direction Direction
	Spread    SpreadMode
}

// Finished reports whether the reader has reached the last page
func (p Progress) Finished() bool {
	return p.PageCount > 0 && p.Position >= p.PageCount
}

// Update converts the snapshot to the remote update request
func (p Progress) Update() models.ProgressUpdate {
	return models.ProgressUpdate{
		RelPath:     p.RelPath,
		Page:        p.Position,
		Finished:    p.Finished(),
		FitMode:     p.FitMode.String(),
		RightToLeft: p.Direction == RightToLeft,
		DualPage:    p.Spread == DualPage,
	}
}

// ProgressSyncer persists reading progress somewhere outside the session.
// Implementations own their own timeouts and ordering.
type ProgressSyncer interface {
	SyncProgress(ctx context.Context, p Progress) error
}

// NopSyncer discards progress
type NopSyncer struct{}

func (NopSyncer) SyncProgress(context.Context, Progress) error { return nil }

// Severity of a user-facing notice
type Severity int

const (
	SeverityInfo Severity = iota
	SeveritySuccess
	SeverityWarning
	SeverityDanger
)

func (s Severity) String() string {
	switch s {
	case SeveritySuccess:
		return "success"
	case SeverityWarning:
		return "warning"
	case SeverityDanger:
		return "danger"
	default:
		return "info"
	}
}

// Notice is a recoverable failure surfaced to the reader.
// A zero AutoDismiss keeps the notice until replaced.
type Notice struct {
	Message     string
	Severity    Severity
	AutoDismiss time.Duration
}

// Notifier shows notices to the user. Notify must not block.
type Notifier interface {
	Notify(n Notice)
}

// NotifierFunc adapts a function to Notifier
type NotifierFunc func(Notice)

func (f NotifierFunc) Notify(n Notice) { f(n) }

// PositionStore keeps the last viewed position per book on this device
type PositionStore interface {
	LoadPosition(key string) (int, bool, error)
	SavePosition(key string, position int) error
}

// PositionKey derives the local storage key for a book
func PositionKey(name, id string) string {
	if s := slug.Make(name); s != "" {
		return "page:" + s
	}
	return "page:" + id
}
