package views

import (
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/justyntemme/linga-t/internal/comic"
)

// NoticeMsg delivers a notice from a background sync to the UI loop
type NoticeMsg struct {
	Notice comic.Notice
}

// DismissNoticeMsg hides the notice with the given sequence number
type DismissNoticeMsg struct {
	Seq int
}

// ChannelNotifier hands notices from sync goroutines to the bubbletea loop.
// Notify never blocks; notices arriving while the buffer is full are dropped.
type ChannelNotifier struct {
	ch chan comic.Notice
}

// NewChannelNotifier creates a notifier buffering up to size notices
func NewChannelNotifier(size int) *ChannelNotifier {
	return &ChannelNotifier{ch: make(chan comic.Notice, size)}
}

// Notify implements comic.Notifier
func (n *ChannelNotifier) Notify(notice comic.Notice) {
	select {
	case n.ch <- notice:
	default:
	}
}

// Wait returns a command that blocks until the next notice arrives. It must
// be issued again after every NoticeMsg.
func (n *ChannelNotifier) Wait() tea.Cmd {
	return func() tea.Msg {
		return NoticeMsg{Notice: <-n.ch}
	}
}

// DismissAfter schedules the dismissal of notice seq
func DismissAfter(d time.Duration, seq int) tea.Cmd {
	if d <= 0 {
		return nil
	}
	return tea.Tick(d, func(time.Time) tea.Msg {
		return DismissNoticeMsg{Seq: seq}
	})
}
