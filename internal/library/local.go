package library

import (
	"context"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/justyntemme/linga-t/internal/comic"
	"github.com/justyntemme/linga-t/pkg/models"
)

// ProgressReader looks up stored reading progress by relative path
type ProgressReader interface {
	Progress(relpath string) (models.ProgressUpdate, bool, error)
}

// Local serves books straight from a directory for offline reading
type Local struct {
	dir      *Dir
	progress ProgressReader
	log      *zap.Logger
}

// NewLocal creates a local book source. progress may be nil.
func NewLocal(dir *Dir, progress ProgressReader, log *zap.Logger) *Local {
	if log == nil {
		log = zap.NewNop()
	}
	return &Local{dir: dir, progress: progress, log: log}
}

// Dir returns the underlying library
func (l *Local) Dir() *Dir { return l.dir }

// ListBooks summarizes every readable book. Books that fail to open are
// logged and left out.
func (l *Local) ListBooks(ctx context.Context) ([]models.BookSummary, error) {
	rels, err := l.dir.List()
	if err != nil {
		return nil, err
	}

	books := make([]models.BookSummary, 0, len(rels))
	for _, rel := range rels {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		id := EncodeID(rel)
		a, err := l.dir.Open(id)
		if err != nil {
			l.log.Warn("Skipping book", zap.String("book", rel), zap.Error(err))
			continue
		}
		summary := models.BookSummary{
			ID:        id,
			RelPath:   rel,
			Name:      BookName(rel),
			PageCount: a.Count(),
		}
		if p, ok := l.lookup(rel); ok {
			summary.LastPage = p.Page
			summary.Finished = p.Finished
		}
		books = append(books, summary)
	}
	return books, nil
}

// GetBook describes a book with its stored progress
func (l *Local) GetBook(ctx context.Context, id string) (models.BookDescriptor, error) {
	if err := ctx.Err(); err != nil {
		return models.BookDescriptor{}, err
	}
	desc, err := l.dir.Descriptor(id)
	if err != nil {
		return desc, err
	}
	if p, ok := l.lookup(desc.RelPath); ok {
		desc = WithProgress(desc, p)
	}
	return desc, nil
}

// PageImage reads the image of a page. The position is authoritative; the
// page URL is only consulted when the position is unset.
func (l *Local) PageImage(ctx context.Context, bookID string, page comic.Page) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	n := page.Position
	if n < 1 {
		n = positionFromURL(page.URL)
	}
	a, err := l.dir.Open(bookID)
	if err != nil {
		return nil, err
	}
	data, _, err := a.ReadPage(n)
	return data, err
}

func (l *Local) lookup(rel string) (models.ProgressUpdate, bool) {
	if l.progress == nil {
		return models.ProgressUpdate{}, false
	}
	p, ok, err := l.progress.Progress(rel)
	if err != nil {
		l.log.Warn("Unable to load progress", zap.String("book", rel), zap.Error(err))
		return p, false
	}
	return p, ok
}

func positionFromURL(u string) int {
	i := strings.LastIndexByte(u, '/')
	n, err := strconv.Atoi(u[i+1:])
	if err != nil {
		return 0
	}
	return n
}
