package library

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/maruel/natural"

	"github.com/justyntemme/linga-t/pkg/models"
)

// Dir is a library rooted at a directory. Books are addressed by id, see
// EncodeID.
type Dir struct {
	root string
}

// NewDir creates a library over root
func NewDir(root string) *Dir {
	return &Dir{root: filepath.Clean(root)}
}

// Root returns the library directory
func (d *Dir) Root() string { return d.root }

// List returns the relative paths of all readable books, slash separated and
// in natural order
func (d *Dir) List() ([]string, error) {
	var books []string
	err := filepath.WalkDir(d.root, func(p string, e fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if e.IsDir() || !IsBook(p) {
			return nil
		}
		rel, err := filepath.Rel(d.root, p)
		if err != nil {
			return err
		}
		books = append(books, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", d.root, err)
	}
	sort.Sort(natural.StringSlice(books))
	return books, nil
}

// Resolve maps a book id to its relative and absolute paths
func (d *Dir) Resolve(id string) (string, string, error) {
	rel, err := DecodeID(id)
	if err != nil {
		return "", "", err
	}
	full := filepath.Join(d.root, filepath.FromSlash(rel))

	info, err := os.Stat(full)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		return "", "", fmt.Errorf("book %q: %w", id, ErrNotFound)
	case err != nil:
		return "", "", fmt.Errorf("book %q: %w", id, err)
	case info.IsDir():
		return "", "", fmt.Errorf("book %q is a directory: %w", id, ErrNotFound)
	case !IsBook(full):
		return "", "", fmt.Errorf("book %q: %w", id, ErrUnsupported)
	}
	return rel, full, nil
}

// Open opens the archive of a book
func (d *Dir) Open(id string) (*Archive, error) {
	_, full, err := d.Resolve(id)
	if err != nil {
		return nil, err
	}
	return OpenArchive(full)
}

// Descriptor describes a book with default reading modes and no progress
func (d *Dir) Descriptor(id string) (models.BookDescriptor, error) {
	rel, full, err := d.Resolve(id)
	if err != nil {
		return models.BookDescriptor{}, err
	}
	a, err := OpenArchive(full)
	if err != nil {
		return models.BookDescriptor{}, err
	}

	desc := models.BookDescriptor{
		ID:      id,
		RelPath: rel,
		Name:    BookName(rel),
		FitMode: models.FitModeFull,
		Pages:   make([]models.PageDescriptor, 0, a.Count()),
	}
	for i, name := range a.pages {
		desc.Pages = append(desc.Pages, models.PageDescriptor{
			URL:      PageURL(id, i+1),
			ThumbURL: ThumbURL(id, i+1),
			Name:     name,
		})
	}
	return desc, nil
}

// WithProgress overlays stored progress on a descriptor
func WithProgress(desc models.BookDescriptor, p models.ProgressUpdate) models.BookDescriptor {
	desc.LastPage = p.Page
	if p.FitMode != "" {
		desc.FitMode = p.FitMode
	}
	desc.RightToLeft = p.RightToLeft
	desc.DualPage = p.DualPage
	return desc
}
