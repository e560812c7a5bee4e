// Package library reads comic book archives from a directory tree.
package library

import (
	"archive/zip"
	"errors"
	"fmt"
	"io"
	"path"
	"path/filepath"
	"sort"
	"strings"

	"github.com/h2non/filetype"
	"github.com/maruel/natural"
)

var (
	// ErrNotFound is returned for missing books and pages
	ErrNotFound = errors.New("not found")
	// ErrUnsafePath is returned for ids and archive entries escaping their root
	ErrUnsafePath = errors.New("unsafe path")
	// ErrUnsupported is returned for archive formats that cannot be read
	ErrUnsupported = errors.New("unsupported archive format")
)

var imageTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
}

// IsBook reports whether a file is a readable comic archive. RAR based
// .cbr files are not.
func IsBook(file string) bool {
	switch strings.ToLower(filepath.Ext(file)) {
	case ".cbz", ".zip":
		return true
	}
	return false
}

// IsImage reports whether an archive entry is a page image
func IsImage(name string) bool {
	_, ok := imageTypes[strings.ToLower(path.Ext(name))]
	return ok
}

// Archive is an opened comic book. Only the page list is kept in memory,
// page data is read on demand.
type Archive struct {
	path  string
	pages []string
}

// OpenArchive lists the page images of a .cbz/.zip file in natural order
func OpenArchive(file string) (*Archive, error) {
	if !IsBook(file) {
		return nil, fmt.Errorf("%s: %w", file, ErrUnsupported)
	}

	r, err := zip.OpenReader(file)
	if errors.Is(err, zip.ErrInsecurePath) {
		r.Close()
		return nil, fmt.Errorf("%s: %w", file, ErrUnsafePath)
	}
	if err != nil {
		return nil, fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	a := &Archive{path: file}
	for _, f := range r.File {
		name := f.Name
		if !isSafePath(name) {
			return nil, fmt.Errorf("zip entry %q: %w", name, ErrUnsafePath)
		}
		if f.FileInfo().IsDir() || !IsImage(name) {
			continue
		}
		a.pages = append(a.pages, name)
	}
	sort.Sort(natural.StringSlice(a.pages))
	return a, nil
}

// Path returns the archive file path
func (a *Archive) Path() string { return a.path }

// Count returns the number of pages
func (a *Archive) Count() int { return len(a.pages) }

// Pages returns the entry names in reading order
func (a *Archive) Pages() []string {
	out := make([]string, len(a.pages))
	copy(out, a.pages)
	return out
}

// ReadPage returns the data and content type of the 1-based page n
func (a *Archive) ReadPage(n int) ([]byte, string, error) {
	if n < 1 || n > len(a.pages) {
		return nil, "", fmt.Errorf("page %d of %d: %w", n, len(a.pages), ErrNotFound)
	}
	name := a.pages[n-1]

	r, err := zip.OpenReader(a.path)
	if err != nil {
		return nil, "", fmt.Errorf("open archive: %w", err)
	}
	defer r.Close()

	f, err := r.Open(name)
	if err != nil {
		return nil, "", fmt.Errorf("open page %q: %w", name, err)
	}
	defer f.Close()

	data, err := io.ReadAll(f)
	if err != nil {
		return nil, "", fmt.Errorf("read page %q: %w", name, err)
	}
	return data, ContentType(name, data), nil
}

// ContentType sniffs image data, falling back to the entry extension
func ContentType(name string, data []byte) string {
	if kind, err := filetype.Match(data); err == nil && kind != filetype.Unknown && kind.MIME.Value != "" {
		return kind.MIME.Value
	}
	if ct, ok := imageTypes[strings.ToLower(path.Ext(name))]; ok {
		return ct
	}
	return "application/octet-stream"
}

// isSafePath returns false for absolute entry names and those containing ".."
func isSafePath(name string) bool {
	if path.IsAbs(name) || strings.HasPrefix(name, `\`) {
		return false
	}
	for _, part := range strings.Split(name, "/") {
		if part == ".." {
			return false
		}
	}
	return true
}
