package library

import (
	"encoding/base64"
	"fmt"
	"net/url"
	"path"
	"path/filepath"
	"regexp"
	"strings"
)

// idEncoding keeps ids to a single URL path segment
var idEncoding = base64.RawURLEncoding

var nameSeparators = regexp.MustCompile(`[-_]+`)

// BookName derives a display name from a book file name
func BookName(file string) string {
	base := path.Base(filepath.ToSlash(file))
	return nameSeparators.ReplaceAllString(strings.TrimSuffix(base, path.Ext(base)), " ")
}

// EncodeID turns a path relative to the library root into a URL-safe id.
// Any file name round-trips, including ones with dashes, '#' or '?'.
func EncodeID(relpath string) string {
	return idEncoding.EncodeToString([]byte(filepath.ToSlash(relpath)))
}

// DecodeID reverses EncodeID, returning a slash separated relative path.
// Malformed ids are not found; ids naming absolute paths or escaping the
// root are rejected.
func DecodeID(id string) (string, error) {
	raw, err := idEncoding.DecodeString(id)
	if err != nil {
		return "", fmt.Errorf("book id %q: %w", id, ErrNotFound)
	}
	rel := string(raw)
	if rel == "" || path.IsAbs(rel) || strings.HasPrefix(rel, `\`) || filepath.IsAbs(rel) {
		return "", fmt.Errorf("book id %q: %w", id, ErrUnsafePath)
	}
	clean := path.Clean(rel)
	if clean == ".." || strings.HasPrefix(clean, "../") {
		return "", fmt.Errorf("book id %q: %w", id, ErrUnsafePath)
	}
	return clean, nil
}

// PageURL is the server path of a page image
func PageURL(id string, n int) string {
	return fmt.Sprintf("/api/books/%s/pages/%d", url.PathEscape(id), n)
}

// ThumbURL is the server path of a page thumbnail
func ThumbURL(id string, n int) string {
	return fmt.Sprintf("/api/books/%s/thumbs/%d", url.PathEscape(id), n)
}
