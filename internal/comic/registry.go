package comic

import "github.com/justyntemme/linga-t/pkg/models"

// Page is one image of a book. Position is 1-based and fixed at insertion.
type Page struct {
	URL      string
	ThumbURL string
	Name     string
	Position int
}

// Registry is the append-only ordered page list of one reading session
type Registry struct {
	pages []Page
}

// NewRegistry creates a registry seeded with the given descriptors
func NewRegistry(descs []models.PageDescriptor) *Registry {
	r := &Registry{pages: make([]Page, 0, len(descs))}
	r.AppendAll(descs)
	return r
}

// Append stores a page at the next position and returns it
func (r *Registry) Append(desc models.PageDescriptor) Page {
	page := Page{
		URL:      desc.URL,
		ThumbURL: desc.ThumbURL,
		Name:     desc.Name,
		Position: len(r.pages) + 1,
	}
	r.pages = append(r.pages, page)
	return page
}

// AppendAll appends descriptors in order
func (r *Registry) AppendAll(descs []models.PageDescriptor) {
	for _, desc := range descs {
		r.Append(desc)
	}
}

// Count returns the number of pages
func (r *Registry) Count() int {
	return len(r.pages)
}

// At returns the page at a 1-based position
func (r *Registry) At(position int) (Page, bool) {
	if position < 1 || position > len(r.pages) {
		return Page{}, false
	}
	return r.pages[position-1], true
}

// Pages returns a copy of all pages in order
func (r *Registry) Pages() []Page {
	out := make([]Page, len(r.pages))
	copy(out, r.pages)
	return out
}
