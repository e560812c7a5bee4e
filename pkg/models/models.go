package models

import "time"

// DeviceHeader identifies the reading device on API requests
const DeviceHeader = "X-Linga-Device"

// Fit mode wire values
const (
	FitModeFull   = "full"
	FitModeHeight = "height"
	FitModeWidth  = "width"
)

// PageDescriptor describes one page image as delivered by a book source
type PageDescriptor struct {
	URL      string `json:"url"`
	ThumbURL string `json:"thumb_url,omitempty"`
	Name     string `json:"name"`
}

// BookDescriptor is everything a reader needs to open a book
type BookDescriptor struct {
	ID          string           `json:"id"`
	RelPath     string           `json:"path"`
	Name        string           `json:"book_name"`
	RightToLeft bool             `json:"rtl"`
	DualPage    bool             `json:"dual_page"`
	FitMode     string           `json:"fit_mode"`
	LastPage    int              `json:"last_page"`
	Pages       []PageDescriptor `json:"pages"`
}

// BookSummary represents a comic in a library listing
type BookSummary struct {
	ID         string     `json:"id"`
	RelPath    string     `json:"path"`
	Name       string     `json:"name"`
	PageCount  int        `json:"page_count"`
	LastPage   int        `json:"last_page,omitempty"`
	Finished   bool       `json:"finished,omitempty"`
	LastAccess *time.Time `json:"last_access,omitempty"`
}

// ProgressUpdate is the body of a reading progress update
type ProgressUpdate struct {
	RelPath     string `json:"relpath"`
	Page        int    `json:"page"`
	Finished    bool   `json:"finished"`
	FitMode     string `json:"fitmode"`
	RightToLeft bool   `json:"rtl"`
	DualPage    bool   `json:"dual"`
}

// UpdateResponse is returned by the progress update endpoint
type UpdateResponse struct {
	Success bool   `json:"success"`
	Error   string `json:"error,omitempty"`
}

// BooksResponse represents the API response for listing books
type BooksResponse struct {
	Books []BookSummary `json:"books"`
	Count int           `json:"count"`
}

// ErrorResponse represents an API error
type ErrorResponse struct {
	Error string `json:"error"`
}
