// Package server serves comic books from a library directory and records
// reading progress.
package server

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/justyntemme/linga-t/internal/comic"
	"github.com/justyntemme/linga-t/internal/library"
	"github.com/justyntemme/linga-t/pkg/models"
)

// Server handles the book and progress API
type Server struct {
	lib   *library.Dir
	store ProgressStore
	token string
	log   *zap.Logger
	now   func() time.Time
	mux   *http.ServeMux
}

// Option configures a Server
type Option func(*Server)

// WithToken requires a bearer token on every route except /health
func WithToken(token string) Option {
	return func(s *Server) { s.token = token }
}

// WithLogger sets the request logger
func WithLogger(log *zap.Logger) Option {
	return func(s *Server) { s.log = log }
}

// New creates a server over a library and progress store
func New(lib *library.Dir, store ProgressStore, opts ...Option) *Server {
	s := &Server{
		lib:   lib,
		store: store,
		log:   zap.NewNop(),
		now:   time.Now,
		mux:   http.NewServeMux(),
	}
	for _, opt := range opts {
		opt(s)
	}

	s.mux.HandleFunc("GET /health", s.handleHealth)
	s.mux.HandleFunc("GET /api/books", s.handleListBooks)
	s.mux.HandleFunc("GET /api/books/{id}", s.handleGetBook)
	s.mux.HandleFunc("GET /api/books/{id}/pages/{n}", s.handlePage)
	s.mux.HandleFunc("GET /api/books/{id}/thumbs/{n}", s.handleThumb)
	s.mux.HandleFunc("GET /api/books/{id}/download", s.handleDownload)
	s.mux.HandleFunc("POST /book/update/page", s.handleUpdatePage)
	return s
}

// Handler returns the routes wrapped with authentication and request logging
func (s *Server) Handler() http.Handler {
	return s.logRequests(s.authenticate(s.mux))
}

func (s *Server) authenticate(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if s.token == "" || r.URL.Path == "/health" {
			next.ServeHTTP(w, r)
			return
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer "+s.token {
			s.writeError(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		next.ServeHTTP(w, r)
	})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

func (s *Server) logRequests(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}
		next.ServeHTTP(rec, r)
		s.log.Debug("Request",
			zap.String("method", r.Method),
			zap.String("path", r.URL.Path),
			zap.String("device", r.Header.Get(models.DeviceHeader)),
			zap.Int("status", rec.status),
			zap.Duration("elapsed", time.Since(start)))
	})
}

// Response helpers
func (s *Server) writeJSON(w http.ResponseWriter, data any) {
	w.Header().Set("Content-Type", "application/json")
	if err := json.NewEncoder(w).Encode(data); err != nil {
		s.log.Error("Unable to encode JSON response", zap.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, message string, code int) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	if err := json.NewEncoder(w).Encode(models.ErrorResponse{Error: message}); err != nil {
		s.log.Error("Unable to encode JSON response", zap.Error(err))
	}
}

// writeLibraryError maps library errors to status codes
func (s *Server) writeLibraryError(w http.ResponseWriter, id string, err error) {
	switch {
	case errors.Is(err, library.ErrNotFound):
		s.writeError(w, "book not found", http.StatusNotFound)
	case errors.Is(err, library.ErrUnsafePath):
		s.writeError(w, "invalid book id", http.StatusBadRequest)
	case errors.Is(err, library.ErrUnsupported):
		s.writeError(w, "unsupported book format", http.StatusUnsupportedMediaType)
	default:
		s.log.Error("Unable to read book", zap.String("id", id), zap.Error(err))
		s.writeError(w, "unable to read book", http.StatusInternalServerError)
	}
}

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, map[string]string{"status": "ok"})
}

// handleListBooks lists the whole library, or with ?recent=N the N most
// recently read books that are still on disk
func (s *Server) handleListBooks(w http.ResponseWriter, r *http.Request) {
	var rels []string
	if q := r.URL.Query().Get("recent"); q != "" {
		limit, err := strconv.Atoi(q)
		if err != nil || limit < 1 {
			s.writeError(w, "invalid recent limit", http.StatusBadRequest)
			return
		}
		records, err := s.store.Recent(r.Context(), limit)
		if err != nil {
			s.log.Error("Unable to load recent progress", zap.Error(err))
			s.writeError(w, "unable to list books", http.StatusInternalServerError)
			return
		}
		for _, rec := range records {
			rels = append(rels, rec.RelPath)
		}
	} else {
		var err error
		rels, err = s.lib.List()
		if err != nil {
			s.log.Error("Unable to list library", zap.Error(err))
			s.writeError(w, "unable to list books", http.StatusInternalServerError)
			return
		}
	}

	books := make([]models.BookSummary, 0, len(rels))
	for _, rel := range rels {
		summary, ok := s.summary(r.Context(), rel)
		if ok {
			books = append(books, summary)
		}
	}
	s.writeJSON(w, models.BooksResponse{Books: books, Count: len(books)})
}

// summary describes one book with its stored progress
func (s *Server) summary(ctx context.Context, rel string) (models.BookSummary, bool) {
	id := library.EncodeID(rel)
	a, err := s.lib.Open(id)
	if err != nil {
		s.log.Warn("Skipping book", zap.String("book", rel), zap.Error(err))
		return models.BookSummary{}, false
	}
	summary := models.BookSummary{
		ID:        id,
		RelPath:   rel,
		Name:      library.BookName(rel),
		PageCount: a.Count(),
	}
	rec, err := s.store.Get(ctx, rel)
	switch {
	case err == nil:
		summary.LastPage = rec.Page
		summary.Finished = rec.Finished
		if !rec.LastAccess.IsZero() {
			at := rec.LastAccess
			summary.LastAccess = &at
		}
	case !errors.Is(err, ErrNoProgress):
		s.log.Warn("Unable to load progress", zap.String("book", rel), zap.Error(err))
	}
	return summary, true
}

func (s *Server) handleGetBook(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	desc, err := s.lib.Descriptor(id)
	if err != nil {
		s.writeLibraryError(w, id, err)
		return
	}

	rec, err := s.store.Get(r.Context(), desc.RelPath)
	switch {
	case err == nil:
		desc = library.WithProgress(desc, rec.Update())
	case !errors.Is(err, ErrNoProgress):
		s.log.Warn("Unable to load progress", zap.String("book", desc.RelPath), zap.Error(err))
	}
	s.writeJSON(w, desc)
}

// readPage loads the page named by the {id} and {n} path values
func (s *Server) readPage(w http.ResponseWriter, r *http.Request) ([]byte, string, bool) {
	id := r.PathValue("id")
	n, err := strconv.Atoi(r.PathValue("n"))
	if err != nil {
		s.writeError(w, "invalid page number", http.StatusBadRequest)
		return nil, "", false
	}
	a, err := s.lib.Open(id)
	if err != nil {
		s.writeLibraryError(w, id, err)
		return nil, "", false
	}
	data, ct, err := a.ReadPage(n)
	if err != nil {
		s.writeLibraryError(w, id, err)
		return nil, "", false
	}
	return data, ct, true
}

func (s *Server) handlePage(w http.ResponseWriter, r *http.Request) {
	data, ct, ok := s.readPage(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", ct)
	w.Write(data)
}

func (s *Server) handleThumb(w http.ResponseWriter, r *http.Request) {
	data, _, ok := s.readPage(w, r)
	if !ok {
		return
	}
	thumb, err := library.Thumbnail(data, library.ThumbnailSize)
	if err != nil {
		s.log.Warn("Unable to create thumbnail", zap.String("id", r.PathValue("id")), zap.Error(err))
		s.writeError(w, "unable to create thumbnail", http.StatusUnprocessableEntity)
		return
	}
	w.Header().Set("Content-Type", "image/jpeg")
	w.Write(thumb)
}

func (s *Server) handleDownload(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	rel, full, err := s.lib.Resolve(id)
	if err != nil {
		s.writeLibraryError(w, id, err)
		return
	}
	w.Header().Set("Content-Type", "application/zip")
	w.Header().Set("Content-Disposition", `attachment; filename="`+strings.ReplaceAll(rel, `"`, "")+`"`)
	http.ServeFile(w, r, full)
}

// decodeUpdate accepts a JSON body or form fields
func decodeUpdate(r *http.Request) (models.ProgressUpdate, error) {
	var u models.ProgressUpdate
	if strings.HasPrefix(r.Header.Get("Content-Type"), "application/json") {
		err := json.NewDecoder(r.Body).Decode(&u)
		return u, err
	}
	if err := r.ParseForm(); err != nil {
		return u, err
	}
	u.RelPath = r.PostForm.Get("relpath")
	u.Page, _ = strconv.Atoi(r.PostForm.Get("page"))
	u.Finished = formBool(r.PostForm.Get("finished"))
	u.FitMode = r.PostForm.Get("fitmode")
	u.RightToLeft = formBool(r.PostForm.Get("rtl"))
	u.DualPage = formBool(r.PostForm.Get("dual"))
	return u, nil
}

func formBool(v string) bool {
	b, err := strconv.ParseBool(v)
	if err != nil {
		return v == "on"
	}
	return b
}

func (s *Server) handleUpdatePage(w http.ResponseWriter, r *http.Request) {
	u, err := decodeUpdate(r)
	if err != nil {
		s.writeJSON(w, models.UpdateResponse{Error: "Invalid request"})
		return
	}
	if u.RelPath == "" || u.Page < 1 {
		s.writeJSON(w, models.UpdateResponse{Error: "Missing data"})
		return
	}
	rel, _, err := s.lib.Resolve(library.EncodeID(u.RelPath))
	if err != nil {
		s.log.Debug("Rejected progress update", zap.String("book", u.RelPath), zap.Error(err))
		s.writeJSON(w, models.UpdateResponse{Error: "Invalid book"})
		return
	}
	fit, err := comic.ParseFitMode(u.FitMode)
	if err != nil {
		s.writeJSON(w, models.UpdateResponse{Error: err.Error()})
		return
	}

	rec := Record{
		RelPath:     rel,
		Page:        u.Page,
		FitMode:     fit.String(),
		RightToLeft: u.RightToLeft,
		DualPage:    u.DualPage,
		Finished:    u.Finished,
		LastAccess:  s.now(),
	}
	if err := s.store.Put(r.Context(), rec); err != nil {
		s.log.Error("Unable to store progress", zap.String("book", u.RelPath), zap.Error(err))
		s.writeJSON(w, models.UpdateResponse{Error: "Unable to store progress"})
		return
	}
	s.log.Debug("Progress updated", zap.String("book", u.RelPath), zap.Int("page", u.Page), zap.Bool("finished", u.Finished))
	s.writeJSON(w, models.UpdateResponse{Success: true})
}
