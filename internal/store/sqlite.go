// Package store keeps per-device reading state in a local SQLite database.
package store

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"go.uber.org/zap"
	"zombiezen.com/go/sqlite"
	"zombiezen.com/go/sqlite/sqlitex"

	"github.com/justyntemme/linga-t/internal/comic"
	"github.com/justyntemme/linga-t/pkg/models"
)

// FileName is the database file created inside the data directory
const FileName = "positions.db"

const schema = `
CREATE TABLE IF NOT EXISTS positions (
	key        TEXT PRIMARY KEY,
	position   INTEGER NOT NULL,
	updated_at INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS progress (
	relpath    TEXT PRIMARY KEY,
	page       INTEGER NOT NULL,
	fit_mode   TEXT NOT NULL DEFAULT 'full',
	rtl        INTEGER NOT NULL DEFAULT 0,
	dual       INTEGER NOT NULL DEFAULT 0,
	finished   INTEGER NOT NULL DEFAULT 0,
	updated_at INTEGER NOT NULL
);
`

// SQLite stores page positions and reading progress. A single connection is
// shared and guarded by a mutex, so the store can be used from the UI loop
// and from sync goroutines at the same time.
type SQLite struct {
	mu   sync.Mutex
	conn *sqlite.Conn
	log  *zap.Logger
	now  func() time.Time
}

// Open opens (creating if needed) the database at path
func Open(path string, log *zap.Logger) (*SQLite, error) {
	if log == nil {
		log = zap.NewNop()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o700); err != nil {
			return nil, fmt.Errorf("create data directory: %w", err)
		}
	}

	conn, err := sqlite.OpenConn(path, sqlite.OpenReadWrite, sqlite.OpenCreate, sqlite.OpenWAL)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", path, err)
	}
	if err := sqlitex.ExecuteScript(conn, schema, nil); err != nil {
		conn.Close()
		return nil, fmt.Errorf("create schema: %w", err)
	}

	log.Debug("Opened position store", zap.String("path", path))
	return &SQLite{conn: conn, log: log, now: time.Now}, nil
}

// OpenDir opens the store file inside dir
func OpenDir(dir string, log *zap.Logger) (*SQLite, error) {
	return Open(filepath.Join(dir, FileName), log)
}

// Close releases the database connection
func (s *SQLite) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.conn.Close()
}

// LoadPosition implements comic.PositionStore
func (s *SQLite) LoadPosition(key string) (int, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		position int
		found    bool
	)
	err := sqlitex.Execute(s.conn, `SELECT position FROM positions WHERE key = ?`,
		&sqlitex.ExecOptions{
			Args: []any{key},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				position = int(stmt.ColumnInt64(0))
				found = true
				return nil
			},
		})
	if err != nil {
		return 0, false, fmt.Errorf("load position %q: %w", key, err)
	}
	return position, found, nil
}

// SavePosition implements comic.PositionStore
func (s *SQLite) SavePosition(key string, position int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	err := sqlitex.Execute(s.conn, `
		INSERT INTO positions (key, position, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(key) DO UPDATE SET position = excluded.position, updated_at = excluded.updated_at`,
		&sqlitex.ExecOptions{Args: []any{key, position, s.now().Unix()}})
	if err != nil {
		return fmt.Errorf("save position %q: %w", key, err)
	}
	return nil
}

// SyncProgress implements comic.ProgressSyncer for books read from a local
// library. A finished book stays finished when the reader pages back.
func (s *SQLite) SyncProgress(_ context.Context, p comic.Progress) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := p.Update()
	err := sqlitex.Execute(s.conn, `
		INSERT INTO progress (relpath, page, fit_mode, rtl, dual, finished, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(relpath) DO UPDATE SET
			page = excluded.page,
			fit_mode = excluded.fit_mode,
			rtl = excluded.rtl,
			dual = excluded.dual,
			finished = MAX(progress.finished, excluded.finished),
			updated_at = excluded.updated_at`,
		&sqlitex.ExecOptions{Args: []any{
			u.RelPath, u.Page, u.FitMode, u.RightToLeft, u.DualPage, u.Finished, s.now().Unix(),
		}})
	if err != nil {
		return fmt.Errorf("save progress for %s: %w", u.RelPath, err)
	}
	s.log.Debug("Saved progress", zap.String("book", u.RelPath), zap.Int("page", u.Page), zap.Bool("finished", u.Finished))
	return nil
}

// Progress returns the stored progress of a book
func (s *SQLite) Progress(relpath string) (models.ProgressUpdate, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		p     models.ProgressUpdate
		found bool
	)
	err := sqlitex.Execute(s.conn, `
		SELECT page, fit_mode, rtl, dual, finished FROM progress WHERE relpath = ?`,
		&sqlitex.ExecOptions{
			Args: []any{relpath},
			ResultFunc: func(stmt *sqlite.Stmt) error {
				p = models.ProgressUpdate{
					RelPath:     relpath,
					Page:        int(stmt.ColumnInt64(0)),
					FitMode:     stmt.ColumnText(1),
					RightToLeft: stmt.ColumnInt64(2) != 0,
					DualPage:    stmt.ColumnInt64(3) != 0,
					Finished:    stmt.ColumnInt64(4) != 0,
				}
				found = true
				return nil
			},
		})
	if err != nil {
		return p, false, fmt.Errorf("load progress for %s: %w", relpath, err)
	}
	return p, found, nil
}

var (
	_ comic.PositionStore  = (*SQLite)(nil)
	_ comic.ProgressSyncer = (*SQLite)(nil)
)
