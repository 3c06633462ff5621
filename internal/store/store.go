// Package store persists the small amount of state that needs to survive
// a restart: the active account's credentials, the last volume level, and
// the tracklist the player loop was running when the process exited.
// Grounded on the teacher's internal/state package (WAL-journal sqlite
// opened via modernc.org/sqlite, path resolved with adrg/xdg, debounced
// writes via time.AfterFunc) and on the JSON-blob-in-column pattern used
// for structured data by the amp example's internal/storage package.
package store

import (
	"database/sql"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/adrg/xdg"
	_ "modernc.org/sqlite" // sqlite driver

	"github.com/llehouerou/qobuz-player-go/internal/tracklist"
)

const (
	appName      = "qobuz-player"
	dbFileName   = "qobuz-player.db"
	saveDebounce = 500 * time.Millisecond
)

// Store owns the sqlite connection and debounces tracklist writes so a
// burst of queue edits (reorder, add, remove) collapses into a single
// disk write.
type Store struct {
	db *sql.DB

	saveMu    sync.Mutex
	saveTimer *time.Timer
	pending   *tracklist.Tracklist
}

// Open resolves the database path under the user's XDG data directory,
// creating its parent directory and schema if needed.
func Open() (*Store, error) {
	path, err := xdg.DataFile(filepath.Join(appName, dbFileName))
	if err != nil {
		return nil, err
	}
	return OpenAt(path)
}

// OpenAt opens (creating if absent) the sqlite database at path.
func OpenAt(path string) (*Store, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, err
		}
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA foreign_keys = ON",
	}
	for _, p := range pragmas {
		if _, err := db.Exec(p); err != nil {
			db.Close()
			return nil, err
		}
	}

	if err := initSchema(db); err != nil {
		db.Close()
		return nil, err
	}

	return &Store{db: db}, nil
}

// Close flushes any pending debounced tracklist write and closes the
// underlying connection.
func (s *Store) Close() error {
	s.saveMu.Lock()
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	pending := s.pending
	s.pending = nil
	s.saveMu.Unlock()

	if pending != nil {
		_ = saveTracklist(s.db, pending)
	}
	return s.db.Close()
}

// DB exposes the underlying connection for callers that need it directly
// (migrations, diagnostics).
func (s *Store) DB() *sql.DB { return s.db }

// SetVolume persists the output volume level immediately; volume changes
// are already serialized through the player loop's set_volume command, so
// no debouncing is needed here.
func (s *Store) SetVolume(v float32) error {
	_, err := s.db.Exec(`
		INSERT INTO config (id, volume) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET volume = excluded.volume
	`, v)
	return err
}

// GetVolume returns the last persisted volume, or 1.0 if none was saved.
func (s *Store) GetVolume() (float32, error) {
	var v sql.NullFloat64
	row := s.db.QueryRow(`SELECT volume FROM config WHERE id = 1`)
	err := row.Scan(&v)
	if err == sql.ErrNoRows || !v.Valid {
		return 1, nil
	}
	if err != nil {
		return 0, err
	}
	return float32(v.Float64), nil
}

// SetTracklist schedules a debounced write of tl so that a rapid sequence
// of queue edits collapses into one disk write.
func (s *Store) SetTracklist(tl *tracklist.Tracklist) error {
	s.saveMu.Lock()
	defer s.saveMu.Unlock()

	s.pending = tl
	if s.saveTimer != nil {
		s.saveTimer.Stop()
	}
	s.saveTimer = time.AfterFunc(saveDebounce, func() {
		s.saveMu.Lock()
		pending := s.pending
		s.pending = nil
		s.saveMu.Unlock()

		if pending != nil {
			_ = saveTracklist(s.db, pending)
		}
	})
	return nil
}

// GetTracklist returns the most recently persisted tracklist (written
// after SetTracklist's debounce, or on Close), or nil if none was saved.
func (s *Store) GetTracklist() (*tracklist.Tracklist, error) {
	return loadTracklist(s.db)
}
