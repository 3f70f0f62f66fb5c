// Package journal records window transitions in a SQLite database so a run can
// be inspected after the fact with `winsync journal`.
package journal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	_ "modernc.org/sqlite" // pure go sqlite driver
)

const (
	// DefaultJournalDir is the directory under $HOME for the journal
	DefaultJournalDir = ".local/state/winsync"
	// DefaultJournalFile is the journal database name
	DefaultJournalFile = "journal.db"
)

// Entry is one recorded command outcome
type Entry struct {
	Seq       int64     `json:"seq"`
	At        time.Time `json:"at"`
	Action    string    `json:"action"`
	Detail    string    `json:"detail,omitempty"`
	Mode      string    `json:"mode"`
	FromState string    `json:"fromState"`
	ToState   string    `json:"toState"`
	Size      string    `json:"size"`
	Status    string    `json:"status"`
	Error     string    `json:"error,omitempty"`
}

// Recorder receives entries. *Journal implements it; a nil Recorder is allowed
// wherever one is optional.
type Recorder interface {
	Record(ctx context.Context, e Entry) error
}

// Journal is a SQLite-backed Recorder
type Journal struct {
	db   *sql.DB
	mu   sync.Mutex
	path string
}

// GetJournalPath returns the default journal location
func GetJournalPath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, DefaultJournalDir, DefaultJournalFile)
}

// Open opens (creating if needed) the journal at path. ":memory:" keeps it in memory.
func Open(path string) (*Journal, error) {
	if path == "" {
		path = GetJournalPath()
	}
	if path != ":memory:" {
		if err := os.MkdirAll(filepath.Dir(path), 0o750); err != nil && !errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create dirs: %w", err)
		}
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("open sqlite: %w", err)
	}
	// a single connection keeps ":memory:" databases shared between calls
	db.SetMaxOpenConns(1)

	if _, err := db.Exec(`CREATE TABLE IF NOT EXISTS transitions (
		seq INTEGER PRIMARY KEY AUTOINCREMENT,
		at INTEGER NOT NULL,
		action TEXT NOT NULL,
		detail TEXT NOT NULL DEFAULT '',
		mode TEXT NOT NULL,
		from_state TEXT NOT NULL,
		to_state TEXT NOT NULL,
		size TEXT NOT NULL,
		status TEXT NOT NULL,
		error TEXT NOT NULL DEFAULT ''
	)`); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("create transitions table: %w", err)
	}
	return &Journal{db: db, path: path}, nil
}

// Path returns the database location
func (j *Journal) Path() string {
	return j.path
}

// Record appends e. A zero At is stamped with the current time.
func (j *Journal) Record(ctx context.Context, e Entry) error {
	if e.At.IsZero() {
		e.At = time.Now()
	}
	j.mu.Lock()
	defer j.mu.Unlock()

	_, err := j.db.ExecContext(ctx, `INSERT INTO transitions
		(at, action, detail, mode, from_state, to_state, size, status, error)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		e.At.UnixNano(), e.Action, e.Detail, e.Mode, e.FromState, e.ToState, e.Size, e.Status, e.Error)
	if err != nil {
		return fmt.Errorf("insert transition: %w", err)
	}
	return nil
}

// List returns up to limit entries, newest first. limit <= 0 returns all.
func (j *Journal) List(ctx context.Context, limit int) ([]Entry, error) {
	j.mu.Lock()
	defer j.mu.Unlock()

	query := `SELECT seq, at, action, detail, mode, from_state, to_state, size, status, error
		FROM transitions ORDER BY seq DESC`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := j.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("select transitions: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var entries []Entry
	for rows.Next() {
		var e Entry
		var at int64
		if err := rows.Scan(&e.Seq, &at, &e.Action, &e.Detail, &e.Mode, &e.FromState, &e.ToState, &e.Size, &e.Status, &e.Error); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		e.At = time.Unix(0, at)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate transitions: %w", err)
	}
	return entries, nil
}

// Clear deletes every entry
func (j *Journal) Clear(ctx context.Context) error {
	j.mu.Lock()
	defer j.mu.Unlock()
	if _, err := j.db.ExecContext(ctx, `DELETE FROM transitions`); err != nil {
		return fmt.Errorf("clear transitions: %w", err)
	}
	return nil
}

// Close closes the database
func (j *Journal) Close() error {
	return j.db.Close()
}
