package state

import (
	"sync"
	"time"

	"github.com/yourusername/winsync/internal/types"
)

const (
	// SessionVersion is the current session file format version
	SessionVersion = 1
)

// Session is what survives between runs: the mode the window was left in,
// the edit state to return to, and the edit geometry to restore when leaving
// widget mode.
type Session struct {
	Version         int                `json:"version"`
	Mode            types.ModeKind     `json:"mode"`
	LastState       types.DisplayState `json:"lastState"`
	EditSize        types.Vec2         `json:"editSize"`
	EditMinimumSize types.Vec2         `json:"editMinimumSize"`
	LastUpdated     time.Time          `json:"lastUpdated"`

	path string     `json:"-"`
	mu   sync.Mutex `json:"-"` // For thread-safe access (not serialized)
}

// NewSession creates an empty session bound to path
func NewSession(path string) *Session {
	return &Session{
		Version:     SessionVersion,
		Mode:        types.ModeEdit,
		LastState:   types.StateNormal,
		LastUpdated: time.Now(),
		path:        path,
	}
}

// Path returns the file the session saves to
func (s *Session) Path() string {
	return s.path
}

// HasEditGeometry reports whether an edit size was ever recorded
func (s *Session) HasEditGeometry() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.EditSize != (types.Vec2{})
}

// Snapshot returns a copy of the persisted fields
func (s *Session) Snapshot() Session {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Session{
		Version:         s.Version,
		Mode:            s.Mode,
		LastState:       s.LastState,
		EditSize:        s.EditSize,
		EditMinimumSize: s.EditMinimumSize,
		LastUpdated:     s.LastUpdated,
		path:            s.path,
	}
}

// Update applies fn under the session lock and bumps LastUpdated
func (s *Session) Update(fn func(s *Session)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s)
	s.LastUpdated = time.Now()
}
