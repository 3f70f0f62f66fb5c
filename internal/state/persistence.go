package state

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/yourusername/winsync/internal/types"
)

const (
	// DefaultStateDir is the directory under $HOME for state files
	DefaultStateDir = ".local/state/winsync"
	// DefaultStateFile is the session file name
	DefaultStateFile = "session.json"
)

// GetStatePath returns the full path to the session file
func GetStatePath() string {
	home, _ := os.UserHomeDir()
	return filepath.Join(home, DefaultStateDir, DefaultStateFile)
}

// LoadSession loads the session from the default path
func LoadSession() (*Session, error) {
	return LoadSessionFrom(GetStatePath())
}

// LoadSessionFrom loads a session from a specific path, creating a new one if
// the file doesn't exist
func LoadSessionFrom(path string) (*Session, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return NewSession(path), nil
		}
		return nil, fmt.Errorf("failed to read session file: %w", err)
	}

	var s Session
	if err := json.Unmarshal(data, &s); err != nil {
		return nil, fmt.Errorf("failed to parse session file: %w", err)
	}
	s.path = path

	if s.Version < SessionVersion {
		migrateSession(&s)
	}

	// Drop values written by a newer or corrupted build
	if _, ok := types.ParseModeKind(string(s.Mode)); !ok {
		s.Mode = types.ModeEdit
	}
	if !s.LastState.Valid() || s.LastState.Transient() {
		s.LastState = types.StateNormal
	}

	return &s, nil
}

// Save persists the session to its path
func (s *Session) Save() error {
	if s.path == "" {
		return nil
	}
	return s.SaveTo(s.path)
}

// SaveTo persists the session to a specific path
func (s *Session) SaveTo(path string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.LastUpdated = time.Now()

	// Ensure directory exists
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create state directory: %w", err)
	}

	data, err := json.MarshalIndent(s, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal session: %w", err)
	}

	// Write atomically using temp file + rename
	tmpPath := path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0644); err != nil {
		return fmt.Errorf("failed to write session file: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("failed to rename session file: %w", err)
	}

	return nil
}

// Reset clears the session and saves it
func (s *Session) Reset() error {
	s.mu.Lock()
	s.Mode = types.ModeEdit
	s.LastState = types.StateNormal
	s.EditSize = types.Vec2{}
	s.EditMinimumSize = types.Vec2{}
	s.mu.Unlock()

	return s.Save()
}

// migrateSession handles migration from older session versions
func migrateSession(s *Session) {
	// Version 0 files predate the version field; nothing else changed
	s.Version = SessionVersion
}
