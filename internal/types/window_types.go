package types

import (
	"fmt"
	"strconv"
	"strings"
)

// Vec2 is a (width, height) or (x, y) pair in pixels
type Vec2 [2]int

// W returns the first component
func (v Vec2) W() int { return v[0] }

// H returns the second component
func (v Vec2) H() int { return v[1] }

// Min returns the per-dimension minimum of v and o
func (v Vec2) Min(o Vec2) Vec2 {
	return Vec2{min(v[0], o[0]), min(v[1], o[1])}
}

// Max returns the per-dimension maximum of v and o
func (v Vec2) Max(o Vec2) Vec2 {
	return Vec2{max(v[0], o[0]), max(v[1], o[1])}
}

// Covers reports whether v is at least o in both dimensions
func (v Vec2) Covers(o Vec2) bool {
	return v[0] >= o[0] && v[1] >= o[1]
}

// String formats as "WxH"
func (v Vec2) String() string {
	return fmt.Sprintf("%dx%d", v[0], v[1])
}

// ParseVec2 parses "800x600" or "800,600"
func ParseVec2(s string) (Vec2, error) {
	s = strings.TrimSpace(s)
	sep := "x"
	if strings.Contains(s, ",") {
		sep = ","
	}
	parts := strings.Split(s, sep)
	if len(parts) != 2 {
		return Vec2{}, fmt.Errorf("invalid size format: %q (want WxH)", s)
	}
	w, err := strconv.Atoi(strings.TrimSpace(parts[0]))
	if err != nil {
		return Vec2{}, fmt.Errorf("invalid width %q: %w", parts[0], err)
	}
	h, err := strconv.Atoi(strings.TrimSpace(parts[1]))
	if err != nil {
		return Vec2{}, fmt.Errorf("invalid height %q: %w", parts[1], err)
	}
	return Vec2{w, h}, nil
}

// DisplayState is the fine-grained display condition of a window
type DisplayState string

const (
	StateNormal     DisplayState = "normal"
	StateMaximized  DisplayState = "maximized"
	StateMinimized  DisplayState = "minimized"
	StateFullscreen DisplayState = "fullscreen"
)

// DisplayStates lists every known display state
var DisplayStates = []DisplayState{StateNormal, StateMaximized, StateMinimized, StateFullscreen}

// String returns the string representation of a DisplayState
func (s DisplayState) String() string {
	return string(s)
}

// Valid reports whether s is one of the known display states
func (s DisplayState) Valid() bool {
	for _, known := range DisplayStates {
		if s == known {
			return true
		}
	}
	return false
}

// Transient reports whether s is a state the window returns from
// rather than one worth returning to.
func (s DisplayState) Transient() bool {
	return s == StateMinimized
}

// ParseDisplayState converts a string to DisplayState
func ParseDisplayState(s string) (DisplayState, bool) {
	ds := DisplayState(strings.ToLower(strings.TrimSpace(s)))
	return ds, ds.Valid()
}

// ModeKind is the coarse session kind
type ModeKind string

const (
	ModeWidget ModeKind = "widget"
	ModeEdit   ModeKind = "edit"
)

// ParseModeKind converts a string to ModeKind
func ParseModeKind(s string) (ModeKind, bool) {
	switch ModeKind(strings.ToLower(strings.TrimSpace(s))) {
	case ModeWidget:
		return ModeWidget, true
	case ModeEdit:
		return ModeEdit, true
	default:
		return "", false
	}
}

// Edge is a native notification fired when the window crosses into a new condition
type Edge string

const (
	EdgeResize          Edge = "resize"
	EdgeMaximize        Edge = "maximize"
	EdgeUnmaximize      Edge = "unmaximize"
	EdgeMinimize        Edge = "minimize"
	EdgeRestore         Edge = "restore"
	EdgeEnterFullScreen Edge = "enter-full-screen"
	EdgeLeaveFullScreen Edge = "leave-full-screen"
)

// Edges lists every edge event
var Edges = []Edge{
	EdgeResize,
	EdgeMaximize,
	EdgeUnmaximize,
	EdgeMinimize,
	EdgeRestore,
	EdgeEnterFullScreen,
	EdgeLeaveFullScreen,
}

// StateEdges are the edges that change the display state
var StateEdges = Edges[1:]

// ParseEdge converts a string to Edge
func ParseEdge(s string) (Edge, bool) {
	for _, e := range Edges {
		if string(e) == s {
			return e, true
		}
	}
	return "", false
}
