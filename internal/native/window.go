// Package native describes the windowing substrate the engine drives.
package native

import "github.com/yourusername/winsync/internal/types"

// ListenerID identifies an edge listener registered with On or Once
type ListenerID uint64

// Handler is called when an edge fires
type Handler func()

// Window is the capability set of an external window handle.
// Getters are synchronous. Setters request a change; the change is confirmed
// later by the matching edge event.
type Window interface {
	Size() types.Vec2
	MinimumSize() types.Vec2
	Position() types.Vec2
	Resizable() bool
	IsMaximized() bool
	IsMinimized() bool
	IsFullScreen() bool

	SetSize(size types.Vec2) error
	SetMinimumSize(size types.Vec2) error
	SetResizable(resizable bool) error
	Maximize() error
	Unmaximize() error
	Minimize() error
	Restore() error
	SetFullScreen(fullscreen bool) error

	On(edge types.Edge, fn Handler) ListenerID
	Once(edge types.Edge, fn Handler) ListenerID
	Off(id ListenerID)
}

// DisplayState derives the display state from the window's getters.
// Minimized wins over fullscreen, which wins over maximized.
func DisplayState(w Window) types.DisplayState {
	switch {
	case w.IsMinimized():
		return types.StateMinimized
	case w.IsFullScreen():
		return types.StateFullscreen
	case w.IsMaximized():
		return types.StateMaximized
	default:
		return types.StateNormal
	}
}

// Info is a plain copy of every getter, used on the wire and in tests
type Info struct {
	Size        types.Vec2 `json:"size"`
	MinimumSize types.Vec2 `json:"minimumSize"`
	Position    types.Vec2 `json:"position"`
	Resizable   bool       `json:"resizable"`
	Maximized   bool       `json:"maximized"`
	Minimized   bool       `json:"minimized"`
	FullScreen  bool       `json:"fullScreen"`
}

// Describe reads every getter of w
func Describe(w Window) Info {
	return Info{
		Size:        w.Size(),
		MinimumSize: w.MinimumSize(),
		Position:    w.Position(),
		Resizable:   w.Resizable(),
		Maximized:   w.IsMaximized(),
		Minimized:   w.IsMinimized(),
		FullScreen:  w.IsFullScreen(),
	}
}
