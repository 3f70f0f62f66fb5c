package windowinfo

import (
	"fmt"

	"github.com/yourusername/winsync/internal/types"
)

// Mode is the session kind. State is only meaningful in edit mode.
type Mode struct {
	Kind  types.ModeKind     `json:"kind"`
	State types.DisplayState `json:"state,omitempty"`
}

// String returns "widget" or "edit(<state>)"
func (m Mode) String() string {
	if m.Kind == types.ModeEdit {
		return fmt.Sprintf("edit(%s)", m.State)
	}
	return string(m.Kind)
}

// WindowInfo is the reconciled snapshot handed to presentation code
type WindowInfo struct {
	Size        types.Vec2         `json:"size"`
	MinimumSize types.Vec2         `json:"minimumSize"`
	Position    types.Vec2         `json:"position"`
	Resizable   bool               `json:"resizable"`
	State       types.DisplayState `json:"state"`
	LastState   types.DisplayState `json:"lastState"`
	Mode        Mode               `json:"mode"`
}

// ActionType names an action
type ActionType string

const (
	ActionSetSize        ActionType = "set-size"
	ActionSetMinimumSize ActionType = "set-minimum-size"
	ActionSetState       ActionType = "set-state"
	ActionSetResizable   ActionType = "set-resizable"
	ActionSetWindowMode  ActionType = "set-window-mode"
	ActionResync         ActionType = "resync"
)

// Action is an intent dispatched by presentation code
type Action interface {
	Type() ActionType
	Detail() string
}

// SetSize resizes the window, lowering the minimum if needed
type SetSize struct{ Value types.Vec2 }

// SetMinimumSize changes the minimum, growing the window if needed
type SetMinimumSize struct{ Value types.Vec2 }

// SetState drives the display state. Only valid in edit mode.
type SetState struct{ Value types.DisplayState }

// SetResizable toggles user resizing
type SetResizable struct{ Value bool }

// SetWindowMode switches between widget and edit mode
type SetWindowMode struct{ Kind types.ModeKind }

// Resync re-reads every tracked quantity from the window
type Resync struct{}

func (SetSize) Type() ActionType        { return ActionSetSize }
func (SetMinimumSize) Type() ActionType { return ActionSetMinimumSize }
func (SetState) Type() ActionType       { return ActionSetState }
func (SetResizable) Type() ActionType   { return ActionSetResizable }
func (SetWindowMode) Type() ActionType  { return ActionSetWindowMode }
func (Resync) Type() ActionType         { return ActionResync }

func (a SetSize) Detail() string        { return a.Value.String() }
func (a SetMinimumSize) Detail() string { return a.Value.String() }
func (a SetState) Detail() string       { return string(a.Value) }
func (a SetResizable) Detail() string   { return fmt.Sprint(a.Value) }
func (a SetWindowMode) Detail() string  { return string(a.Kind) }
func (Resync) Detail() string           { return "" }
