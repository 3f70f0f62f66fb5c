package output

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/fatih/color"
	"github.com/stretchr/testify/assert"

	"github.com/yourusername/winsync/internal/journal"
	"github.com/yourusername/winsync/internal/state"
	"github.com/yourusername/winsync/internal/types"
	"github.com/yourusername/winsync/internal/windowinfo"
)

func init() {
	color.NoColor = true
}

var sample = windowinfo.WindowInfo{
	Size:        types.Vec2{800, 600},
	MinimumSize: types.Vec2{400, 300},
	Position:    types.Vec2{12, 34},
	Resizable:   true,
	State:       types.StateMaximized,
	LastState:   types.StateNormal,
	Mode:        windowinfo.Mode{Kind: types.ModeEdit, State: types.StateMaximized},
}

func TestPrintWindowInfo(t *testing.T) {
	var buf bytes.Buffer
	PrintWindowInfo(&buf, sample)
	out := buf.String()

	for _, want := range []string{"edit(maximized)", "800x600", "400x300", "(12, 34)", "yes", "normal"} {
		assert.Contains(t, out, want)
	}
}

func TestPrintJournal(t *testing.T) {
	var buf bytes.Buffer
	PrintJournal(&buf, []journal.Entry{
		{Seq: 2, At: time.Now(), Action: "set-state", Detail: "fullscreen", Mode: "edit(normal)", FromState: "normal", ToState: "normal", Size: "800x600", Status: "timed_out", Error: "confirm enter-full-screen: timed_out"},
		{Seq: 1, At: time.Now(), Action: "set-state", Detail: "maximized", Mode: "edit(maximized)", FromState: "normal", ToState: "maximized", Size: "800x600", Status: "ok"},
	})
	out := buf.String()

	assert.Contains(t, out, "normal -> maximized")
	assert.Contains(t, out, "timed_out")
	assert.Contains(t, out, "#2: confirm enter-full-screen: timed_out")
	assert.NotContains(t, out, "#1:")
}

func TestPrintJournalEmpty(t *testing.T) {
	var buf bytes.Buffer
	PrintJournal(&buf, nil)
	assert.Equal(t, "No transitions recorded\n", buf.String())
}

func TestPrintSession(t *testing.T) {
	sess := state.NewSession("/tmp/session.json")
	sess.Update(func(s *state.Session) {
		s.Mode = types.ModeWidget
		s.EditSize = types.Vec2{1024, 768}
		s.EditMinimumSize = types.Vec2{800, 600}
	})

	var buf bytes.Buffer
	PrintSession(&buf, sess)
	out := buf.String()

	assert.Contains(t, out, "Session: /tmp/session.json")
	assert.Contains(t, out, "Mode: widget")
	assert.Contains(t, out, "Edit Size: 1024x768")
}

func TestSketchWindow(t *testing.T) {
	sketch := SketchWindow(sample, SketchOptions{MaxWidth: 41, MaxHeight: 16})
	lines := strings.Split(strings.TrimRight(sketch, "\n"), "\n")

	// 800 wide scaled to 40 columns, 600 tall to 15 rows
	assert.Len(t, lines, 15)
	assert.Equal(t, "+"+strings.Repeat("-", 38)+"+", lines[0])
	assert.Contains(t, sketch, "800x600 maximized")
	// minimum size outline
	assert.Contains(t, sketch, "....")
}

func TestSketchWindowTooSmall(t *testing.T) {
	assert.Equal(t, "[800x600]\n", SketchWindow(sample, SketchOptions{MaxWidth: 5, MaxHeight: 2}))
}

func TestTruncate(t *testing.T) {
	assert.Equal(t, "short", truncate("short", 10))
	assert.Equal(t, "abcdefg...", truncate("abcdefghijklmnop", 10))
}
