package native

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/winsync/internal/types"
)

// edgeLog records every edge the fake fires
func edgeLog(f *Fake) *[]types.Edge {
	var log []types.Edge
	for _, e := range types.Edges {
		e := e
		f.On(e, func() { log = append(log, e) })
	}
	return &log
}

func TestFake_SetSizeClampsToMinimum(t *testing.T) {
	f := NewFake(types.Vec2{800, 600}, types.Vec2{400, 300})
	log := edgeLog(f)

	require.NoError(t, f.SetSize(types.Vec2{200, 500}))
	assert.Equal(t, types.Vec2{400, 500}, f.Size())
	assert.Equal(t, []types.Edge{types.EdgeResize}, *log)

	require.NoError(t, f.SetSize(types.Vec2{400, 500}))
	assert.Len(t, *log, 1, "no resize edge when size is unchanged")
}

func TestFake_SetMinimumSizeGrowsWindow(t *testing.T) {
	f := NewFake(types.Vec2{800, 600}, types.Vec2{100, 100})
	log := edgeLog(f)

	require.NoError(t, f.SetMinimumSize(types.Vec2{900, 500}))
	assert.Equal(t, types.Vec2{900, 600}, f.Size())
	assert.Equal(t, []types.Edge{types.EdgeResize}, *log)
}

func TestFake_DisplayStateEdges(t *testing.T) {
	f := NewFake(types.Vec2{800, 600}, types.Vec2{1, 1})
	log := edgeLog(f)

	require.NoError(t, f.Maximize())
	require.NoError(t, f.Maximize())
	assert.Equal(t, types.StateMaximized, DisplayState(f))

	require.NoError(t, f.SetFullScreen(true))
	assert.Equal(t, types.StateFullscreen, DisplayState(f))

	require.NoError(t, f.Minimize())
	assert.Equal(t, types.StateMinimized, DisplayState(f))

	require.NoError(t, f.Restore())
	require.NoError(t, f.SetFullScreen(false))
	require.NoError(t, f.Unmaximize())
	assert.Equal(t, types.StateNormal, DisplayState(f))

	assert.Equal(t, []types.Edge{
		types.EdgeMaximize,
		types.EdgeEnterFullScreen,
		types.EdgeMinimize,
		types.EdgeRestore,
		types.EdgeLeaveFullScreen,
		types.EdgeUnmaximize,
	}, *log)
}

func TestFake_HoldAndRelease(t *testing.T) {
	f := NewFake(types.Vec2{800, 600}, types.Vec2{1, 1})
	log := edgeLog(f)

	f.Hold()
	require.NoError(t, f.Maximize())
	require.NoError(t, f.Minimize())

	assert.True(t, f.IsMaximized(), "state applies immediately")
	assert.Empty(t, *log, "edges wait for release")
	assert.Equal(t, []types.Edge{types.EdgeMaximize, types.EdgeMinimize}, f.Held())

	assert.True(t, f.ReleaseOne())
	assert.Equal(t, []types.Edge{types.EdgeMaximize}, *log)

	f.Release()
	assert.Equal(t, []types.Edge{types.EdgeMaximize, types.EdgeMinimize}, *log)
	assert.False(t, f.ReleaseOne())
}

func TestFake_DropAndFailNext(t *testing.T) {
	f := NewFake(types.Vec2{800, 600}, types.Vec2{1, 1})
	log := edgeLog(f)

	f.Drop(types.EdgeMaximize, 1)
	require.NoError(t, f.Maximize())
	assert.Empty(t, *log)
	assert.True(t, f.IsMaximized())

	boom := errors.New("native failure")
	f.FailNext("minimize", boom)
	assert.ErrorIs(t, f.Minimize(), boom)
	assert.False(t, f.IsMinimized())
	require.NoError(t, f.Minimize())

	assert.Equal(t, []string{"maximize", "minimize", "minimize"}, f.Calls())
}

func TestListeners_OnceAndOff(t *testing.T) {
	var l Listeners
	calls := map[string]int{}

	l.Once(types.EdgeMaximize, func() { calls["once"]++ })
	id := l.On(types.EdgeMaximize, func() { calls["on"]++ })

	l.Emit(types.EdgeMaximize)
	l.Emit(types.EdgeMaximize)
	assert.Equal(t, 1, calls["once"])
	assert.Equal(t, 2, calls["on"])

	l.Off(id)
	l.Off(id)
	l.Emit(types.EdgeMaximize)
	assert.Equal(t, 2, calls["on"])
	assert.Equal(t, 0, l.Count(types.EdgeMaximize))
}

func TestDescribe(t *testing.T) {
	f := NewFake(types.Vec2{800, 600}, types.Vec2{640, 480})
	f.Move(types.Vec2{10, 20})

	info := Describe(f)
	assert.Equal(t, types.Vec2{800, 600}, info.Size)
	assert.Equal(t, types.Vec2{640, 480}, info.MinimumSize)
	assert.Equal(t, types.Vec2{10, 20}, info.Position)
	assert.True(t, info.Resizable)
	assert.Equal(t, info, f.Info())
}
