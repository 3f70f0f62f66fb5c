package server

import (
	"context"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/winsync/internal/client"
	"github.com/yourusername/winsync/internal/frame"
	"github.com/yourusername/winsync/internal/models"
	"github.com/yourusername/winsync/internal/native"
	"github.com/yourusername/winsync/internal/types"
	"github.com/yourusername/winsync/internal/windowinfo"
)

// startServer serves win on a short socket path (unix socket paths are length limited)
func startServer(t *testing.T, win native.Window) *Server {
	t.Helper()
	dir, err := os.MkdirTemp("", "ws")
	require.NoError(t, err)
	t.Cleanup(func() { os.RemoveAll(dir) })

	srv := New(win, filepath.Join(dir, "s.sock"), 10*time.Millisecond)
	require.NoError(t, srv.Listen())

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Serve(ctx) }()
	t.Cleanup(func() {
		cancel()
		srv.Close()
		<-done
	})
	return srv
}

func dial(t *testing.T, srv *Server) *client.Client {
	t.Helper()
	c := client.NewClient(srv.Addr(), 2*time.Second)
	require.NoError(t, c.Connect())
	t.Cleanup(func() { c.Close() })
	return c
}

func TestPing(t *testing.T) {
	srv := startServer(t, native.NewFake(types.Vec2{800, 600}, types.Vec2{}))
	c := dial(t, srv)

	result, err := c.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, true, result["pong"])
	assert.Equal(t, Version, result["version"])
}

func TestUnknownMethod(t *testing.T) {
	srv := startServer(t, native.NewFake(types.Vec2{800, 600}, types.Vec2{}))
	c := dial(t, srv)

	_, err := c.CallMethod(context.Background(), "fly", nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown method: fly")
}

func TestInvalidParams(t *testing.T) {
	srv := startServer(t, native.NewFake(types.Vec2{800, 600}, types.Vec2{}))
	c := dial(t, srv)

	_, err := c.CallMethod(context.Background(), models.MethodSetSize, map[string]interface{}{"size": "huge"})
	assert.Error(t, err)
}

func TestDescribe(t *testing.T) {
	win := native.NewFake(types.Vec2{800, 600}, types.Vec2{400, 300})
	require.NoError(t, win.Maximize())
	srv := startServer(t, win)
	c := dial(t, srv)

	st, err := c.Describe(context.Background())
	require.NoError(t, err)
	assert.Equal(t, types.Vec2{800, 600}, st.Info.Size)
	assert.Equal(t, types.Vec2{400, 300}, st.Info.MinimumSize)
	assert.True(t, st.Info.Maximized)
	assert.Positive(t, st.Seq)
}

func TestWindowErrorIsReported(t *testing.T) {
	win := native.NewFake(types.Vec2{800, 600}, types.Vec2{})
	win.FailNext("maximize", assert.AnError)
	srv := startServer(t, win)
	c := dial(t, srv)

	_, err := c.CallMethod(context.Background(), models.MethodMaximize, nil)
	require.Error(t, err)
	assert.Contains(t, err.Error(), assert.AnError.Error())
}

func TestRemoteMirrorsEdgesAndSilentChanges(t *testing.T) {
	win := native.NewFake(types.Vec2{800, 600}, types.Vec2{})
	srv := startServer(t, win)
	c := dial(t, srv)

	remote, err := client.NewRemote(context.Background(), c, time.Second)
	require.NoError(t, err)

	var maximized atomic.Int32
	remote.On(types.EdgeMaximize, func() {
		if remote.IsMaximized() {
			maximized.Add(1)
		}
	})

	// an outside actor maximizes the hosted window
	require.NoError(t, win.Maximize())
	require.Eventually(t, func() bool { return maximized.Load() == 1 }, 2*time.Second, time.Millisecond)

	// no edge for a move; the poll pushes a sync event
	win.Move(types.Vec2{40, 50})
	require.Eventually(t, func() bool {
		return remote.Position() == types.Vec2{40, 50}
	}, 2*time.Second, time.Millisecond)
}

func TestRemoteSetterUpdatesMirror(t *testing.T) {
	win := native.NewFake(types.Vec2{800, 600}, types.Vec2{})
	srv := startServer(t, win)
	c := dial(t, srv)

	remote, err := client.NewRemote(context.Background(), c, time.Second)
	require.NoError(t, err)

	require.NoError(t, remote.SetMinimumSize(types.Vec2{300, 200}))
	assert.Equal(t, types.Vec2{300, 200}, remote.MinimumSize())

	require.NoError(t, remote.SetResizable(false))
	assert.False(t, remote.Resizable())
	assert.False(t, win.Resizable())
}

func TestServiceOverSocket(t *testing.T) {
	win := native.NewFake(types.Vec2{800, 600}, types.Vec2{800, 600})
	srv := startServer(t, win)
	c := dial(t, srv)

	remote, err := client.NewRemote(context.Background(), c, time.Second)
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	loop := frame.NewLoop(time.Millisecond)
	loop.Start(ctx)
	defer loop.Stop()

	svc, err := windowinfo.Create(remote, windowinfo.Options{Scheduler: loop, ConfirmTimeout: 2 * time.Second})
	require.NoError(t, err)
	svc.Start(ctx)
	defer svc.Dispose()

	svc.Dispatch(windowinfo.SetMinimumSize{Value: types.Vec2{900, 700}})
	svc.Dispatch(windowinfo.SetState{Value: types.StateMaximized})

	flushCtx, flushCancel := context.WithTimeout(ctx, 5*time.Second)
	defer flushCancel()
	require.NoError(t, svc.Flush(flushCtx))

	info := svc.Value()
	assert.Equal(t, types.Vec2{900, 700}, info.Size)
	assert.Equal(t, types.Vec2{900, 700}, info.MinimumSize)
	assert.Equal(t, types.StateMaximized, info.State)
	assert.True(t, win.IsMaximized())
}
