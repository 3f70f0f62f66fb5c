package client

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/yourusername/winsync/internal/logging"
	"github.com/yourusername/winsync/internal/models"
	"github.com/yourusername/winsync/internal/native"
	"github.com/yourusername/winsync/internal/types"
)

// Remote is a native.Window served by a window server. Getters read a local
// mirror kept current by pushed events and by the state returned from every
// call; edges are re-emitted locally after the mirror is updated.
type Remote struct {
	native.Listeners

	client  *Client
	timeout time.Duration

	mu     sync.Mutex
	mirror models.WindowState
}

var _ native.Window = (*Remote)(nil)

// NewRemote subscribes to c's events and seeds the mirror
func NewRemote(ctx context.Context, c *Client, timeout time.Duration) (*Remote, error) {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	r := &Remote{client: c, timeout: timeout}
	c.OnEvent(r.handleEvent)

	st, err := c.Describe(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to describe remote window: %w", err)
	}
	r.apply(st)
	return r, nil
}

func (r *Remote) handleEvent(ev *models.Event) {
	var st models.WindowState
	if err := models.Decode(ev.Data, &st); err != nil {
		logging.Warn().Err(err).Str("event", ev.EventType).Msg("bad window event")
		return
	}
	r.apply(st)

	if edge, ok := types.ParseEdge(ev.EventType); ok {
		r.Emit(edge)
	}
}

// apply replaces the mirror unless st is older
func (r *Remote) apply(st models.WindowState) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if st.Seq >= r.mirror.Seq {
		r.mirror = st
	}
}

// Info returns the mirrored state
func (r *Remote) Info() native.Info {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.mirror.Info
}

func (r *Remote) Size() types.Vec2        { return r.Info().Size }
func (r *Remote) MinimumSize() types.Vec2 { return r.Info().MinimumSize }
func (r *Remote) Position() types.Vec2    { return r.Info().Position }
func (r *Remote) Resizable() bool         { return r.Info().Resizable }
func (r *Remote) IsMaximized() bool       { return r.Info().Maximized }
func (r *Remote) IsMinimized() bool       { return r.Info().Minimized }
func (r *Remote) IsFullScreen() bool      { return r.Info().FullScreen }

func (r *Remote) call(method string, params map[string]interface{}) error {
	ctx, cancel := context.WithTimeout(context.Background(), r.timeout)
	defer cancel()

	result, err := r.client.CallMethod(ctx, method, params)
	if err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}

	var st models.WindowState
	if err := models.Decode(result, &st); err != nil {
		return fmt.Errorf("%s: %w", method, err)
	}
	r.apply(st)
	return nil
}

func (r *Remote) SetSize(size types.Vec2) error {
	return r.call(models.MethodSetSize, map[string]interface{}{"size": size})
}

func (r *Remote) SetMinimumSize(size types.Vec2) error {
	return r.call(models.MethodSetMinimumSize, map[string]interface{}{"size": size})
}

func (r *Remote) SetResizable(resizable bool) error {
	return r.call(models.MethodSetResizable, map[string]interface{}{"resizable": resizable})
}

func (r *Remote) Maximize() error   { return r.call(models.MethodMaximize, nil) }
func (r *Remote) Unmaximize() error { return r.call(models.MethodUnmaximize, nil) }
func (r *Remote) Minimize() error   { return r.call(models.MethodMinimize, nil) }
func (r *Remote) Restore() error    { return r.call(models.MethodRestore, nil) }

func (r *Remote) SetFullScreen(fullscreen bool) error {
	return r.call(models.MethodSetFullScreen, map[string]interface{}{"fullScreen": fullscreen})
}

// Refresh re-reads the whole window state from the server
func (r *Remote) Refresh(ctx context.Context) error {
	st, err := r.client.Describe(ctx)
	if err != nil {
		return err
	}
	r.apply(st)
	return nil
}
