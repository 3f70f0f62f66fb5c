package windowinfo

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/winsync/internal/native"
	"github.com/yourusername/winsync/internal/types"
)

func maximizeStep(win *native.Fake) step {
	return step{
		edge:      types.EdgeMaximize,
		satisfied: win.IsMaximized,
		call:      win.Maximize,
	}
}

func TestConfirmAlreadySatisfied(t *testing.T) {
	win := native.NewFakeFrom(native.Info{Size: types.Vec2{10, 10}, Maximized: true})
	c := &confirmer{win: win, timeout: time.Second}

	res := c.confirm(context.Background(), maximizeStep(win))
	assert.Equal(t, StatusOk, res.Status)
	assert.NoError(t, res.AsError())
	assert.Empty(t, win.Calls())
	assert.Zero(t, win.Count(types.EdgeMaximize))
}

func TestConfirmEdgeFires(t *testing.T) {
	win := native.NewFake(types.Vec2{10, 10}, types.Vec2{})
	c := &confirmer{win: win, timeout: time.Second}

	res := c.confirm(context.Background(), maximizeStep(win))
	assert.Equal(t, StatusOk, res.Status)
	assert.Equal(t, []string{"maximize"}, win.Calls())
	assert.Zero(t, win.Count(types.EdgeMaximize))
}

func TestConfirmTimesOut(t *testing.T) {
	win := native.NewFake(types.Vec2{10, 10}, types.Vec2{})
	win.Drop(types.EdgeMaximize, 1)
	c := &confirmer{win: win, timeout: 20 * time.Millisecond}

	res := c.confirm(context.Background(), maximizeStep(win))
	assert.Equal(t, StatusTimedOut, res.Status)
	assert.GreaterOrEqual(t, res.Took, 20*time.Millisecond)
	assert.Zero(t, win.Count(types.EdgeMaximize), "one-shot listener must be removed")

	err := res.AsError()
	assert.ErrorIs(t, err, ErrConfirmTimeout)
	assert.EqualError(t, err, "confirm maximize: timed_out: confirmation timed out")
}

func TestConfirmTimeoutCoversSlowCall(t *testing.T) {
	win := native.NewFake(types.Vec2{10, 10}, types.Vec2{})
	c := &confirmer{win: win, timeout: 50 * time.Millisecond}

	res := c.confirm(context.Background(), step{
		edge:      types.EdgeMaximize,
		satisfied: win.IsMaximized,
		call: func() error {
			time.Sleep(80 * time.Millisecond)
			return nil
		},
	})
	assert.Equal(t, StatusTimedOut, res.Status)
	assert.GreaterOrEqual(t, res.Took, 80*time.Millisecond)
	assert.Less(t, res.Took, 125*time.Millisecond, "no fresh timeout after the call returns")
}

func TestConfirmEdgeDuringSlowCallWins(t *testing.T) {
	win := native.NewFake(types.Vec2{10, 10}, types.Vec2{})
	c := &confirmer{win: win, timeout: 10 * time.Millisecond}

	res := c.confirm(context.Background(), step{
		edge:      types.EdgeMaximize,
		satisfied: win.IsMaximized,
		call: func() error {
			err := win.Maximize()
			time.Sleep(30 * time.Millisecond)
			return err
		},
	})
	assert.Equal(t, StatusOk, res.Status)
}

func TestConfirmCancelled(t *testing.T) {
	win := native.NewFake(types.Vec2{10, 10}, types.Vec2{})
	win.Hold()
	c := &confirmer{win: win, timeout: time.Minute}

	ctx, cancel := context.WithCancel(context.Background())
	go func() {
		time.Sleep(10 * time.Millisecond)
		cancel()
	}()

	res := c.confirm(ctx, maximizeStep(win))
	assert.Equal(t, StatusResourceError, res.Status)
	assert.ErrorIs(t, res.AsError(), context.Canceled)
}

func TestSequenceStopsAtFirstFailure(t *testing.T) {
	boom := errors.New("boom")
	win := native.NewFake(types.Vec2{10, 10}, types.Vec2{})
	win.FailNext("minimize", boom)
	c := &confirmer{win: win, timeout: time.Second}

	err := c.sequence(context.Background(),
		step{edge: types.EdgeMinimize, satisfied: win.IsMinimized, call: win.Minimize},
		maximizeStep(win),
	)
	require.Error(t, err)

	var ce *ConfirmError
	require.ErrorAs(t, err, &ce)
	assert.Equal(t, StatusResourceError, ce.Status)
	assert.Equal(t, types.EdgeMinimize, ce.Edge)
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, []string{"minimize"}, win.Calls())
}

func TestStatusString(t *testing.T) {
	assert.Equal(t, "ok", StatusOk.String())
	assert.Equal(t, "timed_out", StatusTimedOut.String())
	assert.Equal(t, "resource_error", StatusResourceError.String())
	assert.Equal(t, "status(9)", Status(9).String())
}
