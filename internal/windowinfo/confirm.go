package windowinfo

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/yourusername/winsync/internal/metrics"
	"github.com/yourusername/winsync/internal/native"
	"github.com/yourusername/winsync/internal/types"
)

// DefaultConfirmTimeout bounds the wait for an edge event
const DefaultConfirmTimeout = 500 * time.Millisecond

// ErrConfirmTimeout is matched by errors.Is for timed out confirmations
var ErrConfirmTimeout = errors.New("confirmation timed out")

// Status is the outcome of a confirmable operation
type Status int

const (
	StatusOk Status = iota
	StatusTimedOut
	StatusResourceError
)

func (s Status) String() string {
	switch s {
	case StatusOk:
		return "ok"
	case StatusTimedOut:
		return "timed_out"
	case StatusResourceError:
		return "resource_error"
	default:
		return fmt.Sprintf("status(%d)", int(s))
	}
}

// Result is what a confirmable operation resolves to
type Result struct {
	Status Status
	Edge   types.Edge
	Err    error
	Took   time.Duration
}

// AsError returns nil for StatusOk and a *ConfirmError otherwise
func (r Result) AsError() error {
	if r.Status == StatusOk {
		return nil
	}
	return &ConfirmError{Status: r.Status, Edge: r.Edge, Err: r.Err}
}

// ConfirmError reports a native transition that was not confirmed
type ConfirmError struct {
	Status Status
	Edge   types.Edge
	Err    error
}

func (e *ConfirmError) Error() string {
	return fmt.Sprintf("confirm %s: %s: %v", e.Edge, e.Status, e.Err)
}

func (e *ConfirmError) Unwrap() error {
	return e.Err
}

// step is one confirmable operation: the condition it drives the window
// into, the native call that does it and the edge that confirms it
type step struct {
	edge      types.Edge
	satisfied func() bool
	call      func() error
}

// confirmer waits for edges on one window
type confirmer struct {
	win     native.Window
	timeout time.Duration
	metrics *metrics.Collectors
}

// confirm resolves immediately if the window already satisfies st. Otherwise
// it listens once for st.edge, issues the call and waits for the edge, the
// timeout or ctx.
func (c *confirmer) confirm(ctx context.Context, st step) Result {
	if st.satisfied() {
		return Result{Status: StatusOk, Edge: st.edge}
	}

	fired := make(chan struct{})
	id := c.win.Once(st.edge, func() { close(fired) })

	start := time.Now()
	res := c.wait(ctx, st, fired)
	res.Took = time.Since(start)
	if res.Status != StatusOk {
		c.win.Off(id)
	}

	c.metrics.ObserveConfirm(string(st.edge), res.Status.String(), res.Took)
	return res
}

// wait issues the call and waits for fired. The timeout covers the call
// itself, so a slow native call spends the same budget as a missing edge.
func (c *confirmer) wait(ctx context.Context, st step, fired <-chan struct{}) Result {
	timer := time.NewTimer(c.timeout)
	defer timer.Stop()

	if err := st.call(); err != nil {
		return Result{Status: StatusResourceError, Edge: st.edge, Err: err}
	}

	// an edge fired during the call wins over a timer that expired meanwhile
	select {
	case <-fired:
		return Result{Status: StatusOk, Edge: st.edge}
	default:
	}

	select {
	case <-fired:
		return Result{Status: StatusOk, Edge: st.edge}
	case <-timer.C:
		return Result{Status: StatusTimedOut, Edge: st.edge, Err: ErrConfirmTimeout}
	case <-ctx.Done():
		return Result{Status: StatusResourceError, Edge: st.edge, Err: ctx.Err()}
	}
}

// sequence runs steps in order and stops at the first unconfirmed one
func (c *confirmer) sequence(ctx context.Context, steps ...step) error {
	for _, st := range steps {
		if err := c.confirm(ctx, st).AsError(); err != nil {
			return err
		}
	}
	return nil
}
