// Package queue serializes mutations of the external window. Commands run one
// at a time on a single drain goroutine; at most one command is popped per
// scheduler tick and it runs to completion (including any confirmation wait)
// before the next pop.
package queue

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/winsync/internal/frame"
	"github.com/yourusername/winsync/internal/logging"
	"github.com/yourusername/winsync/internal/metrics"
)

// ErrClosed is returned by Flush after Close
var ErrClosed = errors.New("command queue closed")

// RunFunc performs one mutation of the external resource
type RunFunc func(ctx context.Context) error

// Command is one queued mutation
type Command struct {
	ID       uuid.UUID
	Name     string
	Run      RunFunc
	Enqueued time.Time

	sentinel bool // Flush marker: no metrics, logs or result hooks
}

// Result is reported for every executed command
type Result struct {
	ID       uuid.UUID
	Name     string
	Err      error
	Duration time.Duration
}

// Option configures a Queue
type Option func(*Queue)

// WithMetrics records depth and outcomes in c
func WithMetrics(c *metrics.Collectors) Option {
	return func(q *Queue) { q.metrics = c }
}

// Queue is a FIFO of commands drained once per tick
type Queue struct {
	mu       sync.Mutex
	commands []Command
	closed   bool
	onResult []func(Result)

	sched   frame.Scheduler
	taskID  frame.TaskID
	signal  chan struct{} // tick signal (buffered, size 1)
	stop    chan struct{}
	done    chan struct{}
	metrics *metrics.Collectors

	startOnce sync.Once
	closeOnce sync.Once
}

// New creates a queue driven by sched
func New(sched frame.Scheduler, opts ...Option) *Queue {
	q := &Queue{
		commands: make([]Command, 0, 16),
		sched:    sched,
		signal:   make(chan struct{}, 1),
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
	for _, opt := range opts {
		opt(q)
	}
	return q
}

// OnResult registers fn to receive every command result, on the drain goroutine
func (q *Queue) OnResult(fn func(Result)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	q.onResult = append(q.onResult, fn)
}

// Enqueue appends a command and returns immediately. Returns uuid.Nil if the
// queue is closed.
func (q *Queue) Enqueue(name string, run RunFunc) uuid.UUID {
	return q.enqueue(Command{Name: name, Run: run})
}

func (q *Queue) enqueue(cmd Command) uuid.UUID {
	q.mu.Lock()
	if q.closed {
		q.mu.Unlock()
		logging.Warn().Str("command", cmd.Name).Msg("enqueue on closed queue")
		return uuid.Nil
	}

	cmd.ID = uuid.New()
	cmd.Enqueued = time.Now()
	q.commands = append(q.commands, cmd)
	depth := len(q.commands)
	q.mu.Unlock()

	q.metrics.SetQueueDepth(depth)
	if !cmd.sentinel {
		logging.Debug().
			Str("command", cmd.Name).
			Str("id", cmd.ID.String()).
			Int("depth", depth).
			Msg("command enqueued")
	}
	return cmd.ID
}

// Len returns the number of waiting commands
func (q *Queue) Len() int {
	q.mu.Lock()
	defer q.mu.Unlock()
	return len(q.commands)
}

// Start begins draining. Commands receive ctx; cancelling it stops the drain
// loop after the running command returns.
func (q *Queue) Start(ctx context.Context) {
	q.startOnce.Do(func() {
		q.taskID = q.sched.Register(q.tick)
		go q.run(ctx)
	})
}

// tick signals availability (non-blocking - buffer of 1 coalesces ticks)
func (q *Queue) tick() {
	select {
	case q.signal <- struct{}{}:
	default:
	}
}

func (q *Queue) run(ctx context.Context) {
	defer close(q.done)
	for {
		select {
		case <-ctx.Done():
			return
		case <-q.stop:
			return
		case <-q.signal:
			if cmd, ok := q.tryDequeue(); ok {
				q.execute(ctx, cmd)
			}
		}
	}
}

func (q *Queue) tryDequeue() (Command, bool) {
	q.mu.Lock()
	if len(q.commands) == 0 {
		q.mu.Unlock()
		return Command{}, false
	}

	cmd := q.commands[0]
	// Nil out the slot so the closure can be collected
	q.commands[0] = Command{}
	if len(q.commands) == 1 {
		q.commands = q.commands[:0]
	} else {
		q.commands = q.commands[1:]
	}
	depth := len(q.commands)
	q.mu.Unlock()

	q.metrics.SetQueueDepth(depth)
	return cmd, true
}

func (q *Queue) execute(ctx context.Context, cmd Command) {
	if cmd.sentinel {
		cmd.Run(ctx)
		return
	}

	start := time.Now()
	err := cmd.Run(ctx)
	res := Result{ID: cmd.ID, Name: cmd.Name, Err: err, Duration: time.Since(start)}

	q.metrics.ObserveCommand(cmd.Name, err, res.Duration)
	if err != nil {
		logging.Warn().
			Err(err).
			Str("command", cmd.Name).
			Str("id", cmd.ID.String()).
			Dur("took", res.Duration).
			Msg("command failed")
	} else {
		logging.Debug().
			Str("command", cmd.Name).
			Str("id", cmd.ID.String()).
			Dur("took", res.Duration).
			Msg("command done")
	}

	q.mu.Lock()
	hooks := append([]func(Result){}, q.onResult...)
	q.mu.Unlock()
	for _, fn := range hooks {
		fn(res)
	}
}

// Flush waits until every command enqueued before the call has finished.
func (q *Queue) Flush(ctx context.Context) error {
	done := make(chan struct{})
	id := q.enqueue(Command{
		Name:     "flush",
		sentinel: true,
		Run: func(context.Context) error {
			close(done)
			return nil
		},
	})
	if id == uuid.Nil {
		return ErrClosed
	}

	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-q.done:
		return ErrClosed
	case <-done:
		return nil
	}
}

// Close stops draining and drops pending commands. It waits for a running
// command to finish. Safe to call more than once.
func (q *Queue) Close() {
	q.closeOnce.Do(func() {
		q.mu.Lock()
		q.closed = true
		dropped := len(q.commands)
		q.commands = nil
		q.mu.Unlock()

		if dropped > 0 {
			logging.Warn().Int("dropped", dropped).Msg("queue closed with pending commands")
		}
		q.metrics.SetQueueDepth(0)

		close(q.stop)
		started := true
		q.startOnce.Do(func() {
			started = false
			close(q.done)
		})
		if started {
			q.sched.Unregister(q.taskID)
		}
		<-q.done
	})
}
