// Package frame provides the shared scheduler tick. Every poll feed and the
// command queue register a task here instead of running their own timers,
// so a process wakes once per frame no matter how many quantities it tracks.
package frame

import (
	"context"
	"sort"
	"sync"
	"time"
)

// DefaultInterval is one frame at 60Hz
const DefaultInterval = 16 * time.Millisecond

// TaskID identifies a registered task
type TaskID uint64

// Scheduler runs registered tasks once per tick
type Scheduler interface {
	Register(fn func()) TaskID
	Unregister(id TaskID)
}

// registry is the fixed task table shared by Loop and Manual
type registry struct {
	mu     sync.Mutex
	nextID TaskID
	tasks  map[TaskID]func()
}

func (r *registry) Register(fn func()) TaskID {
	r.mu.Lock()
	defer r.mu.Unlock()
	if r.tasks == nil {
		r.tasks = make(map[TaskID]func())
	}
	r.nextID++
	r.tasks[r.nextID] = fn
	return r.nextID
}

func (r *registry) Unregister(id TaskID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.tasks, id)
}

// Len returns the number of registered tasks
func (r *registry) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.tasks)
}

// snapshot returns the tasks in registration order
func (r *registry) snapshot() []func() {
	r.mu.Lock()
	defer r.mu.Unlock()
	ids := make([]TaskID, 0, len(r.tasks))
	for id := range r.tasks {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]func(), len(ids))
	for i, id := range ids {
		fns[i] = r.tasks[id]
	}
	return fns
}

func (r *registry) runTick() {
	for _, fn := range r.snapshot() {
		fn()
	}
}

// Loop drives tasks from a time.Ticker
type Loop struct {
	registry
	interval time.Duration

	startOnce sync.Once
	stopOnce  sync.Once
	stop      chan struct{}
	done      chan struct{}
}

// NewLoop creates a loop ticking every interval (DefaultInterval when zero)
func NewLoop(interval time.Duration) *Loop {
	if interval <= 0 {
		interval = DefaultInterval
	}
	return &Loop{
		interval: interval,
		stop:     make(chan struct{}),
		done:     make(chan struct{}),
	}
}

// Interval returns the tick interval
func (l *Loop) Interval() time.Duration {
	return l.interval
}

// Start begins ticking until ctx is done or Stop is called
func (l *Loop) Start(ctx context.Context) {
	l.startOnce.Do(func() {
		go l.run(ctx)
	})
}

func (l *Loop) run(ctx context.Context) {
	defer close(l.done)
	ticker := time.NewTicker(l.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.stop:
			return
		case <-ticker.C:
			l.runTick()
		}
	}
}

// Stop halts the loop and waits for the current tick to finish.
// Safe to call more than once, and before Start.
func (l *Loop) Stop() {
	l.stopOnce.Do(func() { close(l.stop) })
	// never started: nothing to wait for
	l.startOnce.Do(func() { close(l.done) })
	<-l.done
}

// Manual runs tasks only when Tick is called. Tests use it to step frames.
type Manual struct {
	registry
	ticks int
}

// NewManual creates a manual scheduler
func NewManual() *Manual {
	return &Manual{}
}

// Tick runs every registered task once, synchronously
func (m *Manual) Tick() {
	m.mu.Lock()
	m.ticks++
	m.mu.Unlock()
	m.runTick()
}

// Ticks returns how many times Tick was called
func (m *Manual) Ticks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ticks
}
