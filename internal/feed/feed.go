package feed

import (
	"sync"

	"github.com/yourusername/winsync/internal/invariant"
	"github.com/yourusername/winsync/internal/lifecycle"
	"github.com/yourusername/winsync/internal/logging"
)

// ListenerID identifies an attached listener
type ListenerID uint64

// Source is what a setup function hands back to its feed.
type Source[T comparable] struct {
	// Sample reads the current value. It is called once at creation and
	// again on every notify. A panicking Sample is a programming error.
	Sample func() T
	// Compare reports whether two values are equal. Defaults to ==.
	Compare func(a, b T) bool
	// Teardown undoes whatever setup registered.
	Teardown func()
}

// SetupFunc arranges for notify to be called whenever the value might have changed.
type SetupFunc[T comparable] func(notify func()) Source[T]

// Observable is the listener half of a feed
type Observable[T any] interface {
	AddListener(fn func(T)) ListenerID
	RemoveListener(id ListenerID)
	Value() T
}

type listener[T any] struct {
	id ListenerID
	fn func(T)
}

type options struct {
	name   string
	hooks  *lifecycle.Hooks
	single bool
}

// Option configures a feed
type Option func(*options)

// WithName labels the feed in log output
func WithName(name string) Option {
	return func(o *options) { o.name = name }
}

// WithHooks registers the feed's teardown with the process exit hooks
func WithHooks(h *lifecycle.Hooks) Option {
	return func(o *options) { o.hooks = h }
}

// SingleListener makes a second concurrent AddListener an invariant violation
func SingleListener() Option {
	return func(o *options) { o.single = true }
}

// Feed is a de-duplicated change feed over a sampled value.
//
// Notifications are serialized: a listener must not synchronously trigger
// notify on the feed that is calling it.
type Feed[T comparable] struct {
	emitMu sync.Mutex // serializes sample/compare/deliver

	mu        sync.Mutex // guards the fields below
	value     T
	listeners []listener[T]
	nextID    ListenerID
	seeded    bool
	torn      bool

	sample   func() T
	compare  func(a, b T) bool
	teardown func()

	opts     options
	hookID   lifecycle.HookID
	tearOnce sync.Once
}

// New creates a feed. setup is called exactly once, then Sample is read to
// seed the value. setup may call notify, even synchronously; notifications
// that arrive before the seed are covered by it.
func New[T comparable](setup SetupFunc[T], opts ...Option) *Feed[T] {
	f := &Feed[T]{}
	for _, opt := range opts {
		opt(&f.opts)
	}

	src := setup(f.notify)
	invariant.Assert(src.Sample != nil, "feed source has no Sample")

	f.emitMu.Lock()
	f.sample = src.Sample
	f.compare = src.Compare
	if f.compare == nil {
		f.compare = func(a, b T) bool { return a == b }
	}
	f.teardown = src.Teardown
	seed := f.sample()
	f.mu.Lock()
	f.value = seed
	f.seeded = true
	f.mu.Unlock()
	f.emitMu.Unlock()

	if f.opts.hooks != nil {
		f.hookID = f.opts.hooks.Add(f.Teardown)
	}
	return f
}

// Value returns the last sampled value
func (f *Feed[T]) Value() T {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.value
}

// AddListener attaches fn and returns its id. Listeners run in registration order.
func (f *Feed[T]) AddListener(fn func(T)) ListenerID {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.opts.single {
		invariant.Assert(len(f.listeners) == 0, "feed "+f.opts.name+" listener already exists")
	}
	if f.torn {
		return 0
	}
	f.nextID++
	f.listeners = append(f.listeners, listener[T]{id: f.nextID, fn: fn})
	return f.nextID
}

// RemoveListener detaches a listener. Unknown ids are ignored.
func (f *Feed[T]) RemoveListener(id ListenerID) {
	f.mu.Lock()
	defer f.mu.Unlock()

	for i, l := range f.listeners {
		if l.id == id {
			f.listeners = append(f.listeners[:i:i], f.listeners[i+1:]...)
			return
		}
	}
}

// Listeners returns the number of attached listeners
func (f *Feed[T]) Listeners() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.listeners)
}

// Refresh re-samples the value as if the source had called notify
func (f *Feed[T]) Refresh() {
	f.notify()
}

func (f *Feed[T]) notify() {
	f.emitMu.Lock()
	defer f.emitMu.Unlock()

	f.mu.Lock()
	if f.torn || !f.seeded {
		f.mu.Unlock()
		return
	}
	old := f.value
	f.mu.Unlock()

	next := f.sample()
	if f.compare(old, next) {
		return
	}

	f.mu.Lock()
	f.value = next
	fns := make([]func(T), len(f.listeners))
	for i, l := range f.listeners {
		fns[i] = l.fn
	}
	f.mu.Unlock()

	if f.opts.name != "" {
		logging.Debug().
			Str("feed", f.opts.name).
			Interface("old", old).
			Interface("new", next).
			Msg("feed changed")
	}

	for _, fn := range fns {
		fn(next)
	}
}

// Teardown removes every listener, runs the source teardown and drops the
// exit hook. Safe to call more than once.
func (f *Feed[T]) Teardown() {
	f.tearOnce.Do(func() {
		f.mu.Lock()
		f.torn = true
		f.listeners = nil
		f.mu.Unlock()

		if f.teardown != nil {
			f.teardown()
		}
		if f.opts.hooks != nil {
			f.opts.hooks.Remove(f.hookID)
		}
	})
}
