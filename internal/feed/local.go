package feed

import "sync"

// Local is a feed whose value is only ever set by this process. Set runs the
// same compare-then-notify path as a sampled feed.
type Local[T comparable] struct {
	*Feed[T]

	mu      sync.Mutex
	pending T
	notify  func()
}

// NewLocal creates a local feed holding initial
func NewLocal[T comparable](initial T, opts ...Option) *Local[T] {
	l := &Local[T]{pending: initial}
	l.Feed = New(func(notify func()) Source[T] {
		l.notify = notify
		return Source[T]{
			Sample: func() T {
				l.mu.Lock()
				defer l.mu.Unlock()
				return l.pending
			},
		}
	}, opts...)
	return l
}

// Set stores v and notifies listeners if it differs from the current value
func (l *Local[T]) Set(v T) {
	l.mu.Lock()
	l.pending = v
	l.mu.Unlock()
	l.notify()
}
