package feed

import "github.com/yourusername/winsync/internal/frame"

// Poll creates a feed for a quantity with no native change signal. It samples
// once per scheduler tick; teardown unregisters the tick task exactly once.
func Poll[T comparable](sched frame.Scheduler, sample func() T, opts ...Option) *Feed[T] {
	return New(func(notify func()) Source[T] {
		id := sched.Register(notify)
		return Source[T]{
			Sample:   sample,
			Teardown: func() { sched.Unregister(id) },
		}
	}, opts...)
}
