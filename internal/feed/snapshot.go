package feed

import "sync"

// Snapshot exposes a feed for pull-based consumers: subscribe for a "something
// changed" signal, then read Value. Consumers never see the compare function or
// the pushed value.
type Snapshot[T any] struct {
	src Observable[T]
}

// NewSnapshot wraps src
func NewSnapshot[T any](src Observable[T]) *Snapshot[T] {
	return &Snapshot[T]{src: src}
}

// Subscribe attaches fn and returns a detach closure. Detaching twice is a no-op.
func (s *Snapshot[T]) Subscribe(fn func()) (unsubscribe func()) {
	id := s.src.AddListener(func(T) { fn() })
	var once sync.Once
	return func() {
		once.Do(func() { s.src.RemoveListener(id) })
	}
}

// Value returns the current snapshot
func (s *Snapshot[T]) Value() T {
	return s.src.Value()
}
