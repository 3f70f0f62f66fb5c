// Package feed provides observable change feeds: values sampled from an
// external resource (or set locally) whose listeners are notified only when
// the value actually changes.
//
// A Feed is created once per tracked quantity and torn down once. Consumers
// attach and detach listeners; they never own the feed.
//
//	size := feed.New(func(notify func()) feed.Source[types.Vec2] {
//		id := win.On(types.EdgeResize, notify)
//		return feed.Source[types.Vec2]{
//			Sample:   win.Size,
//			Teardown: func() { win.Off(id) },
//		}
//	})
package feed
