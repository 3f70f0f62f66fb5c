package feed

import (
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/winsync/internal/frame"
	"github.com/yourusername/winsync/internal/invariant"
	"github.com/yourusername/winsync/internal/lifecycle"
)

// source is a hand-driven external value
type source struct {
	mu     sync.Mutex
	value  int
	notify func()
	reads  int
	torn   int
}

func (s *source) set(v int) {
	s.mu.Lock()
	s.value = v
	s.mu.Unlock()
	s.notify()
}

func (s *source) sample() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reads++
	return s.value
}

func newSourceFeed(s *source, opts ...Option) *Feed[int] {
	return New(func(notify func()) Source[int] {
		s.notify = notify
		return Source[int]{
			Sample:   s.sample,
			Teardown: func() { s.torn++ },
		}
	}, opts...)
}

func TestNew_SeedsValueEagerly(t *testing.T) {
	s := &source{value: 7}
	f := newSourceFeed(s)

	assert.Equal(t, 7, f.Value())
	assert.Equal(t, 1, s.reads)
}

func TestNew_SetupMayNotifyInline(t *testing.T) {
	s := &source{value: 3}
	created := make(chan *Feed[int], 1)
	go func() {
		created <- New(func(notify func()) Source[int] {
			s.notify = notify
			notify() // an emitter replaying its state on subscribe
			return Source[int]{Sample: s.sample}
		})
	}()

	var f *Feed[int]
	select {
	case f = <-created:
	case <-time.After(time.Second):
		t.Fatal("New blocked when setup notified synchronously")
	}
	assert.Equal(t, 3, f.Value())

	var got []int
	f.AddListener(func(v int) { got = append(got, v) })
	s.set(4)
	assert.Equal(t, []int{4}, got)
}

func TestNotify_DeduplicatesEqualValues(t *testing.T) {
	s := &source{value: 1}
	f := newSourceFeed(s)

	var got []int
	f.AddListener(func(v int) { got = append(got, v) })

	s.set(2)
	s.set(2)
	s.notify()
	s.set(2)

	assert.Equal(t, []int{2}, got)
	assert.Equal(t, 2, f.Value())
}

func TestNotify_ListenersInRegistrationOrder(t *testing.T) {
	s := &source{}
	f := newSourceFeed(s)

	var order []string
	f.AddListener(func(int) { order = append(order, "first") })
	f.AddListener(func(int) { order = append(order, "second") })
	f.AddListener(func(int) { order = append(order, "third") })

	s.set(1)
	assert.Equal(t, []string{"first", "second", "third"}, order)
}

func TestNotify_CustomCompare(t *testing.T) {
	var notify func()
	value := 10
	f := New(func(n func()) Source[int] {
		notify = n
		return Source[int]{
			Sample: func() int { return value },
			// equal when in the same bucket of ten
			Compare: func(a, b int) bool { return a/10 == b/10 },
		}
	})

	calls := 0
	f.AddListener(func(int) { calls++ })

	value = 15
	notify()
	assert.Equal(t, 0, calls)
	assert.Equal(t, 10, f.Value())

	value = 21
	notify()
	assert.Equal(t, 1, calls)
	assert.Equal(t, 21, f.Value())
}

func TestRemoveListener_Idempotent(t *testing.T) {
	s := &source{}
	f := newSourceFeed(s)

	calls := 0
	id := f.AddListener(func(int) { calls++ })
	f.RemoveListener(id)
	f.RemoveListener(id)
	f.RemoveListener(999)

	s.set(3)
	assert.Equal(t, 0, calls)
	assert.Equal(t, 0, f.Listeners())
}

func TestListener_CanReadValue(t *testing.T) {
	s := &source{}
	f := newSourceFeed(s)

	var seen int
	f.AddListener(func(int) { seen = f.Value() })
	s.set(42)
	assert.Equal(t, 42, seen)
}

func TestTeardown_Idempotent(t *testing.T) {
	hooks := lifecycle.NewHooks()
	s := &source{}
	f := newSourceFeed(s, WithHooks(hooks))
	require.Equal(t, 1, hooks.Len())

	calls := 0
	f.AddListener(func(int) { calls++ })

	f.Teardown()
	f.Teardown()

	assert.Equal(t, 1, s.torn)
	assert.Equal(t, 0, hooks.Len(), "teardown should deregister its exit hook")
	assert.Equal(t, 0, f.Listeners())

	s.set(5)
	assert.Equal(t, 0, calls, "no notifications after teardown")
}

func TestTeardown_RunByExitHooks(t *testing.T) {
	hooks := lifecycle.NewHooks()
	s := &source{}
	newSourceFeed(s, WithHooks(hooks))

	hooks.Run()
	assert.Equal(t, 1, s.torn)
}

func TestSingleListener_DoubleSubscribePanics(t *testing.T) {
	s := &source{}
	f := newSourceFeed(s, SingleListener(), WithName("info"))
	f.AddListener(func(int) {})

	defer func() {
		r := recover()
		_, ok := r.(*invariant.Violation)
		assert.True(t, ok, "expected invariant violation, got %v", r)
	}()
	f.AddListener(func(int) {})
}

func TestPoll_SamplesEachTick(t *testing.T) {
	sched := frame.NewManual()
	value := 1
	f := Poll(sched, func() int { return value })

	var got []int
	f.AddListener(func(v int) { got = append(got, v) })

	sched.Tick()
	value = 2
	sched.Tick()
	sched.Tick()
	value = 3
	sched.Tick()

	assert.Equal(t, []int{2, 3}, got)
}

func TestPoll_TeardownStopsPolling(t *testing.T) {
	sched := frame.NewManual()
	samples := 0
	f := Poll(sched, func() int { samples++; return 0 })
	require.Equal(t, 1, sched.Len())

	f.Teardown()
	f.Teardown()
	assert.Equal(t, 0, sched.Len())

	before := samples
	sched.Tick()
	assert.Equal(t, before, samples)
}

func TestLocal_SetNotifiesOnChange(t *testing.T) {
	l := NewLocal("normal")

	var got []string
	l.AddListener(func(v string) { got = append(got, v) })

	l.Set("normal")
	l.Set("maximized")
	l.Set("maximized")
	l.Set("normal")

	assert.Equal(t, []string{"maximized", "normal"}, got)
	assert.Equal(t, "normal", l.Value())
}

func TestSnapshot_SubscribeAndDetach(t *testing.T) {
	l := NewLocal(0)
	snap := NewSnapshot[int](l)

	calls := 0
	unsubscribe := snap.Subscribe(func() { calls++ })

	l.Set(1)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 1, snap.Value())

	unsubscribe()
	unsubscribe()
	l.Set(2)
	assert.Equal(t, 1, calls)
	assert.Equal(t, 2, snap.Value())
}
