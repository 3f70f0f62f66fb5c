package queue

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/yourusername/winsync/internal/frame"
	"github.com/yourusername/winsync/internal/metrics"
)

// recorder collects executed command names
type recorder struct {
	mu  sync.Mutex
	ran []string
}

func (r *recorder) cmd(name string) RunFunc {
	return func(context.Context) error {
		r.mu.Lock()
		defer r.mu.Unlock()
		r.ran = append(r.ran, name)
		return nil
	}
}

func (r *recorder) names() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	return append([]string(nil), r.ran...)
}

func TestEnqueue_NonBlockingAndNotRunBeforeTick(t *testing.T) {
	sched := frame.NewManual()
	q := New(sched)
	q.Start(context.Background())
	defer q.Close()

	rec := &recorder{}
	id := q.Enqueue("a", rec.cmd("a"))

	assert.NotEqual(t, uuid.Nil, id)
	assert.Equal(t, 1, q.Len())
	time.Sleep(5 * time.Millisecond)
	assert.Empty(t, rec.names(), "nothing runs until the scheduler ticks")
}

func TestDrain_OneCommandPerTickFIFO(t *testing.T) {
	sched := frame.NewManual()
	q := New(sched)
	q.Start(context.Background())
	defer q.Close()

	rec := &recorder{}
	q.Enqueue("a", rec.cmd("a"))
	q.Enqueue("b", rec.cmd("b"))
	q.Enqueue("c", rec.cmd("c"))

	sched.Tick()
	require.Eventually(t, func() bool { return len(rec.names()) == 1 }, time.Second, time.Millisecond)
	time.Sleep(5 * time.Millisecond)
	assert.Equal(t, []string{"a"}, rec.names())

	sched.Tick()
	require.Eventually(t, func() bool { return len(rec.names()) == 2 }, time.Second, time.Millisecond)
	sched.Tick()
	require.Eventually(t, func() bool { return len(rec.names()) == 3 }, time.Second, time.Millisecond)

	assert.Equal(t, []string{"a", "b", "c"}, rec.names())
	assert.Equal(t, 0, q.Len())
}

func TestDrain_SecondCommandWaitsForFirstToComplete(t *testing.T) {
	sched := frame.NewManual()
	q := New(sched)
	q.Start(context.Background())
	defer q.Close()

	release := make(chan struct{})
	started := make(chan struct{})
	rec := &recorder{}

	q.Enqueue("slow", func(ctx context.Context) error {
		close(started)
		<-release
		return rec.cmd("slow")(ctx)
	})
	q.Enqueue("next", rec.cmd("next"))

	sched.Tick()
	<-started

	for i := 0; i < 5; i++ {
		sched.Tick()
	}
	time.Sleep(5 * time.Millisecond)
	assert.Empty(t, rec.names(), "next must not start while slow is running")
	assert.Equal(t, 1, q.Len())

	close(release)
	sched.Tick()
	require.Eventually(t, func() bool { return len(rec.names()) == 2 }, time.Second, time.Millisecond)
	assert.Equal(t, []string{"slow", "next"}, rec.names())
}

func TestFlush_WaitsForEarlierCommands(t *testing.T) {
	loop := frame.NewLoop(time.Millisecond)
	loop.Start(context.Background())
	defer loop.Stop()

	q := New(loop)
	q.Start(context.Background())
	defer q.Close()

	rec := &recorder{}
	for _, name := range []string{"a", "b", "c"} {
		q.Enqueue(name, rec.cmd(name))
	}

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, q.Flush(ctx))
	assert.Equal(t, []string{"a", "b", "c"}, rec.names())
}

func TestFlush_NotReportedOrCounted(t *testing.T) {
	loop := frame.NewLoop(time.Millisecond)
	loop.Start(context.Background())
	defer loop.Stop()

	c := metrics.New(prometheus.NewRegistry())
	q := New(loop, WithMetrics(c))
	q.Start(context.Background())
	defer q.Close()

	var mu sync.Mutex
	var reported []string
	q.OnResult(func(r Result) {
		mu.Lock()
		defer mu.Unlock()
		reported = append(reported, r.Name)
	})

	rec := &recorder{}
	q.Enqueue("a", rec.cmd("a"))

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	require.NoError(t, q.Flush(ctx))
	require.NoError(t, q.Flush(ctx))

	mu.Lock()
	assert.Equal(t, []string{"a"}, reported)
	mu.Unlock()
	assert.Equal(t, 1.0, testutil.ToFloat64(c.Commands.WithLabelValues("a", "ok")))
	assert.Equal(t, 1, testutil.CollectAndCount(c.Commands), "no series for the flush marker")
}

func TestFlush_ContextTimeout(t *testing.T) {
	q := New(frame.NewManual())
	q.Start(context.Background())
	defer q.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Millisecond)
	defer cancel()
	assert.ErrorIs(t, q.Flush(ctx), context.DeadlineExceeded)
}

func TestOnResult_ReportsErrors(t *testing.T) {
	sched := frame.NewManual()
	q := New(sched)

	results := make(chan Result, 2)
	q.OnResult(func(r Result) { results <- r })
	q.Start(context.Background())
	defer q.Close()

	boom := errors.New("boom")
	q.Enqueue("fails", func(context.Context) error { return boom })
	sched.Tick()

	select {
	case r := <-results:
		assert.Equal(t, "fails", r.Name)
		assert.ErrorIs(t, r.Err, boom)
	case <-time.After(time.Second):
		t.Fatal("no result reported")
	}
}

func TestClose_DropsPendingAndRejectsNewWork(t *testing.T) {
	sched := frame.NewManual()
	q := New(sched)
	q.Start(context.Background())

	rec := &recorder{}
	q.Enqueue("a", rec.cmd("a"))
	q.Close()
	q.Close()

	assert.Equal(t, 0, q.Len())
	assert.Equal(t, uuid.Nil, q.Enqueue("b", rec.cmd("b")))
	assert.ErrorIs(t, q.Flush(context.Background()), ErrClosed)
	assert.Equal(t, 0, sched.Len(), "tick task unregistered")

	sched.Tick()
	assert.Empty(t, rec.names())
}

func TestClose_BeforeStart(t *testing.T) {
	q := New(frame.NewManual())
	done := make(chan struct{})
	go func() {
		q.Close()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Close blocked on a queue that never started")
	}
}
