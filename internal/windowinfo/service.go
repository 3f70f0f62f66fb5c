// Package windowinfo keeps a native window in agreement with what the
// presentation layer asked for. Intents are queued and executed one at a time;
// each native transition is awaited on its edge event. Observations flow the
// other way through change feeds into a single WindowInfo snapshot.
package windowinfo

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/yourusername/winsync/internal/feed"
	"github.com/yourusername/winsync/internal/frame"
	"github.com/yourusername/winsync/internal/journal"
	"github.com/yourusername/winsync/internal/lifecycle"
	"github.com/yourusername/winsync/internal/logging"
	"github.com/yourusername/winsync/internal/metrics"
	"github.com/yourusername/winsync/internal/native"
	"github.com/yourusername/winsync/internal/queue"
	"github.com/yourusername/winsync/internal/state"
	"github.com/yourusername/winsync/internal/types"
)

// DefaultWidgetSize is the window size in widget mode
var DefaultWidgetSize = types.Vec2{320, 240}

// Options configures a Service. Every field is optional.
type Options struct {
	// Scheduler drives the queue and poll feeds. A Loop at FrameInterval
	// is created and owned by the service when nil.
	Scheduler     frame.Scheduler
	FrameInterval time.Duration
	// Hooks receives feed teardowns and the service's own Dispose.
	Hooks          *lifecycle.Hooks
	ConfirmTimeout time.Duration
	WidgetSize     types.Vec2
	// Session persists mode and edit geometry. An unsaved in-memory session is
	// used when nil.
	Session *state.Session
	Journal journal.Recorder
	Metrics *metrics.Collectors
}

// Service is the window state machine
type Service struct {
	win     native.Window
	opts    Options
	session *state.Session
	queue   *queue.Queue
	confirm *confirmer
	loop    *frame.Loop // set when the service owns its scheduler

	size      *feed.Feed[types.Vec2]
	minSize   *feed.Feed[types.Vec2]
	position  *feed.Feed[types.Vec2]
	resizable *feed.Feed[bool]
	state     *feed.Feed[types.DisplayState]
	mode      *feed.Local[types.ModeKind]
	lastState *feed.Local[types.DisplayState]
	info      *feed.Feed[WindowInfo]
	snapshot  *feed.Snapshot[WindowInfo]

	observed types.DisplayState // previous state feed value, owned by the tracker listener
	trackID  feed.ListenerID

	mu   sync.Mutex
	once map[string]struct{}

	disposeOnce sync.Once
	hookID      lifecycle.HookID
}

// Create captures the window's current condition and builds the feeds.
// Call Start to begin executing dispatched actions.
func Create(win native.Window, opts Options) (*Service, error) {
	if win == nil {
		return nil, errors.New("windowinfo: nil window")
	}
	if opts.ConfirmTimeout <= 0 {
		opts.ConfirmTimeout = DefaultConfirmTimeout
	}
	if opts.WidgetSize == (types.Vec2{}) {
		opts.WidgetSize = DefaultWidgetSize
	}
	if opts.Hooks == nil {
		opts.Hooks = lifecycle.NewHooks()
	}

	s := &Service{
		win:     win,
		opts:    opts,
		session: opts.Session,
		once:    make(map[string]struct{}),
		confirm: &confirmer{win: win, timeout: opts.ConfirmTimeout, metrics: opts.Metrics},
	}
	if s.session == nil {
		s.session = state.NewSession("")
	}
	if opts.Scheduler == nil {
		s.loop = frame.NewLoop(opts.FrameInterval)
		s.opts.Scheduler = s.loop
	}

	// registered before any feed so the queue stops before feeds tear down
	s.hookID = opts.Hooks.Add(s.Dispose)

	s.queue = queue.New(s.opts.Scheduler, queue.WithMetrics(opts.Metrics))

	s.buildFeeds()
	return s, nil
}

func (s *Service) buildFeeds() {
	hooks := feed.WithHooks(s.opts.Hooks)
	sched := s.opts.Scheduler

	s.size = feed.New[types.Vec2](func(notify func()) feed.Source[types.Vec2] {
		id := s.win.On(types.EdgeResize, notify)
		return feed.Source[types.Vec2]{
			Sample:   s.win.Size,
			Teardown: func() { s.win.Off(id) },
		}
	}, feed.WithName("size"), hooks)

	s.state = feed.New[types.DisplayState](func(notify func()) feed.Source[types.DisplayState] {
		ids := make([]native.ListenerID, 0, len(types.StateEdges))
		for _, e := range types.StateEdges {
			ids = append(ids, s.win.On(e, notify))
		}
		return feed.Source[types.DisplayState]{
			Sample: func() types.DisplayState { return native.DisplayState(s.win) },
			Teardown: func() {
				for _, id := range ids {
					s.win.Off(id)
				}
			},
		}
	}, feed.WithName("state"), hooks)

	// no change events for these
	s.minSize = feed.Poll(sched, s.win.MinimumSize, feed.WithName("minimumSize"), hooks)
	s.resizable = feed.Poll(sched, s.win.Resizable, feed.WithName("resizable"), hooks)
	s.position = feed.Poll(sched, s.win.Position, hooks)

	sess := s.session.Snapshot()
	mode := types.ModeEdit
	if sess.Mode == types.ModeWidget {
		mode = types.ModeWidget
	}
	last := sess.LastState
	if !last.Valid() || last.Transient() {
		last = types.StateNormal
	}
	s.mode = feed.NewLocal(mode, feed.WithName("mode"), hooks)
	s.lastState = feed.NewLocal(last, feed.WithName("lastState"), hooks)

	// tracker runs before the composite listener so lastState is current
	// when the snapshot is recomposed
	s.observed = s.state.Value()
	s.trackID = s.state.AddListener(s.trackLastState)

	s.info = feed.New[WindowInfo](func(notify func()) feed.Source[WindowInfo] {
		detach := []func(){
			watch(s.size, notify),
			watch(s.minSize, notify),
			watch(s.position, notify),
			watch(s.resizable, notify),
			watch(s.state, notify),
			watch(s.mode.Feed, notify),
			watch(s.lastState.Feed, notify),
		}
		return feed.Source[WindowInfo]{
			Sample: s.compose,
			Teardown: func() {
				for _, fn := range detach {
					fn()
				}
			},
		}
	}, hooks)
	s.snapshot = feed.NewSnapshot[WindowInfo](s.info)
}

func watch[T comparable](f *feed.Feed[T], notify func()) func() {
	id := f.AddListener(func(T) { notify() })
	return func() { f.RemoveListener(id) }
}

// trackLastState remembers the state the window left, unless it was
// transient. Frozen in widget mode.
func (s *Service) trackLastState(next types.DisplayState) {
	prev := s.observed
	s.observed = next
	if s.mode.Value() != types.ModeEdit || prev.Transient() {
		return
	}
	s.lastState.Set(prev)
}

func (s *Service) compose() WindowInfo {
	info := WindowInfo{
		Size:        s.size.Value(),
		MinimumSize: s.minSize.Value(),
		Position:    s.position.Value(),
		Resizable:   s.resizable.Value(),
		State:       s.state.Value(),
		LastState:   s.lastState.Value(),
		Mode:        Mode{Kind: s.mode.Value()},
	}
	if info.Mode.Kind == types.ModeEdit {
		info.Mode.State = info.State
	}
	return info
}

// Start begins draining dispatched actions
func (s *Service) Start(ctx context.Context) {
	if s.loop != nil {
		s.loop.Start(ctx)
	}
	s.queue.Start(ctx)
	logging.Info().
		Str("mode", string(s.mode.Value())).
		Str("state", string(s.state.Value())).
		Str("size", s.size.Value().String()).
		Msg("window sync started")
}

// Dispose stops the queue, tears down every feed and saves the session.
// Safe to call more than once.
func (s *Service) Dispose() {
	s.disposeOnce.Do(func() {
		s.opts.Hooks.Remove(s.hookID)
		s.queue.Close()
		if s.loop != nil {
			s.loop.Stop()
		}

		s.saveSession()

		s.info.Teardown()
		s.state.RemoveListener(s.trackID)
		s.size.Teardown()
		s.state.Teardown()
		s.minSize.Teardown()
		s.resizable.Teardown()
		s.position.Teardown()
		s.mode.Teardown()
		s.lastState.Teardown()
		logging.Debug().Msg("window sync disposed")
	})
}

// Snapshot returns the pull-based view of WindowInfo
func (s *Service) Snapshot() *feed.Snapshot[WindowInfo] {
	return s.snapshot
}

// Value returns the current WindowInfo
func (s *Service) Value() WindowInfo {
	return s.info.Value()
}

// Dispatch queues a and returns immediately. The returned id is uuid.Nil
// after Dispose.
func (s *Service) Dispatch(a Action) uuid.UUID {
	return s.queue.Enqueue(string(a.Type()), func(ctx context.Context) error {
		return s.execute(ctx, a)
	})
}

// DispatchOnce dispatches a the first time key is seen and reports whether it
// did. Forget(key) allows it again.
func (s *Service) DispatchOnce(key string, a Action) bool {
	s.mu.Lock()
	if _, ok := s.once[key]; ok {
		s.mu.Unlock()
		return false
	}
	s.once[key] = struct{}{}
	s.mu.Unlock()

	return s.Dispatch(a) != uuid.Nil
}

// Forget clears a DispatchOnce key
func (s *Service) Forget(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.once, key)
}

// Flush waits until every action dispatched before the call has run
func (s *Service) Flush(ctx context.Context) error {
	return s.queue.Flush(ctx)
}

// OnResult registers fn to receive the outcome of every executed action
func (s *Service) OnResult(fn func(queue.Result)) {
	s.queue.OnResult(fn)
}

// Pending returns the number of queued actions
func (s *Service) Pending() int {
	return s.queue.Len()
}

func (s *Service) execute(ctx context.Context, a Action) error {
	before := s.Value()
	err := s.run(ctx, a)

	var ce *ConfirmError
	if errors.As(err, &ce) {
		// the window is somewhere we did not ask for; believe the getters
		logging.Warn().
			Str("action", string(a.Type())).
			Str("edge", string(ce.Edge)).
			Str("status", ce.Status.String()).
			Msg("transition not confirmed, resyncing")
		s.resync()
	} else {
		s.refreshPolled()
	}

	s.saveSession()
	s.record(ctx, a, before, err)
	return err
}

// refreshPolled resamples the quantities that have no change event so the
// snapshot is current as soon as a command finishes
func (s *Service) refreshPolled() {
	s.minSize.Refresh()
	s.resizable.Refresh()
	s.position.Refresh()
}

func (s *Service) resync() {
	s.size.Refresh()
	s.state.Refresh()
	s.refreshPolled()
}

func (s *Service) saveSession() {
	mode, last := s.mode.Value(), s.lastState.Value()
	s.session.Update(func(sess *state.Session) {
		sess.Mode = mode
		sess.LastState = last
	})
	if err := s.session.Save(); err != nil {
		logging.Warn().Err(err).Str("path", s.session.Path()).Msg("failed to save session")
	}
}

func (s *Service) record(ctx context.Context, a Action, before WindowInfo, err error) {
	if s.opts.Journal == nil {
		return
	}
	after := s.Value()
	e := journal.Entry{
		Action:    string(a.Type()),
		Detail:    a.Detail(),
		Mode:      after.Mode.String(),
		FromState: string(before.State),
		ToState:   string(after.State),
		Size:      after.Size.String(),
		Status:    StatusOk.String(),
	}
	if err != nil {
		e.Status = "error"
		var ce *ConfirmError
		if errors.As(err, &ce) {
			e.Status = ce.Status.String()
		}
		e.Error = err.Error()
	}
	// the command ctx may already be done when the queue is stopping
	if rerr := s.opts.Journal.Record(context.WithoutCancel(ctx), e); rerr != nil {
		logging.Warn().Err(rerr).Msg("failed to record transition")
	}
}
