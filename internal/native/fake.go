package native

import (
	"sync"

	"github.com/yourusername/winsync/internal/types"
)

// Fake is an in-memory Window. Setters change state immediately and fire the
// matching edge synchronously, unless the fake is holding edges.
//
// Tests and `winsync serve --fake` both drive it; calling a setter directly
// plays the part of an outside actor (user drag, OS hotkey).
type Fake struct {
	Listeners

	mu      sync.Mutex
	info    Info
	holding bool
	held    []types.Edge
	drops   map[types.Edge]int
	fail    map[string]error
	calls   []string
}

// NewFake creates a fake window with the given geometry
func NewFake(size, minimumSize types.Vec2) *Fake {
	return &Fake{
		info: Info{
			Size:        size.Max(minimumSize),
			MinimumSize: minimumSize,
			Resizable:   true,
		},
		drops: make(map[types.Edge]int),
		fail:  make(map[string]error),
	}
}

// NewFakeFrom creates a fake window from a full Info
func NewFakeFrom(info Info) *Fake {
	f := NewFake(info.Size, info.MinimumSize)
	f.info = info
	return f
}

func (f *Fake) read(fn func(i *Info)) {
	f.mu.Lock()
	defer f.mu.Unlock()
	fn(&f.info)
}

func (f *Fake) Size() (v types.Vec2)        { f.read(func(i *Info) { v = i.Size }); return }
func (f *Fake) MinimumSize() (v types.Vec2) { f.read(func(i *Info) { v = i.MinimumSize }); return }
func (f *Fake) Position() (v types.Vec2)    { f.read(func(i *Info) { v = i.Position }); return }
func (f *Fake) Resizable() (v bool)         { f.read(func(i *Info) { v = i.Resizable }); return }
func (f *Fake) IsMaximized() (v bool)       { f.read(func(i *Info) { v = i.Maximized }); return }
func (f *Fake) IsMinimized() (v bool)       { f.read(func(i *Info) { v = i.Minimized }); return }
func (f *Fake) IsFullScreen() (v bool)      { f.read(func(i *Info) { v = i.FullScreen }); return }

// mutate records the call, applies fn under the lock and emits the edges fn returns
func (f *Fake) mutate(call string, fn func(i *Info) []types.Edge) error {
	f.mu.Lock()
	f.calls = append(f.calls, call)
	if err, ok := f.fail[call]; ok {
		delete(f.fail, call)
		f.mu.Unlock()
		return err
	}
	edges := fn(&f.info)
	var fire []types.Edge
	for _, e := range edges {
		if f.drops[e] > 0 {
			f.drops[e]--
			continue
		}
		if f.holding {
			f.held = append(f.held, e)
			continue
		}
		fire = append(fire, e)
	}
	f.mu.Unlock()

	for _, e := range fire {
		f.Emit(e)
	}
	return nil
}

func (f *Fake) SetSize(size types.Vec2) error {
	return f.mutate("setSize", func(i *Info) []types.Edge {
		next := size.Max(i.MinimumSize)
		if next == i.Size {
			return nil
		}
		i.Size = next
		return []types.Edge{types.EdgeResize}
	})
}

func (f *Fake) SetMinimumSize(size types.Vec2) error {
	return f.mutate("setMinimumSize", func(i *Info) []types.Edge {
		i.MinimumSize = size
		if i.Size.Covers(size) {
			return nil
		}
		i.Size = i.Size.Max(size)
		return []types.Edge{types.EdgeResize}
	})
}

func (f *Fake) SetResizable(resizable bool) error {
	return f.mutate("setResizable", func(i *Info) []types.Edge {
		i.Resizable = resizable
		return nil
	})
}

func (f *Fake) Maximize() error {
	return f.mutate("maximize", func(i *Info) []types.Edge {
		if i.Maximized {
			return nil
		}
		i.Maximized = true
		return []types.Edge{types.EdgeMaximize}
	})
}

func (f *Fake) Unmaximize() error {
	return f.mutate("unmaximize", func(i *Info) []types.Edge {
		if !i.Maximized {
			return nil
		}
		i.Maximized = false
		return []types.Edge{types.EdgeUnmaximize}
	})
}

func (f *Fake) Minimize() error {
	return f.mutate("minimize", func(i *Info) []types.Edge {
		if i.Minimized {
			return nil
		}
		i.Minimized = true
		return []types.Edge{types.EdgeMinimize}
	})
}

func (f *Fake) Restore() error {
	return f.mutate("restore", func(i *Info) []types.Edge {
		if !i.Minimized {
			return nil
		}
		i.Minimized = false
		return []types.Edge{types.EdgeRestore}
	})
}

func (f *Fake) SetFullScreen(fullscreen bool) error {
	return f.mutate("setFullScreen", func(i *Info) []types.Edge {
		if i.FullScreen == fullscreen {
			return nil
		}
		i.FullScreen = fullscreen
		if fullscreen {
			return []types.Edge{types.EdgeEnterFullScreen}
		}
		return []types.Edge{types.EdgeLeaveFullScreen}
	})
}

// Move changes the position without any edge, as a drag would
func (f *Fake) Move(pos types.Vec2) {
	f.mu.Lock()
	f.info.Position = pos
	f.mu.Unlock()
}

// Hold defers every edge until Release or ReleaseOne
func (f *Fake) Hold() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.holding = true
}

// Held returns the edges waiting to be released
func (f *Fake) Held() []types.Edge {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]types.Edge(nil), f.held...)
}

// ReleaseOne fires the oldest held edge. Returns false if none were held.
func (f *Fake) ReleaseOne() bool {
	f.mu.Lock()
	if len(f.held) == 0 {
		f.mu.Unlock()
		return false
	}
	e := f.held[0]
	f.held = f.held[1:]
	f.mu.Unlock()

	f.Emit(e)
	return true
}

// Release fires every held edge in order and stops holding
func (f *Fake) Release() {
	f.mu.Lock()
	held := f.held
	f.held = nil
	f.holding = false
	f.mu.Unlock()

	for _, e := range held {
		f.Emit(e)
	}
}

// Drop swallows the next n firings of edge
func (f *Fake) Drop(edge types.Edge, n int) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.drops[edge] += n
}

// FailNext makes the next call to the named setter return err without effect.
// Names match Calls(): "setSize", "maximize", ...
func (f *Fake) FailNext(call string, err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.fail[call] = err
}

// Calls returns the setter calls made so far
func (f *Fake) Calls() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return append([]string(nil), f.calls...)
}

// ResetCalls clears the call log
func (f *Fake) ResetCalls() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = nil
}

// Info returns a copy of the fake's state
func (f *Fake) Info() Info {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.info
}
