// Package lifecycle runs teardown hooks when the process is about to terminate.
package lifecycle

import (
	"context"
	"os"
	"os/signal"
	"sort"
	"sync"
	"syscall"

	"github.com/yourusername/winsync/internal/logging"
)

// HookID identifies a registered hook
type HookID uint64

// Hooks is a registry of teardown callbacks run at most once.
type Hooks struct {
	mu     sync.Mutex
	nextID HookID
	hooks  map[HookID]func()
	ran    bool
}

// NewHooks creates an empty registry
func NewHooks() *Hooks {
	return &Hooks{hooks: make(map[HookID]func())}
}

// Add registers fn. After Run has fired, fn is called immediately.
func (h *Hooks) Add(fn func()) HookID {
	h.mu.Lock()
	if h.ran {
		h.mu.Unlock()
		fn()
		return 0
	}
	h.nextID++
	id := h.nextID
	h.hooks[id] = fn
	h.mu.Unlock()
	return id
}

// Remove deregisters a hook. Unknown ids are ignored.
func (h *Hooks) Remove(id HookID) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.hooks, id)
}

// Len returns the number of registered hooks
func (h *Hooks) Len() int {
	h.mu.Lock()
	defer h.mu.Unlock()
	return len(h.hooks)
}

// Run calls every registered hook in registration order, exactly once.
// Hooks may call Remove on themselves while running.
func (h *Hooks) Run() {
	h.mu.Lock()
	if h.ran {
		h.mu.Unlock()
		return
	}
	h.ran = true
	ids := make([]HookID, 0, len(h.hooks))
	for id := range h.hooks {
		ids = append(ids, id)
	}
	fns := make([]func(), 0, len(ids))
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	for _, id := range ids {
		fns = append(fns, h.hooks[id])
	}
	h.hooks = make(map[HookID]func())
	h.mu.Unlock()

	logging.Debug().Int("hooks", len(fns)).Msg("running teardown hooks")
	for _, fn := range fns {
		fn()
	}
}

// RunOnSignal runs the hooks when SIGINT or SIGTERM arrives or ctx ends.
// The returned context is cancelled once the hooks have run.
func (h *Hooks) RunOnSignal(ctx context.Context) context.Context {
	ctx, cancel := context.WithCancel(ctx)
	sigs := make(chan os.Signal, 1)
	signal.Notify(sigs, os.Interrupt, syscall.SIGTERM)

	go func() {
		defer signal.Stop(sigs)
		select {
		case sig := <-sigs:
			logging.Info().Str("signal", sig.String()).Msg("terminating")
		case <-ctx.Done():
		}
		h.Run()
		cancel()
	}()

	return ctx
}
