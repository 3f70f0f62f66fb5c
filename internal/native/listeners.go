package native

import (
	"sort"
	"sync"

	"github.com/yourusername/winsync/internal/types"
)

// Listeners is an edge listener registry that Window implementations embed.
type Listeners struct {
	mu     sync.Mutex
	nextID ListenerID
	byID   map[ListenerID]*registration
}

type registration struct {
	edge types.Edge
	fn   Handler
	once bool
}

// On registers fn for every firing of edge
func (l *Listeners) On(edge types.Edge, fn Handler) ListenerID {
	return l.add(edge, fn, false)
}

// Once registers fn for the next firing of edge only
func (l *Listeners) Once(edge types.Edge, fn Handler) ListenerID {
	return l.add(edge, fn, true)
}

func (l *Listeners) add(edge types.Edge, fn Handler, once bool) ListenerID {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.byID == nil {
		l.byID = make(map[ListenerID]*registration)
	}
	l.nextID++
	l.byID[l.nextID] = &registration{edge: edge, fn: fn, once: once}
	return l.nextID
}

// Off removes a listener. Unknown ids are ignored.
func (l *Listeners) Off(id ListenerID) {
	l.mu.Lock()
	defer l.mu.Unlock()
	delete(l.byID, id)
}

// Count returns the number of listeners registered for edge
func (l *Listeners) Count(edge types.Edge) int {
	l.mu.Lock()
	defer l.mu.Unlock()
	n := 0
	for _, r := range l.byID {
		if r.edge == edge {
			n++
		}
	}
	return n
}

// Emit calls the listeners for edge in registration order. One-shot
// listeners are removed before they run.
func (l *Listeners) Emit(edge types.Edge) {
	l.mu.Lock()
	ids := make([]ListenerID, 0, len(l.byID))
	for id, r := range l.byID {
		if r.edge == edge {
			ids = append(ids, id)
		}
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })
	fns := make([]Handler, 0, len(ids))
	for _, id := range ids {
		r := l.byID[id]
		if r.once {
			delete(l.byID, id)
		}
		fns = append(fns, r.fn)
	}
	l.mu.Unlock()

	for _, fn := range fns {
		fn()
	}
}
