package state

import (
	"context"
	"strings"
	"sync"

	"github.com/rs/zerolog"

	"github.com/petrosk/trackfolio/internal/events"
)

// AutoSelector enforces the selection invariant: whenever the collection is
// non-empty and nothing is selected, the first item becomes current.
//
// It is an explicit observer on the manager's state-change events and always
// re-reads the canonical state at notification time - it never acts on a
// captured snapshot. It only reacts when the (collection ids, current id)
// fingerprint actually changed since its last evaluation, so a selection that
// fails and leaves the inputs untouched cannot retrigger a loop. The inverse
// direction is out of its hands: a delete that empties the collection clears
// the selection itself.
type AutoSelector[I Item, C Child] struct {
	manager *Manager[I, C]
	log     zerolog.Logger

	mu      sync.Mutex
	lastFP  string
	stopped bool
}

// NewAutoSelector creates the watcher and subscribes it to the bus.
func NewAutoSelector[I Item, C Child](manager *Manager[I, C], bus *events.Bus, log zerolog.Logger) *AutoSelector[I, C] {
	a := &AutoSelector[I, C]{
		manager: manager,
		log:     log.With().Str("component", "auto_selector").Str("family", manager.Family()).Logger(),
	}
	bus.Subscribe(events.StateChanged, a.onStateChanged)
	return a
}

// Stop disables the watcher. Further notifications are ignored.
func (a *AutoSelector[I, C]) Stop() {
	a.mu.Lock()
	a.stopped = true
	a.mu.Unlock()
}

func (a *AutoSelector[I, C]) onStateChanged(event *events.Event) {
	if event.Module != a.manager.Family() {
		return
	}

	// Read the canonical state at call time, never a captured copy.
	st := a.manager.State()
	fp := fingerprint(st)

	a.mu.Lock()
	if a.stopped || fp == a.lastFP {
		a.mu.Unlock()
		return
	}
	a.lastFP = fp
	a.mu.Unlock()

	if st.Current != nil || len(st.Collection) == 0 || st.Loading {
		return
	}

	first := st.Collection[0].ItemID()
	a.log.Debug().Str("id", first).Msg("No selection with non-empty collection, selecting first item")
	a.manager.Select(context.Background(), first)
}

// fingerprint identifies the inputs of the invariant.
func fingerprint[I Item, C Child](st State[I, C]) string {
	ids := make([]string, 0, len(st.Collection)+1)
	ids = append(ids, "current="+st.CurrentID())
	for _, item := range st.Collection {
		ids = append(ids, item.ItemID())
	}
	return strings.Join(ids, ",")
}
