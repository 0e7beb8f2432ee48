package app

import (
	"context"

	"github.com/rs/zerolog/log"

	"github.com/soundmingle/jam/internal/core"
	"github.com/soundmingle/jam/internal/domain"
)

// EventKind tags an inbound protocol event.
type EventKind int

const (
	EventJoin EventKind = iota
	EventMove
	EventRoleChange
	EventDisconnect
)

// Event is one inbound client event, already decoded and validated by the
// transport adapter.
type Event struct {
	Kind EventKind
	ID   domain.ParticipantID
	Role string
	Name string
	X    float64
	Y    float64
}

// Router is the protocol state machine. All events from all connections are
// funneled through one channel and applied by a single Run goroutine, so
// store mutations and the broadcasts they trigger happen in strict arrival
// order with no interleaving.
type Router struct {
	store    *core.Store
	registry *Registry
	dispatch *Dispatcher
	events   chan Event
}

func NewRouter(store *core.Store, registry *Registry, dispatch *Dispatcher, buffer int) *Router {
	return &Router{
		store:    store,
		registry: registry,
		dispatch: dispatch,
		events:   make(chan Event, buffer),
	}
}

// Enqueue hands an event to the processing loop. Blocks only when the loop
// is more than a full buffer behind.
func (r *Router) Enqueue(ev Event) {
	r.events <- ev
}

// Run consumes and applies events until ctx is canceled. It owns the store;
// nothing else mutates it.
func (r *Router) Run(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			log.Info().Str("module", "app.router").Msg("router stopped")
			return
		case ev := <-r.events:
			r.apply(ev)
		}
	}
}

func (r *Router) apply(ev Event) {
	switch ev.Kind {
	case EventJoin:
		// A duplicate join overwrites; there is no rejection path. Everyone
		// gets the new full view, the joiner included so it learns its
		// assigned position.
		r.store.Join(ev.ID, ev.Role, ev.Name)
		r.dispatch.BroadcastSnapshot()
	case EventMove:
		// Moves before join (or after disconnect) are discarded without a
		// broadcast; message ordering across the transport is not assumed.
		if r.store.UpdatePosition(ev.ID, ev.X, ev.Y) {
			r.dispatch.BroadcastDelta(ev.ID, ev.X, ev.Y)
		}
	case EventRoleChange:
		// Role changes are rare and affect how every client renders the
		// participant, so a full resync is simpler than a targeted delta.
		if r.store.UpdateRole(ev.ID, ev.Role) {
			r.dispatch.BroadcastSnapshot()
		}
	case EventDisconnect:
		if r.store.Remove(ev.ID) {
			r.dispatch.BroadcastSnapshot()
		}
	default:
		log.Warn().Str("module", "app.router").Int("kind", int(ev.Kind)).Msg("unknown event kind")
	}
}
