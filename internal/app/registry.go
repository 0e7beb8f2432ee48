package app

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/soundmingle/jam/internal/core"
	"github.com/soundmingle/jam/internal/domain"
)

type connEntry struct {
	Conn   core.Conn
	Cancel context.CancelFunc
}

// Endpoint is one live connection as seen by the dispatcher.
type Endpoint struct {
	ID   domain.ParticipantID
	Conn core.Conn
}

// Registry owns the lifetime binding between a transport connection and a
// participant id. Ids are allocated here, one per connection, never reused.
type Registry struct {
	mu    sync.RWMutex
	conns map[domain.ParticipantID]*connEntry
}

func NewRegistry() *Registry {
	return &Registry{conns: make(map[domain.ParticipantID]*connEntry)}
}

// OnConnect allocates a fresh id for a newly established connection and
// binds the connection and its cancel func under it.
func (r *Registry) OnConnect(conn core.Conn, cancel context.CancelFunc) domain.ParticipantID {
	id := domain.ParticipantID(uuid.NewString())
	r.mu.Lock()
	defer r.mu.Unlock()
	r.conns[id] = &connEntry{Conn: conn, Cancel: cancel}
	log.Info().Str("module", "app.registry").Str("id", string(id)).Msg("connection bound")
	return id
}

// OnDisconnect unbinds the connection for id and cancels its pumps.
// Idempotent: the first call reports true, any later call is a no-op.
func (r *Registry) OnDisconnect(id domain.ParticipantID) bool {
	r.mu.Lock()
	e, ok := r.conns[id]
	if ok {
		delete(r.conns, id)
	}
	r.mu.Unlock()
	if !ok {
		return false
	}
	if e.Cancel != nil {
		e.Cancel()
	}
	e.Conn.Close()
	log.Info().Str("module", "app.registry").Str("id", string(id)).Msg("connection unbound")
	return true
}

// Get returns the live connection for id, if any.
func (r *Registry) Get(id domain.ParticipantID) (core.Conn, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	if e, ok := r.conns[id]; ok {
		return e.Conn, true
	}
	return nil, false
}

// Live enumerates the currently bound connections. The slice is a copy; a
// connection that drops after enumeration simply misses that broadcast.
func (r *Registry) Live() []Endpoint {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Endpoint, 0, len(r.conns))
	for id, e := range r.conns {
		out = append(out, Endpoint{ID: id, Conn: e.Conn})
	}
	return out
}

// Len reports the number of live connections.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.conns)
}
