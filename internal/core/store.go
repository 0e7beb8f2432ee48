package core

import (
	"math/rand/v2"
	"sort"
	"sync"

	"github.com/rs/zerolog/log"

	"github.com/soundmingle/jam/internal/domain"
)

// ParticipantView is the wire-facing copy of one participant, as carried in
// state snapshots.
type ParticipantView struct {
	ID   domain.ParticipantID `json:"id"`
	Role string               `json:"role"`
	Name string               `json:"name"`
	X    float64              `json:"x"`
	Y    float64              `json:"y"`
}

type storeEntry struct {
	p   domain.Participant
	seq uint64
}

// Store is the authoritative in-memory session membership: one entry per
// live connection, keyed by the transport-assigned id. It is threadsafe; a
// snapshot never observes a half-applied mutation.
type Store struct {
	mu      sync.RWMutex
	byID    map[domain.ParticipantID]*storeEntry
	nextSeq uint64
	bounds  float64
}

// NewStore creates an empty store. Join positions are drawn uniformly from
// [0, bounds) on both axes.
func NewStore(bounds float64) *Store {
	return &Store{
		byID:   make(map[domain.ParticipantID]*storeEntry),
		bounds: bounds,
	}
}

// Join creates the participant for id, or overwrites it on a duplicate join.
// The position is freshly randomized either way. Returns the stored copy so
// the caller can tell the client where it landed.
func (s *Store) Join(id domain.ParticipantID, role, name string) ParticipantView {
	pos := domain.Position{
		X: rand.Float64() * s.bounds,
		Y: rand.Float64() * s.bounds,
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		s.nextSeq++
		e = &storeEntry{seq: s.nextSeq}
		s.byID[id] = e
	}
	e.p = domain.Participant{ID: id, Role: role, Name: name, Position: pos}
	log.Info().Str("module", "core.store").Str("id", string(id)).Str("role", role).Msg("participant joined")
	return viewOf(&e.p)
}

// UpdatePosition mutates the position of an existing participant. Updates
// for unknown ids are discarded: over an unreliable client a move can arrive
// before the join or after the disconnect, and neither is an error.
func (s *Store) UpdatePosition(id domain.ParticipantID, x, y float64) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return false
	}
	e.p.Position = domain.Position{X: x, Y: y}
	return true
}

// UpdateRole mutates the role of an existing participant, with the same
// discard-if-absent policy as UpdatePosition.
func (s *Store) UpdateRole(id domain.ParticipantID, role string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.byID[id]
	if !ok {
		return false
	}
	e.p.Role = role
	log.Info().Str("module", "core.store").Str("id", string(id)).Str("role", role).Msg("role changed")
	return true
}

// Remove deletes the participant if present. Reports whether anything was
// actually removed so a second disconnect stays a no-op.
func (s *Store) Remove(id domain.ParticipantID) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byID[id]; !ok {
		return false
	}
	delete(s.byID, id)
	log.Info().Str("module", "core.store").Str("id", string(id)).Msg("participant removed")
	return true
}

// Snapshot returns independent copies of all participants in join order.
func (s *Store) Snapshot() []ParticipantView {
	s.mu.RLock()
	defer s.mu.RUnlock()
	type seqView struct {
		seq uint64
		v   ParticipantView
	}
	tmp := make([]seqView, 0, len(s.byID))
	for _, e := range s.byID {
		tmp = append(tmp, seqView{seq: e.seq, v: viewOf(&e.p)})
	}
	sort.Slice(tmp, func(i, j int) bool { return tmp[i].seq < tmp[j].seq })
	out := make([]ParticipantView, len(tmp))
	for i, sv := range tmp {
		out[i] = sv.v
	}
	return out
}

// Len reports the current participant count.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.byID)
}

func viewOf(p *domain.Participant) ParticipantView {
	return ParticipantView{
		ID:   p.ID,
		Role: p.Role,
		Name: p.Name,
		X:    p.Position.X,
		Y:    p.Position.Y,
	}
}
