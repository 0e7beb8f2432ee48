package app

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/soundmingle/jam/internal/core"
	"github.com/soundmingle/jam/internal/domain"
)

// Server → client frame types.
const (
	FrameStateSnapshot = "state_snapshot"
	FramePositionDelta = "position_delta"
)

// StateSnapshot carries the full session view.
type StateSnapshot struct {
	Type         string                 `json:"type"`
	Participants []core.ParticipantView `json:"participants"`
}

// PositionDelta carries one participant's position change.
type PositionDelta struct {
	Type string               `json:"type"`
	ID   domain.ParticipantID `json:"id"`
	X    float64              `json:"x"`
	Y    float64              `json:"y"`
}

// Dispatcher fans protocol frames out to the live connection set. Sends are
// best-effort: a slow or closing connection drops the frame and the
// broadcast continues to the rest.
type Dispatcher struct {
	store    *core.Store
	registry *Registry
}

func NewDispatcher(store *core.Store, registry *Registry) *Dispatcher {
	return &Dispatcher{store: store, registry: registry}
}

// BroadcastSnapshot sends the current full session view to every live
// connection, the originator included.
func (d *Dispatcher) BroadcastSnapshot() {
	frame, err := json.Marshal(StateSnapshot{
		Type:         FrameStateSnapshot,
		Participants: d.store.Snapshot(),
	})
	if err != nil {
		log.Error().Err(err).Str("module", "app.dispatcher").Msg("marshal snapshot")
		return
	}
	d.fanOut(frame, "")
}

// BroadcastDelta sends a position delta to every live connection except the
// mover, who already knows its own position.
func (d *Dispatcher) BroadcastDelta(sender domain.ParticipantID, x, y float64) {
	frame, err := json.Marshal(PositionDelta{
		Type: FramePositionDelta,
		ID:   sender,
		X:    x,
		Y:    y,
	})
	if err != nil {
		log.Error().Err(err).Str("module", "app.dispatcher").Msg("marshal delta")
		return
	}
	d.fanOut(frame, sender)
}

func (d *Dispatcher) fanOut(frame core.Frame, skip domain.ParticipantID) {
	sent, dropped := 0, 0
	for _, ep := range d.registry.Live() {
		if ep.ID == skip {
			continue
		}
		if err := ep.Conn.TrySend(frame); err != nil {
			dropped++
			continue
		}
		sent++
	}
	if dropped > 0 {
		log.Warn().Str("module", "app.dispatcher").Int("sent", sent).Int("dropped", dropped).Msg("broadcast dropped frames")
	}
	log.Debug().Str("module", "app.dispatcher").Int("sent", sent).Msg("broadcast")
}
