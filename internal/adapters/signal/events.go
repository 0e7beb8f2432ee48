package signal

import (
	"encoding/json"

	"github.com/rs/zerolog/log"

	"github.com/soundmingle/jam/internal/app"
	"github.com/soundmingle/jam/internal/domain"
)

// Malformed payloads are dropped here, before any store mutation: the
// protocol is fire-and-forget, so there is no error frame to send back and
// the connection stays open.

func (ctl *Controller) handleJoin(id domain.ParticipantID, data []byte) {
	var p struct {
		Role string `json:"role"`
		Name string `json:"name"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("id", string(id)).Msg("bad join payload")
		return
	}
	if err := domain.ValidateRole(p.Role); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("id", string(id)).Msg("join dropped")
		return
	}
	if err := domain.ValidateName(p.Name); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("id", string(id)).Msg("join dropped")
		return
	}
	ctl.Router.Enqueue(app.Event{Kind: app.EventJoin, ID: id, Role: p.Role, Name: p.Name})
}

func (ctl *Controller) handleMove(id domain.ParticipantID, data []byte) {
	var p struct {
		X *float64 `json:"x"`
		Y *float64 `json:"y"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("id", string(id)).Msg("bad move payload")
		return
	}
	if p.X == nil || p.Y == nil {
		log.Warn().Str("module", "signal").Str("id", string(id)).Msg("move missing coordinates")
		return
	}
	ctl.Router.Enqueue(app.Event{Kind: app.EventMove, ID: id, X: *p.X, Y: *p.Y})
}

func (ctl *Controller) handleRoleChange(id domain.ParticipantID, data []byte) {
	var p struct {
		Role string `json:"role"`
	}
	if err := json.Unmarshal(data, &p); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("id", string(id)).Msg("bad role payload")
		return
	}
	if err := domain.ValidateRole(p.Role); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("id", string(id)).Msg("role change dropped")
		return
	}
	ctl.Router.Enqueue(app.Event{Kind: app.EventRoleChange, ID: id, Role: p.Role})
}
