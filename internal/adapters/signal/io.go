package signal

import (
	"context"
	"encoding/json"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/soundmingle/jam/internal/app"
	"github.com/soundmingle/jam/internal/domain"
)

func (ctl *Controller) writePump(ctx context.Context, c *wsConn) {
	ticker := time.NewTicker(ctl.Cfg.PingPeriod)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case data, ok := <-c.send:
			if !ok {
				return
			}
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteTimeout)); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump set deadline")
				return
			}
			if err := c.conn.WriteMessage(websocket.TextMessage, data); err != nil {
				log.Error().Err(err).Str("module", "signal").Msg("writePump write error")
				return
			}
		case <-ticker.C:
			if err := c.conn.SetWriteDeadline(time.Now().Add(ctl.Cfg.WriteTimeout)); err != nil {
				return
			}
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}

func (ctl *Controller) readPump(ctx context.Context, id domain.ParticipantID, c *wsConn) {
	defer func() {
		log.Info().Str("module", "signal").Str("id", string(id)).Msg("readPump closing")
		ctl.disconnect(id)
	}()

	// A peer that stops answering pings is treated exactly like one that
	// closed the socket: the read fails and the disconnect path runs once.
	pongWait := ctl.Cfg.PingPeriod * 10 / 9
	c.conn.SetReadLimit(ctl.Cfg.ReadLimit)
	_ = c.conn.SetReadDeadline(time.Now().Add(pongWait))
	c.conn.SetPongHandler(func(string) error {
		return c.conn.SetReadDeadline(time.Now().Add(pongWait))
	})

	for {
		select {
		case <-ctx.Done():
			return
		default:
			_, data, err := c.conn.ReadMessage()
			if err != nil {
				if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
					log.Warn().Err(err).Str("module", "signal").Str("id", string(id)).Msg("readPump read error")
				}
				return
			}
			ctl.handleFrame(id, data)
		}
	}
}

// disconnect funnels every way a connection can end into exactly one
// lifecycle event. The registry's idempotence guards the funnel.
func (ctl *Controller) disconnect(id domain.ParticipantID) {
	if ctl.Registry.OnDisconnect(id) {
		ctl.Router.Enqueue(app.Event{Kind: app.EventDisconnect, ID: id})
	}
}

func (ctl *Controller) handleFrame(id domain.ParticipantID, data []byte) {
	var env struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(data, &env); err != nil {
		log.Warn().Err(err).Str("module", "signal").Str("id", string(id)).Msg("bad json")
		return
	}

	switch env.Type {
	case "join":
		ctl.handleJoin(id, data)
	case "move":
		ctl.handleMove(id, data)
	case "role_change", "instrument_change":
		ctl.handleRoleChange(id, data)
	default:
		log.Warn().Str("module", "signal").Str("type", env.Type).Msg("unknown event")
	}
}
