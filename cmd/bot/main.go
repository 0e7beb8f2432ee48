// Command bot is a virtual session participant: it joins the jam with a
// fixed instrument and wanders the radar so a lone human has company.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"math/rand/v2"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
)

func main() {
	addr := flag.String("addr", "ws://localhost:3000/api/ws", "jam server websocket URL")
	name := flag.String("name", "Virtual Bassist", "display name")
	role := flag.String("role", "bass", "instrument role")
	interval := flag.Duration("interval", 2*time.Second, "time between moves")
	flag.Parse()

	zerolog.TimeFieldFormat = zerolog.TimeFormatUnix
	log.Logger = log.Output(zerolog.ConsoleWriter{Out: os.Stderr})

	ctx, cancel := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	conn, _, err := websocket.DefaultDialer.DialContext(ctx, *addr, nil)
	if err != nil {
		log.Fatal().Err(err).Str("addr", *addr).Msg("dial failed")
	}
	defer conn.Close()
	log.Info().Str("addr", *addr).Str("name", *name).Msg("connected, joining session")

	join := map[string]any{"type": "join", "role": *role, "name": *name}
	if err := writeJSON(conn, join); err != nil {
		log.Fatal().Err(err).Msg("join failed")
	}

	// Drain server frames so the read side keeps ping/pong flowing.
	go func() {
		defer cancel()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				log.Info().Err(err).Msg("disconnected")
				return
			}
		}
	}()

	x, y := 150.0, 150.0
	ticker := time.NewTicker(*interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			_ = conn.WriteMessage(websocket.CloseMessage,
				websocket.FormatCloseMessage(websocket.CloseNormalClosure, ""))
			return
		case <-ticker.C:
			x += (rand.Float64() - 0.5) * 50
			y += (rand.Float64() - 0.5) * 50
			move := map[string]any{"type": "move", "x": x, "y": y}
			if err := writeJSON(conn, move); err != nil {
				log.Error().Err(err).Msg("move failed")
				return
			}
		}
	}
}

func writeJSON(conn *websocket.Conn, v any) error {
	b, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return conn.WriteMessage(websocket.TextMessage, b)
}
