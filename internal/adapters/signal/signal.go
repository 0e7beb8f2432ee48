package signal

import (
	"context"
	"errors"
	"net/http"
	"sync"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog/log"

	"github.com/soundmingle/jam/internal/app"
	"github.com/soundmingle/jam/internal/config"
	"github.com/soundmingle/jam/internal/core"
)

var (
	ErrBackpressure = errors.New("backpressure")
	ErrConnClosed   = errors.New("connection closed")
)

// Controller upgrades HTTP requests to jam-session websockets and bridges
// frames between the transport and the event router.
type Controller struct {
	Router   *app.Router
	Registry *app.Registry
	Cfg      *config.Config
}

func NewController(router *app.Router, registry *app.Registry, cfg *config.Config) *Controller {
	return &Controller{Router: router, Registry: registry, Cfg: cfg}
}

type wsConn struct {
	conn *websocket.Conn
	send chan core.Frame

	mu     sync.RWMutex
	closed bool
}

func (c *wsConn) TrySend(f core.Frame) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return ErrConnClosed
	}
	select {
	case c.send <- f:
	default:
		return ErrBackpressure
	}
	return nil
}

func (c *wsConn) Close() {
	c.mu.Lock()
	if c.closed {
		c.mu.Unlock()
		return
	}
	c.closed = true
	close(c.send)
	_ = c.conn.Close()
	c.mu.Unlock()
}

var upgrader = websocket.Upgrader{
	CheckOrigin: func(r *http.Request) bool { return true },
}

// HandleSession upgrades the request and runs the connection's pumps. The
// participant id is allocated here, at connect time, and lives exactly as
// long as the websocket.
func (ctl *Controller) HandleSession(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "signal").Msg("ws upgrade")
		return
	}

	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, ctl.Cfg.SendBuffer),
	}

	ctx, cancel := context.WithCancel(ctx)
	id := ctl.Registry.OnConnect(conn, cancel)
	log.Info().Str("module", "signal").Str("id", string(id)).Msg("new WS connection")

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, id, conn)
}
