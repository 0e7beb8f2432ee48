package signal_test

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	wssignal "github.com/soundmingle/jam/internal/adapters/signal"
	"github.com/soundmingle/jam/internal/app"
	"github.com/soundmingle/jam/internal/config"
	"github.com/soundmingle/jam/internal/core"
)

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	cfg := &config.Config{
		Mode:         "release",
		ReadLimit:    32768,
		PingPeriod:   54 * time.Second,
		WriteTimeout: 5 * time.Second,
		SendBuffer:   32,
	}

	store := core.NewStore(300)
	registry := app.NewRegistry()
	dispatcher := app.NewDispatcher(store, registry)
	router := app.NewRouter(store, registry, dispatcher, 64)

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	go router.Run(ctx)

	ctl := wssignal.NewController(router, registry, cfg)

	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.GET("/api/ws", func(c *gin.Context) {
		ctl.HandleSession(ctx, c)
	})

	srv := httptest.NewServer(r)
	t.Cleanup(srv.Close)
	return srv
}

func dial(t *testing.T, srv *httptest.Server) *websocket.Conn {
	t.Helper()
	wsURL := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	t.Cleanup(func() { conn.Close() })
	return conn
}

func send(t *testing.T, conn *websocket.Conn, v any) {
	t.Helper()
	b, err := json.Marshal(v)
	require.NoError(t, err)
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, b))
}

func sendRaw(t *testing.T, conn *websocket.Conn, raw string) {
	t.Helper()
	require.NoError(t, conn.WriteMessage(websocket.TextMessage, []byte(raw)))
}

func recvFrame(t *testing.T, conn *websocket.Conn) map[string]any {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var frame map[string]any
	require.NoError(t, json.Unmarshal(data, &frame))
	return frame
}

func participants(t *testing.T, frame map[string]any) []map[string]any {
	t.Helper()
	require.Equal(t, "state_snapshot", frame["type"])
	raw, ok := frame["participants"].([]any)
	require.True(t, ok)
	out := make([]map[string]any, len(raw))
	for i, p := range raw {
		out[i] = p.(map[string]any)
	}
	return out
}

func requireNoFrame(t *testing.T, conn *websocket.Conn) {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(150*time.Millisecond)))
	_, data, err := conn.ReadMessage()
	if err == nil {
		t.Fatalf("expected no frame, got %s", data)
	}
}

func TestSessionLifecycle(t *testing.T) {
	srv := newTestServer(t)

	// A joins and learns its own assigned position from the snapshot.
	connA := dial(t, srv)
	send(t, connA, map[string]any{"type": "join", "role": "bass", "name": "Alice"})
	ps := participants(t, recvFrame(t, connA))
	require.Len(t, ps, 1)
	idA := ps[0]["id"].(string)
	assert.Equal(t, "bass", ps[0]["role"])
	assert.Equal(t, "Alice", ps[0]["name"])
	x := ps[0]["x"].(float64)
	assert.GreaterOrEqual(t, x, 0.0)
	assert.Less(t, x, 300.0)

	// B joins; both sides converge on a two-entry view.
	connB := dial(t, srv)
	send(t, connB, map[string]any{"type": "join", "role": "drums", "name": "Bob"})
	require.Len(t, participants(t, recvFrame(t, connA)), 2)
	psB := participants(t, recvFrame(t, connB))
	require.Len(t, psB, 2)
	assert.Equal(t, idA, psB[0]["id"])

	// A moves; only B hears about it.
	send(t, connA, map[string]any{"type": "move", "x": 10, "y": 20})
	delta := recvFrame(t, connB)
	assert.Equal(t, "position_delta", delta["type"])
	assert.Equal(t, idA, delta["id"])
	assert.Equal(t, 10.0, delta["x"])
	assert.Equal(t, 20.0, delta["y"])
	requireNoFrame(t, connA)

	// A disconnects; B gets a one-entry resync.
	require.NoError(t, connA.Close())
	psB = participants(t, recvFrame(t, connB))
	require.Len(t, psB, 1)
	assert.Equal(t, "drums", psB[0]["role"])
}

func TestRoleChange(t *testing.T) {
	srv := newTestServer(t)

	conn := dial(t, srv)
	send(t, conn, map[string]any{"type": "join", "role": "bass"})
	recvFrame(t, conn)

	t.Run("role_change resyncs everyone", func(t *testing.T) {
		send(t, conn, map[string]any{"type": "role_change", "role": "keys"})
		ps := participants(t, recvFrame(t, conn))
		require.Len(t, ps, 1)
		assert.Equal(t, "keys", ps[0]["role"])
	})

	t.Run("instrument_change is accepted as an alias", func(t *testing.T) {
		send(t, conn, map[string]any{"type": "instrument_change", "role": "synth"})
		ps := participants(t, recvFrame(t, conn))
		require.Len(t, ps, 1)
		assert.Equal(t, "synth", ps[0]["role"])
	})
}

func TestMalformedFramesAreDropped(t *testing.T) {
	srv := newTestServer(t)

	connA := dial(t, srv)
	send(t, connA, map[string]any{"type": "join", "role": "bass"})
	recvFrame(t, connA)
	connB := dial(t, srv)
	send(t, connB, map[string]any{"type": "join", "role": "drums"})
	recvFrame(t, connA)
	recvFrame(t, connB)

	// None of these mutate anything or produce a broadcast; the connection
	// stays open throughout.
	sendRaw(t, connA, "not json at all")
	sendRaw(t, connA, `{"type":"move"}`)
	sendRaw(t, connA, `{"type":"move","x":"ten","y":20}`)
	sendRaw(t, connA, `{"type":"join"}`)
	sendRaw(t, connA, `{"type":"warp","x":1}`)

	// A valid move still goes through afterwards.
	send(t, connA, map[string]any{"type": "move", "x": 5, "y": 6})
	delta := recvFrame(t, connB)
	assert.Equal(t, "position_delta", delta["type"])
	assert.Equal(t, 5.0, delta["x"])
}

func TestMoveBeforeJoinIsSilent(t *testing.T) {
	srv := newTestServer(t)

	connA := dial(t, srv)
	connB := dial(t, srv)
	send(t, connB, map[string]any{"type": "join", "role": "drums"})
	recvFrame(t, connB)

	send(t, connA, map[string]any{"type": "move", "x": 1, "y": 2})

	requireNoFrame(t, connB)
}
