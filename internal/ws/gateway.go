// Package ws is the WebSocket gateway. Riders watch their trip's status and
// live driver position; drivers receive trip offers and stream location
// reports back. Auth is a first-frame JWT handshake.
package ws

import (
	"encoding/json"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"quicklift/internal/jwt"
	"quicklift/internal/logger"
	"quicklift/internal/ports"
	"quicklift/internal/relay"
)

const (
	wsWriteTimeout   = 5 * time.Second
	wsCloseAckWindow = 2 * time.Second
	ctrlTimeout      = 5 * time.Second
	readIdleTimeout  = 60 * time.Second
	pingInterval     = 30 * time.Second
	authDeadline     = 10 * time.Second
	locationInterval = time.Second
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
}

// Gateway handles WebSocket connections with JWT auth.
type Gateway struct {
	logger     *logger.Logger
	jwtMgr     *jwt.Manager
	svc        ports.DispatchService
	broker     *relay.Broker
	writeLocks sync.Map // *websocket.Conn -> *sync.Mutex
}

func NewGateway(log *logger.Logger, jwtMgr *jwt.Manager, svc ports.DispatchService, broker *relay.Broker) *Gateway {
	return &Gateway{
		logger: log,
		jwtMgr: jwtMgr,
		svc:    svc,
		broker: broker,
	}
}

// lockOf returns the writer mutex for a specific connection.
func (g *Gateway) lockOf(conn *websocket.Conn) *sync.Mutex {
	if v, ok := g.writeLocks.Load(conn); ok {
		if mu, ok := v.(*sync.Mutex); ok && mu != nil {
			return mu
		}
	}
	mu := &sync.Mutex{}
	actual, _ := g.writeLocks.LoadOrStore(conn, mu)
	return actual.(*sync.Mutex)
}

// writeMessage sets a short write deadline and writes a message under the
// per-connection lock.
func (g *Gateway) writeMessage(conn *websocket.Conn, mt int, payload []byte) error {
	mu := g.lockOf(conn)
	mu.Lock()
	defer mu.Unlock()
	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	return conn.WriteMessage(mt, payload)
}

// writeJSON marshals v and writes a single TextMessage.
func (g *Gateway) writeJSON(conn *websocket.Conn, v any) error {
	payload, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return g.writeMessage(conn, websocket.TextMessage, payload)
}

// writeClose sends a close control frame with the given code and reason.
func (g *Gateway) writeClose(conn *websocket.Conn, code int, reason string) {
	mu := g.lockOf(conn)
	mu.Lock()
	defer mu.Unlock()

	_ = conn.SetWriteDeadline(time.Now().Add(wsWriteTimeout))
	_ = conn.WriteControl(
		websocket.CloseMessage,
		websocket.FormatCloseMessage(code, reason),
		time.Now().Add(wsCloseAckWindow),
	)
	g.writeLocks.Delete(conn)
}

func (g *Gateway) sendAuthError(conn *websocket.Conn, message string) error {
	return g.writeJSON(conn, map[string]any{
		"type":    "auth_error",
		"error":   message,
		"success": false,
	})
}

func (g *Gateway) sendAuthSuccess(conn *websocket.Conn, extra map[string]any) error {
	msg := map[string]any{
		"type":      "auth_success",
		"message":   "Authentication successful",
		"success":   true,
		"timestamp": time.Now().UTC().Format(time.RFC3339),
	}
	for k, v := range extra {
		msg[k] = v
	}
	return g.writeJSON(conn, msg)
}

// startPingLoop pings the peer every pingInterval using the per-connection
// writer lock. On write failure it closes the socket to unblock the reader.
func (g *Gateway) startPingLoop(conn *websocket.Conn, done <-chan struct{}) {
	go func() {
		ticker := time.NewTicker(pingInterval)
		defer ticker.Stop()
		for {
			select {
			case <-done:
				return
			case <-ticker.C:
				mu := g.lockOf(conn)
				mu.Lock()
				_ = conn.SetWriteDeadline(time.Now().Add(ctrlTimeout))
				err := conn.WriteControl(websocket.PingMessage, nil, time.Now().Add(ctrlTimeout))
				mu.Unlock()
				if err != nil {
					_ = conn.Close()
					return
				}
			}
		}
	}()
}

// frame is the minimal envelope every inbound client message uses.
type frame struct {
	Type string          `json:"type"`
	Data json.RawMessage `json:"data"`
}

var (
	errBadJSON     = []byte(`{"type":"error","error":"bad json"}`)
	errUnknownType = []byte(`{"type":"error","error":"unknown message type"}`)
)
