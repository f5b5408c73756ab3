// Package ws is the websocket session adapter: it upgrades connections,
// authenticates them through the gateway and runs the read/write pumps.
package ws

import (
	"context"
	"errors"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/gorilla/websocket"
	"github.com/reelmates/watchparty/internal/app"
	"github.com/reelmates/watchparty/internal/core"
	"github.com/rs/zerolog/log"
)

var ErrBackpressure = errors.New("backpressure")

type PartyWSController struct {
	Gateway    *app.SessionGateway
	ReadLimit  int64
	PingPeriod time.Duration
}

func NewPartyWSController(gw *app.SessionGateway, readLimit int64, pingPeriod time.Duration) *PartyWSController {
	return &PartyWSController{
		Gateway:    gw,
		ReadLimit:  readLimit,
		PingPeriod: pingPeriod,
	}
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
		return errors.New("connection closed")
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

// bearerToken pulls the connection token from the query string or the
// Authorization header.
func bearerToken(c *gin.Context) string {
	if t := c.Query("token"); t != "" {
		return t
	}
	return strings.TrimPrefix(c.GetHeader("Authorization"), "Bearer ")
}

// HandleSession upgrades the connection and admits it through the gateway.
// An invalid token closes the socket with a policy-violation frame; nothing
// is ever registered for an unauthenticated connection.
func (ctl *PartyWSController) HandleSession(ctx context.Context, c *gin.Context) {
	ws, err := upgrader.Upgrade(c.Writer, c.Request, nil)
	if err != nil {
		log.Error().Err(err).Str("module", "ws").Msg("upgrade")
		return
	}
	if ctl.ReadLimit > 0 {
		ws.SetReadLimit(ctl.ReadLimit)
	}

	conn := &wsConn{
		conn: ws,
		send: make(chan core.Frame, 32),
	}

	ctx, cancel := context.WithCancel(ctx)
	connID, uid, err := ctl.Gateway.Connect(ctx, bearerToken(c), conn, cancel)
	if err != nil {
		msg := websocket.FormatCloseMessage(websocket.ClosePolicyViolation, "authentication failed")
		_ = ws.WriteControl(websocket.CloseMessage, msg, time.Now().Add(time.Second))
		conn.Close()
		cancel()
		return
	}
	log.Info().Str("module", "ws").Str("conn", string(connID)).Str("user", string(uid)).Msg("session established")

	go ctl.writePump(ctx, conn)
	go ctl.readPump(ctx, connID, conn)
}
