package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strings"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"github.com/rs/zerolog"

	"github.com/carebridge/call-signaling/config"
	"github.com/carebridge/call-signaling/internal/auth"
	"github.com/carebridge/call-signaling/internal/call"
	"github.com/carebridge/call-signaling/internal/models"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		// Origin checking is handled by middleware.
		return true
	},
}

// client is one live WebSocket connection. It implements call.Peer:
// Deliver marshals the event and hands it to the write pump through a
// buffered channel, never blocking the event that produced it.
type client struct {
	id   call.ConnectionID
	conn *websocket.Conn
	send chan []byte
	cfg  *config.Config
	log  zerolog.Logger
}

func (c *client) Deliver(ev models.ServerEvent) {
	data, err := json.Marshal(ev)
	if err != nil {
		c.log.Error().Err(err).Str("type", string(ev.Type)).Msg("failed to marshal event")
		return
	}

	select {
	case c.send <- data:
	default:
		c.log.Warn().Str("connId", string(c.id)).Str("type", string(ev.Type)).Msg("send buffer full, dropping event")
	}
}

// CallSocket upgrades an authenticated client to the signaling
// WebSocket. The credential comes as a token query parameter or a
// Bearer header; a connection that fails verification is refused
// before any signaling state exists for it.
func CallSocket(coord *call.Coordinator, authn *auth.Authenticator, cfg *config.Config, log zerolog.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		claims, err := authn.Verify(connectToken(c))
		if err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or missing credential"})
			return
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			log.Error().Err(err).Msg("failed to upgrade connection")
			return
		}

		cl := &client{
			id:   call.ConnectionID(uuid.New().String()),
			conn: conn,
			send: make(chan []byte, 256),
			cfg:  cfg,
			log:  log,
		}

		coord.Connect(cl.id, call.Identity{
			UserID:      claims.UserID,
			Role:        claims.Role,
			DisplayName: claims.DisplayName,
		}, cl)

		go cl.writePump()
		go cl.readPump(coord)
	}
}

// connectToken extracts the connect-time credential. Browsers cannot
// set headers on WebSocket upgrades, so the query parameter is the
// primary channel; the Bearer header works for non-browser clients.
func connectToken(c *gin.Context) string {
	if token := c.Query("token"); token != "" {
		return token
	}
	header := c.GetHeader("Authorization")
	if after, ok := strings.CutPrefix(header, "Bearer "); ok {
		return after
	}
	return ""
}

func (c *client) readPump(coord *call.Coordinator) {
	defer func() {
		// Eviction runs before the transport is torn down so the peer
		// hears user-left in the same turn as the disconnect.
		coord.Disconnect(context.Background(), c.id)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(c.cfg.ReadLimit)
	c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(c.cfg.PongWait))
		return nil
	})

	for {
		_, message, err := c.conn.ReadMessage()
		if err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseAbnormalClosure) {
				c.log.Warn().Err(err).Str("connId", string(c.id)).Msg("websocket read error")
			}
			return
		}

		var ev models.ClientEvent
		if err := json.Unmarshal(message, &ev); err != nil {
			c.log.Warn().Err(err).Str("connId", string(c.id)).Msg("malformed frame dropped")
			continue
		}

		// The transport delivers this connection's frames in order and
		// HandleEvent runs them to completion one at a time, so a
		// sender's signals reach the peer in the order they were sent.
		coord.HandleEvent(context.Background(), c.id, ev)
	}
}

func (c *client) writePump() {
	ticker := time.NewTicker(c.cfg.PingPeriod)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case message, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}

			if err := c.conn.WriteMessage(websocket.TextMessage, message); err != nil {
				return
			}

		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(c.cfg.WriteWait))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
