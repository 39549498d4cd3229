package realtime

import (
	"encoding/json"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/gorilla/websocket"
	"go.uber.org/zap"

	"github.com/richhabits/backend/internal/auth"
	"github.com/richhabits/backend/pkg/response"
)

var upgrader = websocket.Upgrader{
	ReadBufferSize:  1024,
	WriteBufferSize: 1024,
	CheckOrigin: func(r *http.Request) bool {
		return true
	},
}

// WSMessage is the wire format for events pushed to clients.
type WSMessage struct {
	Event string          `json:"event"`
	OrgID uuid.UUID       `json:"organizationId"`
	Data  json.RawMessage `json:"data"`
}

// Client represents a single WebSocket subscriber.
type Client struct {
	ID     string
	OrgID  uuid.UUID // uuid.Nil subscribes to all organizations
	UserID string
	hub    *Hub
	conn   *websocket.Conn
	send   chan WSMessage
	logger *zap.Logger
}

// ServeWS upgrades the connection and attaches the client to the hub. The
// optional organization_id query parameter scopes the feed to one
// organization; without it the client receives every event. A token query
// parameter, if present, must be a valid JWT.
func ServeWS(hub *Hub, jwtService *auth.JWTService, logger *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		var userID string
		if token := c.Query("token"); token != "" {
			claims, err := jwtService.Validate(token)
			if err != nil {
				response.Unauthorized(c, "invalid token")
				return
			}
			userID = claims.UserID.String()
		}

		orgID := uuid.Nil
		if raw := c.Query("organization_id"); raw != "" {
			parsed, err := uuid.Parse(raw)
			if err != nil {
				response.BadRequest(c, "invalid organization_id")
				return
			}
			orgID = parsed
		}

		conn, err := upgrader.Upgrade(c.Writer, c.Request, nil)
		if err != nil {
			logger.Warn("websocket upgrade failed", zap.Error(err))
			return
		}

		client := &Client{
			ID:     uuid.New().String(),
			OrgID:  orgID,
			UserID: userID,
			hub:    hub,
			conn:   conn,
			send:   make(chan WSMessage, 32),
			logger: logger,
		}
		hub.Register(client)

		go client.writePump()
		go client.readPump()
	}
}

// readPump discards inbound frames; the feed is one-way. It exists to process
// control messages and detect disconnects.
func (c *Client) readPump() {
	defer func() {
		c.hub.Unregister(c)
		c.conn.Close()
	}()

	c.conn.SetReadLimit(512)
	c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
	c.conn.SetPongHandler(func(string) error {
		c.conn.SetReadDeadline(time.Now().Add(PongWait * time.Second))
		return nil
	})

	for {
		if _, _, err := c.conn.ReadMessage(); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseGoingAway, websocket.CloseNormalClosure) {
				c.logger.Debug("websocket read error", zap.Error(err))
			}
			return
		}
	}
}

// writePump pushes hub events and heartbeats to the peer.
func (c *Client) writePump() {
	ticker := time.NewTicker(PingInterval * time.Second)
	defer func() {
		ticker.Stop()
		c.conn.Close()
	}()

	for {
		select {
		case msg, ok := <-c.send:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if !ok {
				c.conn.WriteMessage(websocket.CloseMessage, []byte{})
				return
			}
			if err := c.conn.WriteJSON(msg); err != nil {
				return
			}
		case <-ticker.C:
			c.conn.SetWriteDeadline(time.Now().Add(10 * time.Second))
			if err := c.conn.WriteMessage(websocket.PingMessage, nil); err != nil {
				return
			}
		}
	}
}
