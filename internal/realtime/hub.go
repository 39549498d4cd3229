package realtime

import (
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"go.uber.org/zap"
)

const (
	// PingInterval and PongWait are used for heartbeat (seconds).
	PingInterval = 30
	PongWait     = 60
)

// Hub maintains organization rooms plus a global feed and broadcasts
// entity-change events. Uses Redis pub/sub for horizontal scaling: events are
// published to Redis and every instance (including the publisher) delivers
// them to its local clients exactly once.
type Hub struct {
	// organization id -> map[clientID]*Client; uuid.Nil is the global feed.
	rooms  map[uuid.UUID]map[string]*Client
	mu     sync.RWMutex
	logger *zap.Logger
	redis  Publisher
}

// Publisher is the interface for publishing to Redis (cross-instance broadcast).
type Publisher interface {
	PublishOrgEvent(orgID uuid.UUID, event string, payload []byte) error
}

// NewHub creates a new WebSocket hub. redisPub may be nil; events are then
// delivered locally only.
func NewHub(logger *zap.Logger, redisPub Publisher) *Hub {
	return &Hub{
		rooms:  make(map[uuid.UUID]map[string]*Client),
		logger: logger,
		redis:  redisPub,
	}
}

// Register adds a client to its room.
func (h *Hub) Register(c *Client) {
	h.mu.Lock()
	if h.rooms[c.OrgID] == nil {
		h.rooms[c.OrgID] = make(map[string]*Client)
	}
	h.rooms[c.OrgID][c.ID] = c
	h.mu.Unlock()
	h.logger.Debug("client joined feed",
		zap.String("client_id", c.ID),
		zap.String("organization_id", c.OrgID.String()))
}

// Unregister removes a client from its room.
func (h *Hub) Unregister(c *Client) {
	h.mu.Lock()
	if m, ok := h.rooms[c.OrgID]; ok {
		delete(m, c.ID)
		if len(m) == 0 {
			delete(h.rooms, c.OrgID)
		}
	}
	h.mu.Unlock()
	h.logger.Debug("client left feed",
		zap.String("client_id", c.ID),
		zap.String("organization_id", c.OrgID.String()))
}

// ClientCount returns the number of connected clients across all rooms.
func (h *Hub) ClientCount() int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, m := range h.rooms {
		n += len(m)
	}
	return n
}

// Publish sends an entity-change event for an organization. With Redis
// configured the event is published only; the subscription callback performs
// the local broadcast once for all instances, avoiding duplicate delivery.
func (h *Hub) Publish(orgID uuid.UUID, event string, payload interface{}) {
	data, err := json.Marshal(payload)
	if err != nil {
		h.logger.Warn("dropping unmarshalable event payload",
			zap.String("event", event), zap.Error(err))
		return
	}
	if h.redis != nil {
		if err := h.redis.PublishOrgEvent(orgID, event, data); err == nil {
			return
		}
		// Redis down: fall back to local delivery so this instance's clients
		// still hear about the change.
	}
	h.Deliver(orgID, event, data)
}

// Deliver broadcasts an event to the organization's room and the global feed
// (local clients only).
func (h *Hub) Deliver(orgID uuid.UUID, event string, data json.RawMessage) {
	msg := WSMessage{Event: event, OrgID: orgID, Data: data}

	h.mu.RLock()
	targets := make([]*Client, 0, 8)
	for _, c := range h.rooms[orgID] {
		targets = append(targets, c)
	}
	if orgID != uuid.Nil {
		for _, c := range h.rooms[uuid.Nil] {
			targets = append(targets, c)
		}
	}
	h.mu.RUnlock()

	for _, c := range targets {
		select {
		case c.send <- msg:
		default:
			// buffer full, skip
		}
	}
}
