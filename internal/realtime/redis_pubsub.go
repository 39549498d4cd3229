package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"
)

const (
	// eventsChannel carries every organization event; each instance subscribes
	// once and routes messages to the right room locally.
	eventsChannel = "orgs:events"
	publishTTL    = 5 * time.Second
)

// redisPayload is the message published to Redis for cross-instance broadcast.
type redisPayload struct {
	OrgID uuid.UUID       `json:"org_id"`
	Event string          `json:"event"`
	Data  json.RawMessage `json:"data"`
	At    int64           `json:"at"`
}

// RedisPubSub implements Publisher using Redis pub/sub.
type RedisPubSub struct {
	client *redis.Client
	logger *zap.Logger
}

// NewRedisPubSub creates a Redis pub/sub bridge for organization events.
func NewRedisPubSub(client *redis.Client, logger *zap.Logger) *RedisPubSub {
	return &RedisPubSub{client: client, logger: logger}
}

// PublishOrgEvent publishes an event to the shared events channel.
func (r *RedisPubSub) PublishOrgEvent(orgID uuid.UUID, event string, payload []byte) error {
	body, err := json.Marshal(redisPayload{OrgID: orgID, Event: event, Data: payload, At: time.Now().Unix()})
	if err != nil {
		return err
	}
	ctx, cancel := context.WithTimeout(context.Background(), publishTTL)
	defer cancel()
	return r.client.Publish(ctx, eventsChannel, body).Err()
}

// Subscribe listens on the events channel and feeds each message to the hub.
// Returns a cancel function to stop the subscription.
func (r *RedisPubSub) Subscribe(hub *Hub) (cancel func(), err error) {
	ctx, cancelCtx := context.WithCancel(context.Background())
	pubsub := r.client.Subscribe(ctx, eventsChannel)
	if _, err = pubsub.Receive(ctx); err != nil {
		cancelCtx()
		return nil, fmt.Errorf("subscribe: %w", err)
	}
	ch := pubsub.Channel()
	go func() {
		defer pubsub.Close()
		for {
			select {
			case <-ctx.Done():
				return
			case msg, ok := <-ch:
				if !ok {
					return
				}
				var p redisPayload
				if err := json.Unmarshal([]byte(msg.Payload), &p); err != nil {
					r.logger.Warn("bad pubsub payload", zap.Error(err))
					continue
				}
				hub.Deliver(p.OrgID, p.Event, p.Data)
			}
		}
	}()
	return func() { cancelCtx() }, nil
}
