package realtime

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func testClient(orgID uuid.UUID) *Client {
	return &Client{
		ID:    uuid.NewString(),
		OrgID: orgID,
		send:  make(chan WSMessage, 4),
	}
}

func TestDeliverRoutesToRoomAndGlobalFeed(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t), nil)
	orgID := uuid.New()

	scoped := testClient(orgID)
	global := testClient(uuid.Nil)
	other := testClient(uuid.New())
	hub.Register(scoped)
	hub.Register(global)
	hub.Register(other)

	hub.Deliver(orgID, "organization.updated", json.RawMessage(`{"name":"x"}`))

	require.Len(t, scoped.send, 1)
	msg := <-scoped.send
	assert.Equal(t, "organization.updated", msg.Event)
	assert.Equal(t, orgID, msg.OrgID)

	require.Len(t, global.send, 1)
	assert.Empty(t, other.send, "unrelated rooms stay quiet")
}

func TestUnregisterStopsDelivery(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t), nil)
	orgID := uuid.New()
	c := testClient(orgID)
	hub.Register(c)
	require.Equal(t, 1, hub.ClientCount())

	hub.Unregister(c)
	assert.Zero(t, hub.ClientCount())

	hub.Deliver(orgID, "organization.deleted", nil)
	assert.Empty(t, c.send)
}

type failingPublisher struct{ calls int }

func (f *failingPublisher) PublishOrgEvent(uuid.UUID, string, []byte) error {
	f.calls++
	return errors.New("redis down")
}

func TestPublishFallsBackToLocalDeliveryWhenRedisFails(t *testing.T) {
	pub := &failingPublisher{}
	hub := NewHub(zaptest.NewLogger(t), pub)
	orgID := uuid.New()
	c := testClient(orgID)
	hub.Register(c)

	hub.Publish(orgID, "organization.created", map[string]string{"name": "x"})

	assert.Equal(t, 1, pub.calls)
	require.Len(t, c.send, 1)
	assert.Equal(t, "organization.created", (<-c.send).Event)
}

func TestPublishSkipsLocalDeliveryWhenRedisAccepts(t *testing.T) {
	hub := NewHub(zaptest.NewLogger(t), okPublisher{})
	orgID := uuid.New()
	c := testClient(orgID)
	hub.Register(c)

	hub.Publish(orgID, "organization.created", map[string]string{"name": "x"})
	assert.Empty(t, c.send, "delivery happens via the subscription callback, not inline")
}

type okPublisher struct{}

func (okPublisher) PublishOrgEvent(uuid.UUID, string, []byte) error { return nil }

func TestPublishDropsUnmarshalablePayload(t *testing.T) {
	pub := &failingPublisher{}
	hub := NewHub(zaptest.NewLogger(t), pub)
	orgID := uuid.New()
	c := testClient(orgID)
	hub.Register(c)

	hub.Publish(orgID, "organization.updated", make(chan int))

	assert.Zero(t, pub.calls, "nothing reaches Redis")
	assert.Empty(t, c.send, "nothing reaches local clients")
}
