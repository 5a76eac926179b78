package live

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"reflectionsmatch/logger"
)

// capturedBus records what the bridge would publish to redis.
type capturedBus struct {
	sent chan []byte
	hold chan struct{}
}

func (c *capturedBus) publish(ctx context.Context, payload []byte) error {
	if c.hold != nil {
		select {
		case <-c.hold:
		case <-ctx.Done():
			return ctx.Err()
		}
	}
	c.sent <- payload
	return nil
}

func startTestBridge(t *testing.T, hub *Hub, bus *capturedBus) *RedisBridge {
	t.Helper()
	b := newBridge(logger.Nop(), hub, "changes", bus.publish)
	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)
	hub.SetForwarder(b.enqueue)
	go b.drain(ctx)
	return b
}

func TestRedisBridge_TagsLocalChanges(t *testing.T) {
	hub := NewHub()
	bus := &capturedBus{sent: make(chan []byte, 4)}
	b := startTestBridge(t, hub, bus)

	hub.Publish(Change{UserID: 7, Kind: KIND_REFLECTIONS})

	select {
	case raw := <-bus.sent:
		var ch Change
		require.NoError(t, json.Unmarshal(raw, &ch))
		assert.Equal(t, b.instance, ch.Instance)
		assert.Equal(t, int64(7), ch.UserID)
		assert.Equal(t, KIND_REFLECTIONS, ch.Kind)
	case <-time.After(time.Second):
		t.Fatal("nothing published")
	}
}

func TestRedisBridge_IgnoresOwnEcho(t *testing.T) {
	hub := NewHub()
	bus := &capturedBus{sent: make(chan []byte, 4)}
	b := startTestBridge(t, hub, bus)

	hub.Publish(Change{UserID: 7, Kind: KIND_REFLECTIONS})
	var echo []byte
	select {
	case echo = <-bus.sent:
	case <-time.After(time.Second):
		t.Fatal("nothing published")
	}

	local, cancel := hub.Subscribe(4)
	defer cancel()
	b.relay(echo)
	b.relay([]byte("not json"))

	select {
	case ch := <-local:
		t.Fatalf("own echo was delivered again: %+v", ch)
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRedisBridge_RelaysOtherInstances(t *testing.T) {
	hub := NewHub()
	bus := &capturedBus{sent: make(chan []byte, 4)}
	b := startTestBridge(t, hub, bus)
	local, cancel := hub.Subscribe(4)
	defer cancel()

	raw, err := json.Marshal(Change{UserID: 3, Kind: KIND_PROFILE, Instance: "other-node"})
	require.NoError(t, err)
	b.relay(raw)

	got := receive(t, local)
	assert.Equal(t, int64(3), got.UserID)
	assert.True(t, got.IsRemote())

	// remote changes are not sent back out
	select {
	case <-bus.sent:
		t.Fatal("remote change was forwarded")
	case <-time.After(50 * time.Millisecond):
	}
}

func TestRedisBridge_SlowRedisDoesNotBlockPublish(t *testing.T) {
	hub := NewHub()
	bus := &capturedBus{sent: make(chan []byte, REDIS_OUTBOX_SIZE*2), hold: make(chan struct{})}
	startTestBridge(t, hub, bus)

	done := make(chan struct{})
	go func() {
		for i := 0; i < REDIS_OUTBOX_SIZE*2; i++ {
			hub.Publish(Change{UserID: int64(i), Kind: KIND_REFLECTIONS})
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Publish blocked on redis")
	}
	close(bus.hold)
	select {
	case <-bus.sent:
	case <-time.After(time.Second):
		t.Fatal("outbox never drained")
	}
}
