package hub

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiawesome/wes-io-chat/internal/config"
	"github.com/weiawesome/wes-io-chat/internal/domain"
)

func newTestClient(h *Hub, id string, buffer int) *Client {
	c := NewClient(id, h, nil, config.WebSocketConfig{SendBuffer: buffer})
	h.Register(c)
	return c
}

func readFrame(t *testing.T, c *Client) map[string]any {
	t.Helper()
	select {
	case data := <-c.Send:
		var frame map[string]any
		require.NoError(t, json.Unmarshal(data, &frame))
		return frame
	default:
		t.Fatalf("no frame queued for %s", c.ID)
		return nil
	}
}

func TestHub_SendAndReply(t *testing.T) {
	h := NewHub(config.WebSocketConfig{})
	c := newTestClient(h, "c1", 4)

	assert.True(t, h.Send("c1", domain.EventUsersUpdate, []string{"alice"}))
	frame := readFrame(t, c)
	assert.Equal(t, "users:update", frame["type"])
	assert.Equal(t, []any{"alice"}, frame["data"])
	assert.NotContains(t, frame, "ack")

	assert.True(t, h.Reply("c1", "7", domain.OK))
	frame = readFrame(t, c)
	assert.Equal(t, "ack", frame["type"])
	assert.Equal(t, "7", frame["ack"])
	assert.Equal(t, map[string]any{"status": "ok"}, frame["data"])

	assert.False(t, h.Send("ghost", domain.EventUsersUpdate, nil))
}

func TestHub_Broadcast(t *testing.T) {
	h := NewHub(config.WebSocketConfig{})
	a := newTestClient(h, "a", 4)
	b := newTestClient(h, "b", 4)

	h.Broadcast(domain.EventUsersUpdate, []string{"alice", "bob"})
	assert.Equal(t, "users:update", readFrame(t, a)["type"])
	assert.Equal(t, "users:update", readFrame(t, b)["type"])
	assert.Equal(t, 2, h.Count())
}

func TestHub_FullBufferDropsClientWithoutBlocking(t *testing.T) {
	h := NewHub(config.WebSocketConfig{})
	slow := newTestClient(h, "slow", 1)
	fast := newTestClient(h, "fast", 8)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 5; i++ {
			h.Broadcast(domain.EventUsersUpdate, []string{})
		}
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("broadcast blocked on a slow client")
	}

	assert.Len(t, fast.Send, 5)
	require.Eventually(t, func() bool { return h.Count() == 1 }, time.Second, 5*time.Millisecond)
	assert.False(t, h.Send("slow", domain.EventUsersUpdate, nil))

	// The buffer was closed after the queued frame.
	<-slow.Send
	_, open := <-slow.Send
	assert.False(t, open)
}

func TestHub_UnregisterIsIdempotent(t *testing.T) {
	h := NewHub(config.WebSocketConfig{})
	c := newTestClient(h, "c1", 1)

	assert.True(t, h.Unregister(c))
	assert.False(t, h.Unregister(c))
	assert.Equal(t, 0, h.Count())
}

func TestHub_ReplacedClientIsNotUnregisteredByStaleHandle(t *testing.T) {
	h := NewHub(config.WebSocketConfig{})
	old := newTestClient(h, "c1", 1)
	newTestClient(h, "c1", 1)

	assert.False(t, h.Unregister(old))
	assert.Equal(t, 1, h.Count())
}

func TestHub_RunClosesClientsOnShutdown(t *testing.T) {
	h := NewHub(config.WebSocketConfig{})
	c := newTestClient(h, "c1", 1)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		h.Run(ctx)
		close(stopped)
	}()
	cancel()
	<-stopped

	_, open := <-c.Send
	assert.False(t, open)
	assert.Equal(t, 0, h.Count())
}
