package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMessage_WireShapeKeepsNullFields(t *testing.T) {
	msg := NewNotification("general", "alice joined general")
	msg.ID = "n1"
	msg.Timestamp = 1700000000000

	data, err := json.Marshal(msg)
	require.NoError(t, err)

	var wire map[string]any
	require.NoError(t, json.Unmarshal(data, &wire))

	for _, key := range []string{"id", "from", "to", "room", "text", "image", "timestamp", "type"} {
		assert.Contains(t, wire, key)
	}
	assert.Nil(t, wire["to"])
	assert.Nil(t, wire["image"])
	assert.Equal(t, "notification", wire["type"])
	assert.Equal(t, "system", wire["from"])
	assert.NotContains(t, wire, "reactions")
}

func TestMessage_PrivateVsRoom(t *testing.T) {
	p := NewPrivateMessage("alice", "bob", "hi", nil)
	assert.True(t, p.IsPrivate())
	assert.Equal(t, "bob", p.Recipient())
	assert.Nil(t, p.Room)

	r := NewRoomMessage("alice", "general", "", json.RawMessage(`"blob"`))
	assert.False(t, r.IsPrivate())
	assert.Equal(t, "general", r.RoomName())
	assert.Nil(t, r.Text)
}

func TestMessage_ReactionsAndReads(t *testing.T) {
	m := NewRoomMessage("alice", "general", "hi", nil)
	assert.Equal(t, 1, m.AddReaction("👍"))
	assert.Equal(t, 2, m.AddReaction("👍"))
	assert.Equal(t, 1, m.AddReaction("🎉"))

	assert.True(t, m.MarkRead("bob"))
	assert.False(t, m.MarkRead("bob"))
	assert.Equal(t, []string{"bob"}, m.ReadBy)
}

func TestMessage_CloneIsIndependent(t *testing.T) {
	m := NewRoomMessage("alice", "general", "hi", nil)
	m.AddReaction("👍")
	m.MarkRead("bob")

	c := m.Clone()
	m.AddReaction("👍")
	m.MarkRead("carol")

	assert.Equal(t, 1, c.Reactions["👍"])
	assert.Equal(t, []string{"bob"}, c.ReadBy)
}
