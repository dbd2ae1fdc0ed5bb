package domain

import (
	"encoding/json"
	"slices"
)

// SystemSender is the author of synthetic room notifications.
const SystemSender = "system"

// MessageKind distinguishes user messages from system notifications.
type MessageKind string

const (
	KindMessage      MessageKind = "message"
	KindNotification MessageKind = "notification"
)

// Message is a stored chat message. Exactly one of To and Room is set:
// To for private messages, Room for room-scoped ones.
//
// Apart from Reactions and ReadBy a stored message never changes. Those two
// only grow, and only while the owning store is held by the router.
type Message struct {
	ID        string          `json:"id"`
	From      string          `json:"from"`
	To        *string         `json:"to"`
	Room      *string         `json:"room"`
	Text      *string         `json:"text"`
	Image     json.RawMessage `json:"image"`
	Timestamp int64           `json:"timestamp"`
	Type      MessageKind     `json:"type"`
	Reactions map[string]int  `json:"reactions,omitempty"`
	ReadBy    []string        `json:"readBy,omitempty"`
}

// NewRoomMessage builds an unstored message addressed to room.
func NewRoomMessage(from, room, text string, image json.RawMessage) *Message {
	return &Message{
		From:  from,
		Room:  optional(room),
		Text:  optional(text),
		Image: attachment(image),
		Type:  KindMessage,
	}
}

// NewPrivateMessage builds an unstored message addressed to a single user.
func NewPrivateMessage(from, to, text string, image json.RawMessage) *Message {
	return &Message{
		From:  from,
		To:    optional(to),
		Text:  optional(text),
		Image: attachment(image),
		Type:  KindMessage,
	}
}

// NewNotification builds a system notification for room.
func NewNotification(room, text string) *Message {
	return &Message{
		From: SystemSender,
		Room: optional(room),
		Text: optional(text),
		Type: KindNotification,
	}
}

// IsPrivate reports whether the message belongs to a conversation.
func (m *Message) IsPrivate() bool {
	return m.To != nil
}

// RoomName returns the room the message was posted to, or "".
func (m *Message) RoomName() string {
	if m.Room == nil {
		return ""
	}
	return *m.Room
}

// Recipient returns the private recipient, or "".
func (m *Message) Recipient() string {
	if m.To == nil {
		return ""
	}
	return *m.To
}

// AddReaction increments the count for symbol and returns the new count.
func (m *Message) AddReaction(symbol string) int {
	if m.Reactions == nil {
		m.Reactions = make(map[string]int)
	}
	m.Reactions[symbol]++
	return m.Reactions[symbol]
}

// MarkRead records username as a reader. It returns false if already recorded.
func (m *Message) MarkRead(username string) bool {
	if slices.Contains(m.ReadBy, username) {
		return false
	}
	m.ReadBy = append(m.ReadBy, username)
	return true
}

// Clone returns a copy that shares nothing mutable with m.
func (m *Message) Clone() *Message {
	if m == nil {
		return nil
	}
	c := *m
	if m.Reactions != nil {
		c.Reactions = make(map[string]int, len(m.Reactions))
		for k, v := range m.Reactions {
			c.Reactions[k] = v
		}
	}
	if m.ReadBy != nil {
		c.ReadBy = slices.Clone(m.ReadBy)
	}
	return &c
}

// CloneAll clones every message in msgs. The result is never nil.
func CloneAll(msgs []*Message) []*Message {
	out := make([]*Message, 0, len(msgs))
	for _, m := range msgs {
		out = append(out, m.Clone())
	}
	return out
}

// HasAttachment reports whether raw carries an actual value.
func HasAttachment(raw json.RawMessage) bool {
	return attachment(raw) != nil
}

func attachment(raw json.RawMessage) json.RawMessage {
	if len(raw) == 0 || string(raw) == "null" || string(raw) == `""` {
		return nil
	}
	return raw
}

func optional(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
