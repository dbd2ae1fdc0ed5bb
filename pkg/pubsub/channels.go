package pubsub

// Event types emitted by the chat coordinator.
const (
	EventMessageCreated  = "message.created"
	EventMessageReacted  = "message.reacted"
	EventMessageRead     = "message.read"
	EventPresenceUpdated = "presence.updated"
)

// DefaultChannel is the channel (redis) or topic (kafka) chat events go to.
const DefaultChannel = "chat.events"
