package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
)

// Client -> server events.
const (
	EventAuth        = "auth"
	EventJoinRoom    = "join:room"
	EventLeaveRoom   = "leave:room"
	EventSendMessage = "message:send"
	EventTyping      = "typing"
	EventStopTyping  = "stopTyping"
	EventReact       = "message:react"
	EventRead        = "message:read"
	EventFetchOlder  = "fetch:older"
)

// Server -> client events. typing, stopTyping, message:react and
// message:read are echoed under their inbound names.
const (
	EventAck              = "ack"
	EventUsersUpdate      = "users:update"
	EventMessageNew       = "message:new"
	EventPrivateMessage   = "private:message"
	EventRoomNotification = "room:notification"
)

// Frame is one inbound websocket frame.
type Frame struct {
	Type string          `json:"type"`
	Ack  string          `json:"ack,omitempty"`
	Data json.RawMessage `json:"data,omitempty"`
}

// OutFrame is one outbound websocket frame.
type OutFrame struct {
	Type string `json:"type"`
	Ack  string `json:"ack,omitempty"`
	Data any    `json:"data"`
}

// Request is the tagged union of inbound events; each variant carries
// only the fields its event uses.
type Request interface {
	Event() string
}

type AuthRequest struct {
	Username string `json:"username"`
}

type JoinRoomRequest struct {
	Room string `json:"room"`
}

type LeaveRoomRequest struct {
	Room string `json:"room"`
}

type SendMessageRequest struct {
	Room  string          `json:"room"`
	To    string          `json:"to"`
	Text  string          `json:"text"`
	Image json.RawMessage `json:"image"`
}

// TypingRequest covers both typing and stopTyping.
type TypingRequest struct {
	Room string `json:"room"`
	To   string `json:"to"`
	Stop bool   `json:"-"`
}

type ReactRequest struct {
	MessageID string `json:"messageId"`
	Reaction  string `json:"reaction"`
	Room      string `json:"room"`
	To        string `json:"to"`
}

type ReadRequest struct {
	MessageID string `json:"messageId"`
	Room      string `json:"room"`
	To        string `json:"to"`
}

type FetchOlderRequest struct {
	Room   string `json:"room"`
	Before string `json:"before"`
}

func (AuthRequest) Event() string        { return EventAuth }
func (JoinRoomRequest) Event() string    { return EventJoinRoom }
func (LeaveRoomRequest) Event() string   { return EventLeaveRoom }
func (SendMessageRequest) Event() string { return EventSendMessage }
func (ReactRequest) Event() string       { return EventReact }
func (ReadRequest) Event() string        { return EventRead }
func (FetchOlderRequest) Event() string  { return EventFetchOlder }

func (r TypingRequest) Event() string {
	if r.Stop {
		return EventStopTyping
	}
	return EventTyping
}

// DecodeRequest decodes the payload of an event into its request variant.
// A missing or null payload decodes to the zero value of the variant, so
// required-field checks happen in one place: the router.
func DecodeRequest(event string, data json.RawMessage) (Request, error) {
	switch event {
	case EventAuth:
		return decodeInto[AuthRequest](data)
	case EventJoinRoom:
		return decodeInto[JoinRoomRequest](data)
	case EventLeaveRoom:
		return decodeInto[LeaveRoomRequest](data)
	case EventSendMessage:
		return decodeInto[SendMessageRequest](data)
	case EventTyping, EventStopTyping:
		req, err := decodeInto[TypingRequest](data)
		if err != nil {
			return nil, err
		}
		t := req.(TypingRequest)
		t.Stop = event == EventStopTyping
		return t, nil
	case EventReact:
		return decodeInto[ReactRequest](data)
	case EventRead:
		return decodeInto[ReadRequest](data)
	case EventFetchOlder:
		return decodeInto[FetchOlderRequest](data)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownEvent, event)
	}
}

func decodeInto[T Request](data json.RawMessage) (Request, error) {
	var req T
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return req, nil
	}
	if err := json.Unmarshal(trimmed, &req); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrBadPayload, err)
	}
	return req, nil
}

// Acknowledged reports whether event answers its caller with an ack.
func Acknowledged(event string) bool {
	switch event {
	case EventTyping, EventStopTyping, EventRead:
		return false
	default:
		return true
	}
}

// Ack statuses.
const (
	StatusOK    = "ok"
	StatusError = "error"
)

type ErrorAck struct {
	Status  string `json:"status"`
	Code    string `json:"code"`
	Message string `json:"message"`
}

type AuthAck struct {
	Status   string `json:"status"`
	SocketID string `json:"socketId"`
}

type JoinAck struct {
	Status   string     `json:"status"`
	Room     string     `json:"room"`
	Messages []*Message `json:"messages"`
}

type StatusAck struct {
	Status string `json:"status"`
}

type SendAck struct {
	Status  string   `json:"status"`
	Message *Message `json:"message"`
}

type PageAck struct {
	Status   string     `json:"status"`
	Messages []*Message `json:"messages"`
}

// OK is the ack for operations with nothing to report.
var OK = &StatusAck{Status: StatusOK}

// Pushed payloads.

type TypingEvent struct {
	From    string `json:"from"`
	Private bool   `json:"private"`
	Room    string `json:"room,omitempty"`
}

type ReactionEvent struct {
	MessageID string         `json:"messageId"`
	Reaction  string         `json:"reaction"`
	From      string         `json:"from"`
	Reactions map[string]int `json:"reactions"`
}

type ReadEvent struct {
	MessageID string   `json:"messageId"`
	By        string   `json:"by"`
	ReadBy    []string `json:"readBy,omitempty"`
}

// Deliverer is the transport primitive the router fans out through.
// Send must not block: delivery to an absent or saturated connection is
// skipped and reported as false.
type Deliverer interface {
	Send(connID, event string, payload any) bool
	Broadcast(event string, payload any)
}
