package service

import (
	"context"

	"github.com/weiawesome/wes-io-chat/internal/domain"
	"github.com/weiawesome/wes-io-chat/internal/room"
)

// ChatService is the event router. Every operation runs atomically with
// respect to the session registry, room directory and conversation store.
type ChatService interface {
	// Dispatch routes a decoded request to its handler and returns the
	// acknowledgement payload, which is nil for fire-and-forget events.
	Dispatch(ctx context.Context, connID string, req domain.Request) (any, error)

	HandleAuth(ctx context.Context, connID string, req domain.AuthRequest) (*domain.AuthAck, error)
	HandleJoinRoom(ctx context.Context, connID string, req domain.JoinRoomRequest) (*domain.JoinAck, error)
	HandleLeaveRoom(ctx context.Context, connID string, req domain.LeaveRoomRequest) (*domain.StatusAck, error)
	HandleSendMessage(ctx context.Context, connID string, req domain.SendMessageRequest) (*domain.SendAck, error)
	HandleTyping(ctx context.Context, connID string, req domain.TypingRequest) error
	HandleReact(ctx context.Context, connID string, req domain.ReactRequest) (*domain.StatusAck, error)
	HandleRead(ctx context.Context, connID string, req domain.ReadRequest) error
	HandleFetchOlder(ctx context.Context, connID string, req domain.FetchOlderRequest) (*domain.PageAck, error)
	HandleDisconnect(ctx context.Context, connID string)

	// Read-only views for the HTTP API.
	OnlineUsers() []string
	Rooms() []room.Summary
	RoomHistory(name, before string, limit int) []*domain.Message
}
