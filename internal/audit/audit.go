// Package audit writes session lifecycle entries tagged log_type=audit so
// they can be filtered out of the regular service log.
package audit

import (
	"context"

	"github.com/rs/zerolog"
	"github.com/weiawesome/wes-io-chat/pkg/log"
)

// Audit actions for the chat coordinator.
const (
	ActionAuth        = "chat.auth"
	ActionAuthFailed  = "chat.auth_failed"
	ActionJoinRoom    = "chat.join_room"
	ActionLeaveRoom   = "chat.leave_room"
	ActionSendMessage = "chat.send_message"
	ActionDisconnect  = "chat.disconnect"
)

// FieldAction names the audited action.
const FieldAction = "action"

// Log records action performed by username.
func Log(ctx context.Context, action, username, msg string) {
	entry(ctx, action, username).Msg(msg)
}

// LogRoom records a room membership change.
func LogRoom(ctx context.Context, action, username, room, msg string) {
	entry(ctx, action, username).Str(log.FieldRoom, room).Msg(msg)
}

// LogMessage records an action on a stored message.
func LogMessage(ctx context.Context, action, username, messageID, msg string) {
	entry(ctx, action, username).Str(log.FieldMessageID, messageID).Msg(msg)
}

func entry(ctx context.Context, action, username string) *zerolog.Event {
	l := log.Ctx(ctx)
	return l.Info().
		Str(log.FieldLogType, log.LogTypeAudit).
		Str(FieldAction, action).
		Str(log.FieldUsername, username)
}
