package domain

import "errors"

var (
	ErrNotAuthenticated = errors.New("not authenticated")
	ErrUsernameRequired = errors.New("username required")
	ErrMessageNotFound  = errors.New("message not found")

	ErrEmptyMessage     = errors.New("text or image required")
	ErrRoomRequired     = errors.New("room required")
	ErrReactionRequired = errors.New("reaction required")
	ErrUnknownEvent     = errors.New("unknown event")
	ErrBadPayload       = errors.New("invalid payload")
)

// Error codes carried by error acknowledgements.
const (
	ErrCodeUnauthorized     = "UNAUTHORIZED"
	ErrCodeUsernameRequired = "USERNAME_REQUIRED"
	ErrCodeMessageNotFound  = "MESSAGE_NOT_FOUND"
	ErrCodeBadRequest       = "BAD_REQUEST"
	ErrCodeInternalError    = "INTERNAL_ERROR"
)

// ErrorCode maps an error to its wire code.
func ErrorCode(err error) string {
	switch {
	case errors.Is(err, ErrNotAuthenticated):
		return ErrCodeUnauthorized
	case errors.Is(err, ErrUsernameRequired):
		return ErrCodeUsernameRequired
	case errors.Is(err, ErrMessageNotFound):
		return ErrCodeMessageNotFound
	case errors.Is(err, ErrEmptyMessage),
		errors.Is(err, ErrRoomRequired),
		errors.Is(err, ErrReactionRequired),
		errors.Is(err, ErrUnknownEvent),
		errors.Is(err, ErrBadPayload):
		return ErrCodeBadRequest
	default:
		return ErrCodeInternalError
	}
}

// errorMessages keeps the human-readable texts clients already display.
var errorMessages = map[string]string{
	ErrCodeUnauthorized:     "Not authenticated",
	ErrCodeUsernameRequired: "Username required",
	ErrCodeMessageNotFound:  "Message not found",
}

// NewErrorAck converts err into an error acknowledgement.
func NewErrorAck(err error) *ErrorAck {
	code := ErrorCode(err)
	msg, ok := errorMessages[code]
	if !ok {
		msg = err.Error()
	}
	return &ErrorAck{Status: StatusError, Code: code, Message: msg}
}
