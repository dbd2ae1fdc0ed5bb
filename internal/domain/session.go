package domain

import "time"

// Session is the identity bound to one live connection.
// It is owned by the session registry and must only be touched while the
// router holds its serialization lock.
type Session struct {
	ConnID          string
	Username        string
	CurrentRoom     string
	AuthenticatedAt time.Time

	// Seq orders sessions by first authentication for the presence list.
	Seq uint64
}

// NewSession creates a session for connID claimed as username.
func NewSession(connID, username string, seq uint64) *Session {
	return &Session{
		ConnID:          connID,
		Username:        username,
		AuthenticatedAt: time.Now(),
		Seq:             seq,
	}
}

// RoomOr returns room when set, otherwise the session's current room.
func (s *Session) RoomOr(room string) string {
	if room != "" {
		return room
	}
	return s.CurrentRoom
}
