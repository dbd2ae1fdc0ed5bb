// Package registry keeps the session registry: which username each live
// connection has claimed, which room it occupies, and which connection a
// username currently routes to.
package registry

import (
	"slices"

	"github.com/weiawesome/wes-io-chat/internal/domain"
)

// Registry maps connections to sessions and usernames back to connections.
//
// Claims follow last-claim-wins: authenticating with a username another live
// connection holds moves the username's routing to the new connection. The
// earlier holder keeps its session and stays connected, but it is no longer
// reachable by username.
//
// Registry is not safe for concurrent use; the router serializes access.
type Registry struct {
	sessions map[string]*domain.Session // connID -> session
	byName   map[string]string          // username -> connID
	seq      uint64
}

func New() *Registry {
	return &Registry{
		sessions: make(map[string]*domain.Session),
		byName:   make(map[string]string),
	}
}

// Authenticate binds username to connID. Re-authenticating a connection
// renames its session and keeps its room.
func (r *Registry) Authenticate(connID, username string) (*domain.Session, error) {
	if username == "" {
		return nil, domain.ErrUsernameRequired
	}

	sess, ok := r.sessions[connID]
	if ok {
		if sess.Username != username && r.byName[sess.Username] == connID {
			delete(r.byName, sess.Username)
		}
		sess.Username = username
	} else {
		r.seq++
		sess = domain.NewSession(connID, username, r.seq)
		r.sessions[connID] = sess
	}
	r.byName[username] = connID
	return sess, nil
}

// Resolve returns the session for connID.
func (r *Registry) Resolve(connID string) (*domain.Session, error) {
	sess, ok := r.sessions[connID]
	if !ok {
		return nil, domain.ErrNotAuthenticated
	}
	return sess, nil
}

// SetRoom records the room connID currently occupies; "" clears it.
func (r *Registry) SetRoom(connID, room string) error {
	sess, ok := r.sessions[connID]
	if !ok {
		return domain.ErrNotAuthenticated
	}
	sess.CurrentRoom = room
	return nil
}

// Lookup returns the connection a username routes to.
func (r *Registry) Lookup(username string) (string, bool) {
	connID, ok := r.byName[username]
	return connID, ok
}

// Release removes the session of connID. The username mapping is only
// dropped when it still points at connID, so releasing a connection whose
// name was taken over does not unroute the new holder.
func (r *Registry) Release(connID string) (*domain.Session, bool) {
	sess, ok := r.sessions[connID]
	if !ok {
		return nil, false
	}
	delete(r.sessions, connID)
	if r.byName[sess.Username] == connID {
		delete(r.byName, sess.Username)
	}
	return sess, true
}

// Usernames returns the presence list: every username holding a live
// session, in order of first authentication, without duplicates.
func (r *Registry) Usernames() []string {
	sessions := make([]*domain.Session, 0, len(r.sessions))
	for _, s := range r.sessions {
		sessions = append(sessions, s)
	}
	slices.SortFunc(sessions, func(a, b *domain.Session) int {
		switch {
		case a.Seq < b.Seq:
			return -1
		case a.Seq > b.Seq:
			return 1
		default:
			return 0
		}
	})

	names := make([]string, 0, len(sessions))
	seen := make(map[string]struct{}, len(sessions))
	for _, s := range sessions {
		if _, dup := seen[s.Username]; dup {
			continue
		}
		seen[s.Username] = struct{}{}
		names = append(names, s.Username)
	}
	return names
}

