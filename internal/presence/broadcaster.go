// Package presence publishes the online user list: to every connected client
// through users:update, and optionally to a shared store for other processes.
package presence

import (
	"slices"

	"github.com/weiawesome/wes-io-chat/internal/domain"
)

// Mirror receives every presence snapshot. Update must not block.
type Mirror interface {
	Update(usernames []string)
}

// Broadcaster fans presence snapshots out to all connections.
type Broadcaster struct {
	deliverer domain.Deliverer
	mirror    Mirror
}

// NewBroadcaster creates a Broadcaster. mirror may be nil.
func NewBroadcaster(deliverer domain.Deliverer, mirror Mirror) *Broadcaster {
	return &Broadcaster{deliverer: deliverer, mirror: mirror}
}

// Refresh sends the full online list to every connection.
func (b *Broadcaster) Refresh(usernames []string) {
	if usernames == nil {
		usernames = []string{}
	}
	b.deliverer.Broadcast(domain.EventUsersUpdate, usernames)
	if b.mirror != nil {
		b.mirror.Update(slices.Clone(usernames))
	}
}
