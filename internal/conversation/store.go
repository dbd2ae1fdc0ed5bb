// Package conversation stores two-party private message history.
package conversation

import (
	"github.com/weiawesome/wes-io-chat/internal/domain"
	"github.com/weiawesome/wes-io-chat/internal/msglog"
)

// Key identifies a conversation by its participants in sorted order, so that
// (a, b) and (b, a) address the same log.
type Key struct {
	Low, High string
}

func KeyOf(a, b string) Key {
	if b < a {
		a, b = b, a
	}
	return Key{Low: a, High: b}
}

// Store owns every conversation log. Conversations are created lazily on the
// first private message between a pair.
//
// Store is not safe for concurrent use; the router serializes access.
type Store struct {
	logs    map[Key]*msglog.Log
	stamper *msglog.Stamper
}

func NewStore(stamper *msglog.Stamper) *Store {
	return &Store{
		logs:    make(map[Key]*msglog.Log),
		stamper: stamper,
	}
}

// Post stamps msg, appends it to the conversation between a and b and
// returns a copy of the stored value.
func (s *Store) Post(a, b string, msg *domain.Message) (*domain.Message, error) {
	if err := s.stamper.Stamp(msg); err != nil {
		return nil, err
	}
	key := KeyOf(a, b)
	l, ok := s.logs[key]
	if !ok {
		l = msglog.New()
		s.logs[key] = l
	}
	if err := l.Append(msg); err != nil {
		return nil, err
	}
	return msg.Clone(), nil
}

// Find returns the live message id from the conversation between a and b.
func (s *Store) Find(a, b, id string) (*domain.Message, error) {
	l, ok := s.logs[KeyOf(a, b)]
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	msg, ok := l.Find(id)
	if !ok {
		return nil, domain.ErrMessageNotFound
	}
	return msg, nil
}

