// Package msglog implements the append-only, paginated message history kept
// for every room and every private conversation.
//
// A Log is not safe for concurrent use. Logs are owned by the room directory
// and conversation store, which in turn are only touched by the router while
// it holds its serialization lock.
package msglog

import (
	"fmt"
	"time"

	"github.com/weiawesome/wes-io-chat/internal/domain"
	"github.com/weiawesome/wes-io-chat/internal/idgen"
)

// Log is an ordered message sequence with an id index.
type Log struct {
	messages []*domain.Message
	index    map[string]int
}

func New() *Log {
	return &Log{index: make(map[string]int)}
}

// Append stores msg at the end of the log. msg must already carry an id
// that is not yet present in the log.
func (l *Log) Append(msg *domain.Message) error {
	if msg.ID == "" {
		return fmt.Errorf("append message: missing id")
	}
	if _, exists := l.index[msg.ID]; exists {
		return fmt.Errorf("append message: duplicate id %s", msg.ID)
	}
	l.index[msg.ID] = len(l.messages)
	l.messages = append(l.messages, msg)
	return nil
}

func (l *Log) Len() int {
	return len(l.messages)
}

// Find returns the stored message with id. The returned pointer is the live
// entry, not a copy.
func (l *Log) Find(id string) (*domain.Message, bool) {
	i, ok := l.index[id]
	if !ok {
		return nil, false
	}
	return l.messages[i], true
}

// Tail returns copies of the last n messages, oldest first.
func (l *Log) Tail(n int) []*domain.Message {
	if n <= 0 {
		return []*domain.Message{}
	}
	start := len(l.messages) - n
	if start < 0 {
		start = 0
	}
	return domain.CloneAll(l.messages[start:])
}

// OlderThan returns copies of up to n messages immediately preceding the
// message with id before. An empty before yields the oldest page of the log;
// an unknown before yields an empty page.
func (l *Log) OlderThan(before string, n int) []*domain.Message {
	if n <= 0 {
		return []*domain.Message{}
	}
	if before == "" {
		end := n
		if end > len(l.messages) {
			end = len(l.messages)
		}
		return domain.CloneAll(l.messages[:end])
	}

	idx, ok := l.index[before]
	if !ok {
		return []*domain.Message{}
	}
	start := idx - n
	if start < 0 {
		start = 0
	}
	return domain.CloneAll(l.messages[start:idx])
}

// Stamper assigns the server-side identity of a message being stored.
type Stamper struct {
	ids idgen.Generator
	now func() time.Time
}

func NewStamper(ids idgen.Generator) *Stamper {
	return &Stamper{ids: ids, now: time.Now}
}

// Stamp fills id, timestamp and kind when they are absent.
func (s *Stamper) Stamp(msg *domain.Message) error {
	if msg.ID == "" {
		id, err := s.ids.Generate()
		if err != nil {
			return fmt.Errorf("generate message id: %w", err)
		}
		msg.ID = id
	}
	if msg.Timestamp == 0 {
		msg.Timestamp = s.now().UnixMilli()
	}
	if msg.Type == "" {
		msg.Type = domain.KindMessage
	}
	return nil
}
