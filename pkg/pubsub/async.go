package pubsub

import (
	"context"
	"sync"
	"time"

	"github.com/weiawesome/wes-io-chat/pkg/log"
)

type queued struct {
	channel string
	event   *Event
}

// AsyncPublisher decouples callers from broker latency: Publish only enqueues,
// a single worker forwards events in order. When the queue is full the event
// is dropped and logged.
type AsyncPublisher struct {
	next    Publisher
	queue   chan queued
	timeout time.Duration

	mu     sync.RWMutex
	closed bool
	done   chan struct{}
}

// NewAsyncPublisher wraps next with a bounded queue of size queueSize.
func NewAsyncPublisher(next Publisher, queueSize int) *AsyncPublisher {
	if queueSize <= 0 {
		queueSize = 1024
	}
	a := &AsyncPublisher{
		next:    next,
		queue:   make(chan queued, queueSize),
		timeout: 5 * time.Second,
		done:    make(chan struct{}),
	}
	go a.run()
	return a
}

func (a *AsyncPublisher) run() {
	defer close(a.done)
	for q := range a.queue {
		ctx, cancel := context.WithTimeout(context.Background(), a.timeout)
		if err := a.next.Publish(ctx, q.channel, q.event); err != nil {
			l := log.L()
			l.Warn().Err(err).Str("channel", q.channel).Str("type", q.event.Type).Msg("failed to publish event")
		}
		cancel()
	}
}

// Publish enqueues the event without blocking. It never returns an error
// for a full queue; the event is dropped instead.
func (a *AsyncPublisher) Publish(_ context.Context, channel string, event *Event) error {
	a.mu.RLock()
	defer a.mu.RUnlock()
	if a.closed {
		return nil
	}

	select {
	case a.queue <- queued{channel: channel, event: event}:
	default:
		l := log.L()
		l.Warn().Str("channel", channel).Str("type", event.Type).Msg("event queue full, dropping event")
	}
	return nil
}

// Close drains the queue and closes the wrapped publisher.
func (a *AsyncPublisher) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	close(a.queue)
	a.mu.Unlock()

	<-a.done
	return a.next.Close()
}
