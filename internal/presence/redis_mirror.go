package presence

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/redis/go-redis/v9"
	"github.com/weiawesome/wes-io-chat/internal/config"
	"github.com/weiawesome/wes-io-chat/pkg/log"
)

// RedisMirror keeps the online list in a Redis list so other processes can
// read it. Writes happen on a background loop: Update only records the
// latest snapshot, and the heartbeat rewrites it before the key's TTL runs
// out, so a crashed process ages out on its own.
type RedisMirror struct {
	client            *redis.Client
	key               string
	keyTTL            time.Duration
	heartbeatInterval time.Duration

	mu     sync.Mutex
	latest []string
	dirty  chan struct{}

	cancel context.CancelFunc
	done   chan struct{}
}

func NewRedisMirror(cfg config.PresenceRedisConfig) (*RedisMirror, error) {
	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Address,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}

	return newRedisMirror(client, cfg), nil
}

func newRedisMirror(client *redis.Client, cfg config.PresenceRedisConfig) *RedisMirror {
	key := cfg.Key
	if key == "" {
		key = "chat:presence:online"
	}
	ttl := cfg.KeyTTL
	if ttl <= 0 {
		ttl = 30 * time.Second
	}
	interval := cfg.HeartbeatInterval
	if interval <= 0 || interval >= ttl {
		interval = ttl / 3
	}
	return &RedisMirror{
		client:            client,
		key:               key,
		keyTTL:            ttl,
		heartbeatInterval: interval,
		latest:            []string{},
		dirty:             make(chan struct{}, 1),
	}
}

// Update records usernames as the latest snapshot. Only the newest snapshot
// is ever written; intermediate ones may be skipped.
func (m *RedisMirror) Update(usernames []string) {
	m.mu.Lock()
	m.latest = usernames
	m.mu.Unlock()

	select {
	case m.dirty <- struct{}{}:
	default:
	}
}

// Start launches the write and heartbeat loop.
func (m *RedisMirror) Start(ctx context.Context) {
	ctx, cancel := context.WithCancel(ctx)
	m.cancel = cancel
	m.done = make(chan struct{})

	go m.loop(ctx)
	l := log.L()
	l.Info().Str("key", m.key).Dur("interval", m.heartbeatInterval).Dur("ttl", m.keyTTL).Msg("presence mirror started")
}

func (m *RedisMirror) loop(ctx context.Context) {
	defer close(m.done)

	ticker := time.NewTicker(m.heartbeatInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-m.dirty:
		case <-ticker.C:
		}
		if err := m.write(ctx); err != nil && ctx.Err() == nil {
			l := log.L()
			l.Error().Err(err).Str("key", m.key).Msg("failed to write presence snapshot")
		}
	}
}

func (m *RedisMirror) write(ctx context.Context) error {
	m.mu.Lock()
	names := m.latest
	m.mu.Unlock()

	_, err := m.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.Del(ctx, m.key)
		if len(names) == 0 {
			return nil
		}
		values := make([]interface{}, len(names))
		for i, n := range names {
			values[i] = n
		}
		pipe.RPush(ctx, m.key, values...)
		pipe.Expire(ctx, m.key, m.keyTTL)
		return nil
	})
	return err
}

// Close stops the loop, removes the key and closes the client.
func (m *RedisMirror) Close() error {
	if m.cancel != nil {
		m.cancel()
		<-m.done
	}

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	if err := m.client.Del(ctx, m.key).Err(); err != nil {
		l := log.L()
		l.Warn().Err(err).Str("key", m.key).Msg("failed to clear presence snapshot")
	}
	return m.client.Close()
}
