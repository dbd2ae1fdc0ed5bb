package presence

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiawesome/wes-io-chat/internal/config"
	"github.com/weiawesome/wes-io-chat/internal/domain"
)

type broadcast struct {
	event   string
	payload any
}

type recorder struct {
	mu         sync.Mutex
	broadcasts []broadcast
}

func (r *recorder) Send(string, string, any) bool { return true }

func (r *recorder) Broadcast(event string, payload any) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.broadcasts = append(r.broadcasts, broadcast{event, payload})
}

type memMirror struct{ got [][]string }

func (m *memMirror) Update(names []string) { m.got = append(m.got, names) }

func TestBroadcaster_Refresh(t *testing.T) {
	rec := &recorder{}
	mirror := &memMirror{}
	b := NewBroadcaster(rec, mirror)

	names := []string{"alice", "bob"}
	b.Refresh(names)
	names[0] = "mutated"

	require.Len(t, rec.broadcasts, 1)
	assert.Equal(t, domain.EventUsersUpdate, rec.broadcasts[0].event)
	require.Len(t, mirror.got, 1)
	assert.Equal(t, []string{"alice", "bob"}, mirror.got[0], "mirror gets its own copy")

	b.Refresh(nil)
	assert.Equal(t, []string{}, rec.broadcasts[1].payload)
}

func TestBroadcaster_NoMirror(t *testing.T) {
	rec := &recorder{}
	NewBroadcaster(rec, nil).Refresh([]string{"alice"})
	assert.Len(t, rec.broadcasts, 1)
}

func setupMirror(t *testing.T, cfg config.PresenceRedisConfig) (*RedisMirror, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	m := newRedisMirror(client, cfg)
	m.Start(context.Background())
	t.Cleanup(func() { _ = m.Close() })
	return m, mr
}

func TestRedisMirror_WritesLatestSnapshot(t *testing.T) {
	m, mr := setupMirror(t, config.PresenceRedisConfig{Key: "test:online", KeyTTL: time.Minute, HeartbeatInterval: 10 * time.Second})

	m.Update([]string{"alice"})
	m.Update([]string{"alice", "bob"})

	require.Eventually(t, func() bool {
		names, err := mr.List("test:online")
		return err == nil && assert.ObjectsAreEqual([]string{"alice", "bob"}, names)
	}, time.Second, 10*time.Millisecond)
	assert.Equal(t, time.Minute, mr.TTL("test:online"))

	m.Update([]string{})
	require.Eventually(t, func() bool {
		return !mr.Exists("test:online")
	}, time.Second, 10*time.Millisecond)
}

func TestRedisMirror_HeartbeatRestoresExpiredKey(t *testing.T) {
	m, mr := setupMirror(t, config.PresenceRedisConfig{Key: "test:online", KeyTTL: time.Second, HeartbeatInterval: 20 * time.Millisecond})

	m.Update([]string{"alice"})
	require.Eventually(t, func() bool { return mr.Exists("test:online") }, time.Second, 5*time.Millisecond)

	mr.FastForward(2 * time.Second)
	require.Eventually(t, func() bool { return mr.Exists("test:online") }, time.Second, 5*time.Millisecond)
}

func TestRedisMirror_CloseClearsKey(t *testing.T) {
	mr := miniredis.RunT(t)
	m := newRedisMirror(redis.NewClient(&redis.Options{Addr: mr.Addr()}), config.PresenceRedisConfig{Key: "test:online"})
	m.Start(context.Background())

	m.Update([]string{"alice"})
	require.Eventually(t, func() bool { return mr.Exists("test:online") }, time.Second, 5*time.Millisecond)

	require.NoError(t, m.Close())
	assert.False(t, mr.Exists("test:online"))
}

func TestNewRedisMirror_Unreachable(t *testing.T) {
	_, err := NewRedisMirror(config.PresenceRedisConfig{Address: "127.0.0.1:1"})
	assert.Error(t, err)
}
