package config

import (
	"strings"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestFromViper_Defaults(t *testing.T) {
	cfg, err := FromViper(viper.New())
	require.NoError(t, err)

	assert.Equal(t, 4000, cfg.Server.Port)
	assert.Equal(t, 50, cfg.History.JoinWindow)
	assert.Equal(t, 30, cfg.History.PageSize)
	assert.Equal(t, "uuid", cfg.IDs.Generator)
	assert.Equal(t, "none", cfg.Events.Driver)
	assert.Equal(t, 60*time.Second, cfg.WebSocket.PongWait)
	assert.Equal(t, []string{"*"}, cfg.WebSocket.AllowedOrigins)
	assert.False(t, cfg.Rooms.AnnounceLeave)
	assert.False(t, cfg.Presence.Redis.Enabled)
}

func TestFromViper_YAMLOverrides(t *testing.T) {
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(`
server:
  port: 9000
history:
  join_window: 10
  page_size: 0
rooms:
  announce_leave: true
websocket:
  pong_wait: 5s
ids:
  generator: ulid
`)))

	cfg, err := FromViper(v)
	require.NoError(t, err)

	assert.Equal(t, 9000, cfg.Server.Port)
	assert.Equal(t, 10, cfg.History.JoinWindow)
	assert.Equal(t, 30, cfg.History.PageSize, "non-positive page size falls back to default")
	assert.True(t, cfg.Rooms.AnnounceLeave)
	assert.Equal(t, 5*time.Second, cfg.WebSocket.PongWait)
	assert.Equal(t, "ulid", cfg.IDs.Generator)
}

func TestFromViper_EnvPort(t *testing.T) {
	t.Setenv("PORT", "4321")
	cfg, err := FromViper(viper.New())
	require.NoError(t, err)
	assert.Equal(t, 4321, cfg.Server.Port)
}
