package audit

import (
	"bytes"
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiawesome/wes-io-chat/pkg/log"
)

func capture(t *testing.T, write func(ctx context.Context)) map[string]any {
	t.Helper()
	var buf bytes.Buffer
	ctx := log.WithLogger(context.Background(), log.NewWithWriter(log.Config{Level: "info"}, &buf))
	write(ctx)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, log.LogTypeAudit, entry[log.FieldLogType])
	return entry
}

func TestLog(t *testing.T) {
	entry := capture(t, func(ctx context.Context) {
		Log(ctx, ActionAuth, "alice", "user authenticated")
	})
	assert.Equal(t, ActionAuth, entry[FieldAction])
	assert.Equal(t, "alice", entry[log.FieldUsername])
	assert.Equal(t, "user authenticated", entry["message"])
	assert.NotContains(t, entry, log.FieldRoom)
}

func TestLogRoom(t *testing.T) {
	entry := capture(t, func(ctx context.Context) {
		LogRoom(ctx, ActionJoinRoom, "alice", "general", "user joined room")
	})
	assert.Equal(t, ActionJoinRoom, entry[FieldAction])
	assert.Equal(t, "general", entry[log.FieldRoom])
}

func TestLogMessage(t *testing.T) {
	entry := capture(t, func(ctx context.Context) {
		LogMessage(ctx, ActionSendMessage, "alice", "m-1", "message sent")
	})
	assert.Equal(t, ActionSendMessage, entry[FieldAction])
	assert.Equal(t, "m-1", entry[log.FieldMessageID])
}
