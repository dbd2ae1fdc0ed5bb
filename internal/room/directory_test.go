package room

import (
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiawesome/wes-io-chat/internal/domain"
	"github.com/weiawesome/wes-io-chat/internal/idgen"
	"github.com/weiawesome/wes-io-chat/internal/msglog"
)

func newDirectory(opts Options) *Directory {
	return NewDirectory(msglog.NewStamper(idgen.NewUUIDGenerator()), opts)
}

func TestDirectory_JoinReturnsNoticeLast(t *testing.T) {
	d := newDirectory(Options{})

	notice, recent, err := d.Join("general", "c1", "alice")
	require.NoError(t, err)
	require.Len(t, recent, 1)
	assert.Equal(t, notice.ID, recent[0].ID)
	assert.Equal(t, domain.KindNotification, recent[0].Type)
	assert.Equal(t, domain.SystemSender, recent[0].From)
	require.NotNil(t, recent[0].Text)
	assert.Equal(t, "alice joined general", *recent[0].Text)
	assert.Equal(t, []string{"c1"}, d.Members("general"))
}

func TestDirectory_JoinWindow(t *testing.T) {
	d := newDirectory(Options{JoinWindow: 50})
	for i := 0; i < 60; i++ {
		_, err := d.Post("general", domain.NewRoomMessage("bob", "general", fmt.Sprint(i), nil))
		require.NoError(t, err)
	}

	notice, recent, err := d.Join("general", "c1", "alice")
	require.NoError(t, err)
	require.Len(t, recent, 50)
	assert.Equal(t, notice.ID, recent[49].ID)
	assert.Equal(t, "11", *recent[0].Text)
}

func TestDirectory_JoinDropsPreviousRoom(t *testing.T) {
	d := newDirectory(Options{})
	_, _, _ = d.Join("general", "c1", "alice")
	_, _, _ = d.Join("random", "c1", "alice")

	assert.Empty(t, d.Members("general"))
	assert.Equal(t, []string{"c1"}, d.Members("random"))
	assert.Equal(t, map[string]string{"c1": "random"}, d.membership)

	// No leave notice was appended to the old room.
	assert.Len(t, d.OlderThan("general", "", 0), 1)
}

func TestDirectory_JoinRequiresRoom(t *testing.T) {
	d := newDirectory(Options{})
	_, _, err := d.Join("", "c1", "alice")
	assert.ErrorIs(t, err, domain.ErrRoomRequired)
}

func TestDirectory_LeaveAndDrop(t *testing.T) {
	d := newDirectory(Options{})
	_, _, _ = d.Join("general", "c1", "alice")
	_, _, _ = d.Join("general", "c2", "bob")

	assert.False(t, d.Leave("random", "c1"))
	assert.True(t, d.Leave("general", "c1"))
	assert.False(t, d.Leave("general", "c1"))
	assert.Equal(t, []string{"c2"}, d.Members("general"))

	name, ok := d.Drop("c2")
	assert.True(t, ok)
	assert.Equal(t, "general", name)
	_, ok = d.Drop("c2")
	assert.False(t, ok)

	// The room outlives its members.
	summaries := d.List()
	require.Len(t, summaries, 1)
	assert.Equal(t, Summary{Name: "general", Members: 0, Messages: 2}, summaries[0])
}

func TestDirectory_OlderThanIsStrict(t *testing.T) {
	d := newDirectory(Options{})
	_, _ = d.Post("general", domain.NewRoomMessage("bob", "general", "before", nil))
	notice, _, err := d.Join("general", "c1", "alice")
	require.NoError(t, err)

	page := d.OlderThan("general", notice.ID, 0)
	require.Len(t, page, 1)
	assert.Equal(t, "before", *page[0].Text)
	for _, m := range page {
		assert.NotEqual(t, notice.ID, m.ID)
	}

	assert.Empty(t, d.OlderThan("nowhere", "", 0))
	assert.NotNil(t, d.OlderThan("nowhere", "", 0))
}

func TestDirectory_PageSize(t *testing.T) {
	d := newDirectory(Options{PageSize: 30})
	for i := 0; i < 45; i++ {
		_, _ = d.Post("general", domain.NewRoomMessage("bob", "general", fmt.Sprint(i), nil))
	}
	page := d.OlderThan("general", "", 0)
	require.Len(t, page, 30)
	assert.Equal(t, "0", *page[0].Text)
	assert.Len(t, d.OlderThan("general", "", 5), 5)
}

func TestDirectory_PostAndFind(t *testing.T) {
	d := newDirectory(Options{})
	stored, err := d.Post("general", domain.NewRoomMessage("bob", "general", "hi", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.NotZero(t, stored.Timestamp)

	live, ok := d.Find("general", stored.ID)
	require.True(t, ok)
	live.AddReaction("👍")
	assert.Empty(t, stored.Reactions, "returned value is a copy")

	_, ok = d.Find("general", "missing")
	assert.False(t, ok)
	_, ok = d.Find("nowhere", stored.ID)
	assert.False(t, ok)

	_, err = d.Post("", domain.NewRoomMessage("bob", "", "hi", nil))
	assert.ErrorIs(t, err, domain.ErrRoomRequired)
}
