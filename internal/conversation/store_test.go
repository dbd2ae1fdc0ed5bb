package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/weiawesome/wes-io-chat/internal/domain"
	"github.com/weiawesome/wes-io-chat/internal/idgen"
	"github.com/weiawesome/wes-io-chat/internal/msglog"
)

func TestKeyOf_Symmetric(t *testing.T) {
	assert.Equal(t, KeyOf("alice", "bob"), KeyOf("bob", "alice"))
	assert.Equal(t, Key{Low: "alice", High: "bob"}, KeyOf("bob", "alice"))
	assert.NotEqual(t, KeyOf("alice", "bob"), KeyOf("alice", "carol"))
}

func TestStore_PostAndFindEitherOrder(t *testing.T) {
	s := NewStore(msglog.NewStamper(idgen.NewUUIDGenerator()))

	stored, err := s.Post("alice", "bob", domain.NewPrivateMessage("alice", "bob", "hey", nil))
	require.NoError(t, err)
	assert.NotEmpty(t, stored.ID)
	assert.Nil(t, stored.Room)

	fromAlice, err := s.Find("alice", "bob", stored.ID)
	require.NoError(t, err)
	fromBob, err := s.Find("bob", "alice", stored.ID)
	require.NoError(t, err)
	assert.Same(t, fromAlice, fromBob)
	assert.Len(t, s.logs, 1)

	reply, err := s.Post("bob", "alice", domain.NewPrivateMessage("bob", "alice", "yo", nil))
	require.NoError(t, err)
	_, err = s.Find("alice", "bob", reply.ID)
	assert.NoError(t, err)
	assert.Len(t, s.logs, 1)
}

func TestStore_FindMissing(t *testing.T) {
	s := NewStore(msglog.NewStamper(idgen.NewUUIDGenerator()))

	_, err := s.Find("alice", "bob", "x")
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)

	stored, _ := s.Post("alice", "bob", domain.NewPrivateMessage("alice", "bob", "hey", nil))
	_, err = s.Find("alice", "bob", "x")
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)
	_, err = s.Find("alice", "carol", stored.ID)
	assert.ErrorIs(t, err, domain.ErrMessageNotFound)
}
