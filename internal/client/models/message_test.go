package models

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPairKey_Symmetry(t *testing.T) {
	pairs := [][2]string{
		{"u1", "u2"},
		{"alice", "bob"},
		{"9f2d", "0a1b"},
		{"same", "same"},
	}
	for _, p := range pairs {
		assert.Equal(t, PairKey(p[0], p[1]), PairKey(p[1], p[0]))
	}
	assert.Equal(t, "u1_u2", PairKey("u2", "u1"))
}

func TestTempID(t *testing.T) {
	now := time.UnixMilli(1700000000123)
	id := NewTempID(now)
	assert.Equal(t, "temp_1700000000123", id)
	assert.True(t, IsTempID(id))
	assert.False(t, IsTempID("m-42"))
}

func TestMessage_Validate(t *testing.T) {
	m := Message{SenderID: "u1", ReceiverID: "u2", Content: "hi"}
	require.NoError(t, m.Validate())

	m = Message{SenderID: "u1", ChannelID: "c1", Content: "hi"}
	require.NoError(t, m.Validate())

	m = Message{SenderID: "u1", Content: "hi"}
	require.ErrorIs(t, m.Validate(), ErrInvalidAddressing)

	m = Message{SenderID: "u1", ReceiverID: "u2", ChannelID: "c1"}
	require.ErrorIs(t, m.Validate(), ErrInvalidAddressing)
}

func TestMessage_Peer(t *testing.T) {
	m := Message{SenderID: "u1", ReceiverID: "u2"}
	assert.Equal(t, "u2", m.Peer("u1"))
	assert.Equal(t, "u1", m.Peer("u2"))

	ch := Message{SenderID: "u1", ChannelID: "c1"}
	assert.Equal(t, "", ch.Peer("u1"))
}

func TestConversation_ActivityAfter(t *testing.T) {
	t0 := time.Now()
	older := Conversation{LastMessage: &Message{CreatedAt: t0}}
	newer := Conversation{LastMessage: &Message{CreatedAt: t0.Add(time.Minute)}}
	empty := Conversation{}

	assert.True(t, newer.ActivityAfter(&older))
	assert.False(t, older.ActivityAfter(&newer))
	assert.True(t, older.ActivityAfter(&empty))
	assert.False(t, empty.ActivityAfter(&older))
}
