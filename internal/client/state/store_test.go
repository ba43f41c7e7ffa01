package state

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/echochat/internal/client/models"
)

func msg(id, sender, receiver, content string, at time.Time) models.Message {
	return models.Message{
		ID:         id,
		SenderID:   sender,
		ReceiverID: receiver,
		Content:    content,
		Type:       models.MessageTypeText,
		CreatedAt:  at,
	}
}

func TestMessages_EmptyValueIsStable(t *testing.T) {
	s := NewStore()

	a := s.Messages("nobody")
	b := s.Messages("nobody")
	assert.Nil(t, a, "absent conversations share one empty value")
	assert.Nil(t, b)

	// The shared empty value must survive unrelated writes.
	s.AddMessage("someone", msg("m-1", "u1", "u2", "hi", time.Now()))
	assert.Nil(t, s.Messages("nobody"))
}

func TestAddMessage_IdempotentByID(t *testing.T) {
	s := NewStore()
	m := msg("m-1", "u1", "u2", "hi", time.Now())

	require.True(t, s.AddMessage("u2", m))
	require.False(t, s.AddMessage("u2", m))
	require.Len(t, s.Messages("u2"), 1)
}

func TestAddMessage_DoesNotMutatePriorSnapshot(t *testing.T) {
	s := NewStore()
	t0 := time.Now()
	s.AddMessage("u2", msg("m-1", "u1", "u2", "first", t0))

	before := s.Messages("u2")
	s.AddMessage("u2", msg("m-2", "u1", "u2", "second", t0.Add(time.Second)))

	require.Len(t, before, 1, "earlier snapshot must be untouched")
	require.Len(t, s.Messages("u2"), 2)
}

func TestReplaceMessage_KeepsPosition(t *testing.T) {
	s := NewStore()
	t0 := time.Now()
	s.AddMessage("u2", msg("m-1", "u1", "u2", "first", t0))
	s.AddMessage("u2", msg("temp_1", "u1", "u2", "pending", t0.Add(time.Second)))
	s.AddMessage("u2", msg("m-3", "u2", "u1", "reply", t0.Add(2*time.Second)))

	confirmed := msg("m-2", "u1", "u2", "pending", t0.Add(time.Second))
	s.ReplaceMessage("u2", "temp_1", confirmed)

	got := s.Messages("u2")
	require.Len(t, got, 3)
	require.Equal(t, "m-2", got[1].ID)
}

func TestReplaceMessage_NoopWhenConfirmedAlreadyPresent(t *testing.T) {
	s := NewStore()
	confirmed := msg("m-2", "u1", "u2", "hi", time.Now())
	s.AddMessage("u2", confirmed)

	// Realtime delivered the confirmed row before the send call returned;
	// the replace must not append a duplicate.
	s.ReplaceMessage("u2", "temp_1", confirmed)
	require.Len(t, s.Messages("u2"), 1)
}

func TestReplaceMessage_AppendsWhenBothAbsent(t *testing.T) {
	s := NewStore()
	confirmed := msg("m-2", "u1", "u2", "hi", time.Now())

	s.ReplaceMessage("u2", "temp_gone", confirmed)

	got := s.Messages("u2")
	require.Len(t, got, 1)
	require.Equal(t, "m-2", got[0].ID)
}

func TestRemoveMessage(t *testing.T) {
	s := NewStore()
	s.AddMessage("u2", msg("temp_1", "u1", "u2", "doomed", time.Now()))

	require.True(t, s.RemoveMessage("u2", "temp_1"))
	require.False(t, s.RemoveMessage("u2", "temp_1"))
	require.Empty(t, s.Messages("u2"))
}

func TestMarkMessagesRead(t *testing.T) {
	s := NewStore()
	t0 := time.Now()
	s.AddMessage("u2", msg("m-1", "u1", "u2", "a", t0))
	s.AddMessage("u2", msg("m-2", "u1", "u2", "b", t0.Add(time.Second)))

	before := s.Messages("u2")
	s.MarkMessagesRead("u2", []string{"m-1", "m-9"})

	require.False(t, before[0].IsRead, "prior snapshot stays unread")
	got := s.Messages("u2")
	require.True(t, got[0].IsRead)
	require.False(t, got[1].IsRead)
}

func TestConversations_UnreadAccounting(t *testing.T) {
	s := NewStore()
	s.SetConversations([]models.Conversation{
		{Friend: models.Profile{ID: "u2", Username: "bob"}},
	})

	for i := 0; i < 3; i++ {
		s.IncrementUnread("u2")
	}
	c, ok := s.Conversation("u2")
	require.True(t, ok)
	require.Equal(t, 3, c.UnreadCount)

	s.ClearUnread("u2")
	c, _ = s.Conversation("u2")
	require.Equal(t, 0, c.UnreadCount)
}

func TestUpdateLastMessage_ResortsByRecency(t *testing.T) {
	s := NewStore()
	t0 := time.Now()
	s.SetConversations([]models.Conversation{
		{Friend: models.Profile{ID: "u2"}, LastMessage: ptr(msg("m-1", "u2", "me", "old", t0))},
		{Friend: models.Profile{ID: "u3"}, LastMessage: ptr(msg("m-2", "u3", "me", "newer", t0.Add(time.Minute)))},
	})
	require.Equal(t, "u3", s.Conversations()[0].Friend.ID)

	s.UpdateLastMessage("u2", msg("m-3", "u2", "me", "newest", t0.Add(2*time.Minute)))

	got := s.Conversations()
	require.Equal(t, "u2", got[0].Friend.ID)
	require.Equal(t, "m-3", got[0].LastMessage.ID)
}

func TestUpdateLastMessage_UnknownPeerGetsPlaceholder(t *testing.T) {
	s := NewStore()

	s.UpdateLastMessage("u7", msg("m-1", "u7", "me", "hello", time.Now()))

	c, ok := s.Conversation("u7")
	require.True(t, ok)
	require.Equal(t, "u7", c.Friend.ID)
	require.NotNil(t, c.LastMessage)
}

func TestPresenceSet(t *testing.T) {
	s := NewStore()

	s.SetOnlineUsers([]string{"u2", "u3"})
	require.True(t, s.IsOnline("u2"))

	s.RemoveOnlineUser("u2")
	require.False(t, s.IsOnline("u2"))

	s.AddOnlineUser("u4")
	require.ElementsMatch(t, []string{"u3", "u4"}, s.OnlineUsers())
}

func TestUpdateMessage_PatchesOnlyKnownRows(t *testing.T) {
	s := NewStore()
	now := time.Now()
	s.SetMessages("u2", []models.Message{msg("m-1", "u2", "me", "hi", now)})

	patched := msg("m-1", "u2", "me", "hi", now)
	patched.IsRead = true
	require.True(t, s.UpdateMessage("u2", patched))
	require.True(t, s.Messages("u2")[0].IsRead)

	// Rows outside the loaded window are ignored, never appended.
	require.False(t, s.UpdateMessage("u2", msg("m-9", "u2", "me", "late", now)))
	require.Len(t, s.Messages("u2"), 1)
}

func TestTyping_ExpiresOnItsOwn(t *testing.T) {
	s := NewStore()
	s.typingTTL = 30 * time.Millisecond

	s.SetTyping("u2", true)
	require.True(t, s.IsTyping("u2"))

	require.Eventually(t, func() bool { return !s.IsTyping("u2") },
		time.Second, 5*time.Millisecond)
}

func TestTyping_RepeatedSignalsExtendExpiry(t *testing.T) {
	s := NewStore()
	s.typingTTL = 80 * time.Millisecond

	// A peer typing a long message keeps signalling; each signal rearms
	// the expiry so the indicator survives past the first TTL.
	s.SetTyping("u2", true)
	time.Sleep(50 * time.Millisecond)
	s.SetTyping("u2", true)
	time.Sleep(50 * time.Millisecond)
	require.True(t, s.IsTyping("u2"))

	require.Eventually(t, func() bool { return !s.IsTyping("u2") },
		time.Second, 5*time.Millisecond)
}

func TestTyping_StopSignalClearsImmediately(t *testing.T) {
	s := NewStore()

	s.SetTyping("u2", true)
	s.SetTyping("u2", false)
	require.False(t, s.IsTyping("u2"))
}

func TestSubscribe_NotifiesAndCancels(t *testing.T) {
	s := NewStore()

	var calls int
	cancel := s.Subscribe(MessagesTopic("u2"), func() { calls++ })

	s.AddMessage("u2", msg("m-1", "u1", "u2", "hi", time.Now()))
	s.AddMessage("u3", msg("m-2", "u1", "u3", "other topic", time.Now()))
	require.Equal(t, 1, calls)

	cancel()
	cancel() // double cancel is safe
	s.AddMessage("u2", msg("m-3", "u1", "u2", "bye", time.Now()))
	require.Equal(t, 1, calls)
}

func TestReset_DropsEverything(t *testing.T) {
	s := NewStore()
	s.SetCurrentUser(&models.Profile{ID: "me"})
	s.SetActiveConversation("u2")
	s.AddMessage("u2", msg("m-1", "u1", "u2", "hi", time.Now()))
	s.SetOnlineUsers([]string{"u2"})
	s.SetTyping("u2", true)

	s.Reset()

	require.Nil(t, s.CurrentUser())
	require.Empty(t, s.ActiveConversation())
	require.Empty(t, s.Messages("u2"))
	require.Empty(t, s.Conversations())
	require.False(t, s.IsOnline("u2"))
	require.False(t, s.IsTyping("u2"))
}

func ptr(m models.Message) *models.Message { return &m }
