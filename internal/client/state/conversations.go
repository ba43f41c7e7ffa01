package state

import (
	"sort"

	"github.com/dmitrijs2005/echochat/internal/client/models"
)

// Conversations returns the conversation list, most recent activity first.
// Callers must treat the slice as read-only.
func (s *Store) Conversations() []models.Conversation {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.conversations
}

// SetConversations replaces the conversation list and sorts it by recency.
func (s *Store) SetConversations(list []models.Conversation) {
	cp := make([]models.Conversation, len(list))
	copy(cp, list)
	sortByActivity(cp)
	s.mu.Lock()
	s.conversations = cp
	s.mu.Unlock()
	s.notify(ConversationsTopic())
}

// Conversation returns the summary for one peer.
func (s *Store) Conversation(peerID string) (models.Conversation, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, c := range s.conversations {
		if c.Friend.ID == peerID {
			return c, true
		}
	}
	return models.Conversation{}, false
}

// UpdateLastMessage sets the preview message on the peer's conversation
// and moves it to its recency position. An unknown peer gets a new entry
// with only the id filled in; the full profile arrives with the next
// conversation sync.
func (s *Store) UpdateLastMessage(peerID string, msg models.Message) {
	s.mu.Lock()
	next := make([]models.Conversation, len(s.conversations))
	copy(next, s.conversations)

	found := false
	for i := range next {
		if next[i].Friend.ID == peerID {
			m := msg
			next[i].LastMessage = &m
			found = true
			break
		}
	}
	if !found {
		m := msg
		next = append(next, models.Conversation{
			Friend:      models.Profile{ID: peerID},
			LastMessage: &m,
		})
	}
	sortByActivity(next)
	s.conversations = next
	s.mu.Unlock()

	s.notify(ConversationsTopic())
}

// IncrementUnread bumps the unread counter for a peer's conversation.
func (s *Store) IncrementUnread(peerID string) {
	s.mu.Lock()
	next := make([]models.Conversation, len(s.conversations))
	copy(next, s.conversations)
	changed := false
	for i := range next {
		if next[i].Friend.ID == peerID {
			next[i].UnreadCount++
			changed = true
			break
		}
	}
	if changed {
		s.conversations = next
	}
	s.mu.Unlock()

	if changed {
		s.notify(ConversationsTopic())
	}
}

// ClearUnread zeroes the unread counter for a peer's conversation.
func (s *Store) ClearUnread(peerID string) {
	s.mu.Lock()
	next := make([]models.Conversation, len(s.conversations))
	copy(next, s.conversations)
	changed := false
	for i := range next {
		if next[i].Friend.ID == peerID && next[i].UnreadCount != 0 {
			next[i].UnreadCount = 0
			changed = true
			break
		}
	}
	if changed {
		s.conversations = next
	}
	s.mu.Unlock()

	if changed {
		s.notify(ConversationsTopic())
	}
}

func sortByActivity(list []models.Conversation) {
	sort.SliceStable(list, func(i, j int) bool {
		return list[i].ActivityAfter(&list[j])
	})
}
