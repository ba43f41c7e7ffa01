package state

import (
	"github.com/dmitrijs2005/echochat/internal/client/models"
)

// Messages returns the message list for a direct conversation with peerID.
// The result is never nil; the empty case returns one shared value so
// callers can compare it across reads without extra allocations. Callers
// must treat the slice as read-only.
func (s *Store) Messages(peerID string) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if list, ok := s.messages[peerID]; ok {
		return list
	}
	return emptyMessages
}

// SetMessages replaces the whole list for a direct conversation. Used when
// history is loaded from the local store or backfilled from the server.
func (s *Store) SetMessages(peerID string, list []models.Message) {
	cp := make([]models.Message, len(list))
	copy(cp, list)
	s.mu.Lock()
	s.messages[peerID] = cp
	s.mu.Unlock()
	s.notify(MessagesTopic(peerID))
}

// AddMessage appends a message to the direct conversation with peerID.
// Adding an id that is already present is a no-op and reports false, so
// replayed events cannot duplicate entries.
func (s *Store) AddMessage(peerID string, msg models.Message) bool {
	s.mu.Lock()
	list := s.messages[peerID]
	for _, existing := range list {
		if existing.ID == msg.ID {
			s.mu.Unlock()
			return false
		}
	}
	next := make([]models.Message, len(list), len(list)+1)
	copy(next, list)
	s.messages[peerID] = append(next, msg)
	s.mu.Unlock()

	s.notify(MessagesTopic(peerID))
	return true
}

// ReplaceMessage swaps the entry with oldID for msg, keeping its position.
// If oldID is gone but msg.ID is already present the call is a no-op
// (the confirmed copy arrived first); if neither id is present msg is
// appended so a confirmation can never be lost.
func (s *Store) ReplaceMessage(peerID, oldID string, msg models.Message) {
	s.mu.Lock()
	list := s.messages[peerID]

	at := -1
	seen := false
	for i, existing := range list {
		if existing.ID == oldID {
			at = i
		}
		if existing.ID == msg.ID {
			seen = true
		}
	}

	switch {
	case at >= 0:
		next := make([]models.Message, len(list))
		copy(next, list)
		next[at] = msg
		s.messages[peerID] = next
	case seen:
		s.mu.Unlock()
		return
	default:
		next := make([]models.Message, len(list), len(list)+1)
		copy(next, list)
		s.messages[peerID] = append(next, msg)
	}
	s.mu.Unlock()

	s.notify(MessagesTopic(peerID))
}

// UpdateMessage patches the entry with msg.ID in place. An id outside
// the loaded window is ignored and false is returned; updates never
// grow the list.
func (s *Store) UpdateMessage(peerID string, msg models.Message) bool {
	s.mu.Lock()
	list := s.messages[peerID]
	at := -1
	for i, existing := range list {
		if existing.ID == msg.ID {
			at = i
			break
		}
	}
	if at < 0 {
		s.mu.Unlock()
		return false
	}
	next := make([]models.Message, len(list))
	copy(next, list)
	next[at] = msg
	s.messages[peerID] = next
	s.mu.Unlock()

	s.notify(MessagesTopic(peerID))
	return true
}

// RemoveMessage drops the entry with the given id, if present. Used to
// roll back an optimistic send the server rejected.
func (s *Store) RemoveMessage(peerID, id string) bool {
	s.mu.Lock()
	list := s.messages[peerID]
	at := -1
	for i, existing := range list {
		if existing.ID == id {
			at = i
			break
		}
	}
	if at < 0 {
		s.mu.Unlock()
		return false
	}
	next := make([]models.Message, 0, len(list)-1)
	next = append(next, list[:at]...)
	next = append(next, list[at+1:]...)
	s.messages[peerID] = next
	s.mu.Unlock()

	s.notify(MessagesTopic(peerID))
	return true
}

// MarkMessagesRead flips is_read on the listed ids within one direct
// conversation. Ids not present are ignored.
func (s *Store) MarkMessagesRead(peerID string, ids []string) {
	if len(ids) == 0 {
		return
	}
	want := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		want[id] = struct{}{}
	}

	s.mu.Lock()
	list := s.messages[peerID]
	changed := false
	var next []models.Message
	for i, existing := range list {
		if _, ok := want[existing.ID]; !ok || existing.IsRead {
			continue
		}
		if next == nil {
			next = make([]models.Message, len(list))
			copy(next, list)
		}
		next[i].IsRead = true
		changed = true
	}
	if changed {
		s.messages[peerID] = next
	}
	s.mu.Unlock()

	if changed {
		s.notify(MessagesTopic(peerID))
	}
}

// ChannelMessages returns the message list for a channel, never nil.
func (s *Store) ChannelMessages(channelID string) []models.Message {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if list, ok := s.channelMessages[channelID]; ok {
		return list
	}
	return emptyMessages
}

// SetChannelMessages replaces the whole list for a channel.
func (s *Store) SetChannelMessages(channelID string, list []models.Message) {
	cp := make([]models.Message, len(list))
	copy(cp, list)
	s.mu.Lock()
	s.channelMessages[channelID] = cp
	s.mu.Unlock()
	s.notify(ChannelTopic(channelID))
}

// AddChannelMessage appends a message to a channel list, skipping ids
// already present.
func (s *Store) AddChannelMessage(channelID string, msg models.Message) bool {
	s.mu.Lock()
	list := s.channelMessages[channelID]
	for _, existing := range list {
		if existing.ID == msg.ID {
			s.mu.Unlock()
			return false
		}
	}
	next := make([]models.Message, len(list), len(list)+1)
	copy(next, list)
	s.channelMessages[channelID] = append(next, msg)
	s.mu.Unlock()

	s.notify(ChannelTopic(channelID))
	return true
}

// ReplaceChannelMessage mirrors ReplaceMessage for channel lists.
func (s *Store) ReplaceChannelMessage(channelID, oldID string, msg models.Message) {
	s.mu.Lock()
	list := s.channelMessages[channelID]

	at := -1
	seen := false
	for i, existing := range list {
		if existing.ID == oldID {
			at = i
		}
		if existing.ID == msg.ID {
			seen = true
		}
	}

	switch {
	case at >= 0:
		next := make([]models.Message, len(list))
		copy(next, list)
		next[at] = msg
		s.channelMessages[channelID] = next
	case seen:
		s.mu.Unlock()
		return
	default:
		next := make([]models.Message, len(list), len(list)+1)
		copy(next, list)
		s.channelMessages[channelID] = append(next, msg)
	}
	s.mu.Unlock()

	s.notify(ChannelTopic(channelID))
}

// UpdateChannelMessage mirrors UpdateMessage for channel lists.
func (s *Store) UpdateChannelMessage(channelID string, msg models.Message) bool {
	s.mu.Lock()
	list := s.channelMessages[channelID]
	at := -1
	for i, existing := range list {
		if existing.ID == msg.ID {
			at = i
			break
		}
	}
	if at < 0 {
		s.mu.Unlock()
		return false
	}
	next := make([]models.Message, len(list))
	copy(next, list)
	next[at] = msg
	s.channelMessages[channelID] = next
	s.mu.Unlock()

	s.notify(ChannelTopic(channelID))
	return true
}

// RemoveChannelMessage drops the entry with the given id from a channel
// list, if present.
func (s *Store) RemoveChannelMessage(channelID, id string) bool {
	s.mu.Lock()
	list := s.channelMessages[channelID]
	at := -1
	for i, existing := range list {
		if existing.ID == id {
			at = i
			break
		}
	}
	if at < 0 {
		s.mu.Unlock()
		return false
	}
	next := make([]models.Message, 0, len(list)-1)
	next = append(next, list[:at]...)
	next = append(next, list[at+1:]...)
	s.channelMessages[channelID] = next
	s.mu.Unlock()

	s.notify(ChannelTopic(channelID))
	return true
}
