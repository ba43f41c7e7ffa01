package state

import "time"

// OnlineUsers returns the ids currently tracked as online.
func (s *Store) OnlineUsers() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.online))
	for id := range s.online {
		out = append(out, id)
	}
	return out
}

// IsOnline reports whether the given user is in the presence set.
func (s *Store) IsOnline(userID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.online[userID]
	return ok
}

// SetOnlineUsers replaces the presence set with a full roster, as
// delivered by a presence sync after joining the lobby.
func (s *Store) SetOnlineUsers(ids []string) {
	next := make(map[string]struct{}, len(ids))
	for _, id := range ids {
		next[id] = struct{}{}
	}
	s.mu.Lock()
	s.online = next
	s.mu.Unlock()
	s.notify(PresenceTopic())
}

// AddOnlineUser marks one user online.
func (s *Store) AddOnlineUser(userID string) {
	s.mu.Lock()
	_, had := s.online[userID]
	if !had {
		s.online[userID] = struct{}{}
	}
	s.mu.Unlock()
	if !had {
		s.notify(PresenceTopic())
	}
}

// RemoveOnlineUser marks one user offline.
func (s *Store) RemoveOnlineUser(userID string) {
	s.mu.Lock()
	_, had := s.online[userID]
	if had {
		delete(s.online, userID)
	}
	s.mu.Unlock()
	if had {
		s.notify(PresenceTopic())
	}
}

// IsTyping reports whether the given peer is currently typing to us.
func (s *Store) IsTyping(peerID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.typing[peerID]
	return ok
}

// SetTyping records a typing signal from a peer. A true signal arms (or
// rearms) an expiry timer so the indicator clears on its own even if the
// peer's stop signal is lost; a false signal clears it immediately.
func (s *Store) SetTyping(peerID string, typing bool) {
	s.mu.Lock()
	if timer, ok := s.typing[peerID]; ok {
		timer.Stop()
		delete(s.typing, peerID)
	}
	if typing {
		s.typing[peerID] = time.AfterFunc(s.typingTTL, func() {
			s.expireTyping(peerID)
		})
	}
	s.mu.Unlock()
	s.notify(TypingTopic())
}

func (s *Store) expireTyping(peerID string) {
	s.mu.Lock()
	_, had := s.typing[peerID]
	if had {
		delete(s.typing, peerID)
	}
	s.mu.Unlock()
	if had {
		s.notify(TypingTopic())
	}
}
