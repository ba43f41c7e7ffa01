// Package state holds the process-wide in-memory view of the chat data:
// per-conversation message lists, conversation summaries, the current
// user, the presence set, and the self-expiring typing map.
//
// Consumers subscribe to fine-grained topics and are notified after a
// relevant mutation. Every update is copy-on-write: slices handed out
// earlier are never mutated in place, so holders can keep reading them
// safely while the store moves on.
package state

import (
	"sync"
	"time"

	"github.com/dmitrijs2005/echochat/internal/client/models"
)

// TopicKind selects a slice of the store a subscriber is interested in.
type TopicKind int

const (
	// KindMessages notifies on message-list changes for one peer (Topic.ID
	// is the peer id).
	KindMessages TopicKind = iota
	// KindChannelMessages notifies on message-list changes for one channel.
	KindChannelMessages
	// KindConversations notifies on any conversation-summary change.
	KindConversations
	// KindPresence notifies on online-set changes.
	KindPresence
	// KindTyping notifies on typing-map changes.
	KindTyping
	// KindCurrentUser notifies when the current user slot changes.
	KindCurrentUser
)

// Topic identifies a subscription target.
type Topic struct {
	Kind TopicKind
	ID   string
}

func MessagesTopic(peerID string) Topic   { return Topic{Kind: KindMessages, ID: peerID} }
func ChannelTopic(channelID string) Topic { return Topic{Kind: KindChannelMessages, ID: channelID} }
func ConversationsTopic() Topic           { return Topic{Kind: KindConversations} }
func PresenceTopic() Topic                { return Topic{Kind: KindPresence} }
func TypingTopic() Topic                  { return Topic{Kind: KindTyping} }
func CurrentUserTopic() Topic             { return Topic{Kind: KindCurrentUser} }

// defaultTypingTTL is how long a peer stays "typing" after their last
// typing:true signal; the receiver's timer is authoritative, so a lost
// stop signal self-heals.
const defaultTypingTTL = 3 * time.Second

// emptyMessages is the referentially-stable empty result, so absent
// conversations do not allocate a fresh slice per read.
var emptyMessages []models.Message

// Store is the reactive state shared by every consumer in the process.
type Store struct {
	mu sync.RWMutex

	currentUser *models.Profile
	active      string

	messages        map[string][]models.Message
	channelMessages map[string][]models.Message
	conversations   []models.Conversation

	online map[string]struct{}

	typing    map[string]*time.Timer
	typingTTL time.Duration

	subs    map[Topic]map[int]func()
	nextSub int
}

// NewStore returns an empty Store.
func NewStore() *Store {
	return &Store{
		messages:        make(map[string][]models.Message),
		channelMessages: make(map[string][]models.Message),
		online:          make(map[string]struct{}),
		typing:          make(map[string]*time.Timer),
		typingTTL:       defaultTypingTTL,
		subs:            make(map[Topic]map[int]func()),
	}
}

// Subscribe registers fn to run after mutations of topic. The returned
// cancel function removes the registration; calling it twice is safe.
func (s *Store) Subscribe(topic Topic, fn func()) func() {
	s.mu.Lock()
	id := s.nextSub
	s.nextSub++
	if s.subs[topic] == nil {
		s.subs[topic] = make(map[int]func())
	}
	s.subs[topic][id] = fn
	s.mu.Unlock()

	return func() {
		s.mu.Lock()
		if set, ok := s.subs[topic]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(s.subs, topic)
			}
		}
		s.mu.Unlock()
	}
}

// notify runs subscriber callbacks for the given topics outside the lock.
func (s *Store) notify(topics ...Topic) {
	var fns []func()
	s.mu.RLock()
	for _, topic := range topics {
		for _, fn := range s.subs[topic] {
			fns = append(fns, fn)
		}
	}
	s.mu.RUnlock()
	for _, fn := range fns {
		fn()
	}
}

// CurrentUser returns the cached current user, or nil.
func (s *Store) CurrentUser() *models.Profile {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.currentUser
}

// SetCurrentUser replaces the current user slot.
func (s *Store) SetCurrentUser(p *models.Profile) {
	s.mu.Lock()
	if p == nil {
		s.currentUser = nil
	} else {
		cp := *p
		s.currentUser = &cp
	}
	s.mu.Unlock()
	s.notify(CurrentUserTopic())
}

// ActiveConversation returns the peer id of the conversation the user is
// currently viewing, or an empty string. Event handlers must read this at
// handling time rather than capture it when they were registered.
func (s *Store) ActiveConversation() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.active
}

// SetActiveConversation marks the conversation the user is viewing.
func (s *Store) SetActiveConversation(peerID string) {
	s.mu.Lock()
	s.active = peerID
	s.mu.Unlock()
}

// Reset drops all state, including pending typing timers. Used on logout
// and user switch.
func (s *Store) Reset() {
	s.mu.Lock()
	for _, timer := range s.typing {
		timer.Stop()
	}
	s.currentUser = nil
	s.active = ""
	s.messages = make(map[string][]models.Message)
	s.channelMessages = make(map[string][]models.Message)
	s.conversations = nil
	s.online = make(map[string]struct{})
	s.typing = make(map[string]*time.Timer)
	s.mu.Unlock()

	s.notify(ConversationsTopic(), PresenceTopic(), TypingTopic(), CurrentUserTopic())
}
