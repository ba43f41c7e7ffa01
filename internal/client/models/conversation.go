package models

// Conversation is the denormalized summary of a direct-message thread
// with one peer, used for the chat list. It is owned by the sync core;
// consumers read it and never mutate it directly.
type Conversation struct {
	Friend      Profile  `json:"friend"`
	LastMessage *Message `json:"last_message"`
	UnreadCount int      `json:"unread_count"`
}

// ActivityAfter reports whether c has more recent activity than other.
// Conversations without any message sort last.
func (c *Conversation) ActivityAfter(other *Conversation) bool {
	if c.LastMessage == nil {
		return false
	}
	if other.LastMessage == nil {
		return true
	}
	return c.LastMessage.CreatedAt.After(other.LastMessage.CreatedAt)
}
