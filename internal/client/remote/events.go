package remote

import "github.com/dmitrijs2005/echochat/internal/client/models"

// MessageEventKind discriminates realtime message events.
type MessageEventKind string

const (
	MessageInserted MessageEventKind = "INSERT"
	MessageUpdated  MessageEventKind = "UPDATE"
)

// MessageEvent is a change to the messages table pushed over the stream.
// Inserted events carry the full new row; updated events carry the full
// row after the change.
type MessageEvent struct {
	Kind    MessageEventKind
	Message models.Message
}

// PresenceEventKind discriminates presence roster events.
type PresenceEventKind string

const (
	// PresenceSync carries the full roster and replaces any local view.
	PresenceSync  PresenceEventKind = "sync"
	PresenceJoin  PresenceEventKind = "join"
	PresenceLeave PresenceEventKind = "leave"
)

// PresenceEvent is a roster change on a presence topic. Sync events list
// the whole roster; join and leave list the affected ids only.
type PresenceEvent struct {
	Kind    PresenceEventKind
	UserIDs []string
}

// Broadcast event names shared with the backend.
const (
	// EventMessagesRead announces that the reader has read a batch of
	// messages; published on the pair's read-status topic.
	EventMessagesRead = "messages_read"
	// EventTyping carries typing on/off signals on the pair's typing topic.
	EventTyping = "typing"
)

// Ephemeral topic names, keyed the same way on every client so both
// sides of a pair land on the same topic.
func TypingTopic(pairKey string) string     { return "typing_" + pairKey }
func ReadStatusTopic(pairKey string) string { return "read_status_" + pairKey }

// LobbyTopic is the presence topic every online client tracks.
const LobbyTopic = "online_users"

// ReadReceipt is the payload of an EventMessagesRead broadcast.
type ReadReceipt struct {
	MessageIDs []string `json:"message_ids"`
	ReaderID   string   `json:"reader_id"`
}

// TypingSignal is the payload of an EventTyping broadcast.
type TypingSignal struct {
	UserID string `json:"user_id"`
	Typing bool   `json:"typing"`
}
