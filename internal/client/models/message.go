// Package models defines the typed entities the sync core exchanges with
// the remote store and mirrors locally.
package models

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

// MessageType enumerates the kinds of messages the client understands.
type MessageType string

const (
	MessageTypeText   MessageType = "text"
	MessageTypeImage  MessageType = "image"
	MessageTypeFile   MessageType = "file"
	MessageTypeSystem MessageType = "system"
)

// TempIDPrefix marks provisional, client-assigned message ids. A temp id
// is never sent to the remote store and must disappear from the local
// mirror once the server-assigned record supersedes it.
const TempIDPrefix = "temp_"

// Message is a single directed communication unit. Exactly one of
// ReceiverID (direct message) or ChannelID (channel message) is set.
type Message struct {
	ID         string      `json:"id"`
	ClientKey  string      `json:"client_key,omitempty"`
	SenderID   string      `json:"sender_id"`
	ReceiverID string      `json:"receiver_id,omitempty"`
	ChannelID  string      `json:"channel_id,omitempty"`
	Content    string      `json:"content"`
	Type       MessageType `json:"message_type"`
	FileURL    string      `json:"file_url,omitempty"`
	FileName   string      `json:"file_name,omitempty"`
	FileSize   int64       `json:"file_size,omitempty"`
	FileType   string      `json:"file_type,omitempty"`
	IsRead     bool        `json:"is_read"`
	CreatedAt  time.Time   `json:"created_at"`
}

var ErrInvalidAddressing = errors.New("message must have exactly one of receiver_id or channel_id")

// Validate checks the addressing invariant.
func (m *Message) Validate() error {
	if (m.ReceiverID == "") == (m.ChannelID == "") {
		return ErrInvalidAddressing
	}
	return nil
}

// Direct reports whether the message is peer-to-peer rather than a
// channel message.
func (m *Message) Direct() bool {
	return m.ReceiverID != ""
}

// Peer returns the other participant of a direct message from selfID's
// point of view. For channel messages it returns an empty string.
func (m *Message) Peer(selfID string) string {
	if !m.Direct() {
		return ""
	}
	if m.SenderID == selfID {
		return m.ReceiverID
	}
	return m.SenderID
}

// Involves reports whether userID is the sender or the receiver.
func (m *Message) Involves(userID string) bool {
	return m.SenderID == userID || m.ReceiverID == userID
}

// Provisional reports whether the message still carries a client-assigned
// temp id.
func (m *Message) Provisional() bool {
	return IsTempID(m.ID)
}

// NewTempID builds a provisional message id from a local timestamp,
// matching the temp_<epoch-ms> pattern.
func NewTempID(now time.Time) string {
	return TempIDPrefix + strconv.FormatInt(now.UnixMilli(), 10)
}

// IsTempID reports whether id is a client-assigned provisional id.
func IsTempID(id string) bool {
	return strings.HasPrefix(id, TempIDPrefix)
}

// PairKey derives the conversation key for a pair of participants. The
// pair is unordered, so both sides compute the same key.
func PairKey(userA, userB string) string {
	if userA > userB {
		userA, userB = userB, userA
	}
	return userA + "_" + userB
}

// ChannelKey derives the conversation key for a channel thread.
func ChannelKey(channelID string) string {
	return "channel_" + channelID
}

// ChatKey returns the conversation key the message is indexed under:
// the unordered pair key for direct messages, the channel key otherwise.
func (m *Message) ChatKey() string {
	if m.Direct() {
		return PairKey(m.SenderID, m.ReceiverID)
	}
	return ChannelKey(m.ChannelID)
}
