// Package remote is the client's boundary to the backend: a typed
// request/response contract (Store) and a realtime event stream
// (Stream). Implementations decode and validate payloads at this
// boundary so the rest of the client works with typed models only.
package remote

import (
	"context"
	"time"

	"github.com/dmitrijs2005/echochat/internal/client/models"
)

// Store is the request/response side of the backend.
type Store interface {
	// InsertMessage persists a new message and returns the confirmed row
	// with its server-assigned id and timestamp.
	InsertMessage(ctx context.Context, msg *models.Message) (*models.Message, error)

	// Messages returns the most recent direct messages between the
	// authenticated user and peerID, ascending by creation time.
	Messages(ctx context.Context, peerID string, limit int) ([]models.Message, error)

	// MessagesAfter returns direct messages with peerID created strictly
	// after the given instant, ascending, at most limit rows.
	MessagesAfter(ctx context.Context, peerID string, after time.Time, limit int) ([]models.Message, error)

	// ChannelMessages returns the most recent messages of a channel,
	// ascending by creation time.
	ChannelMessages(ctx context.Context, channelID string, limit int) ([]models.Message, error)

	// MarkMessagesRead flags the given message ids as read by the
	// authenticated user.
	MarkMessagesRead(ctx context.Context, ids []string) error

	// DeleteMessage removes a message the authenticated user sent.
	DeleteMessage(ctx context.Context, id string) error

	// Conversations returns the authenticated user's conversation
	// snapshot, most recent activity first.
	Conversations(ctx context.Context) ([]models.Conversation, error)

	// Profile returns one user's profile.
	Profile(ctx context.Context, id string) (*models.Profile, error)

	// UpdateProfile stores changes to the authenticated user's profile.
	UpdateProfile(ctx context.Context, p *models.Profile) error
}

// Stream is the realtime side of the backend: one connection carrying
// message events, presence and ephemeral broadcasts, multiplexed by
// topic. Handlers run on the read loop goroutine and must not block.
type Stream interface {
	// Connect establishes the connection and starts the read loop.
	Connect(ctx context.Context) error

	// Close tears the connection down. The read loop exits and Done is
	// closed.
	Close() error

	// Done is closed when the connection is gone, whether by Close or by
	// a transport failure. Callers re-Connect on a fresh value or reuse
	// this one after Connect.
	Done() <-chan struct{}

	// SubscribeMessages delivers insert and update events for every
	// message addressed to or sent by userID.
	SubscribeMessages(userID string, fn func(MessageEvent)) (func(), error)

	// SubscribeChannelMessages delivers insert and update events for
	// every message posted to channelID.
	SubscribeChannelMessages(channelID string, fn func(MessageEvent)) (func(), error)

	// SubscribeBroadcast delivers ephemeral payloads published on a
	// topic under the given event name.
	SubscribeBroadcast(topic, event string, fn func(payload []byte)) (func(), error)

	// Broadcast publishes an ephemeral payload on a topic. Delivery is
	// best effort; nothing is persisted.
	Broadcast(ctx context.Context, topic, event string, payload any) error

	// Track joins a presence topic under the given user id. The returned
	// cancel leaves the topic.
	Track(ctx context.Context, topic, userID string) (func(), error)

	// SubscribePresence delivers roster changes for a presence topic.
	SubscribePresence(topic string, fn func(PresenceEvent)) (func(), error)
}
