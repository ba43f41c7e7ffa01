package messages

import (
	"context"

	"github.com/dmitrijs2005/echochat/internal/client/models"
)

// Repository is the durable mirror of chat messages. It answers message
// queries without a network round trip and survives process restarts.
//
// All writes are upserts keyed by message id (last write wins per
// record), so concurrent saves of the same record are safe.
type Repository interface {
	// Save upserts a single message by id.
	Save(ctx context.Context, msg *models.Message) error

	// SaveAll upserts a batch of messages inside one transaction.
	SaveAll(ctx context.Context, msgs []models.Message) error

	// Pair returns messages between two users ordered by created_at
	// ascending, truncated to the most recent limit entries.
	Pair(ctx context.Context, userA, userB string, limit int) ([]models.Message, error)

	// Channel returns messages for one channel, same ordering contract
	// as Pair.
	Channel(ctx context.Context, channelID string, limit int) ([]models.Message, error)

	// MarkRead flips is_read for the given ids.
	MarkRead(ctx context.Context, ids []string) error

	// Delete removes a message by id. Deleting an absent id is a no-op.
	Delete(ctx context.Context, id string) error

	// PruneOlderThan deletes messages older than the retention window and
	// returns the number of rows removed.
	PruneOlderThan(ctx context.Context, days int) (int64, error)

	// Clear removes all cached messages (logout housekeeping).
	Clear(ctx context.Context) error
}
