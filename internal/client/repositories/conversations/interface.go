package conversations

import (
	"context"

	"github.com/dmitrijs2005/echochat/internal/client/models"
)

// Repository caches the conversation list so the chat list renders
// before any network round trip completes.
type Repository interface {
	// Save upserts a single conversation keyed by the peer's id.
	Save(ctx context.Context, conv *models.Conversation) error

	// SaveAll replaces-or-updates the whole snapshot in one transaction.
	SaveAll(ctx context.Context, convs []models.Conversation) error

	// All returns cached conversations ordered by most recent activity
	// descending.
	All(ctx context.Context) ([]models.Conversation, error)

	// Clear removes the cached snapshot (logout housekeeping).
	Clear(ctx context.Context) error
}
