package profiles

import (
	"context"

	"github.com/dmitrijs2005/echochat/internal/client/models"
)

// Repository caches the current user's profile so startup does not wait
// for the network. The remote store remains the source of truth.
type Repository interface {
	// Save upserts a profile and records the sync time.
	Save(ctx context.Context, profile *models.Profile) error

	// Get returns a cached profile by id, or common.ErrorNotFound.
	Get(ctx context.Context, id string) (*models.Profile, error)

	// Current returns the most recently synced profile, or
	// common.ErrorNotFound when the cache is empty.
	Current(ctx context.Context) (*models.Profile, error)

	// Clear removes all cached profiles (logout housekeeping).
	Clear(ctx context.Context) error
}
