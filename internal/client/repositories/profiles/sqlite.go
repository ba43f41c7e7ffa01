package profiles

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/echochat/internal/client/models"
	"github.com/dmitrijs2005/echochat/internal/common"
	"github.com/dmitrijs2005/echochat/internal/dbx"
)

// SQLiteRepository implements Repository over the profiles table.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Save upserts a profile by id and stamps the sync time.
func (r *SQLiteRepository) Save(ctx context.Context, profile *models.Profile) error {
	encoded, err := json.Marshal(profile)
	if err != nil {
		return fmt.Errorf("failed to encode profile: %w", err)
	}
	query := `INSERT INTO profiles (id, profile, last_sync) VALUES (?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET profile = excluded.profile, last_sync = excluded.last_sync`
	if _, err := r.db.ExecContext(ctx, query, profile.ID, string(encoded), time.Now().UnixMilli()); err != nil {
		return fmt.Errorf("failed to upsert profile: %w", err)
	}
	return nil
}

// Get returns a cached profile by id.
func (r *SQLiteRepository) Get(ctx context.Context, id string) (*models.Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT profile FROM profiles WHERE id = ?`, id)
	return scanProfile(row)
}

// Current returns the most recently synced profile.
func (r *SQLiteRepository) Current(ctx context.Context) (*models.Profile, error) {
	row := r.db.QueryRowContext(ctx, `SELECT profile FROM profiles ORDER BY last_sync DESC, rowid DESC LIMIT 1`)
	return scanProfile(row)
}

// Clear removes all cached profiles.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM profiles`); err != nil {
		return fmt.Errorf("failed to clear profiles: %w", err)
	}
	return nil
}

func scanProfile(row *sql.Row) (*models.Profile, error) {
	var encoded string
	if err := row.Scan(&encoded); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("query row scan failed: %w", err)
	}
	profile := &models.Profile{}
	if err := json.Unmarshal([]byte(encoded), profile); err != nil {
		return nil, fmt.Errorf("failed to decode profile: %w", err)
	}
	return profile, nil
}
