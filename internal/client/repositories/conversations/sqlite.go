package conversations

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/echochat/internal/client/models"
	"github.com/dmitrijs2005/echochat/internal/dbx"
)

// SQLiteRepository implements Repository. The friend profile and the
// denormalized last message are stored as JSON blobs; the row itself is
// indexed by activity timestamp for the descending snapshot read.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// Save upserts one conversation keyed by the peer id.
func (r *SQLiteRepository) Save(ctx context.Context, conv *models.Conversation) error {
	friend, err := json.Marshal(conv.Friend)
	if err != nil {
		return fmt.Errorf("failed to encode friend profile: %w", err)
	}

	var lastMessage any
	updatedAt := time.Now().UnixMilli()
	if conv.LastMessage != nil {
		encoded, err := json.Marshal(conv.LastMessage)
		if err != nil {
			return fmt.Errorf("failed to encode last message: %w", err)
		}
		lastMessage = string(encoded)
		updatedAt = conv.LastMessage.CreatedAt.UnixMilli()
	}

	query := `INSERT INTO conversations (friend_id, friend, last_message, unread_count, updated_at)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(friend_id) DO UPDATE SET
			friend = excluded.friend,
			last_message = excluded.last_message,
			unread_count = excluded.unread_count,
			updated_at = excluded.updated_at
	`
	_, err = r.db.ExecContext(ctx, query, conv.Friend.ID, string(friend), lastMessage, conv.UnreadCount, updatedAt)
	if err != nil {
		return fmt.Errorf("failed to upsert conversation: %w", err)
	}
	return nil
}

// SaveAll upserts the whole snapshot, transactionally when possible.
func (r *SQLiteRepository) SaveAll(ctx context.Context, convs []models.Conversation) error {
	if len(convs) == 0 {
		return nil
	}
	db, ok := r.db.(*sql.DB)
	if !ok {
		for i := range convs {
			if err := r.Save(ctx, &convs[i]); err != nil {
				return err
			}
		}
		return nil
	}
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		for i := range convs {
			if err := repo.Save(ctx, &convs[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

// All returns the snapshot ordered by most recent activity descending.
func (r *SQLiteRepository) All(ctx context.Context) ([]models.Conversation, error) {
	query := `SELECT friend, last_message, unread_count FROM conversations ORDER BY updated_at DESC`
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("failed to select conversations: %w", err)
	}
	defer rows.Close()

	var result []models.Conversation
	for rows.Next() {
		var (
			conv        models.Conversation
			friend      string
			lastMessage sql.NullString
		)
		if err := rows.Scan(&friend, &lastMessage, &conv.UnreadCount); err != nil {
			return nil, err
		}
		if err := json.Unmarshal([]byte(friend), &conv.Friend); err != nil {
			return nil, fmt.Errorf("failed to decode friend profile: %w", err)
		}
		if lastMessage.Valid {
			var msg models.Message
			if err := json.Unmarshal([]byte(lastMessage.String), &msg); err != nil {
				return nil, fmt.Errorf("failed to decode last message: %w", err)
			}
			conv.LastMessage = &msg
		}
		result = append(result, conv)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// Clear removes the cached snapshot.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM conversations`); err != nil {
		return fmt.Errorf("failed to clear conversations: %w", err)
	}
	return nil
}
