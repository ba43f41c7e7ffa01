package messages

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/echochat/internal/client/models"
	"github.com/dmitrijs2005/echochat/internal/dbx"
)

// SQLiteRepository implements Repository using a DBTX (either *sql.DB or
// *sql.Tx). Timestamps are stored as epoch milliseconds so ordering is
// numeric; ties are broken by rowid, i.e. insertion order.
type SQLiteRepository struct {
	db dbx.DBTX
}

// NewSQLiteRepository returns a new SQLiteRepository bound to the given DBTX.
func NewSQLiteRepository(db dbx.DBTX) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

const upsertQuery = `INSERT INTO messages
		(id, chat_id, client_key, sender_id, receiver_id, channel_id, content,
		 message_type, file_url, file_name, file_size, file_type, is_read, created_at)
	VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	ON CONFLICT(id) DO UPDATE SET
		content = excluded.content,
		message_type = excluded.message_type,
		file_url = excluded.file_url,
		file_name = excluded.file_name,
		file_size = excluded.file_size,
		file_type = excluded.file_type,
		is_read = excluded.is_read,
		created_at = excluded.created_at
`

// Save upserts a message by id, indexed under its conversation key.
func (r *SQLiteRepository) Save(ctx context.Context, msg *models.Message) error {
	_, err := r.db.ExecContext(ctx, upsertQuery,
		msg.ID, msg.ChatKey(), msg.ClientKey, msg.SenderID, msg.ReceiverID, msg.ChannelID,
		msg.Content, string(msg.Type), msg.FileURL, msg.FileName, msg.FileSize, msg.FileType,
		boolToInt(msg.IsRead), msg.CreatedAt.UnixMilli())
	if err != nil {
		return fmt.Errorf("failed to upsert message: %w", err)
	}
	return nil
}

// SaveAll upserts a batch of messages in one transaction. It requires the
// repository to be bound to a *sql.DB.
func (r *SQLiteRepository) SaveAll(ctx context.Context, msgs []models.Message) error {
	if len(msgs) == 0 {
		return nil
	}
	db, ok := r.db.(*sql.DB)
	if !ok {
		for i := range msgs {
			if err := r.Save(ctx, &msgs[i]); err != nil {
				return err
			}
		}
		return nil
	}
	return dbx.WithTx(ctx, db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		repo := NewSQLiteRepository(tx)
		for i := range msgs {
			if err := repo.Save(ctx, &msgs[i]); err != nil {
				return err
			}
		}
		return nil
	})
}

const selectColumns = `id, client_key, sender_id, receiver_id, channel_id, content,
	message_type, file_url, file_name, file_size, file_type, is_read, created_at`

// Pair returns messages between userA and userB ordered by created_at
// ascending. When more than limit messages exist, only the most recent
// limit are returned (still ascending).
func (r *SQLiteRepository) Pair(ctx context.Context, userA, userB string, limit int) ([]models.Message, error) {
	return r.byChatKey(ctx, models.PairKey(userA, userB), limit)
}

// Channel returns messages for channelID, same contract as Pair.
func (r *SQLiteRepository) Channel(ctx context.Context, channelID string, limit int) ([]models.Message, error) {
	return r.byChatKey(ctx, models.ChannelKey(channelID), limit)
}

func (r *SQLiteRepository) byChatKey(ctx context.Context, chatKey string, limit int) ([]models.Message, error) {
	query := fmt.Sprintf(`SELECT %s FROM (
			SELECT %s, rowid AS rid FROM messages
			WHERE chat_id = ?
			ORDER BY created_at DESC, rowid DESC
			LIMIT ?
		) ORDER BY created_at ASC, rid ASC`, selectColumns, selectColumns)

	rows, err := r.db.QueryContext(ctx, query, chatKey, limit)
	if err != nil {
		return nil, fmt.Errorf("failed to select messages: %w", err)
	}
	defer rows.Close()

	var result []models.Message
	for rows.Next() {
		msg, err := scanMessage(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, msg)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// MarkRead flips is_read for the given message ids.
func (r *SQLiteRepository) MarkRead(ctx context.Context, ids []string) error {
	if len(ids) == 0 {
		return nil
	}
	placeholders := strings.Repeat("?,", len(ids))
	placeholders = placeholders[:len(placeholders)-1]
	args := make([]any, len(ids))
	for i, id := range ids {
		args[i] = id
	}
	query := fmt.Sprintf(`UPDATE messages SET is_read = 1 WHERE id IN (%s)`, placeholders)
	if _, err := r.db.ExecContext(ctx, query, args...); err != nil {
		return fmt.Errorf("failed to mark messages read: %w", err)
	}
	return nil
}

// Delete removes a message by id.
func (r *SQLiteRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE id = ?`, id); err != nil {
		return fmt.Errorf("failed to delete message: %w", err)
	}
	return nil
}

// PruneOlderThan removes messages older than the retention window.
func (r *SQLiteRepository) PruneOlderThan(ctx context.Context, days int) (int64, error) {
	cutoff := time.Now().AddDate(0, 0, -days).UnixMilli()
	res, err := r.db.ExecContext(ctx, `DELETE FROM messages WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("failed to prune messages: %w", err)
	}
	return res.RowsAffected()
}

// Clear removes every cached message.
func (r *SQLiteRepository) Clear(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM messages`); err != nil {
		return fmt.Errorf("failed to clear messages: %w", err)
	}
	return nil
}

func scanMessage(rows *sql.Rows) (models.Message, error) {
	var (
		msg       models.Message
		msgType   string
		isRead    int
		createdAt int64
	)
	err := rows.Scan(&msg.ID, &msg.ClientKey, &msg.SenderID, &msg.ReceiverID, &msg.ChannelID,
		&msg.Content, &msgType, &msg.FileURL, &msg.FileName, &msg.FileSize, &msg.FileType,
		&isRead, &createdAt)
	if err != nil {
		return models.Message{}, err
	}
	msg.Type = models.MessageType(msgType)
	msg.IsRead = isRead != 0
	msg.CreatedAt = time.UnixMilli(createdAt).UTC()
	return msg, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
