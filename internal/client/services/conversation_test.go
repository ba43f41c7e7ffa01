package services

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/echochat/internal/client/models"
	"github.com/dmitrijs2005/echochat/internal/client/remote"
	"github.com/dmitrijs2005/echochat/internal/client/repositories/conversations"
	"github.com/dmitrijs2005/echochat/internal/client/state"

	_ "modernc.org/sqlite"
)

func setupConvDB(t *testing.T) *sql.DB {
	t.Helper()
	db, err := sql.Open("sqlite", "file:convsvc?mode=memory&cache=shared")
	require.NoError(t, err)
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	t.Cleanup(func() { _ = db.Close() })

	_, err = db.Exec(`
CREATE TABLE IF NOT EXISTS conversations (
  friend_id TEXT PRIMARY KEY,
  friend TEXT NOT NULL,
  last_message TEXT,
  unread_count INTEGER NOT NULL DEFAULT 0,
  updated_at INTEGER NOT NULL
);
`)
	require.NoError(t, err)
	_, err = db.Exec(`DELETE FROM conversations`)
	require.NoError(t, err)
	return db
}

// convStore serves a conversation snapshot or fails.
type convStore struct {
	remote.Store

	list []models.Conversation
	err  error
}

func (f *convStore) Conversations(context.Context) ([]models.Conversation, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.list, nil
}

func sampleConversations() []models.Conversation {
	t0 := time.Now().UTC().Truncate(time.Millisecond)
	return []models.Conversation{
		{
			Friend: models.Profile{ID: "u2", Username: "bob"},
			LastMessage: &models.Message{
				ID: "m-1", SenderID: "u2", ReceiverID: "me",
				Content: "hi", Type: models.MessageTypeText, CreatedAt: t0,
			},
			UnreadCount: 2,
		},
	}
}

func TestConversations_LoadFromBackendCaches(t *testing.T) {
	db := setupConvDB(t)
	repo := conversations.NewSQLiteRepository(db)
	st := state.NewStore()
	store := &convStore{list: sampleConversations()}
	svc := NewConversationService(st, repo, store, testLogger())
	ctx := context.Background()

	got, err := svc.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "u2", got[0].Friend.ID)

	// The snapshot is cached for offline starts.
	cached, err := repo.All(ctx)
	require.NoError(t, err)
	require.Len(t, cached, 1)
	require.Equal(t, 2, cached[0].UnreadCount)
}

func TestConversations_FallsBackToCache(t *testing.T) {
	db := setupConvDB(t)
	repo := conversations.NewSQLiteRepository(db)
	ctx := context.Background()
	require.NoError(t, repo.SaveAll(ctx, sampleConversations()))

	st := state.NewStore()
	store := &convStore{err: remote.ErrUnavailable}
	svc := NewConversationService(st, repo, store, testLogger())

	got, err := svc.Load(ctx)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Equal(t, "u2", got[0].Friend.ID)
	require.Len(t, st.Conversations(), 1)
}

func TestConversations_BothSourcesGone(t *testing.T) {
	db := setupConvDB(t)
	repo := conversations.NewSQLiteRepository(db)
	require.NoError(t, db.Close())

	svc := NewConversationService(state.NewStore(), repo, &convStore{err: remote.ErrUnavailable}, testLogger())

	_, err := svc.Load(context.Background())
	require.ErrorIs(t, err, remote.ErrUnavailable)
}
