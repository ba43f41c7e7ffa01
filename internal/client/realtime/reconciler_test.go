package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/echochat/internal/client/models"
)

func newReconcilerFixture(t *testing.T) (*fixture, *Reconciler) {
	t.Helper()
	f := newFixture(t)
	r := NewReconciler(f.state, f.store, f.dispatcher, testLogger())
	return f, r
}

func TestRun_BackfillsAfterLatestLocal(t *testing.T) {
	f, r := newReconcilerFixture(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Minute).Truncate(time.Millisecond)
	known := inbound("m-1", "before the drop", base)
	known.IsRead = true
	f.state.SetMessages("u2", []models.Message{known})
	f.state.SetConversations([]models.Conversation{
		{Friend: models.Profile{ID: "u2"}, LastMessage: &known},
	})

	f.store.backlog = []models.Message{
		known,
		inbound("m-2", "while offline", base.Add(time.Second)),
		inbound("m-3", "also offline", base.Add(5*time.Second)),
	}

	r.Run(ctx)

	got := f.state.Messages("u2")
	require.Len(t, got, 3)
	require.Equal(t, "m-1", got[0].ID)
	require.Equal(t, "m-2", got[1].ID)
	require.Equal(t, "m-3", got[2].ID)

	c, _ := f.state.Conversation("u2")
	require.Equal(t, 2, c.UnreadCount)
	require.Equal(t, "m-3", c.LastMessage.ID)
}

func TestRun_RowsReadElsewhereStayRead(t *testing.T) {
	f, r := newReconcilerFixture(t)
	ctx := context.Background()

	var notifications int
	cancel := f.dispatcher.Subscribe(func(models.Message) { notifications++ })
	defer cancel()

	base := time.Now().UTC().Add(-time.Minute).Truncate(time.Millisecond)
	known := inbound("m-1", "seed", base)
	known.IsRead = true
	f.state.SetMessages("u2", []models.Message{known})
	f.state.SetConversations([]models.Conversation{
		{Friend: models.Profile{ID: "u2"}, LastMessage: &known},
	})

	// m-2 was read on another device while this one was offline; m-3
	// was not.
	readElsewhere := inbound("m-2", "read on the phone", base.Add(time.Second))
	readElsewhere.IsRead = true
	f.store.backlog = []models.Message{
		known,
		readElsewhere,
		inbound("m-3", "still unread", base.Add(2*time.Second)),
	}

	r.Run(ctx)

	require.Len(t, f.state.Messages("u2"), 3)
	c, _ := f.state.Conversation("u2")
	require.Equal(t, 1, c.UnreadCount, "only the genuinely unread row counts")
	require.Zero(t, notifications, "backfill never reaches subscribers")
}

func TestRun_ColdStartFetchesConversationSnapshot(t *testing.T) {
	f, r := newReconcilerFixture(t)
	ctx := context.Background()

	// Nothing loaded yet: the reconciler pulls the snapshot itself
	// instead of reconciling against an empty list.
	base := time.Now().UTC().Add(-time.Minute).Truncate(time.Millisecond)
	f.store.convs = []models.Conversation{{Friend: models.Profile{ID: "u2"}}}
	f.store.backlog = []models.Message{inbound("m-1", "while away", base)}

	r.Run(ctx)

	require.Len(t, f.state.Conversations(), 1)
	require.Len(t, f.state.Messages("u2"), 1)
	c, _ := f.state.Conversation("u2")
	require.Equal(t, 1, c.UnreadCount)
}

func TestRun_SecondPassAddsNothing(t *testing.T) {
	f, r := newReconcilerFixture(t)
	ctx := context.Background()

	base := time.Now().UTC().Add(-time.Minute).Truncate(time.Millisecond)
	known := inbound("m-1", "seed", base)
	f.state.SetMessages("u2", []models.Message{known})
	f.state.SetConversations([]models.Conversation{
		{Friend: models.Profile{ID: "u2"}, LastMessage: &known},
	})
	f.store.backlog = []models.Message{
		known,
		inbound("m-2", "missed", base.Add(time.Second)),
	}

	r.Run(ctx)
	r.Run(ctx)

	require.Len(t, f.state.Messages("u2"), 2)
	c, _ := f.state.Conversation("u2")
	require.Equal(t, 1, c.UnreadCount)
}

func TestRun_ColdStartUsesConversationPreview(t *testing.T) {
	f, r := newReconcilerFixture(t)
	ctx := context.Background()

	// Cached conversation list only; no messages loaded yet.
	base := time.Now().UTC().Add(-time.Hour).Truncate(time.Millisecond)
	preview := inbound("m-1", "old preview", base)
	f.state.SetConversations([]models.Conversation{
		{Friend: models.Profile{ID: "u2"}, LastMessage: &preview},
	})
	f.store.backlog = []models.Message{
		preview,
		inbound("m-2", "new since then", base.Add(30*time.Minute)),
	}

	r.Run(ctx)

	got := f.state.Messages("u2")
	require.Len(t, got, 1, "only rows after the preview come back")
	require.Equal(t, "m-2", got[0].ID)
}

func TestRun_FetchFailureSkipsConversation(t *testing.T) {
	f, r := newReconcilerFixture(t)
	ctx := context.Background()

	f.state.SetConversations([]models.Conversation{
		{Friend: models.Profile{ID: "u2"}},
		{Friend: models.Profile{ID: "u3"}},
	})
	f.store.backlog = []models.Message{
		{ID: "m-1", SenderID: "u3", ReceiverID: "me", Content: "hi",
			Type: models.MessageTypeText, CreatedAt: time.Now().UTC()},
	}
	f.store.failPeer = "u2"

	r.Run(ctx)

	require.Empty(t, f.state.Messages("u2"))
	require.Len(t, f.state.Messages("u3"), 1)
}
