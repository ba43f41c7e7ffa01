package realtime

import (
	"context"
	"time"

	"github.com/dmitrijs2005/echochat/internal/client/models"
	"github.com/dmitrijs2005/echochat/internal/client/remote"
	"github.com/dmitrijs2005/echochat/internal/client/state"
	"github.com/dmitrijs2005/echochat/internal/logging"
)

// backfillLimit caps one reconciliation fetch when the gap is unbounded
// (no local trace of the conversation at all).
const backfillLimit = 200

// Reconciler closes the gap between the local mirror and the backend
// after a cold start or a reconnect. It fetches everything created
// strictly after the latest locally known message of each conversation
// and feeds it through the dispatcher's backfill path: the same
// idempotent add and echo matching as live events, but rows already
// read elsewhere never count as unread and nothing reaches external
// subscribers.
type Reconciler struct {
	state      *state.Store
	store      remote.Store
	dispatcher *Dispatcher
	logger     logging.Logger
}

// NewReconciler wires a Reconciler.
func NewReconciler(st *state.Store, store remote.Store, dispatcher *Dispatcher, logger logging.Logger) *Reconciler {
	return &Reconciler{state: st, store: store, dispatcher: dispatcher, logger: logger}
}

// Run reconciles every known conversation. On a cold start, before the
// conversation snapshot has been loaded, it fetches the snapshot itself
// so the first connect never reconciles against an empty list. Failures
// on one conversation are logged and do not stop the others; the next
// reconnect retries.
func (r *Reconciler) Run(ctx context.Context) {
	convs := r.state.Conversations()
	if len(convs) == 0 {
		list, err := r.store.Conversations(ctx)
		if err != nil {
			r.logger.Warn(ctx, "conversation snapshot fetch failed, skipping reconcile", "error", err)
			return
		}
		r.state.SetConversations(list)
		convs = r.state.Conversations()
	}

	for _, c := range convs {
		peerID := c.Friend.ID
		after := r.latestLocal(peerID, &c)

		list, err := r.store.MessagesAfter(ctx, peerID, after, backfillLimit)
		if err != nil {
			r.logger.Warn(ctx, "backfill failed", "peer_id", peerID, "error", err)
			continue
		}
		for _, msg := range list {
			r.dispatcher.Backfill(ctx, msg)
		}
		if len(list) > 0 {
			r.logger.Info(ctx, "backfilled conversation", "peer_id", peerID, "count", len(list))
		}
	}
}

// latestLocal returns the newest locally known instant for a
// conversation: the tail of the in-memory list, else the cached preview
// message. A conversation with no local trace returns the zero time and
// backfills from the beginning, capped by backfillLimit.
func (r *Reconciler) latestLocal(peerID string, c *models.Conversation) time.Time {
	if list := r.state.Messages(peerID); len(list) > 0 {
		return list[len(list)-1].CreatedAt
	}
	if c.LastMessage != nil {
		return c.LastMessage.CreatedAt
	}
	return time.Time{}
}
