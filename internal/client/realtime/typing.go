package realtime

import (
	"context"
	"sync"
	"time"

	"github.com/dmitrijs2005/echochat/internal/client/models"
	"github.com/dmitrijs2005/echochat/internal/client/remote"
	"github.com/dmitrijs2005/echochat/internal/logging"
)

// typingDebounce is how long after the last keystroke the stop signal
// goes out. Receivers run their own, slightly longer expiry, so a lost
// stop signal still clears.
const typingDebounce = 2 * time.Second

// TypingBroadcaster publishes this user's typing signals on the
// pair-scoped typing topic, debouncing the stop signal.
type TypingBroadcaster struct {
	stream remote.Stream
	logger logging.Logger
	selfID string

	mu     sync.Mutex
	timers map[string]*time.Timer
}

// NewTypingBroadcaster wires a TypingBroadcaster for the given user.
func NewTypingBroadcaster(stream remote.Stream, selfID string, logger logging.Logger) *TypingBroadcaster {
	return &TypingBroadcaster{
		stream: stream,
		logger: logger,
		selfID: selfID,
		timers: make(map[string]*time.Timer),
	}
}

// InputActivity reports a keystroke in the conversation with peerID.
// Every keystroke announces typing again, so the receiver's expiry
// keeps getting refreshed for as long as the burst lasts; only the stop
// signal is debounced.
func (t *TypingBroadcaster) InputActivity(ctx context.Context, peerID string) {
	t.mu.Lock()
	if timer, ok := t.timers[peerID]; ok {
		timer.Reset(typingDebounce)
	} else {
		t.timers[peerID] = time.AfterFunc(typingDebounce, func() {
			t.Stop(context.Background(), peerID)
		})
	}
	t.mu.Unlock()

	t.broadcast(ctx, peerID, true)
}

// Stop announces that typing ended, immediately. Called on send and by
// the debounce timer.
func (t *TypingBroadcaster) Stop(ctx context.Context, peerID string) {
	t.mu.Lock()
	timer, active := t.timers[peerID]
	if active {
		timer.Stop()
		delete(t.timers, peerID)
	}
	t.mu.Unlock()

	if active {
		t.broadcast(ctx, peerID, false)
	}
}

func (t *TypingBroadcaster) broadcast(ctx context.Context, peerID string, typing bool) {
	topic := remote.TypingTopic(models.PairKey(t.selfID, peerID))
	sig := remote.TypingSignal{UserID: t.selfID, Typing: typing}
	if err := t.stream.Broadcast(ctx, topic, remote.EventTyping, sig); err != nil {
		// Ephemeral by contract: a lost signal expires on the peer's side.
		t.logger.Debug(ctx, "typing broadcast failed", "error", err)
	}
}
