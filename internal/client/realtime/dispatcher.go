// Package realtime keeps the local state live: it owns the stream
// subscriptions, applies message events in arrival order, tracks
// presence and typing, and backfills whatever was missed while the
// connection was down.
package realtime

import (
	"context"
	"encoding/json"
	"sync"
	"time"

	"github.com/dmitrijs2005/echochat/internal/client/models"
	"github.com/dmitrijs2005/echochat/internal/client/remote"
	"github.com/dmitrijs2005/echochat/internal/client/repositories/messages"
	"github.com/dmitrijs2005/echochat/internal/client/session"
	"github.com/dmitrijs2005/echochat/internal/client/state"
	"github.com/dmitrijs2005/echochat/internal/logging"
)

// echoMatchWindow bounds the heuristic used to pair a realtime echo of
// our own send with its provisional entry when the client key is absent.
const echoMatchWindow = 5 * time.Second

// Dispatcher is the single consumer of the realtime message stream. It
// applies events to the durable store and the in-memory state in arrival
// order and fans genuinely inbound messages out to external subscribers.
// There is one Dispatcher per process regardless of how many views
// consume the state.
type Dispatcher struct {
	state    *state.Store
	repo     messages.Repository
	store    remote.Store
	stream   remote.Stream
	sessions session.Provider
	logger   logging.Logger

	mu      sync.Mutex
	userID  string
	cancels []func()

	subMu   sync.Mutex
	subs    map[int]func(models.Message)
	nextSub int
}

// NewDispatcher wires a Dispatcher. Call Init to start it.
func NewDispatcher(
	st *state.Store,
	repo messages.Repository,
	store remote.Store,
	stream remote.Stream,
	sessions session.Provider,
	logger logging.Logger,
) *Dispatcher {
	return &Dispatcher{
		state:    st,
		repo:     repo,
		store:    store,
		stream:   stream,
		sessions: sessions,
		logger:   logger,
		subs:     make(map[int]func(models.Message)),
	}
}

// Init subscribes to the message stream for userID. Calling it again for
// the same user while running is a no-op; a different user (or a restart
// after reconnect) tears the old subscriptions down first.
func (d *Dispatcher) Init(ctx context.Context, userID string) error {
	d.mu.Lock()
	if d.userID == userID && len(d.cancels) > 0 {
		d.mu.Unlock()
		return nil
	}
	d.mu.Unlock()
	d.Teardown()

	cancel, err := d.stream.SubscribeMessages(userID, func(e remote.MessageEvent) {
		d.Apply(context.Background(), e)
	})
	if err != nil {
		return err
	}

	d.mu.Lock()
	d.userID = userID
	d.cancels = append(d.cancels, cancel)
	d.mu.Unlock()

	d.logger.Info(ctx, "dispatcher ready", "user_id", userID)
	return nil
}

// Teardown cancels every stream subscription. Safe to call when not
// running.
func (d *Dispatcher) Teardown() {
	d.mu.Lock()
	cancels := d.cancels
	d.cancels = nil
	d.userID = ""
	d.mu.Unlock()

	for _, cancel := range cancels {
		cancel()
	}
}

// Subscribe registers an external consumer (notifications, CLI bell) for
// genuinely inbound messages: those another user sent, seen for the
// first time. Echoes of our own sends and replayed events never reach
// subscribers.
func (d *Dispatcher) Subscribe(fn func(models.Message)) func() {
	d.subMu.Lock()
	id := d.nextSub
	d.nextSub++
	d.subs[id] = fn
	d.subMu.Unlock()

	return func() {
		d.subMu.Lock()
		delete(d.subs, id)
		d.subMu.Unlock()
	}
}

func (d *Dispatcher) fanOut(msg models.Message) {
	d.subMu.Lock()
	fns := make([]func(models.Message), 0, len(d.subs))
	for _, fn := range d.subs {
		fns = append(fns, fn)
	}
	d.subMu.Unlock()
	for _, fn := range fns {
		fn(msg)
	}
}

// Apply processes one stream event. Events are applied in arrival order;
// the dispatcher never reorders or buffers them.
func (d *Dispatcher) Apply(ctx context.Context, e remote.MessageEvent) {
	switch e.Kind {
	case remote.MessageInserted:
		d.applyInsert(ctx, e.Message, false)
	case remote.MessageUpdated:
		d.applyUpdate(ctx, e.Message)
	}
}

// Backfill applies a message fetched by the reconciler. It shares the
// insert path so idempotence and echo matching behave identically, but
// a row already read elsewhere never counts as unread, and backfilled
// rows never reach external subscribers.
func (d *Dispatcher) Backfill(ctx context.Context, msg models.Message) {
	d.applyInsert(ctx, msg, true)
}

func (d *Dispatcher) applyInsert(ctx context.Context, msg models.Message, backfill bool) {
	d.mu.Lock()
	selfID := d.userID
	d.mu.Unlock()

	if !msg.Direct() || !msg.Involves(selfID) {
		return
	}
	peerID := msg.Peer(selfID)

	if err := d.repo.Save(ctx, &msg); err != nil {
		d.logger.Warn(ctx, "failed to persist incoming message", "error", err)
	}

	if msg.SenderID == selfID {
		d.applyEcho(peerID, msg)
		return
	}
	d.applyInbound(ctx, peerID, msg, backfill)
}

// applyEcho handles the stream copy of a message this client sent: it
// confirms the matching provisional entry when one is still present, or
// adds the row idempotently when the send call already confirmed it.
func (d *Dispatcher) applyEcho(peerID string, msg models.Message) {
	if tempID, ok := matchProvisional(d.state.Messages(peerID), msg); ok {
		d.state.ReplaceMessage(peerID, tempID, msg)
	} else {
		d.state.AddMessage(peerID, msg)
	}
	d.state.UpdateLastMessage(peerID, msg)
}

// matchProvisional finds the provisional entry in list that the echo
// confirms, by client key first and by a bounded (sender, content,
// type, time) heuristic when the key is missing.
func matchProvisional(list []models.Message, msg models.Message) (string, bool) {
	for _, existing := range list {
		if !existing.Provisional() {
			continue
		}
		if msg.ClientKey != "" && existing.ClientKey == msg.ClientKey {
			return existing.ID, true
		}
	}
	if msg.ClientKey != "" {
		return "", false
	}
	for _, existing := range list {
		if !existing.Provisional() {
			continue
		}
		if existing.SenderID == msg.SenderID &&
			existing.Content == msg.Content &&
			existing.Type == msg.Type &&
			absDuration(existing.CreatedAt.Sub(msg.CreatedAt)) <= echoMatchWindow {
			return existing.ID, true
		}
	}
	return "", false
}

func (d *Dispatcher) applyInbound(ctx context.Context, peerID string, msg models.Message, backfill bool) {
	added := d.state.AddMessage(peerID, msg)
	d.state.UpdateLastMessage(peerID, msg)
	if !added {
		return
	}

	// The active conversation is read at handling time: whatever the
	// user is looking at right now decides between read and unread. A
	// backfilled row already read on another device counts as neither.
	switch {
	case msg.IsRead:
	case d.state.ActiveConversation() == peerID:
		d.markReadNow(ctx, peerID, msg)
	default:
		d.state.IncrementUnread(peerID)
	}

	if backfill {
		return
	}
	d.fanOut(msg)
}

// markReadNow handles a message arriving into the conversation the user
// is viewing: it is read the moment it lands. The local flip is
// immediate; the backend update and the receipt to the sender go out in
// the background.
func (d *Dispatcher) markReadNow(ctx context.Context, peerID string, msg models.Message) {
	ids := []string{msg.ID}
	d.state.MarkMessagesRead(peerID, ids)
	if err := d.repo.MarkRead(ctx, ids); err != nil {
		d.logger.Warn(ctx, "failed to persist read flag", "error", err)
	}

	d.mu.Lock()
	selfID := d.userID
	d.mu.Unlock()

	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		if err := d.store.MarkMessagesRead(ctx, ids); err != nil {
			d.logger.Warn(ctx, "failed to mark message read remotely", "error", err)
		}
		receipt := remote.ReadReceipt{MessageIDs: ids, ReaderID: selfID}
		topic := remote.ReadStatusTopic(models.PairKey(selfID, peerID))
		if err := d.stream.Broadcast(ctx, topic, remote.EventMessagesRead, receipt); err != nil {
			d.logger.Warn(ctx, "failed to broadcast read receipt", "error", err)
		}
	}()
}

func (d *Dispatcher) applyUpdate(ctx context.Context, msg models.Message) {
	d.mu.Lock()
	selfID := d.userID
	d.mu.Unlock()

	if !msg.Direct() || !msg.Involves(selfID) {
		return
	}
	peerID := msg.Peer(selfID)

	if err := d.repo.Save(ctx, &msg); err != nil {
		d.logger.Warn(ctx, "failed to persist updated message", "error", err)
	}
	// Patch in place only. A row outside the loaded window stays in the
	// durable mirror but never lands mid-list out of order.
	d.state.UpdateMessage(peerID, msg)
}

// WatchConversation subscribes to the pair-scoped ephemeral topics for
// one conversation: read receipts from the peer and their typing
// signals. The returned cancel drops both subscriptions.
func (d *Dispatcher) WatchConversation(ctx context.Context, peerID string) (func(), error) {
	d.mu.Lock()
	selfID := d.userID
	d.mu.Unlock()

	pair := models.PairKey(selfID, peerID)

	cancelRead, err := d.stream.SubscribeBroadcast(
		remote.ReadStatusTopic(pair), remote.EventMessagesRead, func(payload []byte) {
			var receipt remote.ReadReceipt
			if err := json.Unmarshal(payload, &receipt); err != nil {
				d.logger.Warn(ctx, "dropping malformed read receipt", "error", err)
				return
			}
			if receipt.ReaderID == selfID {
				return
			}
			d.state.MarkMessagesRead(peerID, receipt.MessageIDs)
			if err := d.repo.MarkRead(context.Background(), receipt.MessageIDs); err != nil {
				d.logger.Warn(ctx, "failed to persist read receipt", "error", err)
			}
		})
	if err != nil {
		return nil, err
	}

	cancelTyping, err := d.stream.SubscribeBroadcast(
		remote.TypingTopic(pair), remote.EventTyping, func(payload []byte) {
			var sig remote.TypingSignal
			if err := json.Unmarshal(payload, &sig); err != nil {
				d.logger.Warn(ctx, "dropping malformed typing signal", "error", err)
				return
			}
			if sig.UserID == selfID {
				return
			}
			d.state.SetTyping(peerID, sig.Typing)
		})
	if err != nil {
		cancelRead()
		return nil, err
	}

	return func() {
		cancelRead()
		cancelTyping()
	}, nil
}

// WatchChannel subscribes to a channel's message events while it is
// open. Inserts confirm the provisional entry for this client's own
// sends and add everything else idempotently; updates patch in place.
// Channels carry no unread accounting.
func (d *Dispatcher) WatchChannel(ctx context.Context, channelID string) (func(), error) {
	d.mu.Lock()
	selfID := d.userID
	d.mu.Unlock()

	return d.stream.SubscribeChannelMessages(channelID, func(e remote.MessageEvent) {
		msg := e.Message
		if msg.ChannelID != channelID {
			return
		}
		if err := d.repo.Save(context.Background(), &msg); err != nil {
			d.logger.Warn(ctx, "failed to persist channel message", "error", err)
		}

		switch e.Kind {
		case remote.MessageInserted:
			if msg.SenderID == selfID {
				if tempID, ok := matchProvisional(d.state.ChannelMessages(channelID), msg); ok {
					d.state.ReplaceChannelMessage(channelID, tempID, msg)
					return
				}
			}
			d.state.AddChannelMessage(channelID, msg)
		case remote.MessageUpdated:
			d.state.UpdateChannelMessage(channelID, msg)
		}
	})
}

func absDuration(d time.Duration) time.Duration {
	if d < 0 {
		return -d
	}
	return d
}
