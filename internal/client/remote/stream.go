package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"

	"github.com/gorilla/websocket"

	"github.com/dmitrijs2005/echochat/internal/client/session"
	"github.com/dmitrijs2005/echochat/internal/common"
	"github.com/dmitrijs2005/echochat/internal/logging"
)

// Frame types exchanged with the realtime gateway.
const (
	frameSubscribe   = "subscribe"
	frameUnsubscribe = "unsubscribe"
	frameTrack       = "track"
	frameUntrack     = "untrack"
	frameBroadcast   = "broadcast"
	frameMessage     = "message"
	framePresence    = "presence"
)

// wsFrame is the single envelope for every frame in both directions.
type wsFrame struct {
	Type    string          `json:"type"`
	Topic   string          `json:"topic,omitempty"`
	Event   string          `json:"event,omitempty"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// messagesTopic is the stream topic carrying message events for one user.
func messagesTopic(userID string) string { return "messages:" + userID }

// channelMessagesTopic is the stream topic carrying message events for
// one channel.
func channelMessagesTopic(channelID string) string { return "channel_messages:" + channelID }

// WSStream implements Stream over a single websocket connection. All
// topics are multiplexed on it; a read loop fans frames out to a
// per-topic handler registry.
type WSStream struct {
	endpointURL string
	sessions    session.Provider
	logger      logging.Logger

	mu       sync.Mutex
	conn     *websocket.Conn
	done     chan struct{}
	handlers map[string]map[int]func(wsFrame)
	nextID   int
}

var _ Stream = (*WSStream)(nil)

// NewWSStream returns a disconnected WSStream for the given endpoint.
func NewWSStream(endpointURL string, sessions session.Provider, logger logging.Logger) *WSStream {
	return &WSStream{
		endpointURL: endpointURL,
		sessions:    sessions,
		logger:      logger,
		handlers:    make(map[string]map[int]func(wsFrame)),
	}
}

// Connect implements Stream.
func (w *WSStream) Connect(ctx context.Context) error {
	s, err := w.sessions.Current()
	if err != nil {
		return err
	}

	header := http.Header{}
	header.Set(common.AuthHeaderName, common.BearerPrefix+s.AccessToken)

	conn, resp, err := websocket.DefaultDialer.DialContext(ctx, w.endpointURL, header)
	if err != nil {
		if resp != nil {
			if mapped := mapStatus(resp.StatusCode); mapped != nil {
				return mapped
			}
		}
		return fmt.Errorf("%w: %s", ErrUnavailable, err)
	}

	w.mu.Lock()
	w.conn = conn
	w.done = make(chan struct{})
	done := w.done
	w.mu.Unlock()

	go w.readLoop(conn, done)
	return nil
}

// Close implements Stream.
func (w *WSStream) Close() error {
	w.mu.Lock()
	conn := w.conn
	w.conn = nil
	w.mu.Unlock()
	if conn == nil {
		return nil
	}
	return conn.Close()
}

// Done implements Stream. Before the first Connect it returns a channel
// that is already closed.
func (w *WSStream) Done() <-chan struct{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.done == nil {
		closed := make(chan struct{})
		close(closed)
		return closed
	}
	return w.done
}

func (w *WSStream) readLoop(conn *websocket.Conn, done chan struct{}) {
	defer func() {
		_ = conn.Close()
		w.mu.Lock()
		if w.conn == conn {
			w.conn = nil
		}
		w.mu.Unlock()
		close(done)
	}()

	for {
		var frame wsFrame
		if err := conn.ReadJSON(&frame); err != nil {
			if websocket.IsUnexpectedCloseError(err, websocket.CloseNormalClosure, websocket.CloseGoingAway) {
				w.logger.Warn(context.Background(), "stream read failed", "error", err)
			}
			return
		}
		w.dispatch(frame)
	}
}

func (w *WSStream) dispatch(frame wsFrame) {
	w.mu.Lock()
	fns := make([]func(wsFrame), 0, len(w.handlers[frame.Topic]))
	for _, fn := range w.handlers[frame.Topic] {
		fns = append(fns, fn)
	}
	w.mu.Unlock()

	for _, fn := range fns {
		fn(frame)
	}
}

// addHandler registers fn for a topic and returns its removal func. The
// removal func reports whether the topic has no handlers left.
func (w *WSStream) addHandler(topic string, fn func(wsFrame)) func() bool {
	w.mu.Lock()
	id := w.nextID
	w.nextID++
	if w.handlers[topic] == nil {
		w.handlers[topic] = make(map[int]func(wsFrame))
	}
	w.handlers[topic][id] = fn
	w.mu.Unlock()

	return func() bool {
		w.mu.Lock()
		defer w.mu.Unlock()
		if set, ok := w.handlers[topic]; ok {
			delete(set, id)
			if len(set) == 0 {
				delete(w.handlers, topic)
				return true
			}
		}
		return false
	}
}

func (w *WSStream) send(frame wsFrame) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.conn == nil {
		return ErrUnavailable
	}
	if err := w.conn.WriteJSON(frame); err != nil {
		return fmt.Errorf("%w: %s", ErrUnavailable, err)
	}
	return nil
}

// subscribeTopic registers a handler and announces the subscription. The
// returned cancel unregisters and, when the last handler for the topic
// is gone, unsubscribes.
func (w *WSStream) subscribeTopic(topic string, fn func(wsFrame)) (func(), error) {
	remove := w.addHandler(topic, fn)
	if err := w.send(wsFrame{Type: frameSubscribe, Topic: topic}); err != nil {
		remove()
		return nil, err
	}
	return func() {
		if remove() {
			_ = w.send(wsFrame{Type: frameUnsubscribe, Topic: topic})
		}
	}, nil
}

// subscribeMessageTopic decodes message frames on a topic into typed
// events.
func (w *WSStream) subscribeMessageTopic(topic string, fn func(MessageEvent)) (func(), error) {
	return w.subscribeTopic(topic, func(frame wsFrame) {
		if frame.Type != frameMessage {
			return
		}
		kind := MessageEventKind(frame.Event)
		if kind != MessageInserted && kind != MessageUpdated {
			return
		}
		var event MessageEvent
		event.Kind = kind
		if err := json.Unmarshal(frame.Payload, &event.Message); err != nil {
			w.logger.Warn(context.Background(), "dropping malformed message event", "error", err)
			return
		}
		fn(event)
	})
}

// SubscribeMessages implements Stream.
func (w *WSStream) SubscribeMessages(userID string, fn func(MessageEvent)) (func(), error) {
	return w.subscribeMessageTopic(messagesTopic(userID), fn)
}

// SubscribeChannelMessages implements Stream.
func (w *WSStream) SubscribeChannelMessages(channelID string, fn func(MessageEvent)) (func(), error) {
	return w.subscribeMessageTopic(channelMessagesTopic(channelID), fn)
}

// SubscribeBroadcast implements Stream.
func (w *WSStream) SubscribeBroadcast(topic, event string, fn func(payload []byte)) (func(), error) {
	return w.subscribeTopic(topic, func(frame wsFrame) {
		if frame.Type != frameBroadcast || frame.Event != event {
			return
		}
		fn(frame.Payload)
	})
}

// Broadcast implements Stream.
func (w *WSStream) Broadcast(_ context.Context, topic, event string, payload any) error {
	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to encode broadcast payload: %w", err)
	}
	return w.send(wsFrame{Type: frameBroadcast, Topic: topic, Event: event, Payload: data})
}

type trackPayload struct {
	UserID string `json:"user_id"`
}

// Track implements Stream.
func (w *WSStream) Track(_ context.Context, topic, userID string) (func(), error) {
	data, err := json.Marshal(trackPayload{UserID: userID})
	if err != nil {
		return nil, fmt.Errorf("failed to encode track payload: %w", err)
	}
	if err := w.send(wsFrame{Type: frameTrack, Topic: topic, Payload: data}); err != nil {
		return nil, err
	}
	return func() {
		_ = w.send(wsFrame{Type: frameUntrack, Topic: topic, Payload: data})
	}, nil
}

type presencePayload struct {
	UserIDs []string `json:"user_ids"`
}

// SubscribePresence implements Stream.
func (w *WSStream) SubscribePresence(topic string, fn func(PresenceEvent)) (func(), error) {
	return w.subscribeTopic(topic, func(frame wsFrame) {
		if frame.Type != framePresence {
			return
		}
		kind := PresenceEventKind(frame.Event)
		if kind != PresenceSync && kind != PresenceJoin && kind != PresenceLeave {
			return
		}
		var payload presencePayload
		if err := json.Unmarshal(frame.Payload, &payload); err != nil {
			w.logger.Warn(context.Background(), "dropping malformed presence event", "error", err)
			return
		}
		fn(PresenceEvent{Kind: kind, UserIDs: payload.UserIDs})
	})
}
