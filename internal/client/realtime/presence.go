package realtime

import (
	"context"

	"github.com/dmitrijs2005/echochat/internal/client/remote"
	"github.com/dmitrijs2005/echochat/internal/client/state"
	"github.com/dmitrijs2005/echochat/internal/logging"
)

// Presence keeps the online-users set in state current. Every client
// tracks itself on the shared lobby topic; the backend answers with a
// full roster sync and then join/leave deltas.
type Presence struct {
	state  *state.Store
	stream remote.Stream
	logger logging.Logger
}

// NewPresence wires a Presence tracker.
func NewPresence(st *state.Store, stream remote.Stream, logger logging.Logger) *Presence {
	return &Presence{state: st, stream: stream, logger: logger}
}

// Start subscribes to the lobby roster and announces userID as online.
// The returned stop function leaves the lobby and drops the
// subscription.
func (p *Presence) Start(ctx context.Context, userID string) (func(), error) {
	cancelSub, err := p.stream.SubscribePresence(remote.LobbyTopic, func(e remote.PresenceEvent) {
		switch e.Kind {
		case remote.PresenceSync:
			p.state.SetOnlineUsers(e.UserIDs)
		case remote.PresenceJoin:
			for _, id := range e.UserIDs {
				p.state.AddOnlineUser(id)
			}
		case remote.PresenceLeave:
			for _, id := range e.UserIDs {
				p.state.RemoveOnlineUser(id)
			}
		}
	})
	if err != nil {
		return nil, err
	}

	untrack, err := p.stream.Track(ctx, remote.LobbyTopic, userID)
	if err != nil {
		cancelSub()
		return nil, err
	}

	return func() {
		untrack()
		cancelSub()
	}, nil
}
