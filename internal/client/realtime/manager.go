package realtime

import (
	"context"
	"errors"
	"time"

	"github.com/sethvargo/go-retry"

	"github.com/dmitrijs2005/echochat/internal/client/remote"
	"github.com/dmitrijs2005/echochat/internal/client/session"
	"github.com/dmitrijs2005/echochat/internal/common"
	"github.com/dmitrijs2005/echochat/internal/logging"
)

// reconnectBase is the first reconnect backoff step.
const reconnectBase = 500 * time.Millisecond

// Manager owns the realtime connection lifecycle: connect with backoff,
// bring the dispatcher and presence up, reconcile, then wait for the
// connection to drop and start over. An expired or missing session is
// fatal; control returns to the caller, which owns the login flow.
type Manager struct {
	stream      remote.Stream
	dispatcher  *Dispatcher
	presence    *Presence
	reconciler  *Reconciler
	sessions    session.Provider
	logger      logging.Logger
	maxInterval time.Duration
}

// NewManager wires a Manager.
func NewManager(
	stream remote.Stream,
	dispatcher *Dispatcher,
	presence *Presence,
	reconciler *Reconciler,
	sessions session.Provider,
	logger logging.Logger,
	maxInterval time.Duration,
) *Manager {
	return &Manager{
		stream:      stream,
		dispatcher:  dispatcher,
		presence:    presence,
		reconciler:  reconciler,
		sessions:    sessions,
		logger:      logger,
		maxInterval: maxInterval,
	}
}

// Run blocks until ctx is cancelled or the session becomes unusable.
func (m *Manager) Run(ctx context.Context) error {
	for {
		sess, err := m.sessions.Current()
		if err != nil {
			return err
		}

		if err := m.connect(ctx); err != nil {
			return err
		}

		if err := m.dispatcher.Init(ctx, sess.UserID); err != nil {
			m.logger.Error(ctx, "failed to start dispatcher", "error", err)
			_ = m.stream.Close()
			continue
		}
		stopPresence, err := m.presence.Start(ctx, sess.UserID)
		if err != nil {
			m.logger.Warn(ctx, "presence unavailable", "error", err)
			stopPresence = func() {}
		}

		m.reconciler.Run(ctx)

		select {
		case <-ctx.Done():
			stopPresence()
			m.dispatcher.Teardown()
			_ = m.stream.Close()
			return ctx.Err()
		case <-m.stream.Done():
			m.logger.Warn(ctx, "realtime connection lost, reconnecting")
			stopPresence()
			// Full teardown: subscriptions are re-created on the fresh
			// connection rather than replayed.
			m.dispatcher.Teardown()
		}
	}
}

// connect dials the stream with fibonacci backoff, capped at
// maxInterval. Session failures are permanent; everything else retries
// until ctx is cancelled.
func (m *Manager) connect(ctx context.Context) error {
	backoff := retry.WithCappedDuration(m.maxInterval, retry.NewFibonacci(reconnectBase))
	return retry.Do(ctx, backoff, func(ctx context.Context) error {
		err := m.stream.Connect(ctx)
		if err == nil {
			return nil
		}
		if errors.Is(err, common.ErrTokenExpired) || errors.Is(err, common.ErrNoSession) ||
			errors.Is(err, common.ErrorUnauthorized) {
			return err
		}
		m.logger.Warn(ctx, "connect failed, retrying", "error", err)
		return retry.RetryableError(err)
	})
}
