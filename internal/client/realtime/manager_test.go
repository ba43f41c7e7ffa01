package realtime

import (
	"context"
	"database/sql"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/echochat/internal/client/repositories/messages"
	"github.com/dmitrijs2005/echochat/internal/client/session"
	"github.com/dmitrijs2005/echochat/internal/client/state"
	"github.com/dmitrijs2005/echochat/internal/common"
)

// managerStream hands out a fresh done channel on every Connect, the way
// a real connection does.
type managerStream struct {
	*fakeStream

	cmu      sync.Mutex
	connects int
}

func newManagerStream() *managerStream {
	return &managerStream{fakeStream: newFakeStream()}
}

func (m *managerStream) Connect(context.Context) error {
	m.cmu.Lock()
	m.connects++
	m.cmu.Unlock()

	m.fakeStream.mu.Lock()
	m.fakeStream.done = make(chan struct{})
	m.fakeStream.mu.Unlock()
	return nil
}

func (m *managerStream) Done() <-chan struct{} {
	m.fakeStream.mu.Lock()
	defer m.fakeStream.mu.Unlock()
	return m.fakeStream.done
}

func (m *managerStream) drop() {
	m.fakeStream.mu.Lock()
	close(m.fakeStream.done)
	m.fakeStream.mu.Unlock()
}

func (m *managerStream) connectCount() int {
	m.cmu.Lock()
	defer m.cmu.Unlock()
	return m.connects
}

type failingSessions struct {
	err error
}

func (f failingSessions) Current() (*session.Session, error) { return nil, f.err }

func newManagerFixture(t *testing.T, db *sql.DB, stream *managerStream, sessions session.Provider) *Manager {
	t.Helper()
	st := state.NewStore()
	repo := messages.NewSQLiteRepository(db)
	store := &fakeRemoteStore{}
	logger := testLogger()
	d := NewDispatcher(st, repo, store, stream, sessions, logger)
	t.Cleanup(d.Teardown)
	p := NewPresence(st, stream, logger)
	r := NewReconciler(st, store, d, logger)
	return NewManager(stream, d, p, r, sessions, logger, time.Second)
}

func TestRun_ReconnectsAfterDrop(t *testing.T) {
	stream := newManagerStream()
	m := newManagerFixture(t, setupDB(t), stream, selfSessions())

	ctx, cancel := context.WithCancel(context.Background())
	errCh := make(chan error, 1)
	go func() { errCh <- m.Run(ctx) }()

	require.Eventually(t, func() bool { return stream.connectCount() == 1 }, 2*time.Second, 10*time.Millisecond)

	stream.drop()
	require.Eventually(t, func() bool { return stream.connectCount() == 2 }, 2*time.Second, 10*time.Millisecond)

	// The dispatcher re-subscribed on the fresh connection.
	require.Eventually(t, func() bool {
		stream.fakeStream.mu.Lock()
		defer stream.fakeStream.mu.Unlock()
		return len(stream.msgHandlers) == 1
	}, 2*time.Second, 10*time.Millisecond)

	cancel()
	select {
	case err := <-errCh:
		require.ErrorIs(t, err, context.Canceled)
	case <-time.After(2 * time.Second):
		t.Fatal("manager did not stop on context cancel")
	}
}

func TestRun_ExpiredSessionIsFatal(t *testing.T) {
	stream := newManagerStream()
	m := newManagerFixture(t, setupDB(t), stream, failingSessions{err: common.ErrTokenExpired})

	err := m.Run(context.Background())
	require.ErrorIs(t, err, common.ErrTokenExpired)
	require.Zero(t, stream.connectCount())
}

func TestRun_PresenceTracked(t *testing.T) {
	stream := newManagerStream()
	m := newManagerFixture(t, setupDB(t), stream, selfSessions())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go func() { _ = m.Run(ctx) }()

	require.Eventually(t, func() bool {
		stream.fakeStream.mu.Lock()
		defer stream.fakeStream.mu.Unlock()
		return len(stream.tracked) == 1 && stream.tracked[0] == "online_users/me"
	}, 2*time.Second, 10*time.Millisecond)
}
