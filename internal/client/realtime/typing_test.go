package realtime

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/dmitrijs2005/echochat/internal/client/remote"
)

func typingSignals(f *fakeStream) []remote.TypingSignal {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []remote.TypingSignal
	for _, b := range f.broadcasts {
		if b.event == remote.EventTyping {
			out = append(out, b.payload.(remote.TypingSignal))
		}
	}
	return out
}

func TestInputActivity_AnnouncesEveryKeystroke(t *testing.T) {
	stream := newFakeStream()
	tb := NewTypingBroadcaster(stream, "me", testLogger())
	ctx := context.Background()

	// A long burst keeps re-announcing so the peer's expiry is refreshed
	// for as long as the typing lasts.
	tb.InputActivity(ctx, "u2")
	tb.InputActivity(ctx, "u2")
	tb.InputActivity(ctx, "u2")

	sigs := typingSignals(stream)
	require.Len(t, sigs, 3)
	for _, sig := range sigs {
		require.Equal(t, remote.TypingSignal{UserID: "me", Typing: true}, sig)
	}

	stream.mu.Lock()
	topic := stream.broadcasts[0].topic
	stream.mu.Unlock()
	require.Equal(t, remote.TypingTopic("me_u2"), topic)
}

func TestInputActivity_DebouncedStop(t *testing.T) {
	stream := newFakeStream()
	tb := NewTypingBroadcaster(stream, "me", testLogger())
	tb.InputActivity(context.Background(), "u2")

	require.Eventually(t, func() bool {
		sigs := typingSignals(stream)
		return len(sigs) == 2 && !sigs[1].Typing
	}, 2*typingDebounce, 20*time.Millisecond)
}

func TestStop_ImmediateOnSend(t *testing.T) {
	stream := newFakeStream()
	tb := NewTypingBroadcaster(stream, "me", testLogger())
	ctx := context.Background()

	tb.InputActivity(ctx, "u2")
	tb.Stop(ctx, "u2")

	sigs := typingSignals(stream)
	require.Len(t, sigs, 2)
	require.False(t, sigs[1].Typing)

	// Nothing fires later from the cancelled timer.
	time.Sleep(50 * time.Millisecond)
	require.Len(t, typingSignals(stream), 2)
}

func TestStop_WithoutActivityIsNoop(t *testing.T) {
	stream := newFakeStream()
	tb := NewTypingBroadcaster(stream, "me", testLogger())

	tb.Stop(context.Background(), "u2")
	require.Empty(t, typingSignals(stream))
}
