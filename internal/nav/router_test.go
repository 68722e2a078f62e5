package nav

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"
	"time"

	"streambot/internal/logging"
	"streambot/internal/services"
	"streambot/internal/transport"
	"streambot/internal/transport/memory"
)

func newRouterFixture(t *testing.T) (*Router, *Registry, *memory.Transport, string) {
	t.Helper()
	tr := memory.New("bot")
	msg, err := tr.Send(context.Background(), "c1", transport.EmbedContent(transport.Embed{Title: "view"}))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	reg := NewRegistry()
	return NewRouter(reg, tr, nil, logging.NewNop()), reg, tr, msg.ID
}

func TestRouterDropsSelfEvents(t *testing.T) {
	router, reg, tr, msgID := newRouterFixture(t)
	var calls atomic.Int32
	reg.Register(&Session{MessageID: msgID, ChannelID: "c1", Handler: handlerFunc(func(context.Context, transport.ReactionEvent) error {
		calls.Add(1)
		return nil
	})})

	err := router.HandleReaction(context.Background(), transport.ReactionEvent{MessageID: msgID, ChannelID: "c1", UserID: "bot", Emoji: EmojiNext})
	if err != nil || calls.Load() != 0 {
		t.Fatalf("self event should be dropped, err=%v calls=%d", err, calls.Load())
	}
	if removed := tr.Calls(memory.OpRemoveReaction); len(removed) != 0 {
		t.Fatal("self reactions must not be removed")
	}
}

func TestRouterDropsReactionsFromUsersOutsideAllowList(t *testing.T) {
	tr := memory.New("bot")
	msg, err := tr.Send(context.Background(), "c1", transport.EmbedContent(transport.Embed{Title: "view"}))
	if err != nil {
		t.Fatalf("Send: %v", err)
	}
	reg := NewRegistry()
	router := NewRouter(reg, tr, func(userID string) bool { return userID == "u1" }, logging.NewNop())
	var calls atomic.Int32
	reg.Register(&Session{MessageID: msg.ID, ChannelID: "c1", Handler: handlerFunc(func(context.Context, transport.ReactionEvent) error {
		calls.Add(1)
		return nil
	})})

	err = router.HandleReaction(context.Background(), transport.ReactionEvent{MessageID: msg.ID, ChannelID: "c1", UserID: "intruder", Emoji: EmojiPlay})
	if err != nil || calls.Load() != 0 {
		t.Fatalf("reaction from intruder should be dropped, err=%v calls=%d", err, calls.Load())
	}
	if removed := tr.Calls(memory.OpRemoveReaction); len(removed) != 0 {
		t.Fatal("dropped reactions are left in place")
	}

	if err := router.HandleReaction(context.Background(), transport.ReactionEvent{MessageID: msg.ID, ChannelID: "c1", UserID: "u1", Emoji: EmojiPlay}); err != nil {
		t.Fatalf("allowed user: %v", err)
	}
	if calls.Load() != 1 {
		t.Fatalf("allowed user should reach the handler, calls=%d", calls.Load())
	}
}

func TestRouterStaleSession(t *testing.T) {
	router, _, tr, msgID := newRouterFixture(t)
	err := router.HandleReaction(context.Background(), transport.ReactionEvent{MessageID: msgID, ChannelID: "c1", UserID: "u1", Emoji: EmojiNext})
	if !errors.Is(err, ErrStaleSession) {
		t.Fatalf("expected ErrStaleSession, got %v", err)
	}
	if removed := tr.Calls(memory.OpRemoveReaction); len(removed) != 0 {
		t.Fatal("stale events are discarded silently")
	}
}

func TestRouterRemovesReactionAndCarriesCorrelationID(t *testing.T) {
	router, reg, tr, msgID := newRouterFixture(t)
	var correlation string
	reg.Register(&Session{MessageID: msgID, ChannelID: "c1", Handler: handlerFunc(func(ctx context.Context, _ transport.ReactionEvent) error {
		correlation, _ = services.RequestIDFromContext(ctx)
		return nil
	})})

	if err := router.HandleReaction(context.Background(), transport.ReactionEvent{MessageID: msgID, ChannelID: "c1", UserID: "u1", Emoji: EmojiNext}); err != nil {
		t.Fatalf("HandleReaction: %v", err)
	}
	if correlation == "" {
		t.Fatal("expected a correlation id in the handler context")
	}
	removed := tr.Calls(memory.OpRemoveReaction)
	if len(removed) != 1 || removed[0].UserID != "u1" || removed[0].Emoji != EmojiNext {
		t.Fatalf("unexpected reaction cleanup %+v", removed)
	}
}

func TestRouterCleansUpAfterErrorAndPanic(t *testing.T) {
	router, reg, tr, msgID := newRouterFixture(t)
	boom := errors.New("boom")
	reg.Register(&Session{MessageID: msgID, ChannelID: "c1", Handler: handlerFunc(func(context.Context, transport.ReactionEvent) error {
		return boom
	})})
	if err := router.HandleReaction(context.Background(), transport.ReactionEvent{MessageID: msgID, ChannelID: "c1", UserID: "u1", Emoji: EmojiPlay}); !errors.Is(err, boom) {
		t.Fatalf("expected handler error, got %v", err)
	}

	reg.Register(&Session{MessageID: msgID, ChannelID: "c1", Handler: handlerFunc(func(context.Context, transport.ReactionEvent) error {
		panic("handler bug")
	})})
	if err := router.HandleReaction(context.Background(), transport.ReactionEvent{MessageID: msgID, ChannelID: "c1", UserID: "u1", Emoji: EmojiPlay}); err == nil {
		t.Fatal("expected panic to surface as an error")
	}
	if removed := tr.Calls(memory.OpRemoveReaction); len(removed) != 2 {
		t.Fatalf("expected cleanup after both events, got %d", len(removed))
	}

	if _, release, ok := reg.Acquire(msgID); !ok {
		t.Fatal("session lock must be released after a panic")
	} else {
		release()
	}
}

func TestRouterSwallowsCleanupFailure(t *testing.T) {
	router, reg, tr, msgID := newRouterFixture(t)
	reg.Register(&Session{MessageID: msgID, ChannelID: "c1", Handler: noopHandler()})
	tr.Fail(memory.OpRemoveReaction, errors.New("missing permissions"))
	if err := router.HandleReaction(context.Background(), transport.ReactionEvent{MessageID: msgID, ChannelID: "c1", UserID: "u1", Emoji: EmojiNext}); err != nil {
		t.Fatalf("cleanup failure must not surface, got %v", err)
	}
}

func TestRouterSerializesEventsPerSession(t *testing.T) {
	router, reg, _, msgID := newRouterFixture(t)
	entered := make(chan string, 2)
	unblock := make(chan struct{})
	var active, maxActive atomic.Int32
	reg.Register(&Session{MessageID: msgID, ChannelID: "c1", Handler: handlerFunc(func(_ context.Context, ev transport.ReactionEvent) error {
		n := active.Add(1)
		if n > maxActive.Load() {
			maxActive.Store(n)
		}
		entered <- ev.Emoji
		if ev.Emoji == EmojiPlay {
			<-unblock
		}
		active.Add(-1)
		return nil
	})})

	done := make(chan struct{}, 2)
	go func() {
		router.HandleReaction(context.Background(), transport.ReactionEvent{MessageID: msgID, ChannelID: "c1", UserID: "u1", Emoji: EmojiPlay})
		done <- struct{}{}
	}()
	if first := <-entered; first != EmojiPlay {
		t.Fatalf("unexpected first event %q", first)
	}
	go func() {
		router.HandleReaction(context.Background(), transport.ReactionEvent{MessageID: msgID, ChannelID: "c1", UserID: "u2", Emoji: EmojiNext})
		done <- struct{}{}
	}()

	select {
	case ev := <-entered:
		t.Fatalf("second event %q ran while the first was in progress", ev)
	case <-time.After(50 * time.Millisecond):
	}
	close(unblock)
	if second := <-entered; second != EmojiNext {
		t.Fatalf("unexpected second event %q", second)
	}
	<-done
	<-done
	if maxActive.Load() != 1 {
		t.Fatalf("handlers overlapped: max concurrency %d", maxActive.Load())
	}
}
