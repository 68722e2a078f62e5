package nav

import (
	"context"
	"sync/atomic"
	"testing"
	"time"

	"streambot/internal/transport"
)

type handlerFunc func(ctx context.Context, event transport.ReactionEvent) error

func (f handlerFunc) Handle(ctx context.Context, event transport.ReactionEvent) error {
	return f(ctx, event)
}

func noopHandler() Handler {
	return handlerFunc(func(context.Context, transport.ReactionEvent) error { return nil })
}

func TestRegistryLifecycleIsIdempotent(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Session{MessageID: "m1", ChannelID: "c1", Handler: noopHandler()})
	reg.Register(&Session{MessageID: "m1", ChannelID: "c1", Handler: noopHandler()})
	if reg.Len() != 1 {
		t.Fatalf("expected one session, got %d", reg.Len())
	}
	session, ok := reg.Lookup("m1")
	if !ok || session.ChannelID != "c1" || session.CreatedAt.IsZero() {
		t.Fatalf("unexpected lookup result %+v %v", session, ok)
	}
	reg.Unregister("m1")
	reg.Unregister("m1")
	if _, ok := reg.Lookup("m1"); ok {
		t.Fatal("session should be gone")
	}
	if reg.Len() != 0 {
		t.Fatalf("expected empty registry, got %d", reg.Len())
	}
	reg.Register(nil)
	reg.Register(&Session{})
	if reg.Len() != 0 {
		t.Fatal("invalid sessions must not be registered")
	}
}

func TestAcquireSerializesPerSession(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Session{MessageID: "m1", Handler: noopHandler()})
	reg.Register(&Session{MessageID: "m2", Handler: noopHandler()})

	_, release, ok := reg.Acquire("m1")
	if !ok {
		t.Fatal("expected to acquire m1")
	}

	var second atomic.Bool
	done := make(chan struct{})
	go func() {
		_, rel, ok := reg.Acquire("m1")
		if ok {
			second.Store(true)
			rel()
		}
		close(done)
	}()

	if _, rel, ok := reg.Acquire("m2"); !ok {
		t.Fatal("other sessions must not be blocked")
	} else {
		rel()
	}

	time.Sleep(30 * time.Millisecond)
	if second.Load() {
		t.Fatal("second acquire of m1 should wait for the first release")
	}
	release()
	<-done
	if !second.Load() {
		t.Fatal("second acquire should succeed after release")
	}
}

func TestAcquireQueuedBehindCloseIsStale(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Session{MessageID: "m1", Handler: noopHandler()})

	_, release, ok := reg.Acquire("m1")
	if !ok {
		t.Fatal("expected to acquire m1")
	}
	result := make(chan bool, 1)
	go func() {
		_, rel, ok := reg.Acquire("m1")
		if ok {
			rel()
		}
		result <- ok
	}()
	time.Sleep(20 * time.Millisecond)
	reg.Unregister("m1")
	release()

	if <-result {
		t.Fatal("event queued behind a close must see a stale session")
	}
}

func TestAcquireQueuedBehindReplaceIsStale(t *testing.T) {
	reg := NewRegistry()
	reg.Register(&Session{MessageID: "m1", Handler: noopHandler()})
	_, release, _ := reg.Acquire("m1")

	result := make(chan bool, 1)
	go func() {
		_, rel, ok := reg.Acquire("m1")
		if ok {
			rel()
		}
		result <- ok
	}()
	time.Sleep(20 * time.Millisecond)
	reg.Register(&Session{MessageID: "m1", Handler: noopHandler()})
	release()

	if <-result {
		t.Fatal("event queued behind a replacement must see a stale session")
	}
	if _, rel, ok := reg.Acquire("m1"); !ok {
		t.Fatal("replacement session should be acquirable")
	} else {
		rel()
	}
}

func TestSnapshotOrdersByCreation(t *testing.T) {
	reg := NewRegistry()
	base := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	reg.Register(&Session{MessageID: "b", ChannelID: "c", Handler: &categoryList{}, CreatedAt: base.Add(time.Minute)})
	reg.Register(&Session{MessageID: "a", ChannelID: "c", Handler: &searchResults{}, CreatedAt: base})

	snap := reg.Snapshot()
	if len(snap) != 2 || snap[0].MessageID != "a" || snap[1].MessageID != "b" {
		t.Fatalf("unexpected snapshot %+v", snap)
	}
	if snap[0].View != "search" || snap[1].View != "categories" {
		t.Fatalf("unexpected view names %+v", snap)
	}
}
