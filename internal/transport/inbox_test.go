package transport

import (
	"context"
	"strconv"
	"sync"
	"testing"
	"time"
)

func TestInboxDeliversInPushOrder(t *testing.T) {
	var (
		inbox Inbox
		mu    sync.Mutex
		seen  []string
	)
	handler := func(_ context.Context, msg Message) {
		// Earlier messages take longer so a concurrent delivery would reorder them.
		n, _ := strconv.Atoi(msg.ID)
		time.Sleep(time.Duration(10-n) * time.Millisecond)
		mu.Lock()
		seen = append(seen, msg.ID)
		mu.Unlock()
	}
	for i := 0; i < 10; i++ {
		inbox.Push(context.Background(), Message{ID: strconv.Itoa(i)}, []MessageHandler{handler})
	}
	inbox.Wait()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != 10 {
		t.Fatalf("expected 10 deliveries, got %v", seen)
	}
	for i, id := range seen {
		if id != strconv.Itoa(i) {
			t.Fatalf("delivery %d was %s: %v", i, id, seen)
		}
	}
}

func TestInboxPushFromHandler(t *testing.T) {
	var inbox Inbox
	done := make(chan string, 2)
	var handler MessageHandler
	handler = func(ctx context.Context, msg Message) {
		done <- msg.ID
		if msg.ID == "first" {
			inbox.Push(ctx, Message{ID: "reply"}, []MessageHandler{handler})
		}
	}
	inbox.Push(context.Background(), Message{ID: "first"}, []MessageHandler{handler})

	for _, want := range []string{"first", "reply"} {
		select {
		case got := <-done:
			if got != want {
				t.Fatalf("got %s, want %s", got, want)
			}
		case <-time.After(time.Second):
			t.Fatalf("%s was never delivered", want)
		}
	}
}
