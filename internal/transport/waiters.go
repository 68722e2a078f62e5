package transport

import (
	"context"
	"sync"
	"time"
)

type waiter struct {
	id    uint64
	match func(Message) bool
	ch    chan Message
}

// Waiters correlates inbound messages with callers blocked in Wait. Each
// inbound message satisfies at most one waiter, oldest first.
type Waiters struct {
	mu      sync.Mutex
	next    uint64
	pending []*waiter
}

// Wait blocks until Dispatch delivers a message accepted by match, the
// timeout elapses, or ctx is cancelled.
func (w *Waiters) Wait(ctx context.Context, match func(Message) bool, timeout time.Duration) (Message, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	entry := w.add(match)
	defer w.remove(entry.id)

	timer := time.NewTimer(timeout)
	defer timer.Stop()

	var err error
	select {
	case msg := <-entry.ch:
		return msg, nil
	case <-timer.C:
		err = ErrWaitTimeout
	case <-ctx.Done():
		err = ctx.Err()
	}
	// Dispatch may have claimed this waiter just as the wait ended.
	w.remove(entry.id)
	select {
	case msg := <-entry.ch:
		return msg, nil
	default:
		return Message{}, err
	}
}

// Dispatch offers msg to pending waiters and reports whether one accepted it.
func (w *Waiters) Dispatch(msg Message) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, entry := range w.pending {
		if entry.match != nil && !entry.match(msg) {
			continue
		}
		w.pending = append(w.pending[:i], w.pending[i+1:]...)
		entry.ch <- msg
		return true
	}
	return false
}

// Len returns the number of callers currently waiting.
func (w *Waiters) Len() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return len(w.pending)
}

func (w *Waiters) add(match func(Message) bool) *waiter {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.next++
	entry := &waiter{id: w.next, match: match, ch: make(chan Message, 1)}
	w.pending = append(w.pending, entry)
	return entry
}

func (w *Waiters) remove(id uint64) {
	w.mu.Lock()
	defer w.mu.Unlock()
	for i, entry := range w.pending {
		if entry.id == id {
			w.pending = append(w.pending[:i], w.pending[i+1:]...)
			return
		}
	}
}
