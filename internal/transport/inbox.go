package transport

import (
	"context"
	"sync"
)

type delivery struct {
	ctx      context.Context
	msg      Message
	handlers []MessageHandler
}

// Inbox delivers messages to their handlers one at a time, in the order they
// were pushed. Push never blocks, so it is safe to call from a handler or
// from the gateway event loop.
type Inbox struct {
	mu      sync.Mutex
	queue   []delivery
	running bool
	idle    *sync.Cond
}

// Push queues msg for handlers.
func (b *Inbox) Push(ctx context.Context, msg Message, handlers []MessageHandler) {
	if len(handlers) == 0 {
		return
	}
	b.mu.Lock()
	b.queue = append(b.queue, delivery{ctx: ctx, msg: msg, handlers: handlers})
	if b.running {
		b.mu.Unlock()
		return
	}
	b.running = true
	b.mu.Unlock()
	go b.drain()
}

// Wait blocks until every queued message has been handled.
func (b *Inbox) Wait() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for b.running {
		b.cond().Wait()
	}
}

func (b *Inbox) drain() {
	for {
		b.mu.Lock()
		if len(b.queue) == 0 {
			b.running = false
			b.cond().Broadcast()
			b.mu.Unlock()
			return
		}
		next := b.queue[0]
		b.queue[0] = delivery{}
		b.queue = b.queue[1:]
		b.mu.Unlock()

		for _, handler := range next.handlers {
			handler(next.ctx, next.msg)
		}
	}
}

// cond must be called with mu held.
func (b *Inbox) cond() *sync.Cond {
	if b.idle == nil {
		b.idle = sync.NewCond(&b.mu)
	}
	return b.idle
}
