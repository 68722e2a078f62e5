package statusapi

import (
	"context"
	"encoding/json"
	"log/slog"
	"sync"
	"time"

	"github.com/gorilla/websocket"

	"streambot/internal/logging"
	"streambot/internal/playback"
)

const (
	clientBuffer = 64
	writeTimeout = 10 * time.Second
)

type client struct {
	conn *websocket.Conn
	send chan []byte
}

func newClient(conn *websocket.Conn) *client {
	c := &client{conn: conn, send: make(chan []byte, clientBuffer)}
	go c.writePump()
	return c
}

func (c *client) writePump() {
	defer c.conn.Close()
	for msg := range c.send {
		_ = c.conn.SetWriteDeadline(time.Now().Add(writeTimeout))
		if err := c.conn.WriteMessage(websocket.TextMessage, msg); err != nil {
			return
		}
	}
}

// Broadcaster fans status messages out to websocket clients. Slow clients
// are disconnected rather than allowed to block publishers.
type Broadcaster struct {
	mu       sync.RWMutex
	clients  map[*client]bool
	snapshot func(ctx context.Context) Status
	logger   *slog.Logger
}

// NewBroadcaster builds a broadcaster. snapshot produces the document sent to
// each new client.
func NewBroadcaster(snapshot func(ctx context.Context) Status, logger *slog.Logger) *Broadcaster {
	return &Broadcaster{
		clients:  make(map[*client]bool),
		snapshot: snapshot,
		logger:   logger,
	}
}

// AddClient registers conn and queues the current snapshot for it.
func (b *Broadcaster) AddClient(ctx context.Context, conn *websocket.Conn) *client {
	var data []byte
	if b.snapshot != nil {
		var err error
		data, err = json.Marshal(WSMessage{Type: MsgSnapshot, Payload: b.snapshot(ctx)})
		if err != nil {
			b.logger.Warn("snapshot marshal failed", logging.Error(err))
			data = nil
		}
	}

	c := newClient(conn)
	b.mu.Lock()
	defer b.mu.Unlock()
	b.clients[c] = true
	if data != nil {
		select {
		case c.send <- data:
		default:
		}
	}
	return c
}

// RemoveClient drops c and closes its connection.
func (b *Broadcaster) RemoveClient(c *client) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if _, ok := b.clients[c]; ok {
		delete(b.clients, c)
		close(c.send)
	}
}

// ClientCount returns the number of connected clients.
func (b *Broadcaster) ClientCount() int {
	b.mu.RLock()
	defer b.mu.RUnlock()
	return len(b.clients)
}

// PlaybackListener forwards player events to every client. It never blocks.
func (b *Broadcaster) PlaybackListener() playback.Listener {
	return func(ev playback.Event) {
		b.broadcast(WSMessage{Type: MsgPlayback, Payload: ev})
	}
}

// Close disconnects every client.
func (b *Broadcaster) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	for c := range b.clients {
		delete(b.clients, c)
		close(c.send)
	}
}

func (b *Broadcaster) broadcast(msg WSMessage) {
	data, err := json.Marshal(msg)
	if err != nil {
		b.logger.Warn("broadcast marshal failed", logging.Error(err))
		return
	}

	// Sends happen under the read lock so no client channel is closed
	// mid-send.
	var slow []*client
	b.mu.RLock()
	for c := range b.clients {
		select {
		case c.send <- data:
		default:
			slow = append(slow, c)
		}
	}
	b.mu.RUnlock()

	for _, c := range slow {
		b.logger.Debug("websocket client too slow, disconnecting")
		b.RemoveClient(c)
	}
}
