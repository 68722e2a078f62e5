package nav

import (
	"context"
	"sort"
	"sync"
	"time"

	"streambot/internal/transport"
)

// Handler reacts to events on one navigational message.
type Handler interface {
	Handle(ctx context.Context, event transport.ReactionEvent) error
}

// Session binds a live navigational message to its handler.
type Session struct {
	MessageID string
	ChannelID string
	Handler   Handler
	CreatedAt time.Time
}

// SessionInfo is a read-only description of a registered session.
type SessionInfo struct {
	MessageID string    `json:"message_id"`
	ChannelID string    `json:"channel_id"`
	View      string    `json:"view"`
	CreatedAt time.Time `json:"created_at"`
}

type viewNamer interface {
	ViewName() string
}

type entry struct {
	mu      sync.Mutex
	session *Session
}

// Registry maps message ids to sessions. Each entry carries its own mutex so
// events for one message are handled one at a time while other messages
// proceed concurrently.
type Registry struct {
	mu      sync.RWMutex
	entries map[string]*entry
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]*entry)}
}

// Register stores session under its message id, replacing any previous entry.
func (r *Registry) Register(session *Session) {
	if session == nil || session.MessageID == "" {
		return
	}
	if session.CreatedAt.IsZero() {
		session.CreatedAt = time.Now()
	}
	r.mu.Lock()
	defer r.mu.Unlock()
	r.entries[session.MessageID] = &entry{session: session}
}

// Lookup returns the session for messageID without locking it.
func (r *Registry) Lookup(messageID string) (*Session, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.entries[messageID]
	if !ok {
		return nil, false
	}
	return e.session, true
}

// Unregister drops the session for messageID. Unknown ids are ignored.
func (r *Registry) Unregister(messageID string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.entries, messageID)
}

// Acquire locks the session for messageID and returns it with the matching
// unlock function. It reports false when the id is not registered, including
// when the session was unregistered or replaced while the caller was queued.
func (r *Registry) Acquire(messageID string) (*Session, func(), bool) {
	r.mu.RLock()
	e, ok := r.entries[messageID]
	r.mu.RUnlock()
	if !ok {
		return nil, nil, false
	}

	e.mu.Lock()
	r.mu.RLock()
	current := r.entries[messageID]
	r.mu.RUnlock()
	if current != e {
		e.mu.Unlock()
		return nil, nil, false
	}
	return e.session, e.mu.Unlock, true
}

// Len returns the number of live sessions.
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.entries)
}

// Snapshot lists live sessions, oldest first.
func (r *Registry) Snapshot() []SessionInfo {
	r.mu.RLock()
	out := make([]SessionInfo, 0, len(r.entries))
	for _, e := range r.entries {
		info := SessionInfo{
			MessageID: e.session.MessageID,
			ChannelID: e.session.ChannelID,
			CreatedAt: e.session.CreatedAt,
		}
		if named, ok := e.session.Handler.(viewNamer); ok {
			info.View = named.ViewName()
		}
		out = append(out, info)
	}
	r.mu.RUnlock()

	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].MessageID < out[j].MessageID
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out
}
