package playback

import "time"

// EventType names a player state change.
type EventType string

const (
	EventStarted  EventType = "started"
	EventFinished EventType = "finished"
	EventFailed   EventType = "failed"
	EventStopped  EventType = "stopped"
	EventPaused   EventType = "paused"
	EventResumed  EventType = "resumed"
	EventSkipped  EventType = "skipped"
)

// Event describes a change in playback state.
type Event struct {
	Type  EventType `json:"type"`
	Path  string    `json:"path,omitempty"`
	Index int       `json:"index"`
	Total int       `json:"total"`
	Error string    `json:"error,omitempty"`
	At    time.Time `json:"at"`
}

// Listener receives player events. Listeners run synchronously and must not
// call back into the Player.
type Listener func(Event)
