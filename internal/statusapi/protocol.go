package statusapi

import (
	"time"

	"streambot/internal/catalog"
	"streambot/internal/nav"
	"streambot/internal/playback"
	"streambot/internal/sysinfo"
)

// MessageType tags websocket messages.
type MessageType string

const (
	MsgSnapshot MessageType = "snapshot"
	MsgPlayback MessageType = "playback"
)

// WSMessage is the envelope for every websocket frame.
type WSMessage struct {
	Type    MessageType `json:"type"`
	Payload any         `json:"payload"`
}

// Status is the document served at /api/status and sent as the websocket
// snapshot.
type Status struct {
	StartedAt time.Time         `json:"started_at"`
	Uptime    string            `json:"uptime"`
	Sessions  []nav.SessionInfo `json:"sessions"`
	Player    playback.Status   `json:"player"`
	Process   *sysinfo.Process  `json:"process,omitempty"`
	Catalog   *catalog.Stats    `json:"catalog,omitempty"`
	Errors    map[string]string `json:"errors,omitempty"`
}
