package catalog

import (
	"fmt"
	"time"
)

// Category groups videos that live in the same top-level folder.
type Category struct {
	ID         int64
	Name       string
	FolderPath string
	VideoCount int
}

// Video is a playable file known to the catalog. SeriesName is empty for
// standalone videos; Season and Episode are zero when unknown.
type Video struct {
	ID           int64
	Title        string
	FilePath     string
	CategoryID   int64
	CategoryName string
	SeriesName   string
	Season       int
	Episode      int
	Description  string
	Duration     time.Duration
	Width        int
	Height       int
	Codec        string
	AddedAt      time.Time
	LastPlayed   time.Time
}

// IsEpisode reports whether the video belongs to a series.
func (v Video) IsEpisode() bool {
	return v.SeriesName != ""
}

// EpisodeLabel renders the SxxEyy marker, or an empty string for non-episodes.
func (v Video) EpisodeLabel() string {
	if !v.IsEpisode() || (v.Season == 0 && v.Episode == 0) {
		return ""
	}
	return fmt.Sprintf("S%02dE%02d", v.Season, v.Episode)
}

// Resolution renders WxH, or an empty string when unknown.
func (v Video) Resolution() string {
	if v.Width <= 0 || v.Height <= 0 {
		return ""
	}
	return fmt.Sprintf("%dx%d", v.Width, v.Height)
}

// VideoInput carries the fields the library scanner records for a file.
type VideoInput struct {
	Title       string
	FilePath    string
	CategoryID  int64
	SeriesName  string
	Season      int
	Episode     int
	Description string
	Duration    time.Duration
	Width       int
	Height      int
	Codec       string
}

// ChannelMapping pairs a command channel with the voice channel it streams to.
type ChannelMapping struct {
	GuildID          string
	CommandChannelID string
	CommandName      string
	VoiceChannelID   string
	VoiceName        string
}

// Playlist is a named, ordered list of videos.
type Playlist struct {
	ID        int64
	Name      string
	CreatedBy string
	CreatedAt time.Time
}

// Stats summarizes catalog contents for status output.
type Stats struct {
	Categories int
	Videos     int
	Series     int
	Playlists  int
}
