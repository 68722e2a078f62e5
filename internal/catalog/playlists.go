package catalog

import (
	"context"
	"errors"
	"fmt"
	"strings"
)

// CreatePlaylist stores a new empty playlist and returns it.
func (s *Store) CreatePlaylist(ctx context.Context, name, createdBy string) (*Playlist, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, errors.New("playlist name is required")
	}
	created := nowText()
	res, err := s.execWithRetry(ctx,
		"INSERT INTO playlists (name, created_by, created_at) VALUES (?, ?, ?)",
		name, createdBy, created,
	)
	if err != nil {
		return nil, fmt.Errorf("create playlist: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return nil, fmt.Errorf("last insert id: %w", err)
	}
	playlist := &Playlist{ID: id, Name: name, CreatedBy: createdBy}
	playlist.CreatedAt = parseTimeString(created)
	return playlist, nil
}

// AddToPlaylist places a video at a position, replacing whatever was there.
func (s *Store) AddToPlaylist(ctx context.Context, playlistID, videoID int64, position int) error {
	if position < 0 {
		return fmt.Errorf("playlist position %d is negative", position)
	}
	if _, err := s.execWithRetry(ctx,
		"INSERT OR REPLACE INTO playlist_videos (playlist_id, video_id, position) VALUES (?, ?, ?)",
		playlistID, videoID, position,
	); err != nil {
		return fmt.Errorf("add to playlist: %w", err)
	}
	return nil
}

// PlaylistVideos lists a playlist's videos in position order.
func (s *Store) PlaylistVideos(ctx context.Context, playlistID int64) ([]Video, error) {
	query := `SELECT ` + videoColumns + videoFrom + `
        JOIN playlist_videos pv ON pv.video_id = v.id
        WHERE pv.playlist_id = ? ORDER BY pv.position`
	rows, err := s.db.QueryContext(ensureContext(ctx), query, playlistID)
	if err != nil {
		return nil, fmt.Errorf("playlist videos: %w", err)
	}
	defer rows.Close()

	var videos []Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("playlist videos: scan: %w", err)
		}
		videos = append(videos, *video)
	}
	return videos, rows.Err()
}
