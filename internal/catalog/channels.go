package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
)

// AddGuild records a guild. Existing guilds keep their stored name.
func (s *Store) AddGuild(ctx context.Context, guildID, name string) error {
	if strings.TrimSpace(guildID) == "" {
		return errors.New("guild id is required")
	}
	if _, err := s.execWithRetry(ctx, "INSERT OR IGNORE INTO guilds (guild_id, name) VALUES (?, ?)", guildID, name); err != nil {
		return fmt.Errorf("add guild: %w", err)
	}
	return nil
}

// AddCommandChannel registers a channel the bot accepts commands from.
func (s *Store) AddCommandChannel(ctx context.Context, channelID, guildID, name string) error {
	if err := s.AddGuild(ctx, guildID, guildID); err != nil {
		return err
	}
	if _, err := s.execWithRetry(ctx,
		"INSERT OR IGNORE INTO command_channels (channel_id, guild_id, name) VALUES (?, ?, ?)",
		channelID, guildID, name,
	); err != nil {
		return fmt.Errorf("add command channel: %w", err)
	}
	return nil
}

// AddVoiceChannel registers a voice channel the bot may stream to.
func (s *Store) AddVoiceChannel(ctx context.Context, channelID, guildID, name string) error {
	if err := s.AddGuild(ctx, guildID, guildID); err != nil {
		return err
	}
	if _, err := s.execWithRetry(ctx,
		"INSERT OR IGNORE INTO voice_channels (channel_id, guild_id, name) VALUES (?, ?, ?)",
		channelID, guildID, name,
	); err != nil {
		return fmt.Errorf("add voice channel: %w", err)
	}
	return nil
}

// MapChannels points a command channel at a voice channel, replacing any
// previous mapping. Both channels must already be registered.
func (s *Store) MapChannels(ctx context.Context, commandChannelID, voiceChannelID string) error {
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO channel_mappings (command_channel_id, voice_channel_id) VALUES (?, ?)
         ON CONFLICT(command_channel_id) DO UPDATE SET voice_channel_id = excluded.voice_channel_id`,
		commandChannelID, voiceChannelID,
	); err != nil {
		return fmt.Errorf("map channels: %w", err)
	}
	return nil
}

// IsCommandChannel reports whether the channel is registered for commands.
func (s *Store) IsCommandChannel(ctx context.Context, channelID string) (bool, error) {
	var count int
	if err := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT COUNT(1) FROM command_channels WHERE channel_id = ?", channelID,
	).Scan(&count); err != nil {
		return false, fmt.Errorf("check command channel: %w", err)
	}
	return count > 0, nil
}

// CommandChannelCount returns how many command channels are registered.
func (s *Store) CommandChannelCount(ctx context.Context) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ensureContext(ctx), "SELECT COUNT(1) FROM command_channels").Scan(&count); err != nil {
		return 0, fmt.Errorf("count command channels: %w", err)
	}
	return count, nil
}

// VoiceChannelFor returns the voice channel mapped to a command channel, or
// an empty string when none is mapped.
func (s *Store) VoiceChannelFor(ctx context.Context, commandChannelID string) (string, error) {
	var voice string
	err := s.db.QueryRowContext(ensureContext(ctx),
		"SELECT voice_channel_id FROM channel_mappings WHERE command_channel_id = ?", commandChannelID,
	).Scan(&voice)
	if errors.Is(err, sql.ErrNoRows) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("voice channel lookup: %w", err)
	}
	return voice, nil
}

// ChannelMappings lists all command to voice channel mappings.
func (s *Store) ChannelMappings(ctx context.Context) ([]ChannelMapping, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT cc.guild_id, cm.command_channel_id, cc.name, cm.voice_channel_id, vc.name
         FROM channel_mappings cm
         JOIN command_channels cc ON cm.command_channel_id = cc.channel_id
         JOIN voice_channels vc ON cm.voice_channel_id = vc.channel_id
         ORDER BY cc.name`)
	if err != nil {
		return nil, fmt.Errorf("list channel mappings: %w", err)
	}
	defer rows.Close()

	var mappings []ChannelMapping
	for rows.Next() {
		var m ChannelMapping
		if err := rows.Scan(&m.GuildID, &m.CommandChannelID, &m.CommandName, &m.VoiceChannelID, &m.VoiceName); err != nil {
			return nil, fmt.Errorf("scan channel mapping: %w", err)
		}
		mappings = append(mappings, m)
	}
	return mappings, rows.Err()
}
