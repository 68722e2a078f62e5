package bot

import (
	"context"
	"log/slog"
	"strings"

	"streambot/internal/catalog"
	"streambot/internal/config"
	"streambot/internal/logging"
)

// channelNamer resolves channel display names and their guild.
type channelNamer interface {
	ChannelName(ctx context.Context, channelID string) (name, guildID string, err error)
}

// registerConfiguredChannels records the command and voice channels from the
// config in the catalog and maps them to each other. Failures are logged;
// the bot still runs with whatever was registered earlier.
func registerConfiguredChannels(ctx context.Context, cfg *config.Config, store *catalog.Store, namer channelNamer, logger *slog.Logger) {
	commandID := strings.TrimSpace(cfg.Discord.CommandChannelID)
	voiceID := strings.TrimSpace(cfg.Discord.VoiceChannelID)
	if commandID == "" && voiceID == "" {
		return
	}

	resolve := func(id, fallback string) (string, string) {
		guild := strings.TrimSpace(cfg.Discord.GuildID)
		if namer == nil {
			return fallback, guild
		}
		name, channelGuild, err := namer.ChannelName(ctx, id)
		if err != nil {
			logger.Debug("channel name lookup failed", logging.String(logging.FieldChannelID, id), logging.Error(err))
			return fallback, guild
		}
		if channelGuild != "" {
			guild = channelGuild
		}
		if name == "" {
			name = fallback
		}
		return name, guild
	}
	warn := func(msg string, id string, err error) {
		logging.WarnWithContext(logger, msg, "channel_registration_failed",
			logging.String(logging.FieldChannelID, id),
			logging.String(logging.FieldImpact, "configured channel not recorded in catalog"),
			logging.String(logging.FieldErrorHint, "set discord.guild_id or register the channel with add_channel"),
			logging.Error(err),
		)
	}

	registered := 0
	if commandID != "" {
		name, guild := resolve(commandID, "Command Channel")
		if err := store.AddCommandChannel(ctx, commandID, guild, name); err != nil {
			warn("register command channel failed", commandID, err)
		} else {
			registered++
		}
	}
	if voiceID != "" {
		name, guild := resolve(voiceID, "Voice Channel")
		if err := store.AddVoiceChannel(ctx, voiceID, guild, name); err != nil {
			warn("register voice channel failed", voiceID, err)
		} else {
			registered++
		}
	}
	if registered == 2 {
		if err := store.MapChannels(ctx, commandID, voiceID); err != nil {
			warn("map configured channels failed", commandID, err)
		}
	}
}
