package commands

import (
	"context"
	"fmt"
	"strings"

	"streambot/internal/services"
)

func cmdChannel(ctx context.Context, d *Dispatcher, req request) error {
	if req.args == "" {
		return d.showMappings(ctx, req.msg.ChannelID)
	}
	voiceID := strings.TrimSpace(req.args)
	if !isSnowflake(voiceID) {
		return d.reply(ctx, req.msg.ChannelID, "Please specify a valid voice channel ID")
	}
	guildID, err := d.guildFor(req)
	if err != nil {
		return err
	}
	if err := d.store.AddVoiceChannel(ctx, voiceID, guildID, "Voice Channel"); err != nil {
		return services.Wrap(services.ErrCatalog, "commands", "channel", "register voice channel", err)
	}
	if err := d.store.AddCommandChannel(ctx, req.msg.ChannelID, guildID, "Command Channel"); err != nil {
		return services.Wrap(services.ErrCatalog, "commands", "channel", "register command channel", err)
	}
	if err := d.store.MapChannels(ctx, req.msg.ChannelID, voiceID); err != nil {
		return services.Wrap(services.ErrCatalog, "commands", "channel", "map channels", err)
	}
	return d.reply(ctx, req.msg.ChannelID, "Set voice channel to "+voiceID)
}

func cmdAddChannel(ctx context.Context, d *Dispatcher, req request) error {
	parts := strings.Fields(req.args)
	if len(parts) < 2 {
		return d.reply(ctx, req.msg.ChannelID, "Usage: "+d.prefix+"add_channel <voice|command> <channel_id> [name]")
	}
	kind := strings.ToLower(parts[0])
	channelID := parts[1]
	if !isSnowflake(channelID) {
		return d.reply(ctx, req.msg.ChannelID, "Please specify a valid channel ID")
	}
	name := strings.Join(parts[2:], " ")
	guildID, err := d.guildFor(req)
	if err != nil {
		return err
	}
	switch kind {
	case "voice":
		if name == "" {
			name = "Voice Channel"
		}
		if err := d.store.AddVoiceChannel(ctx, channelID, guildID, name); err != nil {
			return services.Wrap(services.ErrCatalog, "commands", "add_channel", "register voice channel", err)
		}
	case "command":
		if name == "" {
			name = "Command Channel"
		}
		if err := d.store.AddCommandChannel(ctx, channelID, guildID, name); err != nil {
			return services.Wrap(services.ErrCatalog, "commands", "add_channel", "register command channel", err)
		}
	default:
		return d.reply(ctx, req.msg.ChannelID, "Channel type must be 'voice' or 'command'")
	}
	return d.reply(ctx, req.msg.ChannelID, fmt.Sprintf("Added %s channel: %s (%s)", kind, name, channelID))
}

func cmdMapChannel(ctx context.Context, d *Dispatcher, req request) error {
	parts := strings.Fields(req.args)
	if len(parts) != 2 {
		return d.reply(ctx, req.msg.ChannelID, "Usage: "+d.prefix+"map_channel <command_channel_id> <voice_channel_id>")
	}
	if !isSnowflake(parts[0]) || !isSnowflake(parts[1]) {
		return d.reply(ctx, req.msg.ChannelID, "Please specify valid channel IDs")
	}
	if err := d.store.MapChannels(ctx, parts[0], parts[1]); err != nil {
		return services.Wrap(services.ErrCatalog, "commands", "map_channel", "map channels", err)
	}
	return d.reply(ctx, req.msg.ChannelID,
		fmt.Sprintf("Mapped command channel %s to voice channel %s", parts[0], parts[1]))
}

func (d *Dispatcher) showMappings(ctx context.Context, channelID string) error {
	mappings, err := d.store.ChannelMappings(ctx)
	if err != nil {
		return services.Wrap(services.ErrCatalog, "commands", "channel", "list mappings", err)
	}
	if len(mappings) == 0 {
		if voice := strings.TrimSpace(d.cfg.Discord.VoiceChannelID); voice != "" {
			return d.reply(ctx, channelID, "Using default voice channel: "+voice)
		}
		return d.reply(ctx, channelID, "No channel mappings found")
	}
	lines := make([]string, len(mappings))
	for i, m := range mappings {
		lines[i] = fmt.Sprintf("Guild: %s, Command: %s -> Voice: %s",
			m.GuildID, firstNonEmpty(m.CommandName, m.CommandChannelID), firstNonEmpty(m.VoiceName, m.VoiceChannelID))
	}
	return d.replyBlock(ctx, channelID, "Channel mappings:", lines)
}

func (d *Dispatcher) guildFor(req request) (string, error) {
	if guild := firstNonEmpty(req.msg.GuildID, strings.TrimSpace(d.cfg.Discord.GuildID)); guild != "" {
		return guild, nil
	}
	return "", services.Wrap(services.ErrConfiguration, "commands", req.name, "guild id unknown; set discord.guild_id", nil)
}

// isSnowflake reports whether id looks like a chat service identifier.
func isSnowflake(id string) bool {
	if id == "" || len(id) > 20 {
		return false
	}
	for _, r := range id {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}
