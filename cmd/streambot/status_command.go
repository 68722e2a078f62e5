package main

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"streambot/internal/catalog"
	"streambot/internal/config"
	"streambot/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	var offline bool
	var discordBase string

	cmd := &cobra.Command{
		Use:   "status",
		Short: "Check directories, binaries, Discord credentials, and the catalog",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			colorize := shouldColorize(out)
			lines := statusReport(cmd.Context(), cfg, colorize, offline, discordBase)
			fmt.Fprintln(out, strings.Join(lines, "\n"))
			if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg)); len(failed) > 0 {
				return fmt.Errorf("%d required checks failed", len(failed))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&offline, "offline", false, "Skip the Discord token check")
	cmd.Flags().StringVar(&discordBase, "discord-api", preflight.DiscordAPIBase, "Discord REST endpoint used for the token check")
	_ = cmd.Flags().MarkHidden("discord-api")
	return cmd
}

func statusReport(ctx context.Context, cfg *config.Config, colorize, offline bool, discordBase string) []string {
	var lines []string

	lines = append(lines, renderSectionHeader("Directories", colorize)...)
	lines = append(lines,
		checkLine(preflight.CheckDirectoryAccess("Videos", cfg.Paths.VideosDir), colorize),
		checkLine(preflight.CheckDirectoryAccess("Logs", cfg.Paths.LogDir), colorize),
	)

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Dependencies", colorize)...)
	lines = append(lines, dependencyLines(preflight.CheckSystemDeps(ctx, cfg), colorize)...)

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Discord", colorize)...)
	switch {
	case strings.TrimSpace(cfg.Discord.Token) == "":
		lines = append(lines, renderStatusLine("Token", statusError, "Not configured", colorize))
	case offline:
		lines = append(lines, renderStatusLine("Token", statusInfo, "Configured (not verified)", colorize))
	default:
		result := preflight.CheckDiscord(ctx, discordBase, cfg.Discord.Token)
		result.Name = "Token"
		lines = append(lines, checkLine(result, colorize))
	}
	lines = append(lines,
		renderStatusLine("Prefix", statusInfo, cfg.Discord.Prefix, colorize),
		renderStatusLine("Command channel", statusInfo, orUnset(cfg.Discord.CommandChannelID), colorize),
		renderStatusLine("Voice channel", statusInfo, orUnset(cfg.Discord.VoiceChannelID), colorize),
		renderStatusLine("Transcoding", statusInfo, yesNo(cfg.Stream.Transcode), colorize),
	)

	lines = append(lines, "")
	lines = append(lines, renderSectionHeader("Catalog", colorize)...)
	lines = append(lines, catalogLines(ctx, cfg, colorize)...)
	return lines
}

func catalogLines(ctx context.Context, cfg *config.Config, colorize bool) []string {
	store, err := catalog.Open(cfg)
	if err != nil {
		return []string{renderStatusLine("Database", statusError, err.Error(), colorize)}
	}
	defer store.Close()

	statsCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()
	stats, err := store.Stats(statsCtx)
	if err != nil {
		return []string{renderStatusLine("Database", statusError, err.Error(), colorize)}
	}
	kind := statusOK
	if stats.Videos == 0 {
		kind = statusWarn
	}
	return []string{
		renderStatusLine("Database", statusOK, store.Path(), colorize),
		renderStatusLine("Videos", kind, fmt.Sprintf("%d in %d categories", stats.Videos, stats.Categories), colorize),
		renderStatusLine("Series", statusInfo, fmt.Sprint(stats.Series), colorize),
		renderStatusLine("Playlists", statusInfo, fmt.Sprint(stats.Playlists), colorize),
	}
}

func orUnset(value string) string {
	if strings.TrimSpace(value) == "" {
		return "not set"
	}
	return value
}
