package commands

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"streambot/internal/logging"
	"streambot/internal/playback"
	"streambot/internal/services"
	"streambot/internal/transport"
)

func cmdPlay(ctx context.Context, d *Dispatcher, req request) error {
	arg := singleArg(req.args)
	if arg == "" {
		return d.reply(ctx, req.msg.ChannelID, "Please specify a video file path")
	}
	path, err := d.resolvePlayable(ctx, arg)
	if errors.Is(err, services.ErrNotFound) {
		return d.reply(ctx, req.msg.ChannelID, "Video file not found: "+arg)
	}
	if err != nil {
		return err
	}
	if err := d.player.Play(path); err != nil {
		return err
	}
	d.recordPlay(ctx, req, path)

	text := "Now playing: " + baseName(path)
	if voice := d.voiceChannel(ctx, req.msg.ChannelID); voice != "" {
		text += fmt.Sprintf(" (voice channel %s)", voice)
	}
	return d.reply(ctx, req.msg.ChannelID, text)
}

func cmdStop(ctx context.Context, d *Dispatcher, req request) error {
	if err := d.player.Stop(); err != nil {
		if errors.Is(err, playback.ErrNotPlaying) {
			return d.reply(ctx, req.msg.ChannelID, "Nothing is playing")
		}
		return err
	}
	return d.reply(ctx, req.msg.ChannelID, "Stopped streaming")
}

func cmdPause(ctx context.Context, d *Dispatcher, req request) error {
	if err := d.player.Pause(); err != nil {
		if errors.Is(err, playback.ErrNotPlaying) || errors.Is(err, playback.ErrAlreadyPaused) {
			return d.reply(ctx, req.msg.ChannelID, "No active stream to pause")
		}
		return err
	}
	return d.reply(ctx, req.msg.ChannelID, "Paused streaming")
}

func cmdResume(ctx context.Context, d *Dispatcher, req request) error {
	if err := d.player.Resume(); err != nil {
		if errors.Is(err, playback.ErrNotPlaying) || errors.Is(err, playback.ErrNotPaused) {
			return d.reply(ctx, req.msg.ChannelID, "No paused stream to resume")
		}
		return err
	}
	return d.reply(ctx, req.msg.ChannelID, "Resumed streaming")
}

func cmdPlaylist(ctx context.Context, d *Dispatcher, req request) error {
	if req.args == "" {
		return d.showPlaylist(ctx, req.msg.ChannelID)
	}
	paths, ok, err := d.resolvePaths(ctx, req)
	if err != nil || !ok {
		return err
	}
	if err := d.player.PlayPlaylist(paths); err != nil {
		return err
	}
	d.recordPlay(ctx, req, paths...)
	return d.reply(ctx, req.msg.ChannelID, fmt.Sprintf("Started playlist with %d items", len(paths)))
}

func cmdEnqueue(ctx context.Context, d *Dispatcher, req request) error {
	if req.args == "" {
		return d.reply(ctx, req.msg.ChannelID, "Please specify video file paths")
	}
	paths, ok, err := d.resolvePaths(ctx, req)
	if err != nil || !ok {
		return err
	}
	total := d.player.Enqueue(paths)
	d.recordPlay(ctx, req, paths...)
	return d.reply(ctx, req.msg.ChannelID, fmt.Sprintf("Queued %d items (%d in playlist)", len(paths), total))
}

func cmdNext(ctx context.Context, d *Dispatcher, req request) error {
	return d.step(ctx, req, "next", "Reached the end of the playlist, restarting from the beginning", d.player.Next)
}

func cmdPrev(ctx context.Context, d *Dispatcher, req request) error {
	return d.step(ctx, req, "previous", "Reached the beginning of the playlist, moving to the end", d.player.Prev)
}

func (d *Dispatcher) step(ctx context.Context, req request, label, wrapNotice string, move func() (playback.Status, bool, error)) error {
	status, wrapped, err := move()
	if errors.Is(err, playback.ErrEmptyPlaylist) {
		return d.reply(ctx, req.msg.ChannelID, "Playlist is empty")
	}
	if wrapped {
		if replyErr := d.reply(ctx, req.msg.ChannelID, wrapNotice); replyErr != nil {
			return replyErr
		}
	}
	if err != nil {
		return err
	}
	return d.reply(ctx, req.msg.ChannelID,
		fmt.Sprintf("Playing %s item (%d/%d): %s", label, status.Index+1, status.Total, baseName(status.Path)))
}

func (d *Dispatcher) showPlaylist(ctx context.Context, channelID string) error {
	items, current := d.player.Playlist()
	if len(items) == 0 {
		return d.reply(ctx, channelID, "Playlist is empty")
	}
	lines := make([]string, len(items))
	for i, item := range items {
		marker := ""
		if i == current {
			marker = "▶️ "
		}
		lines[i] = fmt.Sprintf("%s%d. %s", marker, i+1, baseName(item))
	}
	return d.replyBlock(ctx, channelID, fmt.Sprintf("Current playlist (%d items):", len(items)), lines)
}

// resolvePaths resolves every argument to a file. Missing files are reported
// in one reply; ok is false when nothing resolved.
func (d *Dispatcher) resolvePaths(ctx context.Context, req request) ([]string, bool, error) {
	words, err := SplitArgs(req.args)
	if err != nil {
		return nil, false, services.Wrap(services.ErrValidation, "commands", req.name, "parse arguments", err)
	}
	var paths, missing []string
	for _, word := range words {
		if path, ok := d.resolvePath(word); ok {
			paths = append(paths, path)
			continue
		}
		missing = append(missing, word)
	}
	if len(missing) > 0 {
		text := truncateRunes("Video file not found: "+strings.Join(missing, ", "), transport.MaxContentLength)
		if err := d.reply(ctx, req.msg.ChannelID, text); err != nil {
			return nil, false, err
		}
	}
	if len(paths) == 0 {
		return nil, false, d.reply(ctx, req.msg.ChannelID, "No valid video files specified")
	}
	return paths, true, nil
}

// recordPlay marks catalogued paths as played. Handoffs posted by the bot
// come from interactive views, which have already recorded the play.
func (d *Dispatcher) recordPlay(ctx context.Context, req request, paths ...string) {
	if req.msg.AuthorID == d.transport.SelfID() {
		return
	}
	for _, path := range paths {
		video, err := d.store.VideoByPath(ctx, path)
		if err != nil || video == nil {
			continue
		}
		if err := d.store.MarkPlayed(ctx, video.ID); err != nil {
			d.logger.Debug("mark played failed", logging.String("path", path), logging.Error(err))
		}
	}
}

// voiceChannel returns the voice channel mapped to a command channel, falling
// back to the configured default.
func (d *Dispatcher) voiceChannel(ctx context.Context, channelID string) string {
	if voice, err := d.store.VoiceChannelFor(ctx, channelID); err == nil && voice != "" {
		return voice
	}
	return strings.TrimSpace(d.cfg.Discord.VoiceChannelID)
}
