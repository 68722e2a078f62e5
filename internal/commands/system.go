package commands

import (
	"context"
	"fmt"
	"strings"

	"streambot/internal/deps"
	"streambot/internal/sysinfo"
)

func cmdHWInfo(ctx context.Context, d *Dispatcher, req request) error {
	var lines []string
	host, err := d.hostInfo(ctx)
	if err != nil {
		lines = append(lines, "Host: unavailable ("+err.Error()+")")
	} else {
		lines = append(lines,
			fmt.Sprintf("Host: %s (%s %s, %s)", host.Hostname, host.Platform, host.PlatformVersion, host.Arch),
			fmt.Sprintf("CPU: %s (%d cores, load %.2f)", firstNonEmpty(host.CPUModel, "unknown"), host.CPUCores, host.Load1),
			fmt.Sprintf("Memory: %s of %s available (%.0f%% used)",
				sysinfo.FormatBytes(host.MemoryAvailable), sysinfo.FormatBytes(host.MemoryTotal), host.MemoryUsedPct),
		)
	}

	binary := d.ffmpegBinary()
	encoders, err := d.encoders(ctx, binary)
	if err != nil {
		lines = append(lines, "", "Encoders: unavailable ("+err.Error()+")")
	} else {
		var hardware []string
		for _, enc := range encoders {
			if enc.Hardware {
				hardware = append(hardware, enc.Name)
			}
		}
		lines = append(lines, "")
		if len(hardware) == 0 {
			lines = append(lines, "Hardware encoders: none detected")
		} else {
			lines = append(lines, "Hardware encoders: "+strings.Join(hardware, ", "))
		}
		if d.cfg.Stream.Transcode {
			state := "available"
			if !deps.HasEncoder(encoders, d.cfg.Stream.Encoder) {
				state = "missing from ffmpeg"
			}
			lines = append(lines, fmt.Sprintf("Configured encoder: %s (%s)", d.cfg.Stream.Encoder, state))
		}
	}

	transcoding := "Disabled"
	if d.cfg.Stream.Transcode {
		transcoding = "Enabled"
	}
	lines = append(lines, "Transcoding: "+transcoding)
	return d.replyBlock(ctx, req.msg.ChannelID, "Hardware information:", lines)
}

func cmdHelp(ctx context.Context, d *Dispatcher, req request) error {
	lines := []string{fmt.Sprintf("StreamBot Commands (prefix: %s):", d.prefix)}
	section := ""
	for _, cmd := range d.order {
		if cmd.section != section {
			section = cmd.section
			lines = append(lines, "", section+":")
		}
		usage := d.prefix + cmd.name
		if cmd.usage != "" {
			usage += " " + cmd.usage
		}
		lines = append(lines, fmt.Sprintf("  %s - %s", usage, cmd.summary))
	}
	return d.replyBlock(ctx, req.msg.ChannelID, "", lines)
}

func (d *Dispatcher) ffmpegBinary() string {
	if binary := strings.TrimSpace(d.cfg.Stream.FFmpegPath); binary != "" {
		return binary
	}
	return "ffmpeg"
}
