package playback

import (
	"fmt"
	"strconv"
	"strings"

	"streambot/internal/config"
)

// BuildArgs assembles the ffmpeg arguments that stream input to the
// configured output. Without transcoding the streams are copied as-is.
func BuildArgs(stream config.Stream, input string) []string {
	args := []string{"-hide_banner", "-loglevel", "error", "-nostdin", "-re", "-i", input}

	if stream.Transcode {
		encoder := strings.TrimSpace(stream.Encoder)
		if encoder == "" {
			encoder = "libx264"
		}
		args = append(args, "-c:v", encoder)
		if isSoftwareH26x(encoder) {
			preset := strings.TrimSpace(stream.H26xPreset)
			if preset == "" {
				preset = "ultrafast"
			}
			args = append(args, "-preset", preset, "-tune", "zerolatency")
			if !stream.RespectVideoParams {
				args = append(args, "-crf", "23")
			}
		}
		if stream.RespectVideoParams {
			args = append(args,
				"-s", fmt.Sprintf("%dx%d", stream.Width, stream.Height),
				"-r", strconv.Itoa(stream.FPS),
				"-b:v", fmt.Sprintf("%dk", stream.BitrateKbps),
				"-maxrate", fmt.Sprintf("%dk", stream.MaxBitrateKbps),
				"-bufsize", fmt.Sprintf("%dk", stream.BitrateKbps*2),
			)
		}
		args = append(args, "-pix_fmt", "yuv420p")
	} else {
		args = append(args, "-c:v", "copy")
	}

	format := strings.TrimSpace(stream.OutputFormat)
	if format == "" {
		format = "mpegts"
	}
	args = append(args, "-c:a", "copy", "-f", format, stream.OutputURL)
	return args
}

func isSoftwareH26x(encoder string) bool {
	switch encoder {
	case "libx264", "libx265":
		return true
	default:
		return false
	}
}
