package deps

import (
	"bufio"
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// Encoder is a video encoder reported by `ffmpeg -encoders`.
type Encoder struct {
	Name        string
	Description string
	Hardware    bool
}

var hardwareEncoderMarkers = []string{"nvenc", "qsv", "vaapi", "videotoolbox", "amf", "v4l2m2m", "omx", "mediacodec"}

// FFmpegVersion returns the first line of `ffmpeg -version`.
func FFmpegVersion(ctx context.Context, binary string) (string, error) {
	output, err := exec.CommandContext(ctx, binary, "-hide_banner", "-version").Output()
	if err != nil {
		return "", fmt.Errorf("ffmpeg version: %w", err)
	}
	line, _, _ := strings.Cut(string(output), "\n")
	return strings.TrimSpace(line), nil
}

// VideoEncoders lists the video encoders compiled into ffmpeg.
func VideoEncoders(ctx context.Context, binary string) ([]Encoder, error) {
	output, err := exec.CommandContext(ctx, binary, "-hide_banner", "-encoders").Output()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg encoders: %w", err)
	}
	return ParseEncoders(output), nil
}

// ParseEncoders extracts video encoders from `ffmpeg -encoders` output.
// Encoder lines start with a six-character capability field whose first
// character is V for video.
func ParseEncoders(output []byte) []Encoder {
	var encoders []Encoder
	scanner := bufio.NewScanner(bytes.NewReader(output))
	pastHeader := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if !pastHeader {
			if strings.HasPrefix(line, "------") {
				pastHeader = true
			}
			continue
		}
		fields := strings.Fields(line)
		if len(fields) < 2 || len(fields[0]) != 6 || fields[0][0] != 'V' {
			continue
		}
		name := fields[1]
		encoders = append(encoders, Encoder{
			Name:        name,
			Description: strings.Join(fields[2:], " "),
			Hardware:    isHardwareEncoder(name),
		})
	}
	return encoders
}

// HasEncoder reports whether name is among the encoders.
func HasEncoder(encoders []Encoder, name string) bool {
	for _, encoder := range encoders {
		if encoder.Name == name {
			return true
		}
	}
	return false
}

func isHardwareEncoder(name string) bool {
	for _, marker := range hardwareEncoderMarkers {
		if strings.Contains(name, marker) {
			return true
		}
	}
	return false
}
