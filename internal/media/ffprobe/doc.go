// Package ffprobe provides a typed wrapper around ffprobe JSON output.
//
// Key types:
//   - Result: parsed ffprobe output containing streams and format metadata
//   - VideoInfo: the primary video stream summary the catalog records
//
// Inspect executes ffprobe and returns the parsed Result; Result.Video
// condenses it to duration, dimensions, codec, and frame rate.
package ffprobe
