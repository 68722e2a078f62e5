package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/pelletier/go-toml/v2"
)

//go:embed sample_config.toml
var sampleConfig string

// Discord contains chat transport credentials and channel defaults.
type Discord struct {
	Token            string   `toml:"token"`
	Prefix           string   `toml:"prefix"`
	GuildID          string   `toml:"guild_id"`
	CommandChannelID string   `toml:"command_channel_id"`
	VoiceChannelID   string   `toml:"voice_channel_id"`
	AllowedUsers     []string `toml:"allowed_users"`
}

// Paths contains directory, database, and bind address configuration.
type Paths struct {
	VideosDir  string `toml:"videos_dir"`
	DBPath     string `toml:"db_path"`
	LogDir     string `toml:"log_dir"`
	StatusBind string `toml:"status_bind"`
}

// Navigation tunes the interactive menus.
type Navigation struct {
	PromptTimeoutSeconds int `toml:"prompt_timeout_seconds"`
	CategoriesPerPage    int `toml:"categories_per_page"`
	VideosPerPage        int `toml:"videos_per_page"`
	EpisodesPerPage      int `toml:"episodes_per_page"`
	SearchPerPage        int `toml:"search_per_page"`
}

// Stream contains ffmpeg playback settings.
type Stream struct {
	FFmpegPath         string `toml:"ffmpeg_path"`
	FFprobePath        string `toml:"ffprobe_path"`
	OutputURL          string `toml:"output_url"`
	OutputFormat       string `toml:"output_format"`
	Transcode          bool   `toml:"transcode"`
	Encoder            string `toml:"encoder"`
	RespectVideoParams bool   `toml:"respect_video_params"`
	Width              int    `toml:"width"`
	Height             int    `toml:"height"`
	FPS                int    `toml:"fps"`
	BitrateKbps        int    `toml:"bitrate_kbps"`
	MaxBitrateKbps     int    `toml:"max_bitrate_kbps"`
	H26xPreset         string `toml:"h26x_preset"`
}

// Status configures the optional HTTP status server.
type Status struct {
	Enabled  bool   `toml:"enabled"`
	Username string `toml:"username"`
	Password string `toml:"password"`
}

// Notifications configures optional ntfy push notifications.
type Notifications struct {
	NtfyTopic             string `toml:"ntfy_topic"`
	RequestTimeoutSeconds int    `toml:"request_timeout_seconds"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format"`
	Level         string `toml:"level"`
	RetentionDays int    `toml:"retention_days"`
}

// Config encapsulates all configuration values for streambot.
//
// Configuration sections by subsystem:
//   - Discord: chat credentials, command prefix, default channels
//   - Paths: videos directory, catalog database, logs, status bind address
//   - Navigation: menu page sizes and prompt timeout
//   - Stream: ffmpeg playback and transcoding
//   - Status: HTTP status server toggle and credentials
//   - Notifications: ntfy topic for start, stop, and playback failures
//   - Logging: log format and level
type Config struct {
	Discord       Discord       `toml:"discord"`
	Paths         Paths         `toml:"paths"`
	Navigation    Navigation    `toml:"navigation"`
	Stream        Stream        `toml:"stream"`
	Status        Status        `toml:"status"`
	Notifications Notifications `toml:"notifications"`
	Logging       Logging       `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath("~/.config/streambot/config.toml")
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("parse config: %w", err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, err
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := DefaultConfigPath()
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("streambot.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the directories the bot writes to.
func (c *Config) EnsureDirectories() error {
	for _, dir := range []string{c.Paths.VideosDir, c.Paths.LogDir, filepath.Dir(c.Paths.DBPath)} {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// PromptTimeout returns the disambiguation wait as a duration.
func (c *Config) PromptTimeout() time.Duration {
	return time.Duration(c.Navigation.PromptTimeoutSeconds) * time.Second
}

// FFprobeBinary returns the ffprobe executable, deriving it from the ffmpeg
// path when none is configured.
func (c *Config) FFprobeBinary() string {
	if probe := strings.TrimSpace(c.Stream.FFprobePath); probe != "" {
		return probe
	}
	ffmpeg := strings.TrimSpace(c.Stream.FFmpegPath)
	if ffmpeg == "" {
		return "ffprobe"
	}
	dir, base := filepath.Split(ffmpeg)
	return dir + strings.Replace(base, "ffmpeg", "ffprobe", 1)
}

// IsAllowedUser reports whether the user may issue commands. An empty
// allow-list admits everyone in a registered command channel.
func (c *Config) IsAllowedUser(userID string) bool {
	if len(c.Discord.AllowedUsers) == 0 {
		return true
	}
	for _, id := range c.Discord.AllowedUsers {
		if id == userID {
			return true
		}
	}
	return false
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
