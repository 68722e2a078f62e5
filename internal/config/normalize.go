package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	c.normalizeDiscord()
	if err := c.normalizePaths(); err != nil {
		return err
	}
	c.normalizeNavigation()
	c.normalizeStream()
	c.normalizeStatus()
	c.normalizeNotifications()
	c.normalizeLogging()
	return nil
}

func (c *Config) normalizeDiscord() {
	c.Discord.Token = strings.TrimSpace(c.Discord.Token)
	if value, ok := os.LookupEnv("STREAMBOT_DISCORD_TOKEN"); ok && strings.TrimSpace(value) != "" {
		c.Discord.Token = strings.TrimSpace(value)
	}
	c.Discord.Prefix = strings.TrimSpace(c.Discord.Prefix)
	if c.Discord.Prefix == "" {
		c.Discord.Prefix = defaultPrefix
	}
	c.Discord.GuildID = strings.TrimSpace(c.Discord.GuildID)
	c.Discord.CommandChannelID = strings.TrimSpace(c.Discord.CommandChannelID)
	c.Discord.VoiceChannelID = strings.TrimSpace(c.Discord.VoiceChannelID)

	users := make([]string, 0, len(c.Discord.AllowedUsers))
	seen := make(map[string]struct{}, len(c.Discord.AllowedUsers))
	for _, id := range c.Discord.AllowedUsers {
		id = strings.TrimSpace(id)
		if id == "" {
			continue
		}
		if _, exists := seen[id]; exists {
			continue
		}
		seen[id] = struct{}{}
		users = append(users, id)
	}
	c.Discord.AllowedUsers = users
}

func (c *Config) normalizePaths() error {
	var err error
	if strings.TrimSpace(c.Paths.VideosDir) == "" {
		c.Paths.VideosDir = defaultVideosDir
	}
	if c.Paths.VideosDir, err = expandPath(c.Paths.VideosDir); err != nil {
		return fmt.Errorf("paths.videos_dir: %w", err)
	}
	if strings.TrimSpace(c.Paths.DBPath) == "" {
		c.Paths.DBPath = defaultDBPath
	}
	if c.Paths.DBPath, err = expandPath(c.Paths.DBPath); err != nil {
		return fmt.Errorf("paths.db_path: %w", err)
	}
	if strings.TrimSpace(c.Paths.LogDir) == "" {
		c.Paths.LogDir = defaultLogDir
	}
	if c.Paths.LogDir, err = expandPath(c.Paths.LogDir); err != nil {
		return fmt.Errorf("paths.log_dir: %w", err)
	}
	c.Paths.StatusBind = strings.TrimSpace(c.Paths.StatusBind)
	if c.Paths.StatusBind == "" {
		c.Paths.StatusBind = defaultStatusBind
	}
	return nil
}

func (c *Config) normalizeNavigation() {
	if c.Navigation.PromptTimeoutSeconds <= 0 {
		c.Navigation.PromptTimeoutSeconds = defaultPromptTimeoutSeconds
	}
	if c.Navigation.CategoriesPerPage <= 0 {
		c.Navigation.CategoriesPerPage = defaultCategoriesPerPage
	}
	if c.Navigation.VideosPerPage <= 0 {
		c.Navigation.VideosPerPage = defaultVideosPerPage
	}
	if c.Navigation.EpisodesPerPage <= 0 {
		c.Navigation.EpisodesPerPage = defaultEpisodesPerPage
	}
	if c.Navigation.SearchPerPage <= 0 {
		c.Navigation.SearchPerPage = defaultSearchPerPage
	}
}

func (c *Config) normalizeStream() {
	c.Stream.FFmpegPath = strings.TrimSpace(c.Stream.FFmpegPath)
	if c.Stream.FFmpegPath == "" {
		c.Stream.FFmpegPath = defaultFFmpegPath
	}
	c.Stream.FFprobePath = strings.TrimSpace(c.Stream.FFprobePath)
	c.Stream.OutputURL = strings.TrimSpace(c.Stream.OutputURL)
	c.Stream.OutputFormat = strings.ToLower(strings.TrimSpace(c.Stream.OutputFormat))
	if c.Stream.OutputFormat == "" {
		c.Stream.OutputFormat = defaultOutputFormat
	}
	c.Stream.Encoder = strings.TrimSpace(c.Stream.Encoder)
	if c.Stream.Encoder == "" {
		c.Stream.Encoder = defaultEncoder
	}
	c.Stream.H26xPreset = strings.TrimSpace(c.Stream.H26xPreset)
	if c.Stream.H26xPreset == "" {
		c.Stream.H26xPreset = defaultH26xPreset
	}
	if c.Stream.Width <= 0 {
		c.Stream.Width = defaultStreamWidth
	}
	if c.Stream.Height <= 0 {
		c.Stream.Height = defaultStreamHeight
	}
	if c.Stream.FPS <= 0 {
		c.Stream.FPS = defaultStreamFPS
	}
	if c.Stream.BitrateKbps <= 0 {
		c.Stream.BitrateKbps = defaultBitrateKbps
	}
	if c.Stream.MaxBitrateKbps <= 0 {
		c.Stream.MaxBitrateKbps = defaultMaxBitrateKbps
	}
}

func (c *Config) normalizeStatus() {
	c.Status.Username = strings.TrimSpace(c.Status.Username)
	if c.Status.Username == "" {
		c.Status.Username = defaultStatusUsername
	}
	if c.Status.Password == "" {
		if value, ok := os.LookupEnv("STREAMBOT_STATUS_PASSWORD"); ok {
			c.Status.Password = value
		}
	}
}

func (c *Config) normalizeNotifications() {
	c.Notifications.NtfyTopic = strings.TrimSpace(c.Notifications.NtfyTopic)
	if c.Notifications.RequestTimeoutSeconds <= 0 {
		c.Notifications.RequestTimeoutSeconds = defaultNotifyTimeoutSeconds
	}
}

func (c *Config) normalizeLogging() {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
}
