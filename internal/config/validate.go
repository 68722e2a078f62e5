package config

import (
	"errors"
	"fmt"
	"strings"
)

// Validate ensures the configuration is usable.
func (c *Config) Validate() error {
	if err := c.validateNavigation(); err != nil {
		return err
	}
	if err := c.validateStream(); err != nil {
		return err
	}
	if err := c.validateStatus(); err != nil {
		return err
	}
	return nil
}

// RequireDiscord reports an error when chat credentials needed by the bot
// runtime are missing. Catalog-only CLI commands skip this check.
func (c *Config) RequireDiscord() error {
	if c.Discord.Token == "" {
		defaultPath, err := DefaultConfigPath()
		if err != nil {
			defaultPath = "~/.config/streambot/config.toml"
		}
		return fmt.Errorf("discord.token is required. Set STREAMBOT_DISCORD_TOKEN env var or edit %s (create with 'streambot config init')", defaultPath)
	}
	return nil
}

// MaxPerPage is the most fields a single embed can carry.
const MaxPerPage = 25

func (c *Config) validateNavigation() error {
	if c.Navigation.PromptTimeoutSeconds <= 0 {
		return errors.New("navigation.prompt_timeout_seconds must be positive")
	}
	pageSizes := map[string]int{
		"navigation.categories_per_page": c.Navigation.CategoriesPerPage,
		"navigation.videos_per_page":     c.Navigation.VideosPerPage,
		"navigation.episodes_per_page":   c.Navigation.EpisodesPerPage,
		"navigation.search_per_page":     c.Navigation.SearchPerPage,
	}
	if err := ensurePositiveMap(pageSizes); err != nil {
		return err
	}
	for key, value := range pageSizes {
		if value > MaxPerPage {
			return fmt.Errorf("%s must be at most %d", key, MaxPerPage)
		}
	}
	return nil
}

func (c *Config) validateStream() error {
	if c.Stream.MaxBitrateKbps < c.Stream.BitrateKbps {
		return errors.New("stream.max_bitrate_kbps must be at least stream.bitrate_kbps")
	}
	if c.Stream.Transcode && strings.TrimSpace(c.Stream.Encoder) == "" {
		return errors.New("stream.encoder must be set when stream.transcode is true")
	}
	return nil
}

func (c *Config) validateStatus() error {
	if !c.Status.Enabled {
		return nil
	}
	if c.Status.Password == "" {
		return errors.New("status.password must be set when status.enabled is true")
	}
	return nil
}

func ensurePositiveMap(values map[string]int) error {
	for key, value := range values {
		if value <= 0 {
			return fmt.Errorf("%s must be positive", key)
		}
	}
	return nil
}
