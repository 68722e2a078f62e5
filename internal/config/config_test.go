package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/pelletier/go-toml/v2"

	"streambot/internal/config"
)

func TestLoadDefaultConfigUsesEnvTokenAndExpandsPaths(t *testing.T) {
	t.Setenv("STREAMBOT_DISCORD_TOKEN", "env-token")
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)

	cfg, resolved, exists, err := config.Load("")
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if resolved == "" {
		t.Fatal("expected resolved path")
	}
	if exists {
		t.Fatal("expected config file to be absent in temp HOME")
	}

	wantVideos := filepath.Join(tempHome, ".local", "share", "streambot", "videos")
	if cfg.Paths.VideosDir != wantVideos {
		t.Fatalf("unexpected videos dir: got %q want %q", cfg.Paths.VideosDir, wantVideos)
	}
	if cfg.Paths.DBPath != filepath.Join(tempHome, ".local", "share", "streambot", "streambot.db") {
		t.Fatalf("unexpected db path: %q", cfg.Paths.DBPath)
	}
	if cfg.Discord.Token != "env-token" {
		t.Fatalf("expected token from env, got %q", cfg.Discord.Token)
	}
	if cfg.Discord.Prefix != "$" {
		t.Fatalf("unexpected prefix: %q", cfg.Discord.Prefix)
	}
	if cfg.PromptTimeout() != 30*time.Second {
		t.Fatalf("unexpected prompt timeout: %s", cfg.PromptTimeout())
	}
	if cfg.Navigation.CategoriesPerPage != 8 || cfg.Navigation.SearchPerPage != 6 {
		t.Fatalf("unexpected page sizes: %+v", cfg.Navigation)
	}
	if cfg.Status.Enabled {
		t.Fatal("expected status server disabled by default")
	}
	if err := cfg.RequireDiscord(); err != nil {
		t.Fatalf("RequireDiscord returned error: %v", err)
	}
}

func TestLoadCustomConfigOverrides(t *testing.T) {
	tempHome := t.TempDir()
	t.Setenv("HOME", tempHome)
	t.Setenv("STREAMBOT_DISCORD_TOKEN", "")

	configPath := filepath.Join(t.TempDir(), "config.toml")
	payload := map[string]any{
		"discord": map[string]any{
			"token":         "file-token",
			"prefix":        "!",
			"allowed_users": []string{" 42 ", "42", "", "7"},
		},
		"paths": map[string]any{
			"videos_dir": "~/media",
		},
		"navigation": map[string]any{
			"prompt_timeout_seconds": 5,
		},
		"stream": map[string]any{
			"ffmpeg_path":  "/opt/ffmpeg/bin/ffmpeg",
			"output_url":   "udp://10.0.0.2:5000",
			"bitrate_kbps": 1500,
		},
		"logging": map[string]any{
			"format": "JSON",
			"level":  "DEBUG",
		},
	}
	data, err := toml.Marshal(payload)
	if err != nil {
		t.Fatalf("marshal config: %v", err)
	}
	if err := os.WriteFile(configPath, data, 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, resolved, exists, err := config.Load(configPath)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if !exists || resolved != configPath {
		t.Fatalf("expected existing config at %q, got %q (exists=%v)", configPath, resolved, exists)
	}
	if cfg.Discord.Token != "file-token" || cfg.Discord.Prefix != "!" {
		t.Fatalf("unexpected discord section: %+v", cfg.Discord)
	}
	if got := strings.Join(cfg.Discord.AllowedUsers, ","); got != "42,7" {
		t.Fatalf("unexpected allowed users: %q", got)
	}
	if !cfg.IsAllowedUser("7") || cfg.IsAllowedUser("8") {
		t.Fatal("allow-list not enforced")
	}
	if cfg.Paths.VideosDir != filepath.Join(tempHome, "media") {
		t.Fatalf("unexpected videos dir: %q", cfg.Paths.VideosDir)
	}
	if cfg.PromptTimeout() != 5*time.Second {
		t.Fatalf("unexpected prompt timeout: %s", cfg.PromptTimeout())
	}
	if cfg.FFprobeBinary() != "/opt/ffmpeg/bin/ffprobe" {
		t.Fatalf("unexpected ffprobe binary: %q", cfg.FFprobeBinary())
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("unexpected logging section: %+v", cfg.Logging)
	}
}

func TestLoadRejectsInvalidStream(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	configPath := filepath.Join(t.TempDir(), "config.toml")
	content := "[stream]\nbitrate_kbps = 4000\nmax_bitrate_kbps = 1000\n"
	if err := os.WriteFile(configPath, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(configPath); err == nil || !strings.Contains(err.Error(), "max_bitrate_kbps") {
		t.Fatalf("expected bitrate validation error, got %v", err)
	}
}

func TestValidateStatusRequiresPassword(t *testing.T) {
	cfg := config.Default()
	cfg.Status.Enabled = true
	if err := cfg.Validate(); err == nil {
		t.Fatal("expected error when status enabled without password")
	}
	cfg.Status.Password = "secret"
	if err := cfg.Validate(); err != nil {
		t.Fatalf("unexpected validation error: %v", err)
	}
}

func TestValidateNavigationBounds(t *testing.T) {
	cfg := config.Default()
	cfg.Navigation.VideosPerPage = config.MaxPerPage + 1
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "videos_per_page") {
		t.Fatalf("expected page size error, got %v", err)
	}
	cfg = config.Default()
	cfg.Navigation.PromptTimeoutSeconds = 0
	if err := cfg.Validate(); err == nil || !strings.Contains(err.Error(), "prompt_timeout_seconds") {
		t.Fatalf("expected timeout error, got %v", err)
	}
}

func TestRequireDiscordMissingToken(t *testing.T) {
	cfg := config.Default()
	if err := cfg.RequireDiscord(); err == nil || !strings.Contains(err.Error(), "discord.token") {
		t.Fatalf("expected missing token error, got %v", err)
	}
}

func TestFFprobeBinaryDefaults(t *testing.T) {
	cfg := config.Default()
	if got := cfg.FFprobeBinary(); got != "ffprobe" {
		t.Fatalf("expected ffprobe, got %q", got)
	}
	cfg.Stream.FFprobePath = "/usr/local/bin/ffprobe-6"
	if got := cfg.FFprobeBinary(); got != "/usr/local/bin/ffprobe-6" {
		t.Fatalf("expected explicit ffprobe, got %q", got)
	}
}

func TestCreateSampleWritesLoadableConfig(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "nested", "config.toml")
	if err := config.CreateSample(path); err != nil {
		t.Fatalf("CreateSample returned error: %v", err)
	}
	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load sample returned error: %v", err)
	}
	if !exists {
		t.Fatal("expected sample config to exist")
	}
	if cfg.Discord.Prefix != "$" {
		t.Fatalf("unexpected prefix from sample: %q", cfg.Discord.Prefix)
	}
	if cfg.Notifications.NtfyTopic != "" || cfg.Notifications.RequestTimeoutSeconds != 10 {
		t.Fatalf("unexpected notification settings: %+v", cfg.Notifications)
	}
}

func TestLoadNotificationTimeoutFallsBackToDefault(t *testing.T) {
	t.Setenv("HOME", t.TempDir())
	path := filepath.Join(t.TempDir(), "config.toml")
	content := "[notifications]\nntfy_topic = \"  https://ntfy.example/bot  \"\nrequest_timeout_seconds = -3\n"
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	cfg, _, _, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load returned error: %v", err)
	}
	if cfg.Notifications.NtfyTopic != "https://ntfy.example/bot" {
		t.Fatalf("topic not trimmed: %q", cfg.Notifications.NtfyTopic)
	}
	if cfg.Notifications.RequestTimeoutSeconds != 10 {
		t.Fatalf("expected default timeout, got %d", cfg.Notifications.RequestTimeoutSeconds)
	}
}

func TestEnsureDirectoriesCreatesPaths(t *testing.T) {
	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.VideosDir = filepath.Join(base, "videos")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Paths.DBPath = filepath.Join(base, "db", "streambot.db")
	if err := cfg.EnsureDirectories(); err != nil {
		t.Fatalf("EnsureDirectories returned error: %v", err)
	}
	for _, dir := range []string{cfg.Paths.VideosDir, cfg.Paths.LogDir, filepath.Dir(cfg.Paths.DBPath)} {
		if info, err := os.Stat(dir); err != nil || !info.IsDir() {
			t.Fatalf("expected directory %q: %v", dir, err)
		}
	}
}
