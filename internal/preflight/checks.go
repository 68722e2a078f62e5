package preflight

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"os"
	"strings"
	"time"

	"golang.org/x/sys/unix"

	"streambot/internal/config"
	"streambot/internal/deps"
)

// DiscordAPIBase is the REST endpoint used to validate bot tokens.
const DiscordAPIBase = "https://discord.com/api/v10"

// CheckDiscord verifies the bot token by fetching the bot's own user.
func CheckDiscord(ctx context.Context, baseURL, token string) Result {
	const name = "Discord"

	base := strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if base == "" {
		base = DiscordAPIBase
	}
	if strings.TrimSpace(token) == "" {
		return Result{Name: name, Detail: "missing bot token"}
	}

	checkCtx, cancel := context.WithTimeout(ctx, 5*time.Second)
	defer cancel()

	client := &http.Client{Timeout: 5 * time.Second}
	req, err := http.NewRequestWithContext(checkCtx, http.MethodGet, base+"/users/@me", nil)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%v)", err)}
	}
	req.Header.Set("Authorization", "Bot "+strings.TrimSpace(token))

	resp, err := client.Do(req)
	if err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%v)", err)}
	}
	defer resp.Body.Close()

	switch resp.StatusCode {
	case http.StatusOK:
		var user struct {
			Username string `json:"username"`
		}
		if err := json.NewDecoder(resp.Body).Decode(&user); err == nil && user.Username != "" {
			return Result{Name: name, Passed: true, Detail: "authenticated as " + user.Username}
		}
		return Result{Name: name, Passed: true, Detail: "authenticated"}
	case http.StatusUnauthorized, http.StatusForbidden:
		return Result{Name: name, Detail: "auth failed (invalid bot token)"}
	default:
		return Result{Name: name, Detail: fmt.Sprintf("auth check failed (%d)", resp.StatusCode)}
	}
}

// CheckDirectoryAccess verifies that the directory exists and is readable/writable.
func CheckDirectoryAccess(name, path string) Result {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return Result{Name: name, Detail: fmt.Sprintf("%s (error: does not exist)", path)}
		}
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: stat: %v)", path, err)}
	}
	if !info.IsDir() {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: is not a directory)", path)}
	}
	if err := unix.Access(path, unix.R_OK|unix.W_OK|unix.X_OK); err != nil {
		return Result{Name: name, Detail: fmt.Sprintf("%s (error: insufficient permissions: %v)", path, err)}
	}
	return Result{Name: name, Passed: true, Detail: fmt.Sprintf("%s (read/write ok)", path)}
}

// CheckSystemDeps evaluates the external binaries for the given config.
func CheckSystemDeps(_ context.Context, cfg *config.Config) []deps.Status {
	requirements := []deps.Requirement{
		{
			Name:        "FFmpeg",
			Command:     cfg.Stream.FFmpegPath,
			Description: "Required for playback",
		},
		{
			Name:        "FFprobe",
			Command:     cfg.FFprobeBinary(),
			Description: "Reads duration, resolution, and codec during library scans",
			Optional:    true,
		},
	}
	return deps.CheckBinaries(requirements)
}
