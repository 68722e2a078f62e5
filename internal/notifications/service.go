package notifications

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"path/filepath"
	"strings"
	"time"

	"streambot/internal/config"
	"streambot/internal/library"
	"streambot/internal/logging"
	"streambot/internal/playback"
)

const userAgent = "streambot/1.0"

// Notifier is the alert surface used by the bot runtime.
type Notifier interface {
	BotStarted(ctx context.Context, videos int) error
	BotStopped(ctx context.Context, reason string) error
	PlaybackFailed(ctx context.Context, path, reason string) error
	ScanCompleted(ctx context.Context, report library.Report) error
	Test(ctx context.Context) error
}

// New returns an ntfy-backed notifier, or a no-op when no topic is set.
func New(cfg *config.Config) Notifier {
	if cfg == nil {
		return noop{}
	}
	topic := strings.TrimSpace(cfg.Notifications.NtfyTopic)
	if topic == "" {
		return noop{}
	}
	timeout := time.Duration(cfg.Notifications.RequestTimeoutSeconds) * time.Second
	if timeout <= 0 {
		timeout = 10 * time.Second
	}
	return &ntfy{endpoint: topic, client: &http.Client{Timeout: timeout}}
}

type message struct {
	title    string
	body     string
	tags     []string
	priority string
}

type ntfy struct {
	endpoint string
	client   *http.Client
}

func (n *ntfy) BotStarted(ctx context.Context, videos int) error {
	return n.send(ctx, message{
		title: "streambot online",
		body:  fmt.Sprintf("▶️ Bot connected with %d videos in the catalog", videos),
		tags:  []string{"streambot", "started"},
	})
}

func (n *ntfy) BotStopped(ctx context.Context, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "shutdown requested"
	}
	return n.send(ctx, message{
		title: "streambot offline",
		body:  "⏹️ Bot stopped: " + reason,
		tags:  []string{"streambot", "stopped"},
	})
}

func (n *ntfy) PlaybackFailed(ctx context.Context, path, reason string) error {
	reason = strings.TrimSpace(reason)
	if reason == "" {
		reason = "unknown error"
	}
	return n.send(ctx, message{
		title:    "streambot playback failed",
		body:     fmt.Sprintf("❌ %s: %s", filepath.Base(path), reason),
		tags:     []string{"streambot", "playback", "error"},
		priority: "high",
	})
}

func (n *ntfy) ScanCompleted(ctx context.Context, report library.Report) error {
	body := fmt.Sprintf("📚 %d videos in %d categories", report.Videos, report.Categories)
	if report.Removed > 0 {
		body += fmt.Sprintf(", %d removed", report.Removed)
	}
	if report.ProbeFailures > 0 {
		body += fmt.Sprintf(" (%d without metadata)", report.ProbeFailures)
	}
	return n.send(ctx, message{
		title:    "streambot library scanned",
		body:     body,
		tags:     []string{"streambot", "library"},
		priority: "low",
	})
}

func (n *ntfy) Test(ctx context.Context) error {
	return n.send(ctx, message{
		title:    "streambot test",
		body:     "🧪 Notification test",
		tags:     []string{"streambot", "test"},
		priority: "low",
	})
}

func (n *ntfy) send(ctx context.Context, msg message) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, n.endpoint, strings.NewReader(msg.body))
	if err != nil {
		return fmt.Errorf("build ntfy request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Content-Type", "text/plain; charset=utf-8")
	req.Header.Set("Title", msg.title)
	if len(msg.tags) > 0 {
		req.Header.Set("Tags", strings.Join(msg.tags, ","))
	}
	if msg.priority != "" {
		req.Header.Set("Priority", msg.priority)
	}

	resp, err := n.client.Do(req)
	if err != nil {
		return fmt.Errorf("send ntfy notification: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
		return fmt.Errorf("ntfy returned %d: %s", resp.StatusCode, strings.TrimSpace(string(body)))
	}
	_, _ = io.Copy(io.Discard, resp.Body)
	return nil
}

// PlaybackListener forwards playback failures to n without blocking the
// player. Delivery errors are logged at warn.
func PlaybackListener(ctx context.Context, n Notifier, logger *slog.Logger) playback.Listener {
	if logger == nil {
		logger = logging.NewNop()
	}
	return func(ev playback.Event) {
		if ev.Type != playback.EventFailed {
			return
		}
		go func() {
			if err := n.PlaybackFailed(ctx, ev.Path, ev.Error); err != nil {
				logging.WarnWithContext(logger, "playback notification failed", "notification_failed",
					logging.String(logging.FieldImpact, "playback failure alert not delivered"),
					logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
					logging.Error(err),
				)
			}
		}()
	}
}

type noop struct{}

func (noop) BotStarted(context.Context, int) error                { return nil }
func (noop) BotStopped(context.Context, string) error             { return nil }
func (noop) PlaybackFailed(context.Context, string, string) error { return nil }
func (noop) ScanCompleted(context.Context, library.Report) error  { return nil }
func (noop) Test(context.Context) error                           { return nil }
