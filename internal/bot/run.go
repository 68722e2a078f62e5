package bot

import (
	"context"
	"fmt"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/google/uuid"

	"streambot/internal/catalog"
	"streambot/internal/config"
	"streambot/internal/logging"
	"streambot/internal/preflight"
	"streambot/internal/services"
	"streambot/internal/transport/discord"
)

// Options configures a bot process.
type Options struct {
	LogLevel string
	SkipScan bool
}

// Run starts the bot against the live chat service and blocks until ctx is
// cancelled or the process receives SIGINT or SIGTERM.
func Run(cmdCtx context.Context, cfg *config.Config, opts Options) error {
	if cfg == nil {
		return fmt.Errorf("config is required")
	}
	if err := cfg.RequireDiscord(); err != nil {
		return services.Wrap(services.ErrConfiguration, "bot", "config", "missing discord credentials", err)
	}
	if level := strings.TrimSpace(opts.LogLevel); level != "" {
		cfg.Logging.Level = level
	}

	signalCtx, cancel := signal.NotifyContext(cmdCtx, syscall.SIGINT, syscall.SIGTERM)
	defer cancel()

	logger, err := logging.NewFromConfig(cfg)
	if err != nil {
		return fmt.Errorf("init logger: %w", err)
	}
	runID := uuid.NewString()
	logger = logger.With(logging.String(logging.FieldCorrelationID, runID))

	now := time.Now()
	if pruned := logging.PruneLogs(logger, cfg.Paths.LogDir, logging.DailyLogPath(cfg.Paths.LogDir, now), cfg.Logging.RetentionDays, now); pruned > 0 {
		logger.Info("pruned old logs", logging.Int("removed", pruned))
	}

	results := preflight.RunAll(signalCtx, cfg)
	for _, result := range results {
		if result.Passed {
			logger.Debug("preflight check passed", logging.String("check", result.Name), logging.String("detail", result.Detail))
		}
	}
	if failed := preflight.Failed(results); len(failed) > 0 {
		for _, result := range failed {
			logging.ErrorWithContext(logger, "preflight check failed", "preflight_failed",
				logging.String("check", result.Name),
				logging.String("detail", result.Detail),
				logging.String(logging.FieldErrorHint, "run `streambot status` for details"),
			)
		}
		return services.Wrap(services.ErrConfiguration, "bot", "preflight", fmt.Sprintf("%d required checks failed", len(failed)), nil)
	}

	store, err := catalog.Open(cfg)
	if err != nil {
		logger.Error("open catalog", logging.Error(err))
		return err
	}
	defer store.Close()

	client, err := discord.New(cfg.Discord.Token, logger)
	if err != nil {
		return err
	}

	runtime, err := Build(cfg, store, client, logger)
	if err != nil {
		return fmt.Errorf("build runtime: %w", err)
	}
	if err := runtime.Start(signalCtx, StartOptions{SkipScan: opts.SkipScan}); err != nil {
		return err
	}
	defer runtime.Stop()

	if err := client.Open(signalCtx); err != nil {
		return err
	}
	defer func() {
		if err := client.Close(); err != nil {
			logger.Warn("discord close failed", logging.Error(err))
		}
	}()
	registerConfiguredChannels(signalCtx, cfg, store, client, logger)

	<-signalCtx.Done()
	logger.Info("streambot shutting down", logging.String(logging.FieldEventType, "bot_shutdown"))
	return nil
}
