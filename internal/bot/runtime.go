package bot

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/gofrs/flock"

	"streambot/internal/catalog"
	"streambot/internal/commands"
	"streambot/internal/config"
	"streambot/internal/library"
	"streambot/internal/logging"
	"streambot/internal/nav"
	"streambot/internal/notifications"
	"streambot/internal/playback"
	"streambot/internal/statusapi"
	"streambot/internal/transport"
)

// ErrAlreadyRunning is returned when another instance holds the lock.
var ErrAlreadyRunning = errors.New("another streambot instance is already running")

// Runtime holds the wired components for one bot process.
type Runtime struct {
	cfg       *config.Config
	logger    *slog.Logger
	store     *catalog.Store
	transport transport.Transport

	registry   *nav.Registry
	controller *nav.Controller
	router     *nav.Router
	dispatcher *commands.Dispatcher
	player     *playback.Player
	scanner    *library.Scanner
	status     *statusapi.Server
	notifier   notifications.Notifier

	lockPath string
	lock     *flock.Flock
	running  atomic.Bool
	cancel   context.CancelFunc
	hooks    sync.Once
}

// Build wires every component around tr. Nothing starts until Start.
func Build(cfg *config.Config, store *catalog.Store, tr transport.Transport, logger *slog.Logger) (*Runtime, error) {
	if cfg == nil || store == nil || tr == nil {
		return nil, errors.New("runtime requires config, store, and transport")
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	registry := nav.NewRegistry()
	prompter := nav.NewPrompter(tr, cfg.PromptTimeout(), logger)
	controller := nav.NewController(store, tr, registry, prompter, nav.OptionsFromConfig(cfg), logger)
	player := playback.New(cfg, logger)
	scanner := library.NewScanner(cfg.Paths.VideosDir, store, library.FFprobe(cfg.FFprobeBinary()), logger)
	dispatcher := commands.New(commands.Deps{
		Config:    cfg,
		Transport: tr,
		Store:     store,
		Player:    player,
		Navigator: controller,
		Scanner:   scanner,
		Logger:    logger,
	})
	status := statusapi.New(cfg, statusapi.Sources{
		Sessions: registry,
		Player:   player,
		Catalog:  store,
	}, logger)

	lockPath := filepath.Join(cfg.Paths.LogDir, "streambot.lock")
	return &Runtime{
		cfg:        cfg,
		logger:     logging.NewComponentLogger(logger, "bot"),
		store:      store,
		transport:  tr,
		registry:   registry,
		controller: controller,
		router:     nav.NewRouter(registry, tr, cfg.IsAllowedUser, logger),
		dispatcher: dispatcher,
		player:     player,
		scanner:    scanner,
		status:     status,
		notifier:   notifications.New(cfg),
		lockPath:   lockPath,
		lock:       flock.New(lockPath),
	}, nil
}

// StartOptions tune Start.
type StartOptions struct {
	SkipScan bool
}

// Start takes the instance lock, refreshes the library, subscribes to
// transport events, and starts the status server when enabled.
func (r *Runtime) Start(ctx context.Context, opts StartOptions) error {
	if r.running.Load() {
		return errors.New("runtime already running")
	}
	if err := os.MkdirAll(filepath.Dir(r.lockPath), 0o755); err != nil {
		return fmt.Errorf("create lock directory: %w", err)
	}
	ok, err := r.lock.TryLock()
	if err != nil {
		return fmt.Errorf("acquire lock: %w", err)
	}
	if !ok {
		return ErrAlreadyRunning
	}

	runCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel

	if !opts.SkipScan {
		report, scanErr := r.scanner.Scan(runCtx)
		if scanErr != nil {
			logging.WarnWithContext(r.logger, "initial library scan failed", "library_scan_failed",
				logging.String(logging.FieldImpact, "catalog may be stale until the next scan"),
				logging.String(logging.FieldErrorHint, "check paths.videos_dir and ffprobe"),
				logging.Error(scanErr),
			)
		} else {
			r.logger.Info("library ready",
				logging.Int("videos", report.Videos),
				logging.Int("categories", report.Categories),
				logging.Int("removed", report.Removed),
			)
			r.notify(runCtx, "scan", func(ctx context.Context) error { return r.notifier.ScanCompleted(ctx, report) })
		}
	}

	r.hooks.Do(func() {
		r.player.Subscribe(r.dispatcher.PlaybackListener(context.WithoutCancel(runCtx)))
		r.player.Subscribe(notifications.PlaybackListener(context.WithoutCancel(runCtx), r.notifier, r.logger))
		if r.status != nil {
			r.player.Subscribe(r.status.Broadcaster().PlaybackListener())
		}
		r.transport.OnReaction(func(ctx context.Context, event transport.ReactionEvent) {
			if r.running.Load() {
				_ = r.router.HandleReaction(ctx, event)
			}
		})
		r.transport.OnMessage(func(ctx context.Context, msg transport.Message) {
			if r.running.Load() {
				r.dispatcher.HandleMessage(ctx, msg)
			}
		})
	})
	if r.status != nil {
		if err := r.status.Start(runCtx); err != nil {
			cancel()
			_ = r.lock.Unlock()
			return err
		}
	}

	r.running.Store(true)
	r.logger.Info("streambot started",
		logging.String("lock", r.lockPath),
		logging.String("prefix", r.dispatcher.Prefix()),
		logging.String(logging.FieldEventType, "bot_started"),
	)
	r.notify(runCtx, "started", func(ctx context.Context) error {
		stats, err := r.store.Stats(ctx)
		if err != nil {
			return err
		}
		return r.notifier.BotStarted(ctx, stats.Videos)
	})
	return nil
}

// Stop halts playback, the status server, and event handling, then releases
// the lock.
func (r *Runtime) Stop() {
	if !r.running.Swap(false) {
		return
	}
	if r.cancel != nil {
		r.cancel()
		r.cancel = nil
	}
	r.player.Close()
	r.status.Stop()
	if err := r.lock.Unlock(); err != nil {
		r.logger.Warn("failed to release lock", logging.Error(err))
	}
	r.notify(context.Background(), "stopped", func(ctx context.Context) error {
		return r.notifier.BotStopped(ctx, "shutdown requested")
	})
	r.logger.Info("streambot stopped", logging.Int("open_sessions", r.registry.Len()))
}

// notify delivers one alert with a bounded wait; failures only log.
func (r *Runtime) notify(ctx context.Context, kind string, send func(context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()
	if err := send(ctx); err != nil {
		logging.WarnWithContext(r.logger, "notification failed", "notification_failed",
			logging.String("notification", kind),
			logging.String(logging.FieldImpact, "alert not delivered"),
			logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
			logging.Error(err),
		)
	}
}

// Registry exposes live navigation sessions.
func (r *Runtime) Registry() *nav.Registry { return r.registry }

// Player exposes the player.
func (r *Runtime) Player() *playback.Player { return r.player }

// Dispatcher exposes the command dispatcher.
func (r *Runtime) Dispatcher() *commands.Dispatcher { return r.dispatcher }

// StatusAddr returns the status server address, or "" when disabled.
func (r *Runtime) StatusAddr() string { return r.status.Addr() }
