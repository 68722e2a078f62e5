package statusapi

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/gorilla/websocket"

	"streambot/internal/catalog"
	"streambot/internal/config"
	"streambot/internal/logging"
	"streambot/internal/nav"
	"streambot/internal/playback"
	"streambot/internal/sysinfo"
)

// Sessions lists live navigation sessions.
type Sessions interface {
	Snapshot() []nav.SessionInfo
}

// Player reports playback state.
type Player interface {
	Status() playback.Status
	Stats(ctx context.Context) (sysinfo.Process, error)
}

// CatalogStats summarizes the library.
type CatalogStats interface {
	Stats(ctx context.Context) (catalog.Stats, error)
}

// Sources feed the status document. Any of them may be nil.
type Sources struct {
	Sessions Sessions
	Player   Player
	Catalog  CatalogStats
}

// Server is the status HTTP server.
type Server struct {
	bind      string
	username  string
	password  string
	sources   Sources
	startedAt time.Time
	logger    *slog.Logger

	broadcaster *Broadcaster
	handler     http.Handler
	listener    net.Listener
	server      *http.Server
}

// New builds a server from cfg. It returns nil when the status server is
// disabled.
func New(cfg *config.Config, sources Sources, logger *slog.Logger) *Server {
	if cfg == nil || !cfg.Status.Enabled {
		return nil
	}
	s := &Server{
		bind:      strings.TrimSpace(cfg.Paths.StatusBind),
		username:  cfg.Status.Username,
		password:  cfg.Status.Password,
		sources:   sources,
		startedAt: time.Now(),
		logger:    logging.NewComponentLogger(logger, "status-api"),
	}
	s.broadcaster = NewBroadcaster(s.snapshot, s.logger)

	mux := http.NewServeMux()
	mux.HandleFunc("/api/status", s.basicAuth(s.handleStatus))
	mux.HandleFunc("/api/ws", s.basicAuth(s.handleWS))
	s.handler = mux
	s.server = &http.Server{
		Handler:           mux,
		ReadHeaderTimeout: 5 * time.Second,
		IdleTimeout:       60 * time.Second,
	}
	return s
}

// Handler exposes the routes for embedding and tests.
func (s *Server) Handler() http.Handler {
	return s.handler
}

// Broadcaster returns the websocket fan-out.
func (s *Server) Broadcaster() *Broadcaster {
	return s.broadcaster
}

// Start listens on the configured address and serves until ctx ends.
func (s *Server) Start(ctx context.Context) error {
	if s == nil {
		return nil
	}
	listener, err := net.Listen("tcp", s.bind)
	if err != nil {
		return fmt.Errorf("status listen: %w", err)
	}
	s.listener = listener

	go func() {
		if err := s.server.Serve(listener); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.logger.Error("status server error", logging.Error(err))
		}
	}()
	go func() {
		<-ctx.Done()
		s.Stop()
	}()

	s.logger.Info("status server listening", logging.String("address", listener.Addr().String()))
	return nil
}

// Addr returns the bound address once started.
func (s *Server) Addr() string {
	if s == nil || s.listener == nil {
		return ""
	}
	return s.listener.Addr().String()
}

// Stop shuts the server down and disconnects websocket clients.
func (s *Server) Stop() {
	if s == nil {
		return
	}
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	_ = s.server.Shutdown(shutdownCtx)
	s.broadcaster.Close()
}

func (s *Server) basicAuth(next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		user, pass, ok := r.BasicAuth()
		if !ok ||
			subtle.ConstantTimeCompare([]byte(user), []byte(s.username)) != 1 ||
			subtle.ConstantTimeCompare([]byte(pass), []byte(s.password)) != 1 {
			w.Header().Set("WWW-Authenticate", `Basic realm="streambot"`)
			s.writeError(w, http.StatusUnauthorized, "unauthorized")
			return
		}
		next(w, r)
	}
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		s.writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return
	}
	s.writeJSON(w, http.StatusOK, s.snapshot(r.Context()))
}

func (s *Server) handleWS(w http.ResponseWriter, r *http.Request) {
	upgrader := websocket.Upgrader{CheckOrigin: sameOrigin}
	conn, err := upgrader.Upgrade(w, r, nil)
	if err != nil {
		s.logger.Debug("websocket upgrade failed", logging.Error(err))
		return
	}
	c := s.broadcaster.AddClient(r.Context(), conn)
	s.logger.Debug("websocket client connected", logging.String("remote", r.RemoteAddr))

	go func() {
		defer func() {
			s.broadcaster.RemoveClient(c)
			s.logger.Debug("websocket client disconnected", logging.String("remote", r.RemoteAddr))
		}()
		for {
			if _, _, err := conn.ReadMessage(); err != nil {
				return
			}
		}
	}()
}

// snapshot assembles the status document. Source failures are reported in
// Errors rather than failing the request.
func (s *Server) snapshot(ctx context.Context) Status {
	status := Status{
		StartedAt: s.startedAt,
		Uptime:    time.Since(s.startedAt).Truncate(time.Second).String(),
		Sessions:  []nav.SessionInfo{},
	}
	addErr := func(key string, err error) {
		if status.Errors == nil {
			status.Errors = make(map[string]string)
		}
		status.Errors[key] = err.Error()
	}
	if s.sources.Sessions != nil {
		if sessions := s.sources.Sessions.Snapshot(); sessions != nil {
			status.Sessions = sessions
		}
	}
	if s.sources.Player != nil {
		status.Player = s.sources.Player.Status()
		if status.Player.PID != 0 {
			proc, err := s.sources.Player.Stats(ctx)
			if err != nil {
				addErr("process", err)
			} else {
				status.Process = &proc
			}
		}
	} else {
		status.Player = playback.Status{State: playback.StateIdle}
	}
	if s.sources.Catalog != nil {
		stats, err := s.sources.Catalog.Stats(ctx)
		if err != nil {
			addErr("catalog", err)
		} else {
			status.Catalog = &stats
		}
	}
	return status
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if payload == nil {
		return
	}
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		s.logger.Error("failed to encode response", logging.Error(err))
	}
}

func (s *Server) writeError(w http.ResponseWriter, status int, message string) {
	s.writeJSON(w, status, map[string]string{"error": message})
}

// sameOrigin accepts requests without an Origin header (non-browser clients)
// and browser requests whose origin host matches the request host.
func sameOrigin(r *http.Request) bool {
	origin := r.Header.Get("Origin")
	if origin == "" {
		return true
	}
	_, host, ok := strings.Cut(origin, "://")
	return ok && strings.EqualFold(host, r.Host)
}
