package playback

import (
	"context"
	"errors"
	"log/slog"
	"os"
	"os/exec"
	"strings"
	"sync"
	"time"

	"golang.org/x/sys/unix"

	"streambot/internal/config"
	"streambot/internal/logging"
	"streambot/internal/services"
	"streambot/internal/sysinfo"
)

// State is the coarse player state.
type State string

const (
	StateIdle    State = "idle"
	StatePlaying State = "playing"
	StatePaused  State = "paused"
)

var (
	ErrNotPlaying      = errors.New("nothing is playing")
	ErrNotPaused       = errors.New("playback is not paused")
	ErrAlreadyPaused   = errors.New("playback is already paused")
	ErrEmptyPlaylist   = errors.New("playlist is empty")
	ErrNothingPlayable = errors.New("no playable files in playlist")
)

const (
	defaultStopTimeout = 5 * time.Second
	stderrTailBytes    = 4096
)

// Status is a snapshot of the player.
type Status struct {
	State     State     `json:"state"`
	Path      string    `json:"path,omitempty"`
	Index     int       `json:"index"`
	Total     int       `json:"total"`
	StartedAt time.Time `json:"started_at,omitempty"`
	PID       int       `json:"pid,omitempty"`
}

type track struct {
	cmd     *exec.Cmd
	done    chan struct{}
	path    string
	started time.Time
	stderr  *tailBuffer
	stopped bool
}

// Player owns the ffmpeg process and the playlist it walks.
type Player struct {
	stream      config.Stream
	binary      string
	logger      *slog.Logger
	exists      func(string) bool
	stopTimeout time.Duration

	mu        sync.Mutex
	current   *track
	paused    bool
	playlist  []string
	index     int
	listeners []Listener
}

// New builds a player from the stream settings in cfg.
func New(cfg *config.Config, logger *slog.Logger) *Player {
	binary := strings.TrimSpace(cfg.Stream.FFmpegPath)
	if binary == "" {
		binary = "ffmpeg"
	}
	return &Player{
		stream:      cfg.Stream,
		binary:      binary,
		logger:      logging.NewComponentLogger(logger, "playback"),
		exists:      fileExists,
		stopTimeout: defaultStopTimeout,
	}
}

// Subscribe registers a listener for player events.
func (p *Player) Subscribe(listener Listener) {
	if listener == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.listeners = append(p.listeners, listener)
}

// Play replaces the playlist with a single file and starts it.
func (p *Player) Play(path string) error {
	return p.PlayPlaylist([]string{path})
}

// PlayPlaylist replaces the playlist and starts its first playable entry.
func (p *Player) PlayPlaylist(paths []string) error {
	if len(paths) == 0 {
		return ErrEmptyPlaylist
	}
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
	p.playlist = append([]string(nil), paths...)
	p.index = 0
	return p.startFromLocked(0, 1, false)
}

// Enqueue appends paths to the playlist and returns its new length.
func (p *Player) Enqueue(paths []string) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.playlist = append(p.playlist, paths...)
	return len(p.playlist)
}

// Next moves to the following entry, wrapping to the start after the last
// one. wrapped reports whether the wrap happened.
func (p *Player) Next() (status Status, wrapped bool, err error) {
	return p.step(1)
}

// Prev moves to the preceding entry, wrapping to the end before the first.
func (p *Player) Prev() (status Status, wrapped bool, err error) {
	return p.step(-1)
}

func (p *Player) step(dir int) (Status, bool, error) {
	p.mu.Lock()
	defer p.mu.Unlock()
	n := len(p.playlist)
	if n == 0 {
		return p.statusLocked(), false, ErrEmptyPlaylist
	}
	target := p.index + dir
	wrapped := false
	if target >= n {
		target, wrapped = 0, true
	} else if target < 0 {
		target, wrapped = n-1, true
	}
	p.stopLocked()
	err := p.startFromLocked(target, dir, true)
	return p.statusLocked(), wrapped, err
}

// Stop ends playback. The playlist is kept so next/prev can resume it.
func (p *Player) Stop() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return ErrNotPlaying
	}
	path := p.current.path
	p.stopLocked()
	p.emitLocked(EventStopped, path, "")
	return nil
}

// Pause suspends the ffmpeg process.
func (p *Player) Pause() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return ErrNotPlaying
	}
	if p.paused {
		return ErrAlreadyPaused
	}
	if err := p.current.cmd.Process.Signal(unix.SIGSTOP); err != nil {
		return services.Wrap(services.ErrExternalTool, "playback", "pause", "suspend ffmpeg", err)
	}
	p.paused = true
	p.emitLocked(EventPaused, p.current.path, "")
	return nil
}

// Resume continues a paused ffmpeg process.
func (p *Player) Resume() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.current == nil {
		return ErrNotPlaying
	}
	if !p.paused {
		return ErrNotPaused
	}
	if err := p.current.cmd.Process.Signal(unix.SIGCONT); err != nil {
		return services.Wrap(services.ErrExternalTool, "playback", "resume", "continue ffmpeg", err)
	}
	p.paused = false
	p.emitLocked(EventResumed, p.current.path, "")
	return nil
}

// Status returns a snapshot of the player.
func (p *Player) Status() Status {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.statusLocked()
}

// Playlist returns a copy of the playlist and the current index.
func (p *Player) Playlist() ([]string, int) {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]string(nil), p.playlist...), p.index
}

// Stats samples CPU and memory use of the running ffmpeg process.
func (p *Player) Stats(ctx context.Context) (sysinfo.Process, error) {
	status := p.Status()
	if status.PID == 0 {
		return sysinfo.Process{}, ErrNotPlaying
	}
	return sysinfo.SampleProcess(ctx, status.PID)
}

// Close stops any running process.
func (p *Player) Close() {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.stopLocked()
}

func (p *Player) statusLocked() Status {
	status := Status{State: StateIdle, Index: p.index, Total: len(p.playlist)}
	if p.current == nil {
		return status
	}
	status.State = StatePlaying
	if p.paused {
		status.State = StatePaused
	}
	status.Path = p.current.path
	status.StartedAt = p.current.started
	if p.current.cmd.Process != nil {
		status.PID = p.current.cmd.Process.Pid
	}
	return status
}

// startFromLocked starts the first playable entry at or after idx, moving in
// direction dir. Missing files are skipped. With wrap the search continues
// past either end of the playlist.
func (p *Player) startFromLocked(idx, dir int, wrap bool) error {
	n := len(p.playlist)
	for attempt := 0; attempt < n; attempt++ {
		i := idx + dir*attempt
		if wrap {
			i = ((i % n) + n) % n
		} else if i < 0 || i >= n {
			break
		}
		path := p.playlist[i]
		if !p.exists(path) {
			logging.WarnWithContext(p.logger, "playlist entry missing, skipping", "playback_missing_file",
				logging.String("path", path),
				logging.String(logging.FieldImpact, "entry skipped"),
				logging.String(logging.FieldErrorHint, "rescan the library to drop removed files"),
			)
			p.index = i
			p.emitLocked(EventSkipped, path, "file not found")
			continue
		}
		p.index = i
		return p.launchLocked(path)
	}
	return ErrNothingPlayable
}

func (p *Player) launchLocked(path string) error {
	if strings.TrimSpace(p.stream.OutputURL) == "" {
		return services.Wrap(services.ErrConfiguration, "playback", "start", "stream.output_url is not set", nil)
	}
	cmd := exec.Command(p.binary, BuildArgs(p.stream, path)...)
	stderr := &tailBuffer{max: stderrTailBytes}
	cmd.Stderr = stderr
	if err := cmd.Start(); err != nil {
		p.emitLocked(EventFailed, path, err.Error())
		return services.Wrap(services.ErrExternalTool, "playback", "start", "launch ffmpeg", err)
	}
	t := &track{cmd: cmd, done: make(chan struct{}), path: path, started: time.Now(), stderr: stderr}
	p.current = t
	p.paused = false
	p.logger.Info("playback started",
		logging.String("path", path),
		logging.Int("pid", cmd.Process.Pid),
		logging.Int("index", p.index+1),
		logging.Int("total", len(p.playlist)),
	)
	p.emitLocked(EventStarted, path, "")
	go p.monitor(t)
	return nil
}

// monitor waits for a track's process to exit. Tracks that end on their own
// advance the playlist; failures stop it.
func (p *Player) monitor(t *track) {
	err := t.cmd.Wait()
	close(t.done)

	p.mu.Lock()
	defer p.mu.Unlock()
	if t.stopped || p.current != t {
		return
	}
	p.current = nil
	p.paused = false
	if err != nil {
		detail := strings.TrimSpace(t.stderr.String())
		logging.WarnWithContext(p.logger, "ffmpeg exited with error", "playback_failed",
			logging.String("path", t.path),
			logging.String("stderr", detail),
			logging.String(logging.FieldImpact, "playback stopped"),
			logging.String(logging.FieldErrorHint, "check stream.output_url and the input file"),
			logging.Error(err),
		)
		p.emitLocked(EventFailed, t.path, firstNonEmpty(detail, err.Error()))
		return
	}
	p.emitLocked(EventFinished, t.path, "")
	if p.index+1 < len(p.playlist) {
		if startErr := p.startFromLocked(p.index+1, 1, false); startErr != nil && !errors.Is(startErr, ErrNothingPlayable) {
			p.logger.Warn("advance playlist failed", logging.Error(startErr))
		}
	}
}

// stopLocked terminates the current process and waits for it to exit.
func (p *Player) stopLocked() {
	t := p.current
	if t == nil {
		return
	}
	t.stopped = true
	p.current = nil
	proc := t.cmd.Process
	if p.paused {
		_ = proc.Signal(unix.SIGCONT)
	}
	p.paused = false
	_ = proc.Signal(unix.SIGTERM)
	select {
	case <-t.done:
	case <-time.After(p.stopTimeout):
		_ = proc.Kill()
		<-t.done
	}
	p.logger.Debug("playback process stopped", logging.String("path", t.path))
}

func (p *Player) emitLocked(kind EventType, path, detail string) {
	event := Event{Type: kind, Path: path, Index: p.index, Total: len(p.playlist), Error: detail, At: time.Now()}
	for _, listener := range p.listeners {
		listener(event)
	}
}

func fileExists(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func firstNonEmpty(values ...string) string {
	for _, v := range values {
		if v != "" {
			return v
		}
	}
	return ""
}

// tailBuffer keeps the last max bytes written to it.
type tailBuffer struct {
	mu  sync.Mutex
	max int
	buf []byte
}

func (b *tailBuffer) Write(data []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.buf = append(b.buf, data...)
	if over := len(b.buf) - b.max; over > 0 {
		b.buf = b.buf[over:]
	}
	return len(data), nil
}

func (b *tailBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return string(b.buf)
}
