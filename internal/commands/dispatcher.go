package commands

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"sync"
	"unicode"
	"unicode/utf8"

	"github.com/google/uuid"

	"streambot/internal/catalog"
	"streambot/internal/config"
	"streambot/internal/deps"
	"streambot/internal/library"
	"streambot/internal/logging"
	"streambot/internal/playback"
	"streambot/internal/services"
	"streambot/internal/sysinfo"
	"streambot/internal/transport"
)

// Player is the playback surface commands drive.
type Player interface {
	Play(path string) error
	PlayPlaylist(paths []string) error
	Enqueue(paths []string) int
	Next() (playback.Status, bool, error)
	Prev() (playback.Status, bool, error)
	Stop() error
	Pause() error
	Resume() error
	Status() playback.Status
	Playlist() ([]string, int)
}

// Navigator opens interactive listings.
type Navigator interface {
	ShowCategories(ctx context.Context, channelID string) (transport.Message, error)
	ShowSearch(ctx context.Context, channelID, term string) (transport.Message, error)
}

// Store is the catalog surface commands read and write.
type Store interface {
	AllVideos(ctx context.Context) ([]catalog.Video, error)
	VideoByPath(ctx context.Context, path string) (*catalog.Video, error)
	MarkPlayed(ctx context.Context, id int64) error
	IsCommandChannel(ctx context.Context, channelID string) (bool, error)
	CommandChannelCount(ctx context.Context) (int, error)
	AddCommandChannel(ctx context.Context, channelID, guildID, name string) error
	AddVoiceChannel(ctx context.Context, channelID, guildID, name string) error
	MapChannels(ctx context.Context, commandChannelID, voiceChannelID string) error
	VoiceChannelFor(ctx context.Context, commandChannelID string) (string, error)
	ChannelMappings(ctx context.Context) ([]catalog.ChannelMapping, error)
}

// Scanner refreshes the catalog from disk.
type Scanner interface {
	Scan(ctx context.Context) (library.Report, error)
}

// Deps are the collaborators a Dispatcher needs. Scanner may be nil, in which
// case the scan command reports that scanning is unavailable.
type Deps struct {
	Config    *config.Config
	Transport transport.Transport
	Store     Store
	Player    Player
	Navigator Navigator
	Scanner   Scanner
	Logger    *slog.Logger
}

type request struct {
	msg  transport.Message
	name string
	args string
}

type command struct {
	name    string
	usage   string
	summary string
	section string
	run     func(ctx context.Context, d *Dispatcher, req request) error
}

// Dispatcher parses and runs commands. Commands execute one at a time.
type Dispatcher struct {
	cfg       *config.Config
	prefix    string
	transport transport.Transport
	store     Store
	player    Player
	nav       Navigator
	scanner   Scanner
	logger    *slog.Logger
	commands  map[string]command
	order     []command
	hostInfo  func(ctx context.Context) (sysinfo.Host, error)
	encoders  func(ctx context.Context, binary string) ([]deps.Encoder, error)

	mu sync.Mutex

	notifyMu      sync.Mutex
	notifyChannel string
}

// New builds a dispatcher.
func New(in Deps) *Dispatcher {
	prefix := in.Config.Discord.Prefix
	if prefix == "" {
		prefix = "$"
	}
	d := &Dispatcher{
		cfg:       in.Config,
		prefix:    prefix,
		transport: in.Transport,
		store:     in.Store,
		player:    in.Player,
		nav:       in.Navigator,
		scanner:   in.Scanner,
		logger:    logging.NewComponentLogger(in.Logger, "commands"),
		commands:  make(map[string]command),
		order:     table,
		hostInfo:  sysinfo.HostInfo,
		encoders:  deps.VideoEncoders,
	}
	for _, cmd := range table {
		d.commands[cmd.name] = cmd
	}
	return d
}

// Prefix returns the command prefix.
func (d *Dispatcher) Prefix() string {
	return d.prefix
}

// Parse splits content into a lower-cased command name and its raw argument
// string. ok is false when content does not start with prefix or names no
// command.
func Parse(prefix, content string) (name, args string, ok bool) {
	if prefix == "" || !strings.HasPrefix(content, prefix) {
		return "", "", false
	}
	rest := strings.TrimSpace(content[len(prefix):])
	if rest == "" {
		return "", "", false
	}
	name = rest
	if i := strings.IndexFunc(rest, unicode.IsSpace); i >= 0 {
		name, args = rest[:i], rest[i+1:]
	}
	return strings.ToLower(name), strings.TrimSpace(args), true
}

// HandleMessage runs msg if it is a command the author may issue in its
// channel. It matches transport.MessageHandler.
func (d *Dispatcher) HandleMessage(ctx context.Context, msg transport.Message) {
	_ = d.Execute(ctx, msg)
}

// Execute runs msg and returns the command error, if any. Messages that are
// not commands, unknown commands, and messages from unauthorized authors or
// channels return nil without a reply.
func (d *Dispatcher) Execute(ctx context.Context, msg transport.Message) (err error) {
	if ctx == nil {
		ctx = context.Background()
	}
	name, args, ok := Parse(d.prefix, msg.Content)
	if !ok {
		return nil
	}
	cmd, known := d.commands[name]
	if !known {
		return nil
	}
	if !d.authorAllowed(msg.AuthorID) {
		d.logger.Debug("command from unauthorized author ignored",
			logging.String(logging.FieldUserID, msg.AuthorID),
			logging.String("command", name),
		)
		return nil
	}

	ctx = services.WithRequestID(ctx, uuid.NewString())
	ctx = services.WithChannelID(ctx, msg.ChannelID)
	logger := logging.WithContext(ctx, d.logger).With(
		logging.String(logging.FieldUserID, msg.AuthorID),
		logging.String(logging.FieldMessageID, msg.ID),
		logging.String("command", name),
	)

	if allowed, gateErr := d.channelAllowed(ctx, msg.ChannelID); gateErr != nil {
		logging.WarnWithContext(logger, "command channel check failed", "command_gate_failed",
			logging.String(logging.FieldImpact, "command ignored"),
			logging.Error(gateErr),
		)
		return nil
	} else if !allowed {
		logger.Debug("command outside command channels ignored")
		return nil
	}

	d.mu.Lock()
	defer d.mu.Unlock()
	d.setNotifyChannel(msg.ChannelID)

	defer func() {
		if rec := recover(); rec != nil {
			err = fmt.Errorf("command panic: %v", rec)
			logging.ErrorWithContext(logger, "command panicked", "command_panic",
				logging.String(logging.FieldErrorHint, "report this with the log excerpt"),
				logging.Any("panic", rec),
			)
			d.replyError(ctx, logger, msg.ChannelID, err)
		}
	}()

	logger.Info("executing command", logging.String("args", args))
	err = cmd.run(ctx, d, request{msg: msg, name: name, args: args})
	if err != nil {
		logging.WarnWithContext(logger, "command failed", "command_failed",
			logging.String(logging.FieldImpact, "command had no effect"),
			logging.Error(err),
		)
		d.replyError(ctx, logger, msg.ChannelID, err)
	}
	return err
}

func (d *Dispatcher) authorAllowed(authorID string) bool {
	if authorID == "" {
		return false
	}
	return authorID == d.transport.SelfID() || d.cfg.IsAllowedUser(authorID)
}

// channelAllowed accepts the configured command channel and registered
// command channels. With neither configured, every channel is accepted.
func (d *Dispatcher) channelAllowed(ctx context.Context, channelID string) (bool, error) {
	configured := strings.TrimSpace(d.cfg.Discord.CommandChannelID)
	if configured != "" && configured == channelID {
		return true, nil
	}
	registered, err := d.store.IsCommandChannel(ctx, channelID)
	if err != nil {
		return false, err
	}
	if registered {
		return true, nil
	}
	if configured != "" {
		return false, nil
	}
	count, err := d.store.CommandChannelCount(ctx)
	if err != nil {
		return false, err
	}
	return count == 0, nil
}

func (d *Dispatcher) reply(ctx context.Context, channelID, text string) error {
	if _, err := d.transport.Send(ctx, channelID, transport.Text(text)); err != nil {
		return services.Wrap(services.ErrTransport, "commands", "reply", "send reply", err)
	}
	return nil
}

func (d *Dispatcher) replyError(ctx context.Context, logger *slog.Logger, channelID string, err error) {
	text := truncateRunes("Error executing command: "+err.Error(), transport.MaxContentLength)
	if _, sendErr := d.transport.Send(context.WithoutCancel(ctx), channelID, transport.Text(text)); sendErr != nil {
		logger.Debug("error reply failed", logging.Error(sendErr))
	}
}

// replyBlock sends header followed by lines inside code fences, split across
// as many messages as the content limit requires.
func (d *Dispatcher) replyBlock(ctx context.Context, channelID, header string, lines []string) error {
	for _, chunk := range chunkBlock(header, lines, transport.MaxContentLength) {
		if err := d.reply(ctx, channelID, chunk); err != nil {
			return err
		}
	}
	return nil
}

func chunkBlock(header string, lines []string, limit int) []string {
	const fenceOpen, fenceClose = "```\n", "\n```"
	var chunks []string
	var b strings.Builder
	start := func(withHeader bool) {
		b.Reset()
		if withHeader && header != "" {
			b.WriteString(header)
			b.WriteString("\n")
		}
		b.WriteString(fenceOpen)
	}
	start(true)
	count := 0
	budget := limit - len(fenceClose)
	for _, line := range lines {
		line = truncateRunes(line, budget-len(fenceOpen)-1)
		extra := utf8.RuneCountInString(line)
		if count > 0 {
			extra++
		}
		if count > 0 && utf8.RuneCountInString(b.String())+extra > budget {
			b.WriteString(fenceClose)
			chunks = append(chunks, b.String())
			start(false)
			count = 0
		}
		if count > 0 {
			b.WriteString("\n")
		}
		b.WriteString(line)
		count++
	}
	b.WriteString(fenceClose)
	return append(chunks, b.String())
}

func truncateRunes(s string, limit int) string {
	runes := []rune(s)
	if len(runes) <= limit {
		return s
	}
	if limit <= 1 {
		return string(runes[:limit])
	}
	return string(runes[:limit-1]) + "…"
}

func (d *Dispatcher) setNotifyChannel(channelID string) {
	d.notifyMu.Lock()
	d.notifyChannel = channelID
	d.notifyMu.Unlock()
}

// PlaybackListener reports playback failures and skipped files to the
// channel that issued the most recent command. Sends happen off the player's
// goroutine.
func (d *Dispatcher) PlaybackListener(ctx context.Context) playback.Listener {
	return func(ev playback.Event) {
		var text string
		switch ev.Type {
		case playback.EventFailed:
			text = fmt.Sprintf("Playback failed for %s: %s", baseName(ev.Path), ev.Error)
		case playback.EventSkipped:
			text = fmt.Sprintf("Skipped missing file: %s", baseName(ev.Path))
		default:
			return
		}
		d.notifyMu.Lock()
		channelID := d.notifyChannel
		d.notifyMu.Unlock()
		if channelID == "" {
			return
		}
		go func() {
			if err := d.reply(ctx, channelID, truncateRunes(text, transport.MaxContentLength)); err != nil {
				d.logger.Debug("playback notice failed", logging.Error(err))
			}
		}()
	}
}
