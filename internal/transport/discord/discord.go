// Package discord adapts discordgo to the transport.Transport interface.
package discord

import (
	"context"
	"errors"
	"log/slog"
	"strings"
	"sync"
	"time"

	"github.com/bwmarrin/discordgo"

	"streambot/internal/logging"
	"streambot/internal/services"
	"streambot/internal/transport"
)

const (
	intents = discordgo.IntentsGuilds |
		discordgo.IntentsGuildMessages |
		discordgo.IntentsGuildMessageReactions |
		discordgo.IntentsDirectMessages |
		discordgo.IntentsMessageContent

	embedColor = 0x5865F2
)

// Client is a Transport backed by a Discord gateway session.
type Client struct {
	session *discordgo.Session
	logger  *slog.Logger
	waiters transport.Waiters
	inbox   transport.Inbox

	mu     sync.RWMutex
	selfID string
	ready  chan struct{}
	once   sync.Once
}

// New builds a client for the given bot token. The gateway connection is not
// opened until Open is called.
func New(token string, logger *slog.Logger) (*Client, error) {
	token = strings.TrimSpace(token)
	if token == "" {
		return nil, services.Wrap(services.ErrConfiguration, "discord", "new", "discord token is empty", nil)
	}
	session, err := discordgo.New("Bot " + token)
	if err != nil {
		return nil, services.Wrap(services.ErrConfiguration, "discord", "new", "create session", err)
	}
	session.Identify.Intents = intents
	session.StateEnabled = true
	// Handlers run on the gateway loop in event order; anything that can
	// block is handed off below.
	session.SyncEvents = true

	c := &Client{
		session: session,
		logger:  logging.NewComponentLogger(logger, "discord"),
		ready:   make(chan struct{}),
	}
	session.AddHandler(c.onReady)
	session.AddHandler(c.onMessageCreate)
	return c, nil
}

// Open connects to the gateway and waits for the ready event.
func (c *Client) Open(ctx context.Context) error {
	if err := c.session.Open(); err != nil {
		return services.Wrap(services.ErrTransport, "discord", "open", "connect to gateway", err)
	}
	select {
	case <-c.ready:
		return nil
	case <-ctx.Done():
		_ = c.session.Close()
		return ctx.Err()
	case <-time.After(30 * time.Second):
		_ = c.session.Close()
		return services.Wrap(services.ErrTimeout, "discord", "open", "gateway ready not received", nil)
	}
}

// Close disconnects from the gateway.
func (c *Client) Close() error {
	return c.session.Close()
}

// SelfID returns the bot user id once the gateway is ready.
func (c *Client) SelfID() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.selfID
}

// OnReaction registers a reaction-add handler. Each event runs on its own
// goroutine, since handlers may block waiting on a prompt reply.
func (c *Client) OnReaction(handler transport.ReactionHandler) {
	c.session.AddHandler(func(_ *discordgo.Session, ev *discordgo.MessageReactionAdd) {
		if ev == nil || ev.MessageReaction == nil {
			return
		}
		go handler(context.Background(), transport.ReactionEvent{
			MessageID: ev.MessageID,
			ChannelID: ev.ChannelID,
			UserID:    ev.UserID,
			Emoji:     ev.Emoji.Name,
		})
	})
}

// OnMessage registers a message-create handler. Messages are handled one at
// a time in gateway order, so a handoff split across several messages runs in
// the order it was sent.
func (c *Client) OnMessage(handler transport.MessageHandler) {
	c.session.AddHandler(func(_ *discordgo.Session, ev *discordgo.MessageCreate) {
		if ev == nil || ev.Message == nil {
			return
		}
		c.inbox.Push(context.Background(), convertMessage(ev.Message), []transport.MessageHandler{handler})
	})
}

// Send posts a message to channelID.
func (c *Client) Send(ctx context.Context, channelID string, content transport.Content) (transport.Message, error) {
	payload := &discordgo.MessageSend{Content: content.Text}
	if content.Embed != nil {
		payload.Embeds = []*discordgo.MessageEmbed{convertEmbed(*content.Embed)}
	}
	msg, err := c.session.ChannelMessageSendComplex(channelID, payload, discordgo.WithContext(ctx))
	if err != nil {
		return transport.Message{}, services.Wrap(services.ErrTransport, "discord", "send", "send message", err)
	}
	return convertMessage(msg), nil
}

// Edit replaces the content of an existing message.
func (c *Client) Edit(ctx context.Context, channelID, messageID string, content transport.Content) error {
	edit := discordgo.NewMessageEdit(channelID, messageID).SetContent(content.Text)
	if content.Embed != nil {
		edit = edit.SetEmbeds([]*discordgo.MessageEmbed{convertEmbed(*content.Embed)})
	}
	if _, err := c.session.ChannelMessageEditComplex(edit, discordgo.WithContext(ctx)); err != nil {
		return services.Wrap(services.ErrTransport, "discord", "edit", "edit message", err)
	}
	return nil
}

// Delete removes a message.
func (c *Client) Delete(ctx context.Context, channelID, messageID string) error {
	if err := c.session.ChannelMessageDelete(channelID, messageID, discordgo.WithContext(ctx)); err != nil {
		return services.Wrap(services.ErrTransport, "discord", "delete", "delete message", err)
	}
	return nil
}

// AddReaction reacts to a message as the bot.
func (c *Client) AddReaction(ctx context.Context, channelID, messageID, emoji string) error {
	if err := c.session.MessageReactionAdd(channelID, messageID, emoji, discordgo.WithContext(ctx)); err != nil {
		return services.Wrap(services.ErrTransport, "discord", "add reaction", emoji, err)
	}
	return nil
}

// RemoveReaction removes userID's reaction from a message.
func (c *Client) RemoveReaction(ctx context.Context, channelID, messageID, emoji, userID string) error {
	if err := c.session.MessageReactionRemove(channelID, messageID, emoji, userID, discordgo.WithContext(ctx)); err != nil {
		return services.Wrap(services.ErrTransport, "discord", "remove reaction", emoji, err)
	}
	return nil
}

// WaitForMessage blocks until a message accepted by match is created.
func (c *Client) WaitForMessage(ctx context.Context, match func(transport.Message) bool, timeout time.Duration) (transport.Message, error) {
	return c.waiters.Wait(ctx, match, timeout)
}

// ChannelName resolves a channel id to its display name and guild.
func (c *Client) ChannelName(ctx context.Context, channelID string) (name, guildID string, err error) {
	if ch, stateErr := c.session.State.Channel(channelID); stateErr == nil && ch != nil {
		return ch.Name, ch.GuildID, nil
	}
	ch, err := c.session.Channel(channelID, discordgo.WithContext(ctx))
	if err != nil {
		return "", "", services.Wrap(services.ErrNotFound, "discord", "channel", channelID, err)
	}
	return ch.Name, ch.GuildID, nil
}

func (c *Client) onReady(_ *discordgo.Session, ev *discordgo.Ready) {
	if ev == nil || ev.User == nil {
		return
	}
	c.mu.Lock()
	c.selfID = ev.User.ID
	c.mu.Unlock()
	c.logger.Info("discord gateway ready",
		logging.String("user", ev.User.Username),
		logging.Int("guilds", len(ev.Guilds)),
	)
	c.once.Do(func() { close(c.ready) })
}

func (c *Client) onMessageCreate(_ *discordgo.Session, ev *discordgo.MessageCreate) {
	if ev == nil || ev.Message == nil {
		return
	}
	c.waiters.Dispatch(convertMessage(ev.Message))
}

func convertMessage(msg *discordgo.Message) transport.Message {
	out := transport.Message{
		ID:        msg.ID,
		ChannelID: msg.ChannelID,
		GuildID:   msg.GuildID,
		Content:   msg.Content,
		CreatedAt: msg.Timestamp,
	}
	if msg.Author != nil {
		out.AuthorID = msg.Author.ID
	}
	return out
}

func convertEmbed(e transport.Embed) *discordgo.MessageEmbed {
	color := e.Color
	if color == 0 {
		color = embedColor
	}
	embed := &discordgo.MessageEmbed{
		Title:       e.Title,
		Description: e.Description,
		Color:       color,
	}
	if e.Footer != "" {
		embed.Footer = &discordgo.MessageEmbedFooter{Text: e.Footer}
	}
	for _, f := range e.Fields {
		embed.Fields = append(embed.Fields, &discordgo.MessageEmbedField{Name: f.Name, Value: f.Value, Inline: f.Inline})
	}
	return embed
}

// IsNotFound reports whether err is a Discord "unknown message" or 404 response.
func IsNotFound(err error) bool {
	var restErr *discordgo.RESTError
	if !errors.As(err, &restErr) || restErr.Response == nil {
		return false
	}
	return restErr.Response.StatusCode == 404
}

var _ transport.Transport = (*Client)(nil)
