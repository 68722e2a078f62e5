package transport

import (
	"context"
	"errors"
	"time"
)

// MaxContentLength is the largest message body the chat service accepts.
const MaxContentLength = 2000

// ErrWaitTimeout is returned by WaitForMessage when no matching message
// arrives before the timeout elapses.
var ErrWaitTimeout = errors.New("timed out waiting for message")

// Field is a single name/value row inside an embed.
type Field struct {
	Name   string
	Value  string
	Inline bool
}

// Embed is the rich-content form of a message.
type Embed struct {
	Title       string
	Description string
	Fields      []Field
	Footer      string
	Color       int
}

// Len returns the number of characters the embed contributes toward the
// content limit.
func (e Embed) Len() int {
	n := runeLen(e.Title) + runeLen(e.Description) + runeLen(e.Footer)
	for _, f := range e.Fields {
		n += runeLen(f.Name) + runeLen(f.Value)
	}
	return n
}

// Content is the body of an outbound message: plain text, an embed, or both.
type Content struct {
	Text  string
	Embed *Embed
}

// Text builds plain-text content.
func Text(s string) Content {
	return Content{Text: s}
}

// EmbedContent builds embed-only content.
func EmbedContent(e Embed) Content {
	return Content{Embed: &e}
}

// Message is a chat message as seen by the bot.
type Message struct {
	ID        string
	ChannelID string
	GuildID   string
	AuthorID  string
	Content   string
	CreatedAt time.Time
}

// ReactionEvent is delivered when a user adds a reaction to a message.
type ReactionEvent struct {
	MessageID string
	ChannelID string
	UserID    string
	Emoji     string
}

// ReactionHandler consumes inbound reaction events.
type ReactionHandler func(ctx context.Context, event ReactionEvent)

// MessageHandler consumes inbound messages.
type MessageHandler func(ctx context.Context, msg Message)

// Transport is the messaging collaborator used by every chat-facing component.
type Transport interface {
	Send(ctx context.Context, channelID string, content Content) (Message, error)
	Edit(ctx context.Context, channelID, messageID string, content Content) error
	Delete(ctx context.Context, channelID, messageID string) error
	AddReaction(ctx context.Context, channelID, messageID, emoji string) error
	RemoveReaction(ctx context.Context, channelID, messageID, emoji, userID string) error
	WaitForMessage(ctx context.Context, match func(Message) bool, timeout time.Duration) (Message, error)
	SelfID() string
	OnReaction(handler ReactionHandler)
	OnMessage(handler MessageHandler)
}

func runeLen(s string) int {
	return len([]rune(s))
}
