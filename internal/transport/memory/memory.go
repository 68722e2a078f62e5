// Package memory provides an in-process Transport for tests and local
// experimentation. Outbound operations are recorded so callers can assert on
// them; inbound reactions and messages are injected with React and Post.
package memory

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"sync"
	"time"

	"streambot/internal/transport"
)

// ErrUnknownMessage is returned when an operation targets a message that was
// never sent or has been deleted.
var ErrUnknownMessage = errors.New("unknown message")

// Op names a recorded outbound operation.
type Op string

const (
	OpSend           Op = "send"
	OpEdit           Op = "edit"
	OpDelete         Op = "delete"
	OpAddReaction    Op = "add_reaction"
	OpRemoveReaction Op = "remove_reaction"
)

// Call is one recorded outbound operation.
type Call struct {
	Op        Op
	ChannelID string
	MessageID string
	Emoji     string
	UserID    string
	Content   transport.Content
}

// Message is a stored message together with its rendered content.
type Message struct {
	transport.Message
	Body      transport.Content
	Reactions []string
	Edits     int
}

// Transport is a goroutine-safe in-memory implementation of transport.Transport.
type Transport struct {
	selfID string

	mu         sync.Mutex
	seq        int
	messages   map[string]*Message
	order      []string
	deleted    map[string]bool
	calls      []Call
	failures   map[Op]error
	reactionFn []transport.ReactionHandler
	messageFn  []transport.MessageHandler

	sent    chan Message
	waiters transport.Waiters
	inbox   transport.Inbox
}

// New returns an empty transport whose own user id is selfID.
func New(selfID string) *Transport {
	return &Transport{
		selfID:   selfID,
		messages: make(map[string]*Message),
		deleted:  make(map[string]bool),
		failures: make(map[Op]error),
		sent:     make(chan Message, 256),
	}
}

// SelfID returns the bot's own user id.
func (t *Transport) SelfID() string { return t.selfID }

// OnReaction registers a handler for injected reactions.
func (t *Transport) OnReaction(handler transport.ReactionHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.reactionFn = append(t.reactionFn, handler)
}

// OnMessage registers a handler for posted messages, including the bot's own.
func (t *Transport) OnMessage(handler transport.MessageHandler) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.messageFn = append(t.messageFn, handler)
}

// Fail makes every subsequent op of the given kind return err. A nil err
// clears the failure.
func (t *Transport) Fail(op Op, err error) {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err == nil {
		delete(t.failures, op)
		return
	}
	t.failures[op] = err
}

// Send stores a new bot-authored message and queues it for message handlers
// so handoff commands run the same way they do on a live service: off the
// caller's goroutine, one at a time, in send order.
func (t *Transport) Send(ctx context.Context, channelID string, content transport.Content) (transport.Message, error) {
	t.mu.Lock()
	if err := t.failures[OpSend]; err != nil {
		t.mu.Unlock()
		return transport.Message{}, err
	}
	if content.Embed == nil && len([]rune(content.Text)) > transport.MaxContentLength {
		t.mu.Unlock()
		return transport.Message{}, fmt.Errorf("content exceeds %d characters", transport.MaxContentLength)
	}
	stored := t.storeLocked(channelID, t.selfID, content)
	t.calls = append(t.calls, Call{Op: OpSend, ChannelID: channelID, MessageID: stored.ID, Content: content})
	snapshot := *stored
	handlers := append([]transport.MessageHandler(nil), t.messageFn...)
	t.mu.Unlock()

	select {
	case t.sent <- snapshot:
	default:
	}
	if content.Text != "" {
		t.waiters.Dispatch(snapshot.Message)
		t.inbox.Push(context.WithoutCancel(ctx), snapshot.Message, handlers)
	}
	return snapshot.Message, nil
}

// Edit replaces a message's content.
func (t *Transport) Edit(_ context.Context, channelID, messageID string, content transport.Content) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.failures[OpEdit]; err != nil {
		return err
	}
	msg, ok := t.messages[messageID]
	if !ok {
		return ErrUnknownMessage
	}
	msg.Body = content
	msg.Content = content.Text
	msg.Edits++
	t.calls = append(t.calls, Call{Op: OpEdit, ChannelID: channelID, MessageID: messageID, Content: content})
	return nil
}

// Delete removes a message.
func (t *Transport) Delete(_ context.Context, channelID, messageID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.failures[OpDelete]; err != nil {
		return err
	}
	if _, ok := t.messages[messageID]; !ok {
		return ErrUnknownMessage
	}
	delete(t.messages, messageID)
	t.deleted[messageID] = true
	t.calls = append(t.calls, Call{Op: OpDelete, ChannelID: channelID, MessageID: messageID})
	return nil
}

// AddReaction records a bot reaction on a message.
func (t *Transport) AddReaction(_ context.Context, channelID, messageID, emoji string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.failures[OpAddReaction]; err != nil {
		return err
	}
	msg, ok := t.messages[messageID]
	if !ok {
		return ErrUnknownMessage
	}
	msg.Reactions = append(msg.Reactions, emoji)
	t.calls = append(t.calls, Call{Op: OpAddReaction, ChannelID: channelID, MessageID: messageID, Emoji: emoji})
	return nil
}

// RemoveReaction records removal of a user's reaction.
func (t *Transport) RemoveReaction(_ context.Context, channelID, messageID, emoji, userID string) error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if err := t.failures[OpRemoveReaction]; err != nil {
		return err
	}
	if _, ok := t.messages[messageID]; !ok {
		return ErrUnknownMessage
	}
	t.calls = append(t.calls, Call{Op: OpRemoveReaction, ChannelID: channelID, MessageID: messageID, Emoji: emoji, UserID: userID})
	return nil
}

// WaitForMessage blocks until a posted message satisfies match.
func (t *Transport) WaitForMessage(ctx context.Context, match func(transport.Message) bool, timeout time.Duration) (transport.Message, error) {
	return t.waiters.Wait(ctx, match, timeout)
}

// Post injects a user-authored message. Pending waiters see it first, then it
// is delivered synchronously to message handlers.
func (t *Transport) Post(ctx context.Context, channelID, authorID, text string) transport.Message {
	t.mu.Lock()
	stored := t.storeLocked(channelID, authorID, transport.Text(text))
	msg := stored.Message
	handlers := append([]transport.MessageHandler(nil), t.messageFn...)
	t.mu.Unlock()

	t.waiters.Dispatch(msg)
	for _, handler := range handlers {
		handler(ctx, msg)
	}
	return msg
}

// React injects a reaction and delivers it synchronously to reaction handlers.
func (t *Transport) React(ctx context.Context, channelID, messageID, userID, emoji string) {
	t.mu.Lock()
	handlers := append([]transport.ReactionHandler(nil), t.reactionFn...)
	t.mu.Unlock()

	event := transport.ReactionEvent{MessageID: messageID, ChannelID: channelID, UserID: userID, Emoji: emoji}
	for _, handler := range handlers {
		handler(ctx, event)
	}
}

// NextSent returns the next message sent by the bot, in send order.
func (t *Transport) NextSent(ctx context.Context) (Message, error) {
	select {
	case msg := <-t.sent:
		return msg, nil
	case <-ctx.Done():
		return Message{}, ctx.Err()
	}
}

// Settle blocks until every queued bot message has been handled.
func (t *Transport) Settle() {
	t.inbox.Wait()
}

// PendingWaits reports how many WaitForMessage calls are blocked.
func (t *Transport) PendingWaits() int {
	return t.waiters.Len()
}

// Get returns a live message by id.
func (t *Transport) Get(messageID string) (Message, bool) {
	t.mu.Lock()
	defer t.mu.Unlock()
	msg, ok := t.messages[messageID]
	if !ok {
		return Message{}, false
	}
	cp := *msg
	cp.Reactions = append([]string(nil), msg.Reactions...)
	return cp, true
}

// Deleted reports whether the message was deleted.
func (t *Transport) Deleted(messageID string) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	return t.deleted[messageID]
}

// Live returns messages in channelID that have not been deleted, oldest
// first. An empty channelID matches every channel.
func (t *Transport) Live(channelID string) []Message {
	t.mu.Lock()
	defer t.mu.Unlock()
	var out []Message
	for _, id := range t.order {
		msg, ok := t.messages[id]
		if !ok || (channelID != "" && msg.ChannelID != channelID) {
			continue
		}
		out = append(out, *msg)
	}
	return out
}

// Calls returns the recorded operations, optionally filtered by kind.
func (t *Transport) Calls(ops ...Op) []Call {
	t.mu.Lock()
	defer t.mu.Unlock()
	if len(ops) == 0 {
		return append([]Call(nil), t.calls...)
	}
	var out []Call
	for _, call := range t.calls {
		for _, op := range ops {
			if call.Op == op {
				out = append(out, call)
				break
			}
		}
	}
	return out
}

func (t *Transport) storeLocked(channelID, authorID string, content transport.Content) *Message {
	t.seq++
	id := "m" + strconv.Itoa(t.seq)
	stored := &Message{
		Message: transport.Message{
			ID:        id,
			ChannelID: channelID,
			AuthorID:  authorID,
			Content:   content.Text,
			CreatedAt: time.Now(),
		},
		Body: content,
	}
	t.messages[id] = stored
	t.order = append(t.order, id)
	return stored
}
