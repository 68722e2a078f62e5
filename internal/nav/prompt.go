package nav

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strconv"
	"strings"
	"time"

	"streambot/internal/logging"
	"streambot/internal/services"
	"streambot/internal/transport"
)

// DefaultPromptTimeout bounds how long a prompt waits for a reply.
const DefaultPromptTimeout = 30 * time.Second

const cleanupTimeout = 5 * time.Second

// Prompter runs numbered disambiguation exchanges.
type Prompter struct {
	transport transport.Transport
	timeout   time.Duration
	logger    *slog.Logger
}

// NewPrompter builds a prompter. A non-positive timeout selects the default.
func NewPrompter(tr transport.Transport, timeout time.Duration, logger *slog.Logger) *Prompter {
	if timeout <= 0 {
		timeout = DefaultPromptTimeout
	}
	return &Prompter{
		transport: tr,
		timeout:   timeout,
		logger:    logging.NewComponentLogger(logger, "prompt"),
	}
}

// Timeout returns the reply deadline applied to each prompt.
func (p *Prompter) Timeout() time.Duration {
	return p.timeout
}

// Open lists candidates in channelID and waits for requester to reply with a
// number between 1 and len(candidates). The prompt is always deleted; the
// reply is deleted on success. Replies that are not a number in range are
// ignored until the timeout.
func (p *Prompter) Open(ctx context.Context, channelID string, candidates []Item, requester, title string) (Item, error) {
	if len(candidates) == 0 {
		return Item{}, ErrNoCandidates
	}
	logger := logging.WithContext(ctx, p.logger)

	prompt, err := p.transport.Send(ctx, channelID, promptView(title, candidates).Content())
	if err != nil {
		return Item{}, services.Wrap(services.ErrTransport, "prompt", "send", "send prompt", err)
	}

	n := len(candidates)
	reply, err := p.transport.WaitForMessage(ctx, func(msg transport.Message) bool {
		if msg.AuthorID != requester || msg.ChannelID != channelID {
			return false
		}
		_, ok := ParseSelection(msg.Content, n)
		return ok
	}, p.timeout)

	cleanupCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), cleanupTimeout)
	defer cancel()
	if delErr := p.transport.Delete(cleanupCtx, channelID, prompt.ID); delErr != nil {
		logger.Debug("prompt cleanup failed", logging.String(logging.FieldMessageID, prompt.ID), logging.Error(delErr))
	}

	if err != nil {
		if errors.Is(err, transport.ErrWaitTimeout) {
			return Item{}, ErrPromptTimeout
		}
		return Item{}, err
	}

	if delErr := p.transport.Delete(cleanupCtx, channelID, reply.ID); delErr != nil {
		logger.Debug("reply cleanup failed", logging.String(logging.FieldMessageID, reply.ID), logging.Error(delErr))
	}
	choice, _ := ParseSelection(reply.Content, n)
	return candidates[choice-1], nil
}

// ParseSelection accepts a base-10 integer in [1, n], ignoring surrounding
// whitespace. Signs, decimals, and any other text are rejected.
func ParseSelection(content string, n int) (int, bool) {
	s := strings.TrimSpace(content)
	if s == "" {
		return 0, false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return 0, false
		}
	}
	v, err := strconv.Atoi(s)
	if err != nil || v < 1 || v > n {
		return 0, false
	}
	return v, true
}

func promptView(title string, candidates []Item) View {
	var b strings.Builder
	fmt.Fprintf(&b, "Reply with a number from 1 to %d.\n", len(candidates))
	for i, item := range candidates {
		fmt.Fprintf(&b, "\n%d. %s", i+1, item.Label)
	}
	view := View{Title: title, Description: b.String()}
	fit(&view, MaxViewLength)
	return view
}
