package nav

import (
	"context"
	"errors"
	"log/slog"

	"streambot/internal/logging"
	"streambot/internal/services"
	"streambot/internal/transport"
)

// viewBase carries the state every view shares. It is only touched while the
// Router holds the session lock.
type viewBase struct {
	c         *Controller
	channelID string
	messageID string
	state     PageState
}

// State returns a copy of the current page state.
func (v *viewBase) State() PageState {
	return v.state
}

func (v *viewBase) logger(ctx context.Context) *slog.Logger {
	return logging.WithContext(ctx, v.c.logger)
}

// turn moves one page in the requested direction. Boundaries are no-ops and
// do not edit the message.
func (v *viewBase) turn(ctx context.Context, intent Intent) error {
	previous := v.state.Page
	var moved bool
	if intent == IntentNext {
		moved = v.state.Next()
	} else {
		moved = v.state.Prev()
	}
	if !moved {
		return nil
	}
	if err := v.c.transport.Edit(ctx, v.channelID, v.messageID, Render(v.state).Content()); err != nil {
		v.state.Page = previous
		return services.Wrap(services.ErrTransport, "nav", "page", "edit view", err)
	}
	return nil
}

// close ends the session and deletes its message.
func (v *viewBase) close(ctx context.Context) error {
	v.c.registry.Unregister(v.messageID)
	if err := v.c.transport.Delete(ctx, v.channelID, v.messageID); err != nil {
		return services.Wrap(services.ErrTransport, "nav", "close", "delete view", err)
	}
	return nil
}

// replaceWith shows the next view and, once it is on screen, retires this one.
func (v *viewBase) replaceWith(ctx context.Context, show func() (transport.Message, error)) error {
	if _, err := show(); err != nil {
		return err
	}
	return v.close(ctx)
}

// pick resolves one of the visible items of kind, prompting requester when
// there is a choice to make. An empty candidate set yields ok=false.
func (v *viewBase) pick(ctx context.Context, kind Kind, requester, title string, single bool) (Item, bool, error) {
	candidates := v.state.VisibleOfKind(kind)
	switch {
	case len(candidates) == 0:
		return Item{}, false, nil
	case single && len(candidates) == 1:
		return candidates[0], true, nil
	}
	item, err := v.c.prompter.Open(ctx, v.channelID, candidates, requester, title)
	if err != nil {
		return Item{}, false, err
	}
	return item, true, nil
}

// common handles the intents every view shares and reports whether the
// intent was consumed.
func (v *viewBase) common(ctx context.Context, intent Intent) (bool, error) {
	switch intent {
	case IntentPrev, IntentNext:
		return true, v.turn(ctx, intent)
	case IntentClose:
		return true, v.close(ctx)
	default:
		return false, nil
	}
}

type categoryList struct {
	viewBase
}

func (v *categoryList) ViewName() string { return "categories" }

func (v *categoryList) Handle(ctx context.Context, event transport.ReactionEvent) error {
	intent := IntentFor(event.Emoji)
	if done, err := v.common(ctx, intent); done {
		return err
	}
	if intent != IntentSelectCategory {
		return nil
	}
	item, ok, err := v.pick(ctx, KindCategory, event.UserID, "Select Category Number", false)
	if err != nil || !ok {
		return err
	}
	v.logger(ctx).Debug("category selected", logging.String("category", item.Label))
	return v.replaceWith(ctx, func() (transport.Message, error) {
		return v.c.ShowVideos(ctx, v.channelID, CategoryParent(item.ID, item.Label))
	})
}

type videoList struct {
	viewBase
	parent Parent
}

func (v *videoList) ViewName() string { return "videos" }

func (v *videoList) Handle(ctx context.Context, event transport.ReactionEvent) error {
	intent := IntentFor(event.Emoji)
	if done, err := v.common(ctx, intent); done {
		return err
	}
	switch intent {
	case IntentPlay:
		item, ok, err := v.pick(ctx, KindVideo, event.UserID, "Select Video Number", true)
		if err != nil || !ok {
			return err
		}
		return v.c.play(ctx, v.channelID, item)
	case IntentExpandSeries:
		item, ok, err := v.pick(ctx, KindSeries, event.UserID, "Select Series Number", false)
		if err != nil || !ok {
			return err
		}
		return v.replaceWith(ctx, func() (transport.Message, error) {
			return v.c.ShowEpisodes(ctx, v.channelID, item.SeriesName, v.parent)
		})
	case IntentBack:
		return v.replaceWith(ctx, func() (transport.Message, error) {
			return v.c.ShowCategories(ctx, v.channelID)
		})
	}
	return nil
}

type episodeList struct {
	viewBase
	series string
	parent Parent
}

func (v *episodeList) ViewName() string { return "episodes" }

func (v *episodeList) Handle(ctx context.Context, event transport.ReactionEvent) error {
	intent := IntentFor(event.Emoji)
	if done, err := v.common(ctx, intent); done {
		return err
	}
	switch intent {
	case IntentPlay:
		item, ok, err := v.pick(ctx, KindVideo, event.UserID, "Select Episode Number", true)
		if err != nil || !ok {
			return err
		}
		return v.c.play(ctx, v.channelID, item)
	case IntentPlayAll:
		return v.c.playAll(ctx, v.channelID, v.series)
	case IntentBack:
		return v.replaceWith(ctx, func() (transport.Message, error) {
			return v.c.ShowVideos(ctx, v.channelID, v.parent)
		})
	}
	return nil
}

type searchResults struct {
	viewBase
	term string
}

func (v *searchResults) ViewName() string { return "search" }

func (v *searchResults) Handle(ctx context.Context, event transport.ReactionEvent) error {
	intent := IntentFor(event.Emoji)
	if done, err := v.common(ctx, intent); done {
		return err
	}
	switch intent {
	case IntentPlay:
		item, ok, err := v.pick(ctx, KindVideo, event.UserID, "Select Video Number", true)
		if err != nil || !ok {
			return err
		}
		return v.c.play(ctx, v.channelID, item)
	case IntentBack:
		return v.replaceWith(ctx, func() (transport.Message, error) {
			return v.c.ShowCategories(ctx, v.channelID)
		})
	}
	return nil
}

// isQuiet reports errors that are expected outcomes of user interaction.
func isQuiet(err error) bool {
	return errors.Is(err, ErrPromptTimeout) || errors.Is(err, ErrNoCandidates) || errors.Is(err, context.Canceled)
}
