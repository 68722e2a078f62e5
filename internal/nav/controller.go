package nav

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strconv"
	"strings"

	"streambot/internal/catalog"
	"streambot/internal/config"
	"streambot/internal/logging"
	"streambot/internal/services"
	"streambot/internal/transport"
)

// Catalog is the read side of the library plus play tracking.
type Catalog interface {
	Categories(ctx context.Context) ([]catalog.Category, error)
	VideosByCategory(ctx context.Context, categoryID int64) ([]catalog.Video, error)
	AllVideos(ctx context.Context) ([]catalog.Video, error)
	SearchVideos(ctx context.Context, term string) ([]catalog.Video, error)
	EpisodesBySeries(ctx context.Context, seriesName string) ([]catalog.Video, error)
	VideoByID(ctx context.Context, id int64) (*catalog.Video, error)
	MarkPlayed(ctx context.Context, id int64) error
}

// ParentKind identifies what a video list was opened from.
type ParentKind int

const (
	ParentAllVideos ParentKind = iota
	ParentCategory
	ParentSearch
)

// Parent is the minimal identity needed to rebuild a parent view. Item lists
// are never cached here; going back always re-queries the catalog.
type Parent struct {
	Kind         ParentKind
	CategoryID   int64
	CategoryName string
	Term         string
}

// CategoryParent identifies a video list for one category.
func CategoryParent(id int64, name string) Parent {
	return Parent{Kind: ParentCategory, CategoryID: id, CategoryName: name}
}

// AllVideosParent identifies the unfiltered video list.
func AllVideosParent() Parent {
	return Parent{Kind: ParentAllVideos}
}

// SearchParent identifies a search result list.
func SearchParent(term string) Parent {
	return Parent{Kind: ParentSearch, Term: term}
}

// Options sets per-view page sizes and the command prefix used for handoffs.
type Options struct {
	Prefix            string
	CategoriesPerPage int
	VideosPerPage     int
	EpisodesPerPage   int
	SearchPerPage     int
}

// DefaultOptions returns the stock page sizes.
func DefaultOptions() Options {
	return Options{Prefix: "$", CategoriesPerPage: 8, VideosPerPage: 8, EpisodesPerPage: 8, SearchPerPage: 6}
}

// OptionsFromConfig reads navigation settings from cfg.
func OptionsFromConfig(cfg *config.Config) Options {
	opts := DefaultOptions()
	if cfg == nil {
		return opts
	}
	if cfg.Discord.Prefix != "" {
		opts.Prefix = cfg.Discord.Prefix
	}
	pick := func(v, fallback int) int {
		if v > 0 {
			return v
		}
		return fallback
	}
	opts.CategoriesPerPage = pick(cfg.Navigation.CategoriesPerPage, opts.CategoriesPerPage)
	opts.VideosPerPage = pick(cfg.Navigation.VideosPerPage, opts.VideosPerPage)
	opts.EpisodesPerPage = pick(cfg.Navigation.EpisodesPerPage, opts.EpisodesPerPage)
	opts.SearchPerPage = pick(cfg.Navigation.SearchPerPage, opts.SearchPerPage)
	return opts
}

// Controller opens navigational views and owns the transitions between them.
type Controller struct {
	catalog   Catalog
	transport transport.Transport
	registry  *Registry
	prompter  *Prompter
	opts      Options
	logger    *slog.Logger
}

// NewController wires a controller.
func NewController(cat Catalog, tr transport.Transport, registry *Registry, prompter *Prompter, opts Options, logger *slog.Logger) *Controller {
	if opts.Prefix == "" {
		opts.Prefix = DefaultOptions().Prefix
	}
	return &Controller{
		catalog:   cat,
		transport: tr,
		registry:  registry,
		prompter:  prompter,
		opts:      opts,
		logger:    logging.NewComponentLogger(logger, "nav"),
	}
}

// Registry exposes the session registry.
func (c *Controller) Registry() *Registry {
	return c.registry
}

// ShowCategories sends the category list to channelID.
func (c *Controller) ShowCategories(ctx context.Context, channelID string) (transport.Message, error) {
	categories, err := c.catalog.Categories(ctx)
	if err != nil {
		return transport.Message{}, services.Wrap(services.ErrCatalog, "nav", "categories", "load categories", err)
	}
	items := make([]Item, 0, len(categories))
	for _, category := range categories {
		items = append(items, CategoryItem(category))
	}
	state := PageState{
		Items:       items,
		PerPage:     c.opts.CategoriesPerPage,
		Title:       "Video Categories",
		Description: "Select a category to view videos",
		Footer:      "React with " + EmojiCategory + " to select a category",
	}
	if len(items) == 0 {
		state.Description = "The library is empty. Run a scan to index videos."
	}
	return c.open(ctx, channelID, state, []string{EmojiCategory}, func(base viewBase) Handler {
		return &categoryList{viewBase: base}
	})
}

// ShowVideos sends the video list for parent to channelID. Series are
// collapsed into a single row listed before standalone videos.
func (c *Controller) ShowVideos(ctx context.Context, channelID string, parent Parent) (transport.Message, error) {
	if parent.Kind == ParentSearch {
		return c.ShowSearch(ctx, channelID, parent.Term)
	}
	var (
		videos []catalog.Video
		err    error
		title  = "All Videos"
	)
	if parent.Kind == ParentCategory {
		videos, err = c.catalog.VideosByCategory(ctx, parent.CategoryID)
		title = "Videos in " + parent.CategoryName
	} else {
		videos, err = c.catalog.AllVideos(ctx)
	}
	if err != nil {
		return transport.Message{}, services.Wrap(services.ErrCatalog, "nav", "videos", "load videos", err)
	}

	items := groupVideos(videos)
	hasSeries := len(filterKind(items, KindSeries)) > 0
	state := PageState{
		Items:       items,
		PerPage:     c.opts.VideosPerPage,
		Title:       title,
		Description: "Select a video or series to play",
		Footer:      fmt.Sprintf("React with %s to play a video, %s to expand a series, or %s to go back", EmojiPlay, EmojiSeries, EmojiBack),
	}
	extras := []string{EmojiPlay}
	if hasSeries {
		extras = append(extras, EmojiSeries)
	}
	extras = append(extras, EmojiBack)
	return c.open(ctx, channelID, state, extras, func(base viewBase) Handler {
		return &videoList{viewBase: base, parent: parent}
	})
}

// ShowEpisodes sends the episode list for series. parent identifies the
// video list that back navigation returns to.
func (c *Controller) ShowEpisodes(ctx context.Context, channelID, series string, parent Parent) (transport.Message, error) {
	episodes, err := c.catalog.EpisodesBySeries(ctx, series)
	if err != nil {
		return transport.Message{}, services.Wrap(services.ErrCatalog, "nav", "episodes", "load episodes", err)
	}
	state := PageState{
		Items:       episodeItems(episodes),
		PerPage:     c.opts.EpisodesPerPage,
		Title:       "Episodes in " + series,
		Description: "Select an episode to play",
		Footer:      fmt.Sprintf("React with %s to play an episode, %s to play all, or %s to go back", EmojiPlay, EmojiPlayAll, EmojiBack),
	}
	return c.open(ctx, channelID, state, []string{EmojiPlay, EmojiPlayAll, EmojiBack}, func(base viewBase) Handler {
		return &episodeList{viewBase: base, series: series, parent: parent}
	})
}

// ShowSearch sends the results of a title search.
func (c *Controller) ShowSearch(ctx context.Context, channelID, term string) (transport.Message, error) {
	term = strings.TrimSpace(term)
	videos, err := c.catalog.SearchVideos(ctx, term)
	if err != nil {
		return transport.Message{}, services.Wrap(services.ErrCatalog, "nav", "search", "search videos", err)
	}
	items := make([]Item, 0, len(videos))
	for _, v := range videos {
		items = append(items, SearchItem(v))
	}
	description := "No results found"
	if len(items) > 0 {
		description = fmt.Sprintf("Found %d results", len(items))
	}
	state := PageState{
		Items:       items,
		PerPage:     c.opts.SearchPerPage,
		Title:       fmt.Sprintf("Search Results for %q", term),
		Description: description,
		Footer:      fmt.Sprintf("React with %s to play a video or %s to go back", EmojiPlay, EmojiBack),
	}
	var extras []string
	if len(items) > 0 {
		extras = append(extras, EmojiPlay)
	}
	extras = append(extras, EmojiBack)
	return c.open(ctx, channelID, state, extras, func(base viewBase) Handler {
		return &searchResults{viewBase: base, term: term}
	})
}

// open sends a rendered view, registers its session, and adds reactions in
// display order: page arrows when there is more than one page, close, then
// the view's own intents.
func (c *Controller) open(ctx context.Context, channelID string, state PageState, extras []string, build func(viewBase) Handler) (transport.Message, error) {
	msg, err := c.transport.Send(ctx, channelID, Render(state).Content())
	if err != nil {
		return transport.Message{}, services.Wrap(services.ErrTransport, "nav", "send view", state.Title, err)
	}
	handler := build(viewBase{c: c, channelID: channelID, messageID: msg.ID, state: state})
	c.registry.Register(&Session{MessageID: msg.ID, ChannelID: channelID, Handler: handler})

	reactions := make([]string, 0, len(extras)+3)
	if state.TotalPages() > 1 {
		reactions = append(reactions, EmojiPrev, EmojiNext)
	}
	reactions = append(reactions, EmojiClose)
	reactions = append(reactions, extras...)
	for _, emoji := range reactions {
		if err := c.transport.AddReaction(ctx, channelID, msg.ID, emoji); err != nil {
			logging.WarnWithContext(c.logger, "add reaction failed", "nav_reaction_failed",
				logging.String(logging.FieldMessageID, msg.ID),
				logging.String(logging.FieldEmoji, emoji),
				logging.String(logging.FieldImpact, "reaction control missing from view"),
				logging.Error(err),
			)
		}
	}
	return msg, nil
}

// play re-checks the video, records the play, and hands the path to the
// command layer as a chat message. The command layer does not record
// handoffs a second time.
func (c *Controller) play(ctx context.Context, channelID string, item Item) error {
	video, err := c.catalog.VideoByID(ctx, item.ID)
	if err != nil {
		return services.Wrap(services.ErrCatalog, "nav", "play", "look up video", err)
	}
	if video == nil {
		return fmt.Errorf("%w: video %d (%s)", ErrStaleItem, item.ID, item.Label)
	}
	c.markPlayed(ctx, video.ID)
	command := c.opts.Prefix + "play " + video.FilePath
	if _, err := c.transport.Send(ctx, channelID, transport.Text(command)); err != nil {
		return services.Wrap(services.ErrTransport, "nav", "play", "send play request", err)
	}
	c.logger.Info("play requested",
		logging.Int64(logging.FieldVideoID, video.ID),
		logging.String("title", video.Title),
	)
	return nil
}

// playAll re-queries the series and hands every episode to the command layer
// as a playlist. Paths that do not fit in one message continue in enqueue
// messages.
func (c *Controller) playAll(ctx context.Context, channelID, series string) error {
	episodes, err := c.catalog.EpisodesBySeries(ctx, series)
	if err != nil {
		return services.Wrap(services.ErrCatalog, "nav", "play all", "load episodes", err)
	}
	if len(episodes) == 0 {
		return fmt.Errorf("%w: series %q", ErrStaleItem, series)
	}
	paths := make([]string, 0, len(episodes))
	for _, ep := range episodes {
		c.markPlayed(ctx, ep.ID)
		paths = append(paths, ep.FilePath)
	}
	for _, command := range PlaylistCommands(c.opts.Prefix, paths) {
		if _, err := c.transport.Send(ctx, channelID, transport.Text(command)); err != nil {
			return services.Wrap(services.ErrTransport, "nav", "play all", "send playlist request", err)
		}
	}
	c.logger.Info("playlist requested", logging.String("series", series), logging.Int("episodes", len(paths)))
	return nil
}

func (c *Controller) markPlayed(ctx context.Context, id int64) {
	if err := c.catalog.MarkPlayed(ctx, id); err != nil {
		logging.WarnWithContext(c.logger, "record last played failed", "nav_mark_played_failed",
			logging.Int64(logging.FieldVideoID, id),
			logging.String(logging.FieldImpact, "last played timestamp not updated"),
			logging.Error(err),
		)
	}
}

// PlaylistCommands formats quoted paths into one playlist command followed by
// as many enqueue commands as needed to stay within the message limit.
func PlaylistCommands(prefix string, paths []string) []string {
	var (
		commands []string
		current  strings.Builder
	)
	head := prefix + "playlist"
	current.WriteString(head)
	for _, path := range paths {
		quoted := strconv.Quote(path)
		if current.Len() > len(head) && runeCount(current.String())+1+runeCount(quoted) > transport.MaxContentLength {
			commands = append(commands, current.String())
			current.Reset()
			head = prefix + "enqueue"
			current.WriteString(head)
		}
		current.WriteString(" ")
		current.WriteString(quoted)
	}
	if current.Len() > len(head) {
		commands = append(commands, current.String())
	}
	return commands
}

func groupVideos(videos []catalog.Video) []Item {
	var (
		seriesOrder []string
		counts      = make(map[string]int)
		singles     []Item
	)
	for _, v := range videos {
		if v.SeriesName == "" {
			singles = append(singles, VideoItem(v))
			continue
		}
		if _, seen := counts[v.SeriesName]; !seen {
			seriesOrder = append(seriesOrder, v.SeriesName)
		}
		counts[v.SeriesName]++
	}
	items := make([]Item, 0, len(seriesOrder)+len(singles))
	for _, name := range seriesOrder {
		items = append(items, SeriesItem(name, counts[name]))
	}
	return append(items, singles...)
}

func episodeItems(episodes []catalog.Video) []Item {
	episodes = append([]catalog.Video(nil), episodes...)
	sort.SliceStable(episodes, func(i, j int) bool {
		if episodes[i].Season != episodes[j].Season {
			return episodes[i].Season < episodes[j].Season
		}
		return episodes[i].Episode < episodes[j].Episode
	})
	seasons := make(map[int]int)
	var order []int
	for _, ep := range episodes {
		if _, seen := seasons[ep.Season]; !seen {
			order = append(order, ep.Season)
		}
		seasons[ep.Season]++
	}
	multi := len(order) > 1
	items := make([]Item, 0, len(episodes)+len(order))
	current := -1
	for i, ep := range episodes {
		if multi && (i == 0 || ep.Season != current) {
			items = append(items, SeasonHeaderItem(ep.Season, seasons[ep.Season]))
		}
		current = ep.Season
		items = append(items, EpisodeItem(ep, multi))
	}
	return items
}
