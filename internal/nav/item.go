package nav

import (
	"fmt"
	"strings"
	"time"

	"streambot/internal/catalog"
)

// Kind discriminates the Item variants.
type Kind int

const (
	KindCategory Kind = iota + 1
	KindSeries
	KindVideo
	KindSeasonHeader
)

func (k Kind) String() string {
	switch k {
	case KindCategory:
		return "category"
	case KindSeries:
		return "series"
	case KindVideo:
		return "video"
	case KindSeasonHeader:
		return "season_header"
	default:
		return "unknown"
	}
}

// Item is one row of a navigational view.
type Item struct {
	Kind  Kind
	ID    int64
	Label string

	// Count is the number of videos in a category, or episodes in a series
	// or season.
	Count int

	Duration     time.Duration
	Codec        string
	FilePath     string
	Season       int
	Episode      int
	SeriesName   string
	CategoryName string

	// ShowOrigin adds series and category lines to a video's field, used in
	// search results where videos come from anywhere in the library.
	ShowOrigin bool
}

// Selectable reports whether the item can be the target of a prompt.
func (i Item) Selectable() bool {
	return i.Kind != KindSeasonHeader && i.Kind != 0
}

// CategoryItem builds the row for a library category.
func CategoryItem(c catalog.Category) Item {
	return Item{Kind: KindCategory, ID: c.ID, Label: c.Name, Count: c.VideoCount}
}

// SeriesItem builds the collapsed row for a series inside a video list.
func SeriesItem(name string, episodes int) Item {
	return Item{Kind: KindSeries, Label: name, SeriesName: name, Count: episodes}
}

// VideoItem builds a row for a standalone video.
func VideoItem(v catalog.Video) Item {
	return Item{
		Kind:         KindVideo,
		ID:           v.ID,
		Label:        v.Title,
		Duration:     v.Duration,
		Codec:        v.Codec,
		FilePath:     v.FilePath,
		Season:       v.Season,
		Episode:      v.Episode,
		SeriesName:   v.SeriesName,
		CategoryName: v.CategoryName,
	}
}

// SearchItem builds a video row that also shows where the video lives.
func SearchItem(v catalog.Video) Item {
	item := VideoItem(v)
	item.ShowOrigin = true
	return item
}

// EpisodeItem builds a video row labelled by its position in the series.
// When the series spans several seasons the label names the season too.
func EpisodeItem(v catalog.Video, multiSeason bool) Item {
	item := VideoItem(v)
	ep := "Special"
	if v.Episode > 0 {
		ep = fmt.Sprintf("Episode %d", v.Episode)
		if multiSeason {
			ep = fmt.Sprintf("E%d", v.Episode)
		}
	}
	if multiSeason {
		item.Label = fmt.Sprintf("%s %s: %s", seasonLabel(v.Season), ep, v.Title)
	} else {
		item.Label = fmt.Sprintf("%s: %s", ep, v.Title)
	}
	return item
}

// SeasonHeaderItem builds the non-selectable divider placed before a season.
func SeasonHeaderItem(season, episodes int) Item {
	return Item{Kind: KindSeasonHeader, Label: seasonLabel(season), Season: season, Count: episodes}
}

func seasonLabel(season int) string {
	if season <= 0 {
		return "Specials"
	}
	return fmt.Sprintf("Season %d", season)
}

// FormatDuration renders m:ss, or h:mm:ss for long videos.
func FormatDuration(d time.Duration) string {
	if d <= 0 {
		return ""
	}
	total := int(d.Round(time.Second) / time.Second)
	h, m, s := total/3600, (total%3600)/60, total%60
	if h > 0 {
		return fmt.Sprintf("%d:%02d:%02d", h, m, s)
	}
	return fmt.Sprintf("%d:%02d", m, s)
}

func filterKind(items []Item, kind Kind) []Item {
	var out []Item
	for _, item := range items {
		if item.Kind == kind {
			out = append(out, item)
		}
	}
	return out
}

func plural(n int, singular string) string {
	if n == 1 {
		return fmt.Sprintf("**1** %s", singular)
	}
	return fmt.Sprintf("**%d** %ss", n, singular)
}

func codecLabel(codec string) string {
	codec = strings.TrimSpace(codec)
	if codec == "" {
		return "Unknown"
	}
	return codec
}
