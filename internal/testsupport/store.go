package testsupport

import (
	"context"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"streambot/internal/catalog"
	"streambot/internal/config"
)

// MustOpenStore opens a catalog.Store for tests and registers cleanup.
func MustOpenStore(t testing.TB, cfg *config.Config) *catalog.Store {
	t.Helper()

	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("catalog.Open: %v", err)
	}
	t.Cleanup(func() {
		store.Close()
	})
	return store
}

// SeedCategory creates a category for tests and returns its ID.
func SeedCategory(t testing.TB, store *catalog.Store, name string) int64 {
	t.Helper()

	id, err := store.UpsertCategory(context.Background(), name, filepath.Join("/videos", name))
	if err != nil {
		t.Fatalf("store.UpsertCategory: %v", err)
	}
	return id
}

// SeedVideo inserts a video for tests and returns its ID. A missing file path
// is derived from the title.
func SeedVideo(t testing.TB, store *catalog.Store, input catalog.VideoInput) int64 {
	t.Helper()

	if input.FilePath == "" {
		input.FilePath = filepath.Join("/videos", fmt.Sprintf("%d", input.CategoryID), input.Title+".mp4")
	}
	if input.Duration == 0 {
		input.Duration = 42 * time.Minute
	}
	id, err := store.UpsertVideo(context.Background(), input)
	if err != nil {
		t.Fatalf("store.UpsertVideo: %v", err)
	}
	return id
}

// SeedMovies inserts count standalone videos titled "Movie 01" onward.
func SeedMovies(t testing.TB, store *catalog.Store, categoryID int64, count int) []int64 {
	t.Helper()

	ids := make([]int64, 0, count)
	for i := 1; i <= count; i++ {
		ids = append(ids, SeedVideo(t, store, catalog.VideoInput{
			Title:      fmt.Sprintf("Movie %02d", i),
			CategoryID: categoryID,
			Codec:      "h264",
			Width:      1920,
			Height:     1080,
		}))
	}
	return ids
}

// SeedSeries inserts seasons*perSeason episodes of a series.
func SeedSeries(t testing.TB, store *catalog.Store, categoryID int64, series string, seasons, perSeason int) []int64 {
	t.Helper()

	ids := make([]int64, 0, seasons*perSeason)
	for season := 1; season <= seasons; season++ {
		for episode := 1; episode <= perSeason; episode++ {
			title := fmt.Sprintf("%s S%02dE%02d", series, season, episode)
			ids = append(ids, SeedVideo(t, store, catalog.VideoInput{
				Title:      title,
				CategoryID: categoryID,
				SeriesName: series,
				Season:     season,
				Episode:    episode,
				Codec:      "hevc",
			}))
		}
	}
	return ids
}
