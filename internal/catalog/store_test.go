package catalog_test

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"testing"
	"time"

	_ "modernc.org/sqlite"

	"streambot/internal/catalog"
	"streambot/internal/testsupport"
)

func TestOpenCreatesSchemaAndReopens(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := store.Ping(context.Background()); err != nil {
		t.Fatalf("Ping: %v", err)
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	reopened, err := catalog.Open(cfg)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	defer reopened.Close()
	if reopened.Path() != cfg.Paths.DBPath {
		t.Fatalf("unexpected path %q", reopened.Path())
	}
}

func TestOpenRejectsSchemaMismatch(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenStore(t, cfg)
	store.Close()

	db, err := sql.Open("sqlite", cfg.Paths.DBPath)
	if err != nil {
		t.Fatalf("open raw db: %v", err)
	}
	if _, err := db.Exec("UPDATE schema_version SET version = 999"); err != nil {
		t.Fatalf("bump version: %v", err)
	}
	db.Close()

	_, err = catalog.Open(cfg)
	if !errors.Is(err, catalog.ErrSchemaMismatch) {
		t.Fatalf("expected ErrSchemaMismatch, got %v", err)
	}
}

func TestCategoriesIncludeVideoCounts(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	movies := testsupport.SeedCategory(t, store, "Movies")
	shows := testsupport.SeedCategory(t, store, "Anime")
	testsupport.SeedMovies(t, store, movies, 3)
	testsupport.SeedSeries(t, store, shows, "Cowboy Bebop", 1, 2)

	categories, err := store.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(categories) != 2 {
		t.Fatalf("expected 2 categories, got %d", len(categories))
	}
	if categories[0].Name != "Anime" || categories[0].VideoCount != 2 {
		t.Fatalf("unexpected first category: %+v", categories[0])
	}
	if categories[1].Name != "Movies" || categories[1].VideoCount != 3 {
		t.Fatalf("unexpected second category: %+v", categories[1])
	}

	again, err := store.UpsertCategory(ctx, "Movies", "/elsewhere")
	if err != nil {
		t.Fatalf("UpsertCategory: %v", err)
	}
	if again != movies {
		t.Fatalf("expected upsert to keep id %d, got %d", movies, again)
	}
	category, err := store.CategoryByID(ctx, movies)
	if err != nil || category == nil {
		t.Fatalf("CategoryByID: %v %v", category, err)
	}
	if category.FolderPath != "/elsewhere" {
		t.Fatalf("expected folder path refresh, got %q", category.FolderPath)
	}
	if missing, err := store.CategoryByID(ctx, 9999); err != nil || missing != nil {
		t.Fatalf("expected nil for missing category, got %v %v", missing, err)
	}
}

func TestVideoQueriesAndOrdering(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	cat := testsupport.SeedCategory(t, store, "TV")
	testsupport.SeedVideo(t, store, catalog.VideoInput{Title: "Pilot", CategoryID: cat, SeriesName: "Show", Season: 2, Episode: 1})
	testsupport.SeedVideo(t, store, catalog.VideoInput{Title: "Opener", CategoryID: cat, SeriesName: "Show", Season: 1, Episode: 2})
	testsupport.SeedVideo(t, store, catalog.VideoInput{Title: "Start", CategoryID: cat, SeriesName: "Show", Season: 1, Episode: 1})
	testsupport.SeedVideo(t, store, catalog.VideoInput{Title: "A Film", CategoryID: cat, Description: "a 100% true story"})

	episodes, err := store.EpisodesBySeries(ctx, "Show")
	if err != nil {
		t.Fatalf("EpisodesBySeries: %v", err)
	}
	want := []string{"Start", "Opener", "Pilot"}
	if len(episodes) != len(want) {
		t.Fatalf("expected %d episodes, got %d", len(want), len(episodes))
	}
	for i, title := range want {
		if episodes[i].Title != title {
			t.Fatalf("episode %d = %q, want %q", i, episodes[i].Title, title)
		}
	}
	if episodes[0].EpisodeLabel() != "S01E01" || episodes[0].CategoryName != "TV" {
		t.Fatalf("unexpected episode metadata: %+v", episodes[0])
	}

	all, err := store.AllVideos(ctx)
	if err != nil {
		t.Fatalf("AllVideos: %v", err)
	}
	if len(all) != 4 || all[0].Title != "A Film" {
		t.Fatalf("expected standalone video first, got %+v", all)
	}

	byCategory, err := store.VideosByCategory(ctx, cat)
	if err != nil || len(byCategory) != 4 {
		t.Fatalf("VideosByCategory: %d %v", len(byCategory), err)
	}

	results, err := store.SearchVideos(ctx, "show")
	if err != nil || len(results) != 3 {
		t.Fatalf("expected 3 series matches, got %d %v", len(results), err)
	}
	results, err = store.SearchVideos(ctx, "100%")
	if err != nil || len(results) != 1 || results[0].Title != "A Film" {
		t.Fatalf("expected literal percent match, got %+v %v", results, err)
	}
	results, err = store.SearchVideos(ctx, "%")
	if err != nil || len(results) != 1 {
		t.Fatalf("expected escaped wildcard to match only literal, got %d %v", len(results), err)
	}
	if results, err := store.SearchVideos(ctx, "  "); err != nil || results != nil {
		t.Fatalf("expected no results for blank term, got %v %v", results, err)
	}
}

func TestSearchVideosRanksClosestTitleFirst(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	cat := testsupport.SeedCategory(t, store, "Movies")
	for _, input := range []catalog.VideoInput{
		{Title: "Paul", Description: "An alien on a road trip", CategoryID: cat},
		{Title: "Alien Resurrection", CategoryID: cat},
		{Title: "Aliens", CategoryID: cat},
		{Title: "Alien", CategoryID: cat},
	} {
		testsupport.SeedVideo(t, store, input)
	}

	results, err := store.SearchVideos(ctx, "alien")
	if err != nil {
		t.Fatalf("SearchVideos: %v", err)
	}
	var titles []string
	for _, v := range results {
		titles = append(titles, v.Title)
	}
	want := []string{"Alien", "Aliens", "Alien Resurrection", "Paul"}
	if strings.Join(titles, "|") != strings.Join(want, "|") {
		t.Fatalf("ranked titles = %v, want %v", titles, want)
	}
}

func TestUpsertVideoPreservesIdentityAndMarkPlayed(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	cat := testsupport.SeedCategory(t, store, "Movies")

	input := catalog.VideoInput{Title: "Heat", FilePath: "/videos/Movies/Heat.mkv", CategoryID: cat, Duration: 170 * time.Minute}
	id := testsupport.SeedVideo(t, store, input)
	if err := store.MarkPlayed(ctx, id); err != nil {
		t.Fatalf("MarkPlayed: %v", err)
	}

	input.Width, input.Height, input.Codec = 1920, 1080, "h264"
	again := testsupport.SeedVideo(t, store, input)
	if again != id {
		t.Fatalf("expected same id after refresh, got %d vs %d", again, id)
	}

	video, err := store.VideoByID(ctx, id)
	if err != nil || video == nil {
		t.Fatalf("VideoByID: %v %v", video, err)
	}
	if video.Resolution() != "1920x1080" || video.Codec != "h264" {
		t.Fatalf("expected refreshed metadata, got %+v", video)
	}
	if video.LastPlayed.IsZero() {
		t.Fatal("expected last played to survive refresh")
	}
	if video.Duration != 170*time.Minute {
		t.Fatalf("unexpected duration %s", video.Duration)
	}

	byPath, err := store.VideoByPath(ctx, "/videos/Movies/Heat.mkv")
	if err != nil || byPath == nil || byPath.ID != id {
		t.Fatalf("VideoByPath: %v %v", byPath, err)
	}
	if missing, err := store.VideoByID(ctx, 424242); err != nil || missing != nil {
		t.Fatalf("expected nil for missing video, got %v %v", missing, err)
	}
	if err := store.MarkPlayed(ctx, 424242); err == nil {
		t.Fatal("expected error marking missing video")
	}
}

func TestRemoveMissingPrunesVideosAndEmptyCategories(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	keepCat := testsupport.SeedCategory(t, store, "Keep")
	dropCat := testsupport.SeedCategory(t, store, "Drop")
	testsupport.SeedVideo(t, store, catalog.VideoInput{Title: "Stay", FilePath: "/v/stay.mp4", CategoryID: keepCat})
	testsupport.SeedVideo(t, store, catalog.VideoInput{Title: "Gone", FilePath: "/v/gone.mp4", CategoryID: dropCat})

	removed, err := store.RemoveMissing(ctx, map[string]struct{}{"/v/stay.mp4": {}})
	if err != nil {
		t.Fatalf("RemoveMissing: %v", err)
	}
	if removed != 1 {
		t.Fatalf("expected 1 removal, got %d", removed)
	}
	categories, err := store.Categories(ctx)
	if err != nil {
		t.Fatalf("Categories: %v", err)
	}
	if len(categories) != 1 || categories[0].ID != keepCat {
		t.Fatalf("expected only kept category, got %+v", categories)
	}
}

func TestChannelRegistrationAndMapping(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()

	if err := store.AddCommandChannel(ctx, "c1", "g1", "bot-commands"); err != nil {
		t.Fatalf("AddCommandChannel: %v", err)
	}
	if err := store.AddVoiceChannel(ctx, "v1", "g1", "Movie Night"); err != nil {
		t.Fatalf("AddVoiceChannel: %v", err)
	}
	if err := store.AddVoiceChannel(ctx, "v2", "g1", "Lounge"); err != nil {
		t.Fatalf("AddVoiceChannel: %v", err)
	}
	ok, err := store.IsCommandChannel(ctx, "c1")
	if err != nil || !ok {
		t.Fatalf("expected c1 registered: %v %v", ok, err)
	}
	if ok, _ := store.IsCommandChannel(ctx, "nope"); ok {
		t.Fatal("expected unknown channel to be unregistered")
	}
	if n, err := store.CommandChannelCount(ctx); err != nil || n != 1 {
		t.Fatalf("expected one command channel, got %d %v", n, err)
	}

	if voice, err := store.VoiceChannelFor(ctx, "c1"); err != nil || voice != "" {
		t.Fatalf("expected no mapping yet, got %q %v", voice, err)
	}
	if err := store.MapChannels(ctx, "c1", "v1"); err != nil {
		t.Fatalf("MapChannels: %v", err)
	}
	if err := store.MapChannels(ctx, "c1", "v2"); err != nil {
		t.Fatalf("remap: %v", err)
	}
	voice, err := store.VoiceChannelFor(ctx, "c1")
	if err != nil || voice != "v2" {
		t.Fatalf("expected remapped voice v2, got %q %v", voice, err)
	}
	mappings, err := store.ChannelMappings(ctx)
	if err != nil || len(mappings) != 1 {
		t.Fatalf("ChannelMappings: %+v %v", mappings, err)
	}
	if mappings[0].VoiceName != "Lounge" || mappings[0].CommandName != "bot-commands" {
		t.Fatalf("unexpected mapping: %+v", mappings[0])
	}
	if err := store.MapChannels(ctx, "c1", "unknown"); err == nil {
		t.Fatal("expected foreign key failure for unknown voice channel")
	}
}

func TestPlaylistsKeepPositionOrder(t *testing.T) {
	store := testsupport.MustOpenStore(t, testsupport.NewConfig(t))
	ctx := context.Background()
	cat := testsupport.SeedCategory(t, store, "Movies")
	ids := testsupport.SeedMovies(t, store, cat, 3)

	playlist, err := store.CreatePlaylist(ctx, "Friday", "user-1")
	if err != nil {
		t.Fatalf("CreatePlaylist: %v", err)
	}
	for pos, id := range []int64{ids[2], ids[0], ids[1]} {
		if err := store.AddToPlaylist(ctx, playlist.ID, id, pos); err != nil {
			t.Fatalf("AddToPlaylist: %v", err)
		}
	}
	videos, err := store.PlaylistVideos(ctx, playlist.ID)
	if err != nil {
		t.Fatalf("PlaylistVideos: %v", err)
	}
	got := []string{videos[0].Title, videos[1].Title, videos[2].Title}
	want := []string{"Movie 03", "Movie 01", "Movie 02"}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("playlist order = %v, want %v", got, want)
		}
	}

	stats, err := store.Stats(ctx)
	if err != nil {
		t.Fatalf("Stats: %v", err)
	}
	if stats.Categories != 1 || stats.Videos != 3 || stats.Playlists != 1 || stats.Series != 0 {
		t.Fatalf("unexpected stats: %+v", stats)
	}
	if _, err := store.CreatePlaylist(ctx, " ", "user-1"); err == nil {
		t.Fatal("expected error for blank playlist name")
	}
}
