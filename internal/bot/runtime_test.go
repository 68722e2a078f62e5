package bot

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"streambot/internal/catalog"
	"streambot/internal/config"
	"streambot/internal/logging"
	"streambot/internal/nav"
	"streambot/internal/playback"
	"streambot/internal/statusapi"
	"streambot/internal/testsupport"
	"streambot/internal/transport/memory"
)

func newRuntime(t *testing.T, cfg *config.Config) (*Runtime, *catalog.Store, *memory.Transport) {
	t.Helper()
	store := testsupport.MustOpenStore(t, cfg)
	tr := memory.New("bot")
	rt, err := Build(cfg, store, tr, logging.NewNop())
	if err != nil {
		t.Fatalf("Build: %v", err)
	}
	t.Cleanup(rt.Stop)
	return rt, store, tr
}

func streamConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Stream.FFmpegPath = testsupport.WriteScript(t, filepath.Join(testsupport.BaseDir(cfg), "bin"), "ffmpeg", "exec sleep 30")
	cfg.Stream.OutputURL = "udp://127.0.0.1:9"
	return cfg
}

func TestBuildRequiresCollaborators(t *testing.T) {
	if _, err := Build(nil, nil, nil, nil); err == nil {
		t.Fatal("expected an error without collaborators")
	}
}

func TestStartTakesInstanceLock(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	first, _, _ := newRuntime(t, cfg)
	second, _, _ := newRuntime(t, cfg)
	ctx := context.Background()

	if err := first.Start(ctx, StartOptions{SkipScan: true}); err != nil {
		t.Fatalf("first Start: %v", err)
	}
	if err := second.Start(ctx, StartOptions{SkipScan: true}); !errors.Is(err, ErrAlreadyRunning) {
		t.Fatalf("expected ErrAlreadyRunning, got %v", err)
	}
	first.Stop()
	if err := second.Start(ctx, StartOptions{SkipScan: true}); err != nil {
		t.Fatalf("second Start after release: %v", err)
	}
}

func TestReactionHandoffStartsPlayback(t *testing.T) {
	cfg := streamConfig(t)
	rt, store, tr := newRuntime(t, cfg)
	files := testsupport.WriteFiles(t, cfg.Paths.VideosDir, "Movies/Alien.mkv")
	cat := testsupport.SeedCategory(t, store, "Movies")
	testsupport.SeedVideo(t, store, catalog.VideoInput{Title: "Alien", FilePath: files[0], CategoryID: cat})

	ctx := context.Background()
	if err := rt.Start(ctx, StartOptions{SkipScan: true}); err != nil {
		t.Fatalf("Start: %v", err)
	}

	tr.Post(ctx, "c1", "u1", "$search Alien")
	sessions := rt.Registry().Snapshot()
	if len(sessions) != 1 || sessions[0].View != "search" {
		t.Fatalf("expected a search session, got %+v", sessions)
	}

	tr.React(ctx, "c1", sessions[0].MessageID, "u1", nav.EmojiPlay)

	deadline := time.Now().Add(3 * time.Second)
	for {
		status := rt.Player().Status()
		if status.State == playback.StatePlaying && status.Path == files[0] {
			break
		}
		if time.Now().After(deadline) {
			t.Fatalf("handoff never started playback: %+v", status)
		}
		time.Sleep(10 * time.Millisecond)
	}

	var sawHandoff bool
	for _, call := range tr.Calls(memory.OpSend) {
		if call.Content.Text == "$play "+files[0] {
			sawHandoff = true
		}
	}
	if !sawHandoff {
		t.Fatal("expected the play request to be posted to the channel")
	}
}

func TestPlayAllAcrossSeveralMessagesKeepsEveryEpisode(t *testing.T) {
	cfg := streamConfig(t)
	rt, store, tr := newRuntime(t, cfg)
	cat := testsupport.SeedCategory(t, store, "TV")

	const series = "Show"
	dir := strings.Repeat("A Rather Long Series Directory ", 2)
	var rel []string
	for ep := 1; ep <= 40; ep++ {
		rel = append(rel, fmt.Sprintf("TV/%s/%s S01E%02d.mkv", dir, series, ep))
	}
	files := testsupport.WriteFiles(t, cfg.Paths.VideosDir, rel...)
	for i, path := range files {
		testsupport.SeedVideo(t, store, catalog.VideoInput{
			Title:      fmt.Sprintf("%s S01E%02d", series, i+1),
			FilePath:   path,
			CategoryID: cat,
			SeriesName: series,
			Season:     1,
			Episode:    i + 1,
		})
	}

	ctx := context.Background()
	if err := rt.Start(ctx, StartOptions{SkipScan: true}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	view, err := rt.controller.ShowEpisodes(ctx, "c1", series, nav.CategoryParent(cat, "TV"))
	if err != nil {
		t.Fatalf("ShowEpisodes: %v", err)
	}
	tr.React(ctx, "c1", view.ID, "u1", nav.EmojiPlayAll)
	tr.Settle()

	var handoffs int
	for _, call := range tr.Calls(memory.OpSend) {
		if strings.HasPrefix(call.Content.Text, "$playlist ") || strings.HasPrefix(call.Content.Text, "$enqueue ") {
			handoffs++
		}
	}
	if handoffs < 2 {
		t.Fatalf("expected the playlist to span several messages, got %d", handoffs)
	}

	items, current := rt.Player().Playlist()
	if len(items) != len(files) || current != 0 {
		t.Fatalf("playlist has %d of %d episodes (current %d)", len(items), len(files), current)
	}
	for i := range files {
		if items[i] != files[i] {
			t.Fatalf("playlist item %d = %s, want %s", i, items[i], files[i])
		}
	}
}

func TestReactionsFromUsersOutsideAllowListDoNotPlay(t *testing.T) {
	cfg := streamConfig(t)
	cfg.Discord.AllowedUsers = []string{"u1"}
	rt, store, tr := newRuntime(t, cfg)
	files := testsupport.WriteFiles(t, cfg.Paths.VideosDir, "Movies/Alien.mkv")
	cat := testsupport.SeedCategory(t, store, "Movies")
	testsupport.SeedVideo(t, store, catalog.VideoInput{Title: "Alien", FilePath: files[0], CategoryID: cat})

	ctx := context.Background()
	if err := rt.Start(ctx, StartOptions{SkipScan: true}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	tr.Post(ctx, "c1", "intruder", "$search Alien")
	if rt.Registry().Len() != 0 {
		t.Fatal("commands from users outside the allow list must be ignored")
	}
	tr.Post(ctx, "c1", "u1", "$search Alien")
	sessions := rt.Registry().Snapshot()
	if len(sessions) != 1 {
		t.Fatalf("expected one search session, got %+v", sessions)
	}

	tr.React(ctx, "c1", sessions[0].MessageID, "intruder", nav.EmojiPlay)
	tr.Settle()
	for _, call := range tr.Calls(memory.OpSend) {
		if strings.HasPrefix(call.Content.Text, "$play") {
			t.Fatalf("reaction from intruder was handed off: %q", call.Content.Text)
		}
	}
	if status := rt.Player().Status(); status.State != playback.StateIdle {
		t.Fatalf("intruder started playback: %+v", status)
	}

	tr.React(ctx, "c1", sessions[0].MessageID, "u1", nav.EmojiPlay)
	tr.Settle()
	if status := rt.Player().Status(); status.Path != files[0] {
		t.Fatalf("allowed user should start playback, got %+v", status)
	}
}

func TestStoppedRuntimeIgnoresEvents(t *testing.T) {
	rt, _, tr := newRuntime(t, testsupport.NewConfig(t))
	ctx := context.Background()
	if err := rt.Start(ctx, StartOptions{SkipScan: true}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rt.Stop()

	before := len(tr.Calls(memory.OpSend))
	tr.Post(ctx, "c1", "u1", "$help")
	if after := len(tr.Calls(memory.OpSend)); after != before {
		t.Fatalf("stopped runtime should not reply, got %d new sends", after-before)
	}
}

func TestStatusServerReportsSessions(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Status.Enabled = true
	cfg.Status.Username = "admin"
	cfg.Status.Password = "secret"
	rt, store, tr := newRuntime(t, cfg)
	cat := testsupport.SeedCategory(t, store, "Movies")
	testsupport.SeedMovies(t, store, cat, 2)

	ctx := context.Background()
	if err := rt.Start(ctx, StartOptions{SkipScan: true}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	tr.Post(ctx, "c1", "u1", "$list")

	req, _ := http.NewRequest(http.MethodGet, "http://"+rt.StatusAddr()+"/api/status", nil)
	req.SetBasicAuth("admin", "secret")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET status: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("expected 200, got %d", resp.StatusCode)
	}
	var doc statusapi.Status
	if err := json.NewDecoder(resp.Body).Decode(&doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Sessions) != 1 || doc.Sessions[0].View != "categories" {
		t.Fatalf("unexpected sessions %+v", doc.Sessions)
	}
	if doc.Catalog == nil || doc.Catalog.Videos != 2 {
		t.Fatalf("unexpected catalog stats %+v", doc.Catalog)
	}
	if doc.Player.State != playback.StateIdle {
		t.Fatalf("expected idle player, got %+v", doc.Player)
	}
}

type namerStub map[string][2]string

func (n namerStub) ChannelName(_ context.Context, id string) (string, string, error) {
	entry, ok := n[id]
	if !ok {
		return "", "", errors.New("unknown channel")
	}
	return entry[0], entry[1], nil
}

func TestRegisterConfiguredChannels(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Discord.CommandChannelID = "100"
	cfg.Discord.VoiceChannelID = "200"
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	namer := namerStub{"100": {"bot-commands", "g1"}, "200": {"Movie Night", "g1"}}
	registerConfiguredChannels(ctx, cfg, store, namer, logging.NewNop())

	mappings, err := store.ChannelMappings(ctx)
	if err != nil || len(mappings) != 1 {
		t.Fatalf("expected one mapping, got %+v %v", mappings, err)
	}
	m := mappings[0]
	if m.GuildID != "g1" || m.CommandName != "bot-commands" || m.VoiceName != "Movie Night" {
		t.Fatalf("unexpected mapping %+v", m)
	}
}

func TestRegisterConfiguredChannelsWithoutGuild(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Discord.CommandChannelID = "100"
	store := testsupport.MustOpenStore(t, cfg)
	ctx := context.Background()

	registerConfiguredChannels(ctx, cfg, store, namerStub{}, logging.NewNop())
	if ok, _ := store.IsCommandChannel(ctx, "100"); ok {
		t.Fatal("channel without a known guild should not be registered")
	}

	cfg.Discord.GuildID = "g9"
	registerConfiguredChannels(ctx, cfg, store, nil, logging.NewNop())
	if ok, _ := store.IsCommandChannel(ctx, "100"); !ok {
		t.Fatal("expected the configured guild to be used")
	}
}

func TestLifecycleNotifications(t *testing.T) {
	titles := make(chan string, 4)
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		titles <- r.Header.Get("Title")
	}))
	t.Cleanup(server.Close)

	cfg := testsupport.NewConfig(t)
	cfg.Notifications.NtfyTopic = server.URL
	rt, _, _ := newRuntime(t, cfg)
	if err := rt.Start(context.Background(), StartOptions{SkipScan: true}); err != nil {
		t.Fatalf("Start: %v", err)
	}
	rt.Stop()

	for _, want := range []string{"streambot online", "streambot offline"} {
		select {
		case got := <-titles:
			if got != want {
				t.Fatalf("expected %q, got %q", want, got)
			}
		case <-time.After(2 * time.Second):
			t.Fatalf("missing %q notification", want)
		}
	}
}
