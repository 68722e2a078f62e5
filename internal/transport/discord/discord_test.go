package discord

import (
	"errors"
	"net/http"
	"testing"
	"time"

	"github.com/bwmarrin/discordgo"

	"streambot/internal/logging"
	"streambot/internal/services"
	"streambot/internal/transport"
)

func TestNewRequiresToken(t *testing.T) {
	if _, err := New("  ", logging.NewNop()); !errors.Is(err, services.ErrConfiguration) {
		t.Fatalf("expected configuration error, got %v", err)
	}
}

func TestNewConfiguresIntents(t *testing.T) {
	client, err := New("abc", logging.NewNop())
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if client.session.Identify.Intents&discordgo.IntentsMessageContent == 0 {
		t.Fatal("message content intent must be requested")
	}
	if client.session.Identify.Intents&discordgo.IntentsGuildMessageReactions == 0 {
		t.Fatal("reaction intent must be requested")
	}
	if !client.session.SyncEvents {
		t.Fatal("gateway events must be handled in order")
	}
}

func TestConvertEmbed(t *testing.T) {
	embed := convertEmbed(transport.Embed{
		Title:       "Categories",
		Description: "Pick one",
		Footer:      "Page 1 of 2",
		Fields:      []transport.Field{{Name: "1. Movies", Value: "12 videos"}},
	})
	if embed.Color != embedColor {
		t.Fatalf("expected default color, got %x", embed.Color)
	}
	if embed.Footer == nil || embed.Footer.Text != "Page 1 of 2" {
		t.Fatalf("unexpected footer %+v", embed.Footer)
	}
	if len(embed.Fields) != 1 || embed.Fields[0].Name != "1. Movies" {
		t.Fatalf("unexpected fields %+v", embed.Fields)
	}
	if bare := convertEmbed(transport.Embed{Title: "x"}); bare.Footer != nil {
		t.Fatal("empty footer should be omitted")
	}
}

func TestConvertMessage(t *testing.T) {
	ts := time.Date(2024, 1, 2, 3, 4, 5, 0, time.UTC)
	msg := convertMessage(&discordgo.Message{
		ID:        "1",
		ChannelID: "2",
		GuildID:   "3",
		Content:   "$list",
		Timestamp: ts,
		Author:    &discordgo.User{ID: "42"},
	})
	if msg.AuthorID != "42" || msg.Content != "$list" || !msg.CreatedAt.Equal(ts) {
		t.Fatalf("unexpected conversion %+v", msg)
	}
	if anon := convertMessage(&discordgo.Message{ID: "9"}); anon.AuthorID != "" {
		t.Fatal("missing author should leave AuthorID empty")
	}
}

func TestIsNotFound(t *testing.T) {
	notFound := &discordgo.RESTError{Response: &http.Response{StatusCode: http.StatusNotFound}}
	if !IsNotFound(services.Wrap(services.ErrTransport, "discord", "delete", "x", notFound)) {
		t.Fatal("expected wrapped 404 to be detected")
	}
	if IsNotFound(errors.New("other")) {
		t.Fatal("plain error is not a 404")
	}
}
