package services_test

import (
	"context"
	"testing"

	"streambot/internal/services"
)

func TestContextHelpers(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSessionID(ctx, "msg-1")
	ctx = services.WithChannelID(ctx, "chan-9")
	ctx = services.WithRequestID(ctx, "req-123")

	if id, ok := services.SessionIDFromContext(ctx); !ok || id != "msg-1" {
		t.Fatalf("unexpected session id: %v %v", id, ok)
	}
	if id, ok := services.ChannelIDFromContext(ctx); !ok || id != "chan-9" {
		t.Fatalf("unexpected channel id: %v %v", id, ok)
	}
	if rid, ok := services.RequestIDFromContext(ctx); !ok || rid != "req-123" {
		t.Fatalf("unexpected request id: %v %v", rid, ok)
	}
}

func TestBlankValuesPreserveContext(t *testing.T) {
	ctx := context.Background()
	ctx = services.WithSessionID(ctx, "")
	ctx = services.WithChannelID(ctx, "")
	if _, ok := services.SessionIDFromContext(ctx); ok {
		t.Fatal("expected no session value")
	}
	if _, ok := services.ChannelIDFromContext(ctx); ok {
		t.Fatal("expected no channel value")
	}
}
