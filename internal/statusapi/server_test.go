package statusapi

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gorilla/websocket"

	"streambot/internal/catalog"
	"streambot/internal/logging"
	"streambot/internal/nav"
	"streambot/internal/playback"
	"streambot/internal/sysinfo"
	"streambot/internal/testsupport"
)

type sessionsStub []nav.SessionInfo

func (s sessionsStub) Snapshot() []nav.SessionInfo { return s }

type playerStub struct {
	status   playback.Status
	statsErr error
}

func (p playerStub) Status() playback.Status { return p.status }

func (p playerStub) Stats(context.Context) (sysinfo.Process, error) {
	if p.statsErr != nil {
		return sysinfo.Process{}, p.statsErr
	}
	return sysinfo.Process{PID: int32(p.status.PID), RSSBytes: 1024}, nil
}

type catalogStub struct{ stats catalog.Stats }

func (c catalogStub) Stats(context.Context) (catalog.Stats, error) { return c.stats, nil }

func newTestServer(t *testing.T, sources Sources) (*Server, *httptest.Server) {
	t.Helper()
	cfg := testsupport.NewConfig(t)
	cfg.Status.Enabled = true
	cfg.Status.Username = "admin"
	cfg.Status.Password = "secret"
	srv := New(cfg, sources, logging.NewNop())
	if srv == nil {
		t.Fatal("expected a server when status is enabled")
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(func() {
		srv.Broadcaster().Close()
		ts.Close()
	})
	return srv, ts
}

func TestNewDisabled(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	cfg.Status.Enabled = false
	if srv := New(cfg, Sources{}, logging.NewNop()); srv != nil {
		t.Fatal("expected nil server when disabled")
	}
}

func TestStatusRequiresBasicAuth(t *testing.T) {
	_, ts := newTestServer(t, Sources{})

	resp, err := http.Get(ts.URL + "/api/status")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401, got %d", resp.StatusCode)
	}
	if !strings.HasPrefix(resp.Header.Get("WWW-Authenticate"), "Basic") {
		t.Fatalf("expected a basic auth challenge, got %q", resp.Header.Get("WWW-Authenticate"))
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/status", nil)
	req.SetBasicAuth("admin", "wrong")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 for a wrong password, got %d", resp.StatusCode)
	}
}

func TestStatusDocument(t *testing.T) {
	created := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	srv, _ := newTestServer(t, Sources{
		Sessions: sessionsStub{{MessageID: "m1", ChannelID: "c1", View: "categories", CreatedAt: created}},
		Player:   playerStub{status: playback.Status{State: playback.StatePlaying, Path: "/v/a.mkv", PID: 4242, Total: 1}},
		Catalog:  catalogStub{stats: catalog.Stats{Categories: 2, Videos: 9}},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.SetBasicAuth("admin", "secret")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 OK, got %d: %s", w.Code, w.Body.String())
	}
	var doc Status
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if len(doc.Sessions) != 1 || doc.Sessions[0].View != "categories" {
		t.Fatalf("unexpected sessions %+v", doc.Sessions)
	}
	if doc.Player.State != playback.StatePlaying || doc.Player.Path != "/v/a.mkv" {
		t.Fatalf("unexpected player %+v", doc.Player)
	}
	if doc.Process == nil || doc.Process.PID != 4242 {
		t.Fatalf("expected process stats, got %+v", doc.Process)
	}
	if doc.Catalog == nil || doc.Catalog.Videos != 9 {
		t.Fatalf("expected catalog stats, got %+v", doc.Catalog)
	}
}

func TestStatusReportsSourceErrors(t *testing.T) {
	srv, _ := newTestServer(t, Sources{
		Player: playerStub{status: playback.Status{State: playback.StatePlaying, PID: 7}, statsErr: errors.New("process gone")},
	})

	req := httptest.NewRequest(http.MethodGet, "/api/status", nil)
	req.SetBasicAuth("admin", "secret")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)

	var doc Status
	if err := json.Unmarshal(w.Body.Bytes(), &doc); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if doc.Errors["process"] != "process gone" {
		t.Fatalf("expected process error, got %+v", doc.Errors)
	}
	if doc.Sessions == nil {
		t.Fatal("sessions should encode as an empty list")
	}
}

func TestStatusRejectsOtherMethods(t *testing.T) {
	srv, _ := newTestServer(t, Sources{})
	req := httptest.NewRequest(http.MethodPost, "/api/status", nil)
	req.SetBasicAuth("admin", "secret")
	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected 405, got %d", w.Code)
	}
}

func dialStatusWS(t *testing.T, ts *httptest.Server) *websocket.Conn {
	t.Helper()
	header := http.Header{}
	req, _ := http.NewRequest(http.MethodGet, ts.URL, nil)
	req.SetBasicAuth("admin", "secret")
	header.Set("Authorization", req.Header.Get("Authorization"))

	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	conn, _, err := websocket.DefaultDialer.Dial(url, header)
	if err != nil {
		t.Fatalf("dial: %v", err)
	}
	t.Cleanup(func() { _ = conn.Close() })
	return conn
}

func readMessage(t *testing.T, conn *websocket.Conn) (MessageType, json.RawMessage) {
	t.Helper()
	_ = conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	var envelope struct {
		Type    MessageType     `json:"type"`
		Payload json.RawMessage `json:"payload"`
	}
	if err := conn.ReadJSON(&envelope); err != nil {
		t.Fatalf("read: %v", err)
	}
	return envelope.Type, envelope.Payload
}

func TestWebsocketSnapshotThenPlaybackEvents(t *testing.T) {
	srv, ts := newTestServer(t, Sources{
		Sessions: sessionsStub{{MessageID: "m1", ChannelID: "c1", View: "videos"}},
	})
	conn := dialStatusWS(t, ts)

	kind, payload := readMessage(t, conn)
	if kind != MsgSnapshot {
		t.Fatalf("expected snapshot first, got %s", kind)
	}
	var doc Status
	if err := json.Unmarshal(payload, &doc); err != nil || len(doc.Sessions) != 1 {
		t.Fatalf("unexpected snapshot %s: %v", payload, err)
	}

	listener := srv.Broadcaster().PlaybackListener()
	listener(playback.Event{Type: playback.EventStarted, Path: "/v/a.mkv", Total: 1})

	kind, payload = readMessage(t, conn)
	if kind != MsgPlayback {
		t.Fatalf("expected playback message, got %s", kind)
	}
	var ev playback.Event
	if err := json.Unmarshal(payload, &ev); err != nil || ev.Type != playback.EventStarted || ev.Path != "/v/a.mkv" {
		t.Fatalf("unexpected event %s: %v", payload, err)
	}
}

func TestWebsocketRequiresAuth(t *testing.T) {
	_, ts := newTestServer(t, Sources{})
	url := "ws" + strings.TrimPrefix(ts.URL, "http") + "/api/ws"
	_, resp, err := websocket.DefaultDialer.Dial(url, nil)
	if err == nil {
		t.Fatal("expected dial to fail without credentials")
	}
	if resp == nil || resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("expected 401 response, got %+v", resp)
	}
}

func TestRemoveClientOnDisconnect(t *testing.T) {
	srv, ts := newTestServer(t, Sources{})
	conn := dialStatusWS(t, ts)
	readMessage(t, conn)

	deadline := time.Now().Add(2 * time.Second)
	for srv.Broadcaster().ClientCount() != 1 {
		if time.Now().After(deadline) {
			t.Fatal("client never registered")
		}
		time.Sleep(5 * time.Millisecond)
	}
	_ = conn.Close()
	for srv.Broadcaster().ClientCount() != 0 {
		if time.Now().After(deadline.Add(2 * time.Second)) {
			t.Fatal("client was not removed after disconnect")
		}
		time.Sleep(5 * time.Millisecond)
	}
}

func TestSameOrigin(t *testing.T) {
	req := httptest.NewRequest(http.MethodGet, "http://bot.local:8080/api/ws", nil)
	if !sameOrigin(req) {
		t.Fatal("requests without an origin should pass")
	}
	req.Header.Set("Origin", "http://bot.local:8080")
	if !sameOrigin(req) {
		t.Fatal("matching origin should pass")
	}
	req.Header.Set("Origin", "http://evil.example")
	if sameOrigin(req) {
		t.Fatal("foreign origin should be rejected")
	}
}
