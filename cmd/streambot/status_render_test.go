package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"streambot/internal/deps"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("FFmpeg", statusError, "not found", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "FFmpeg:", "[ERROR] not found")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Videos", statusOK, "Ready", true)
	if !strings.HasPrefix(got, ansiGreen) || !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected green wrapped line, got %q", got)
	}
}

func TestDependencyLines(t *testing.T) {
	statuses := []deps.Status{
		{Name: "FFmpeg", Available: false, Detail: `binary "ffmpeg" not found`},
		{Name: "FFprobe", Available: true, Command: "ffprobe", Optional: true},
		{Name: "Extra", Available: false, Optional: true, Detail: "command not configured"},
	}
	lines := dependencyLines(statuses, false)
	if len(lines) != 5 {
		t.Fatalf("expected 5 lines, got %d: %q", len(lines), lines)
	}
	if !strings.Contains(lines[0], "[ERROR] 1 of 3 available") {
		t.Fatalf("unexpected summary %q", lines[0])
	}
	if !strings.Contains(lines[1], `[ERROR] binary "ffmpeg" not found`) {
		t.Fatalf("unexpected required line %q", lines[1])
	}
	if !strings.Contains(lines[2], "[OK] Ready (command: ffprobe)") {
		t.Fatalf("unexpected ready line %q", lines[2])
	}
	if !strings.Contains(lines[3], "[WARN] command not configured") {
		t.Fatalf("unexpected optional line %q", lines[3])
	}
	if !strings.Contains(lines[4], "Missing dependencies: FFmpeg") {
		t.Fatalf("unexpected missing line %q", lines[4])
	}
}

func TestStatusCommandOffline(t *testing.T) {
	env := setupCLITestEnv(t)

	out, _, err := runCLI(t, []string{"status", "--offline"}, env.configPath)
	if err != nil {
		t.Fatalf("status: %v\n%s", err, out)
	}
	requireContains(t, out, "== Dependencies ==")
	requireContains(t, out, "[OK] Ready (command: ffmpeg)")
	requireContains(t, out, "Configured (not verified)")
	requireContains(t, out, "[WARN] 0 in 0 categories")
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
