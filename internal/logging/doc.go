// Package logging assembles structured slog loggers and formatting helpers used
// across streambot.
//
// It owns the configurable console/JSON handlers, centralizes level and output
// plumbing, and exposes context-aware helpers so navigation and command code
// can tag log lines with session message IDs, channels, and correlation IDs.
// The package also provides a no-op logger for tests and wiring code that
// cannot fail.
package logging
