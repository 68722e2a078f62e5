// Package notifications pushes bot lifecycle and playback alerts to ntfy.
//
// A Notifier is built from config; without a topic it is a no-op so callers
// never branch on whether notifications are enabled. Delivery failures are
// returned to the caller, which logs them and carries on.
package notifications
