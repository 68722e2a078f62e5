// Package transport defines the chat messaging surface the bot runs on.
//
// The navigation engine, command dispatcher, and prompt correlator depend
// only on the Transport interface. Concrete adapters live in subpackages:
// discord wraps discordgo for production use and memory provides an
// in-process implementation for tests. Inbound messages are fanned out to
// registered handlers and to any pending WaitForMessage callers through the
// Waiters hub.
package transport
