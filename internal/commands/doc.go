// Package commands executes prefixed chat commands.
//
// The dispatcher accepts messages from allowed users and from the bot itself,
// so play requests emitted by the navigation views run through the same path
// as typed commands. Commands are only honoured in registered command
// channels; when no command channel is configured anywhere every channel is
// accepted.
package commands
