// Package preflight provides readiness checks for the chat API, external
// binaries, and filesystem paths streambot depends on.
//
// The bot runtime calls RunAll before connecting and refuses to start when a
// required check fails; the CLI "streambot status" command prints the same
// results alongside CheckDiscord.
package preflight
