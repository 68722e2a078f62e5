// Package main hosts the streambot CLI entrypoint and command graph.
//
// The Cobra command tree starts the bot, refreshes and inspects the video
// catalog, scaffolds configuration, and reports dependency and hardware
// status. Configuration is resolved once per invocation and shared by the
// subcommands; the bot itself lives in internal/bot.
package main
