// Package config loads, normalizes, and validates streambot configuration data.
//
// It supplies repository defaults, expands user paths (including tilde
// shortcuts), reads TOML files, and honours environment fallbacks such as
// STREAMBOT_DISCORD_TOKEN. The Config type centralizes every knob the bot
// runtime and CLI need, so the videos directory, catalog database, chat
// credentials, and stream settings are discovered in one pass.
//
// Always obtain settings through this package so downstream code receives
// sanitized paths, canonical log formats, and clear validation errors.
package config
