// Package services defines shared utilities consumed by the navigation,
// command, and playback layers.
//
// Key responsibilities:
//   - Context helpers that stamp session message IDs, channel IDs, and
//     correlation identifiers for logging.
//   - Structured error markers plus the Wrap helper so failures can be
//     classified and turned into short chat replies.
package services
