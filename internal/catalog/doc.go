// Package catalog persists the video library in SQLite.
//
// The store owns categories (one per top-level folder of the videos
// directory), video records with optional series/season/episode metadata,
// chat channel registrations and their voice mappings, and user playlists.
// The schema is embedded and versioned; a version mismatch is reported as
// ErrSchemaMismatch and the operator is expected to rebuild the database
// with a fresh scan.
package catalog
