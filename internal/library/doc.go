// Package library walks the videos directory and records what it finds in
// the catalog.
//
// Each directory below the root becomes a category named after the folder;
// files directly under the root are recorded without a category. Filenames
// are parsed for series, season, and episode markers, and ffprobe supplies
// duration, dimensions, and codec.
package library
