package library

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"streambot/internal/catalog"
	"streambot/internal/logging"
	"streambot/internal/media/ffprobe"
	"streambot/internal/services"
)

// Store is the subset of the catalog the scanner writes to.
type Store interface {
	UpsertCategory(ctx context.Context, name, folderPath string) (int64, error)
	UpsertVideo(ctx context.Context, input catalog.VideoInput) (int64, error)
	RemoveMissing(ctx context.Context, keep map[string]struct{}) (int, error)
}

// Prober extracts media metadata for a file.
type Prober func(ctx context.Context, path string) (ffprobe.VideoInfo, error)

// FFprobe returns a Prober backed by the ffprobe binary.
func FFprobe(binary string) Prober {
	return func(ctx context.Context, path string) (ffprobe.VideoInfo, error) {
		result, err := ffprobe.Inspect(ctx, binary, path)
		if err != nil {
			return ffprobe.VideoInfo{}, err
		}
		return result.Video(), nil
	}
}

// Report summarizes a completed scan.
type Report struct {
	Categories    int
	Videos        int
	Removed       int
	ProbeFailures int
	Elapsed       time.Duration
}

// Scanner records the contents of a videos directory in the catalog.
type Scanner struct {
	root   string
	store  Store
	probe  Prober
	logger *slog.Logger
}

// NewScanner constructs a scanner rooted at dir. A nil probe records videos
// without media metadata.
func NewScanner(dir string, store Store, probe Prober, logger *slog.Logger) *Scanner {
	return &Scanner{
		root:   dir,
		store:  store,
		probe:  probe,
		logger: logging.NewComponentLogger(logger, "library"),
	}
}

// Scan walks the directory, upserts every video, and removes catalog entries
// whose files are gone.
func (s *Scanner) Scan(ctx context.Context) (Report, error) {
	start := time.Now()
	var report Report

	if err := os.MkdirAll(s.root, 0o755); err != nil {
		return report, services.Wrap(services.ErrConfiguration, "library", "scan", "create videos directory", err)
	}
	s.logger.Info("library scan started", logging.String("videos_dir", s.root), logging.String(logging.FieldEventType, "scan_started"))

	categories := make(map[string]int64)
	seen := make(map[string]struct{})
	walkErr := filepath.WalkDir(s.root, func(path string, entry fs.DirEntry, err error) error {
		if err != nil {
			logging.WarnWithContext(s.logger, "skipping unreadable path", "scan_path_unreadable",
				logging.String("path", path),
				logging.Error(err),
				logging.String(logging.FieldImpact, "files below this path are not cataloged"),
			)
			if entry != nil && entry.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if entry.IsDir() {
			if path != s.root && strings.HasPrefix(entry.Name(), ".") {
				return fs.SkipDir
			}
			return nil
		}
		if !IsVideoFile(path) {
			return nil
		}

		var categoryID int64
		dir := filepath.Dir(path)
		if dir != s.root {
			id, ok := categories[dir]
			if !ok {
				id, err = s.store.UpsertCategory(ctx, filepath.Base(dir), dir)
				if err != nil {
					return services.Wrap(services.ErrCatalog, "library", "upsert category", dir, err)
				}
				categories[dir] = id
			}
			categoryID = id
		}

		parsed := ParseFilename(path)
		input := catalog.VideoInput{
			Title:      parsed.Title,
			FilePath:   path,
			CategoryID: categoryID,
			SeriesName: parsed.SeriesName,
			Season:     parsed.Season,
			Episode:    parsed.Episode,
		}
		if s.probe != nil {
			info, probeErr := s.probe(ctx, path)
			if probeErr != nil {
				report.ProbeFailures++
				s.logger.Debug("ffprobe failed; recording without metadata", logging.String("path", path), logging.Error(probeErr))
			} else {
				input.Duration = info.Duration
				input.Width = info.Width
				input.Height = info.Height
				input.Codec = info.Codec
			}
		}
		if _, err := s.store.UpsertVideo(ctx, input); err != nil {
			return services.Wrap(services.ErrCatalog, "library", "upsert video", path, err)
		}
		seen[path] = struct{}{}
		report.Videos++
		return nil
	})
	if walkErr != nil {
		if errors.Is(walkErr, context.Canceled) || errors.Is(walkErr, context.DeadlineExceeded) {
			return report, walkErr
		}
		return report, fmt.Errorf("scan %s: %w", s.root, walkErr)
	}

	removed, err := s.store.RemoveMissing(ctx, seen)
	if err != nil {
		return report, services.Wrap(services.ErrCatalog, "library", "prune", "remove missing videos", err)
	}
	report.Removed = removed
	report.Categories = len(categories)
	report.Elapsed = time.Since(start)

	s.logger.Info("library scan finished",
		logging.Int("categories", report.Categories),
		logging.Int("videos", report.Videos),
		logging.Int("removed", report.Removed),
		logging.Int("probe_failures", report.ProbeFailures),
		logging.Duration("elapsed", report.Elapsed),
		logging.String(logging.FieldEventType, "scan_finished"),
	)
	return report, nil
}
