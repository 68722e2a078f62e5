package commands

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"unicode"

	"github.com/lithammer/fuzzysearch/fuzzy"

	"streambot/internal/catalog"
	"streambot/internal/services"
)

var errUnterminatedQuote = errors.New("unterminated quoted argument")

// SplitArgs splits a command argument string into words. Double-quoted words
// use Go string literal syntax, so strconv.Quote output round-trips; other
// words are separated by whitespace.
func SplitArgs(s string) ([]string, error) {
	var out []string
	for {
		s = strings.TrimLeftFunc(s, unicode.IsSpace)
		if s == "" {
			return out, nil
		}
		if s[0] == '"' {
			quoted, err := strconv.QuotedPrefix(s)
			if err != nil {
				return nil, errUnterminatedQuote
			}
			word, err := strconv.Unquote(quoted)
			if err != nil {
				return nil, errUnterminatedQuote
			}
			out = append(out, word)
			s = s[len(quoted):]
			continue
		}
		end := strings.IndexFunc(s, unicode.IsSpace)
		if end < 0 {
			end = len(s)
		}
		out = append(out, s[:end])
		s = s[end:]
	}
}

// singleArg returns args as one path or title. A fully quoted argument is
// unquoted; anything else is taken verbatim so unquoted paths may contain
// spaces.
func singleArg(args string) string {
	args = strings.TrimSpace(args)
	if strings.HasPrefix(args, `"`) {
		if quoted, err := strconv.QuotedPrefix(args); err == nil && len(quoted) == len(args) {
			if word, err := strconv.Unquote(quoted); err == nil {
				return word
			}
		}
	}
	return args
}

// resolvePath finds a file for arg: as given, then relative to the videos
// directory.
func (d *Dispatcher) resolvePath(arg string) (string, bool) {
	if arg == "" {
		return "", false
	}
	if isFile(arg) {
		return arg, true
	}
	if dir := d.cfg.Paths.VideosDir; dir != "" && !filepath.IsAbs(arg) {
		candidate := filepath.Join(dir, arg)
		if isFile(candidate) {
			return candidate, true
		}
	}
	return "", false
}

// resolvePlayable extends resolvePath with a title match against the
// catalog: exact (case-insensitive) first, then the closest fuzzy match.
func (d *Dispatcher) resolvePlayable(ctx context.Context, arg string) (string, error) {
	if path, ok := d.resolvePath(arg); ok {
		return path, nil
	}
	videos, err := d.store.AllVideos(ctx)
	if err != nil {
		return "", services.Wrap(services.ErrCatalog, "commands", "resolve", "load videos", err)
	}
	if video, ok := MatchTitle(videos, arg); ok {
		return video.FilePath, nil
	}
	return "", services.Wrap(services.ErrNotFound, "commands", "resolve", fmt.Sprintf("video file not found: %s", arg), nil)
}

// MatchTitle picks the video whose title best matches query.
func MatchTitle(videos []catalog.Video, query string) (catalog.Video, bool) {
	query = strings.TrimSpace(query)
	if query == "" || len(videos) == 0 {
		return catalog.Video{}, false
	}
	for _, v := range videos {
		if strings.EqualFold(v.Title, query) {
			return v, true
		}
	}
	titles := make([]string, len(videos))
	for i, v := range videos {
		titles[i] = v.Title
	}
	ranks := fuzzy.RankFindNormalizedFold(query, titles)
	if len(ranks) == 0 {
		return catalog.Video{}, false
	}
	best := ranks[0]
	for _, rank := range ranks[1:] {
		if rank.Distance < best.Distance || (rank.Distance == best.Distance && rank.OriginalIndex < best.OriginalIndex) {
			best = rank
		}
	}
	return videos[best.OriginalIndex], true
}

func isFile(path string) bool {
	info, err := os.Stat(path)
	return err == nil && !info.IsDir()
}

func baseName(path string) string {
	if path == "" {
		return ""
	}
	return filepath.Base(path)
}
