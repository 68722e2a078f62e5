package library

import (
	"path/filepath"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

// VideoExtensions lists the file extensions the scanner treats as videos.
var VideoExtensions = []string{".mp4", ".mkv", ".avi", ".mov", ".wmv", ".flv", ".webm"}

var (
	dashedEpisodePattern = regexp.MustCompile(`(?i)^(.+?)\s*-\s*S(\d+)E(\d+)(?:\s*-\s*(.+))?$`)
	spacedEpisodePattern = regexp.MustCompile(`(?i)^(.+?)\s*S(\d+)E(\d+)(?:\s+(.+))?$`)
	dottedEpisodePattern = regexp.MustCompile(`(?i)^(.+?)\.(\d+)x(\d+)(?:\.(.+))?$`)
)

// ParsedName is the metadata recovered from a filename.
type ParsedName struct {
	Title      string
	SeriesName string
	Season     int
	Episode    int
}

// IsVideoFile reports whether the path has a known video extension.
func IsVideoFile(path string) bool {
	ext := strings.ToLower(filepath.Ext(path))
	for _, candidate := range VideoExtensions {
		if ext == candidate {
			return true
		}
	}
	return false
}

// ParseFilename extracts series metadata from names such as
// "Show - S01E02 - Title", "Show S01E02 Title" and "Show.1x02.Title".
// Anything else is treated as a standalone video.
func ParseFilename(filename string) ParsedName {
	name := strings.TrimSuffix(filepath.Base(filename), filepath.Ext(filename))

	if m := dashedEpisodePattern.FindStringSubmatch(name); m != nil {
		return episodeFrom(strings.TrimSpace(m[1]), m[2], m[3], strings.TrimSpace(m[4]))
	}
	if m := spacedEpisodePattern.FindStringSubmatch(name); m != nil {
		return episodeFrom(strings.TrimSpace(m[1]), m[2], m[3], strings.TrimSpace(m[4]))
	}
	if m := dottedEpisodePattern.FindStringSubmatch(strings.ReplaceAll(name, " ", ".")); m != nil {
		series := strings.TrimSpace(strings.ReplaceAll(m[1], ".", " "))
		title := strings.TrimSpace(strings.ReplaceAll(m[4], ".", " "))
		return episodeFrom(series, m[2], m[3], title)
	}
	return ParsedName{Title: deriveTitle(name)}
}

func episodeFrom(series, season, episode, title string) ParsedName {
	s, _ := strconv.Atoi(season)
	e, _ := strconv.Atoi(episode)
	if title == "" {
		title = "Episode " + strconv.Itoa(e)
	}
	return ParsedName{Title: title, SeriesName: series, Season: s, Episode: e}
}

// deriveTitle turns separators into spaces. All-lowercase names are title
// cased; names with existing capitals keep them.
func deriveTitle(base string) string {
	cleaned := strings.Builder{}
	prevSpace := false
	hasUpper := false
	for _, r := range base {
		switch {
		case unicode.IsSpace(r) || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		default:
			if unicode.IsUpper(r) {
				hasUpper = true
			}
			cleaned.WriteRune(r)
			prevSpace = false
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return "Untitled"
	}
	if hasUpper {
		return title
	}
	return cases.Title(language.Und).String(title)
}
