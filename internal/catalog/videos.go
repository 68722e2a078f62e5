package catalog

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/lithammer/fuzzysearch/fuzzy"
)

const videoColumns = `v.id, v.title, v.file_path, COALESCE(v.category_id, 0), COALESCE(c.name, ''),
    COALESCE(v.series_name, ''), COALESCE(v.season, 0), COALESCE(v.episode, 0),
    COALESCE(v.description, ''), v.duration_ms, v.width, v.height, COALESCE(v.codec, ''),
    v.date_added, v.last_played`

const videoFrom = ` FROM videos v LEFT JOIN categories c ON v.category_id = c.id`

const videoOrder = ` ORDER BY v.series_name, v.season, v.episode, v.title, v.id`

type rowScanner interface {
	Scan(dest ...any) error
}

func scanVideo(row rowScanner) (*Video, error) {
	var (
		video      Video
		durationMS int64
		added      sql.NullString
		played     sql.NullString
	)
	if err := row.Scan(
		&video.ID, &video.Title, &video.FilePath, &video.CategoryID, &video.CategoryName,
		&video.SeriesName, &video.Season, &video.Episode,
		&video.Description, &durationMS, &video.Width, &video.Height, &video.Codec,
		&added, &played,
	); err != nil {
		return nil, err
	}
	video.Duration = time.Duration(durationMS) * time.Millisecond
	video.AddedAt = parseTime(added)
	video.LastPlayed = parseTime(played)
	return &video, nil
}

func (s *Store) queryVideos(ctx context.Context, op, where string, args ...any) ([]Video, error) {
	query := `SELECT ` + videoColumns + videoFrom + where + videoOrder
	rows, err := s.db.QueryContext(ensureContext(ctx), query, args...)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer rows.Close()

	var videos []Video
	for rows.Next() {
		video, err := scanVideo(rows)
		if err != nil {
			return nil, fmt.Errorf("%s: scan: %w", op, err)
		}
		videos = append(videos, *video)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return videos, nil
}

// UpsertCategory records a category for a folder and returns its ID.
func (s *Store) UpsertCategory(ctx context.Context, name, folderPath string) (int64, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return 0, errors.New("category name is required")
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO categories (name, folder_path, created_at) VALUES (?, ?, ?)
         ON CONFLICT(name) DO UPDATE SET folder_path = excluded.folder_path`,
		name, folderPath, nowText(),
	); err != nil {
		return 0, fmt.Errorf("upsert category: %w", err)
	}
	var id int64
	if err := s.db.QueryRowContext(ensureContext(ctx), "SELECT id FROM categories WHERE name = ?", name).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup category id: %w", err)
	}
	return id, nil
}

// Categories lists every category with its video count, ordered by name.
func (s *Store) Categories(ctx context.Context) ([]Category, error) {
	rows, err := s.db.QueryContext(ensureContext(ctx),
		`SELECT c.id, c.name, c.folder_path, COUNT(v.id)
         FROM categories c LEFT JOIN videos v ON v.category_id = c.id
         GROUP BY c.id ORDER BY c.name`)
	if err != nil {
		return nil, fmt.Errorf("list categories: %w", err)
	}
	defer rows.Close()

	var categories []Category
	for rows.Next() {
		var category Category
		if err := rows.Scan(&category.ID, &category.Name, &category.FolderPath, &category.VideoCount); err != nil {
			return nil, fmt.Errorf("scan category: %w", err)
		}
		categories = append(categories, category)
	}
	return categories, rows.Err()
}

// CategoryByID fetches a category. It returns nil when the category does not exist.
func (s *Store) CategoryByID(ctx context.Context, id int64) (*Category, error) {
	var category Category
	err := s.db.QueryRowContext(ensureContext(ctx),
		`SELECT c.id, c.name, c.folder_path, COUNT(v.id)
         FROM categories c LEFT JOIN videos v ON v.category_id = c.id
         WHERE c.id = ? GROUP BY c.id`, id,
	).Scan(&category.ID, &category.Name, &category.FolderPath, &category.VideoCount)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get category: %w", err)
	}
	return &category, nil
}

// UpsertVideo inserts or refreshes the record for a file path and returns its ID.
// The date added and last played timestamps survive a refresh.
func (s *Store) UpsertVideo(ctx context.Context, input VideoInput) (int64, error) {
	if strings.TrimSpace(input.FilePath) == "" {
		return 0, errors.New("video file path is required")
	}
	title := strings.TrimSpace(input.Title)
	if title == "" {
		return 0, errors.New("video title is required")
	}
	var category any
	if input.CategoryID > 0 {
		category = input.CategoryID
	}
	if _, err := s.execWithRetry(ctx,
		`INSERT INTO videos (
            title, file_path, category_id, series_name, season, episode,
            description, duration_ms, width, height, codec, date_added
        ) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
        ON CONFLICT(file_path) DO UPDATE SET
            title = excluded.title,
            category_id = excluded.category_id,
            series_name = excluded.series_name,
            season = excluded.season,
            episode = excluded.episode,
            description = excluded.description,
            duration_ms = excluded.duration_ms,
            width = excluded.width,
            height = excluded.height,
            codec = excluded.codec`,
		title,
		input.FilePath,
		category,
		nullableString(input.SeriesName),
		nullableInt(input.Season),
		nullableInt(input.Episode),
		nullableString(input.Description),
		input.Duration.Milliseconds(),
		input.Width,
		input.Height,
		nullableString(input.Codec),
		nowText(),
	); err != nil {
		return 0, fmt.Errorf("upsert video: %w", err)
	}
	var id int64
	if err := s.db.QueryRowContext(ensureContext(ctx), "SELECT id FROM videos WHERE file_path = ?", input.FilePath).Scan(&id); err != nil {
		return 0, fmt.Errorf("lookup video id: %w", err)
	}
	return id, nil
}

// VideosByCategory lists the videos in a category.
func (s *Store) VideosByCategory(ctx context.Context, categoryID int64) ([]Video, error) {
	return s.queryVideos(ctx, "videos by category", " WHERE v.category_id = ?", categoryID)
}

// AllVideos lists every video in the catalog.
func (s *Store) AllVideos(ctx context.Context) ([]Video, error) {
	return s.queryVideos(ctx, "all videos", "")
}

// SearchVideos matches the term as a case-insensitive substring of the title,
// series name, or description. Results are ranked by how closely the title
// matches the term; videos matched only through series or description come
// last, in catalog order.
func (s *Store) SearchVideos(ctx context.Context, term string) ([]Video, error) {
	term = strings.TrimSpace(term)
	if term == "" {
		return nil, nil
	}
	pattern := "%" + escapeLike(term) + "%"
	videos, err := s.queryVideos(ctx, "search videos",
		` WHERE v.title LIKE ? ESCAPE '\' OR v.series_name LIKE ? ESCAPE '\' OR v.description LIKE ? ESCAPE '\'`,
		pattern, pattern, pattern)
	if err != nil {
		return nil, err
	}
	rankByTitle(videos, term)
	return videos, nil
}

func rankByTitle(videos []Video, term string) {
	titles := make([]string, len(videos))
	for i, v := range videos {
		titles[i] = v.Title
	}
	distance := make(map[int]int, len(videos))
	for _, rank := range fuzzy.RankFindNormalizedFold(term, titles) {
		distance[rank.OriginalIndex] = rank.Distance
	}
	order := make([]int, len(videos))
	for i := range order {
		order[i] = i
	}
	sort.SliceStable(order, func(i, j int) bool {
		di, iok := distance[order[i]]
		dj, jok := distance[order[j]]
		if iok != jok {
			return iok
		}
		return iok && di < dj
	})
	ranked := make([]Video, len(videos))
	for i, idx := range order {
		ranked[i] = videos[idx]
	}
	copy(videos, ranked)
}

// EpisodesBySeries lists a series' episodes in season/episode order.
func (s *Store) EpisodesBySeries(ctx context.Context, seriesName string) ([]Video, error) {
	return s.queryVideos(ctx, "episodes by series", " WHERE v.series_name = ?", seriesName)
}

// VideoByID fetches a video. It returns nil when the video does not exist.
func (s *Store) VideoByID(ctx context.Context, id int64) (*Video, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+videoColumns+videoFrom+` WHERE v.id = ?`, id)
	video, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get video: %w", err)
	}
	return video, nil
}

// VideoByPath fetches a video by its file path. It returns nil when absent.
func (s *Store) VideoByPath(ctx context.Context, path string) (*Video, error) {
	row := s.db.QueryRowContext(ensureContext(ctx), `SELECT `+videoColumns+videoFrom+` WHERE v.file_path = ?`, path)
	video, err := scanVideo(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("get video by path: %w", err)
	}
	return video, nil
}

// MarkPlayed stamps the video's last played time.
func (s *Store) MarkPlayed(ctx context.Context, id int64) error {
	res, err := s.execWithRetry(ctx, "UPDATE videos SET last_played = ? WHERE id = ?", nowText(), id)
	if err != nil {
		return fmt.Errorf("mark played: %w", err)
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return fmt.Errorf("mark played: video %d not found", id)
	}
	return nil
}

// RemoveMissing deletes videos whose file path is not in keep and returns the
// number removed. Categories left empty are removed as well.
func (s *Store) RemoveMissing(ctx context.Context, keep map[string]struct{}) (int, error) {
	ctx = ensureContext(ctx)
	rows, err := s.db.QueryContext(ctx, "SELECT id, file_path FROM videos")
	if err != nil {
		return 0, fmt.Errorf("list video paths: %w", err)
	}
	var stale []int64
	for rows.Next() {
		var (
			id   int64
			path string
		)
		if err := rows.Scan(&id, &path); err != nil {
			rows.Close()
			return 0, fmt.Errorf("scan video path: %w", err)
		}
		if _, ok := keep[path]; !ok {
			stale = append(stale, id)
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, fmt.Errorf("list video paths: %w", err)
	}

	for _, id := range stale {
		if _, err := s.execWithRetry(ctx, "DELETE FROM videos WHERE id = ?", id); err != nil {
			return 0, fmt.Errorf("delete video %d: %w", id, err)
		}
	}
	if _, err := s.execWithRetry(ctx,
		"DELETE FROM categories WHERE id NOT IN (SELECT DISTINCT category_id FROM videos WHERE category_id IS NOT NULL)",
	); err != nil {
		return 0, fmt.Errorf("prune categories: %w", err)
	}
	return len(stale), nil
}

func escapeLike(term string) string {
	replacer := strings.NewReplacer(`\`, `\\`, `%`, `\%`, `_`, `\_`)
	return replacer.Replace(term)
}
