package main

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"streambot/internal/catalog"
	"streambot/internal/config"
)

func newCatalogCommand(ctx *commandContext) *cobra.Command {
	catalogCmd := &cobra.Command{
		Use:   "catalog",
		Short: "Inspect the video catalog",
	}
	catalogCmd.AddCommand(newCatalogCategoriesCommand(ctx))
	catalogCmd.AddCommand(newCatalogVideosCommand(ctx))
	catalogCmd.AddCommand(newCatalogSearchCommand(ctx))
	catalogCmd.AddCommand(newCatalogEpisodesCommand(ctx))
	return catalogCmd
}

func newCatalogCategoriesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "categories",
		Short: "List categories with their video counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				categories, err := store.Categories(cmd.Context())
				if err != nil {
					return err
				}
				if asJSON {
					return writeJSON(cmd, categories)
				}
				out := cmd.OutOrStdout()
				if len(categories) == 0 {
					fmt.Fprintln(out, "No categories found. Run `streambot scan` first.")
					return nil
				}
				rows := make([][]string, 0, len(categories))
				for _, c := range categories {
					rows = append(rows, []string{strconv.FormatInt(c.ID, 10), c.Name, strconv.Itoa(c.VideoCount), c.FolderPath})
				}
				fmt.Fprintln(out, renderTable([]string{"ID", "Name", "Videos", "Folder"}, rows,
					[]columnAlignment{alignRight, alignLeft, alignRight, alignLeft}))
				return nil
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newCatalogVideosCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "videos [category]",
		Short: "List videos, optionally limited to one category (name or id)",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				var videos []catalog.Video
				var err error
				if len(args) == 0 {
					videos, err = store.AllVideos(cmd.Context())
				} else {
					var category *catalog.Category
					category, err = findCategory(cmd, store, args[0])
					if err == nil {
						videos, err = store.VideosByCategory(cmd.Context(), category.ID)
					}
				}
				if err != nil {
					return err
				}
				return printVideos(cmd, videos, asJSON, "No videos found.")
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newCatalogSearchCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "search <term>",
		Short: "Search titles, series names, and descriptions",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			term := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				videos, err := store.SearchVideos(cmd.Context(), term)
				if err != nil {
					return err
				}
				return printVideos(cmd, videos, asJSON, fmt.Sprintf("No videos found matching %q.", term))
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func newCatalogEpisodesCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "episodes <series>",
		Short: "List a series' episodes in season order",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			series := strings.TrimSpace(strings.Join(args, " "))
			return ctx.withStore(func(_ *config.Config, store *catalog.Store) error {
				videos, err := store.EpisodesBySeries(cmd.Context(), series)
				if err != nil {
					return err
				}
				return printVideos(cmd, videos, asJSON, fmt.Sprintf("No episodes found for %q.", series))
			})
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func findCategory(cmd *cobra.Command, store *catalog.Store, ref string) (*catalog.Category, error) {
	ref = strings.TrimSpace(ref)
	if id, err := strconv.ParseInt(ref, 10, 64); err == nil {
		category, err := store.CategoryByID(cmd.Context(), id)
		if err != nil {
			return nil, err
		}
		if category != nil {
			return category, nil
		}
	}
	categories, err := store.Categories(cmd.Context())
	if err != nil {
		return nil, err
	}
	for i := range categories {
		if strings.EqualFold(categories[i].Name, ref) {
			return &categories[i], nil
		}
	}
	return nil, errors.New("category not found: " + ref)
}

func printVideos(cmd *cobra.Command, videos []catalog.Video, asJSON bool, empty string) error {
	if asJSON {
		if videos == nil {
			videos = []catalog.Video{}
		}
		return writeJSON(cmd, videos)
	}
	out := cmd.OutOrStdout()
	if len(videos) == 0 {
		fmt.Fprintln(out, empty)
		return nil
	}
	writeVideoTable(out, videos)
	return nil
}

func writeVideoTable(out io.Writer, videos []catalog.Video) {
	rows := make([][]string, 0, len(videos))
	for _, v := range videos {
		title := v.Title
		if label := v.EpisodeLabel(); label != "" {
			title = fmt.Sprintf("%s %s - %s", v.SeriesName, label, v.Title)
		}
		rows = append(rows, []string{
			strconv.FormatInt(v.ID, 10),
			title,
			v.CategoryName,
			formatDuration(v.Duration),
			v.Resolution(),
			formatLastPlayed(v.LastPlayed),
		})
	}
	fmt.Fprintln(out, renderTable(
		[]string{"ID", "Title", "Category", "Duration", "Resolution", "Last played"},
		rows,
		[]columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignLeft, alignLeft},
	))
	fmt.Fprintf(out, "%d videos\n", len(videos))
}

func formatDuration(d time.Duration) string {
	if d <= 0 {
		return "-"
	}
	total := int(d.Round(time.Second) / time.Second)
	hours, minutes, seconds := total/3600, total/60%60, total%60
	if hours > 0 {
		return fmt.Sprintf("%d:%02d:%02d", hours, minutes, seconds)
	}
	return fmt.Sprintf("%d:%02d", minutes, seconds)
}

func formatLastPlayed(t time.Time) string {
	if t.IsZero() {
		return "never"
	}
	return t.Local().Format("2006-01-02 15:04")
}
