package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"streambot/internal/catalog"
	"streambot/internal/config"
	"streambot/internal/library"
	"streambot/internal/logging"
)

func newScanCommand(ctx *commandContext) *cobra.Command {
	var verbose bool

	cmd := &cobra.Command{
		Use:   "scan",
		Short: "Refresh the catalog from the videos directory",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withStore(func(cfg *config.Config, store *catalog.Store) error {
				level := "warn"
				if verbose {
					level = "debug"
				}
				logger, err := logging.New(logging.Options{Level: level, Format: cfg.Logging.Format, OutputPaths: []string{"stderr"}})
				if err != nil {
					return fmt.Errorf("init logger: %w", err)
				}
				scanner := library.NewScanner(cfg.Paths.VideosDir, store, library.FFprobe(cfg.FFprobeBinary()), logger)
				report, err := scanner.Scan(cmd.Context())
				if err != nil {
					return err
				}
				out := cmd.OutOrStdout()
				fmt.Fprintf(out, "Scanned %s in %s\n", cfg.Paths.VideosDir, report.Elapsed.Round(time.Millisecond))
				fmt.Fprint(out, renderTable(
					[]string{"Categories", "Videos", "Removed", "Probe failures"},
					[][]string{{
						fmt.Sprint(report.Categories),
						fmt.Sprint(report.Videos),
						fmt.Sprint(report.Removed),
						fmt.Sprint(report.ProbeFailures),
					}},
					[]columnAlignment{alignRight, alignRight, alignRight, alignRight},
				))
				fmt.Fprintln(out)
				return nil
			})
		},
	}
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Log each file as it is scanned")
	return cmd
}
