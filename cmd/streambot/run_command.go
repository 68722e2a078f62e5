package main

import (
	"github.com/spf13/cobra"

	"streambot/internal/bot"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var logLevel string
	var skipScan bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Connect to Discord and serve commands until interrupted",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			return bot.Run(cmd.Context(), cfg, bot.Options{LogLevel: logLevel, SkipScan: skipScan})
		},
	}
	cmd.Flags().StringVar(&logLevel, "log-level", "", "Override logging.level (debug, info, warn, error)")
	cmd.Flags().BoolVar(&skipScan, "no-scan", false, "Skip the library scan at startup")
	return cmd
}
