package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"streambot/internal/config"
	"streambot/internal/deps"
	"streambot/internal/sysinfo"
)

func newHWInfoCommand(ctx *commandContext) *cobra.Command {
	var asJSON bool
	cmd := &cobra.Command{
		Use:   "hwinfo",
		Short: "Show host resources and the encoders ffmpeg offers",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			host, hostErr := sysinfo.HostInfo(cmd.Context())
			encoders, encErr := deps.VideoEncoders(cmd.Context(), ffmpegBinary(cfg))

			if asJSON {
				doc := map[string]any{"host": host, "encoders": encoders}
				if hostErr != nil {
					doc["host_error"] = hostErr.Error()
				}
				if encErr != nil {
					doc["encoders_error"] = encErr.Error()
				}
				return writeJSON(cmd, doc)
			}

			out := cmd.OutOrStdout()
			if hostErr != nil {
				fmt.Fprintf(out, "Host information unavailable: %v\n", hostErr)
			} else {
				fmt.Fprintln(out, renderTable([]string{"Property", "Value"}, hostRows(host), nil))
			}
			if encErr != nil {
				fmt.Fprintf(out, "Encoder list unavailable: %v\n", encErr)
				return nil
			}
			fmt.Fprintln(out, renderTable([]string{"Encoder", "Hardware", "Description"}, encoderRows(encoders), nil))
			if cfg.Stream.Transcode && !deps.HasEncoder(encoders, cfg.Stream.Encoder) {
				fmt.Fprintf(out, "Configured encoder %s is not offered by %s\n", cfg.Stream.Encoder, ffmpegBinary(cfg))
			}
			return nil
		},
	}
	cmd.Flags().BoolVar(&asJSON, "json", false, "Output JSON")
	return cmd
}

func hostRows(host sysinfo.Host) [][]string {
	return [][]string{
		{"Hostname", host.Hostname},
		{"Platform", strings.TrimSpace(host.Platform + " " + host.PlatformVersion)},
		{"Kernel", host.KernelVersion},
		{"Arch", host.Arch},
		{"CPU", fmt.Sprintf("%s (%d cores)", host.CPUModel, host.CPUCores)},
		{"Load (1m)", fmt.Sprintf("%.2f", host.Load1)},
		{"Memory", fmt.Sprintf("%s of %s available (%.0f%% used)",
			sysinfo.FormatBytes(host.MemoryAvailable), sysinfo.FormatBytes(host.MemoryTotal), host.MemoryUsedPct)},
		{"Uptime", host.Uptime.String()},
	}
}

func encoderRows(encoders []deps.Encoder) [][]string {
	rows := make([][]string, 0, len(encoders))
	for _, enc := range encoders {
		rows = append(rows, []string{enc.Name, yesNo(enc.Hardware), enc.Description})
	}
	return rows
}

func ffmpegBinary(cfg *config.Config) string {
	if bin := strings.TrimSpace(cfg.Stream.FFmpegPath); bin != "" {
		return bin
	}
	return "ffmpeg"
}
