// Package sysinfo reports host and process resource usage for the hwinfo
// command, the CLI, and the status API.
package sysinfo

import (
	"context"
	"fmt"
	"runtime"
	"time"

	"github.com/shirou/gopsutil/v3/cpu"
	"github.com/shirou/gopsutil/v3/host"
	"github.com/shirou/gopsutil/v3/load"
	"github.com/shirou/gopsutil/v3/mem"
	"github.com/shirou/gopsutil/v3/process"
)

// Host describes the machine the bot runs on.
type Host struct {
	Hostname        string        `json:"hostname"`
	Platform        string        `json:"platform"`
	PlatformVersion string        `json:"platform_version"`
	KernelVersion   string        `json:"kernel_version"`
	Arch            string        `json:"arch"`
	CPUModel        string        `json:"cpu_model"`
	CPUCores        int           `json:"cpu_cores"`
	MemoryTotal     uint64        `json:"memory_total"`
	MemoryAvailable uint64        `json:"memory_available"`
	MemoryUsedPct   float64       `json:"memory_used_percent"`
	Load1           float64       `json:"load1"`
	Uptime          time.Duration `json:"uptime"`
}

// Process is a point-in-time resource sample for a single process.
type Process struct {
	PID        int32         `json:"pid"`
	CPUPercent float64       `json:"cpu_percent"`
	RSSBytes   uint64        `json:"rss_bytes"`
	Running    time.Duration `json:"running"`
}

// HostInfo collects host details. Individual probes that fail leave their
// fields zero; an error is returned only when no host information is available.
func HostInfo(ctx context.Context) (Host, error) {
	info := Host{Arch: runtime.GOARCH}

	hostStat, err := host.InfoWithContext(ctx)
	if err != nil {
		return info, fmt.Errorf("host info: %w", err)
	}
	info.Hostname = hostStat.Hostname
	info.Platform = hostStat.Platform
	info.PlatformVersion = hostStat.PlatformVersion
	info.KernelVersion = hostStat.KernelVersion
	info.Uptime = time.Duration(hostStat.Uptime) * time.Second

	if cores, err := cpu.CountsWithContext(ctx, true); err == nil {
		info.CPUCores = cores
	}
	if cpus, err := cpu.InfoWithContext(ctx); err == nil && len(cpus) > 0 {
		info.CPUModel = cpus[0].ModelName
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		info.MemoryTotal = vm.Total
		info.MemoryAvailable = vm.Available
		info.MemoryUsedPct = vm.UsedPercent
	}
	if avg, err := load.AvgWithContext(ctx); err == nil {
		info.Load1 = avg.Load1
	}
	return info, nil
}

// SampleProcess reads CPU and memory usage for pid.
func SampleProcess(ctx context.Context, pid int) (Process, error) {
	proc, err := process.NewProcessWithContext(ctx, int32(pid))
	if err != nil {
		return Process{}, fmt.Errorf("process %d: %w", pid, err)
	}
	sample := Process{PID: proc.Pid}
	if pct, err := proc.CPUPercentWithContext(ctx); err == nil {
		sample.CPUPercent = pct
	}
	if memInfo, err := proc.MemoryInfoWithContext(ctx); err == nil && memInfo != nil {
		sample.RSSBytes = memInfo.RSS
	}
	if created, err := proc.CreateTimeWithContext(ctx); err == nil && created > 0 {
		sample.Running = time.Since(time.UnixMilli(created)).Truncate(time.Second)
	}
	return sample, nil
}

// FormatBytes renders a byte count with a binary unit suffix.
func FormatBytes(n uint64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := uint64(unit), 0
	for v := n / unit; v >= unit; v /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %ciB", float64(n)/float64(div), "KMGTPE"[exp])
}
