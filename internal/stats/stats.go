// Package stats collects host resource usage for the bot's status report.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/shirou/gopsutil/v4/cpu"
	"github.com/shirou/gopsutil/v4/disk"
	"github.com/shirou/gopsutil/v4/mem"

	"github.com/lumenmedia/encodebot/pkg/utils/format"
)

// Snapshot is one point-in-time reading of host and bot state.
type Snapshot struct {
	CPUPercent float64
	MemPercent float64
	MemUsed    uint64
	MemTotal   uint64
	DiskFree   uint64
	DiskTotal  uint64
	Uptime     time.Duration
	ActiveJobs int
}

// String renders the snapshot as the multi-line status block shown to users.
func (s Snapshot) String() string {
	return fmt.Sprintf(
		"uptime: %s\ncpu: %.1f%%\nmemory: %s / %s (%.1f%%)\ndisk free: %s\nactive jobs: %d",
		format.Clock(s.Uptime),
		s.CPUPercent,
		format.Bytes(int64(s.MemUsed)), format.Bytes(int64(s.MemTotal)), s.MemPercent,
		format.Bytes(int64(s.DiskFree)),
		s.ActiveJobs,
	)
}

// Collector gathers snapshots. DiskPath is the mount whose free space is
// reported, normally the job workspace root.
type Collector struct {
	started  time.Time
	diskPath string
	jobs     func() int
}

// NewCollector builds a Collector. jobs reports the current active job
// count and may be nil.
func NewCollector(diskPath string, jobs func() int) *Collector {
	return &Collector{
		started:  time.Now(),
		diskPath: diskPath,
		jobs:     jobs,
	}
}

// Collect takes a snapshot. Individual probe failures zero the affected
// fields rather than failing the whole report.
func (c *Collector) Collect(ctx context.Context) Snapshot {
	s := Snapshot{Uptime: time.Since(c.started)}
	if c.jobs != nil {
		s.ActiveJobs = c.jobs()
	}

	if pct, err := cpu.PercentWithContext(ctx, 0, false); err == nil && len(pct) > 0 {
		s.CPUPercent = pct[0]
	}
	if vm, err := mem.VirtualMemoryWithContext(ctx); err == nil {
		s.MemPercent = vm.UsedPercent
		s.MemUsed = vm.Used
		s.MemTotal = vm.Total
	}
	if du, err := disk.UsageWithContext(ctx, c.diskPath); err == nil {
		s.DiskFree = du.Free
		s.DiskTotal = du.Total
	}
	return s
}
