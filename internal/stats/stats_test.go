package stats

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestCollect(t *testing.T) {
	c := NewCollector(t.TempDir(), func() int { return 2 })

	s := c.Collect(context.Background())
	assert.Equal(t, 2, s.ActiveJobs)
	assert.GreaterOrEqual(t, s.Uptime, time.Duration(0))
	// Memory is always readable on supported platforms.
	assert.Greater(t, s.MemTotal, uint64(0))
}

func TestSnapshotString(t *testing.T) {
	s := Snapshot{
		CPUPercent: 12.5,
		MemPercent: 40.0,
		MemUsed:    4 << 30,
		MemTotal:   16 << 30,
		DiskFree:   100 << 30,
		Uptime:     90 * time.Second,
		ActiveJobs: 1,
	}
	out := s.String()
	assert.Contains(t, out, "uptime: 01:30")
	assert.Contains(t, out, "cpu: 12.5%")
	assert.Contains(t, out, "active jobs: 1")
	assert.Equal(t, 5, len(strings.Split(out, "\n")))
}
