// Package janitor removes orphaned job workspaces. Workspaces normally
// disappear with their job; a crash mid-job leaves the directory behind, and
// the janitor sweeps those up on startup and on a schedule.
package janitor

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/robfig/cron/v3"
)

// workPrefix matches the directories the coordinator creates.
const workPrefix = "job-"

// Janitor sweeps stale job workspaces under a root directory.
type Janitor struct {
	workRoot string
	maxAge   time.Duration
	log      *slog.Logger
	cron     *cron.Cron
}

// New builds a Janitor. Workspaces older than maxAge are considered
// orphaned; anything younger may belong to a live job and is left alone.
func New(workRoot string, maxAge time.Duration, log *slog.Logger) *Janitor {
	if log == nil {
		log = slog.Default()
	}
	return &Janitor{
		workRoot: workRoot,
		maxAge:   maxAge,
		log:      log,
	}
}

// Sweep removes orphaned workspaces once and returns how many were removed.
// Individual removal failures are logged and skipped.
func (j *Janitor) Sweep(ctx context.Context) (int, error) {
	entries, err := os.ReadDir(j.workRoot)
	if err != nil {
		return 0, err
	}

	cutoff := time.Now().Add(-j.maxAge)
	removed := 0
	for _, e := range entries {
		if ctx.Err() != nil {
			return removed, ctx.Err()
		}
		if !e.IsDir() || !strings.HasPrefix(e.Name(), workPrefix) {
			continue
		}
		info, err := e.Info()
		if err != nil || info.ModTime().After(cutoff) {
			continue
		}
		path := filepath.Join(j.workRoot, e.Name())
		if err := os.RemoveAll(path); err != nil {
			j.log.Warn("failed to remove orphaned workspace", "path", path, "error", err)
			continue
		}
		j.log.Info("removed orphaned workspace", "path", path)
		removed++
	}
	return removed, nil
}

// Start schedules recurring sweeps with a cron expression ("@hourly",
// "0 */6 * * *", ...).
func (j *Janitor) Start(schedule string) error {
	c := cron.New()
	_, err := c.AddFunc(schedule, func() {
		if _, err := j.Sweep(context.Background()); err != nil {
			j.log.Warn("scheduled sweep failed", "error", err)
		}
	})
	if err != nil {
		return err
	}
	c.Start()
	j.cron = c
	return nil
}

// Stop halts scheduled sweeps and waits for a running one to finish.
func (j *Janitor) Stop() {
	if j.cron != nil {
		<-j.cron.Stop().Done()
	}
}
