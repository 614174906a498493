package janitor

import (
	"context"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSweepRemovesOnlyStaleWorkspaces(t *testing.T) {
	root := t.TempDir()

	stale := filepath.Join(root, "job-stale")
	fresh := filepath.Join(root, "job-fresh")
	other := filepath.Join(root, "keep-me")
	require.NoError(t, os.Mkdir(stale, 0o755))
	require.NoError(t, os.Mkdir(fresh, 0o755))
	require.NoError(t, os.Mkdir(other, 0o755))

	// Backdate the stale workspace past the age threshold.
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(stale, old, old))

	j := New(root, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	removed, err := j.Sweep(context.Background())
	require.NoError(t, err)

	assert.Equal(t, 1, removed)
	assert.NoDirExists(t, stale)
	assert.DirExists(t, fresh)
	assert.DirExists(t, other)
}

func TestSweepIgnoresFiles(t *testing.T) {
	root := t.TempDir()
	file := filepath.Join(root, "job-notadir")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))
	old := time.Now().Add(-2 * time.Hour)
	require.NoError(t, os.Chtimes(file, old, old))

	j := New(root, time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	removed, err := j.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 0, removed)
	assert.FileExists(t, file)
}

func TestSweepMissingRoot(t *testing.T) {
	j := New(filepath.Join(t.TempDir(), "nope"), time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	_, err := j.Sweep(context.Background())
	assert.Error(t, err)
}

func TestStartStop(t *testing.T) {
	j := New(t.TempDir(), time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	require.NoError(t, j.Start("@hourly"))
	j.Stop()
}

func TestStartBadSchedule(t *testing.T) {
	j := New(t.TempDir(), time.Hour, slog.New(slog.NewTextHandler(io.Discard, nil)))
	assert.Error(t, j.Start("not a schedule"))
}
