package ffmpeg

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// generateTestVideo renders a short test-pattern clip with a tone track.
func generateTestVideo(t *testing.T, duration time.Duration) string {
	t.Helper()

	output := filepath.Join(t.TempDir(), "test_input.mp4")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	durStr := formatDuration(duration)
	args := []string{
		"-hide_banner", "-y",
		"-f", "lavfi", "-i", "testsrc2=duration=" + durStr + ":size=320x240:rate=30",
		"-f", "lavfi", "-i", "sine=frequency=440:duration=" + durStr,
		"-c:v", "libx264", "-preset", "ultrafast", "-crf", "28",
		"-c:a", "aac", "-b:a", "64k",
		"-pix_fmt", "yuv420p",
		"-shortest",
		output,
	}

	proc, err := Start(ctx, args, nil)
	require.NoError(t, err, "failed to start ffmpeg")
	require.NoError(t, proc.Wait(), "failed to generate test video")

	return output
}

func TestIntegration_Run(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	input := generateTestVideo(t, 2*time.Second)
	output := filepath.Join(t.TempDir(), "output.mp4")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := NewCommand(input, output, CopyAll, MapAll).Run(ctx)
	require.NoError(t, err)

	info, err := os.Stat(output)
	require.NoError(t, err, "output file not created")
	assert.Greater(t, info.Size(), int64(0), "output file is empty")
}

func TestIntegration_TrimDuration(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	input := generateTestVideo(t, 5*time.Second)
	output := filepath.Join(t.TempDir(), "clip.mp4")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := NewCommand(input, output,
		SeekTo(1*time.Second, 3*time.Second),
		CopyAll,
	).Run(ctx)
	require.NoError(t, err)

	result, err := Probe(ctx, output)
	require.NoError(t, err)
	assert.InDelta(t, 2.0, result.Duration, 0.5, "clip duration should be ~2.0")
}

func TestIntegration_Probe(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	input := generateTestVideo(t, 2*time.Second)

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	result, err := Probe(ctx, input)
	require.NoError(t, err)

	assert.Equal(t, 320, result.Width)
	assert.Equal(t, 240, result.Height)
	assert.Equal(t, "h264", result.VideoCodec)
	assert.Equal(t, "aac", result.AudioCodec)
	assert.InDelta(t, 2.0, result.Duration, 0.5)
	assert.True(t, result.HasVideo())
	assert.True(t, result.HasAudio())
}

func TestIntegration_ProgressLines(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	input := generateTestVideo(t, 3*time.Second)
	output := filepath.Join(t.TempDir(), "output.mp4")

	ctx, cancel := context.WithTimeout(context.Background(), 60*time.Second)
	defer cancel()

	tracker := NewTracker(3)
	var samples []Sample
	onLine := func(line string) {
		if s, ok := tracker.Line(line); ok {
			samples = append(samples, s)
		}
	}

	proc, err := NewCommand(input, output,
		VideoCodec("libx264"),
		Preset("ultrafast"),
		CRF(28),
		AudioCodec("aac"),
	).Start(ctx, onLine)
	require.NoError(t, err)
	require.NoError(t, proc.Wait())

	require.NotEmpty(t, samples, "no progress samples observed")
	last := samples[len(samples)-1]
	assert.Greater(t, last.MediaSeconds, 0.0)
	for i := 1; i < len(samples); i++ {
		assert.GreaterOrEqual(t, samples[i].Percent, samples[i-1].Percent)
	}
}

func TestIntegration_StopGracefully(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	input := generateTestVideo(t, 2*time.Second)
	output := filepath.Join(t.TempDir(), "slow.mp4")

	// A slow re-encode gives us time to interrupt it.
	proc, err := NewCommand(input, output,
		VideoCodec("libx264"),
		Preset("veryslow"),
		CRF(18),
		Filter("scale=1920:1080"),
	).Start(context.Background(), nil)
	require.NoError(t, err)

	time.Sleep(300 * time.Millisecond)
	require.NoError(t, proc.Stop(5*time.Second))

	select {
	case <-proc.Done():
	default:
		t.Fatal("process not reaped after Stop")
	}
}

func TestIntegration_FailureCarriesTail(t *testing.T) {
	if testing.Short() {
		t.Skip("skipping integration test in short mode")
	}

	bogus := filepath.Join(t.TempDir(), "bogus.mp4")
	require.NoError(t, os.WriteFile(bogus, []byte("this is not a video"), 0o644))
	output := filepath.Join(t.TempDir(), "out.mp4")

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	err := NewCommand(bogus, output, CopyAll).Run(ctx)
	require.Error(t, err)

	var fferr *Error
	require.ErrorAs(t, err, &fferr)
	assert.NotEqual(t, 0, fferr.ExitCode)
	assert.NotEmpty(t, fferr.LastLines)
}
