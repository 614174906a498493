package job

import (
	"context"
	"time"

	"github.com/lumenmedia/encodebot/pkg/ffmpeg"
)

// runFunc supervises one process invocation to completion. Tests substitute
// a stub; production uses ffmpegRun.
type runFunc func(ctx context.Context, args []string, grace time.Duration, onLine ffmpeg.LineFunc) error

// ffmpegRun starts the process detached from ctx so cancellation triggers a
// graceful SIGTERM-then-SIGKILL stop instead of the runtime's immediate kill.
func ffmpegRun(ctx context.Context, args []string, grace time.Duration, onLine ffmpeg.LineFunc) error {
	proc, err := ffmpeg.Start(context.Background(), args, onLine)
	if err != nil {
		return err
	}

	stopped := make(chan struct{})
	go func() {
		defer close(stopped)
		select {
		case <-ctx.Done():
			proc.Stop(grace)
		case <-proc.Done():
		}
	}()

	err = proc.Wait()
	<-stopped
	if ctx.Err() != nil {
		return ctx.Err()
	}
	return err
}
