package notify

import (
	"context"
	"log/slog"
)

// Console is a Sink that writes notifications to a slog logger. It backs the
// CLI front-end and doubles as the fallback sink when no transport is wired.
type Console struct {
	log *slog.Logger
}

// NewConsole returns a Console sink. A nil logger uses slog.Default.
func NewConsole(log *slog.Logger) *Console {
	if log == nil {
		log = slog.Default()
	}
	return &Console{log: log}
}

func (c *Console) Event(ctx context.Context, e Event) error {
	attrs := []any{"job_id", e.JobID, "status", string(e.Status)}
	if e.Err != nil {
		c.log.ErrorContext(ctx, EventLine(e), attrs...)
		return nil
	}
	c.log.InfoContext(ctx, EventLine(e), attrs...)
	return nil
}

func (c *Console) Progress(ctx context.Context, p Progress) error {
	c.log.InfoContext(ctx, ProgressLine(p), "job_id", p.JobID)
	return nil
}
