package notify

import (
	"context"
	"sync"
	"time"
)

// Throttled wraps a Sink and rate-limits progress updates per job so chatty
// encoders do not flood a chat transport. Lifecycle events always pass
// through, and a terminal event drops the job's throttle state.
type Throttled struct {
	next     Sink
	interval time.Duration

	mu   sync.Mutex
	last map[string]time.Time

	now func() time.Time // test hook
}

// Throttle wraps next so that per-job progress is forwarded at most once per
// interval. A non-positive interval disables throttling.
func Throttle(next Sink, interval time.Duration) *Throttled {
	return &Throttled{
		next:     next,
		interval: interval,
		last:     make(map[string]time.Time),
		now:      time.Now,
	}
}

// Event forwards e unconditionally.
func (t *Throttled) Event(ctx context.Context, e Event) error {
	if e.Terminal() {
		t.mu.Lock()
		delete(t.last, e.JobID)
		t.mu.Unlock()
	}
	return t.next.Event(ctx, e)
}

// Progress forwards p if the job's interval has elapsed, otherwise drops it.
// The first sample for a job always passes.
func (t *Throttled) Progress(ctx context.Context, p Progress) error {
	if t.interval <= 0 {
		return t.next.Progress(ctx, p)
	}

	t.mu.Lock()
	now := t.now()
	if last, ok := t.last[p.JobID]; ok && now.Sub(last) < t.interval {
		t.mu.Unlock()
		return nil
	}
	t.last[p.JobID] = now
	t.mu.Unlock()

	return t.next.Progress(ctx, p)
}
