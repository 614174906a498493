// Package notify defines the outbound notification surface of the job
// pipeline. The coordinator reports lifecycle events and progress samples
// through a Sink; transports (chat frontends, the console) implement it.
package notify

import (
	"context"
	"time"
)

// Status is a job lifecycle notification category.
type Status string

const (
	StatusQueued      Status = "queued"
	StatusDownloading Status = "downloading"
	StatusRunning     Status = "running"
	StatusUploading   Status = "uploading"
	StatusDone        Status = "done"
	StatusFailed      Status = "failed"
	StatusCancelled   Status = "cancelled"
)

// Event is a single lifecycle notification. Exactly one terminal event
// (done, failed or cancelled) is delivered per job.
type Event struct {
	JobID     string
	UserID    int64
	Operation string
	Status    Status
	// Message is a human-readable summary, already safe to show verbatim.
	Message string
	// Err carries the failure cause for StatusFailed events, nil otherwise.
	Err error
}

// Terminal reports whether the event ends the job's notification stream.
func (e Event) Terminal() bool {
	switch e.Status {
	case StatusDone, StatusFailed, StatusCancelled:
		return true
	}
	return false
}

// Progress is one sample of work progress for a running job.
type Progress struct {
	JobID     string
	UserID    int64
	Operation string
	// Percent is in [0, 100] and never decreases within a job.
	Percent float64
	// Indeterminate is set when total duration is unknown; Percent is
	// meaningless then and MediaSeconds is the only position signal.
	Indeterminate bool
	MediaSeconds  float64
	// Speed is the processing rate as a multiple of realtime.
	Speed    float64
	ETA      time.Duration
	ETAKnown bool
	Elapsed  time.Duration
}

// Sink receives notifications for jobs. Implementations must tolerate
// concurrent calls for different jobs; calls for one job are sequential.
// Sink errors are logged by the caller and never fail the job.
type Sink interface {
	Event(ctx context.Context, e Event) error
	Progress(ctx context.Context, p Progress) error
}
