// Package job coordinates the full lifecycle of one media operation:
// fetching sources, planning and supervising the ffmpeg process, publishing
// progress, delivering the result and cleaning up the workspace.
package job

import (
	"context"
	"os"
	"sync"

	"github.com/google/uuid"

	"github.com/lumenmedia/encodebot/pkg/plan"
)

// Phase is the lifecycle state of a job. Transitions are strictly forward:
// Created -> Downloading -> Running -> Uploading -> Done/Failed, with
// Cancelled reachable from any non-terminal phase.
type Phase int32

const (
	PhaseCreated Phase = iota
	PhaseDownloading
	PhaseRunning
	PhaseUploading
	PhaseDone
	PhaseFailed
	PhaseCancelled
)

func (p Phase) String() string {
	switch p {
	case PhaseCreated:
		return "created"
	case PhaseDownloading:
		return "downloading"
	case PhaseRunning:
		return "running"
	case PhaseUploading:
		return "uploading"
	case PhaseDone:
		return "done"
	case PhaseFailed:
		return "failed"
	case PhaseCancelled:
		return "cancelled"
	default:
		return "unknown"
	}
}

// Terminal reports whether the phase is final.
func (p Phase) Terminal() bool {
	return p == PhaseDone || p == PhaseFailed || p == PhaseCancelled
}

// Source identifies one input file. Either FileID references a remote file
// the transport can fetch, or Path points at an already-local file.
type Source struct {
	FileID string
	Path   string
	Name   string
}

// Request describes one job submission.
type Request struct {
	UserID  int64
	Sources []Source
	Op      plan.Operation
	// FileName overrides the delivered file's display name. Empty means the
	// planner's output name is used.
	FileName string
}

// Handle is the caller's view of a submitted job.
type Handle struct {
	ID     string
	UserID int64

	ctx    context.Context
	cancel context.CancelFunc

	workDir string

	mu    sync.Mutex
	phase Phase
	err   error

	done        chan struct{}
	cleanupOnce sync.Once
	release     func()
	extras      []string
}

func newHandle(parent context.Context, userID int64, workDir string, release func()) *Handle {
	ctx, cancel := context.WithCancel(parent)
	return &Handle{
		ID:      uuid.NewString(),
		UserID:  userID,
		ctx:     ctx,
		cancel:  cancel,
		workDir: workDir,
		done:    make(chan struct{}),
		release: release,
	}
}

// Phase returns the job's current lifecycle phase.
func (h *Handle) Phase() Phase {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.phase
}

func (h *Handle) setPhase(p Phase) {
	h.mu.Lock()
	h.phase = p
	h.mu.Unlock()
}

// Err returns the job's failure cause, nil until the job fails.
func (h *Handle) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.err
}

func (h *Handle) setErr(err error) {
	h.mu.Lock()
	h.err = err
	h.mu.Unlock()
}

// Cancel requests cooperative cancellation. It is safe to call repeatedly
// and after the job finished.
func (h *Handle) Cancel() {
	h.cancel()
}

// Done returns a channel closed when the job reaches a terminal phase and
// its workspace has been cleaned up.
func (h *Handle) Done() <-chan struct{} {
	return h.done
}

// Wait blocks until the job finishes and returns its failure cause, if any.
func (h *Handle) Wait() error {
	<-h.done
	return h.Err()
}

// cleanup removes the job workspace and releases the user's slot. It runs
// exactly once no matter how the job ended.
func (h *Handle) cleanup() {
	h.cleanupOnce.Do(func() {
		for _, p := range h.extras {
			os.Remove(p)
		}
		if h.workDir != "" {
			os.RemoveAll(h.workDir)
		}
		if h.release != nil {
			h.release()
		}
		h.cancel()
		close(h.done)
	})
}
