package job

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/lumenmedia/encodebot/internal/notify"
	"github.com/lumenmedia/encodebot/pkg/ffmpeg"
	"github.com/lumenmedia/encodebot/pkg/utils/filename"
	"github.com/lumenmedia/encodebot/pkg/utils/format"
)

// Transport moves files between the outside world and the local workspace.
// Chat frontends implement it against their platform's file API.
type Transport interface {
	// Download fetches src into destDir and returns the local path.
	Download(ctx context.Context, src Source, destDir string) (string, error)
	// Upload delivers a finished output to the user.
	Upload(ctx context.Context, up Upload) error
}

// Upload is a finished output ready for delivery.
type Upload struct {
	UserID     int64
	Path       string
	FileName   string
	AsDocument bool
	Spoiler    bool
	Caption    string
}

// UploadPrefs are the per-user delivery preferences applied at upload time.
type UploadPrefs struct {
	AsDocument bool
	Spoiler    bool
}

// PrefsSource supplies per-user upload preferences. A nil source means
// defaults for everyone.
type PrefsSource interface {
	UploadPrefs(ctx context.Context, userID int64) (UploadPrefs, error)
}

// Options configures a Coordinator.
type Options struct {
	// WorkRoot is the directory job workspaces are created under.
	WorkRoot string
	// GracePeriod is how long a cancelled process gets between SIGTERM and
	// SIGKILL.
	GracePeriod time.Duration
	// MaxJobDuration aborts jobs whose process runs longer than this.
	// Zero disables the limit.
	MaxJobDuration time.Duration
	Logger         *slog.Logger
}

// Coordinator owns all running jobs. It enforces single-flight per user,
// sequences job phases and guarantees workspace cleanup.
type Coordinator struct {
	transport Transport
	sink      notify.Sink
	prefs     PrefsSource
	opts      Options
	log       *slog.Logger

	registry *registry
	wg       sync.WaitGroup

	// process and probe hooks, replaced in tests
	run   runFunc
	probe func(ctx context.Context, path string) (*ffmpeg.ProbeResult, error)
}

// NewCoordinator builds a Coordinator. transport and sink are required;
// prefs may be nil.
func NewCoordinator(transport Transport, sink notify.Sink, prefs PrefsSource, opts Options) *Coordinator {
	if opts.WorkRoot == "" {
		opts.WorkRoot = os.TempDir()
	}
	if opts.GracePeriod <= 0 {
		opts.GracePeriod = 5 * time.Second
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
	return &Coordinator{
		transport: transport,
		sink:      sink,
		prefs:     prefs,
		opts:      opts,
		log:       opts.Logger,
		registry:  newRegistry(),
		run:       ffmpegRun,
		probe:     ffmpeg.Probe,
	}
}

// Submit starts a job for the request. It returns ErrBusy if the user
// already has one running; otherwise the job executes in the background and
// the returned handle tracks it. ctx only guards submission, not execution.
func (c *Coordinator) Submit(ctx context.Context, req Request) (*Handle, error) {
	if req.Op == nil {
		return nil, errors.New("job: request has no operation")
	}
	if len(req.Sources) == 0 {
		return nil, errors.New("job: request has no sources")
	}

	workDir, err := os.MkdirTemp(c.opts.WorkRoot, "job-")
	if err != nil {
		return nil, fmt.Errorf("job: create workspace: %w", err)
	}

	h := newHandle(context.Background(), req.UserID, workDir, nil)
	h.release = func() { c.registry.release(h) }

	if err := c.registry.acquire(h); err != nil {
		os.RemoveAll(workDir)
		return nil, err
	}

	log := c.log.With("job_id", h.ID, "user_id", req.UserID, "op", req.Op.Name())
	log.Info("job submitted")

	c.wg.Add(1)
	go func() {
		defer c.wg.Done()
		defer h.cleanup()
		c.execute(h, req, log)
	}()

	return h, nil
}

// Cancel requests cancellation of the user's active job. It reports whether
// a job was found.
func (c *Coordinator) Cancel(userID int64) bool {
	h, ok := c.registry.find(userID)
	if !ok {
		return false
	}
	h.Cancel()
	return true
}

// Active returns the user's running job, if any.
func (c *Coordinator) Active(userID int64) (*Handle, bool) {
	return c.registry.find(userID)
}

// ActiveCount returns the number of running jobs.
func (c *Coordinator) ActiveCount() int {
	return len(c.registry.snapshot())
}

// Shutdown cancels all running jobs and waits for them to finish cleanup,
// or for ctx to expire.
func (c *Coordinator) Shutdown(ctx context.Context) error {
	for _, h := range c.registry.snapshot() {
		h.Cancel()
	}
	done := make(chan struct{})
	go func() {
		c.wg.Wait()
		close(done)
	}()
	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

// execute runs the job's phases in order. Any error short-circuits to the
// terminal notification; cleanup is the caller's responsibility.
func (c *Coordinator) execute(h *Handle, req Request, log *slog.Logger) {
	started := time.Now()

	err := c.runPhases(h, req, log)
	switch {
	case err == nil:
		h.setPhase(PhaseDone)
		log.Info("job done", "elapsed", format.JobDuration(time.Since(started)))
	case errors.Is(err, context.Canceled) && h.ctx.Err() != nil:
		h.setPhase(PhaseCancelled)
		log.Info("job cancelled", "elapsed", format.JobDuration(time.Since(started)))
		c.event(h, req, notify.Event{Status: notify.StatusCancelled})
		return
	default:
		h.setErr(err)
		h.setPhase(PhaseFailed)
		log.Error("job failed", "error", err)
		c.event(h, req, notify.Event{Status: notify.StatusFailed, Err: err})
		return
	}
}

// runPhases performs download, plan, process, rename and upload. The Done
// event is emitted here so its message can reference the delivered file.
func (c *Coordinator) runPhases(h *Handle, req Request, log *slog.Logger) error {
	ctx := h.ctx

	// Download.
	h.setPhase(PhaseDownloading)
	c.event(h, req, notify.Event{Status: notify.StatusDownloading})

	inputs := make([]string, 0, len(req.Sources))
	for _, src := range req.Sources {
		if src.Path != "" {
			inputs = append(inputs, src.Path)
			continue
		}
		local, err := c.transport.Download(ctx, src, h.workDir)
		if err != nil {
			if ctx.Err() != nil {
				return context.Canceled
			}
			return &TransferError{Stage: "download", Err: err}
		}
		inputs = append(inputs, local)
	}

	// Plan. A planning failure launches nothing and leaves nothing behind.
	spec, err := req.Op.Plan(inputs, h.workDir)
	if err != nil {
		return err
	}
	h.extras = spec.Extras

	// Progress total: the planner's expected output duration when it knows
	// one (a trim is shorter than its source), otherwise the probed source
	// duration. Without either, progress is reported as indeterminate
	// rather than failing the job.
	duration := spec.TargetDuration
	if duration <= 0 {
		if probed, err := c.probe(ctx, inputs[0]); err != nil {
			log.Warn("probe failed, progress will be indeterminate", "error", err)
		} else {
			duration = probed.Duration
		}
	}

	// Run.
	h.setPhase(PhaseRunning)
	c.event(h, req, notify.Event{Status: notify.StatusRunning})

	runCtx := ctx
	var cancel context.CancelFunc
	if c.opts.MaxJobDuration > 0 {
		runCtx, cancel = context.WithTimeout(ctx, c.opts.MaxJobDuration)
		defer cancel()
	}

	tracker := ffmpeg.NewTracker(duration)
	onLine := func(line string) {
		sample, ok := tracker.Line(line)
		if !ok {
			return
		}
		c.progress(h, req, sample)
	}

	if err := c.run(runCtx, spec.Args, c.opts.GracePeriod, onLine); err != nil {
		if ctx.Err() != nil {
			return context.Canceled
		}
		if errors.Is(err, context.DeadlineExceeded) {
			return fmt.Errorf("job exceeded maximum duration %s", c.opts.MaxJobDuration)
		}
		return err
	}

	// Promote the work file. Only a zero exit code reaches this point, so a
	// file at the final path is always complete.
	if _, err := os.Stat(spec.WorkPath); err != nil {
		return fmt.Errorf("process exited cleanly but produced no output: %w", err)
	}
	if err := os.Rename(spec.WorkPath, spec.OutputPath); err != nil {
		return fmt.Errorf("finalize output: %w", err)
	}

	// Upload.
	h.setPhase(PhaseUploading)
	c.event(h, req, notify.Event{Status: notify.StatusUploading})

	prefs := UploadPrefs{}
	if c.prefs != nil {
		if p, err := c.prefs.UploadPrefs(ctx, req.UserID); err != nil {
			log.Warn("loading upload preferences failed, using defaults", "error", err)
		} else {
			prefs = p
		}
	}

	name := req.FileName
	if name == "" {
		name = filepath.Base(spec.OutputPath)
	}
	if safe := filename.Sanitize(name); safe != "" {
		name = safe
	}
	up := Upload{
		UserID:     req.UserID,
		Path:       spec.OutputPath,
		FileName:   name,
		AsDocument: prefs.AsDocument,
		Spoiler:    prefs.Spoiler,
	}
	if fi, err := os.Stat(spec.OutputPath); err == nil {
		up.Caption = fmt.Sprintf("%s (%s)", name, format.Bytes(fi.Size()))
	}
	if err := c.transport.Upload(ctx, up); err != nil {
		if ctx.Err() != nil {
			return context.Canceled
		}
		return &TransferError{Stage: "upload", Err: err}
	}

	c.event(h, req, notify.Event{Status: notify.StatusDone, Message: up.Caption})
	return nil
}

// event publishes a lifecycle event, logging but never propagating sink
// failures.
func (c *Coordinator) event(h *Handle, req Request, e notify.Event) {
	e.JobID = h.ID
	e.UserID = req.UserID
	e.Operation = req.Op.Name()
	// Terminal events must go out even when the job context is cancelled.
	if err := c.sink.Event(context.Background(), e); err != nil {
		c.log.Warn("notification failed", "job_id", h.ID, "status", string(e.Status), "error", err)
	}
}

func (c *Coordinator) progress(h *Handle, req Request, s ffmpeg.Sample) {
	p := notify.Progress{
		JobID:         h.ID,
		UserID:        req.UserID,
		Operation:     req.Op.Name(),
		Percent:       s.Percent,
		Indeterminate: s.Indeterminate,
		MediaSeconds:  s.MediaSeconds,
		Speed:         s.Speed,
		ETA:           s.ETA,
		ETAKnown:      s.ETAKnown,
		Elapsed:       s.Elapsed,
	}
	if err := c.sink.Progress(h.ctx, p); err != nil {
		c.log.Warn("progress notification failed", "job_id", h.ID, "error", err)
	}
}
