package ffmpeg

import (
	"bufio"
	"bytes"
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"strings"
	"sync"
	"syscall"
	"time"
)

// LineFunc receives one line of the ffmpeg diagnostic stream (stderr).
// It is called synchronously from the reader goroutine: the next line is not
// read until the callback returns, so samples arrive in production order.
type LineFunc func(line string)

// tailLines is how many diagnostic lines are retained for error reporting.
const tailLines = 12

// Process represents a running ffmpeg process with lifecycle management.
type Process struct {
	cmd  *exec.Cmd
	pid  int
	done chan struct{}
	err  error
	tail *tailBuffer
}

// PID returns the process ID, or 0 if not started.
func (p *Process) PID() int {
	return p.pid
}

// Wait blocks until the process completes and returns any error.
func (p *Process) Wait() error {
	<-p.done
	return p.err
}

// Done returns a channel that closes when the process exits.
func (p *Process) Done() <-chan struct{} {
	return p.done
}

// Kill sends SIGKILL to the process.
func (p *Process) Kill() error {
	if p.cmd == nil || p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Kill()
}

// Signal sends a signal to the process.
func (p *Process) Signal(sig os.Signal) error {
	if p.cmd == nil || p.cmd.Process == nil {
		return nil
	}
	return p.cmd.Process.Signal(sig)
}

// Stop asks the process to terminate and waits up to grace for it to exit.
// If the deadline passes the process is killed outright. Stop always waits
// for the process to be fully reaped before returning.
func (p *Process) Stop(grace time.Duration) error {
	if err := p.Signal(syscall.SIGTERM); err != nil {
		// Already gone; Wait still needs to complete.
		<-p.done
		return nil
	}
	select {
	case <-p.done:
		return nil
	case <-time.After(grace):
	}
	if err := p.Kill(); err != nil {
		return fmt.Errorf("ffmpeg: kill after grace period: %w", err)
	}
	<-p.done
	return nil
}

// Tail returns the most recent diagnostic lines (available after exit, and
// best-effort while running).
func (p *Process) Tail() []string {
	return p.tail.Lines()
}

// Start launches ffmpeg with the given arguments and returns a Process handle.
// Each stderr line is forwarded to onLine (if non-nil) as it is produced.
// The caller is responsible for calling Wait() or Stop() to reap the process.
func Start(ctx context.Context, args []string, onLine LineFunc) (*Process, error) {
	cmd := exec.CommandContext(ctx, "ffmpeg", args...)

	p := &Process{
		cmd:  cmd,
		done: make(chan struct{}),
		tail: newTailBuffer(tailLines),
	}

	stderr, err := cmd.StderrPipe()
	if err != nil {
		return nil, fmt.Errorf("ffmpeg: failed to create stderr pipe: %w", err)
	}

	if err := cmd.Start(); err != nil {
		return nil, fmt.Errorf("ffmpeg: failed to start: %w", err)
	}
	p.pid = cmd.Process.Pid

	go func() {
		defer close(p.done)

		scanner := bufio.NewScanner(stderr)
		scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
		scanner.Split(scanDiagnosticLines)
		for scanner.Scan() {
			line := scanner.Text()
			if line == "" {
				continue
			}
			p.tail.Add(line)
			if onLine != nil {
				onLine(line)
			}
		}

		waitErr := cmd.Wait()
		if waitErr != nil {
			p.err = &Error{
				Args:      args,
				ExitCode:  exitCode(waitErr),
				LastLines: p.tail.Lines(),
				Err:       waitErr,
			}
		}
	}()

	return p, nil
}

// run executes ffmpeg and waits for completion.
func run(ctx context.Context, args []string, onLine LineFunc) error {
	proc, err := Start(ctx, args, onLine)
	if err != nil {
		return err
	}
	return proc.Wait()
}

// scanDiagnosticLines is a bufio.SplitFunc that treats both \n and \r as line
// terminators. ffmpeg rewrites its stats line in place using carriage returns,
// so splitting on \n alone would deliver the whole progress history as one
// giant line at exit.
func scanDiagnosticLines(data []byte, atEOF bool) (advance int, token []byte, err error) {
	if atEOF && len(data) == 0 {
		return 0, nil, nil
	}
	if i := bytes.IndexAny(data, "\r\n"); i >= 0 {
		adv := i + 1
		if data[i] == '\r' && adv < len(data) && data[adv] == '\n' {
			adv++
		}
		return adv, data[:i], nil
	}
	if atEOF {
		return len(data), data, nil
	}
	return 0, nil, nil
}

// exitCode extracts the process exit code from a Wait error, or -1.
func exitCode(err error) int {
	var ee *exec.ExitError
	if errors.As(err, &ee) {
		return ee.ExitCode()
	}
	return -1
}

// Error represents an ffmpeg execution error with context.
type Error struct {
	Args      []string
	ExitCode  int
	LastLines []string
	Err       error
}

// Error implements error.
func (e *Error) Error() string {
	tail := e.LastLines
	if len(tail) > 3 {
		tail = tail[len(tail)-3:]
	}
	if len(tail) > 0 {
		return fmt.Sprintf("ffmpeg: %v: %s", e.Err, strings.Join(tail, "\n"))
	}
	return fmt.Sprintf("ffmpeg: %v", e.Err)
}

// Unwrap returns the underlying error.
func (e *Error) Unwrap() error {
	return e.Err
}

// Command returns the command that was executed.
func (e *Error) Command() string {
	return "ffmpeg " + strings.Join(e.Args, " ")
}

// tailBuffer keeps the last n lines added to it.
type tailBuffer struct {
	mu    sync.Mutex
	lines []string
	max   int
}

func newTailBuffer(max int) *tailBuffer {
	return &tailBuffer{max: max}
}

func (b *tailBuffer) Add(line string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.lines = append(b.lines, line)
	if len(b.lines) > b.max {
		b.lines = b.lines[len(b.lines)-b.max:]
	}
}

func (b *tailBuffer) Lines() []string {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]string, len(b.lines))
	copy(out, b.lines)
	return out
}
