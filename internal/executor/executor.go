// Package executor runs the project launcher for a single lifecycle action
// with a hard timeout, capturing its output.
package executor

import (
	"bytes"
	"context"
	stderrors "errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"time"

	"github.com/harshul/stackdash/internal/errors"
	"github.com/harshul/stackdash/internal/logger"
)

// FailureReason explains why a command did not succeed. Empty means the
// process ran to completion (successfully or with a non-zero exit).
type FailureReason string

const (
	ReasonNone          FailureReason = ""
	ReasonBinaryMissing FailureReason = "binary_missing"
	ReasonTimedOut      FailureReason = "timed_out"
	ReasonSpawnError    FailureReason = "spawn_error"
	ReasonCanceled      FailureReason = "canceled"
)

// DefaultTimeout is used when Execute is called with a non-positive timeout.
const DefaultTimeout = 5 * time.Minute

// killGrace is how long a timed-out process group gets between SIGTERM and SIGKILL.
const killGrace = 100 * time.Millisecond

// Result is the outcome of one launcher invocation.
type Result struct {
	Action     string
	Success    bool
	ExitCode   *int
	Stdout     string
	Stderr     string
	Failure    FailureReason
	Err        error
	PID        int
	StartedAt  time.Time
	FinishedAt time.Time
}

// Duration returns how long the command ran.
func (r Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}

// Executor invokes <interpreter> <launcher> <action> inside the project root.
type Executor struct {
	root        string
	launcher    string
	interpreter string
	log         logger.Logger

	// start spawns the process. Tests replace it to observe spawns.
	start func(*exec.Cmd) error
}

// Option configures an Executor.
type Option func(*Executor)

// WithInterpreter runs the launcher through an interpreter such as bash.
// An empty interpreter executes the launcher directly.
func WithInterpreter(interpreter string) Option {
	return func(e *Executor) { e.interpreter = interpreter }
}

// WithLogger sets the diagnostic logger.
func WithLogger(l logger.Logger) Option {
	return func(e *Executor) { e.log = logger.OrNoop(l) }
}

// New creates an executor for the launcher at root/launcher (or an absolute
// launcher path).
func New(root, launcher string, opts ...Option) *Executor {
	e := &Executor{
		root:     root,
		launcher: launcher,
		log:      logger.Noop(),
		start:    (*exec.Cmd).Start,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// LauncherPath returns the absolute path of the launcher.
func (e *Executor) LauncherPath() string {
	if filepath.IsAbs(e.launcher) {
		return e.launcher
	}
	return filepath.Join(e.root, e.launcher)
}

// Execute runs the launcher with action as its only argument and waits for
// it to exit, be killed at the deadline, or fail to start.
func (e *Executor) Execute(ctx context.Context, action string, timeout time.Duration) Result {
	return e.run(ctx, action, timeout, nil)
}

// ExecuteStream is Execute with output also copied to w as it is produced.
// The returned Result still carries the complete captured output.
func (e *Executor) ExecuteStream(ctx context.Context, action string, timeout time.Duration, w io.Writer) Result {
	return e.run(ctx, action, timeout, &lockedWriter{w: w})
}

func (e *Executor) run(ctx context.Context, action string, timeout time.Duration, stream io.Writer) Result {
	res := Result{Action: action, StartedAt: time.Now()}
	finish := func() Result {
		res.FinishedAt = time.Now()
		return res
	}

	path := e.LauncherPath()
	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			res.Failure = ReasonBinaryMissing
			res.Err = errors.WrapWithCode(err, errors.ErrMissingLauncher,
				"Launcher not found: "+path,
				"Check the launcher setting in .stackdash.yaml")
		} else {
			res.Failure = ReasonSpawnError
			res.Err = errors.WrapWithCode(err, errors.ErrSpawnFailure,
				"Cannot access launcher: "+path,
				"Check file permissions")
		}
		return finish()
	}

	if timeout <= 0 {
		timeout = DefaultTimeout
	}
	runCtx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	name, args := path, []string{action}
	if e.interpreter != "" {
		name, args = e.interpreter, []string{path, action}
	}

	cmd := exec.CommandContext(runCtx, name, args...)
	cmd.Dir = e.root
	configureProcessGroup(cmd)

	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stream != nil {
		cmd.Stdout = io.MultiWriter(&stdout, stream)
		cmd.Stderr = io.MultiWriter(&stderr, stream)
	}

	e.log.Debug("exec %s %v (timeout %s)", name, args, timeout)
	if err := e.start(cmd); err != nil {
		res.Failure = ReasonSpawnError
		res.Err = errors.WrapWithCode(err, errors.ErrSpawnFailure,
			fmt.Sprintf("Failed to start %s", action),
			"Check that the launcher is executable and the interpreter is installed")
		return finish()
	}
	res.PID = cmd.Process.Pid

	waitErr := cmd.Wait()
	res.Stdout = stdout.String()
	res.Stderr = stderr.String()

	// A launcher that backgrounds a child exits 0 while the child still holds
	// the output pipes; Wait gives up on the pipes after WaitDelay.
	if waitErr == nil || (stderrors.Is(waitErr, exec.ErrWaitDelay) && cmd.ProcessState != nil && cmd.ProcessState.Success()) {
		if waitErr != nil {
			e.log.Debug("exec %s exited 0, output still held by a background child", action)
		}
		code := 0
		res.ExitCode = &code
		res.Success = true
		return finish()
	}

	var exitErr *exec.ExitError
	if stderrors.As(waitErr, &exitErr) && exitErr.ExitCode() >= 0 {
		code := exitErr.ExitCode()
		res.ExitCode = &code
	}

	switch {
	case ctx.Err() != nil:
		res.Failure = ReasonCanceled
		res.Err = fmt.Errorf("%s canceled: %w", action, ctx.Err())
	case stderrors.Is(runCtx.Err(), context.DeadlineExceeded):
		res.Failure = ReasonTimedOut
		res.Err = errors.New(errors.ErrTimeout,
			fmt.Sprintf("%s timed out after %s", action, timeout),
			"The process group was terminated")
	case res.ExitCode != nil:
		res.Err = fmt.Errorf("%s exited with code %d", action, *res.ExitCode)
	default:
		res.Err = fmt.Errorf("%s: %w", action, waitErr)
	}

	e.log.Debug("exec %s finished: reason=%q err=%v", action, res.Failure, waitErr)
	return finish()
}

// lockedWriter serializes writes from the stdout and stderr copiers.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}
