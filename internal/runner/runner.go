// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"
)

// ErrLaunchFailure is the sentinel error wrapped by LaunchError.
var ErrLaunchFailure = errors.New("launch failure")

type (
	// Spec is the input contract for one execution. It is constructed and
	// consumed per call; nothing is persisted.
	Spec struct {
		// Path is the executable path or tool name (resolved via PATH).
		Path string
		// Args is the ordered argument list.
		Args []string
		// Dir is the working directory ("" inherits the current one).
		Dir string
		// Env contains additional KEY=VALUE entries appended to the
		// inherited environment.
		Env []string
		// Stdin is the process standard input (nil for none).
		Stdin io.Reader
		// Stream duplicates every output chunk to Stdout/Stderr in
		// arrival order, in addition to buffering it. Ordering is only
		// guaranteed within a single channel.
		Stream bool
		// Stdout receives streamed standard output chunks when Stream
		// is set. Defaults to os.Stdout.
		Stdout io.Writer
		// Stderr receives streamed standard error chunks when Stream
		// is set. Defaults to os.Stderr.
		Stderr io.Writer
	}

	// LaunchError is returned when the OS could not start the process at
	// all (missing binary, permission denied, spawn failure). It wraps
	// ErrLaunchFailure for errors.Is().
	LaunchError struct {
		Path string
		Err  error
	}

	// Runner launches external processes. The zero value is ready to use.
	Runner struct{}
)

// Error implements the error interface.
func (e *LaunchError) Error() string {
	return fmt.Sprintf("failed to launch %q: %v", e.Path, e.Err)
}

// Unwrap returns the underlying spawn error.
func (e *LaunchError) Unwrap() error { return e.Err }

// Is reports whether target is ErrLaunchFailure, the sentinel every
// LaunchError wraps.
func (e *LaunchError) Is(target error) bool { return target == ErrLaunchFailure }

// New creates a Runner.
func New() *Runner {
	return &Runner{}
}

// Run executes one process described by spec.
//
// It returns an error only for launch failures; a process that ran and
// exited non-zero yields a populated Result and a nil error. When ctx is
// cancelled before the process exits, the child receives a best-effort kill
// and Run returns immediately with Result.Aborted set and the output
// buffered so far; the OS process may still be alive at that point.
//
// If cancellation and natural exit fire near-simultaneously, whichever the
// select observes first determines the outcome; callers must treat the
// ordering as "last observed signal wins".
func (r *Runner) Run(ctx context.Context, spec Spec) (*Result, error) {
	if spec.Path == "" {
		return nil, &LaunchError{Path: spec.Path, Err: errors.New("empty executable path")}
	}

	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	cmd.Stdin = spec.Stdin
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}

	var outBuf, errBuf lockedBuffer

	var outW io.Writer = &outBuf
	var errW io.Writer = &errBuf
	if spec.Stream {
		stdout := spec.Stdout
		if stdout == nil {
			stdout = os.Stdout
		}
		stderr := spec.Stderr
		if stderr == nil {
			stderr = os.Stderr
		}
		outW = io.MultiWriter(&outBuf, stdout)
		errW = io.MultiWriter(&errBuf, stderr)
	}

	stdoutPipe, err := cmd.StdoutPipe()
	if err != nil {
		return nil, &LaunchError{Path: spec.Path, Err: err}
	}
	stderrPipe, err := cmd.StderrPipe()
	if err != nil {
		return nil, &LaunchError{Path: spec.Path, Err: err}
	}

	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Path: spec.Path, Err: err}
	}

	// Drain both channels concurrently; each goroutine preserves the
	// arrival order of its own channel.
	var drains sync.WaitGroup
	drains.Add(2)
	go drain(&drains, outW, stdoutPipe)
	go drain(&drains, errW, stderrPipe)

	// Wait must run after the drains finish, or it would close the pipes
	// under them.
	exited := make(chan error, 1)
	go func() {
		drains.Wait()
		exited <- cmd.Wait()
	}()

	select {
	case waitErr := <-exited:
		return &Result{
			Stdout:   outBuf.String(),
			Stderr:   errBuf.String(),
			ExitCode: exitCodeFromWait(waitErr),
		}, nil
	case <-ctx.Done():
		// Best-effort termination; the drain and wait goroutines reap
		// the child in the background once the OS delivers the kill.
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		return NewAbortedResult(outBuf.String(), errBuf.String()), nil
	}
}

// exitCodeFromWait maps the error of cmd.Wait to an ExitCode. A nil error is
// code zero; a signal-killed process has no code and maps to NoExitCode.
func exitCodeFromWait(waitErr error) ExitCode {
	if waitErr == nil {
		return 0
	}
	var exitErr *exec.ExitError
	if errors.As(waitErr, &exitErr) {
		return ExitCode(exitErr.ExitCode())
	}
	return NoExitCode
}

// drain copies chunks from src to dst until EOF. Copy errors are expected on
// the cancellation path (the pipe closes under the reader) and are dropped.
func drain(wg *sync.WaitGroup, dst io.Writer, src io.Reader) {
	defer wg.Done()
	_, _ = io.Copy(dst, src)
}

// lockedBuffer is a bytes.Buffer safe for one concurrent writer and
// snapshot reads. The cancellation path reads the buffers while the drain
// goroutines may still be appending.
type lockedBuffer struct {
	mu  sync.Mutex
	buf bytes.Buffer
}

// Write implements io.Writer.
func (b *lockedBuffer) Write(p []byte) (int, error) {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.Write(p)
}

// String returns a snapshot of the buffered bytes.
func (b *lockedBuffer) String() string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.buf.String()
}
