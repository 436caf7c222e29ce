// SPDX-License-Identifier: MPL-2.0

//go:build !windows

package runner

import (
	"context"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"syscall"

	"github.com/creack/pty"
	"golang.org/x/term"
)

// RunInteractive runs the process attached to a pseudo-terminal, wiring the
// caller's terminal through to it. Output is not buffered: interactive runs
// exist for REPL-style sessions where the terminal is the only consumer.
// Cancellation follows the same best-effort kill semantics as Run.
func (r *Runner) RunInteractive(ctx context.Context, spec Spec) (*Result, error) {
	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}

	ptmx, err := pty.Start(cmd)
	if err != nil {
		return nil, &LaunchError{Path: spec.Path, Err: err}
	}
	defer func() { _ = ptmx.Close() }() // Best-effort close; error non-critical

	// Keep the pty sized to the caller's terminal, or full-screen programs
	// inside the session see a zero-sized window.
	stopResize := forwardWinsize(os.Stdin, ptmx)
	defer stopResize()

	// Put the controlling terminal into raw mode so keystrokes reach the
	// child unmangled; restore on exit.
	stdinFd := int(os.Stdin.Fd())
	if term.IsTerminal(stdinFd) {
		oldState, rawErr := term.MakeRaw(stdinFd)
		if rawErr == nil {
			defer func() { _ = term.Restore(stdinFd, oldState) }()
		}
	}

	go func() { _, _ = io.Copy(ptmx, os.Stdin) }()
	go func() { _, _ = io.Copy(os.Stdout, ptmx) }()

	exited := make(chan error, 1)
	go func() { exited <- cmd.Wait() }()

	select {
	case waitErr := <-exited:
		return NewExitCodeResult(exitCodeFromWait(waitErr)), nil
	case <-ctx.Done():
		if cmd.Process != nil {
			_ = cmd.Process.Kill()
		}
		return NewAbortedResult("", ""), nil
	}
}

// forwardWinsize copies src's window size onto ptmx once immediately and
// again on every SIGWINCH. The returned stop function ends the loop and
// must be called before ptmx is closed.
func forwardWinsize(src, ptmx *os.File) (stop func()) {
	winch := make(chan os.Signal, 1)
	signal.Notify(winch, syscall.SIGWINCH)
	go func() {
		for range winch {
			_ = pty.InheritSize(src, ptmx)
		}
	}()
	winch <- syscall.SIGWINCH

	return func() {
		signal.Stop(winch)
		close(winch)
	}
}
