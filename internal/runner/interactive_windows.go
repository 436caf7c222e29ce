// SPDX-License-Identifier: MPL-2.0

//go:build windows

package runner

import (
	"context"
	"os"
	"os/exec"
)

// RunInteractive runs the process with the caller's standard streams
// inherited directly. Windows has no pty support here; the console host
// provides line editing for REPL-style sessions on its own.
func (r *Runner) RunInteractive(ctx context.Context, spec Spec) (*Result, error) {
	cmd := exec.Command(spec.Path, spec.Args...)
	cmd.Dir = spec.Dir
	if len(spec.Env) > 0 {
		cmd.Env = append(os.Environ(), spec.Env...)
	}
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	if err := cmd.Start(); err != nil {
		return nil, &LaunchError{Path: spec.Path, Err: err}
	}

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
