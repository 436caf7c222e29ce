// SPDX-License-Identifier: MPL-2.0

// Package venv wraps virtual-environment lifecycle operations around a
// managed interpreter.
package venv

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"pynest/internal/platform"
	"pynest/internal/runner"
)

// ErrVenvFailed indicates a virtual-environment operation failed.
var ErrVenvFailed = errors.New("virtual environment operation failed")

// VenvError carries the failing operation and its diagnostics.
type VenvError struct {
	Op       string
	Dir      string
	ExitCode int
	Stderr   string
	Err      error
}

func (e *VenvError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("venv %s %s failed: %v", e.Op, e.Dir, e.Err)
	}
	msg := fmt.Sprintf("venv %s %s exited with code %d", e.Op, e.Dir, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *VenvError) Unwrap() []error {
	errs := []error{ErrVenvFailed}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// CommandRunner is the subset of the command runner the wrapper needs.
type CommandRunner interface {
	Run(ctx context.Context, spec runner.Spec) (*runner.Result, error)
}

// Manager creates and removes virtual environments.
type Manager struct {
	run      CommandRunner
	strategy platform.Strategy

	// Stdout/Stderr receive streamed progress during creation.
	// Defaults to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// New returns a Manager using the given runner and platform strategy.
func New(run CommandRunner, strategy platform.Strategy) *Manager {
	return &Manager{run: run, strategy: strategy}
}

// Create builds a virtual environment at dir via `python -m venv` with the
// given base interpreter, streaming any progress output. Creating over an
// existing environment is fine; the stdlib module treats that as an
// upgrade-in-place.
func (m *Manager) Create(ctx context.Context, python, dir string) error {
	result, err := m.run.Run(ctx, runner.Spec{
		Path:   python,
		Args:   []string{"-m", "venv", dir},
		Stream: true,
		Stdout: m.Stdout,
		Stderr: m.Stderr,
	})
	if err != nil {
		return &VenvError{Op: "create", Dir: dir, Err: err}
	}
	if !result.ExitCode.IsSuccess() {
		return &VenvError{Op: "create", Dir: dir, ExitCode: int(result.ExitCode), Stderr: result.Stderr}
	}
	return nil
}

// Remove deletes the environment directory tree.
func (m *Manager) Remove(dir string) error {
	if err := os.RemoveAll(dir); err != nil {
		return &VenvError{Op: "remove", Dir: dir, Err: err}
	}
	return nil
}

// Exists reports whether dir holds a usable environment, judged by the
// presence of its interior interpreter.
func (m *Manager) Exists(dir string) bool {
	info, err := os.Stat(m.strategy.VenvPython(dir))
	return err == nil && !info.IsDir()
}

// PythonPath returns the interior interpreter path for the environment at
// dir, whether or not it exists yet.
func (m *Manager) PythonPath(dir string) string {
	return m.strategy.VenvPython(dir)
}
