// SPDX-License-Identifier: MPL-2.0

// Package pip wraps package-manager invocations through a managed
// interpreter, always via `python -m pip` so the packages land in the
// interpreter's own environment.
package pip

import (
	"context"
	"errors"
	"fmt"
	"io"
	"regexp"
	"strings"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"

	"pynest/internal/runner"
)

// ErrPipFailed indicates a package-manager invocation exited non-zero.
var ErrPipFailed = errors.New("pip invocation failed")

// PipError carries the failing subcommand and its diagnostics.
type PipError struct {
	Subcommand string
	ExitCode   int
	Stderr     string
	Err        error
}

func (e *PipError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("pip %s failed: %v", e.Subcommand, e.Err)
	}
	msg := fmt.Sprintf("pip %s exited with code %d", e.Subcommand, e.ExitCode)
	if s := strings.TrimSpace(e.Stderr); s != "" {
		msg += ": " + s
	}
	return msg
}

func (e *PipError) Unwrap() []error {
	errs := []error{ErrPipFailed}
	if e.Err != nil {
		errs = append(errs, e.Err)
	}
	return errs
}

// CommandRunner is the subset of the command runner the wrapper needs.
type CommandRunner interface {
	Run(ctx context.Context, spec runner.Spec) (*runner.Result, error)
}

// Manager drives pip through one specific interpreter.
type Manager struct {
	run    CommandRunner
	python string

	// Stdout/Stderr receive streamed pip progress for the mutating
	// subcommands. Defaults to the process streams.
	Stdout io.Writer
	Stderr io.Writer
}

// New returns a Manager bound to the interpreter at python.
func New(run CommandRunner, python string) *Manager {
	return &Manager{run: run, python: python}
}

// Install installs the named packages, streaming pip's progress.
func (m *Manager) Install(ctx context.Context, packages ...string) error {
	return m.mutate(ctx, "install", packages...)
}

// Uninstall removes the named packages without prompting.
func (m *Manager) Uninstall(ctx context.Context, packages ...string) error {
	return m.mutate(ctx, "uninstall", append([]string{"-y"}, packages...)...)
}

// Freeze captures the installed-package snapshot via `pip freeze`.
func (m *Manager) Freeze(ctx context.Context) (*FrozenSet, error) {
	args := []string{"-m", "pip", "freeze"}
	result, err := m.run.Run(ctx, runner.Spec{Path: m.python, Args: args})
	if err != nil {
		return nil, &PipError{Subcommand: "freeze", Err: err}
	}
	if !result.ExitCode.IsSuccess() {
		return nil, &PipError{Subcommand: "freeze", ExitCode: int(result.ExitCode), Stderr: result.Stderr}
	}
	return ParseFreeze(result.Stdout), nil
}

func (m *Manager) mutate(ctx context.Context, subcommand string, args ...string) error {
	argv := append([]string{"-m", "pip", subcommand}, args...)
	result, err := m.run.Run(ctx, runner.Spec{
		Path:   m.python,
		Args:   argv,
		Stream: true,
		Stdout: m.Stdout,
		Stderr: m.Stderr,
	})
	if err != nil {
		return &PipError{Subcommand: subcommand, Err: err}
	}
	if !result.ExitCode.IsSuccess() {
		return &PipError{Subcommand: subcommand, ExitCode: int(result.ExitCode), Stderr: result.Stderr}
	}
	return nil
}

// FrozenSet is an immutable snapshot of installed packages, keyed by
// canonical package name.
type FrozenSet struct {
	versions map[string]string
}

// normalizeRuns collapses the separator runs package-name normalization
// treats as equivalent.
var normalizeRuns = regexp.MustCompile(`[-_.]+`)

// CanonicalName normalizes a package name the way the packaging ecosystem
// does: lowercase, with runs of `-`, `_` and `.` collapsed to a single `-`.
func CanonicalName(name string) string {
	return normalizeRuns.ReplaceAllString(strings.ToLower(name), "-")
}

// ParseFreeze parses `pip freeze` output into a FrozenSet. Lines without
// a `==` pin (editable installs, VCS references, blanks) are skipped.
func ParseFreeze(output string) *FrozenSet {
	versions := make(map[string]string)
	for _, line := range strings.Split(output, "\n") {
		line = strings.TrimSpace(line)
		name, version, ok := strings.Cut(line, "==")
		if !ok || name == "" {
			continue
		}
		versions[CanonicalName(name)] = strings.TrimSpace(version)
	}
	return &FrozenSet{versions: versions}
}

// Has reports whether the snapshot includes the named package, under any
// spelling that normalizes to the same canonical name.
func (s *FrozenSet) Has(name string) bool {
	_, ok := s.versions[CanonicalName(name)]
	return ok
}

// Version returns the pinned version of the named package, if present.
func (s *FrozenSet) Version(name string) (string, bool) {
	v, ok := s.versions[CanonicalName(name)]
	return v, ok
}

// Len returns the number of pinned packages in the snapshot.
func (s *FrozenSet) Len() int {
	return len(s.versions)
}

// Names returns the canonical package names in sorted order.
func (s *FrozenSet) Names() []string {
	names := maps.Keys(s.versions)
	slices.Sort(names)
	return names
}
