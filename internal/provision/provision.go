// SPDX-License-Identifier: MPL-2.0

package provision

import (
	"context"
	"os"
	"path/filepath"

	"github.com/charmbracelet/log"

	"pynest/internal/runner"
	"pynest/internal/toolchain"
)

type (
	// ToolchainInstaller is the toolchain surface the facade provisions
	// interpreters through.
	ToolchainInstaller interface {
		EnsureInstalled(ctx context.Context, version, venvHint string) (*toolchain.Resolution, error)
	}

	// VenvManager is the virtual-environment surface the facade composes.
	VenvManager interface {
		Create(ctx context.Context, python, dir string) error
		Remove(dir string) error
		Exists(dir string) bool
		PythonPath(dir string) string
	}

	// CommandRunner is the subset of the command runner the facade needs.
	CommandRunner interface {
		Run(ctx context.Context, spec runner.Spec) (*runner.Result, error)
	}

	// Manager composes toolchain, venv and runner behind Session-threaded
	// operations. It holds no per-session mutable state.
	Manager struct {
		toolchain ToolchainInstaller
		venvs     VenvManager
		run       CommandRunner
		logger    *log.Logger
	}
)

// New returns a Manager over the given collaborators.
func New(tc ToolchainInstaller, venvs VenvManager, run CommandRunner) *Manager {
	return &Manager{
		toolchain: tc,
		venvs:     venvs,
		run:       run,
		logger:    log.NewWithOptions(os.Stderr, log.Options{Prefix: "provision"}),
	}
}

// Provision ensures the requested runtime version is available and returns
// the Session describing it. A non-empty venvHint that resolves binds the
// session to that environment.
func (m *Manager) Provision(ctx context.Context, version, venvHint string) (Session, error) {
	res, err := m.toolchain.EnsureInstalled(ctx, version, venvHint)
	if err != nil {
		return Session{}, err
	}
	s := Session{PythonPath: res.Path, Version: version, Reused: res.Reused}
	if venvHint != "" && res.Path == m.venvs.PythonPath(venvHint) {
		s.VenvPath = venvHint
	}
	m.logger.Debug("provisioned session", "python", s.PythonPath, "version", s.Version, "reused", s.Reused)
	return s, nil
}

// CreateVenv builds a virtual environment at dir with the session's
// interpreter as base and returns a new session scoped to it. The input
// session is unchanged.
func (m *Manager) CreateVenv(ctx context.Context, s Session, dir string) (Session, error) {
	if err := m.venvs.Create(ctx, s.PythonPath, dir); err != nil {
		return Session{}, err
	}
	return Session{
		PythonPath: m.venvs.PythonPath(dir),
		Version:    s.Version,
		VenvPath:   dir,
	}, nil
}

// RemoveVenv deletes the environment at dir. When the session was scoped
// to that environment, the returned session is rebased onto the managed
// interpreter by re-resolving the version; otherwise the input session is
// returned unchanged.
func (m *Manager) RemoveVenv(ctx context.Context, s Session, dir string) (Session, error) {
	if err := m.venvs.Remove(dir); err != nil {
		return Session{}, err
	}
	if s.VenvPath != dir {
		return s, nil
	}
	m.logger.Debug("removed active environment, rebasing session", "dir", dir)
	return m.Provision(ctx, s.Version, "")
}

// RunScript executes a script file with the session's interpreter.
// Output is streamed when stream is true; either way the result carries
// the full buffered output.
func (m *Manager) RunScript(ctx context.Context, s Session, script string, args []string, stream bool) (*runner.Result, error) {
	return m.run.Run(ctx, runner.Spec{
		Path:   s.PythonPath,
		Args:   append([]string{script}, args...),
		Env:    m.sessionEnv(s),
		Stdin:  os.Stdin,
		Stream: stream,
	})
}

// RunCode executes an inline code snippet via the interpreter's -c flag.
func (m *Manager) RunCode(ctx context.Context, s Session, code string, stream bool) (*runner.Result, error) {
	return m.run.Run(ctx, runner.Spec{
		Path:   s.PythonPath,
		Args:   []string{"-c", code},
		Env:    m.sessionEnv(s),
		Stream: stream,
	})
}

// Interactive is implemented by runners that can attach a workload to
// the controlling terminal.
type Interactive interface {
	RunInteractive(ctx context.Context, spec runner.Spec) (*runner.Result, error)
}

// RunREPL starts the session's interpreter attached to the terminal when
// the runner supports it, falling back to a plain streamed run otherwise.
func (m *Manager) RunREPL(ctx context.Context, s Session) (*runner.Result, error) {
	spec := runner.Spec{Path: s.PythonPath, Env: m.sessionEnv(s), Stdin: os.Stdin, Stream: true}
	if ir, ok := m.run.(Interactive); ok {
		return ir.RunInteractive(ctx, spec)
	}
	return m.run.Run(ctx, spec)
}

// sessionEnv returns the environment additions a session's workloads
// need: the interpreter's directory first on PATH, plus the activation
// variable a venv's own scripts would set.
func (m *Manager) sessionEnv(s Session) []string {
	binDir := filepath.Dir(s.PythonPath)
	env := []string{
		"PATH=" + binDir + string(os.PathListSeparator) + os.Getenv("PATH"),
	}
	if s.InVenv() {
		env = append(env, "VIRTUAL_ENV="+s.VenvPath)
	}
	return env
}
