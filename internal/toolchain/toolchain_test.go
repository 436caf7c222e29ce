// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"pynest/internal/platform"
	"pynest/internal/runner"
)

// scriptedRunner records every spec and answers through a responder func.
type scriptedRunner struct {
	specs   []runner.Spec
	respond func(spec runner.Spec) (*runner.Result, error)
}

func (s *scriptedRunner) Run(_ context.Context, spec runner.Spec) (*runner.Result, error) {
	s.specs = append(s.specs, spec)
	return s.respond(spec)
}

// staticProber answers Exists with a fixed value and counts probes.
type staticProber struct {
	present bool
	probes  int
}

func (p *staticProber) Exists(_ context.Context, _ string) bool {
	p.probes++
	return p.present
}

// argvOf reassembles the invocation for matching in responders.
func argvOf(spec runner.Spec) string {
	return strings.Join(append([]string{spec.Path}, spec.Args...), " ")
}

// writeFakeInterpreter creates a file standing in for a real executable.
func writeFakeInterpreter(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	if err := os.WriteFile(path, []byte("#!/bin/sh\n"), 0o755); err != nil {
		t.Fatalf("failed to write fake interpreter: %v", err)
	}
	return path
}

func posixInstaller(run CommandRunner, probe ToolProber, root string) *Installer {
	i := New(run, probe, platform.Strategy{Class: platform.ClassPosix}, root)
	i.Stdout = io.Discard
	i.Stderr = io.Discard
	return i
}

func TestEnsureInstalled_FreshInstallScenario(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	realPython := writeFakeInterpreter(t, tmp, "python3.10")

	run := &scriptedRunner{respond: func(spec runner.Spec) (*runner.Result, error) {
		argv := argvOf(spec)
		switch {
		case strings.HasSuffix(argv, "pyenv local"):
			// No local version configured yet.
			return &runner.Result{ExitCode: 1, Stderr: "pyenv: no local version configured\n"}, nil
		case strings.Contains(argv, "pyenv install -s 3.10.1"):
			return &runner.Result{ExitCode: 0}, nil
		case strings.Contains(argv, "pyenv local 3.10.1"):
			return &runner.Result{ExitCode: 0}, nil
		case strings.Contains(argv, "import sys"):
			return &runner.Result{ExitCode: 0, Stdout: realPython + "\n"}, nil
		default:
			t.Errorf("unexpected invocation: %s", argv)
			return &runner.Result{ExitCode: 1}, nil
		}
	}}
	probe := &staticProber{present: true}

	inst := posixInstaller(run, probe, filepath.Join(tmp, "pyenv-root"))
	res, err := inst.EnsureInstalled(context.Background(), "3.10.1", "")
	if err != nil {
		t.Fatalf("EnsureInstalled() unexpected error: %v", err)
	}
	if res.Path != realPython {
		t.Errorf("Path = %q, want %q", res.Path, realPython)
	}
	if res.Reused {
		t.Error("Reused = true for a fresh install, want false")
	}

	if probe.probes != 1 {
		t.Errorf("manager probes = %d, want 1", probe.probes)
	}

	// Invocation order: resolve query, install, activate, self-report.
	// The install step carries -s so a build present on disk but not the
	// active local version never hits the tool's reinstall prompt.
	wantOrder := []string{"local", "install -s 3.10.1", "local 3.10.1", "import sys"}
	if len(run.specs) != len(wantOrder) {
		t.Fatalf("invocations = %d, want %d: %v", len(run.specs), len(wantOrder), run.specs)
	}
	for i, want := range wantOrder {
		if got := argvOf(run.specs[i]); !strings.Contains(got, want) {
			t.Errorf("invocation %d = %q, want containing %q", i, got, want)
		}
	}
}

func TestEnsureInstalled_SecondCallIsIdempotent(t *testing.T) {
	t.Parallel()

	tmp := t.TempDir()
	realPython := writeFakeInterpreter(t, tmp, "python3.10")

	installCalls := 0
	run := &scriptedRunner{respond: func(spec runner.Spec) (*runner.Result, error) {
		argv := argvOf(spec)
		switch {
		case strings.HasSuffix(argv, "pyenv local"):
			// The first call activated 3.10.1 as the local version.
			return &runner.Result{ExitCode: 0, Stdout: "3.10.1\n"}, nil
		case strings.Contains(argv, "install"):
			installCalls++
			return &runner.Result{ExitCode: 0}, nil
		case strings.Contains(argv, "import sys"):
			return &runner.Result{ExitCode: 0, Stdout: realPython + "\n"}, nil
		default:
			return &runner.Result{ExitCode: 0}, nil
		}
	}}

	inst := posixInstaller(run, &staticProber{present: true}, filepath.Join(tmp, "pyenv-root"))
	res, err := inst.EnsureInstalled(context.Background(), "3.10.1", "")
	if err != nil {
		t.Fatalf("EnsureInstalled() unexpected error: %v", err)
	}
	if !res.Reused {
		t.Error("Reused = false, want true (existing install)")
	}
	if res.Path != realPython {
		t.Errorf("Path = %q, want %q", res.Path, realPython)
	}
	if installCalls != 0 {
		t.Errorf("install invocations = %d, want 0", installCalls)
	}
}

func TestEnsureInstalled_BootstrapFailureIsFatal(t *testing.T) {
	t.Parallel()

	run := &scriptedRunner{respond: func(spec runner.Spec) (*runner.Result, error) {
		if spec.Path == "git" {
			return &runner.Result{ExitCode: 128, Stderr: "fatal: could not resolve host\n"}, nil
		}
		t.Errorf("unexpected invocation after failed bootstrap: %s", argvOf(spec))
		return &runner.Result{ExitCode: 0}, nil
	}}

	inst := posixInstaller(run, &staticProber{present: false}, t.TempDir())
	_, err := inst.EnsureInstalled(context.Background(), "3.12.0", "")
	if err == nil {
		t.Fatal("EnsureInstalled() expected bootstrap error, got nil")
	}
	if !errors.Is(err, ErrInstallStepFailed) {
		t.Errorf("error = %v, want errors.Is ErrInstallStepFailed", err)
	}
	var stepErr *InstallStepError
	if !errors.As(err, &stepErr) {
		t.Fatalf("error type = %T, want *InstallStepError", err)
	}
	if stepErr.Step != "bootstrap" {
		t.Errorf("Step = %q, want bootstrap", stepErr.Step)
	}
	if len(run.specs) != 1 {
		t.Errorf("invocations = %d, want 1 (bootstrap only)", len(run.specs))
	}
}

func TestEnsureInstalled_MissingReportedPathIsInconsistent(t *testing.T) {
	t.Parallel()

	run := &scriptedRunner{respond: func(spec runner.Spec) (*runner.Result, error) {
		argv := argvOf(spec)
		switch {
		case strings.HasSuffix(argv, "pyenv local"):
			return &runner.Result{ExitCode: 1}, nil
		case strings.Contains(argv, "import sys"):
			// The interpreter claims a path that does not exist.
			return &runner.Result{ExitCode: 0, Stdout: "/nonexistent/python3.10\n"}, nil
		default:
			return &runner.Result{ExitCode: 0}, nil
		}
	}}

	inst := posixInstaller(run, &staticProber{present: true}, t.TempDir())
	_, err := inst.EnsureInstalled(context.Background(), "3.10.1", "")
	if err == nil {
		t.Fatal("EnsureInstalled() expected inconsistency error, got nil")
	}
	if !errors.Is(err, ErrInconsistentState) {
		t.Errorf("error = %v, want errors.Is ErrInconsistentState", err)
	}
}

func TestEnsureInstalled_UnsupportedPlatform(t *testing.T) {
	t.Parallel()

	run := &scriptedRunner{respond: func(spec runner.Spec) (*runner.Result, error) {
		t.Errorf("unexpected invocation on unsupported platform: %s", argvOf(spec))
		return &runner.Result{ExitCode: 0}, nil
	}}

	inst := New(run, &staticProber{}, platform.Strategy{}, t.TempDir())
	_, err := inst.EnsureInstalled(context.Background(), "3.12.0", "")
	if !errors.Is(err, platform.ErrUnsupportedPlatform) {
		t.Errorf("error = %v, want errors.Is ErrUnsupportedPlatform", err)
	}
}

func TestVersions_ParsesBareList(t *testing.T) {
	t.Parallel()

	run := &scriptedRunner{respond: func(spec runner.Spec) (*runner.Result, error) {
		return &runner.Result{ExitCode: 0, Stdout: "3.10.1\n3.12.0\n\n"}, nil
	}}

	inst := posixInstaller(run, &staticProber{present: true}, t.TempDir())
	versions, err := inst.Versions(context.Background())
	if err != nil {
		t.Fatalf("Versions() unexpected error: %v", err)
	}
	if len(versions) != 2 || versions[0] != "3.10.1" || versions[1] != "3.12.0" {
		t.Errorf("Versions() = %v, want [3.10.1 3.12.0]", versions)
	}
}
