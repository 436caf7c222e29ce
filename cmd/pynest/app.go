// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"io"
	"os"

	"pynest/internal/config"
	"pynest/internal/pip"
	"pynest/internal/platform"
	"pynest/internal/probe"
	"pynest/internal/provision"
	"pynest/internal/runner"
	"pynest/internal/toolchain"
	"pynest/internal/venv"
)

type (
	// App wires CLI services and shared dependencies. It is the composition
	// root for the CLI layer: all Cobra command handlers receive an App
	// reference and delegate business logic through its services.
	App struct {
		Config      ConfigProvider
		Runner      *runner.Runner
		Strategy    platform.Strategy
		Toolchain   *toolchain.Installer
		Venvs       *venv.Manager
		Provisioner *provision.Manager
		stdout      io.Writer
		stderr      io.Writer
	}

	// ConfigProvider loads configuration using explicit options.
	// This abstraction enables testing with custom config sources.
	ConfigProvider interface {
		Load(ctx context.Context, opts config.LoadOptions) (*config.Config, error)
	}
)

// NewApp builds the production App. The platform strategy is resolved here
// so every unsupported-platform failure surfaces before any subprocess is
// spawned.
func NewApp(cfg *config.Config) (*App, error) {
	strategy, err := platform.Current()
	if err != nil {
		return nil, err
	}

	root := cfg.ManagerRoot
	if root == "" {
		root, err = strategy.DefaultManagerRoot()
		if err != nil {
			return nil, err
		}
	}

	run := runner.New()
	installer := toolchain.New(run, probe.New(run, strategy), strategy, root)
	venvs := venv.New(run, strategy)

	return &App{
		Config:      config.NewProvider(),
		Runner:      run,
		Strategy:    strategy,
		Toolchain:   installer,
		Venvs:       venvs,
		Provisioner: provision.New(installer, venvs, run),
		stdout:      os.Stdout,
		stderr:      os.Stderr,
	}, nil
}

// PipFor returns a package manager bound to the session's interpreter.
func (a *App) PipFor(s provision.Session) *pip.Manager {
	return pip.New(a.Runner, s.PythonPath)
}
