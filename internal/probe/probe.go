// SPDX-License-Identifier: MPL-2.0

// Package probe determines whether command-line tools are reachable on PATH.
package probe

import (
	"context"

	"pynest/internal/platform"
	"pynest/internal/runner"
)

type (
	// CommandRunner is the slice of the process runner the prober needs.
	CommandRunner interface {
		Run(ctx context.Context, spec runner.Spec) (*runner.Result, error)
	}

	// Prober checks tool availability by invoking the platform's lookup
	// command (`where` / `command -v`) and interpreting a zero exit code
	// as "found". Probing is best-effort: it never fails, any spawn error
	// is treated as "not found".
	Prober struct {
		run      CommandRunner
		strategy platform.Strategy
	}
)

// New creates a Prober for the given platform strategy.
func New(run CommandRunner, strategy platform.Strategy) *Prober {
	return &Prober{run: run, strategy: strategy}
}

// Exists reports whether the named tool is reachable on PATH.
func (p *Prober) Exists(ctx context.Context, tool string) bool {
	argv := p.strategy.LookupArgv(tool)
	result, err := p.run.Run(ctx, runner.Spec{Path: argv[0], Args: argv[1:]})
	if err != nil {
		return false
	}
	return !result.Aborted && result.ExitCode.IsSuccess()
}
