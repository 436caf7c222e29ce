// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	goruntime "runtime"

	"github.com/spf13/cobra"

	"pynest/internal/config"
	"pynest/internal/probe"
)

// newDoctorCommand creates the `pynest doctor` health check.
func newDoctorCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "doctor",
		Short: "Check the health of the pynest setup",
		Long: `Check the health of the pynest setup.

Each check reports pass or fail; the command exits non-zero when any
check fails so it can gate scripts and CI steps.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppOrExit()
			if err != nil {
				return err
			}

			ctx := cmd.Context()
			failed := 0
			report := func(ok bool, name, detail string) {
				mark := SuccessStyle.Render("✓")
				if !ok {
					mark = ErrorStyle.Render("✗")
					failed++
				}
				fmt.Fprintf(app.stdout, "%s %s", mark, name)
				if detail != "" {
					fmt.Fprintf(app.stdout, " %s", SubtitleStyle.Render("("+detail+")"))
				}
				fmt.Fprintln(app.stdout)
			}

			report(app.Strategy.Supported(), "platform supported", goruntime.GOOS)

			prober := probe.New(app.Runner, app.Strategy)
			report(prober.Exists(ctx, "git"), "git available", "needed to bootstrap the version manager")

			managerOnPath := prober.Exists(ctx, "pyenv")
			report(true, "version manager", managerDetail(managerOnPath))

			cfg, cfgErr := config.Load()
			report(cfgErr == nil, "configuration loads", config.LoadedPath())

			if cfgErr == nil && cfg.VenvDir != "" {
				report(app.Venvs.Exists(cfg.VenvDir), "configured venv usable", cfg.VenvDir)
			}

			versions, verErr := app.Toolchain.Versions(ctx)
			if verErr == nil {
				report(true, "installed versions", fmt.Sprintf("%d found", len(versions)))
			} else {
				report(false, "installed versions", "version manager not usable yet")
			}

			if failed > 0 {
				return &ExitError{Code: 1, Err: fmt.Errorf("%d check(s) failed", failed)}
			}
			fmt.Fprintln(app.stdout, SuccessStyle.Render("all checks passed"))
			return nil
		},
	}
}

func managerDetail(onPath bool) string {
	if onPath {
		return "found on PATH"
	}
	return "will be bootstrapped on first install"
}
