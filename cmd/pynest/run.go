// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"pynest/internal/issue"
	"pynest/internal/provision"
	"pynest/internal/runner"
	"pynest/internal/watch"
)

// abortExitCode is reported when a run is cancelled, matching the shell
// convention for SIGINT.
const abortExitCode = 130

// newRunCommand creates the `pynest run` command.
func newRunCommand() *cobra.Command {
	var (
		pythonVersion string
		venvDir       string
		captureOnly   bool
		shellSnippet  string
		watchMode     bool
	)

	runCmd := &cobra.Command{
		Use:   "run [script] [args...]",
		Short: "Run a script with a provisioned runtime",
		Long: `Run a script with a provisioned runtime.

The requested version is installed on demand before the script starts.
Without a script argument an interactive interpreter is opened instead.
Script output is streamed live by default; --capture-only holds it back
and prints the buffered output once the script finishes.`,
		Args: cobra.ArbitraryArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppOrExit()
			if err != nil {
				return err
			}

			cfg := loadedConfig()
			version := pythonVersion
			if version == "" {
				version = cfg.DefaultVersion
			}
			hint := venvDir
			if hint == "" {
				hint = cfg.VenvDir
			}

			session, err := app.Provisioner.Provision(cmd.Context(), version, hint)
			if err != nil {
				renderInstallFailure(err)
				return err
			}

			if shellSnippet != "" {
				code, err := app.Provisioner.RunInline(cmd.Context(), session, shellSnippet, args, os.Stdin, app.stdout, app.stderr)
				if err != nil {
					return err
				}
				if code != 0 {
					return &ExitError{Code: runner.ExitCode(code)}
				}
				return nil
			}

			if len(args) == 0 {
				result, err := app.Provisioner.RunREPL(cmd.Context(), session)
				if err != nil {
					return err
				}
				return exitFromResult(result)
			}

			script, scriptArgs := args[0], args[1:]

			if watchMode {
				return watchAndRerun(cmd, app, session, script, scriptArgs)
			}

			result, err := app.Provisioner.RunScript(cmd.Context(), session, script, scriptArgs, !captureOnly)
			if err != nil {
				if errors.Is(err, runner.ErrLaunchFailure) {
					if rendered, rerr := issue.Get(issue.WorkloadLaunchFailedId).Render("dark"); rerr == nil {
						fmt.Fprint(os.Stderr, rendered)
					}
				}
				return err
			}

			if captureOnly {
				fmt.Fprint(app.stdout, result.Stdout)
				fmt.Fprint(app.stderr, result.Stderr)
			}
			return exitFromResult(result)
		},
	}

	runCmd.Flags().StringVarP(&pythonVersion, "python-version", "p", "", "runtime version to provision (default from config)")
	runCmd.Flags().StringVar(&venvDir, "venv", "", "virtual environment to run inside")
	runCmd.Flags().BoolVar(&captureOnly, "capture-only", false, "buffer output and print it after completion")
	runCmd.Flags().StringVar(&shellSnippet, "shell", "", "interpret a shell snippet instead of a script file")
	runCmd.Flags().BoolVarP(&watchMode, "watch", "w", false, "re-run the script when source files change")

	return runCmd
}

// watchAndRerun runs the script once, then re-runs it on every debounced
// change to Python sources under the script's directory. Blocks until the
// command context is cancelled.
func watchAndRerun(cmd *cobra.Command, app *App, session provision.Session, script string, scriptArgs []string) error {
	runOnce := func(ctx context.Context) error {
		result, err := app.Provisioner.RunScript(ctx, session, script, scriptArgs, true)
		if err != nil {
			return err
		}
		if result.Aborted {
			return nil
		}
		if !result.Success() {
			fmt.Fprintln(app.stderr, WarningStyle.Render(fmt.Sprintf("exit status %d", result.ExitCode)))
		}
		return nil
	}

	if err := runOnce(cmd.Context()); err != nil {
		return err
	}

	w, err := watch.New(watch.Config{
		BaseDir:  filepath.Dir(script),
		Patterns: []string{"**/*.py"},
		OnChange: func(ctx context.Context, changed []string) error {
			fmt.Fprintln(app.stdout, SubtitleStyle.Render(fmt.Sprintf("changed: %s; re-running", strings.Join(changed, ", "))))
			return runOnce(ctx)
		},
		Stdout: app.stdout,
		Stderr: app.stderr,
	})
	if err != nil {
		return err
	}

	fmt.Fprintln(app.stdout, SubtitleStyle.Render("watching for changes (ctrl-c to stop)"))
	return w.Run(cmd.Context())
}

// exitFromResult converts a completed run into the CLI's exit semantics:
// aborted runs report 130, non-zero exits propagate the child's code.
func exitFromResult(result *runner.Result) error {
	if result.Aborted {
		return &ExitError{Code: abortExitCode}
	}
	if !result.Success() {
		return &ExitError{Code: result.ExitCode}
	}
	return nil
}
