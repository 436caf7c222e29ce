// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pynest/internal/issue"
	"pynest/internal/pip"
	"pynest/internal/provision"
)

// newPipCommand creates the `pynest pip` command tree. Every subcommand
// provisions a session first so packages always land in the interpreter
// the rest of the CLI would use.
func newPipCommand() *cobra.Command {
	var (
		pythonVersion string
		venvDir       string
	)

	pipCmd := &cobra.Command{
		Use:   "pip",
		Short: "Manage packages in a provisioned runtime",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	pipCmd.PersistentFlags().StringVarP(&pythonVersion, "python-version", "p", "", "runtime version to provision (default from config)")
	pipCmd.PersistentFlags().StringVar(&venvDir, "venv", "", "virtual environment to operate on")

	sessionFor := func(cmd *cobra.Command) (*App, provision.Session, error) {
		app, err := newAppOrExit()
		if err != nil {
			return nil, provision.Session{}, err
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
			return nil, provision.Session{}, err
		}
		return app, session, nil
	}

	pipCmd.AddCommand(&cobra.Command{
		Use:   "install <package>...",
		Short: "Install packages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, session, err := sessionFor(cmd)
			if err != nil {
				return err
			}
			if err := app.PipFor(session).Install(cmd.Context(), args...); err != nil {
				renderPipFailure(err)
				return err
			}
			fmt.Fprintf(app.stdout, "%s installed %d package(s)\n", SuccessStyle.Render("✓"), len(args))
			return nil
		},
	})

	pipCmd.AddCommand(&cobra.Command{
		Use:   "uninstall <package>...",
		Short: "Remove packages",
		Args:  cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, session, err := sessionFor(cmd)
			if err != nil {
				return err
			}
			if err := app.PipFor(session).Uninstall(cmd.Context(), args...); err != nil {
				renderPipFailure(err)
				return err
			}
			fmt.Fprintf(app.stdout, "%s removed %d package(s)\n", SuccessStyle.Render("✓"), len(args))
			return nil
		},
	})

	var hasPackage string
	listCmd := &cobra.Command{
		Use:   "list",
		Short: "List installed packages",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			app, session, err := sessionFor(cmd)
			if err != nil {
				return err
			}
			set, err := app.PipFor(session).Freeze(cmd.Context())
			if err != nil {
				renderPipFailure(err)
				return err
			}

			if hasPackage != "" {
				if set.Has(hasPackage) {
					version, _ := set.Version(hasPackage)
					fmt.Fprintf(app.stdout, "%s %s %s\n", SuccessStyle.Render("✓"), hasPackage, version)
					return nil
				}
				fmt.Fprintf(app.stdout, "%s %s not installed\n", ErrorStyle.Render("✗"), hasPackage)
				return &ExitError{Code: 1}
			}

			for _, name := range set.Names() {
				version, _ := set.Version(name)
				fmt.Fprintf(app.stdout, "%s==%s\n", name, version)
			}
			return nil
		},
	}
	listCmd.Flags().StringVar(&hasPackage, "has", "", "check whether a single package is installed")
	pipCmd.AddCommand(listCmd)

	return pipCmd
}

// renderPipFailure shows the pip issue page for package-manager errors.
func renderPipFailure(err error) {
	if !errors.Is(err, pip.ErrPipFailed) {
		return
	}
	if rendered, rerr := issue.Get(issue.PipFailedId).Render("dark"); rerr == nil {
		fmt.Fprint(os.Stderr, rendered)
	}
}
