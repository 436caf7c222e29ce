// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pynest/internal/issue"
	"pynest/internal/toolchain"
)

// newInstallCommand creates the `pynest install` command.
func newInstallCommand() *cobra.Command {
	var listOnly bool

	installCmd := &cobra.Command{
		Use:   "install [version]",
		Short: "Provision a Python runtime version",
		Long: `Provision a Python runtime version through the version-management tool.

The management tool itself is bootstrapped on first use. Installing a
version that is already present performs no installation side effects and
reports the existing interpreter.`,
		Args: cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppOrExit()
			if err != nil {
				return err
			}

			if listOnly {
				return listVersions(cmd, app)
			}

			version := loadedConfig().DefaultVersion
			if len(args) == 1 {
				version = args[0]
			}

			res, err := app.Toolchain.EnsureInstalled(cmd.Context(), version, "")
			if err != nil {
				renderInstallFailure(err)
				return err
			}

			if res.Reused {
				fmt.Fprintf(app.stdout, "%s %s already installed at %s\n",
					SuccessStyle.Render("✓"), version, res.Path)
			} else {
				fmt.Fprintf(app.stdout, "%s installed %s at %s\n",
					SuccessStyle.Render("✓"), version, res.Path)
			}
			return nil
		},
	}

	installCmd.Flags().BoolVar(&listOnly, "list", false, "list installed versions instead of installing")

	return installCmd
}

// newUninstallCommand creates the `pynest uninstall` command.
func newUninstallCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "uninstall <version>",
		Short: "Remove an installed Python runtime version",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppOrExit()
			if err != nil {
				return err
			}

			if err := app.Toolchain.Uninstall(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "%s removed %s\n", SuccessStyle.Render("✓"), args[0])
			return nil
		},
	}
}

func listVersions(cmd *cobra.Command, app *App) error {
	versions, err := app.Toolchain.Versions(cmd.Context())
	if err != nil {
		return err
	}
	if len(versions) == 0 {
		fmt.Fprintln(app.stdout, SubtitleStyle.Render("no versions installed"))
		return nil
	}
	for _, v := range versions {
		fmt.Fprintln(app.stdout, v)
	}
	return nil
}

// renderInstallFailure maps an installation error to its issue page.
func renderInstallFailure(err error) {
	var id issue.Id
	switch {
	case errors.Is(err, toolchain.ErrInconsistentState):
		id = issue.InconsistentInstallId
	case errors.Is(err, toolchain.ErrInstallStepFailed):
		var stepErr *toolchain.InstallStepError
		if errors.As(err, &stepErr) && stepErr.Step == "bootstrap" {
			id = issue.BootstrapFailedId
		} else {
			id = issue.VersionInstallFailedId
		}
	default:
		return
	}
	if rendered, rerr := issue.Get(id).Render("dark"); rerr == nil {
		fmt.Fprint(os.Stderr, rendered)
	}
}
