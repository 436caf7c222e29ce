// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"pynest/internal/issue"
	"pynest/internal/venv"
)

// newVenvCommand creates the `pynest venv` command tree.
func newVenvCommand() *cobra.Command {
	var pythonVersion string

	venvCmd := &cobra.Command{
		Use:   "venv",
		Short: "Manage virtual environments",
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	venvCmd.PersistentFlags().StringVarP(&pythonVersion, "python-version", "p", "", "runtime version to provision (default from config)")

	venvCmd.AddCommand(&cobra.Command{
		Use:   "create <dir>",
		Short: "Create a virtual environment",
		Long: `Create a virtual environment at the given directory.

The base runtime version is provisioned first when it is not installed
yet, so a single command takes you from nothing to a usable environment.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppOrExit()
			if err != nil {
				return err
			}

			version := pythonVersion
			if version == "" {
				version = loadedConfig().DefaultVersion
			}

			session, err := app.Provisioner.Provision(cmd.Context(), version, "")
			if err != nil {
				renderInstallFailure(err)
				return err
			}

			scoped, err := app.Provisioner.CreateVenv(cmd.Context(), session, args[0])
			if err != nil {
				renderVenvFailure(err)
				return err
			}

			fmt.Fprintf(app.stdout, "%s created %s (python %s)\n",
				SuccessStyle.Render("✓"), scoped.VenvPath, scoped.Version)
			fmt.Fprintf(app.stdout, "  interpreter: %s\n", CmdStyle.Render(scoped.PythonPath))
			return nil
		},
	})

	venvCmd.AddCommand(&cobra.Command{
		Use:   "delete <dir>",
		Short: "Delete a virtual environment",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			app, err := newAppOrExit()
			if err != nil {
				return err
			}

			if err := app.Venvs.Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(app.stdout, "%s deleted %s\n", SuccessStyle.Render("✓"), args[0])
			return nil
		},
	})

	return venvCmd
}

// renderVenvFailure shows the broken-environment issue page.
func renderVenvFailure(err error) {
	if !errors.Is(err, venv.ErrVenvFailed) {
		return
	}
	if rendered, rerr := issue.Get(issue.VenvLayoutBrokenId).Render("dark"); rerr == nil {
		fmt.Fprint(os.Stderr, rendered)
	}
}
