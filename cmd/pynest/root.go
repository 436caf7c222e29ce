// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"pynest/internal/config"
	"pynest/internal/issue"
	"pynest/internal/platform"
)

var (
	// Version is the semantic version (set via -ldflags).
	Version = "dev"
	// Commit is the git commit hash (set via -ldflags).
	Commit = "unknown"
	// BuildDate is the build timestamp (set via -ldflags).
	BuildDate = "unknown"

	// Verbose enables verbose output
	verbose bool
	// cfgFile allows specifying a custom config file
	cfgFile string

	// rootCmd represents the base command when called without any subcommands
	rootCmd = &cobra.Command{
		Use:   "pynest",
		Short: "A managed Python runtime provisioner and script runner",
		Long: TitleStyle.Render("pynest") + SubtitleStyle.Render(" - A managed Python runtime provisioner and script runner") + `

pynest installs Python versions on demand through a version-management
tool, keeps virtual environments and their packages in order, and runs
scripts against exactly the interpreter you asked for.

` + SubtitleStyle.Render("Quick Start:") + `
  1. Install a runtime version: pynest install 3.12.0
  2. Create an environment:     pynest venv create ./env
  3. Run your script:           pynest run main.py

` + SubtitleStyle.Render("Examples:") + `
  pynest install 3.10.1         Provision Python 3.10.1
  pynest run main.py -- --flag  Run a script with arguments
  pynest run                    Open a REPL on the default version
  pynest pip install requests   Install a package into the active env
  pynest config show            Show current configuration`,
	}
)

func init() {
	cobra.OnInitialize(initRootConfig)

	// Global flags
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "enable verbose output")
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is $HOME/.config/pynest/config.cue)")

	// Add subcommands
	rootCmd.AddCommand(newInstallCommand())
	rootCmd.AddCommand(newUninstallCommand())
	rootCmd.AddCommand(newRunCommand())
	rootCmd.AddCommand(newPipCommand())
	rootCmd.AddCommand(newVenvCommand())
	rootCmd.AddCommand(newConfigCommand())
	rootCmd.AddCommand(newDoctorCommand())
}

// getVersionString returns a formatted version string for display.
func getVersionString() string {
	if Version == "dev" {
		return "dev (built from source)"
	}
	return fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, BuildDate)
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Use fang.Execute for enhanced Cobra styling
	// Pass version via fang.WithVersion() since fang overrides rootCmd.Version
	if err := fang.Execute(
		context.Background(),
		rootCmd,
		fang.WithVersion(getVersionString()),
		fang.WithNotifySignal(os.Interrupt),
	); err != nil {
		var exitErr *ExitError
		if errors.As(err, &exitErr) {
			os.Exit(int(exitErr.Code))
		}
		os.Exit(1)
	}
}

// initRootConfig reads in config file and ENV variables if set.
func initRootConfig() {
	// Set custom config file path if provided via --config flag
	if cfgFile != "" {
		config.SetConfigFilePathOverride(cfgFile)
	}

	cfg, err := config.Load()
	if err != nil {
		// Config loading problems must reach the user even when a
		// default config would let the command proceed.
		fmt.Fprintln(os.Stderr, WarningStyle.Render("Warning: ")+formatErrorForDisplay(err, verbose))
	}

	// Apply verbose from config if not set via flag
	if cfg != nil && !verbose {
		verbose = cfg.UI.Verbose
	}
}

// loadedConfig returns the cached configuration, falling back to defaults
// when loading failed earlier.
func loadedConfig() *config.Config {
	cfg, err := config.Load()
	if err != nil || cfg == nil {
		return config.DefaultConfig()
	}
	return cfg
}

// newAppOrExit builds the production App, rendering the unsupported-platform
// issue page before failing.
func newAppOrExit() (*App, error) {
	app, err := NewApp(loadedConfig())
	if err != nil {
		if errors.Is(err, platform.ErrUnsupportedPlatform) {
			if rendered, rerr := issue.Get(issue.UnsupportedPlatformId).Render("dark"); rerr == nil {
				fmt.Fprint(os.Stderr, rendered)
			}
		}
		return nil, err
	}
	return app, nil
}

// formatErrorForDisplay formats an error for user display.
// If the error is an ActionableError, it uses the Format method.
// In verbose mode, shows the full error chain.
func formatErrorForDisplay(err error, verboseMode bool) string {
	var ae *issue.ActionableError
	if errors.As(err, &ae) {
		return ae.Format(verboseMode)
	}
	return err.Error()
}

// GetVerbose returns the verbose flag value
func GetVerbose() bool {
	return verbose
}
