// SPDX-License-Identifier: MPL-2.0

package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"pynest/internal/config"
	"pynest/internal/issue"
)

// newConfigCommand creates the `pynest config` command tree.
func newConfigCommand() *cobra.Command {
	cfgCmd := &cobra.Command{
		Use:   "config",
		Short: "Manage pynest configuration",
		Long: `Manage pynest configuration.

Configuration is stored in:
  - Linux: ~/.config/pynest/config.cue
  - macOS: ~/Library/Application Support/pynest/config.cue
  - Windows: %APPDATA%\pynest\config.cue`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "show",
		Short: "Show current configuration",
		RunE: func(cmd *cobra.Command, args []string) error {
			return showConfig()
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "init",
		Short: "Create default configuration file",
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := config.CreateDefaultConfig(); err != nil {
				return err
			}
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Printf("%s config ready at %s\n", SuccessStyle.Render("✓"),
				filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "path",
		Short: "Show configuration file path",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfgDir, err := config.ConfigDir()
			if err != nil {
				return err
			}
			fmt.Println(filepath.Join(cfgDir, config.ConfigFileName+"."+config.ConfigFileExt))
			return nil
		},
	})

	cfgCmd.AddCommand(&cobra.Command{
		Use:   "dump",
		Short: "Output raw configuration as CUE",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load()
			if err != nil {
				return err
			}
			fmt.Print(config.GenerateCUE(cfg))
			return nil
		},
	})

	return cfgCmd
}

func showConfig() error {
	cfg, err := config.Load()
	if err != nil {
		rendered, _ := issue.Get(issue.ConfigLoadFailedId).Render("dark")
		fmt.Fprint(os.Stderr, rendered)
		return err
	}

	fmt.Println(TitleStyle.Render("Current Configuration"))
	fmt.Println()

	if path := config.LoadedPath(); path != "" {
		fmt.Printf("%s: %s\n", CmdStyle.Render("Config file"), path)
	} else {
		fmt.Printf("%s: %s\n", CmdStyle.Render("Config file"), SubtitleStyle.Render("(using defaults)"))
	}
	fmt.Println()

	fmt.Printf("%s: %s\n", CmdStyle.Render("default_version"), SuccessStyle.Render(cfg.DefaultVersion))
	fmt.Printf("%s: %s\n", CmdStyle.Render("manager_root"), SuccessStyle.Render(orUnset(cfg.ManagerRoot)))
	fmt.Printf("%s: %s\n", CmdStyle.Render("venv_dir"), SuccessStyle.Render(orUnset(cfg.VenvDir)))
	fmt.Printf("%s: %s\n", CmdStyle.Render("ui.color_scheme"), SuccessStyle.Render(cfg.UI.ColorScheme))
	fmt.Printf("%s: %v\n", CmdStyle.Render("ui.verbose"), cfg.UI.Verbose)

	return nil
}

func orUnset(v string) string {
	if v == "" {
		return "(unset)"
	}
	return v
}
