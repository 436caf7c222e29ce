// SPDX-License-Identifier: MPL-2.0

package config

type (
	// Config is the application configuration.
	Config struct {
		// DefaultVersion is the runtime version used when a command
		// does not name one explicitly.
		DefaultVersion string `json:"default_version" mapstructure:"default_version"`

		// ManagerRoot overrides where the version-management tool
		// lives. Empty means the platform default under the home dir.
		ManagerRoot string `json:"manager_root" mapstructure:"manager_root"`

		// VenvDir is the default virtual-environment directory
		// commands operate on when no --venv flag is given.
		VenvDir string `json:"venv_dir" mapstructure:"venv_dir"`

		// UI holds presentation settings.
		UI UIConfig `json:"ui" mapstructure:"ui"`
	}

	// UIConfig holds presentation settings.
	UIConfig struct {
		// ColorScheme selects terminal styling: auto, dark or light.
		ColorScheme string `json:"color_scheme" mapstructure:"color_scheme"`

		// Verbose enables debug-level logging.
		Verbose bool `json:"verbose" mapstructure:"verbose"`
	}
)

// DefaultConfig returns the built-in defaults applied before any file or
// flag overrides.
func DefaultConfig() *Config {
	return &Config{
		DefaultVersion: "3.12.0",
		UI: UIConfig{
			ColorScheme: "auto",
		},
	}
}
