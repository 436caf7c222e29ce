// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"sync"
)

// Package-level cache so repeated Load calls during one CLI invocation
// parse the config file once.
var (
	globalMu     sync.Mutex
	globalConfig *Config
	configPath   string

	// configFilePathOverride forces loading from a specific file,
	// set via the --config flag.
	configFilePathOverride string

	// configDirOverride allows tests to override the config directory.
	// This is necessary because os.UserHomeDir() doesn't reliably respect
	// the HOME environment variable on all platforms (e.g., macOS in CI).
	configDirOverride string
)

// Load returns the application configuration, loading and caching it on
// first use.
func Load() (*Config, error) {
	globalMu.Lock()
	defer globalMu.Unlock()

	if globalConfig != nil {
		return globalConfig, nil
	}

	cfg, path, err := loadWithOptions(context.Background(), LoadOptions{
		ConfigFilePath: configFilePathOverride,
	})
	if err != nil {
		return nil, err
	}

	globalConfig = cfg
	configPath = path
	return globalConfig, nil
}

// LoadedPath returns the path of the config file the cached configuration
// was loaded from, empty when defaults are in effect.
func LoadedPath() string {
	globalMu.Lock()
	defer globalMu.Unlock()
	return configPath
}

// SetConfigFilePathOverride forces loading from a specific config file and
// clears the cache so the next Load picks it up.
func SetConfigFilePathOverride(path string) {
	globalMu.Lock()
	defer globalMu.Unlock()
	configFilePathOverride = path
	globalConfig = nil
	configPath = ""
}

// SetConfigDirOverride sets a custom config directory path.
// This is primarily intended for testing to bypass os.UserHomeDir() which
// doesn't reliably respect the HOME env var on all platforms.
func SetConfigDirOverride(dir string) {
	globalMu.Lock()
	defer globalMu.Unlock()
	configDirOverride = dir
	globalConfig = nil
	configPath = ""
}

// Reset clears overrides and the cache. Call from test cleanup to restore
// defaults.
func Reset() {
	globalMu.Lock()
	defer globalMu.Unlock()
	configFilePathOverride = ""
	configDirOverride = ""
	globalConfig = nil
	configPath = ""
}
