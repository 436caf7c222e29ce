// SPDX-License-Identifier: MPL-2.0

package platform

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
)

// OS name constants for runtime.GOOS comparisons.
// Centralizes the string literals to avoid scattered magic strings.
const (
	Windows = "windows"
	Darwin  = "darwin"
	Linux   = "linux"
)

// Platform class constants. The class determines path layout and the
// bootstrap strategy for the version-management tool.
const (
	// ClassPosix covers Linux, macOS, and the BSDs.
	ClassPosix Class = "posix"
	// ClassWindows covers Windows hosts.
	ClassWindows Class = "windows"
)

// ErrUnsupportedPlatform is the sentinel error wrapped by UnsupportedPlatformError.
var ErrUnsupportedPlatform = errors.New("unsupported platform")

// pyenvRepoURL is the upstream repository cloned during posix bootstrap.
const pyenvRepoURL = "https://github.com/pyenv/pyenv.git"

// pyenvWinInstallScript fetches and runs the official pyenv-win installer.
// Executed via powershell with a bypassed execution policy.
const pyenvWinInstallScript = `Invoke-WebRequest -UseBasicParsing -Uri "https://raw.githubusercontent.com/pyenv-win/pyenv-win/master/pyenv-win/install-pyenv-win.ps1" -OutFile "$env:TEMP\install-pyenv-win.ps1"; & "$env:TEMP\install-pyenv-win.ps1"`

type (
	// Class is the coarse OS family that drives all platform-specific
	// branching: path layout inside virtual environments, the PATH lookup
	// command, and how the version-management tool is bootstrapped.
	Class string

	// UnsupportedPlatformError is returned when the host OS has no defined
	// installation strategy. It wraps ErrUnsupportedPlatform for errors.Is().
	UnsupportedPlatformError struct {
		GOOS string
	}

	// Strategy bundles every platform-dependent decision into a single value
	// selected once at startup, so call sites branch on data instead of
	// repeating runtime.GOOS conditionals.
	Strategy struct {
		Class Class
	}
)

// Error implements the error interface.
func (e *UnsupportedPlatformError) Error() string {
	return fmt.Sprintf("unsupported platform %q: no installation strategy defined", e.GOOS)
}

// Unwrap returns ErrUnsupportedPlatform so callers can use errors.Is.
func (e *UnsupportedPlatformError) Unwrap() error { return ErrUnsupportedPlatform }

// Current selects the strategy for the running host. It fails with an
// UnsupportedPlatformError when the host OS has no defined strategy.
func Current() (Strategy, error) {
	return forGOOS(runtime.GOOS)
}

// forGOOS maps a GOOS value to a strategy. Split from Current for tests.
func forGOOS(goos string) (Strategy, error) {
	switch goos {
	case Windows:
		return Strategy{Class: ClassWindows}, nil
	case Linux, Darwin, "freebsd", "openbsd", "netbsd", "dragonfly", "solaris":
		return Strategy{Class: ClassPosix}, nil
	default:
		return Strategy{}, &UnsupportedPlatformError{GOOS: goos}
	}
}

// Supported reports whether the strategy was produced by Current (as opposed
// to a zero value).
func (s Strategy) Supported() bool {
	return s.Class == ClassPosix || s.Class == ClassWindows
}

// LookupArgv returns the argv that probes PATH for a tool. A zero exit code
// means the tool is present. Posix hosts go through `command -v` (a shell
// builtin, hence the sh -c wrapper); Windows hosts use `where`. The tool
// name is passed as a positional parameter, never spliced into the script,
// so metacharacters in it stay inert.
func (s Strategy) LookupArgv(tool string) []string {
	if s.Class == ClassWindows {
		return []string{"where", tool}
	}
	return []string{"sh", "-c", `command -v -- "$1"`, "sh", tool}
}

// BootstrapArgv returns the argv that installs the version-management tool
// into root. Posix hosts clone the pyenv repository; Windows hosts run the
// pyenv-win install script.
func (s Strategy) BootstrapArgv(root string) []string {
	if s.Class == ClassWindows {
		return []string{"powershell", "-NoProfile", "-ExecutionPolicy", "Bypass", "-Command", pyenvWinInstallScript}
	}
	return []string{"git", "clone", pyenvRepoURL, root}
}

// VenvPython returns the interior interpreter path for a virtual environment
// rooted at dir: Scripts\python.exe on Windows, bin/python elsewhere.
func (s Strategy) VenvPython(dir string) string {
	if s.Class == ClassWindows {
		return filepath.Join(dir, "Scripts", "python.exe")
	}
	return filepath.Join(dir, "bin", "python")
}

// ManagerPath returns the version-management tool executable inside root.
func (s Strategy) ManagerPath(root string) string {
	if s.Class == ClassWindows {
		return filepath.Join(root, "pyenv-win", "bin", "pyenv.bat")
	}
	return filepath.Join(root, "bin", "pyenv")
}

// ShimPython returns the shimmed interpreter inside root, through which the
// currently activated version self-reports its real location.
func (s Strategy) ShimPython(root string) string {
	if s.Class == ClassWindows {
		return filepath.Join(root, "pyenv-win", "shims", "python.bat")
	}
	return filepath.Join(root, "shims", "python")
}

// DefaultManagerRoot returns the conventional install root for the
// version-management tool (~/.pyenv on every platform).
func (s Strategy) DefaultManagerRoot() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, ".pyenv"), nil
}
