// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"
	"io"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"

	"pynest/internal/platform"
	"pynest/internal/runner"

	"github.com/charmbracelet/log"
)

// managerTool is the PATH name of the version-management tool.
const managerTool = "pyenv"

// pathProbeCode asks the activated interpreter for its own location.
const pathProbeCode = "import sys; print(sys.executable)"

// Installer state machine states. One EnsureInstalled call walks these in
// order; no state survives the call.
type state int

const (
	stateStart state = iota
	stateProbeManager
	stateInstallManager
	stateResolveExisting
	stateInstallVersion
	stateActivateVersion
	stateLocatePath
)

type (
	// CommandRunner is the slice of the process runner the installer needs.
	CommandRunner interface {
		Run(ctx context.Context, spec runner.Spec) (*runner.Result, error)
	}

	// ToolProber reports whether a tool is reachable on PATH.
	ToolProber interface {
		Exists(ctx context.Context, tool string) bool
	}

	// Installer orchestrates installation of the version-management tool
	// and of requested runtime versions. It is stateless across calls;
	// callers hold the returned Resolution.
	Installer struct {
		run      CommandRunner
		probe    ToolProber
		strategy platform.Strategy
		root     string
		logger   *log.Logger

		// Stdout/Stderr receive streamed installer progress.
		// Defaults to the process streams.
		Stdout io.Writer
		Stderr io.Writer
	}

	// Resolution is the successful outcome of one EnsureInstalled call.
	Resolution struct {
		// Path is the resolved interpreter executable.
		Path string
		// Version is the version string the resolution satisfies.
		Version string
		// Reused is true when an existing installation was found and no
		// installation side effect was performed.
		Reused bool
	}
)

// New creates an Installer rooted at the version-management tool's install
// directory (conventionally ~/.pyenv).
func New(run CommandRunner, probe ToolProber, strategy platform.Strategy, root string) *Installer {
	return &Installer{
		run:      run,
		probe:    probe,
		strategy: strategy,
		root:     root,
		logger:   log.NewWithOptions(os.Stderr, log.Options{Prefix: "toolchain"}),
	}
}

// EnsureInstalled resolves or installs the requested runtime version and
// returns the interpreter path. venvHint, when non-empty, is an explicit
// caller assertion of an existing virtual environment to reuse.
//
// Calling it twice with the same version performs no installation side
// effects the second time.
func (i *Installer) EnsureInstalled(ctx context.Context, version, venvHint string) (*Resolution, error) {
	st := stateStart
	for {
		switch st {
		case stateStart:
			if !i.strategy.Supported() {
				return nil, &platform.UnsupportedPlatformError{GOOS: goruntime.GOOS}
			}
			st = stateProbeManager

		case stateProbeManager:
			if i.managerPresent(ctx) {
				st = stateResolveExisting
			} else {
				st = stateInstallManager
			}

		case stateInstallManager:
			// The runtime cannot be resolved without the management
			// tool, so a bootstrap failure is fatal.
			if err := i.bootstrapManager(ctx); err != nil {
				return nil, err
			}
			st = stateResolveExisting

		case stateResolveExisting:
			path, ok, err := i.ResolveExisting(ctx, version, venvHint)
			if err != nil {
				return nil, err
			}
			if ok {
				i.logger.Debug("reusing existing interpreter", "version", version, "path", path)
				return &Resolution{Path: path, Version: version, Reused: true}, nil
			}
			st = stateInstallVersion

		case stateInstallVersion:
			i.logger.Info("installing runtime version", "version", version)
			// -s skips versions that are already present instead of
			// prompting; a build that exists but is not the active local
			// version reaches this step.
			if err := i.managerStep(ctx, "install", "install", "-s", version); err != nil {
				return nil, err
			}
			st = stateActivateVersion

		case stateActivateVersion:
			if err := i.managerStep(ctx, "activate", "local", version); err != nil {
				return nil, err
			}
			st = stateLocatePath

		case stateLocatePath:
			path, err := i.locatePath(ctx)
			if err != nil {
				return nil, err
			}
			i.logger.Info("runtime installed", "version", version, "path", path)
			return &Resolution{Path: path, Version: version}, nil
		}
	}
}

// Uninstall removes an installed runtime version through the management tool.
func (i *Installer) Uninstall(ctx context.Context, version string) error {
	return i.managerStep(ctx, "uninstall", "uninstall", "-f", version)
}

// Versions lists the runtime versions the management tool has installed.
func (i *Installer) Versions(ctx context.Context) ([]string, error) {
	argv := append(i.managerArgv(), "versions", "--bare")
	result, err := i.run.Run(ctx, runner.Spec{Path: argv[0], Args: argv[1:], Env: i.env()})
	if err != nil {
		return nil, &InstallStepError{Step: "versions", Argv: argv, Err: err}
	}
	if !result.ExitCode.IsSuccess() {
		return nil, &InstallStepError{Step: "versions", Argv: argv, ExitCode: int(result.ExitCode), Stderr: result.Stderr}
	}
	var versions []string
	for _, line := range strings.Split(result.Stdout, "\n") {
		if v := strings.TrimSpace(line); v != "" {
			versions = append(versions, v)
		}
	}
	return versions, nil
}

// managerPresent reports whether the management tool is usable, either on
// PATH or already bootstrapped under the install root.
func (i *Installer) managerPresent(ctx context.Context) bool {
	if fileExists(i.strategy.ManagerPath(i.root)) {
		return true
	}
	return i.probe.Exists(ctx, managerTool)
}

// bootstrapManager installs the version-management tool itself. Progress is
// streamed so the user sees what the bootstrap is doing.
func (i *Installer) bootstrapManager(ctx context.Context) error {
	argv := i.strategy.BootstrapArgv(i.root)
	i.logger.Info("bootstrapping version manager", "root", i.root)
	result, err := i.run.Run(ctx, runner.Spec{
		Path:   argv[0],
		Args:   argv[1:],
		Stream: true,
		Stdout: i.Stdout,
		Stderr: i.Stderr,
	})
	if err != nil {
		return &InstallStepError{Step: "bootstrap", Argv: argv, Err: err}
	}
	if !result.ExitCode.IsSuccess() {
		return &InstallStepError{Step: "bootstrap", Argv: argv, ExitCode: int(result.ExitCode), Stderr: result.Stderr}
	}
	return nil
}

// managerStep runs one management-tool subcommand with streamed progress.
func (i *Installer) managerStep(ctx context.Context, step string, args ...string) error {
	argv := append(i.managerArgv(), args...)
	result, err := i.run.Run(ctx, runner.Spec{
		Path:   argv[0],
		Args:   argv[1:],
		Env:    i.env(),
		Stream: true,
		Stdout: i.Stdout,
		Stderr: i.Stderr,
	})
	if err != nil {
		return &InstallStepError{Step: step, Argv: argv, Err: err}
	}
	if !result.ExitCode.IsSuccess() {
		return &InstallStepError{Step: step, Argv: argv, ExitCode: int(result.ExitCode), Stderr: result.Stderr}
	}
	return nil
}

// locatePath asks the now-active interpreter to self-report its executable
// location and verifies the report against the filesystem. A successful
// report naming a missing path is a fatal inconsistency, not retried.
func (i *Installer) locatePath(ctx context.Context) (string, error) {
	python := i.shimPython()
	argv := []string{python, "-c", pathProbeCode}
	result, err := i.run.Run(ctx, runner.Spec{Path: argv[0], Args: argv[1:], Env: i.env()})
	if err != nil {
		return "", &InstallStepError{Step: "locate", Argv: argv, Err: err}
	}
	if !result.ExitCode.IsSuccess() {
		return "", &InstallStepError{Step: "locate", Argv: argv, ExitCode: int(result.ExitCode), Stderr: result.Stderr}
	}
	path := strings.TrimSpace(result.Stdout)
	if path == "" || !fileExists(path) {
		return "", &InconsistentStateError{Path: path}
	}
	return path, nil
}

// managerArgv returns the invocation prefix for the management tool,
// preferring the bootstrapped copy under the install root over PATH.
func (i *Installer) managerArgv() []string {
	if p := i.strategy.ManagerPath(i.root); fileExists(p) {
		return []string{p}
	}
	return []string{managerTool}
}

// shimPython returns the shimmed interpreter entry point, falling back to
// the conventional PATH name when the root has no shims yet.
func (i *Installer) shimPython() string {
	if p := i.strategy.ShimPython(i.root); fileExists(p) {
		return p
	}
	if i.strategy.Class == platform.ClassWindows {
		return "python"
	}
	return "python3"
}

// env returns the environment additions every management-tool and probe
// invocation needs: the manager root plus its bin and shim dirs on PATH.
func (i *Installer) env() []string {
	shims := filepath.Dir(i.strategy.ShimPython(i.root))
	bin := filepath.Dir(i.strategy.ManagerPath(i.root))
	sep := string(os.PathListSeparator)
	return []string{
		"PYENV_ROOT=" + i.root,
		"PATH=" + bin + sep + shims + sep + os.Getenv("PATH"),
	}
}

// fileExists checks if a filesystem entry exists at path.
func fileExists(path string) bool {
	_, err := os.Stat(path)
	return err == nil
}
