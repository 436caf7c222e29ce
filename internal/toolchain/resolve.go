// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"context"
	"strings"

	"pynest/internal/runner"
)

// ResolveExisting determines whether a matching interpreter already exists,
// without installing anything. The boolean return is false when no usable
// installation was found, the normal "needs installation" signal, not an
// error.
//
// Resolution order, first match wins:
//
//  1. A virtual-environment hint naming an existing directory is an explicit
//     caller assertion: its interior interpreter is returned without
//     re-validating the version string. A hint directory that exists but
//     lacks the expected layout resolves to absent; it does NOT fall
//     through to tool-based resolution.
//  2. Otherwise the management tool is queried for the configured local
//     version; when it matches the request, the interpreter self-reports
//     its path via the locate step.
func (i *Installer) ResolveExisting(ctx context.Context, version, venvHint string) (string, bool, error) {
	if venvHint != "" && fileExists(venvHint) {
		interior := i.strategy.VenvPython(venvHint)
		if fileExists(interior) {
			return interior, true, nil
		}
		// Explicit hint without the expected layout: not usable.
		i.logger.Debug("venv hint lacks interior interpreter", "hint", venvHint, "expected", interior)
		return "", false, nil
	}

	argv := append(i.managerArgv(), "local")
	result, err := i.run.Run(ctx, runner.Spec{Path: argv[0], Args: argv[1:], Env: i.env()})
	if err != nil || !result.ExitCode.IsSuccess() {
		// No configured local version: needs installation.
		return "", false, nil
	}
	if strings.TrimSpace(result.Stdout) != version {
		// A different version is active; the requested one still needs
		// to be installed and activated.
		return "", false, nil
	}

	path, err := i.locatePath(ctx)
	if err != nil {
		return "", false, err
	}
	return path, true, nil
}
