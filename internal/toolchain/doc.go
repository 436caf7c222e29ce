// SPDX-License-Identifier: MPL-2.0

// Package toolchain installs and resolves managed Python interpreters.
//
// The Installer drives a small state machine per EnsureInstalled call:
//
//	Start → ProbeManager → {InstallManager} → ResolveExisting →
//	  {Found(path) | InstallVersion → ActivateVersion → LocatePath → Installed(path)}
//
// ResolveExisting is always attempted before any installation side effect,
// so a usable existing installation is never reinstalled. The
// version-management tool (pyenv / pyenv-win) is itself bootstrapped when
// absent: a repository clone on posix hosts, an install script on Windows.
//
// Failures at any step abort the whole call; partial success is never
// returned.
package toolchain
