// SPDX-License-Identifier: MPL-2.0

// Package platform selects the host platform strategy.
//
// All Windows-vs-posix branching in the toolchain and virtual-environment
// code is collapsed into a single Strategy value chosen once at startup.
// The strategy exposes the PATH lookup command, the bootstrap argv for the
// version-management tool, and the interior executable layout of virtual
// environments.
package platform
