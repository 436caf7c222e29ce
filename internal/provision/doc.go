// SPDX-License-Identifier: MPL-2.0

// Package provision composes the toolchain installer, virtual-environment
// wrapper and package manager behind one facade. Every operation that can
// change which interpreter is active returns a fresh Session record; the
// caller threads the record through subsequent calls instead of the facade
// keeping hidden mutable state.
package provision
