// SPDX-License-Identifier: MPL-2.0

// Package runner executes external processes for pynest.
//
// A single Run call spawns one process with captured output channels, drains
// them concurrently into per-channel buffers (optionally teeing each chunk to
// the caller's own writers), and resolves with a Result once either the
// process exits or the caller's context is cancelled.
//
// A non-zero exit code is not an error: it is reported in the Result. Run
// returns an error only when the process could not be launched at all.
//
// Cancellation is cooperative and best-effort. When the context is cancelled
// before natural exit, Run sends a kill to the child as a side effect and
// returns immediately with Aborted set and whatever output was buffered so
// far; it does not wait for the OS to confirm termination. Exit and
// cancellation race in a select: whichever is observed first wins, and the
// outcome of a near-simultaneous race is deliberately left to the scheduler.
package runner
