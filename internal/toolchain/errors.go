// SPDX-License-Identifier: MPL-2.0

package toolchain

import (
	"errors"
	"fmt"
	"strings"
)

var (
	// ErrInstallStepFailed is the sentinel error wrapped by InstallStepError.
	ErrInstallStepFailed = errors.New("install step failed")
	// ErrInconsistentState is the sentinel error wrapped by InconsistentStateError.
	ErrInconsistentState = errors.New("inconsistent toolchain state")
)

type (
	// InstallStepError is returned when an installer step ran but exited
	// non-zero, or could not be launched. For installer steps a non-zero
	// exit is a failure, unlike workload execution.
	InstallStepError struct {
		// Step names the failed state machine step ("bootstrap",
		// "install", "activate", "locate", "uninstall").
		Step string
		// Argv is the invocation that failed.
		Argv []string
		// ExitCode is the observed exit code (NoExitCode when the
		// process never reported one).
		ExitCode int
		// Stderr carries the captured error output, when any.
		Stderr string
		// Err is the underlying launch error, when the process could
		// not be started at all.
		Err error
	}

	// InconsistentStateError is returned when an install step reported
	// success but the artifact it promised does not exist on disk. This
	// means a collaborator lied about success; it is never silently
	// retried.
	InconsistentStateError struct {
		// Path is the executable location that was reported but is
		// missing.
		Path string
	}
)

// Error implements the error interface.
func (e *InstallStepError) Error() string {
	var msg strings.Builder
	fmt.Fprintf(&msg, "toolchain %s step failed", e.Step)
	if len(e.Argv) > 0 {
		fmt.Fprintf(&msg, " (%s)", strings.Join(e.Argv, " "))
	}
	if e.Err != nil {
		fmt.Fprintf(&msg, ": %v", e.Err)
	} else {
		fmt.Fprintf(&msg, ": exit code %d", e.ExitCode)
	}
	if e.Stderr != "" {
		fmt.Fprintf(&msg, ": %s", strings.TrimSpace(e.Stderr))
	}
	return msg.String()
}

// Unwrap returns ErrInstallStepFailed (or the launch error chain when present)
// so callers can use errors.Is.
func (e *InstallStepError) Unwrap() []error {
	if e.Err != nil {
		return []error{ErrInstallStepFailed, e.Err}
	}
	return []error{ErrInstallStepFailed}
}

// Error implements the error interface.
func (e *InconsistentStateError) Error() string {
	return fmt.Sprintf("interpreter reported at %q but the path does not exist", e.Path)
}

// Unwrap returns ErrInconsistentState so callers can use errors.Is.
func (e *InconsistentStateError) Unwrap() error { return ErrInconsistentState }
