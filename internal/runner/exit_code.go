// SPDX-License-Identifier: MPL-2.0

package runner

import (
	"errors"
	"fmt"
	"strconv"
)

// ErrInvalidExitCode is the sentinel error wrapped by InvalidExitCodeError.
var ErrInvalidExitCode = errors.New("invalid exit code")

// NoExitCode is the sentinel recorded when no exit code was observed, e.g.
// when the run was cancelled before the process exited or the process was
// killed by a signal.
const NoExitCode ExitCode = -1

type (
	// ExitCode represents a process exit status code.
	// Process-reported codes are in the range 0-255 on POSIX systems;
	// NoExitCode (-1) marks the absence of a reported code.
	ExitCode int

	// InvalidExitCodeError is returned when an ExitCode is outside the
	// valid process-reported range (0-255).
	InvalidExitCodeError struct {
		Value ExitCode
	}
)

// Error implements the error interface.
func (e *InvalidExitCodeError) Error() string {
	return fmt.Sprintf("invalid exit code %d (must be in range 0-255)", e.Value)
}

// Unwrap returns ErrInvalidExitCode so callers can use errors.Is for programmatic detection.
func (e *InvalidExitCodeError) Unwrap() error { return ErrInvalidExitCode }

// IsValid returns whether the ExitCode is a process-reported code (0-255),
// and a list of validation errors if it is not.
func (c ExitCode) IsValid() (bool, []error) {
	if c < 0 || c > 255 {
		return false, []error{&InvalidExitCodeError{Value: c}}
	}
	return true, nil
}

// IsSuccess returns true if the exit code indicates successful execution.
func (c ExitCode) IsSuccess() bool { return c == 0 }

// Observed returns true if a process actually reported this code, i.e. the
// value is not the NoExitCode sentinel.
func (c ExitCode) Observed() bool { return c != NoExitCode }

// String returns the decimal string representation of the ExitCode.
func (c ExitCode) String() string { return strconv.Itoa(int(c)) }
