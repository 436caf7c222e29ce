// SPDX-License-Identifier: MPL-2.0

package runner

type (
	// Result is the outcome of one external process run. It is created once
	// per run and never mutated afterwards.
	Result struct {
		// Stdout is the accumulated standard output.
		Stdout string
		// Stderr is the accumulated standard error.
		Stderr string
		// ExitCode is the code the process reported, or NoExitCode when
		// none was observed (cancelled run, killed by signal).
		ExitCode ExitCode
		// Aborted is true iff the run ended due to cancellation rather
		// than natural process exit. When set, ExitCode carries no
		// process-reported meaning.
		Aborted bool
	}
)

// Success returns true if the process exited normally with code zero.
func (r *Result) Success() bool {
	return !r.Aborted && r.ExitCode.IsSuccess()
}

// NewExitCodeResult creates a Result for a process that exited with code.
// Use this for non-zero exits that represent normal process termination.
func NewExitCodeResult(code ExitCode) *Result {
	return &Result{ExitCode: code}
}

// NewAbortedResult creates a Result for a cancelled run carrying the output
// buffered up to the point cancellation was observed.
func NewAbortedResult(stdout, stderr string) *Result {
	return &Result{Stdout: stdout, Stderr: stderr, ExitCode: NoExitCode, Aborted: true}
}
