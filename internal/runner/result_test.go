// SPDX-License-Identifier: MPL-2.0

package runner

import "testing"

func TestResult_Success(t *testing.T) {
	t.Parallel()

	if ok := (&Result{ExitCode: 0}).Success(); !ok {
		t.Error("zero exit Success() = false, want true")
	}
	if ok := (&Result{ExitCode: 1}).Success(); ok {
		t.Error("non-zero exit Success() = true, want false")
	}
	if ok := NewAbortedResult("", "").Success(); ok {
		t.Error("aborted Success() = true, want false")
	}
}

func TestNewAbortedResult(t *testing.T) {
	t.Parallel()

	result := NewAbortedResult("partial out", "partial err")
	if !result.Aborted {
		t.Error("Aborted = false, want true")
	}
	if result.ExitCode != NoExitCode {
		t.Errorf("ExitCode = %d, want NoExitCode", result.ExitCode)
	}
	if result.Stdout != "partial out" || result.Stderr != "partial err" {
		t.Errorf("buffers = (%q, %q), want partial output preserved", result.Stdout, result.Stderr)
	}
}

func TestNewExitCodeResult(t *testing.T) {
	t.Parallel()

	result := NewExitCodeResult(7)
	if result.ExitCode != 7 {
		t.Errorf("ExitCode = %d, want 7", result.ExitCode)
	}
	if result.Aborted {
		t.Error("Aborted = true, want false")
	}
}
