// SPDX-License-Identifier: MPL-2.0

package issue

import (
	"errors"
	"fmt"
	"strings"
	"testing"
)

func TestActionableError_Error(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		err  *ActionableError
		want string
	}{
		{
			name: "operation only",
			err:  &ActionableError{Operation: "install runtime"},
			want: "failed to install runtime",
		},
		{
			name: "operation and resource",
			err:  &ActionableError{Operation: "install runtime", Resource: "3.10.1"},
			want: "failed to install runtime: 3.10.1",
		},
		{
			name: "operation, resource and cause",
			err: &ActionableError{
				Operation: "create virtual environment",
				Resource:  "/work/env",
				Cause:     errors.New("permission denied"),
			},
			want: "failed to create virtual environment: /work/env: permission denied",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			if got := tt.err.Error(); got != tt.want {
				t.Errorf("Error() = %q, want %q", got, tt.want)
			}
		})
	}
}

func TestActionableError_Unwrap(t *testing.T) {
	t.Parallel()

	cause := errors.New("root cause")
	err := WrapWithOperation(cause, "run script")
	if !errors.Is(err, cause) {
		t.Error("errors.Is should find the wrapped cause")
	}
}

func TestWrapWithOperation_NilError(t *testing.T) {
	t.Parallel()

	if got := WrapWithOperation(nil, "anything"); got != nil {
		t.Errorf("WrapWithOperation(nil) = %v, want nil", got)
	}
}

func TestWrapWithContext(t *testing.T) {
	t.Parallel()

	cause := errors.New("boom")
	err := WrapWithContext(cause, "load configuration", "/etc/pynest/config.cue")
	if err.Operation != "load configuration" || err.Resource != "/etc/pynest/config.cue" {
		t.Errorf("WrapWithContext() = %+v, want operation and resource set", err)
	}
	if got := WrapWithContext(nil, "x", "y"); got != nil {
		t.Errorf("WrapWithContext(nil) = %v, want nil", got)
	}
}

func TestErrorContext_Build(t *testing.T) {
	t.Parallel()

	cause := errors.New("connection refused")
	err := NewErrorContext().
		WithOperation("bootstrap version manager").
		WithResource("https://github.com/pyenv/pyenv.git").
		WithSuggestion("Check your network connection").
		WithSuggestion("Verify git is installed").
		Wrap(cause).
		Build()

	if err == nil {
		t.Fatal("Build() returned nil with operation set")
	}
	if err.Operation != "bootstrap version manager" {
		t.Errorf("Operation = %q", err.Operation)
	}
	if len(err.Suggestions) != 2 {
		t.Errorf("Suggestions = %d, want 2", len(err.Suggestions))
	}
	if !errors.Is(err, cause) {
		t.Error("built error should wrap the cause")
	}
}

func TestErrorContext_BuildWithoutOperation(t *testing.T) {
	t.Parallel()

	if got := NewErrorContext().WithResource("x").Build(); got != nil {
		t.Errorf("Build() without operation = %v, want nil", got)
	}
	if got := NewErrorContext().BuildError(); got != nil {
		t.Errorf("BuildError() without operation = %v, want nil", got)
	}
}

func TestErrorContext_WithSuggestions(t *testing.T) {
	t.Parallel()

	err := NewErrorContext().
		WithOperation("install packages").
		WithSuggestions("Check the package name", "Check network access").
		Build()
	if len(err.Suggestions) != 2 {
		t.Errorf("Suggestions = %d, want 2", len(err.Suggestions))
	}
}

func TestFormat_IncludesSuggestions(t *testing.T) {
	t.Parallel()

	err := NewErrorContext().
		WithOperation("install runtime").
		WithResource("3.99.99").
		WithSuggestion("List available versions with 'pynest install --list'").
		Wrap(errors.New("definition not found")).
		Build()

	out := err.Format(false)
	if !strings.Contains(out, "•") {
		t.Errorf("Format() = %q, want bulleted suggestions", out)
	}
	if strings.Contains(out, "Error chain") {
		t.Error("non-verbose Format() should not include the error chain")
	}
}

func TestFormat_VerboseIncludesChain(t *testing.T) {
	t.Parallel()

	inner := errors.New("inner")
	mid := fmt.Errorf("mid: %w", inner)
	err := NewErrorContext().
		WithOperation("run script").
		Wrap(mid).
		Build()

	out := err.Format(true)
	if !strings.Contains(out, "Error chain:") {
		t.Errorf("verbose Format() = %q, want error chain section", out)
	}
	if !strings.Contains(out, "inner") {
		t.Errorf("verbose Format() = %q, want innermost error listed", out)
	}
}

func TestHasSuggestions(t *testing.T) {
	t.Parallel()

	withSug := NewErrorContext().WithOperation("x").WithSuggestion("s").Build()
	if !withSug.HasSuggestions() {
		t.Error("HasSuggestions() = false, want true")
	}
	without := NewActionableError("x")
	if without.HasSuggestions() {
		t.Error("HasSuggestions() = true, want false")
	}
}
