// SPDX-License-Identifier: MPL-2.0

package cueutil

import (
	"errors"
	"strings"
	"testing"
)

const testSchema = `
#Runtime: {
	version?: string
	venv?: {
		dir?: string
	}
}
`

type testRuntime struct {
	Version string `json:"version"`
	Venv    struct {
		Dir string `json:"dir"`
	} `json:"venv"`
}

func TestParseAndDecode_ValidInput(t *testing.T) {
	t.Parallel()

	data := []byte(`version: "3.10.1"` + "\nvenv: dir: \"/work/env\"\n")
	got, err := ParseAndDecode[testRuntime]([]byte(testSchema), data, "#Runtime", "runtime.cue")
	if err != nil {
		t.Fatalf("ParseAndDecode() unexpected error: %v", err)
	}
	if got.Version != "3.10.1" || got.Venv.Dir != "/work/env" {
		t.Errorf("decoded = %+v, want version and venv dir", got)
	}
}

func TestParseAndDecode_TypeMismatchNamesPath(t *testing.T) {
	t.Parallel()

	data := []byte("version: 310\n")
	_, err := ParseAndDecode[testRuntime]([]byte(testSchema), data, "#Runtime", "runtime.cue")
	if err == nil {
		t.Fatal("ParseAndDecode() expected validation error, got nil")
	}
	if !strings.Contains(err.Error(), "runtime.cue") || !strings.Contains(err.Error(), "version") {
		t.Errorf("error = %q, want file and field path in message", err)
	}
}

func TestParseAndDecode_OptionalFieldsMayBeAbsent(t *testing.T) {
	t.Parallel()

	got, err := ParseAndDecode[testRuntime]([]byte(testSchema), []byte("version: \"3.12.0\"\n"), "#Runtime", "")
	if err != nil {
		t.Fatalf("ParseAndDecode() unexpected error: %v", err)
	}
	if got.Venv.Dir != "" {
		t.Errorf("Venv.Dir = %q, want empty for absent optional field", got.Venv.Dir)
	}
}

func TestCheckFileSize_Exceeded(t *testing.T) {
	t.Parallel()

	err := CheckFileSize(make([]byte, 100), 10, "big.cue")
	if err == nil {
		t.Fatal("CheckFileSize() expected error, got nil")
	}
	if !strings.Contains(err.Error(), "big.cue") {
		t.Errorf("error = %q, want filename in message", err)
	}
}

func TestFormatError_NilPassesThrough(t *testing.T) {
	t.Parallel()

	if err := FormatError(nil, "x.cue"); err != nil {
		t.Errorf("FormatError(nil) = %v, want nil", err)
	}
}

func TestFormatError_NonCUEErrorWraps(t *testing.T) {
	t.Parallel()

	base := errors.New("boom")
	err := FormatError(base, "x.cue")
	if err == nil || !strings.Contains(err.Error(), "x.cue") {
		t.Errorf("FormatError() = %v, want wrapped with filename", err)
	}
}
