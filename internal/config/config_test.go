// SPDX-License-Identifier: MPL-2.0

package config

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func writeConfig(t *testing.T, dir, content string) string {
	t.Helper()
	path := filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("failed to write config file: %v", err)
	}
	return path
}

func TestLoad_DefaultsWithoutFile(t *testing.T) {
	t.Parallel()

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: t.TempDir()})
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	want := DefaultConfig()
	if cfg.DefaultVersion != want.DefaultVersion {
		t.Errorf("DefaultVersion = %q, want %q", cfg.DefaultVersion, want.DefaultVersion)
	}
	if cfg.UI.ColorScheme != "auto" {
		t.Errorf("UI.ColorScheme = %q, want auto", cfg.UI.ColorScheme)
	}
}

func TestLoad_FileOverridesDefaults(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, `
default_version: "3.10.1"
venv_dir: "/work/env"

ui: {
	verbose: true
}
`)

	cfg, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if cfg.DefaultVersion != "3.10.1" {
		t.Errorf("DefaultVersion = %q, want 3.10.1", cfg.DefaultVersion)
	}
	if cfg.VenvDir != "/work/env" {
		t.Errorf("VenvDir = %q, want /work/env", cfg.VenvDir)
	}
	if !cfg.UI.Verbose {
		t.Error("UI.Verbose = false, want true")
	}
	// Fields the file does not set keep their defaults.
	if cfg.UI.ColorScheme != "auto" {
		t.Errorf("UI.ColorScheme = %q, want default auto", cfg.UI.ColorScheme)
	}
}

func TestLoad_SchemaViolationNamesField(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeConfig(t, dir, `default_version: "not-a-version"`+"\n")

	_, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err == nil {
		t.Fatal("Load() expected schema error, got nil")
	}
	if !strings.Contains(err.Error(), "default_version") {
		t.Errorf("error = %q, want field path in message", err)
	}
}

func TestLoad_ExplicitMissingFileIsError(t *testing.T) {
	t.Parallel()

	_, err := NewProvider().Load(context.Background(), LoadOptions{
		ConfigFilePath: filepath.Join(t.TempDir(), "nope.cue"),
	})
	if err == nil {
		t.Fatal("Load() expected error for missing explicit file, got nil")
	}
}

func TestLoad_CanceledContext(t *testing.T) {
	t.Parallel()

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := NewProvider().Load(ctx, LoadOptions{ConfigDirPath: t.TempDir()}); err == nil {
		t.Fatal("Load() expected cancellation error, got nil")
	}
}

func TestSave_RejectsSchemaViolation(t *testing.T) {
	dir := t.TempDir()
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	err := Save(&Config{DefaultVersion: "not-a-version", UI: UIConfig{ColorScheme: "auto"}})
	if err == nil {
		t.Fatal("Save() expected schema error, got nil")
	}
	if fileExists(filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)) {
		t.Error("Save() wrote a file despite the validation failure")
	}
}

func TestSave_CreatesConfigDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "nested", AppName)
	SetConfigDirOverride(dir)
	t.Cleanup(Reset)

	if err := Save(DefaultConfig()); err != nil {
		t.Fatalf("Save() unexpected error: %v", err)
	}
	if !fileExists(filepath.Join(dir, ConfigFileName+"."+ConfigFileExt)) {
		t.Fatal("Save() did not write the config file")
	}
}

func TestGenerateCUE_RoundTrips(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	cfg := &Config{
		DefaultVersion: "3.11.4",
		ManagerRoot:    "/opt/manager",
		VenvDir:        "/work/env",
		UI:             UIConfig{ColorScheme: "dark", Verbose: true},
	}
	writeConfig(t, dir, GenerateCUE(cfg))

	got, err := NewProvider().Load(context.Background(), LoadOptions{ConfigDirPath: dir})
	if err != nil {
		t.Fatalf("Load() unexpected error: %v", err)
	}
	if *got != *cfg {
		t.Errorf("round-trip = %+v, want %+v", got, cfg)
	}
}
