// SPDX-License-Identifier: Apache-2.0
// Copyright 2026 Sheetshelf Contributors

package xdg

import (
	"os"
	"path/filepath"
	"testing"
)

func TestConfigDir_EnvVar(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	want := "/custom/config/sheetshelf"
	if got := ConfigDir(); got != want {
		t.Errorf("ConfigDir() = %q, want %q", got, want)
	}
}

func TestConfigDir_Default(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "")
	t.Setenv("HOME", "/home/testuser")
	want := "/home/testuser/.config/sheetshelf"
	if got := ConfigDir(); got != want {
		t.Errorf("ConfigDir() = %q, want %q", got, want)
	}
}

func TestConfigFile(t *testing.T) {
	t.Setenv("XDG_CONFIG_HOME", "/custom/config")
	want := "/custom/config/sheetshelf/config.yaml"
	if got := ConfigFile(); got != want {
		t.Errorf("ConfigFile() = %q, want %q", got, want)
	}
}

func TestExistingConfigFile(t *testing.T) {
	base := t.TempDir()
	t.Setenv("XDG_CONFIG_HOME", base)

	if got := ExistingConfigFile(); got != "" {
		t.Fatalf("ExistingConfigFile() = %q before the file exists", got)
	}

	dir := filepath.Join(base, "sheetshelf")
	if err := os.MkdirAll(filepath.Join(dir, "config.yaml"), 0o700); err != nil {
		t.Fatal(err)
	}
	if got := ExistingConfigFile(); got != "" {
		t.Fatalf("ExistingConfigFile() = %q for a directory", got)
	}

	if err := os.Remove(filepath.Join(dir, "config.yaml")); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(dir, "config.yaml"), []byte("http:\n  addr: \":1\"\n"), 0o600); err != nil {
		t.Fatal(err)
	}
	if got, want := ExistingConfigFile(), filepath.Join(dir, "config.yaml"); got != want {
		t.Errorf("ExistingConfigFile() = %q, want %q", got, want)
	}
}
