package config

import (
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/adrg/xdg"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestLoad_MissingFileReturnsDefaults(t *testing.T) {
	cfg := Load(filepath.Join(t.TempDir(), "does-not-exist"), discardLogger())
	if cfg.RulesFile == "" {
		t.Error("RulesFile should default to a non-empty XDG path")
	}
	if cfg.RulesDir == "" {
		t.Error("RulesDir should default to a non-empty XDG path")
	}
	if cfg.StrictContentLookup {
		t.Error("StrictContentLookup should default to false")
	}
}

func TestLoad_ParsesIniSection(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	contents := "[mario]\n" +
		"rules file = /custom/path.plumb\n" +
		"rules dir = /custom/rules.d\n" +
		"strict content lookup = true\n" +
		"notifications = true\n"

	if err := os.WriteFile(path, []byte(contents), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg := Load(path, discardLogger())
	if cfg.RulesFile != "/custom/path.plumb" {
		t.Errorf("RulesFile = %q, want /custom/path.plumb", cfg.RulesFile)
	}
	if cfg.RulesDir != "/custom/rules.d" {
		t.Errorf("RulesDir = %q, want /custom/rules.d", cfg.RulesDir)
	}
	if !cfg.StrictContentLookup {
		t.Error("StrictContentLookup should be true")
	}
	if !cfg.Notifications {
		t.Error("Notifications should be true")
	}
}

func TestLoad_PartialConfigKeepsOtherDefaults(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "config")
	if err := os.WriteFile(path, []byte("[mario]\nstrict content lookup = true\n"), 0o644); err != nil {
		t.Fatalf("WriteFile() error = %v", err)
	}

	cfg := Load(path, discardLogger())
	if !cfg.StrictContentLookup {
		t.Error("StrictContentLookup should be true")
	}
	if cfg.RulesFile != DefaultRulesPath() {
		t.Errorf("RulesFile = %q, want default %q", cfg.RulesFile, DefaultRulesPath())
	}
}

func TestDefaultPaths_AreUnderConfigHome(t *testing.T) {
	if DefaultConfigPath() == "" || DefaultRulesPath() == "" || DefaultRulesDir() == "" {
		t.Error("default paths must not be empty")
	}
	want := filepath.Join(xdg.ConfigHome, appName)
	for _, p := range []string{DefaultConfigPath(), DefaultRulesPath(), DefaultRulesDir()} {
		if filepath.Dir(p) != want {
			t.Errorf("%q is not directly under %q", p, want)
		}
	}
}
