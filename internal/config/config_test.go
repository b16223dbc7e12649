package config_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podbook/internal/config"
)

func TestDefaultValidatesAfterNormalize(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "missing.toml")

	cfg, resolved, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if exists {
		t.Fatal("expected missing config file")
	}
	if resolved != path {
		t.Fatalf("expected resolved path %q, got %q", path, resolved)
	}
	if cfg.Fetch.MaxAttempts != 5 {
		t.Fatalf("expected default max attempts, got %d", cfg.Fetch.MaxAttempts)
	}
	if cfg.Whisper.Model != "base" {
		t.Fatalf("expected default whisper model, got %q", cfg.Whisper.Model)
	}
	if !filepath.IsAbs(cfg.Paths.LibraryDir) {
		t.Fatalf("expected expanded library dir, got %q", cfg.Paths.LibraryDir)
	}
}

func TestLoadParsesOverrides(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "podbook.toml")
	content := `
[paths]
library_dir = "` + filepath.Join(dir, "books") + `"
log_dir = "` + filepath.Join(dir, "logs") + `"

[fetch]
max_attempts = 2
retry_base_seconds = 3
retry_max_seconds = 9

[whisper]
model = "large-v3"
cuda_enabled = true

[logging]
format = "json"
level = "debug"
`
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}

	cfg, _, exists, err := config.Load(path)
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if !exists {
		t.Fatal("expected config file to be found")
	}
	if cfg.Fetch.MaxAttempts != 2 || cfg.Fetch.RetryBaseSeconds != 3 {
		t.Fatalf("fetch overrides not applied: %+v", cfg.Fetch)
	}
	if cfg.Whisper.Model != "large-v3" || !cfg.Whisper.CUDAEnabled {
		t.Fatalf("whisper overrides not applied: %+v", cfg.Whisper)
	}
	if cfg.Logging.Format != "json" || cfg.Logging.Level != "debug" {
		t.Fatalf("logging overrides not applied: %+v", cfg.Logging)
	}
}

func TestLoadRejectsBadLogging(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "podbook.toml")
	if err := os.WriteFile(path, []byte("[logging]\nformat = \"yaml\"\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for bad log format")
	}
}

func TestLoadRejectsInvertedRetryBounds(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "podbook.toml")
	if err := os.WriteFile(path, []byte("[fetch]\nretry_base_seconds = 10\nretry_max_seconds = 2\n"), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	if _, _, _, err := config.Load(path); err == nil {
		t.Fatal("expected validation error for inverted retry bounds")
	}
}

func TestSampleConfigParses(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "podbook.toml")
	if err := os.WriteFile(path, []byte(config.SampleConfig()), 0o644); err != nil {
		t.Fatalf("write sample: %v", err)
	}
	if _, _, _, err := config.Load(path); err != nil {
		t.Fatalf("sample config should load cleanly: %v", err)
	}
	if !strings.Contains(config.SampleConfig(), "[whisper]") {
		t.Fatal("sample config should document the whisper section")
	}
}
