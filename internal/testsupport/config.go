package testsupport

import (
	"path/filepath"
	"testing"

	"podbook/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*config.Config)

// NewConfig produces a config seeded with unique temp directories per test.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfg := config.Default()
	cfg.Paths.LibraryDir = filepath.Join(base, "library")
	cfg.Paths.LogDir = filepath.Join(base, "logs")
	cfg.Fetch.MaxAttempts = 2
	cfg.Fetch.RetryBaseSeconds = 1
	cfg.Fetch.RetryMaxSeconds = 1
	cfg.Fetch.TimeoutSeconds = 10

	for _, opt := range opts {
		opt(&cfg)
	}
	return &cfg
}
