package logging_test

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"podbook/internal/logging"
)

func TestNewWritesToFile(t *testing.T) {
	dir := t.TempDir()
	logPath := filepath.Join(dir, "logs", "podbook.log")

	logger, err := logging.New(logging.Options{
		Level:       "info",
		Format:      "json",
		OutputPaths: []string{logPath},
	})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}

	logger.Info("pipeline started", logging.String("feed", "https://example.com/rss"))

	data, err := os.ReadFile(logPath)
	if err != nil {
		t.Fatalf("read log file: %v", err)
	}
	if !strings.Contains(string(data), "pipeline started") {
		t.Fatalf("expected log record in file, got %q", string(data))
	}
	if !strings.Contains(string(data), "https://example.com/rss") {
		t.Fatalf("expected feed attribute in record, got %q", string(data))
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := logging.New(logging.Options{Format: "yaml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNewDefaultsLevel(t *testing.T) {
	logger, err := logging.New(logging.Options{Level: "nonsense", Format: "console", OutputPaths: []string{"stdout"}})
	if err != nil {
		t.Fatalf("New failed: %v", err)
	}
	if logger == nil {
		t.Fatal("expected logger")
	}
}

func TestNewNopDiscards(t *testing.T) {
	logger := logging.NewNop()
	logger.Error("should vanish", logging.Error(nil))
}
