package testsupport

import (
	"path/filepath"
	"testing"

	"podbook/internal/queue"
)

// MustOpenStore opens an episode store in a fresh temp directory and closes
// it when the test finishes.
func MustOpenStore(t testing.TB) *queue.Store {
	t.Helper()
	store, err := queue.Open(filepath.Join(t.TempDir(), "podbook.db"))
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(func() {
		_ = store.Close()
	})
	return store
}
