package covers_test

import (
	"bytes"
	"context"
	"image"
	"image/jpeg"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"sync/atomic"
	"testing"

	"podbook/internal/covers"
)

func pngImage(t *testing.T, width, height int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode png: %v", err)
	}
	return buf.Bytes()
}

func TestEnsureStoresJPEG(t *testing.T) {
	var hits atomic.Int32
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
		w.Write(pngImage(t, 400, 300))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), covers.FileName)
	fetcher := covers.NewFetcher(server.Client(), "podbook-test")

	if err := fetcher.Ensure(context.Background(), server.URL, dest); err != nil {
		t.Fatalf("Ensure failed: %v", err)
	}

	data, err := os.ReadFile(dest)
	if err != nil {
		t.Fatalf("read cover: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("stored cover is not JPEG: %v", err)
	}
	if img.Bounds().Dx() != 400 || img.Bounds().Dy() != 300 {
		t.Fatalf("unexpected dimensions %v", img.Bounds())
	}

	// Second call should keep the existing file without a request.
	if err := fetcher.Ensure(context.Background(), server.URL, dest); err != nil {
		t.Fatalf("second Ensure failed: %v", err)
	}
	if got := hits.Load(); got != 1 {
		t.Fatalf("expected 1 download, got %d", got)
	}
}

func TestEnsureRejectsNonImage(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("<html>not an image</html>"))
	}))
	defer server.Close()

	dest := filepath.Join(t.TempDir(), covers.FileName)
	fetcher := covers.NewFetcher(server.Client(), "")
	if err := fetcher.Ensure(context.Background(), server.URL, dest); err == nil {
		t.Fatal("expected decode error")
	}
	if _, err := os.Stat(dest); !os.IsNotExist(err) {
		t.Fatal("no cover file should be left behind")
	}
}

func TestEnsureRequiresURL(t *testing.T) {
	fetcher := covers.NewFetcher(nil, "")
	if err := fetcher.Ensure(context.Background(), "", filepath.Join(t.TempDir(), "c.jpg")); err == nil {
		t.Fatal("expected error for empty URL")
	}
}

func TestNormalizeDownscales(t *testing.T) {
	data := pngImage(t, 3200, 1600)
	out, err := covers.Normalize(data)
	if err != nil {
		t.Fatalf("Normalize failed: %v", err)
	}
	img, err := jpeg.Decode(bytes.NewReader(out))
	if err != nil {
		t.Fatalf("output is not JPEG: %v", err)
	}
	if img.Bounds().Dx() != 1600 || img.Bounds().Dy() != 800 {
		t.Fatalf("unexpected scaled dimensions %v", img.Bounds())
	}
}
