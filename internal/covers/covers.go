package covers

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // GIF decoder registration
	"image/jpeg"
	_ "image/png" // PNG decoder registration
	"io"
	"net/http"

	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // WebP decoder registration

	"podbook/internal/fileutil"
)

// FileName is the cover image name inside a podcast directory.
const FileName = "cover.jpg"

const (
	// maxDimension caps either side of the stored cover. E-readers render
	// covers at far lower resolutions than feeds commonly publish.
	maxDimension = 1600
	jpegQuality  = 90
)

// Fetcher downloads podcast cover art and stores it as a normalized JPEG.
type Fetcher struct {
	client    *http.Client
	userAgent string
}

// NewFetcher creates a cover fetcher. A nil client uses http.DefaultClient.
func NewFetcher(client *http.Client, userAgent string) *Fetcher {
	if client == nil {
		client = http.DefaultClient
	}
	return &Fetcher{client: client, userAgent: userAgent}
}

// Ensure makes destPath hold the podcast cover. An existing file is kept
// as-is so reruns never re-download. The image is re-encoded as JPEG and
// downscaled when it exceeds the stored maximum dimension.
func (f *Fetcher) Ensure(ctx context.Context, coverURL, destPath string) error {
	if coverURL == "" {
		return fmt.Errorf("cover: no URL provided")
	}
	if fileutil.Exists(destPath) {
		return nil
	}

	data, err := f.download(ctx, coverURL)
	if err != nil {
		return fmt.Errorf("cover: download %s: %w", coverURL, err)
	}

	normalized, err := Normalize(data)
	if err != nil {
		return fmt.Errorf("cover: decode %s: %w", coverURL, err)
	}

	err = fileutil.WriteAtomic(destPath, func(w io.Writer) error {
		_, werr := w.Write(normalized)
		return werr
	})
	if err != nil {
		return fmt.Errorf("cover: store %s: %w", destPath, err)
	}
	return nil
}

func (f *Fetcher) download(ctx context.Context, rawURL string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, err
	}
	if f.userAgent != "" {
		req.Header.Set("User-Agent", f.userAgent)
	}

	resp, err := f.client.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("unexpected status %d", resp.StatusCode)
	}
	return io.ReadAll(resp.Body)
}

// Normalize decodes an image (JPEG, PNG, GIF, or WebP) and re-encodes it
// as JPEG, downscaling so neither side exceeds the stored maximum while
// preserving aspect ratio.
func Normalize(data []byte) ([]byte, error) {
	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, err
	}

	bounds := img.Bounds()
	width := bounds.Dx()
	height := bounds.Dy()

	if width > maxDimension || height > maxDimension {
		ratio := float64(width) / float64(height)
		if ratio >= 1 {
			width = maxDimension
			height = int(float64(maxDimension) / ratio)
		} else {
			height = maxDimension
			width = int(float64(maxDimension) * ratio)
		}
		dst := image.NewRGBA(image.Rect(0, 0, width, height))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
