package pubtree

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif"
	"image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp"
)

const (
	jpegQuality    = 82
	maxImageBytes  = 10 << 20 // 10MB
	// maxImagePixels caps width*height, checked before the full decode.
	maxImagePixels = 40_000_000
	uploadsSubdir  = "uploads"
)

// processImage decodes a GIF, PNG, JPEG or WebP image, scales it down to
// maxWidth when wider, and encodes it as JPEG. Returns metadata and the
// encoded bytes.
func processImage(data []byte, originalName string, maxWidth int) (Media, []byte, error) {
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return Media{}, nil, fmt.Errorf("decode image: %w", err)
	}
	if int64(cfg.Width)*int64(cfg.Height) > maxImagePixels {
		return Media{}, nil, fmt.Errorf("decode image: %dx%d exceeds %s pixels",
			cfg.Width, cfg.Height, humanize.Comma(maxImagePixels))
	}

	img, _, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return Media{}, nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w == 0 || h == 0 {
		return Media{}, nil, fmt.Errorf("decode image: empty bounds %dx%d", w, h)
	}

	if w > maxWidth {
		newH := h * maxWidth / w
		if newH < 1 {
			newH = 1
		}
		dst := image.NewRGBA(image.Rect(0, 0, maxWidth, newH))
		draw.CatmullRom.Scale(dst, dst.Bounds(), img, bounds, draw.Over, nil)
		img = dst
		w = maxWidth
		h = newH
	}

	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: jpegQuality}); err != nil {
		return Media{}, nil, fmt.Errorf("encode jpeg: %w", err)
	}

	return Media{
		Filename: slugifyFilename(originalName) + ".jpg",
		Width:    w,
		Height:   h,
		Size:     buf.Len(),
		MIME:     "image/jpeg",
	}, buf.Bytes(), nil
}

// slugifyFilename converts a filename (without extension) to a URL-safe slug.
func slugifyFilename(name string) string {
	ext := filepath.Ext(name)
	if s := Slugify(strings.TrimSuffix(name, ext)); s != "" {
		return s
	}
	return "image"
}

// ensureUniqueFilename appends a counter if filename already exists in the directory or database.
func (a *App) ensureUniqueFilename(m *Media) error {
	dir := filepath.Join(a.Config.StaticDir, uploadsSubdir)
	base := strings.TrimSuffix(m.Filename, ".jpg")
	candidate := m.Filename
	for counter := 2; ; counter++ {
		_, statErr := os.Stat(filepath.Join(dir, candidate))
		taken, err := a.Store.MediaFilenameTaken(candidate)
		if err != nil {
			return err
		}
		if statErr != nil && !taken {
			break
		}
		candidate = fmt.Sprintf("%s-%d.jpg", base, counter)
	}
	m.Filename = candidate
	return nil
}

// fetchHeroImage downloads rawURL, stores a resized JPEG copy under
// <static>/uploads and records it in the media table.
func (a *App) fetchHeroImage(ctx context.Context, rawURL, alt string) (Media, error) {
	u, err := url.Parse(rawURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return Media{}, fmt.Errorf("fetch image: unsupported url %q", rawURL)
	}

	ctx, cancel := context.WithTimeout(ctx, a.Config.ImageFetchTimeout)
	defer cancel()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return Media{}, fmt.Errorf("fetch image: %w", err)
	}
	resp, err := a.httpClient.Do(req)
	if err != nil {
		return Media{}, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return Media{}, fmt.Errorf("fetch image: unexpected status %d", resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxImageBytes+1))
	if err != nil {
		return Media{}, fmt.Errorf("fetch image: %w", err)
	}
	if len(data) > maxImageBytes {
		return Media{}, fmt.Errorf("fetch image: larger than %s", humanize.Bytes(maxImageBytes))
	}

	m, encoded, err := processImage(data, path.Base(u.Path), a.Config.MaxImageWidth)
	if err != nil {
		return Media{}, err
	}
	m.Alt = alt
	if err := a.ensureUniqueFilename(&m); err != nil {
		return Media{}, err
	}

	dir := filepath.Join(a.Config.StaticDir, uploadsSubdir)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return Media{}, fmt.Errorf("create uploads dir: %w", err)
	}
	if err := os.WriteFile(filepath.Join(dir, m.Filename), encoded, 0o644); err != nil {
		return Media{}, fmt.Errorf("write image: %w", err)
	}
	m, err = a.Store.SaveMedia(m)
	if err != nil {
		return Media{}, err
	}

	a.Logger.Info().
		Str("file", m.Filename).
		Str("source", rawURL).
		Str("size", humanize.Bytes(uint64(m.Size))).
		Str("original", humanize.Bytes(uint64(len(data)))).
		Int("width", m.Width).
		Int("height", m.Height).
		Msg("hero image stored")
	return m, nil
}
