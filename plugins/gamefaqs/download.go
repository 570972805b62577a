package gamefaqs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	"image/png"
	"os"
	"path/filepath"
	"strings"

	_ "github.com/gen2brain/avif"
	"github.com/nfnt/resize"
	"go.uber.org/zap"
	_ "golang.org/x/image/webp"

	"gamescraper/models"
)

// ErrNotImage is returned when a download is not a decodable picture.
var ErrNotImage = errors.New("downloaded data is not an image")

// assetFileName is the file name (without extension) used for a subject's
// asset: the ROM file name without its extension.
func assetFileName(subject *models.ROM) string {
	base := subject.FileBase()
	if base != "" {
		base = strings.TrimSuffix(base, filepath.Ext(base))
	} else {
		base = subject.Identifier()
	}
	base = strings.Map(func(r rune) rune {
		if strings.ContainsRune(`<>:"/\|?*`, r) {
			return '_'
		}
		return r
	}, base)
	if base == "" {
		base = subject.ID
	}
	return base
}

func formatExt(format string) string {
	if format == "jpeg" {
		return ".jpg"
	}
	return "." + format
}

// downloadImage fetches url and stores it in dir as name plus extension.
// Oversized or AVIF/WebP pictures are resized and re-encoded as PNG; other
// pictures are written unchanged.
func (s *Service) downloadImage(ctx context.Context, url, dir, name string) (string, error) {
	data, err := s.fetcher.GetBytes(ctx, url)
	if err != nil {
		return "", err
	}

	head := strings.ToLower(string(data[:min(len(data), 100)]))
	if strings.Contains(head, "<html") || strings.Contains(head, "<!doctype") {
		return "", fmt.Errorf("%w: received HTML page from %s", ErrNotImage, url)
	}

	img, format, err := image.Decode(bytes.NewReader(data))
	if err != nil {
		return "", fmt.Errorf("%w: %s: %v", ErrNotImage, url, err)
	}

	bounds := img.Bounds()
	maxWidth, maxHeight := s.settings.AssetMaxWidth, s.settings.AssetMaxHeight
	needsResize := (maxWidth > 0 && bounds.Dx() > maxWidth) || (maxHeight > 0 && bounds.Dy() > maxHeight)
	s.trace("downloaded image",
		zap.String("url", url),
		zap.String("format", format),
		zap.Int("width", bounds.Dx()),
		zap.Int("height", bounds.Dy()),
		zap.Bool("resize", needsResize))

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create asset directory: %w", err)
	}

	if !needsResize && format != "avif" && format != "webp" {
		localPath := filepath.Join(dir, name+formatExt(format))
		if err := os.WriteFile(localPath, data, 0o644); err != nil {
			return "", fmt.Errorf("failed to write file to %s: %w", localPath, err)
		}
		return localPath, nil
	}

	out := img
	if needsResize {
		w, h := maxWidth, maxHeight
		if w <= 0 {
			w = bounds.Dx()
		}
		if h <= 0 {
			h = bounds.Dy()
		}
		out = resize.Thumbnail(uint(w), uint(h), img, resize.Lanczos3)
	}

	localPath := filepath.Join(dir, name+".png")
	outFile, err := os.Create(localPath)
	if err != nil {
		return "", fmt.Errorf("failed to create PNG file: %w", err)
	}
	if err := png.Encode(outFile, out); err != nil {
		outFile.Close()
		os.Remove(localPath)
		return "", fmt.Errorf("failed to encode as PNG: %w", err)
	}
	if err := outFile.Close(); err != nil {
		return "", fmt.Errorf("failed to close PNG file: %w", err)
	}
	return localPath, nil
}
