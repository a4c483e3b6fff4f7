// Package thumbnail derives size-capped WebP variants of gallery images and
// keeps them in a cache under the workspace.
package thumbnail

import (
	"fmt"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/gen2brain/webp"
)

// Output parameters for generated thumbnails.
const (
	MaxDimension = 800
	Quality      = 85
)

// IsFresh reports whether dest exists and is not older than source.
// This compares modification times only: touching a source without changing
// its content still forces regeneration.
func IsFresh(source, dest string) bool {
	destInfo, err := os.Stat(dest)
	if err != nil {
		return false
	}
	srcInfo, err := os.Stat(source)
	if err != nil {
		// Source vanished; nothing newer to regenerate from.
		return true
	}
	return !destInfo.ModTime().Before(srcInfo.ModTime())
}

// FitSize returns the dimensions of a width x height image scaled so its
// longer side is MaxDimension. The shorter side is rounded to the nearest
// pixel and never drops below 1. Images already within bounds are unchanged.
func FitSize(width, height int) (int, int) {
	longest := max(width, height)
	if longest <= MaxDimension {
		return width, height
	}
	scale := float64(MaxDimension) / float64(longest)
	w := max(1, int(math.Round(float64(width)*scale)))
	h := max(1, int(math.Round(float64(height)*scale)))
	return w, h
}

// Generate decodes source, downscales it so neither side exceeds
// MaxDimension (preserving aspect ratio), and writes a lossy WebP to dest.
// The file is written to a temporary sibling and renamed into place, so
// readers never observe a partial thumbnail.
func Generate(source, dest string) error {
	mt, err := mimetype.DetectFile(source)
	if err != nil {
		return fmt.Errorf("detecting type of %s: %w", source, err)
	}
	if !strings.HasPrefix(mt.String(), "image/") {
		return fmt.Errorf("unsupported source type %s: %s", mt.String(), source)
	}

	img, err := imaging.Open(source)
	if err != nil {
		return fmt.Errorf("decoding %s: %w", source, err)
	}

	b := img.Bounds()
	if w, h := FitSize(b.Dx(), b.Dy()); w != b.Dx() || h != b.Dy() {
		img = imaging.Resize(img, w, h, imaging.Lanczos)
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("creating thumbnail directory: %w", err)
	}

	tmpPath := dest + ".tmp"
	f, err := os.Create(tmpPath)
	if err != nil {
		return fmt.Errorf("creating temp file: %w", err)
	}

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	if err := webp.Encode(f, img, webp.Options{Quality: Quality}); err != nil {
		f.Close()
		return fmt.Errorf("encoding webp for %s: %w", source, err)
	}
	if err := f.Close(); err != nil {
		return fmt.Errorf("closing temp file: %w", err)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return fmt.Errorf("renaming thumbnail into place: %w", err)
	}

	success = true
	return nil
}
