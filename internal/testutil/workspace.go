package testutil

import (
	"encoding/json"
	"image"
	"image/color"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"afterglow/internal/gallery"
)

// Workspace builds a gallery workspace in a temp directory.
type Workspace struct {
	t    *testing.T
	Root string
}

// NewWorkspace creates an empty workspace removed when the test ends.
func NewWorkspace(t *testing.T) *Workspace {
	t.Helper()
	return &Workspace{t: t, Root: t.TempDir()}
}

// Path returns the absolute path of a slash-separated workspace path.
func (w *Workspace) Path(rel string) string {
	return filepath.Join(w.Root, filepath.FromSlash(rel))
}

// WriteFile writes data at rel, creating parent directories.
func (w *Workspace) WriteFile(rel string, data []byte) string {
	w.t.Helper()
	p := w.Path(rel)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		w.t.Fatalf("creating %s: %v", filepath.Dir(p), err)
	}
	if err := os.WriteFile(p, data, 0644); err != nil {
		w.t.Fatalf("writing %s: %v", p, err)
	}
	return p
}

// WriteJSON encodes v at rel.
func (w *Workspace) WriteJSON(rel string, v any) string {
	w.t.Helper()
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		w.t.Fatalf("encoding %s: %v", rel, err)
	}
	return w.WriteFile(rel, data)
}

// WriteIndex writes a bare-array gallery index.
func (w *Workspace) WriteIndex(galleries ...gallery.Gallery) string {
	w.t.Helper()
	if galleries == nil {
		galleries = []gallery.Gallery{}
	}
	return w.WriteJSON(gallery.IndexFile, galleries)
}

// WriteDetails writes the detail file for slug.
func (w *Workspace) WriteDetails(slug string, photos ...gallery.Photo) string {
	w.t.Helper()
	if photos == nil {
		photos = []gallery.Photo{}
	}
	return w.WriteJSON(slug+"/"+gallery.DetailFile, map[string]any{
		"name":        slug,
		"slug":        slug,
		"date":        "2024-01-01",
		"description": "Photos from " + slug,
		"photos":      photos,
	})
}

// WriteImage writes a gradient image of the given size at rel. The format
// follows the extension.
func (w *Workspace) WriteImage(rel string, width, height int) string {
	w.t.Helper()
	p := w.Path(rel)
	if err := os.MkdirAll(filepath.Dir(p), 0755); err != nil {
		w.t.Fatalf("creating %s: %v", filepath.Dir(p), err)
	}
	if err := imaging.Save(Gradient(width, height), p); err != nil {
		w.t.Fatalf("saving %s: %v", p, err)
	}
	return p
}

// Touch sets the modification time of rel.
func (w *Workspace) Touch(rel string, mtime time.Time) {
	w.t.Helper()
	if err := os.Chtimes(w.Path(rel), mtime, mtime); err != nil {
		w.t.Fatalf("touching %s: %v", rel, err)
	}
}

// Gradient returns a deterministic test image.
func Gradient(width, height int) image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			img.SetNRGBA(x, y, color.NRGBA{
				R: uint8(x * 255 / max(width, 1)),
				G: uint8(y * 255 / max(height, 1)),
				B: 128,
				A: 255,
			})
		}
	}
	return img
}
