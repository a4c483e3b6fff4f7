package thumbnail

import (
	"os"
	"path"
	"path/filepath"
	"strings"

	"afterglow/internal/gallery"
)

// Spec describes one derived, cached thumbnail. Specs are rebuilt on every
// preview and never persisted.
type Spec struct {
	SourcePath string
	DestPath   string
	// RemoteKey is the object key, e.g. "galleries/sunset/.thumbs/01.webp".
	RemoteKey string
	// Slug is the gallery slug (or the cover's parent directory) the thumbnail belongs to.
	Slug string
	// ThumbFilename is the cached file name, e.g. "01.webp".
	ThumbFilename string
}

// CacheRoot returns the thumbnail cache directory for a workspace.
func CacheRoot(root string) string {
	return filepath.Join(root, ".data", "thumbnails")
}

// BuildSpecs derives one spec per distinct cover image and per distinct
// photo thumbnail referenced from the gallery index. Specs sharing a
// destination are generated once, so an image used both as a cover and as a
// photo thumbnail yields a single spec. Missing sources and unreadable detail
// files are skipped.
func BuildSpecs(root string, idx *gallery.Index, remoteRoot string) []Spec {
	galleriesPrefix := remoteRoot + "galleries/"
	cache := CacheRoot(root)
	seen := make(map[string]bool)
	var specs []Spec

	add := func(source, dir, file string) {
		if !within(root, source) || !isRegularFile(source) {
			return
		}
		stem := strings.TrimSuffix(path.Base(file), path.Ext(file))
		if stem == "" {
			return
		}
		thumbFilename := stem + ".webp"
		dest := filepath.Join(cache, filepath.FromSlash(dir), thumbFilename)
		if seen[dest] {
			return
		}
		seen[dest] = true
		specs = append(specs, Spec{
			SourcePath:    source,
			DestPath:      dest,
			RemoteKey:     galleriesPrefix + dir + "/.thumbs/" + thumbFilename,
			Slug:          dir,
			ThumbFilename: thumbFilename,
		})
	}

	for _, g := range idx.Galleries {
		if !gallery.ValidSlug(g.Slug) {
			continue
		}

		if cover := path.Clean(filepath.ToSlash(g.Cover)); g.Cover != "" && !path.IsAbs(cover) {
			dir := path.Dir(cover)
			if dir == "." || dir == "" {
				dir = g.Slug
			}
			add(filepath.Join(root, filepath.FromSlash(cover)), dir, cover)
		}

		details, err := gallery.LoadDetails(root, g.Slug)
		if err != nil || details == nil {
			continue
		}
		for _, p := range details.Photos {
			if p.Thumbnail == "" {
				continue
			}
			thumb := filepath.ToSlash(p.Thumbnail)
			add(filepath.Join(root, g.Slug, filepath.FromSlash(thumb)), g.Slug, thumb)
		}
	}

	return specs
}

func isRegularFile(p string) bool {
	info, err := os.Stat(p)
	return err == nil && info.Mode().IsRegular()
}

func within(root, p string) bool {
	rel, err := filepath.Rel(filepath.Clean(root), filepath.Clean(p))
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
