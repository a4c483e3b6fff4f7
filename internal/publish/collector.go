package publish

import (
	"fmt"
	"path/filepath"
	"sort"
	"strings"

	"afterglow/internal/gallery"
)

// CollectReferences returns the workspace files reachable from the gallery
// index: the index itself, each detail file, each cover, and each photo's
// thumbnail and full image. Missing images and missing detail files are
// skipped; a malformed detail file is an error. References that resolve
// outside root are ignored. The result is sorted and free of duplicates.
func CollectReferences(fsmgr FilesystemManager, root string, idx *gallery.Index) ([]*Path, error) {
	root = filepath.Clean(root)
	seen := make(map[string]bool)
	var paths []*Path

	add := func(abs string) {
		abs = filepath.Clean(abs)
		if seen[abs] || !within(root, abs) {
			return
		}
		p, err := fsmgr.Resolve(abs)
		if err != nil {
			return
		}
		seen[abs] = true
		paths = append(paths, p)
	}

	indexPath := filepath.Join(root, gallery.IndexFile)
	if _, err := fsmgr.Resolve(indexPath); err != nil {
		return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, indexPath)
	}
	add(indexPath)

	for _, g := range idx.Galleries {
		if !gallery.ValidSlug(g.Slug) {
			continue
		}
		if g.Cover != "" {
			add(filepath.Join(root, filepath.FromSlash(g.Cover)))
		}

		details, err := gallery.LoadDetails(root, g.Slug)
		if err != nil {
			return nil, fmt.Errorf("loading details for %s: %w", g.Slug, err)
		}
		if details == nil {
			continue
		}
		add(gallery.DetailPath(root, g.Slug))

		dir := filepath.Join(root, g.Slug)
		for _, photo := range details.Photos {
			if photo.Thumbnail != "" {
				add(filepath.Join(dir, filepath.FromSlash(photo.Thumbnail)))
			}
			if photo.Full != "" {
				add(filepath.Join(dir, filepath.FromSlash(photo.Full)))
			}
		}
	}

	sort.Slice(paths, func(i, j int) bool { return paths[i].String() < paths[j].String() })
	return paths, nil
}

func within(root, p string) bool {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return false
	}
	return rel != ".." && !strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
