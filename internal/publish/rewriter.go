package publish

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"afterglow/internal/gallery"
	"afterglow/internal/thumbnail"
)

// SearchIndexVersion is written into every generated search index.
const SearchIndexVersion = 1

// Rewritten holds the publish-time metadata produced by RewriteMetadata.
type Rewritten struct {
	Index []byte
	// Details maps a gallery slug to its rewritten detail file.
	Details     map[string][]byte
	SearchIndex []byte
}

type searchIndex struct {
	Version   int             `json:"version"`
	Galleries []searchGallery `json:"galleries"`
	Photos    []searchPhoto   `json:"photos"`
}

type searchGallery struct {
	Slug        string   `json:"slug"`
	Name        string   `json:"name"`
	Date        string   `json:"date"`
	Description string   `json:"description"`
	Tags        []string `json:"tags"`
}

type searchPhoto struct {
	GallerySlug string   `json:"gallerySlug"`
	Thumbnail   string   `json:"thumbnail"`
	Full        string   `json:"full"`
	Alt         string   `json:"alt"`
	Tags        []string `json:"tags"`
}

// RewriteMetadata points covers and photo thumbnails at their generated
// variants. specs must contain only thumbnails that exist; any reference
// without one passes through unchanged.
func RewriteMetadata(root string, idx *gallery.Index, specs []thumbnail.Spec) (*Rewritten, error) {
	bySource := make(map[string]thumbnail.Spec, len(specs))
	for _, s := range specs {
		bySource[filepath.Clean(s.SourcePath)] = s
	}

	cover := func(g gallery.Gallery) string {
		if g.Cover == "" {
			return g.Cover
		}
		s, ok := bySource[filepath.Join(root, filepath.FromSlash(g.Cover))]
		if !ok {
			return g.Cover
		}
		return s.Slug + "/.thumbs/" + s.ThumbFilename
	}

	out := &Rewritten{Details: make(map[string][]byte)}
	search := searchIndex{
		Version:   SearchIndexVersion,
		Galleries: []searchGallery{},
		Photos:    []searchPhoto{},
	}

	for _, g := range idx.Galleries {
		if !gallery.ValidSlug(g.Slug) {
			continue
		}
		details, err := gallery.LoadDetails(root, g.Slug)
		if err != nil {
			return nil, fmt.Errorf("loading details for %s: %w", g.Slug, err)
		}

		entry := searchGallery{Slug: g.Slug, Name: g.Name, Date: g.Date, Tags: nonNil(g.Tags)}
		if details == nil {
			search.Galleries = append(search.Galleries, entry)
			continue
		}
		entry.Description = details.Description
		search.Galleries = append(search.Galleries, entry)

		dir := filepath.Join(root, g.Slug)
		thumb := func(p gallery.Photo) string {
			if p.Thumbnail == "" {
				return p.Thumbnail
			}
			s, ok := bySource[filepath.Join(dir, filepath.FromSlash(p.Thumbnail))]
			if !ok {
				return p.Thumbnail
			}
			return ".thumbs/" + s.ThumbFilename
		}

		data, err := details.Encode(thumb)
		if err != nil {
			return nil, fmt.Errorf("rewriting details for %s: %w", g.Slug, err)
		}
		out.Details[g.Slug] = data

		for _, p := range details.Photos {
			search.Photos = append(search.Photos, searchPhoto{
				GallerySlug: g.Slug,
				Thumbnail:   thumb(p),
				Full:        p.Full,
				Alt:         p.Alt,
				Tags:        nonNil(p.Tags),
			})
		}
	}

	data, err := idx.Encode(cover)
	if err != nil {
		return nil, fmt.Errorf("rewriting gallery index: %w", err)
	}
	out.Index = data

	data, err = json.MarshalIndent(search, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding search index: %w", err)
	}
	out.SearchIndex = append(data, '\n')

	return out, nil
}

func nonNil(tags []string) []string {
	if tags == nil {
		return []string{}
	}
	return tags
}
