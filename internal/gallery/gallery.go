// Package gallery models the workspace metadata graph: the gallery index at
// the workspace root and one detail file per gallery directory.
package gallery

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Well-known metadata file names.
const (
	IndexFile       = "galleries.json"
	DetailFile      = "gallery-details.json"
	SearchIndexFile = "search-index.json"
)

// ErrIndexNotFound is returned when the workspace has no gallery index.
var ErrIndexNotFound = errors.New("gallery index not found")

// Gallery is one entry of the gallery index. Slug doubles as the gallery's
// directory name; Cover is relative to the workspace root.
type Gallery struct {
	Slug  string   `json:"slug"`
	Name  string   `json:"name"`
	Date  string   `json:"date"`
	Cover string   `json:"cover"`
	Tags  []string `json:"tags,omitempty"`
}

// ValidSlug reports whether slug names a single directory directly under the
// workspace root. Empty slugs, "." and "..", and slugs containing a path
// separator are rejected.
func ValidSlug(slug string) bool {
	if slug == "" || slug == "." || slug == ".." {
		return false
	}
	return !strings.ContainsAny(slug, `/\`)
}

// Photo is one entry of a gallery detail file. Paths are relative to the
// gallery's directory.
type Photo struct {
	Thumbnail string   `json:"thumbnail"`
	Full      string   `json:"full"`
	Alt       string   `json:"alt"`
	Tags      []string `json:"tags,omitempty"`
}

// Index is the normalized gallery index. Both accepted on-disk shapes (a bare
// array, or an object carrying schemaVersion and galleries) parse into the
// same Galleries list; the original shape and any unknown fields are kept so
// the index can be re-encoded faithfully.
type Index struct {
	Galleries     []Gallery
	SchemaVersion int
	Wrapped       bool

	envelope map[string]json.RawMessage
	entries  []map[string]json.RawMessage
}

// ParseIndex decodes a gallery index in either accepted shape.
func ParseIndex(data []byte) (*Index, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, fmt.Errorf("gallery index is empty")
	}

	idx := &Index{}
	var rawList json.RawMessage

	switch trimmed[0] {
	case '[':
		rawList = trimmed
	case '{':
		if err := json.Unmarshal(trimmed, &idx.envelope); err != nil {
			return nil, fmt.Errorf("decoding gallery index: %w", err)
		}
		idx.Wrapped = true
		if v, ok := idx.envelope["schemaVersion"]; ok {
			if err := json.Unmarshal(v, &idx.SchemaVersion); err != nil {
				return nil, fmt.Errorf("decoding schemaVersion: %w", err)
			}
		}
		rawList = idx.envelope["galleries"]
		if len(rawList) == 0 || string(rawList) == "null" {
			rawList = json.RawMessage("[]")
		}
	default:
		return nil, fmt.Errorf("gallery index must be an array or an object")
	}

	if err := json.Unmarshal(rawList, &idx.entries); err != nil {
		return nil, fmt.Errorf("decoding galleries: %w", err)
	}
	if err := json.Unmarshal(rawList, &idx.Galleries); err != nil {
		return nil, fmt.Errorf("decoding galleries: %w", err)
	}
	return idx, nil
}

// LoadIndex reads and parses the gallery index at the workspace root.
// A missing index is reported as ErrIndexNotFound.
func LoadIndex(root string) (*Index, error) {
	path := filepath.Join(root, IndexFile)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrIndexNotFound, path)
		}
		return nil, fmt.Errorf("reading gallery index: %w", err)
	}

	idx, err := ParseIndex(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return idx, nil
}

// Encode re-encodes the index in its original shape. cover is called for
// every gallery and its return value replaces that gallery's cover field
// when it differs; all other fields pass through untouched.
func (x *Index) Encode(cover func(g Gallery) string) ([]byte, error) {
	entries := make([]map[string]json.RawMessage, len(x.entries))
	for i, entry := range x.entries {
		out := make(map[string]json.RawMessage, len(entry))
		for k, v := range entry {
			out[k] = v
		}
		if cover != nil {
			if c := cover(x.Galleries[i]); c != x.Galleries[i].Cover {
				v, err := json.Marshal(c)
				if err != nil {
					return nil, fmt.Errorf("encoding cover: %w", err)
				}
				out["cover"] = v
			}
		}
		entries[i] = out
	}

	if !x.Wrapped {
		return marshal(entries)
	}

	list, err := json.Marshal(entries)
	if err != nil {
		return nil, fmt.Errorf("encoding galleries: %w", err)
	}
	envelope := make(map[string]json.RawMessage, len(x.envelope)+1)
	for k, v := range x.envelope {
		envelope[k] = v
	}
	envelope["galleries"] = list
	return marshal(envelope)
}

func marshal(v any) ([]byte, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encoding json: %w", err)
	}
	return append(data, '\n'), nil
}
