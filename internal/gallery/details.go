package gallery

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Details is the per-gallery detail file.
type Details struct {
	Name        string  `json:"name"`
	Slug        string  `json:"slug"`
	Date        string  `json:"date"`
	Description string  `json:"description"`
	Photos      []Photo `json:"photos"`

	fields map[string]json.RawMessage
	photos []map[string]json.RawMessage
}

// DetailPath returns the location of a gallery's detail file.
func DetailPath(root, slug string) string {
	return filepath.Join(root, slug, DetailFile)
}

// ParseDetails decodes a gallery detail file.
func ParseDetails(data []byte) (*Details, error) {
	d := &Details{}
	if err := json.Unmarshal(data, &d.fields); err != nil {
		return nil, fmt.Errorf("decoding gallery details: %w", err)
	}
	if err := json.Unmarshal(data, d); err != nil {
		return nil, fmt.Errorf("decoding gallery details: %w", err)
	}
	if raw, ok := d.fields["photos"]; ok && string(raw) != "null" {
		if err := json.Unmarshal(raw, &d.photos); err != nil {
			return nil, fmt.Errorf("decoding photos: %w", err)
		}
	}
	return d, nil
}

// LoadDetails reads the detail file for slug. A gallery without a detail
// file is valid and yields (nil, nil).
func LoadDetails(root, slug string) (*Details, error) {
	path := DetailPath(root, slug)
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("reading gallery details: %w", err)
	}

	d, err := ParseDetails(data)
	if err != nil {
		return nil, fmt.Errorf("parsing %s: %w", path, err)
	}
	return d, nil
}

// Encode re-encodes the detail file, replacing each photo's thumbnail with
// the value returned by thumbnail when it differs.
func (d *Details) Encode(thumbnail func(p Photo) string) ([]byte, error) {
	fields := make(map[string]json.RawMessage, len(d.fields))
	for k, v := range d.fields {
		fields[k] = v
	}

	if d.photos != nil {
		photos := make([]map[string]json.RawMessage, len(d.photos))
		for i, entry := range d.photos {
			out := make(map[string]json.RawMessage, len(entry))
			for k, v := range entry {
				out[k] = v
			}
			if thumbnail != nil {
				if th := thumbnail(d.Photos[i]); th != d.Photos[i].Thumbnail {
					v, err := json.Marshal(th)
					if err != nil {
						return nil, fmt.Errorf("encoding thumbnail: %w", err)
					}
					out["thumbnail"] = v
				}
			}
			photos[i] = out
		}
		list, err := json.Marshal(photos)
		if err != nil {
			return nil, fmt.Errorf("encoding photos: %w", err)
		}
		fields["photos"] = list
	}

	return marshal(fields)
}
