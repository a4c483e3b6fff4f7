// Package staging provides the private scratch directory a publish writes
// generated files to before they are fingerprinted and uploaded.
package staging

import (
	"bytes"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// DefaultMaxSize is the default maximum staging area size (256MB).
const DefaultMaxSize int64 = 256 * 1024 * 1024

// Area is a temporary directory owned by one publish plan. Files are written
// atomically and the whole directory is removed by Close.
// It is safe for concurrent use.
type Area struct {
	dir     string
	maxSize int64

	mu     sync.Mutex
	files  map[string]string
	size   int64
	closed bool
}

// NewArea creates a fresh directory under parent, or under the system temp
// directory when parent is empty. maxSize <= 0 selects DefaultMaxSize.
func NewArea(parent string, maxSize int64) (*Area, error) {
	if parent != "" {
		if err := os.MkdirAll(parent, 0700); err != nil {
			return nil, fmt.Errorf("creating staging parent: %w", err)
		}
	}
	dir, err := os.MkdirTemp(parent, "publish-*")
	if err != nil {
		return nil, fmt.Errorf("creating staging directory: %w", err)
	}
	if maxSize <= 0 {
		maxSize = DefaultMaxSize
	}
	return &Area{dir: dir, maxSize: maxSize, files: make(map[string]string)}, nil
}

// Dir returns the area's directory.
func (a *Area) Dir() string {
	return a.dir
}

// Write stores data at the slash-separated relative path rel and returns
// the absolute path of the written file.
func (a *Area) Write(rel string, data []byte) (string, error) {
	return a.WriteFrom(rel, bytes.NewReader(data))
}

// WriteFrom stores the contents of r at rel. The file only appears under
// its final name once fully written.
func (a *Area) WriteFrom(rel string, r io.Reader) (string, error) {
	dest, err := a.resolve(rel)
	if err != nil {
		return "", err
	}

	a.mu.Lock()
	closed := a.closed
	a.mu.Unlock()
	if closed {
		return "", fmt.Errorf("staging area is closed")
	}

	if err := os.MkdirAll(filepath.Dir(dest), 0700); err != nil {
		return "", fmt.Errorf("creating directory for %s: %w", rel, err)
	}

	tmp, err := os.CreateTemp(filepath.Dir(dest), ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("creating temp file: %w", err)
	}
	tmpPath := tmp.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	n, err := io.Copy(tmp, r)
	if err != nil {
		tmp.Close()
		return "", fmt.Errorf("writing %s: %w", rel, err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("closing temp file: %w", err)
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	prev := int64(0)
	if old, ok := a.files[rel]; ok {
		if info, err := os.Stat(old); err == nil {
			prev = info.Size()
		}
	}
	if a.size-prev+n > a.maxSize {
		return "", fmt.Errorf("staging area full: would exceed max size of %d bytes", a.maxSize)
	}
	if err := os.Rename(tmpPath, dest); err != nil {
		return "", fmt.Errorf("renaming into place: %w", err)
	}

	success = true
	a.size += n - prev
	a.files[rel] = dest
	return dest, nil
}

// Path returns the absolute path previously written for rel.
func (a *Area) Path(rel string) (string, bool) {
	a.mu.Lock()
	defer a.mu.Unlock()
	p, ok := a.files[rel]
	return p, ok
}

// Count returns the number of files written.
func (a *Area) Count() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return len(a.files)
}

// Size returns the total bytes written.
func (a *Area) Size() int64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.size
}

// Close removes the area and everything in it. It is safe to call twice.
func (a *Area) Close() error {
	a.mu.Lock()
	if a.closed {
		a.mu.Unlock()
		return nil
	}
	a.closed = true
	a.files = make(map[string]string)
	a.size = 0
	a.mu.Unlock()

	if err := os.RemoveAll(a.dir); err != nil {
		return fmt.Errorf("removing staging directory: %w", err)
	}
	return nil
}

func (a *Area) resolve(rel string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(rel))
	if rel == "" || filepath.IsAbs(clean) || clean == "." || clean == ".." ||
		strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid staging path: %q", rel)
	}
	return filepath.Join(a.dir, clean), nil
}
