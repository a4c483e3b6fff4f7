package remote

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"afterglow/internal/publish"
)

// FileSystemStore mirrors the bucket layout into a local directory, one
// file per key:
//
//	<root>/
//	  index.html
//	  galleries/
//	    galleries.json
//	    <slug>/...
//
// Fingerprints are the MD5 of each file, like a single-part S3 ETag.
type FileSystemStore struct {
	root string
}

// NewFileSystemStore creates a store rooted at the given directory.
func NewFileSystemStore(root string) (*FileSystemStore, error) {
	if err := os.MkdirAll(root, 0755); err != nil {
		return nil, fmt.Errorf("failed to create store root: %w", err)
	}
	return &FileSystemStore{root: root}, nil
}

func (v *FileSystemStore) List(ctx context.Context, prefix string) (map[string]string, error) {
	out := make(map[string]string)
	err := filepath.WalkDir(v.root, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if err := ctx.Err(); err != nil {
			return err
		}
		if d.IsDir() || strings.HasPrefix(d.Name(), ".tmp-") {
			return nil
		}
		rel, err := filepath.Rel(v.root, p)
		if err != nil {
			return err
		}
		key := filepath.ToSlash(rel)
		if !strings.HasPrefix(key, prefix) {
			return nil
		}
		sum, err := fileMD5(p)
		if err != nil {
			return err
		}
		out[key] = sum
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("listing %s: %w", v.root, err)
	}
	return out, nil
}

func (v *FileSystemStore) Put(ctx context.Context, key, contentType string, r io.Reader, size int64) error {
	dest, err := v.path(key)
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(dest), 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	return v.writeFile(dest, r, size)
}

// Delete removes key and any directories left empty. A missing key is not
// an error.
func (v *FileSystemStore) Delete(ctx context.Context, key string) error {
	p, err := v.path(key)
	if err != nil {
		return err
	}
	if err := os.Remove(p); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove %s: %w", key, err)
	}
	for dir := filepath.Dir(p); dir != v.root && strings.HasPrefix(dir, v.root); dir = filepath.Dir(dir) {
		if os.Remove(dir) != nil {
			break
		}
	}
	return nil
}

func (v *FileSystemStore) path(key string) (string, error) {
	clean := filepath.Clean(filepath.FromSlash(key))
	if key == "" || filepath.IsAbs(clean) || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("invalid key: %q", key)
	}
	return filepath.Join(v.root, clean), nil
}

// writeFile writes data from r to the specified path using atomic write (temp file + rename).
func (v *FileSystemStore) writeFile(destPath string, r io.Reader, expectedSize int64) error {
	dir := filepath.Dir(destPath)
	tmpFile, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("failed to create temp file: %w", err)
	}
	tmpPath := tmpFile.Name()

	success := false
	defer func() {
		if !success {
			os.Remove(tmpPath)
		}
	}()

	written, err := io.Copy(tmpFile, r)
	if err != nil {
		tmpFile.Close()
		return fmt.Errorf("failed to write data: %w", err)
	}
	if err := tmpFile.Close(); err != nil {
		return fmt.Errorf("failed to close temp file: %w", err)
	}
	if written != expectedSize {
		return fmt.Errorf("size mismatch: expected %d bytes, got %d", expectedSize, written)
	}
	if err := os.Rename(tmpPath, destPath); err != nil {
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	success = true
	return nil
}

func fileMD5(p string) (string, error) {
	f, err := os.Open(p)
	if err != nil {
		return "", err
	}
	defer f.Close()
	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", err
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// Compile-time check that FileSystemStore implements publish.ObjectStore interface
var _ publish.ObjectStore = (*FileSystemStore)(nil)
