// Package fs is the real filesystem behind publish.FilesystemManager.
package fs

import (
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"

	"afterglow/internal/publish"
)

// OSFilesystemManager is the real filesystem implementation of FilesystemManager.
// It performs actual filesystem operations using the os package.
type OSFilesystemManager struct{}

// NewOSFilesystemManager creates a new filesystem manager that operates on the real filesystem.
func NewOSFilesystemManager() *OSFilesystemManager {
	return &OSFilesystemManager{}
}

// Resolve validates a raw path and returns a Path object. Symlinks are
// followed; the target must be a regular file.
func (m *OSFilesystemManager) Resolve(rawPath string) (*publish.Path, error) {
	absPath, err := filepath.Abs(rawPath)
	if err != nil {
		return nil, fmt.Errorf("resolving absolute path: %w", err)
	}

	info, err := os.Stat(absPath)
	if err != nil {
		return nil, fmt.Errorf("stat path: %w", err)
	}

	mode := info.Mode()
	switch {
	case mode.IsDir():
		return nil, fmt.Errorf("directories not supported: %s", absPath)
	case mode&os.ModeDevice != 0:
		return nil, fmt.Errorf("device files not supported: %s", absPath)
	case mode&os.ModeNamedPipe != 0:
		return nil, fmt.Errorf("named pipes not supported: %s", absPath)
	case mode&os.ModeSocket != 0:
		return nil, fmt.Errorf("sockets not supported: %s", absPath)
	case !mode.IsRegular():
		return nil, fmt.Errorf("not a regular file: %s", absPath)
	}

	return publish.NewPath(absPath, info), nil
}

// Open opens a file for reading.
func (m *OSFilesystemManager) Open(path *publish.Path) (io.ReadCloser, error) {
	return os.Open(path.String())
}

// Stat returns fresh file info for a path.
func (m *OSFilesystemManager) Stat(path *publish.Path) (fs.FileInfo, error) {
	return os.Stat(path.String())
}

// Compile-time check that OSFilesystemManager implements publish.FilesystemManager interface
var _ publish.FilesystemManager = (*OSFilesystemManager)(nil)
