package publish

import (
	"io"
	"io/fs"
)

// FilesystemManager provides read access to workspace files.
// It abstracts file access to enable testing without touching the real filesystem.
type FilesystemManager interface {
	// Resolve returns a Path for rawPath. It fails unless rawPath is an
	// existing regular file.
	Resolve(rawPath string) (*Path, error)

	// Open opens a file for reading.
	Open(path *Path) (io.ReadCloser, error)

	// Stat returns fresh file info for a path.
	Stat(path *Path) (fs.FileInfo, error)
}
