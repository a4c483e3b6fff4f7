package publish

import "io/fs"

// Path is a resolved workspace file with the stat info captured at
// resolution time. Paths are created by FilesystemManager.Resolve.
type Path struct {
	absPath string
	info    fs.FileInfo
}

// NewPath creates a Path from its components.
// This is primarily for use by FilesystemManager implementations.
func NewPath(absPath string, info fs.FileInfo) *Path {
	return &Path{absPath: absPath, info: info}
}

// String returns the absolute path.
func (p *Path) String() string {
	return p.absPath
}

// Size returns the size captured when the path was resolved.
func (p *Path) Size() int64 {
	if p.info == nil {
		return 0
	}
	return p.info.Size()
}

// Info returns the cached file info from when the path was resolved.
func (p *Path) Info() fs.FileInfo {
	return p.info
}
