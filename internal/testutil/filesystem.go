package testutil

import (
	"bytes"
	"fmt"
	"io"
	"io/fs"
	"path/filepath"
	"sync"
	"time"

	"afterglow/internal/publish"
)

// MockFile represents a file in the mock filesystem.
type MockFile struct {
	Content     []byte
	Permissions fs.FileMode
	ModTime     time.Time
}

// MockFilesystemManager is an in-memory filesystem for testing.
type MockFilesystemManager struct {
	mu    sync.Mutex
	files map[string]*MockFile
	opens int
}

// NewMockFilesystemManager creates a new mock filesystem.
func NewMockFilesystemManager() *MockFilesystemManager {
	return &MockFilesystemManager{
		files: make(map[string]*MockFile),
	}
}

// AddFile adds a file to the mock filesystem.
func (m *MockFilesystemManager) AddFile(path string, content []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.files[abs(path)] = &MockFile{
		Content:     content,
		Permissions: 0644,
		ModTime:     time.Now(),
	}
}

// RemoveFile deletes a file from the mock filesystem.
func (m *MockFilesystemManager) RemoveFile(path string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.files, abs(path))
}

// Opens returns how many times Open was called.
func (m *MockFilesystemManager) Opens() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.opens
}

func (m *MockFilesystemManager) Resolve(rawPath string) (*publish.Path, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	absPath := abs(rawPath)
	file, ok := m.files[absPath]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", absPath)
	}
	return publish.NewPath(absPath, newMockFileInfo(absPath, file)), nil
}

func (m *MockFilesystemManager) Open(path *publish.Path) (io.ReadCloser, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, ok := m.files[path.String()]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path.String())
	}
	m.opens++
	return io.NopCloser(bytes.NewReader(file.Content)), nil
}

func (m *MockFilesystemManager) Stat(path *publish.Path) (fs.FileInfo, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	file, ok := m.files[path.String()]
	if !ok {
		return nil, fmt.Errorf("file not found: %s", path.String())
	}
	return newMockFileInfo(path.String(), file), nil
}

func abs(p string) string {
	a, err := filepath.Abs(p)
	if err != nil {
		return filepath.Clean(p)
	}
	return a
}

// mockFileInfo implements fs.FileInfo
type mockFileInfo struct {
	name    string
	size    int64
	mode    fs.FileMode
	modTime time.Time
}

func newMockFileInfo(path string, f *MockFile) *mockFileInfo {
	return &mockFileInfo{
		name:    filepath.Base(path),
		size:    int64(len(f.Content)),
		mode:    f.Permissions,
		modTime: f.ModTime,
	}
}

func (m *mockFileInfo) Name() string       { return m.name }
func (m *mockFileInfo) Size() int64        { return m.size }
func (m *mockFileInfo) Mode() fs.FileMode  { return m.mode }
func (m *mockFileInfo) ModTime() time.Time { return m.modTime }
func (m *mockFileInfo) IsDir() bool        { return false }
func (m *mockFileInfo) Sys() any           { return nil }

// Compile-time check
var _ publish.FilesystemManager = (*MockFilesystemManager)(nil)
