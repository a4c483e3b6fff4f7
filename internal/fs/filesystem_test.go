package fs

import (
	"io"
	"os"
	"path/filepath"
	"testing"
)

func TestOSFilesystemManager_Resolve(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "a.jpg")
	if err := os.WriteFile(file, []byte("hello"), 0644); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link.jpg")
	if err := os.Symlink(file, link); err != nil {
		t.Fatal(err)
	}

	m := NewOSFilesystemManager()

	tests := []struct {
		name    string
		path    string
		wantErr bool
	}{
		{"regular file", file, false},
		{"symlink to file", link, false},
		{"directory", dir, true},
		{"missing", filepath.Join(dir, "nope.jpg"), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := m.Resolve(tt.path)
			if tt.wantErr {
				if err == nil {
					t.Errorf("Resolve(%s) expected error", tt.path)
				}
				return
			}
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if p.Size() != 5 {
				t.Errorf("Size() = %d, want 5", p.Size())
			}
		})
	}
}

func TestOSFilesystemManager_OpenAndStat(t *testing.T) {
	file := filepath.Join(t.TempDir(), "a.json")
	if err := os.WriteFile(file, []byte("{}"), 0644); err != nil {
		t.Fatal(err)
	}

	m := NewOSFilesystemManager()
	p, err := m.Resolve(file)
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}

	r, err := m.Open(p)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	data, _ := io.ReadAll(r)
	r.Close()
	if string(data) != "{}" {
		t.Errorf("content = %q", data)
	}

	if err := os.WriteFile(file, []byte("{\"a\":1}"), 0644); err != nil {
		t.Fatal(err)
	}
	info, err := m.Stat(p)
	if err != nil {
		t.Fatalf("Stat() error = %v", err)
	}
	if info.Size() != 7 {
		t.Errorf("Stat().Size() = %d, want 7 (fresh)", info.Size())
	}
	if p.Size() != 2 {
		t.Errorf("Path.Size() = %d, want 2 (cached)", p.Size())
	}
}
