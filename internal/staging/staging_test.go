package staging

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func TestArea_Write(t *testing.T) {
	a, err := NewArea(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewArea() error = %v", err)
	}
	defer a.Close()

	p, err := a.Write("galleries/sunset/gallery-details.json", []byte(`{"a":1}`))
	if err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	if !strings.HasPrefix(p, a.Dir()) {
		t.Errorf("Write() path = %s, want under %s", p, a.Dir())
	}

	got, err := os.ReadFile(p)
	if err != nil {
		t.Fatalf("reading written file: %v", err)
	}
	if string(got) != `{"a":1}` {
		t.Errorf("content = %q", got)
	}

	if a.Count() != 1 || a.Size() != 7 {
		t.Errorf("Count/Size = %d/%d, want 1/7", a.Count(), a.Size())
	}
	if lookup, ok := a.Path("galleries/sunset/gallery-details.json"); !ok || lookup != p {
		t.Errorf("Path() = (%s, %v)", lookup, ok)
	}
}

func TestArea_OverwriteAccountsSize(t *testing.T) {
	a, err := NewArea(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewArea() error = %v", err)
	}
	defer a.Close()

	if _, err := a.Write("x.json", []byte("12345")); err != nil {
		t.Fatal(err)
	}
	if _, err := a.Write("x.json", []byte("12")); err != nil {
		t.Fatal(err)
	}
	if a.Size() != 2 || a.Count() != 1 {
		t.Errorf("Count/Size = %d/%d, want 1/2", a.Count(), a.Size())
	}
}

func TestArea_RejectsEscapingPaths(t *testing.T) {
	a, err := NewArea(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewArea() error = %v", err)
	}
	defer a.Close()

	for _, rel := range []string{"", ".", "..", "../x", "a/../../x", "/etc/passwd"} {
		if _, err := a.Write(rel, []byte("x")); err == nil {
			t.Errorf("Write(%q) expected error", rel)
		}
	}
}

func TestArea_MaxSize(t *testing.T) {
	a, err := NewArea(t.TempDir(), 4)
	if err != nil {
		t.Fatalf("NewArea() error = %v", err)
	}
	defer a.Close()

	if _, err := a.Write("a", []byte("1234")); err != nil {
		t.Fatalf("Write() error = %v", err)
	}
	_, err = a.Write("b", []byte("5"))
	if err == nil || !strings.Contains(err.Error(), "staging area full") {
		t.Errorf("Write() error = %v, want staging area full", err)
	}
	if _, err := os.Stat(filepath.Join(a.Dir(), "b")); !os.IsNotExist(err) {
		t.Error("rejected file left on disk")
	}
}

func TestArea_Close(t *testing.T) {
	a, err := NewArea(t.TempDir(), 0)
	if err != nil {
		t.Fatalf("NewArea() error = %v", err)
	}
	if _, err := a.Write("a/b.json", []byte("{}")); err != nil {
		t.Fatal(err)
	}

	if err := a.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if _, err := os.Stat(a.Dir()); !os.IsNotExist(err) {
		t.Error("directory still exists after Close()")
	}
	if err := a.Close(); err != nil {
		t.Errorf("second Close() error = %v", err)
	}
	if _, err := a.Write("c", nil); err == nil {
		t.Error("Write() after Close() expected error")
	}
}
