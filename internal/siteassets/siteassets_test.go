package siteassets

import (
	"io/fs"
	"sort"
	"testing"
)

func TestFS(t *testing.T) {
	var got []string
	err := fs.WalkDir(FS(), ".", func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if !d.IsDir() {
			got = append(got, p)
		}
		return nil
	})
	if err != nil {
		t.Fatalf("WalkDir() error = %v", err)
	}
	sort.Strings(got)

	want := []string{"afterglow/app.css", "afterglow/app.js", "favicon.ico", "favicon.png", "index.html"}
	if len(got) != len(want) {
		t.Fatalf("files = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("files[%d] = %s, want %s", i, got[i], want[i])
		}
	}
}
