package thumbnail

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
)

// Logger is the subset of structured logging the pipeline needs.
type Logger interface {
	Warn(msg string, args ...any)
}

// ProgressFunc is called after every spec with a 1-based index.
type ProgressFunc func(current, total int, spec Spec)

// Failure records a thumbnail that could not be generated.
type Failure struct {
	Source string
	Err    error
}

func (f Failure) Error() string {
	return fmt.Sprintf("%s: %v", f.Source, f.Err)
}

// Results summarizes an EnsureAll run.
type Results struct {
	Generated int
	Skipped   int
	Failures  []Failure
}

// Failed reports whether spec's source failed to generate.
func (r *Results) Failed(spec Spec) bool {
	for _, f := range r.Failures {
		if f.Source == spec.SourcePath {
			return true
		}
	}
	return false
}

// EnsureAll generates every spec that is not fresh, in input order.
// Failures are collected, never fatal. onProgress may be nil.
func EnsureAll(specs []Spec, onProgress ProgressFunc) Results {
	total := len(specs)
	var res Results

	for i, spec := range specs {
		if IsFresh(spec.SourcePath, spec.DestPath) {
			res.Skipped++
		} else if err := Generate(spec.SourcePath, spec.DestPath); err != nil {
			res.Failures = append(res.Failures, Failure{Source: spec.SourcePath, Err: err})
		} else {
			res.Generated++
		}
		if onProgress != nil {
			onProgress(i+1, total, spec)
		}
	}

	return res
}

// CleanupStale removes every cached .webp under cacheRoot that no spec
// produces, then prunes directories left empty. It is best-effort: failures
// are logged and otherwise ignored.
func CleanupStale(cacheRoot string, specs []Spec, logger Logger) {
	if _, err := os.Stat(cacheRoot); err != nil {
		return
	}

	keep := make(map[string]bool, len(specs))
	for _, s := range specs {
		keep[filepath.Clean(s.DestPath)] = true
	}

	var dirs []string
	err := filepath.WalkDir(cacheRoot, func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			logger.Warn("thumbnail cleanup walk failed", "path", p, "error", err)
			return nil
		}
		if d.IsDir() {
			if p != cacheRoot {
				dirs = append(dirs, p)
			}
			return nil
		}
		if !strings.EqualFold(filepath.Ext(p), ".webp") || keep[filepath.Clean(p)] {
			return nil
		}
		if err := os.Remove(p); err != nil {
			logger.Warn("removing stale thumbnail failed", "path", p, "error", err)
		}
		return nil
	})
	if err != nil {
		logger.Warn("thumbnail cleanup walk failed", "path", cacheRoot, "error", err)
	}

	// Deepest first, so emptied parents can go too.
	sort.Slice(dirs, func(i, j int) bool { return len(dirs[i]) > len(dirs[j]) })
	for _, dir := range dirs {
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			continue
		}
		if err := os.Remove(dir); err != nil {
			logger.Warn("removing empty thumbnail directory failed", "path", dir, "error", err)
		}
	}
}
