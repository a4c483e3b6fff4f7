package publish

import (
	"path"
	"strings"
)

// NormalizeRoot turns a configured prefix into a remote root: no leading
// slash, and a trailing slash unless empty.
func NormalizeRoot(prefix string) string {
	p := strings.Trim(strings.TrimSpace(prefix), "/")
	if p == "" {
		return ""
	}
	return p + "/"
}

// RemoteKey maps a slash-separated workspace-relative path to its key.
func RemoteKey(root, rel string) string {
	return root + "galleries/" + strings.TrimPrefix(path.Clean(rel), "/")
}

// IsManaged reports whether key lies in the area a publish may delete from.
func IsManaged(root, key string) bool {
	if strings.HasPrefix(key, root+"galleries/") || strings.HasPrefix(key, root+"afterglow/") {
		return true
	}
	switch key {
	case root + "index.html", root + "favicon.ico", root + "favicon.png":
		return true
	}
	return false
}
