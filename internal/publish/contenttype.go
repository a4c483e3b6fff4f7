package publish

import (
	"path/filepath"
	"strings"
)

const defaultContentType = "application/octet-stream"

var contentTypes = map[string]string{
	".jpg":  "image/jpeg",
	".jpeg": "image/jpeg",
	".png":  "image/png",
	".gif":  "image/gif",
	".webp": "image/webp",
	".avif": "image/avif",
	".bmp":  "image/bmp",
	".tif":  "image/tiff",
	".tiff": "image/tiff",
	".ico":  "image/x-icon",
	".svg":  "image/svg+xml",
	".json": "application/json",
	".html": "text/html",
	".css":  "text/css",
	".js":   "application/javascript",
}

// ContentType maps a file name to the content type it is uploaded with.
// Extensions are matched case-insensitively.
func ContentType(name string) string {
	if ct, ok := contentTypes[strings.ToLower(filepath.Ext(name))]; ok {
		return ct
	}
	return defaultContentType
}
