// Package siteassets embeds the static site shell published next to the
// galleries.
package siteassets

import (
	"embed"
	"io/fs"
)

//go:embed files
var files embed.FS

// FS returns the site files rooted so that paths match their remote keys
// relative to the publish root, e.g. "index.html" or "afterglow/app.js".
func FS() fs.FS {
	sub, err := fs.Sub(files, "files")
	if err != nil {
		panic(err)
	}
	return sub
}
