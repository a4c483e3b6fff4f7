package publish

import (
	"crypto/md5"
	"encoding/hex"
	"fmt"
	"io"
	"strings"
)

// Fingerprint returns the hex MD5 digest of a file's contents, the same
// digest an object store reports as the ETag of a single-part object.
func Fingerprint(fsmgr FilesystemManager, path *Path) (string, error) {
	f, err := fsmgr.Open(path)
	if err != nil {
		return "", fmt.Errorf("opening %s: %w", path, err)
	}
	defer f.Close()

	h := md5.New()
	if _, err := io.Copy(h, f); err != nil {
		return "", fmt.Errorf("hashing %s: %w", path, err)
	}
	return hex.EncodeToString(h.Sum(nil)), nil
}

// IsComposite reports whether a remote fingerprint belongs to a multipart
// object, whose ETag is not a digest of the content.
func IsComposite(etag string) bool {
	return strings.Contains(etag, "-")
}
