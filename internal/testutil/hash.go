package testutil

import (
	"crypto/md5"
	"encoding/hex"
)

// MD5Hex returns the MD5 checksum of data as a lowercase hex string.
// Matches the fingerprint format of single-part S3 ETags.
func MD5Hex(data []byte) string {
	h := md5.Sum(data)
	return hex.EncodeToString(h[:])
}
