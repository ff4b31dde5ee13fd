// Package docid derives deterministic document IDs from filenames.
package docid

import (
	"crypto/md5"
	"encoding/hex"
	"path/filepath"
)

// idLength is the number of hex characters kept from the digest.
const idLength = 12

// Derive returns a stable document ID for the given path. The ID depends
// only on the base filename, so re-ingesting the same file from any
// directory maps to the same document and replaces its records.
func Derive(path string) string {
	sum := md5.Sum([]byte(filepath.Base(path)))
	return hex.EncodeToString(sum[:])[:idLength]
}
