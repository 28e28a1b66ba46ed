// Package fileid derives stable identifiers for ingested documents: the content hash
// used to skip re-embedding identical text, and the source ID recorded with each clause.
package fileid

import (
	"crypto/md5"
	"encoding/hex"
	"net/url"
	"path"
	"path/filepath"
	"strings"
)

// BlobSourceID is recorded for documents fetched from a URL whose path has no file name.
const BlobSourceID = "blob_url"

// ContentHash returns the hex MD5 of text. Identical extracted text always hashes the same.
func ContentHash(text string) string {
	sum := md5.Sum([]byte(text))
	return hex.EncodeToString(sum[:])
}

// SourceID returns the clause source identifier for a local file: its base name.
func SourceID(filePath string) string {
	return filepath.Base(filepath.Clean(filePath))
}

// URLSourceID returns the source identifier for a downloaded document: the last path
// segment of the URL without its query, or BlobSourceID when there is none.
func URLSourceID(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil {
		return BlobSourceID
	}
	base := path.Base(u.Path)
	if base == "." || base == "/" || base == "" || !strings.Contains(base, ".") {
		return BlobSourceID
	}
	if unescaped, err := url.PathUnescape(base); err == nil {
		return unescaped
	}
	return base
}
