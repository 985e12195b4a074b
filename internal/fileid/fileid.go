// Package fileid provides a deterministic document ID from a file path for watched files.
package fileid

import (
	"crypto/sha256"
	"encoding/hex"
	"path/filepath"
)

const prefix = "file:"

// DocID returns a stable document ID for the given absolute path.
// Same path always yields the same ID, so re-ingesting a changed file
// overwrites its document and removing the file deletes it.
func DocID(absolutePath string) string {
	normalized := filepath.Clean(absolutePath)
	hash := sha256.Sum256([]byte(normalized))
	return prefix + hex.EncodeToString(hash[:])
}
