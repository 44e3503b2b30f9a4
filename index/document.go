package index

import (
	"time"

	"github.com/cespare/xxhash/v2"
)

// IndexedFile is the metadata kept for every file in the word index.
type IndexedFile struct {
	Path         string    // Absolute file path
	RelativePath string    // Path relative to project root (forward slashes)
	SizeBytes    int64     // File size in bytes
	ModTime      time.Time // Last modification time
	LineCount    int       // Number of lines in the file
	ContentHash  uint64    // xxhash of the content, used to skip re-indexing unchanged files
}

// HashContent returns the content hash stored in IndexedFile.ContentHash.
func HashContent(content []byte) uint64 {
	return xxhash.Sum64(content)
}
