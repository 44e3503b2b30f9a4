package index

import (
	"fmt"
	"sort"
	"strings"
	"sync"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/lexandro/gotoword-mcp/occurrence"
)

// FileIndex keeps the metadata of every indexed file.
// It uses a map for O(1) path lookups and a sorted slice for ordered iteration.
type FileIndex struct {
	mu          sync.RWMutex
	files       map[string]*IndexedFile // key: relative path (forward slashes)
	sortedPaths []string
}

// NewFileIndex creates a new empty file index.
func NewFileIndex() *FileIndex {
	return &FileIndex{
		files:       make(map[string]*IndexedFile),
		sortedPaths: make([]string, 0),
	}
}

// AddFile adds or updates a file in the index.
func (fi *FileIndex) AddFile(file *IndexedFile) {
	fi.mu.Lock()
	defer fi.mu.Unlock()

	_, exists := fi.files[file.RelativePath]
	fi.files[file.RelativePath] = file

	if !exists {
		idx := sort.SearchStrings(fi.sortedPaths, file.RelativePath)
		fi.sortedPaths = append(fi.sortedPaths, "")
		copy(fi.sortedPaths[idx+1:], fi.sortedPaths[idx:])
		fi.sortedPaths[idx] = file.RelativePath
	}
}

// RemoveFile removes a file from the index by its relative path.
func (fi *FileIndex) RemoveFile(relativePath string) {
	fi.mu.Lock()
	defer fi.mu.Unlock()

	if _, exists := fi.files[relativePath]; !exists {
		return
	}
	delete(fi.files, relativePath)

	idx := sort.SearchStrings(fi.sortedPaths, relativePath)
	if idx < len(fi.sortedPaths) && fi.sortedPaths[idx] == relativePath {
		fi.sortedPaths = append(fi.sortedPaths[:idx], fi.sortedPaths[idx+1:]...)
	}
}

// GetFile returns the IndexedFile for a given relative path, or nil if not found.
func (fi *FileIndex) GetFile(relativePath string) *IndexedFile {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return fi.files[relativePath]
}

// HasContent reports whether the file is indexed with exactly this content hash.
func (fi *FileIndex) HasContent(relativePath string, contentHash uint64) bool {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	file, ok := fi.files[relativePath]
	return ok && file.ContentHash == contentHash
}

// FileCount returns the number of indexed files.
func (fi *FileIndex) FileCount() int {
	fi.mu.RLock()
	defer fi.mu.RUnlock()
	return len(fi.files)
}

// TotalSizeBytes returns the total size of all indexed files.
func (fi *FileIndex) TotalSizeBytes() int64 {
	fi.mu.RLock()
	defer fi.mu.RUnlock()

	var totalSize int64
	for _, file := range fi.files {
		totalSize += file.SizeBytes
	}
	return totalSize
}

// TotalLines returns the number of lines across all indexed files.
func (fi *FileIndex) TotalLines() int {
	fi.mu.RLock()
	defer fi.mu.RUnlock()

	var lines int
	for _, file := range fi.files {
		lines += file.LineCount
	}
	return lines
}

// AllFiles returns all indexed files in path order.
func (fi *FileIndex) AllFiles() []*IndexedFile {
	fi.mu.RLock()
	defer fi.mu.RUnlock()

	result := make([]*IndexedFile, 0, len(fi.sortedPaths))
	for _, path := range fi.sortedPaths {
		if file, ok := fi.files[path]; ok {
			result = append(result, file)
		}
	}
	return result
}

// Clear removes all files from the index.
func (fi *FileIndex) Clear() {
	fi.mu.Lock()
	defer fi.mu.Unlock()

	fi.files = make(map[string]*IndexedFile)
	fi.sortedPaths = make([]string, 0)
}

// GlobFilter builds a candidate filter matching relative paths against a doublestar
// pattern. An empty pattern returns a nil filter, which keeps every file.
func GlobFilter(pattern string) (occurrence.FileFilter, error) {
	if pattern == "" {
		return nil, nil
	}

	// Normalize pattern to forward slashes
	pattern = strings.ReplaceAll(pattern, "\\", "/")
	if !doublestar.ValidatePattern(pattern) {
		return nil, fmt.Errorf("invalid glob pattern: %s", pattern)
	}

	return func(file occurrence.FileHandle) bool {
		matched, err := doublestar.Match(pattern, string(file))
		return err == nil && matched
	}, nil
}
