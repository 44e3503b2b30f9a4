package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/lexandro/gotoword-mcp/ignore"
	"github.com/lexandro/gotoword-mcp/index"
	"github.com/lexandro/gotoword-mcp/watcher"
)

var errBinaryFile = errors.New("binary file")

// indexer keeps the file and word indexes in step with the files under rootDir.
type indexer struct {
	rootDir       string
	fileIndex     *index.FileIndex
	wordIndex     *index.WordIndex
	ignoreMatcher *ignore.Matcher
	workers       int
	logger        *slog.Logger
}

// relativePath returns path relative to the root, with forward slashes.
func (ix *indexer) relativePath(path string) string {
	relPath, err := filepath.Rel(ix.rootDir, path)
	if err != nil {
		relPath = path
	}
	return filepath.ToSlash(relPath)
}

// walk calls fn for every file under the root that passes the ignore rules and size limit.
func (ix *indexer) walk(ctx context.Context, fn func(path string, relPath string, info os.FileInfo)) error {
	return ix.walkFrom(ctx, ix.rootDir, fn)
}

// walkFrom is walk restricted to the tree below dir.
func (ix *indexer) walkFrom(ctx context.Context, dir string, fn func(path string, relPath string, info os.FileInfo)) error {
	return filepath.WalkDir(dir, func(path string, d os.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return ctxErr
		}
		if d.IsDir() {
			if path != ix.rootDir && ix.ignoreMatcher.ShouldIgnoreDir(path) {
				return filepath.SkipDir
			}
			return nil
		}
		if ix.ignoreMatcher.ShouldIgnore(path) {
			return nil
		}
		info, err := d.Info()
		if err != nil {
			return nil
		}
		if ix.ignoreMatcher.IsFileTooLarge(info.Size()) {
			return nil
		}
		fn(path, ix.relativePath(path), info)
		return nil
	})
}

// indexAll walks the root directory and indexes all eligible files.
// Returns the number of files indexed and total bytes processed.
func (ix *indexer) indexAll(ctx context.Context) (int, int64, error) {
	var indexedCount int
	var totalSize int64
	var mu sync.Mutex

	group, groupCtx := errgroup.WithContext(ctx)
	group.SetLimit(max(1, ix.workers))

	walkErr := ix.walk(groupCtx, func(path string, relPath string, info os.FileInfo) {
		group.Go(func() error {
			if _, err := ix.indexFile(path, relPath, info); err != nil {
				ix.logger.Debug("skipped file", "path", relPath, "error", err)
				return nil
			}
			mu.Lock()
			indexedCount++
			totalSize += info.Size()
			mu.Unlock()
			return nil
		})
	})

	if err := group.Wait(); err != nil {
		return indexedCount, totalSize, err
	}
	if walkErr != nil {
		return indexedCount, totalSize, fmt.Errorf("walking %s: %w", ix.rootDir, walkErr)
	}
	return indexedCount, totalSize, nil
}

// indexFile reads one file into both indexes. changed is false when the file was already
// indexed with the same content and only its metadata was refreshed.
func (ix *indexer) indexFile(absolutePath string, relativePath string, info os.FileInfo) (changed bool, err error) {
	content, err := readFileWithRetry(absolutePath)
	if err != nil {
		return false, fmt.Errorf("reading file: %w", err)
	}
	if index.LooksBinary(content) {
		return false, errBinaryFile
	}

	contentHash := index.HashContent(content)
	changed = !ix.fileIndex.HasContent(relativePath, contentHash)

	contentStr := string(content)
	if changed {
		if err := ix.wordIndex.IndexFile(relativePath, contentStr); err != nil {
			return false, fmt.Errorf("indexing words: %w", err)
		}
	}

	ix.fileIndex.AddFile(&index.IndexedFile{
		Path:         absolutePath,
		RelativePath: relativePath,
		SizeBytes:    info.Size(),
		ModTime:      info.ModTime(),
		LineCount:    strings.Count(contentStr, "\n") + 1,
		ContentHash:  contentHash,
	})
	return changed, nil
}

// removeFile drops a file from both indexes.
func (ix *indexer) removeFile(relativePath string) {
	ix.fileIndex.RemoveFile(relativePath)
	if err := ix.wordIndex.RemoveFile(relativePath); err != nil {
		ix.logger.Warn("failed to remove file from word index", "path", relativePath, "error", err)
	}
}

// removeTree drops a file, or every indexed file below a directory, from both indexes.
func (ix *indexer) removeTree(relativePath string) {
	ix.removeFile(relativePath)
	prefix := relativePath + "/"
	for _, file := range ix.fileIndex.AllFiles() {
		if strings.HasPrefix(file.RelativePath, prefix) {
			ix.removeFile(file.RelativePath)
		}
	}
}

// indexTree indexes every eligible file below dir.
func (ix *indexer) indexTree(dir string) {
	err := ix.walkFrom(context.Background(), dir, func(path string, relPath string, info os.FileInfo) {
		if _, err := ix.indexFile(path, relPath, info); err != nil {
			ix.logger.Debug("skipped file", "path", relPath, "error", err)
		}
	})
	if err != nil {
		ix.logger.Warn("failed to index new directory", "path", ix.relativePath(dir), "error", err)
	}
}

// reindex clears both indexes and rebuilds them from disk. The rebuild is detached from
// ctx cancellation so an abandoned request cannot leave the indexes half built.
func (ix *indexer) reindex(ctx context.Context) (int, int64, error) {
	ctx = context.WithoutCancel(ctx)

	ix.fileIndex.Clear()
	if err := ix.wordIndex.Clear(); err != nil {
		return 0, 0, fmt.Errorf("clearing word index: %w", err)
	}
	// Ignore files may have changed without the watcher noticing
	ix.ignoreMatcher.Reload()
	return ix.indexAll(ctx)
}

// readFileWithRetry attempts to read a file, retrying once after a short delay
// if the file is locked (common on Windows when editors are saving).
func readFileWithRetry(path string) ([]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		time.Sleep(50 * time.Millisecond)
		data, err = os.ReadFile(path)
		if err != nil {
			return nil, err
		}
	}
	return data, nil
}

// handleWatcherEvents applies debounced file system events to the indexes until ctx is done.
func (ix *indexer) handleWatcherEvents(ctx context.Context, events <-chan []watcher.DebouncedEvent) {
	for {
		select {
		case <-ctx.Done():
			return
		case batch := <-events:
			for _, event := range batch {
				ix.applyEvent(event)
			}
		}
	}
}

func (ix *indexer) applyEvent(event watcher.DebouncedEvent) {
	relPath := ix.relativePath(event.Path)

	switch event.Op {
	case watcher.OpRemove, watcher.OpRename:
		// The path may have been a directory; nothing on disk tells us any more
		ix.removeTree(relPath)
		ix.logger.Debug("removed from index", "path", relPath)

	case watcher.OpCreate, watcher.OpWrite:
		if ignore.IsIgnoreFile(event.Path) {
			ix.ignoreMatcher.Reload()
			ix.logger.Info("reloaded ignore rules", "trigger", filepath.Base(event.Path))
			return
		}
		if ix.ignoreMatcher.ShouldIgnore(event.Path) {
			return
		}

		info, err := os.Stat(event.Path)
		if err != nil {
			return
		}
		if info.IsDir() {
			if !ix.ignoreMatcher.ShouldIgnoreDir(event.Path) {
				ix.indexTree(event.Path)
				ix.logger.Debug("indexed new directory", "path", relPath)
			}
			return
		}
		if ix.ignoreMatcher.IsFileTooLarge(info.Size()) {
			// A file that grew past the limit must not keep stale words
			ix.removeFile(relPath)
			return
		}

		changed, err := ix.indexFile(event.Path, relPath, info)
		if errors.Is(err, errBinaryFile) {
			ix.removeFile(relPath)
		}
		if err != nil {
			ix.logger.Debug("skipped file update", "path", relPath, "error", err)
			return
		}
		ix.logger.Debug("updated index", "path", relPath, "changed", changed)
	}
}
