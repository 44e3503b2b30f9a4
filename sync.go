package main

import (
	"context"
	"os"
	"path/filepath"
	"time"

	"github.com/lexandro/gotoword-mcp/index"
)

// SyncResult holds the outcome of a single sync verification run.
type SyncResult struct {
	MissingFiles  int // files on disk but not in index
	StaleFiles    int // files in index but not on disk
	ModifiedFiles int // files whose content changed since they were indexed
	Duration      time.Duration
}

// runPeriodicSync verifies index consistency at the given interval until ctx is done.
func (ix *indexer) runPeriodicSync(ctx context.Context, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	ix.logger.Info("periodic sync started", "interval", interval)

	for {
		select {
		case <-ctx.Done():
			ix.logger.Info("periodic sync stopped")
			return
		case <-ticker.C:
			result := ix.performSyncVerification(ctx)
			totalDiscrepancies := result.MissingFiles + result.StaleFiles + result.ModifiedFiles
			if totalDiscrepancies > 0 {
				ix.logger.Info("sync verification complete",
					"missing", result.MissingFiles,
					"stale", result.StaleFiles,
					"modified", result.ModifiedFiles,
					"duration", result.Duration,
				)
			} else {
				ix.logger.Debug("sync verification complete, index is in sync", "duration", result.Duration)
			}
		}
	}
}

// performSyncVerification compares the filesystem with the current index state
// and re-indexes any out-of-sync files.
func (ix *indexer) performSyncVerification(ctx context.Context) SyncResult {
	start := time.Now()
	var result SyncResult

	diskFiles := make(map[string]os.FileInfo) // key: relative path (forward slashes)
	if err := ix.walk(ctx, func(path string, relPath string, info os.FileInfo) {
		diskFiles[relPath] = info
	}); err != nil {
		ix.logger.Debug("sync: walk interrupted", "error", err)
		result.Duration = time.Since(start)
		return result
	}

	indexedFiles := ix.fileIndex.AllFiles()
	indexedSet := make(map[string]*index.IndexedFile, len(indexedFiles))
	for _, f := range indexedFiles {
		indexedSet[f.RelativePath] = f
	}

	for relPath, info := range diskFiles {
		absPath := filepath.Join(ix.rootDir, filepath.FromSlash(relPath))
		indexed, exists := indexedSet[relPath]

		if !exists {
			if _, err := ix.indexFile(absPath, relPath, info); err != nil {
				ix.logger.Debug("sync: skipped missing file", "path", relPath, "error", err)
				continue
			}
			ix.logger.Info("sync: indexed missing file", "path", relPath)
			result.MissingFiles++
			continue
		}

		if info.ModTime().Equal(indexed.ModTime) {
			continue
		}
		changed, err := ix.indexFile(absPath, relPath, info)
		if err != nil {
			ix.logger.Debug("sync: skipped modified file", "path", relPath, "error", err)
			continue
		}
		if changed {
			ix.logger.Info("sync: re-indexed modified file", "path", relPath)
			result.ModifiedFiles++
		}
	}

	for relPath := range indexedSet {
		if _, exists := diskFiles[relPath]; !exists {
			ix.removeFile(relPath)
			ix.logger.Info("sync: removed stale file", "path", relPath)
			result.StaleFiles++
		}
	}

	result.Duration = time.Since(start)
	return result
}
