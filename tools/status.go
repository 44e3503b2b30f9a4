package tools

import (
	"context"
	"fmt"
	"log/slog"
	"runtime"
	"strings"
	"time"

	"github.com/lexandro/gotoword-mcp/index"
	"github.com/lexandro/gotoword-mcp/occurrence"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// StatusArgs defines the input parameters for the gotoword_status tool (none required).
type StatusArgs struct{}

// StatusHandler holds the dependencies for the status tool.
type StatusHandler struct {
	FileIndex *index.FileIndex
	WordIndex *index.WordIndex
	Store     *occurrence.Store
	StartTime time.Time
	RootDir   string
	Logger    *slog.Logger
}

// Handle processes a gotoword_status request.
func (h *StatusHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args StatusArgs) (*mcp.CallToolResult, any, error) {
	var builder strings.Builder

	fileCount := h.FileIndex.FileCount()
	totalSize := h.FileIndex.TotalSizeBytes()
	totalLines := h.FileIndex.TotalLines()
	docCount := h.WordIndex.DocumentCount()
	wordCount := h.WordIndex.WordCount()
	uptime := time.Since(h.StartTime)

	// Memory stats
	var memStats runtime.MemStats
	runtime.ReadMemStats(&memStats)

	h.Logger.Info("gotoword_status",
		"files", fileCount,
		"words", wordCount,
		"totalSize", totalSize,
		"memory", memStats.Alloc,
		"uptime", uptime,
	)

	builder.WriteString("=== gotoword-mcp Status ===\n\n")
	builder.WriteString(fmt.Sprintf("Root directory: %s\n", h.RootDir))
	builder.WriteString(fmt.Sprintf("Uptime: %s\n", formatDuration(uptime)))
	builder.WriteString(fmt.Sprintf("Indexed files: %d (%d lines)\n", fileCount, totalLines))
	builder.WriteString(fmt.Sprintf("Word-indexed documents: %d\n", docCount))
	builder.WriteString(fmt.Sprintf("Distinct words: %d\n", wordCount))
	builder.WriteString(fmt.Sprintf("Total indexed size: %s\n", formatFileSize(totalSize)))
	if h.Store != nil {
		builder.WriteString(fmt.Sprintf("Stored search results: %d\n", h.Store.Len()))
	}
	builder.WriteString(fmt.Sprintf("Memory usage: %s (heap: %s)\n",
		formatFileSize(int64(memStats.Alloc)),
		formatFileSize(int64(memStats.HeapAlloc)),
	))

	return textResult(builder.String()), nil, nil
}
