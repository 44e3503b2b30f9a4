package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"golang.org/x/time/rate"
)

// ReindexArgs defines the input parameters for the gotoword_reindex tool.
type ReindexArgs struct{}

// ReindexFunc rebuilds both indexes. It is provided by main to avoid circular dependencies.
type ReindexFunc func(ctx context.Context) (indexedCount int, totalSize int64, err error)

// ReindexHandler holds the dependencies for the reindex tool.
type ReindexHandler struct {
	DoReindex ReindexFunc
	// Limiter throttles full rebuilds; nil allows every request.
	Limiter *rate.Limiter
	Logger  *slog.Logger
}

// NewReindexLimiter allows one rebuild per cooldown. A zero cooldown disables throttling.
func NewReindexLimiter(cooldown time.Duration) *rate.Limiter {
	if cooldown <= 0 {
		return nil
	}
	return rate.NewLimiter(rate.Every(cooldown), 1)
}

// Handle processes a gotoword_reindex request.
func (h *ReindexHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ReindexArgs) (*mcp.CallToolResult, any, error) {
	if h.Limiter != nil {
		reservation := h.Limiter.Reserve()
		if delay := reservation.Delay(); delay > 0 {
			reservation.Cancel()
			h.Logger.Info("gotoword_reindex throttled", "retryIn", delay)
			return errorResult(fmt.Sprintf("Reindex throttled: try again in %s", delay.Round(time.Second))), nil, nil
		}
	}

	h.Logger.Info("gotoword_reindex started")
	start := time.Now()

	indexedCount, totalSize, err := h.DoReindex(ctx)
	if err != nil {
		h.Logger.Error("gotoword_reindex failed", "error", err)
		return errorResult(fmt.Sprintf("Reindex error: %v", err)), nil, nil
	}

	elapsed := time.Since(start).Round(time.Millisecond)
	h.Logger.Info("gotoword_reindex complete",
		"files", indexedCount,
		"totalSize", totalSize,
		"elapsed", elapsed,
	)

	output := fmt.Sprintf("Reindex complete: %d files (%s) in %s",
		indexedCount, formatFileSize(totalSize), elapsed)

	return textResult(output), nil, nil
}
