package tools

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/lexandro/gotoword-mcp/occurrence"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// ResultsArgs defines the input parameters for the gotoword_results tool.
type ResultsArgs struct {
	ResultID string `json:"resultId" jsonschema:"Result ID returned by gotoword_search"`
	Offset   int    `json:"offset,omitempty" jsonschema:"Index of the first occurrence to show (default 0)"`
	Limit    int    `json:"limit,omitempty" jsonschema:"Number of occurrences to show (default 50)"`
}

// ResultsHandler replays stored search results without searching again.
type ResultsHandler struct {
	Store        *occurrence.Store
	Texts        occurrence.FileTextProvider
	DefaultLimit int
	Logger       *slog.Logger
}

// Handle processes a gotoword_results request.
func (h *ResultsHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args ResultsArgs) (*mcp.CallToolResult, any, error) {
	if args.ResultID == "" {
		h.Logger.Warn("gotoword_results called with empty resultId")
		return errorResult("Error: resultId parameter is required"), nil, nil
	}
	if args.Offset < 0 {
		return errorResult("Error: offset must not be negative"), nil, nil
	}

	result, ok := h.Store.Get(args.ResultID)
	if !ok {
		h.Logger.Info("gotoword_results unknown id", "resultId", args.ResultID)
		return errorResult(fmt.Sprintf("Unknown or expired result ID: %s", args.ResultID)), nil, nil
	}

	limit := args.Limit
	if limit <= 0 {
		limit = h.DefaultLimit
	}

	h.Logger.Info("gotoword_results",
		"resultId", args.ResultID,
		"offset", args.Offset,
		"limit", limit,
		"total", len(result.Occurrences),
	)

	return textResult(FormatOccurrences(args.ResultID, result, h.Texts, args.Offset, limit)), nil, nil
}
