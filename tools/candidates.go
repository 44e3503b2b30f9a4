package tools

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/lexandro/gotoword-mcp/index"
	"github.com/lexandro/gotoword-mcp/occurrence"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// CandidatesArgs defines the input parameters for the gotoword_candidates tool.
type CandidatesArgs struct {
	Filter   string `json:"filter" jsonschema:"Text whose candidate files should be listed"`
	FileGlob string `json:"fileGlob,omitempty" jsonschema:"Optional glob pattern to restrict the listed files (e.g. **/*.go)"`
}

// CandidatesHandler lists the files a search for a filter would scan.
type CandidatesHandler struct {
	Index  occurrence.WordIndexLookup
	Logger *slog.Logger
}

// Handle processes a gotoword_candidates request.
func (h *CandidatesHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args CandidatesArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Filter == "" {
		h.Logger.Warn("gotoword_candidates called with empty filter")
		return errorResult("Error: filter parameter is required"), nil, nil
	}

	keep, err := index.GlobFilter(args.FileGlob)
	if err != nil {
		return errorResult(fmt.Sprintf("Search error: %v", err)), nil, nil
	}

	candidates := occurrence.SelectCandidates(args.Filter, occurrence.CaseInsensitive, h.Index)
	if keep != nil {
		filtered := candidates[:0]
		for _, file := range candidates {
			if keep(file) {
				filtered = append(filtered, file)
			}
		}
		candidates = filtered
	}

	h.Logger.Info("gotoword_candidates",
		"filter", args.Filter,
		"fileGlob", args.FileGlob,
		"candidates", len(candidates),
		"elapsed", time.Since(start),
	)

	return textResult(FormatCandidates(args.Filter, candidates)), nil, nil
}
