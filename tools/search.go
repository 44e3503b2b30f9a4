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

// SearchIndex is what the search tools read: the word index and the texts it was built from.
type SearchIndex interface {
	occurrence.WordIndexLookup
	occurrence.FileTextProvider
}

// SearchArgs defines the input parameters for the gotoword_search tool.
type SearchArgs struct {
	Filter        string `json:"filter" jsonschema:"Text to find. Every occurrence is reported, including overlapping ones and matches inside longer words"`
	CaseSensitive *bool  `json:"caseSensitive,omitempty" jsonschema:"Match case exactly. Defaults to the server setting"`
	FileGlob      string `json:"fileGlob,omitempty" jsonschema:"Optional glob pattern to restrict the searched files (e.g. **/*.go)"`
	MaxResults    int    `json:"maxResults,omitempty" jsonschema:"Number of occurrences shown on the first page (default 50). All occurrences are kept for gotoword_results"`
	TimeoutMs     int    `json:"timeoutMs,omitempty" jsonschema:"Stop searching after this many milliseconds and return what was found so far"`
}

// SearchHandler holds the dependencies for the search tool.
type SearchHandler struct {
	Index   SearchIndex
	Store   *occurrence.Store
	Session *occurrence.Session
	// DefaultMode applies when a request does not set caseSensitive.
	DefaultMode       occurrence.ComparisonMode
	DefaultMaxResults int
	DefaultTimeout    time.Duration
	Logger            *slog.Logger
}

// Handle processes a gotoword_search request.
func (h *SearchHandler) Handle(ctx context.Context, req *mcp.CallToolRequest, args SearchArgs) (*mcp.CallToolResult, any, error) {
	start := time.Now()

	if args.Filter == "" {
		h.Logger.Warn("gotoword_search called with empty filter")
		return errorResult("Error: filter parameter is required"), nil, nil
	}

	files, err := index.GlobFilter(args.FileGlob)
	if err != nil {
		return errorResult(fmt.Sprintf("Search error: %v", err)), nil, nil
	}

	mode := h.DefaultMode
	if args.CaseSensitive != nil {
		mode = occurrence.CaseInsensitive
		if *args.CaseSensitive {
			mode = occurrence.CaseSensitive
		}
	}

	timeout := h.DefaultTimeout
	if args.TimeoutMs > 0 {
		timeout = time.Duration(args.TimeoutMs) * time.Millisecond
	}
	if timeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, timeout)
		defer cancel()
	}

	scope := occurrence.Scope{Mode: mode, Index: h.Index, Texts: h.Index, Files: files}
	result, found := h.session().Run(args.Filter, scope, occurrence.CancelOnDone(ctx))

	h.Logger.Info("gotoword_search",
		"filter", args.Filter,
		"mode", mode,
		"fileGlob", args.FileGlob,
		"occurrences", len(result.Occurrences),
		"cancelled", result.Cancelled,
		"elapsed", time.Since(start),
	)

	if !found {
		return textResult("No occurrences found."), nil, nil
	}

	resultID := h.Store.Put(result)
	limit := args.MaxResults
	if limit <= 0 {
		limit = h.DefaultMaxResults
	}
	return textResult(FormatOccurrences(resultID, result, h.Index, 0, limit)), nil, nil
}

func (h *SearchHandler) session() *occurrence.Session {
	if h.Session != nil {
		return h.Session
	}
	return &occurrence.Session{Logger: h.Logger}
}
