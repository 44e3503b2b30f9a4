package server

import (
	"github.com/lexandro/gotoword-mcp/tools"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// Version is reported to MCP clients.
const Version = "0.1.0"

// Handlers groups the tool handlers registered on the server.
type Handlers struct {
	Search     *tools.SearchHandler
	Results    *tools.ResultsHandler
	Candidates *tools.CandidatesHandler
	Status     *tools.StatusHandler
	Reindex    *tools.ReindexHandler
}

// Setup creates and configures the MCP server with all tool registrations.
func Setup(handlers Handlers) *mcp.Server {
	mcpServer := mcp.NewServer(
		&mcp.Implementation{
			Name:    "gotoword-mcp",
			Version: Version,
		},
		&mcp.ServerOptions{
			Instructions: `This server finds every textual occurrence of a piece of text across the project, served from an in-memory word index that updates when files change.

Use gotoword_search to find all occurrences of a filter, including matches inside longer words and overlapping matches.
Use gotoword_results with the returned result ID to page through a large result without searching again.
Use gotoword_candidates to see which files a search would scan.`,
		},
	)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name: "gotoword_search",
		Description: `Find every occurrence of a filter in the indexed files. Results are reported as "path:line:col: line text".

Matching:
  - Substring matching: "cat" also matches inside "category" and "concatenate".
  - Overlapping matches are reported: "aa" occurs 3 times in "aaaa".
  - caseSensitive: set to false for case-insensitive matching (default follows the server setting).

Filtering and limits:
  - fileGlob: glob pattern to restrict the searched files (e.g. "**/*.go").
  - timeoutMs: stop after this long and return the occurrences found so far, marked as partial.
  - maxResults: size of the first page. Use gotoword_results for the rest.`,
	}, handlers.Search.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "gotoword_results",
		Description: "Show a page of a stored gotoword_search result by its result ID, without searching again. Older results expire as new searches are stored.",
	}, handlers.Results.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "gotoword_candidates",
		Description: "List the files a gotoword_search for the given filter would scan, as selected from the word index.",
	}, handlers.Candidates.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "gotoword_status",
		Description: "Show index status: file count, distinct words, size, stored results, memory usage, and uptime.",
	}, handlers.Status.Handle)

	mcp.AddTool(mcpServer, &mcp.Tool{
		Name:        "gotoword_reindex",
		Description: "Force a full re-index of the project. Clears the existing index and rebuilds it from scratch. Throttled to avoid repeated rebuilds.",
	}, handlers.Reindex.Handle)

	return mcpServer
}
