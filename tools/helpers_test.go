package tools

import (
	"io"
	"log/slog"
	"testing"

	"github.com/lexandro/gotoword-mcp/index"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

func discardLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestWordIndex(t *testing.T, files map[string]string) *index.WordIndex {
	t.Helper()
	wi, err := index.NewWordIndex(discardLogger())
	if err != nil {
		t.Fatalf("failed to create word index: %v", err)
	}
	t.Cleanup(func() { wi.Close() })

	for path, content := range files {
		if err := wi.IndexFile(path, content); err != nil {
			t.Fatalf("failed to index %s: %v", path, err)
		}
	}
	return wi
}

func resultText(t *testing.T, result *mcp.CallToolResult) string {
	t.Helper()
	if len(result.Content) == 0 {
		t.Fatal("expected content in tool result")
	}
	return result.Content[0].(*mcp.TextContent).Text
}
