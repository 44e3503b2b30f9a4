package tools

import (
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/lexandro/gotoword-mcp/occurrence"
	"github.com/modelcontextprotocol/go-sdk/mcp"
)

// maxLineTextLen caps the line text printed next to an occurrence.
const maxLineTextLen = 200

// Location is the human position of an occurrence: 1-based line, 1-based rune column.
type Location struct {
	Line     int
	Column   int
	LineText string
}

// Locate converts a byte offset into a line and column of text. ok is false when the
// offset no longer fits the text, e.g. after the file shrank.
func Locate(text string, start int) (Location, bool) {
	if start < 0 || start > len(text) {
		return Location{}, false
	}

	lineStart := strings.LastIndexByte(text[:start], '\n') + 1
	lineEnd := strings.IndexByte(text[start:], '\n')
	if lineEnd < 0 {
		lineEnd = len(text)
	} else {
		lineEnd += start
	}

	lineText := strings.TrimRight(text[lineStart:lineEnd], "\r")
	if len(lineText) > maxLineTextLen {
		cut := maxLineTextLen
		for cut > 0 && !utf8.RuneStart(lineText[cut]) {
			cut--
		}
		lineText = lineText[:cut] + "..."
	}

	return Location{
		Line:     strings.Count(text[:lineStart], "\n") + 1,
		Column:   utf8.RuneCountInString(text[lineStart:start]) + 1,
		LineText: lineText,
	}, true
}

// FormatOccurrences renders one page of a search result as "path:line:col: text" lines.
// Positions are resolved against the texts the provider currently holds; an occurrence
// whose span no longer holds the filter is reported as changed.
func FormatOccurrences(resultID string, result occurrence.SearchResult, texts occurrence.FileTextProvider, offset int, limit int) string {
	total := len(result.Occurrences)
	if total == 0 {
		return "No occurrences found."
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("Found %d occurrences of %q (%s) in %d files",
		total, result.Filter, result.Mode, countFiles(result.Occurrences)))
	if result.Cancelled {
		builder.WriteString(" (partial: search was cancelled)")
	}
	builder.WriteString("\n")
	builder.WriteString(fmt.Sprintf("Result ID: %s\n\n", resultID))

	if offset >= total {
		builder.WriteString(fmt.Sprintf("Offset %d is past the last occurrence.\n", offset))
		return builder.String()
	}
	end := min(total, offset+limit)

	for _, o := range result.Occurrences[offset:end] {
		text, ok := texts.CurrentText(o.File)
		if !ok {
			builder.WriteString(fmt.Sprintf("%s:@%d: (file no longer indexed)\n", o.File, o.Start))
			continue
		}
		location, ok := Locate(text, o.Start)
		if !ok || !o.MatchesIn(text, result.Filter, result.Mode) {
			builder.WriteString(fmt.Sprintf("%s:@%d: (file changed)\n", o.File, o.Start))
			continue
		}
		builder.WriteString(fmt.Sprintf("%s:%d:%d: %s\n", o.File, location.Line, location.Column, location.LineText))
	}

	if end < total {
		builder.WriteString(fmt.Sprintf("\nShowing %d-%d of %d. Call gotoword_results with resultId %q and offset %d for more.\n",
			offset+1, end, total, resultID, end))
	}
	return builder.String()
}

// FormatCandidates lists the files an occurrence search would scan.
func FormatCandidates(filter string, files []occurrence.FileHandle) string {
	if len(files) == 0 {
		return fmt.Sprintf("No candidate files for %q.", filter)
	}

	var builder strings.Builder
	builder.WriteString(fmt.Sprintf("%d candidate files for %q:\n\n", len(files), filter))
	for _, file := range files {
		builder.WriteString(string(file))
		builder.WriteString("\n")
	}
	return builder.String()
}

func countFiles(occurrences []occurrence.Occurrence) int {
	files := 0
	var last occurrence.FileHandle
	for i, o := range occurrences {
		// occurrences are grouped by file
		if i == 0 || o.File != last {
			files++
			last = o.File
		}
	}
	return files
}

// formatFileSize converts bytes to a human-readable string.
func formatFileSize(bytes int64) string {
	switch {
	case bytes >= 1024*1024:
		return fmt.Sprintf("%.1f MB", float64(bytes)/(1024*1024))
	case bytes >= 1024:
		return fmt.Sprintf("%.1f KB", float64(bytes)/1024)
	default:
		return fmt.Sprintf("%d B", bytes)
	}
}

// formatDuration formats a duration in a human-readable way.
func formatDuration(d time.Duration) string {
	totalSeconds := int(d.Seconds())
	if totalSeconds < 60 {
		return fmt.Sprintf("%ds", totalSeconds)
	}
	totalMinutes := totalSeconds / 60
	remainderSeconds := totalSeconds % 60
	if totalMinutes < 60 {
		return fmt.Sprintf("%dm%ds", totalMinutes, remainderSeconds)
	}
	hours := totalMinutes / 60
	remainderMinutes := totalMinutes % 60
	return fmt.Sprintf("%dh%dm", hours, remainderMinutes)
}

func textResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
	}
}

func errorResult(text string) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: text}},
		IsError: true,
	}
}
