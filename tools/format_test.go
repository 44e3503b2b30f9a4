package tools

import (
	"strings"
	"testing"
	"time"

	"github.com/lexandro/gotoword-mcp/occurrence"
)

// --- formatFileSize ---

func Test_FormatFileSize_Bytes(t *testing.T) {
	got := formatFileSize(500)
	if got != "500 B" {
		t.Errorf("expected '500 B', got '%s'", got)
	}
}

func Test_FormatFileSize_Kilobytes(t *testing.T) {
	got := formatFileSize(2048)
	if got != "2.0 KB" {
		t.Errorf("expected '2.0 KB', got '%s'", got)
	}
}

func Test_FormatFileSize_Megabytes(t *testing.T) {
	got := formatFileSize(3 * 1024 * 1024)
	if got != "3.0 MB" {
		t.Errorf("expected '3.0 MB', got '%s'", got)
	}
}

// --- formatDuration ---

func Test_FormatDuration(t *testing.T) {
	tests := []struct {
		name     string
		duration time.Duration
		expected string
	}{
		{"Seconds_zero", 0, "0s"},
		{"Seconds_59", 59 * time.Second, "59s"},
		{"Minutes_5m30s", 5*time.Minute + 30*time.Second, "5m30s"},
		{"Hours_1h30m", 90 * time.Minute, "1h30m"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatDuration(tt.duration)
			if got != tt.expected {
				t.Errorf("formatDuration(%v) = %q, want %q", tt.duration, got, tt.expected)
			}
		})
	}
}

// --- Locate ---

func Test_Locate(t *testing.T) {
	text := "first line\r\nsecond héllo line\nlast"

	tests := []struct {
		name   string
		start  int
		line   int
		column int
		lineTx string
	}{
		{"StartOfText", 0, 1, 1, "first line"},
		{"CRLFLine", strings.Index(text, "second"), 2, 1, "second héllo line"},
		{"AfterMultiByteRune", strings.Index(text, "llo"), 2, 10, "second héllo line"},
		{"LastLineNoNewline", strings.Index(text, "last"), 3, 1, "last"},
		{"EndOfText", len(text), 3, 5, "last"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Locate(text, tt.start)
			if !ok {
				t.Fatal("expected offset to be located")
			}
			if got.Line != tt.line || got.Column != tt.column || got.LineText != tt.lineTx {
				t.Errorf("Locate(%d) = %+v, want line %d col %d text %q", tt.start, got, tt.line, tt.column, tt.lineTx)
			}
		})
	}
}

func Test_Locate_OutOfRange(t *testing.T) {
	if _, ok := Locate("abc", 4); ok {
		t.Error("expected offset past the text to fail")
	}
	if _, ok := Locate("abc", -1); ok {
		t.Error("expected negative offset to fail")
	}
}

func Test_Locate_TruncatesLongLines(t *testing.T) {
	text := strings.Repeat("x", maxLineTextLen+50)
	got, _ := Locate(text, 0)
	if len(got.LineText) != maxLineTextLen+len("...") || !strings.HasSuffix(got.LineText, "...") {
		t.Errorf("expected truncated line, got %d bytes", len(got.LineText))
	}
}

// --- FormatOccurrences ---

type mapTexts map[occurrence.FileHandle]string

func (m mapTexts) CurrentText(file occurrence.FileHandle) (string, bool) {
	text, ok := m[file]
	return text, ok
}

func Test_FormatOccurrences_Empty(t *testing.T) {
	got := FormatOccurrences("id", occurrence.SearchResult{}, mapTexts{}, 0, 10)
	if got != "No occurrences found." {
		t.Errorf("expected 'No occurrences found.', got %q", got)
	}
}

func Test_FormatOccurrences_MissingAndChangedFiles(t *testing.T) {
	result := occurrence.SearchResult{
		Filter:    "cat",
		Mode:      occurrence.CaseInsensitive,
		Cancelled: true,
		Occurrences: []occurrence.Occurrence{
			{File: "gone.txt", Start: 0, Length: 3},
			{File: "short.txt", Start: 40, Length: 3},
			{File: "ok.txt", Start: 4, Length: 3},
		},
	}
	texts := mapTexts{"short.txt": "cat", "ok.txt": "the cat"}

	got := FormatOccurrences("abc", result, texts, 0, 10)

	checks := []string{
		`Found 3 occurrences of "cat" (case-insensitive) in 3 files (partial: search was cancelled)`,
		"Result ID: abc",
		"gone.txt:@0: (file no longer indexed)",
		"short.txt:@40: (file changed)",
		"ok.txt:1:5: the cat",
	}
	for _, check := range checks {
		if !strings.Contains(got, check) {
			t.Errorf("expected output to contain %q, got:\n%s", check, got)
		}
	}
}

func Test_FormatOccurrences_SpanNoLongerMatches(t *testing.T) {
	result := occurrence.SearchResult{
		Filter: "Cat",
		Mode:   occurrence.CaseSensitive,
		Occurrences: []occurrence.Occurrence{
			{File: "a.txt", Start: 0, Length: 3},
			{File: "b.txt", Start: 0, Length: 3},
		},
	}
	texts := mapTexts{"a.txt": "Cat", "b.txt": "cat"}

	got := FormatOccurrences("id", result, texts, 0, 10)
	if !strings.Contains(got, "a.txt:1:1: Cat") {
		t.Errorf("expected a.txt to be located, got:\n%s", got)
	}
	if !strings.Contains(got, "b.txt:@0: (file changed)") {
		t.Errorf("expected case-sensitive mismatch to be reported as changed, got:\n%s", got)
	}
}

// --- FormatCandidates ---

func Test_FormatCandidates(t *testing.T) {
	got := FormatCandidates("cat", []occurrence.FileHandle{"a.txt", "b.txt"})
	if got != "2 candidate files for \"cat\":\n\na.txt\nb.txt\n" {
		t.Errorf("unexpected output: %q", got)
	}
}
