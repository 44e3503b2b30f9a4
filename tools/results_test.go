package tools

import (
	"context"
	"strings"
	"testing"

	"github.com/lexandro/gotoword-mcp/occurrence"
)

func newTestResultsHandler(t *testing.T, files map[string]string) *ResultsHandler {
	t.Helper()
	return &ResultsHandler{
		Store:        occurrence.NewStore(4),
		Texts:        newTestWordIndex(t, files),
		DefaultLimit: 50,
		Logger:       discardLogger(),
	}
}

func Test_ResultsHandler_MissingID(t *testing.T) {
	h := newTestResultsHandler(t, nil)

	result, _, err := h.Handle(context.Background(), nil, ResultsArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true for missing resultId")
	}
}

func Test_ResultsHandler_UnknownID(t *testing.T) {
	h := newTestResultsHandler(t, nil)

	result, _, _ := h.Handle(context.Background(), nil, ResultsArgs{ResultID: "nope"})
	if !result.IsError {
		t.Fatal("expected IsError=true for unknown resultId")
	}
	if text := resultText(t, result); !strings.Contains(text, "Unknown or expired result ID: nope") {
		t.Errorf("unexpected message: %s", text)
	}
}

func Test_ResultsHandler_NegativeOffset(t *testing.T) {
	h := newTestResultsHandler(t, nil)

	result, _, _ := h.Handle(context.Background(), nil, ResultsArgs{ResultID: "x", Offset: -1})
	if !result.IsError {
		t.Fatal("expected IsError=true for negative offset")
	}
}

func Test_ResultsHandler_ReplaysPage(t *testing.T) {
	h := newTestResultsHandler(t, map[string]string{"a.txt": "aaaa"})
	id := h.Store.Put(occurrence.SearchResult{
		Filter: "aa",
		Mode:   occurrence.CaseSensitive,
		Occurrences: []occurrence.Occurrence{
			{File: "a.txt", Start: 0, Length: 2},
			{File: "a.txt", Start: 1, Length: 2},
			{File: "a.txt", Start: 2, Length: 2},
		},
	})

	result, _, err := h.Handle(context.Background(), nil, ResultsArgs{ResultID: id, Offset: 2, Limit: 5})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	text := resultText(t, result)

	if !strings.Contains(text, "a.txt:1:3: aaaa") {
		t.Errorf("expected third occurrence, got:\n%s", text)
	}
	if strings.Contains(text, "a.txt:1:1:") {
		t.Errorf("expected first page to be skipped, got:\n%s", text)
	}
	if strings.Contains(text, "Showing") {
		t.Errorf("expected no footer on the last page, got:\n%s", text)
	}
}

func Test_ResultsHandler_OffsetPastEnd(t *testing.T) {
	h := newTestResultsHandler(t, map[string]string{"a.txt": "cat"})
	id := h.Store.Put(occurrence.SearchResult{
		Filter:      "cat",
		Occurrences: []occurrence.Occurrence{{File: "a.txt", Start: 0, Length: 3}},
	})

	result, _, _ := h.Handle(context.Background(), nil, ResultsArgs{ResultID: id, Offset: 10})
	if text := resultText(t, result); !strings.Contains(text, "Offset 10 is past the last occurrence") {
		t.Errorf("unexpected output:\n%s", text)
	}
}

func Test_ResultsHandler_ReplayAfterFileChanged(t *testing.T) {
	wi := newTestWordIndex(t, map[string]string{"a.go": "needle here"})
	h := &ResultsHandler{Store: occurrence.NewStore(4), Texts: wi, DefaultLimit: 50, Logger: discardLogger()}

	scope := occurrence.Scope{Mode: occurrence.CaseSensitive, Index: wi, Texts: wi}
	found, ok := occurrence.SearchOccurrences("needle", scope, occurrence.Never)
	if !ok {
		t.Fatal("expected an occurrence")
	}
	id := h.Store.Put(found)

	if err := wi.IndexFile("a.go", "completely different text"); err != nil {
		t.Fatal(err)
	}

	result, _, _ := h.Handle(context.Background(), nil, ResultsArgs{ResultID: id})
	text := resultText(t, result)
	if !strings.Contains(text, "a.go:@0: (file changed)") {
		t.Errorf("expected changed marker, got:\n%s", text)
	}
	if strings.Contains(text, "completely different text") {
		t.Errorf("expected stale location not to be shown, got:\n%s", text)
	}
}
