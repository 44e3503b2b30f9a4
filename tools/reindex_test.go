package tools

import (
	"context"
	"fmt"
	"strings"
	"testing"
	"time"
)

func Test_ReindexHandler_Success(t *testing.T) {
	h := &ReindexHandler{
		DoReindex: func(ctx context.Context) (int, int64, error) {
			return 42, 1024 * 1024, nil
		},
		Logger: discardLogger(),
	}

	result, _, err := h.Handle(context.Background(), nil, ReindexArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.IsError {
		t.Fatal("expected success, got error result")
	}

	text := resultText(t, result)
	if !strings.Contains(text, "Reindex complete") {
		t.Errorf("expected 'Reindex complete', got:\n%s", text)
	}
	if !strings.Contains(text, "42 files") {
		t.Errorf("expected file count '42', got:\n%s", text)
	}
	if !strings.Contains(text, "1.0 MB") {
		t.Errorf("expected formatted size '1.0 MB', got:\n%s", text)
	}
}

func Test_ReindexHandler_Error(t *testing.T) {
	h := &ReindexHandler{
		DoReindex: func(ctx context.Context) (int, int64, error) {
			return 0, 0, fmt.Errorf("disk full")
		},
		Logger: discardLogger(),
	}

	result, _, err := h.Handle(context.Background(), nil, ReindexArgs{})
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !result.IsError {
		t.Fatal("expected IsError=true for failed reindex")
	}
	if text := resultText(t, result); !strings.Contains(text, "disk full") {
		t.Errorf("expected error message 'disk full', got: %s", text)
	}
}

func Test_ReindexHandler_Throttled(t *testing.T) {
	calls := 0
	h := &ReindexHandler{
		DoReindex: func(ctx context.Context) (int, int64, error) {
			calls++
			return 1, 1, nil
		},
		Limiter: NewReindexLimiter(time.Hour),
		Logger:  discardLogger(),
	}

	first, _, _ := h.Handle(context.Background(), nil, ReindexArgs{})
	if first.IsError {
		t.Fatalf("expected first reindex to run, got: %s", resultText(t, first))
	}

	second, _, _ := h.Handle(context.Background(), nil, ReindexArgs{})
	if !second.IsError {
		t.Fatal("expected second reindex to be throttled")
	}
	if text := resultText(t, second); !strings.Contains(text, "Reindex throttled") {
		t.Errorf("unexpected message: %s", text)
	}
	if calls != 1 {
		t.Errorf("expected 1 rebuild, got %d", calls)
	}
}

func Test_NewReindexLimiter_ZeroDisables(t *testing.T) {
	if NewReindexLimiter(0) != nil {
		t.Error("expected nil limiter for zero cooldown")
	}
}
