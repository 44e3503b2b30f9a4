package occurrence

import (
	"io"
	"log/slog"
)

// Session runs occurrence searches. It keeps no state between runs, so the same filter
// against the same scope snapshot always yields the same result.
type Session struct {
	Scanner Scanner
	Logger  *slog.Logger
}

var defaultSession = &Session{}

// SearchOccurrences runs a search with the default session.
func SearchOccurrences(filter string, scope Scope, shouldCancel CancelFunc) (SearchResult, bool) {
	return defaultSession.Run(filter, scope, shouldCancel)
}

// Run searches every candidate file for filter. ok is false when there is nothing to
// show: the filter is empty, no project is active, or nothing matched. A cancelled
// search that already found occurrences still returns them, with Cancelled set.
func (s *Session) Run(filter string, scope Scope, shouldCancel CancelFunc) (result SearchResult, ok bool) {
	if filter == "" || !scope.active() {
		return SearchResult{}, false
	}
	if shouldCancel == nil {
		shouldCancel = Never
	}
	logger := s.logger()

	candidates := SelectCandidates(filter, scope.Mode, scope.Index)
	result = SearchResult{Filter: filter, Mode: scope.Mode}

	scanned, skipped := 0, 0
	for _, file := range candidates {
		if scope.Files != nil && !scope.Files(file) {
			continue
		}
		text, readable := scope.Texts.CurrentText(file)
		if !readable {
			skipped++
			continue
		}

		found, cancelled := s.Scanner.Scan(file, text, filter, scope.Mode, shouldCancel)
		result.Occurrences = append(result.Occurrences, found...)
		scanned++
		if cancelled || shouldCancel() {
			result.Cancelled = true
			break
		}
	}

	logger.Debug("occurrence search finished",
		"filter", filter,
		"mode", scope.Mode.String(),
		"candidates", len(candidates),
		"scanned", scanned,
		"skipped", skipped,
		"occurrences", len(result.Occurrences),
		"cancelled", result.Cancelled,
	)

	if len(result.Occurrences) == 0 {
		return SearchResult{}, false
	}
	return result, true
}

func (s *Session) logger() *slog.Logger {
	if s.Logger != nil {
		return s.Logger
	}
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}
