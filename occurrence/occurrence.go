// Package occurrence finds every textual occurrence of a filter string across a set of
// indexed files. A word index prunes the files worth scanning, each candidate's text is
// scanned under a comparison mode, and the caller can cancel between matches and files.
package occurrence

import (
	"context"
	"strings"
)

// ComparisonMode selects how the filter is compared against file text.
type ComparisonMode int

const (
	// CaseSensitive compares bytes ordinally.
	CaseSensitive ComparisonMode = iota
	// CaseInsensitive compares under simple Unicode case folding (locale independent).
	CaseInsensitive
)

func (m ComparisonMode) String() string {
	if m == CaseInsensitive {
		return "case-insensitive"
	}
	return "case-sensitive"
}

// LibrariesFlag describes how far a search reaches beyond the project's own files.
type LibrariesFlag int

const (
	// SolutionOnly searches only the project's own files.
	SolutionOnly LibrariesFlag = iota
	// SolutionAndLibraries also searches library files.
	SolutionAndLibraries
)

// ModeForScope derives the comparison mode for a search scope. Project-only searches are
// case-sensitive; searches that reach into libraries ignore case.
func ModeForScope(flag LibrariesFlag) ComparisonMode {
	if flag == SolutionOnly {
		return CaseSensitive
	}
	return CaseInsensitive
}

// FileHandle identifies one indexed file. It is the forward-slash path relative to the
// project root, which is enough to navigate to a location.
type FileHandle string

// Kind classifies an occurrence.
type Kind int

const (
	// TextualMatch is a literal occurrence of the filter in file text.
	TextualMatch Kind = iota
)

// Occurrence is one located match of the filter in one file. Start and Length are byte
// offsets into the text the file had when it was scanned.
type Occurrence struct {
	File   FileHandle
	Start  int
	Length int
	Kind   Kind
}

// End returns the offset just past the match.
func (o Occurrence) End() int {
	return o.Start + o.Length
}

// MatchesIn reports whether text still holds filter at the occurrence's span under mode.
// A stored occurrence stops matching once its file changes underneath it.
func (o Occurrence) MatchesIn(text string, filter string, mode ComparisonMode) bool {
	if o.Start < 0 || o.Length < 0 || o.End() > len(text) {
		return false
	}
	span := text[o.Start:o.End()]
	if mode == CaseInsensitive {
		return strings.EqualFold(span, filter)
	}
	return span == filter
}

// SearchResult is the ordered set of occurrences found for one filter.
// Cancelled is set when the search stopped early; the occurrences are still valid.
type SearchResult struct {
	Filter      string
	Mode        ComparisonMode
	Occurrences []Occurrence
	Cancelled   bool
}

// WordIndexLookup is the read-only view of a word index the selector needs.
type WordIndexLookup interface {
	// WordsContaining returns the indexed words that contain substring.
	WordsContaining(substring string) []string
	// FilesContainingWord returns the files known to contain word.
	FilesContainingWord(word string) []FileHandle
}

// FileTextProvider returns the current text of a file. ok is false when the file is
// unreadable, closed or deleted.
type FileTextProvider interface {
	CurrentText(file FileHandle) (text string, ok bool)
}

// FileFilter reports whether a candidate file should be scanned.
type FileFilter func(file FileHandle) bool

// Scope bundles what one search runs against. A scope without an index or a text
// provider means no project is active.
type Scope struct {
	Mode  ComparisonMode
	Index WordIndexLookup
	Texts FileTextProvider
	// Files optionally restricts the candidates; nil keeps all of them.
	Files FileFilter
}

func (s Scope) active() bool {
	return s.Index != nil && s.Texts != nil
}

// CancelFunc is polled during a search; returning true asks the search to stop.
type CancelFunc func() bool

// Never is a CancelFunc that never cancels.
func Never() bool { return false }

// CancelOnDone polls ctx, so request cancellation and deadlines stop a search.
func CancelOnDone(ctx context.Context) CancelFunc {
	return func() bool {
		return ctx.Err() != nil
	}
}
