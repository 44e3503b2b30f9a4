package occurrence

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// DefaultWindow is how many bytes the scanner searches without a match before it polls
// for cancellation.
const DefaultWindow = 1 << 20

// Scanner finds occurrences of a filter in one file's text.
//
// Cancellation is polled after every match. A file larger than Window is also searched
// window by window, with a poll between windows, so a huge file without matches can
// still be interrupted.
type Scanner struct {
	Window int
}

// Scan runs a Scanner with the default window.
func Scan(file FileHandle, text string, filter string, mode ComparisonMode, shouldCancel CancelFunc) ([]Occurrence, bool) {
	return Scanner{}.Scan(file, text, filter, mode, shouldCancel)
}

// Scan returns every start offset where filter occurs in text, in increasing order.
// After a match the cursor moves one position forward, so overlapping occurrences
// ("aa" in "aaaa" at 0, 1 and 2) are all reported. cancelled is true when shouldCancel
// stopped the scan; the occurrences found until then are returned.
func (s Scanner) Scan(file FileHandle, text string, filter string, mode ComparisonMode, shouldCancel CancelFunc) (occurrences []Occurrence, cancelled bool) {
	if filter == "" {
		return nil, false
	}
	if shouldCancel == nil {
		shouldCancel = Never
	}
	window := s.Window
	if window <= 0 {
		window = DefaultWindow
	}

	find := findOrdinal
	step := 1
	if mode == CaseInsensitive {
		find = findFolded
	}

	cursor := 0
	for cursor < len(text) {
		stop := min(len(text), cursor+window)
		for stop < len(text) && !utf8.RuneStart(text[stop]) {
			stop++
		}

		start, length, found := find(text, cursor, stop, filter)
		if !found {
			cursor = stop
			if cursor < len(text) && shouldCancel() {
				return occurrences, true
			}
			continue
		}

		occurrences = append(occurrences, Occurrence{
			File:   file,
			Start:  start,
			Length: length,
			Kind:   TextualMatch,
		})
		if shouldCancel() {
			return occurrences, true
		}

		if mode == CaseInsensitive {
			_, step = utf8.DecodeRuneInString(text[start:])
		}
		cursor = start + step
	}
	return occurrences, false
}

// findOrdinal finds the first byte-exact match starting in [from, to).
func findOrdinal(text string, from, to int, filter string) (int, int, bool) {
	end := min(len(text), to+len(filter)-1)
	if end-from < len(filter) {
		return 0, 0, false
	}
	i := strings.Index(text[from:end], filter)
	if i < 0 {
		return 0, 0, false
	}
	return from + i, len(filter), true
}

// findFolded finds the first case-folded match starting in [from, to). The returned
// length is the width of the matched span in text, which can differ from len(filter)
// when folding pairs runes of different encoded widths.
func findFolded(text string, from, to int, filter string) (int, int, bool) {
	first, _ := utf8.DecodeRuneInString(filter)
	for i := from; i < to; {
		r, size := utf8.DecodeRuneInString(text[i:])
		if equalFoldRune(r, first) || (r == utf8.RuneError && size == 1) {
			if n, ok := foldedPrefix(text[i:], filter); ok {
				return i, n, true
			}
		}
		i += size
	}
	return 0, 0, false
}

// foldedPrefix reports whether s starts with filter under simple case folding and how
// many bytes of s the match spans. Invalid UTF-8 bytes only match themselves.
func foldedPrefix(s string, filter string) (int, bool) {
	n, m := 0, 0
	for m < len(filter) {
		if n >= len(s) {
			return 0, false
		}
		fr, fsize := utf8.DecodeRuneInString(filter[m:])
		r, size := utf8.DecodeRuneInString(s[n:])
		if (fr == utf8.RuneError && fsize == 1) || (r == utf8.RuneError && size == 1) {
			if s[n] != filter[m] {
				return 0, false
			}
			n++
			m++
			continue
		}
		if !equalFoldRune(r, fr) {
			return 0, false
		}
		n += size
		m += fsize
	}
	return n, true
}

func equalFoldRune(a, b rune) bool {
	if a == b {
		return true
	}
	if a < utf8.RuneSelf && b < utf8.RuneSelf {
		if 'A' <= a && a <= 'Z' {
			a += 'a' - 'A'
		}
		if 'A' <= b && b <= 'Z' {
			b += 'a' - 'A'
		}
		return a == b
	}
	for f := unicode.SimpleFold(a); f != a; f = unicode.SimpleFold(f) {
		if f == b {
			return true
		}
	}
	return false
}
