package occurrence

import (
	"slices"
)

// SelectCandidates returns the files worth scanning for filter, sorted by handle.
//
// The longest indexed word containing filter is assumed to bound the candidate set most
// tightly, but a word index does not have to tokenize the way the filter was typed, so the
// files containing filter itself are always added as well.
func SelectCandidates(filter string, mode ComparisonMode, index WordIndexLookup) []FileHandle {
	if filter == "" || index == nil {
		return nil
	}

	seen := make(map[FileHandle]struct{})
	var candidates []FileHandle
	add := func(files []FileHandle) {
		for _, file := range files {
			if _, ok := seen[file]; ok {
				continue
			}
			seen[file] = struct{}{}
			candidates = append(candidates, file)
		}
	}

	if word, ok := longestWord(index.WordsContaining(filter)); ok {
		add(index.FilesContainingWord(word))
	}
	add(index.FilesContainingWord(filter))

	slices.Sort(candidates)
	return candidates
}

// longestWord picks the longest word; equal lengths fall back to the smallest word so
// the choice does not depend on the index's iteration order.
func longestWord(words []string) (string, bool) {
	best := ""
	found := false
	for _, word := range words {
		if word == "" {
			continue
		}
		if !found || len(word) > len(best) || (len(word) == len(best) && word < best) {
			best = word
			found = true
		}
	}
	return best, found
}
