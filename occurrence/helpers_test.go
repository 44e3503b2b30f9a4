package occurrence

import (
	"regexp"
	"slices"
	"strings"
)

var identifierRun = regexp.MustCompile(`[\p{L}\p{N}_]+`)

// memoryIndex is a small word index over in-memory files. It tokenizes the way the
// bleve-backed index does: lower-cased identifier runs.
type memoryIndex struct {
	files map[FileHandle]string
	// unreadable files are indexed but have no current text.
	unreadable map[FileHandle]bool
	reads      []FileHandle
}

func newMemoryIndex(files map[FileHandle]string) *memoryIndex {
	return &memoryIndex{files: files, unreadable: map[FileHandle]bool{}}
}

func (m *memoryIndex) handles() []FileHandle {
	handles := make([]FileHandle, 0, len(m.files))
	for handle := range m.files {
		handles = append(handles, handle)
	}
	slices.Sort(handles)
	return handles
}

func (m *memoryIndex) words(file FileHandle) []string {
	return identifierRun.FindAllString(strings.ToLower(m.files[file]), -1)
}

func (m *memoryIndex) WordsContaining(substring string) []string {
	needle := strings.ToLower(substring)
	seen := map[string]bool{}
	var words []string
	for _, handle := range m.handles() {
		for _, word := range m.words(handle) {
			if strings.Contains(word, needle) && !seen[word] {
				seen[word] = true
				words = append(words, word)
			}
		}
	}
	return words
}

func (m *memoryIndex) FilesContainingWord(word string) []FileHandle {
	runs := identifierRun.FindAllString(strings.ToLower(word), -1)
	var files []FileHandle
	for _, handle := range m.handles() {
		if containsAllRuns(m.words(handle), runs) {
			files = append(files, handle)
		}
	}
	return files
}

func containsAllRuns(words []string, runs []string) bool {
	for _, run := range runs {
		found := false
		for _, word := range words {
			if strings.Contains(word, run) {
				found = true
				break
			}
		}
		if !found {
			return false
		}
	}
	return true
}

func (m *memoryIndex) CurrentText(file FileHandle) (string, bool) {
	m.reads = append(m.reads, file)
	if m.unreadable[file] {
		return "", false
	}
	text, ok := m.files[file]
	return text, ok
}

func (m *memoryIndex) scope(mode ComparisonMode) Scope {
	return Scope{Mode: mode, Index: m, Texts: m}
}

// stubIndex answers from fixed tables and records every lookup.
type stubIndex struct {
	words       map[string][]string
	files       map[string][]FileHandle
	wordQueries []string
	fileQueries []string
}

func (s *stubIndex) WordsContaining(substring string) []string {
	s.wordQueries = append(s.wordQueries, substring)
	return s.words[substring]
}

func (s *stubIndex) FilesContainingWord(word string) []FileHandle {
	s.fileQueries = append(s.fileQueries, word)
	return s.files[word]
}

func starts(occurrences []Occurrence) []int {
	offsets := make([]int, 0, len(occurrences))
	for _, o := range occurrences {
		offsets = append(offsets, o.Start)
	}
	return offsets
}
