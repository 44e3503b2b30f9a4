package index

import (
	"fmt"
	"io"
	"log/slog"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/blevesearch/bleve/v2"
	"github.com/blevesearch/bleve/v2/analysis/analyzer/custom"
	bleveregexp "github.com/blevesearch/bleve/v2/analysis/tokenizer/regexp"
	"github.com/blevesearch/bleve/v2/mapping"
	"github.com/blevesearch/bleve/v2/search/query"

	"github.com/lexandro/gotoword-mcp/occurrence"
)

const (
	contentField        = "content"
	identifierTokenizer = "identifier"
	identifierAnalyzer  = "identifier_folded"
)

// identifierPattern matches the runs stored as words: letters, marks, digits and
// underscores. Marks are included because U+0345 folds together with the letter ι.
// Filters are split with the same pattern, so every run of a filter is a substring of
// some indexed word in any file that contains the filter.
var identifierPattern = regexp.MustCompile(`[\p{L}\p{M}\p{N}_]+`)

// WordIndex is an in-memory Bleve index of the case-folded words of every file, plus the
// raw content of each file for scanning. It serves as both the word index and the file
// text provider of an occurrence search.
type WordIndex struct {
	mu     sync.RWMutex
	index  bleve.Index
	logger *slog.Logger
	// fileContents stores the text each file had when it was last indexed
	fileContents map[string]string // key: relative path, value: file content
}

var (
	_ occurrence.WordIndexLookup  = (*WordIndex)(nil)
	_ occurrence.FileTextProvider = (*WordIndex)(nil)
)

// NewWordIndex creates an empty in-memory word index. A nil logger discards output.
func NewWordIndex(logger *slog.Logger) (*WordIndex, error) {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	bleveIndex, err := newBleveIndex()
	if err != nil {
		return nil, err
	}
	return &WordIndex{
		index:        bleveIndex,
		logger:       logger,
		fileContents: make(map[string]string),
	}, nil
}

// wordDocument is the document structure stored in Bleve.
type wordDocument struct {
	Content string `json:"content"`
}

func newBleveIndex() (bleve.Index, error) {
	indexMapping, err := buildIndexMapping()
	if err != nil {
		return nil, err
	}
	bleveIndex, err := bleve.NewMemOnly(indexMapping)
	if err != nil {
		return nil, fmt.Errorf("creating bleve index: %w", err)
	}
	return bleveIndex, nil
}

// buildIndexMapping tokenizes content into case-folded identifier runs. No stemming and
// no stop words: every run must be findable.
func buildIndexMapping() (*mapping.IndexMappingImpl, error) {
	indexMapping := bleve.NewIndexMapping()

	err := indexMapping.AddCustomTokenizer(identifierTokenizer, map[string]interface{}{
		"type":   bleveregexp.Name,
		"regexp": identifierPattern.String(),
	})
	if err != nil {
		return nil, fmt.Errorf("registering identifier tokenizer: %w", err)
	}
	err = indexMapping.AddCustomAnalyzer(identifierAnalyzer, map[string]interface{}{
		"type":          custom.Name,
		"tokenizer":     identifierTokenizer,
		"token_filters": []string{foldFilterName},
	})
	if err != nil {
		return nil, fmt.Errorf("registering identifier analyzer: %w", err)
	}

	docMapping := bleve.NewDocumentMapping()
	contentFieldMapping := bleve.NewTextFieldMapping()
	contentFieldMapping.Analyzer = identifierAnalyzer
	contentFieldMapping.Store = false // content is kept in fileContents
	contentFieldMapping.IncludeInAll = false
	contentFieldMapping.IncludeTermVectors = false
	docMapping.AddFieldMappingsAt(contentField, contentFieldMapping)

	indexMapping.DefaultMapping = docMapping
	indexMapping.DefaultAnalyzer = identifierAnalyzer
	return indexMapping, nil
}

// IndexFile adds or replaces a file's words and content.
func (wi *WordIndex) IndexFile(relativePath string, content string) error {
	wi.mu.Lock()
	defer wi.mu.Unlock()

	if err := wi.index.Index(relativePath, wordDocument{Content: content}); err != nil {
		return fmt.Errorf("indexing file %s: %w", relativePath, err)
	}
	wi.fileContents[relativePath] = content
	return nil
}

// RemoveFile drops a file from the index.
func (wi *WordIndex) RemoveFile(relativePath string) error {
	wi.mu.Lock()
	defer wi.mu.Unlock()

	delete(wi.fileContents, relativePath)
	if err := wi.index.Delete(relativePath); err != nil {
		return fmt.Errorf("removing file %s from index: %w", relativePath, err)
	}
	return nil
}

// WordsContaining returns every indexed word that contains substring, ignoring case.
// A substring spanning non-word characters is contained in no word.
func (wi *WordIndex) WordsContaining(substring string) []string {
	needle := foldWord(substring)
	if needle == "" {
		return nil
	}

	wi.mu.RLock()
	defer wi.mu.RUnlock()

	var words []string
	err := wi.eachWordLocked(func(word string) {
		if strings.Contains(word, needle) {
			words = append(words, word)
		}
	})
	if err != nil {
		wi.logger.Warn("word enumeration failed", "substring", substring, "error", err)
		return nil
	}
	return words
}

// FilesContainingWord returns the files whose text may contain word as a substring, in
// path order. The word's identifier runs are matched as substrings of indexed words and
// must all be present in a file. A word without any run cannot be narrowed down and
// yields every file; so does a failed lookup.
func (wi *WordIndex) FilesContainingWord(word string) []occurrence.FileHandle {
	runs := identifierPattern.FindAllString(word, -1)

	wi.mu.RLock()
	defer wi.mu.RUnlock()

	if len(runs) == 0 {
		return wi.allFilesLocked()
	}

	conjuncts := make([]query.Query, 0, len(runs))
	for _, run := range runs {
		wildcard := bleve.NewWildcardQuery("*" + foldWord(run) + "*")
		wildcard.SetField(contentField)
		conjuncts = append(conjuncts, wildcard)
	}

	files, err := wi.searchLocked(bleve.NewConjunctionQuery(conjuncts...))
	if err != nil {
		wi.logger.Warn("file lookup failed, scanning all files", "word", word, "error", err)
		return wi.allFilesLocked()
	}
	return files
}

// CurrentText returns the content a file had when it was last indexed.
func (wi *WordIndex) CurrentText(file occurrence.FileHandle) (string, bool) {
	wi.mu.RLock()
	defer wi.mu.RUnlock()

	content, ok := wi.fileContents[string(file)]
	return content, ok
}

// DocumentCount returns the number of documents in the Bleve index.
func (wi *WordIndex) DocumentCount() uint64 {
	wi.mu.RLock()
	defer wi.mu.RUnlock()
	count, _ := wi.index.DocCount()
	return count
}

// WordCount returns the number of distinct words in the index.
func (wi *WordIndex) WordCount() int {
	wi.mu.RLock()
	defer wi.mu.RUnlock()

	count := 0
	if err := wi.eachWordLocked(func(string) { count++ }); err != nil {
		wi.logger.Warn("word enumeration failed", "error", err)
	}
	return count
}

// Close closes the Bleve index.
func (wi *WordIndex) Close() error {
	wi.mu.Lock()
	defer wi.mu.Unlock()
	return wi.index.Close()
}

// Clear removes all documents and recreates the index.
func (wi *WordIndex) Clear() error {
	wi.mu.Lock()
	defer wi.mu.Unlock()

	if err := wi.index.Close(); err != nil {
		return fmt.Errorf("closing old index: %w", err)
	}
	newIndex, err := newBleveIndex()
	if err != nil {
		return err
	}
	wi.index = newIndex
	wi.fileContents = make(map[string]string)
	return nil
}

func (wi *WordIndex) eachWordLocked(fn func(word string)) error {
	dict, err := wi.index.FieldDict(contentField)
	if err != nil {
		return fmt.Errorf("opening term dictionary: %w", err)
	}
	defer dict.Close()

	for {
		entry, err := dict.Next()
		if err != nil {
			return fmt.Errorf("reading term dictionary: %w", err)
		}
		if entry == nil {
			return nil
		}
		if entry.Count > 0 {
			fn(entry.Term)
		}
	}
}

func (wi *WordIndex) searchLocked(q query.Query) ([]occurrence.FileHandle, error) {
	size := len(wi.fileContents)
	if size == 0 {
		return nil, nil
	}

	request := bleve.NewSearchRequestOptions(q, size, 0, false)
	request.Score = "none"
	request.SortBy([]string{"_id"})

	result, err := wi.index.Search(request)
	if err != nil {
		return nil, fmt.Errorf("searching index: %w", err)
	}

	files := make([]occurrence.FileHandle, 0, len(result.Hits))
	for _, hit := range result.Hits {
		files = append(files, occurrence.FileHandle(hit.ID))
	}
	return files, nil
}

func (wi *WordIndex) allFilesLocked() []occurrence.FileHandle {
	paths := make([]string, 0, len(wi.fileContents))
	for path := range wi.fileContents {
		paths = append(paths, path)
	}
	sort.Strings(paths)

	files := make([]occurrence.FileHandle, len(paths))
	for i, path := range paths {
		files[i] = occurrence.FileHandle(path)
	}
	return files
}
