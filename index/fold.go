package index

import (
	"strings"
	"unicode"

	"github.com/blevesearch/bleve/v2/analysis"
	"github.com/blevesearch/bleve/v2/registry"
)

// foldFilterName is the Bleve token filter that folds indexed words.
const foldFilterName = "gotoword_fold"

// foldRune maps every rune of a simple case-folding orbit to one representative, so
// runes equal under strings.EqualFold always fold to the same rune (Σ, σ and ς to σ;
// S, s and ſ to s). The representative is the lower case of the smallest letter in the
// orbit, so ι and the combining ypogegrammeni both fold to ι.
func foldRune(r rune) rune {
	smallest, smallestLetter := r, rune(-1)
	for f, first := r, true; first || f != r; f, first = unicode.SimpleFold(f), false {
		if f < smallest {
			smallest = f
		}
		if unicode.IsLetter(f) && (smallestLetter < 0 || f < smallestLetter) {
			smallestLetter = f
		}
	}
	if smallestLetter >= 0 {
		return unicode.ToLower(smallestLetter)
	}
	return unicode.ToLower(smallest)
}

// foldWord folds every rune of word. Index terms and query runs both go through it.
func foldWord(word string) string {
	return strings.Map(foldRune, word)
}

type foldFilter struct{}

func (foldFilter) Filter(input analysis.TokenStream) analysis.TokenStream {
	for _, token := range input {
		token.Term = []byte(foldWord(string(token.Term)))
	}
	return input
}

func init() {
	err := registry.RegisterTokenFilter(foldFilterName, func(map[string]interface{}, *registry.Cache) (analysis.TokenFilter, error) {
		return foldFilter{}, nil
	})
	if err != nil {
		panic(err)
	}
}
