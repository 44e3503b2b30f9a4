package occurrence

import (
	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultStoreCapacity is the number of results a Store keeps when none is given.
const DefaultStoreCapacity = 32

// Store keeps recent search results so they can be replayed page by page without
// rescanning. Once full, the least recently stored or replayed result is evicted.
// Safe for concurrent use.
type Store struct {
	results *lru.Cache[string, SearchResult]
}

// NewStore creates a store holding at most capacity results.
func NewStore(capacity int) *Store {
	if capacity <= 0 {
		capacity = DefaultStoreCapacity
	}
	// New only fails for a non-positive size
	results, _ := lru.New[string, SearchResult](capacity)
	return &Store{results: results}
}

// Put stores a result and returns its ID.
func (s *Store) Put(result SearchResult) string {
	id := uuid.New().String()
	s.results.Add(id, result)
	return id
}

// Get returns the result stored under id and marks it recently used.
func (s *Store) Get(id string) (SearchResult, bool) {
	return s.results.Get(id)
}

// Len returns the number of stored results.
func (s *Store) Len() int {
	return s.results.Len()
}
