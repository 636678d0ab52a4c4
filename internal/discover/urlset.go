package discover

import (
	"sync"

	"github.com/ppiankov/mapleads/internal/normalize"
)

// URLSet is an insertion-ordered set of listing URLs. Adding a URL that is
// already present is a no-op.
type URLSet struct {
	mu    sync.Mutex
	index map[string]struct{}
	order []string
}

// NewURLSet creates an empty set
func NewURLSet() *URLSet {
	return &URLSet{index: make(map[string]struct{})}
}

// Add inserts the canonical form of rawURL and reports whether it was new
func (s *URLSet) Add(rawURL string) bool {
	u := normalize.ListingURL(rawURL)
	if u == "" {
		return false
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.index[u]; ok {
		return false
	}
	s.index[u] = struct{}{}
	s.order = append(s.order, u)
	return true
}

// Has reports whether rawURL (canonicalized) is in the set
func (s *URLSet) Has(rawURL string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.index[normalize.ListingURL(rawURL)]
	return ok
}

// Len returns the number of distinct URLs
func (s *URLSet) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.order)
}

// URLs returns the URLs in insertion order
func (s *URLSet) URLs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.order...)
}
