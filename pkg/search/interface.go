// Package search is the core prefix index behind the plume search box: a
// trie over composite search keys, and a versioned cache that rebuilds it only
// when the set of keys changes.
package search

// ISearcher is the read side of an index, what query handlers depend on.
type ISearcher interface {
	// GetRecommendations returns keys starting with prefix using the index's default cap
	GetRecommendations(prefix string) []string

	// Complete returns up to limit keys starting with prefix
	Complete(prefix string, limit int) []string

	// Contains reports whether a key was indexed
	Contains(key string) bool

	// Len returns the number of indexed keys
	Len() int
}

var _ ISearcher = (*Index)(nil)
