package search

import (
	"sort"
	"strings"

	"github.com/charmbracelet/log"
	"github.com/tchap/go-patricia/v2/patricia"
)

// Index is a case-insensitive prefix index over composite search keys.
//
// Keys are lowercased before they enter the trie, so a node holds an item
// exactly when some indexed key ends there. The item is the sorted set of
// original spellings folding to that node; queries return every spelling.
//
// An Index is not safe for concurrent mutation. Build it once, then share it
// read-only (see Cache).
type Index struct {
	trie  *patricia.Trie
	size  int
	limit int
}

// NewIndex returns an empty index. limit caps GetRecommendations, 0 means no cap.
func NewIndex(limit int) *Index {
	if limit < 0 {
		limit = 0
	}
	return &Index{
		trie:  patricia.NewTrie(),
		limit: limit,
	}
}

// AddItems inserts every non-empty item. Inserting a spelling that is already
// present leaves the index unchanged.
func (idx *Index) AddItems(items ...string) {
	if idx.trie == nil {
		idx.trie = patricia.NewTrie()
	}
	for _, item := range items {
		if item == "" {
			log.Debug("Skipping empty search key")
			continue
		}
		key := patricia.Prefix(normalize(item))
		if idx.trie.Insert(key, []string{item}) {
			idx.size++
			continue
		}
		spellings, _ := idx.trie.Get(key).([]string)
		i := sort.SearchStrings(spellings, item)
		if i < len(spellings) && spellings[i] == item {
			continue
		}
		spellings = append(spellings[:i], append([]string{item}, spellings[i:]...)...)
		idx.trie.Set(key, spellings)
		idx.size++
	}
}

// GetRecommendations returns the indexed keys starting with prefix, capped by
// the limit the index was created with.
func (idx *Index) GetRecommendations(prefix string) []string {
	if idx == nil {
		return []string{}
	}
	return idx.Complete(prefix, idx.limit)
}

// Complete returns up to limit indexed keys starting with prefix, ordered
// lexicographically by their lowercased form, then by spelling. limit <= 0
// returns every match.
// An empty prefix matches everything.
func (idx *Index) Complete(prefix string, limit int) []string {
	if idx == nil || idx.trie == nil || idx.size == 0 {
		return []string{}
	}

	var hits []hit
	collect := func(p patricia.Prefix, item patricia.Item) error {
		spellings, ok := item.([]string)
		if !ok {
			log.Errorf("Unknown item type: %T for key %s", item, p)
			return nil
		}
		for _, word := range spellings {
			hits = append(hits, hit{key: string(p), word: word})
		}
		return nil
	}

	var err error
	lowerPrefix := normalize(prefix)
	if lowerPrefix == "" {
		err = idx.trie.Visit(collect)
	} else {
		err = idx.trie.VisitSubtree(patricia.Prefix(lowerPrefix), collect)
	}
	if err != nil {
		log.Errorf("Error visiting trie subtree: %v", err)
		return []string{}
	}

	sort.Slice(hits, func(i, j int) bool {
		if hits[i].key != hits[j].key {
			return hits[i].key < hits[j].key
		}
		return hits[i].word < hits[j].word
	})
	if limit > 0 && len(hits) > limit {
		hits = hits[:limit]
	}

	results := make([]string, len(hits))
	for i, h := range hits {
		results[i] = h.word
	}
	return results
}

// Contains reports whether key was indexed, ignoring case.
func (idx *Index) Contains(key string) bool {
	if idx == nil || idx.trie == nil || key == "" {
		return false
	}
	return idx.trie.Get(patricia.Prefix(normalize(key))) != nil
}

// Len is the number of distinct spellings indexed.
func (idx *Index) Len() int {
	if idx == nil {
		return 0
	}
	return idx.size
}

// Limit is the cap applied by GetRecommendations.
func (idx *Index) Limit() int {
	if idx == nil {
		return 0
	}
	return idx.limit
}

type hit struct {
	key  string
	word string
}

func normalize(s string) string {
	return strings.ToLower(s)
}
