package search

import (
	"sort"
	"strconv"
	"sync/atomic"

	"github.com/cespare/xxhash/v2"
	"github.com/charmbracelet/log"
	"golang.org/x/sync/singleflight"
)

// Cache keeps one immutable Index keyed by the content of the key set it was
// built from. Loading an unchanged key set hands back the same *Index.
type Cache struct {
	current atomic.Pointer[snapshot]
	group   singleflight.Group
	limit   int
	builds  atomic.Int64
	reuses  atomic.Int64
}

type snapshot struct {
	version uint64
	index   *Index
}

// NewCache creates a cache whose indexes use limit as their default cap.
func NewCache(limit int) *Cache {
	c := &Cache{limit: limit}
	c.current.Store(&snapshot{
		version: Version(nil),
		index:   NewIndex(limit),
	})
	return c
}

// Version is an order-independent digest of keys. Duplicates and empty keys
// do not change it.
func Version(keys []string) uint64 {
	sorted := make([]string, 0, len(keys))
	for _, k := range keys {
		if k != "" {
			sorted = append(sorted, k)
		}
	}
	sort.Strings(sorted)

	d := xxhash.New()
	for i, k := range sorted {
		if i > 0 && k == sorted[i-1] {
			continue
		}
		_, _ = d.WriteString(k)
		_, _ = d.Write([]byte{0})
	}
	return d.Sum64()
}

// Load returns an index over keys, rebuilding only when the key set differs
// from the one currently held. Concurrent loads of the same set share a build.
func (c *Cache) Load(keys []string) *Index {
	version := Version(keys)
	if cur := c.current.Load(); cur.version == version {
		c.reuses.Add(1)
		log.Debugf("Search index unchanged (version %x), reusing %d keys", version, cur.index.Len())
		return cur.index
	}

	v, _, _ := c.group.Do(strconv.FormatUint(version, 16), func() (any, error) {
		if cur := c.current.Load(); cur.version == version {
			return cur.index, nil
		}
		idx := NewIndex(c.limit)
		idx.AddItems(keys...)
		c.current.Store(&snapshot{version: version, index: idx})
		c.builds.Add(1)
		log.Debugf("Rebuilt search index (version %x) with %d keys", version, idx.Len())
		return idx, nil
	})
	return v.(*Index)
}

// Current returns the index most recently loaded. It is never nil.
func (c *Cache) Current() *Index {
	return c.current.Load().index
}

// Version returns the content version of the current index.
func (c *Cache) Version() uint64 {
	return c.current.Load().version
}

func (c *Cache) Stats() map[string]int {
	return map[string]int{
		"indexKeys":    c.Current().Len(),
		"indexBuilds":  int(c.builds.Load()),
		"indexReuses":  int(c.reuses.Load()),
		"defaultLimit": c.limit,
	}
}
