package plume

import (
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/bastiangx/plumeserve/pkg/search"
	"github.com/charmbracelet/log"
)

var ErrNotFound = errors.New("plume: no record for key")

// Match is one completion with the record it stands for.
type Match struct {
	Key      string
	RecordID string
}

// Finder answers search box queries over the most recently loaded dataset.
// Load and the query methods may be called from different goroutines.
type Finder struct {
	codec      KeyCodec
	maxRecords int
	cache      *search.Cache
	state      atomic.Pointer[finderState]
	loads      atomic.Int64
}

type finderState struct {
	catalog *Catalog
	index   *search.Index
}

// NewFinder creates an empty finder. limit is the default completion cap,
// maxRecords bounds each loaded dataset (0 for no bound).
func NewFinder(codec KeyCodec, limit, maxRecords int) *Finder {
	f := &Finder{
		codec:      codec,
		maxRecords: maxRecords,
		cache:      search.NewCache(limit),
	}
	f.state.Store(&finderState{
		catalog: NewCatalog(codec, nil, maxRecords),
		index:   f.cache.Current(),
	})
	return f
}

// Load replaces the dataset. The search index is only rebuilt when the set of
// keys differs from the previous load.
func (f *Finder) Load(records []Record) error {
	catalog := NewCatalog(f.codec, records, f.maxRecords)
	if len(records) > 0 && catalog.Len() == 0 {
		return fmt.Errorf("none of the %d plume records could be indexed", len(records))
	}

	index := f.cache.Load(catalog.Keys())
	f.state.Store(&finderState{catalog: catalog, index: index})
	f.loads.Add(1)

	log.Debugf("Loaded %d plume records (%d skipped), index version %x",
		catalog.Len(), catalog.Skipped(), f.cache.Version())
	return nil
}

// Search returns up to limit matches for prefix, limit <= 0 uses the default cap.
func (f *Finder) Search(prefix string, limit int) []Match {
	st := f.state.Load()

	var keys []string
	if limit > 0 {
		keys = st.index.Complete(prefix, limit)
	} else {
		keys = st.index.GetRecommendations(prefix)
	}

	matches := make([]Match, 0, len(keys))
	for _, k := range keys {
		r, ok := st.catalog.Resolve(k)
		if !ok {
			log.Errorf("Indexed key %q has no record", k)
			continue
		}
		matches = append(matches, Match{Key: k, RecordID: r.ID})
	}
	return matches
}

// Resolve maps a chosen completion back to its record.
func (f *Finder) Resolve(key string) (Record, error) {
	r, ok := f.state.Load().catalog.Resolve(key)
	if !ok {
		return Record{}, fmt.Errorf("%w: %q", ErrNotFound, key)
	}
	return r, nil
}

// Catalog returns the catalog of the current dataset.
func (f *Finder) Catalog() *Catalog {
	return f.state.Load().catalog
}

// Version is the content version of the active search index.
func (f *Finder) Version() uint64 {
	return f.cache.Version()
}

func (f *Finder) Stats() map[string]int {
	st := f.state.Load()
	stats := f.cache.Stats()
	stats["records"] = st.catalog.Len()
	stats["skippedRecords"] = st.catalog.Skipped()
	stats["loads"] = int(f.loads.Load())
	return stats
}
