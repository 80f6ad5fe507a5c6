package plume

import (
	"github.com/charmbracelet/log"
)

// Catalog holds the records of one dataset keyed both by id and by search key.
type Catalog struct {
	codec   KeyCodec
	records []Record
	keys    []string
	byID    map[string]int
	byKey   map[string]int
	skipped int
}

// NewCatalog encodes every record with codec. Records that cannot be encoded
// are skipped and logged, a repeated id keeps its first record. maxRecords
// bounds the catalog, 0 keeps everything.
func NewCatalog(codec KeyCodec, records []Record, maxRecords int) *Catalog {
	size := len(records)
	if maxRecords > 0 && maxRecords < size {
		size = maxRecords
	}
	c := &Catalog{
		codec:   codec,
		records: make([]Record, 0, size),
		keys:    make([]string, 0, size),
		byID:    make(map[string]int, size),
		byKey:   make(map[string]int, size),
	}

	for _, r := range records {
		if maxRecords > 0 && len(c.records) >= maxRecords {
			log.Debugf("Catalog full at %d records, dropping the rest", maxRecords)
			break
		}
		if _, dup := c.byID[r.ID]; dup {
			log.Debugf("Duplicate plume id %s, keeping first record", r.ID)
			c.skipped++
			continue
		}
		key, err := codec.Encode(r)
		if err != nil {
			log.Warnf("Skipping plume record: %v", err)
			c.skipped++
			continue
		}
		c.byID[r.ID] = len(c.records)
		c.byKey[key] = len(c.records)
		c.records = append(c.records, r)
		c.keys = append(c.keys, key)
	}
	return c
}

// Keys returns the search keys in record order.
func (c *Catalog) Keys() []string {
	return c.keys
}

// Records returns the accepted records in input order.
func (c *Catalog) Records() []Record {
	return c.records
}

func (c *Catalog) Len() int {
	return len(c.records)
}

// Skipped counts records rejected while building the catalog.
func (c *Catalog) Skipped() int {
	return c.skipped
}

// Get returns the record with the given id.
func (c *Catalog) Get(id string) (Record, bool) {
	i, ok := c.byID[id]
	if !ok {
		return Record{}, false
	}
	return c.records[i], true
}

// Resolve maps a search key back to its record. Keys are matched exactly
// first, then through the codec so a key typed with different casing in the
// location still finds the record by id.
func (c *Catalog) Resolve(key string) (Record, bool) {
	if i, ok := c.byKey[key]; ok {
		return c.records[i], true
	}
	id, err := c.codec.Decode(key)
	if err != nil {
		return Record{}, false
	}
	return c.Get(id)
}

// KeyFor returns the search key of the record with the given id.
func (c *Catalog) KeyFor(id string) (string, bool) {
	i, ok := c.byID[id]
	if !ok {
		return "", false
	}
	return c.keys[i], true
}
