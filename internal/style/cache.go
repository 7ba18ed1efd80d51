package style

import (
	"sort"

	gocache "github.com/patrickmn/go-cache"

	"github.com/sells-group/symbology/internal/classify"
	"github.com/sells-group/symbology/internal/feature"
)

// Entry records the parameters and results of the last style applied to a dataset.
type Entry struct {
	Field        string               `json:"field"`
	ClassCount   int                  `json:"class_count"`
	Method       classify.Method      `json:"method"`
	Family       string               `json:"family"`
	SchemeIndex  int                  `json:"scheme_index"`
	Breaks       classify.Breaks      `json:"breaks"`
	Colors       []string             `json:"colors"`
	Options      Options              `json:"options"`
	GeometryType feature.GeometryType `json:"geometry_type"`
}

func (e Entry) clone() Entry {
	e.Breaks = append(classify.Breaks(nil), e.Breaks...)
	e.Colors = append([]string(nil), e.Colors...)
	return e
}

// Cache maps dataset IDs to their last applied Entry. Entries never expire and
// a Put always replaces the previous entry for the same ID.
type Cache struct {
	items *gocache.Cache
}

// NewCache creates an empty style cache.
func NewCache() *Cache {
	return &Cache{items: gocache.New(gocache.NoExpiration, 0)}
}

// Put stores e under datasetID, replacing any earlier entry.
func (c *Cache) Put(datasetID string, e Entry) {
	c.items.Set(datasetID, e.clone(), gocache.NoExpiration)
}

// Get returns the entry for datasetID.
func (c *Cache) Get(datasetID string) (Entry, bool) {
	v, ok := c.items.Get(datasetID)
	if !ok {
		return Entry{}, false
	}
	return v.(Entry).clone(), true
}

// Delete forgets the entry for datasetID.
func (c *Cache) Delete(datasetID string) {
	c.items.Delete(datasetID)
}

// IDs returns the cached dataset IDs in sorted order.
func (c *Cache) IDs() []string {
	items := c.items.Items()
	ids := make([]string, 0, len(items))
	for k := range items {
		ids = append(ids, k)
	}
	sort.Strings(ids)
	return ids
}

// Len returns the number of cached entries.
func (c *Cache) Len() int {
	return c.items.ItemCount()
}
