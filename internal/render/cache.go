package render

import (
	"container/list"
	"sync"
	"sync/atomic"
	"time"
)

// Cache holds the last rendered document of each dataset together with the
// style version it was rendered for. A dataset has at most one document: a
// request for any other version is a miss and drops the stale document, since
// versions only move forward. The least recently served dataset is evicted
// when the cache is full. It is safe for concurrent use.
type Cache struct {
	mu         sync.Mutex
	docs       map[string]*list.Element // dataset ID -> element holding *renderedDoc
	recent     *list.List               // front = most recently served
	maxEntries int
	ttl        time.Duration

	hits      atomic.Int64
	misses    atomic.Int64
	evictions atomic.Int64
}

type renderedDoc struct {
	datasetID  string
	version    string
	data       []byte
	renderedAt time.Time
}

// CacheStats contains cache performance statistics.
type CacheStats struct {
	Entries    int     `json:"entries"`
	MaxEntries int     `json:"max_entries"`
	Hits       int64   `json:"hits"`
	Misses     int64   `json:"misses"`
	Evictions  int64   `json:"evictions"`
	HitRate    float64 `json:"hit_rate"`
}

// NewCache creates a Cache holding up to maxEntries datasets. Documents older
// than ttl are re-rendered; a ttl of zero keeps them until the style changes.
func NewCache(maxEntries int, ttl time.Duration) *Cache {
	if maxEntries < 1 {
		maxEntries = 1
	}
	return &Cache{
		docs:       make(map[string]*list.Element),
		recent:     list.New(),
		maxEntries: maxEntries,
		ttl:        ttl,
	}
}

// Get returns the document rendered for datasetID at version, or nil.
func (c *Cache) Get(datasetID, version string) []byte {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.docs[datasetID]
	if !ok {
		c.misses.Add(1)
		return nil
	}

	doc := el.Value.(*renderedDoc)
	if doc.version != version || c.expired(doc) {
		c.remove(el)
		c.misses.Add(1)
		return nil
	}

	c.recent.MoveToFront(el)
	c.hits.Add(1)
	return doc.data
}

// Put records data as the rendering of datasetID at version, replacing any
// document of another version.
func (c *Cache) Put(datasetID, version string, data []byte) {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc := &renderedDoc{datasetID: datasetID, version: version, data: data, renderedAt: time.Now()}
	if el, ok := c.docs[datasetID]; ok {
		el.Value = doc
		c.recent.MoveToFront(el)
		return
	}

	c.docs[datasetID] = c.recent.PushFront(doc)
	for c.recent.Len() > c.maxEntries {
		c.remove(c.recent.Back())
		c.evictions.Add(1)
	}
}

// Invalidate drops the document of datasetID.
func (c *Cache) Invalidate(datasetID string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.docs[datasetID]; ok {
		c.remove(el)
	}
}

// Stats returns cache performance statistics.
func (c *Cache) Stats() CacheStats {
	c.mu.Lock()
	entries := len(c.docs)
	c.mu.Unlock()

	hits := c.hits.Load()
	misses := c.misses.Load()

	var hitRate float64
	if total := hits + misses; total > 0 {
		hitRate = float64(hits) / float64(total)
	}

	return CacheStats{
		Entries:    entries,
		MaxEntries: c.maxEntries,
		Hits:       hits,
		Misses:     misses,
		Evictions:  c.evictions.Load(),
		HitRate:    hitRate,
	}
}

func (c *Cache) expired(doc *renderedDoc) bool {
	return c.ttl > 0 && time.Since(doc.renderedAt) > c.ttl
}

func (c *Cache) remove(el *list.Element) {
	doc := c.recent.Remove(el).(*renderedDoc)
	delete(c.docs, doc.datasetID)
}
