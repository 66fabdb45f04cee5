package graph

import (
	"fmt"
	"sync"

	"golang.org/x/sync/singleflight"

	"github.com/qecflow/rtdec/code"
	"github.com/qecflow/rtdec/noise"
)

type cacheKey struct {
	codeFP  uint64
	modelFP uint64
}

// Cache memoizes built graphs by (code, model) fingerprints.
//
// Concurrent misses for the same key are collapsed into a single build via
// singleflight, since builds can exceed the realtime budget of a decode
// cycle and must never run twice for the same inputs.
type Cache struct {
	mu     sync.RWMutex
	group  singleflight.Group
	graphs map[cacheKey]*Graph
}

// NewCache returns an empty graph cache.
func NewCache() *Cache {
	return &Cache{graphs: make(map[cacheKey]*Graph)}
}

// Get returns the cached graph for (desc, model), building it on first use.
// The returned *Graph is shared; it is immutable and safe for concurrent
// decodes.
func (c *Cache) Get(desc *code.Description, model *noise.Model) (*Graph, error) {
	key := cacheKey{codeFP: desc.Fingerprint(), modelFP: model.Fingerprint()}

	c.mu.RLock()
	g, ok := c.graphs[key]
	c.mu.RUnlock()
	if ok {
		return g, nil
	}

	v, err, _ := c.group.Do(fmt.Sprintf("%016x:%016x", key.codeFP, key.modelFP), func() (any, error) {
		// Re-check under the write path; another flight may have stored it.
		c.mu.RLock()
		g, ok := c.graphs[key]
		c.mu.RUnlock()
		if ok {
			return g, nil
		}

		g, err := Build(desc, model)
		if err != nil {
			return nil, err
		}

		c.mu.Lock()
		c.graphs[key] = g
		c.mu.Unlock()
		return g, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*Graph), nil
}

// Len returns the number of cached graphs.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.graphs)
}

// Purge drops all cached graphs.
func (c *Cache) Purge() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.graphs = make(map[cacheKey]*Graph)
}
