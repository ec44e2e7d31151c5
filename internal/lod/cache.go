package lod

import (
	"sync"

	"github.com/OCharnyshevich/lodgen/internal/worldgen"
)

// Cache keeps LOD columns in memory, keyed by chunk position.
type Cache struct {
	mu   sync.RWMutex
	cols map[worldgen.ChunkPos]*Columns
}

// NewCache creates an empty Cache.
func NewCache() *Cache {
	return &Cache{cols: make(map[worldgen.ChunkPos]*Columns)}
}

// Put stores cols, replacing any previous entry for the same chunk.
func (c *Cache) Put(cols *Columns) {
	c.mu.Lock()
	c.cols[cols.Pos] = cols
	c.mu.Unlock()
}

// Get returns the columns of a chunk.
func (c *Cache) Get(pos worldgen.ChunkPos) (*Columns, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	cols, ok := c.cols[pos]
	return cols, ok
}

// GetOrLoad returns the cached columns of pos, calling load on a miss.
// A nil result from load is not cached.
func (c *Cache) GetOrLoad(pos worldgen.ChunkPos, load func(worldgen.ChunkPos) (*Columns, error)) (*Columns, error) {
	if cols, ok := c.Get(pos); ok {
		return cols, nil
	}

	cols, err := load(pos)
	if err != nil || cols == nil {
		return nil, err
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Double-check after acquiring write lock.
	if existing, ok := c.cols[pos]; ok {
		return existing, nil
	}
	c.cols[pos] = cols
	return cols, nil
}

// Len returns the number of cached chunks.
func (c *Cache) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.cols)
}

// ForEach calls fn for every cached chunk under a read lock.
func (c *Cache) ForEach(fn func(*Columns)) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	for _, cols := range c.cols {
		fn(cols)
	}
}
