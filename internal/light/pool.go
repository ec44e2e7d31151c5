package light

import "sync"

// DefaultPoolCapacity is the number of dense arrays the shared free-list retains.
const DefaultPoolCapacity = 256

// DefaultPool is the process-wide free-list used when a nil pool is supplied.
var DefaultPool = NewPool(DefaultPoolCapacity)

// PoolStats counts pool traffic since creation.
type PoolStats struct {
	Allocated int // arrays created because the free-list was empty
	Reused    int // arrays handed out from the free-list
	Released  int // arrays returned and retained
	Dropped   int // arrays returned while the free-list was full
}

// Pool is a bounded free-list of dense section arrays.
// It is safe for concurrent use.
type Pool struct {
	mu       sync.Mutex
	free     []*[sectionColumns]uint64
	capacity int
	stats    PoolStats
}

// NewPool creates a Pool that retains at most capacity arrays.
func NewPool(capacity int) *Pool {
	if capacity < 0 {
		capacity = 0
	}
	return &Pool{
		free:     make([]*[sectionColumns]uint64, 0, capacity),
		capacity: capacity,
	}
}

// Acquire returns a dense array, reusing a released one when available.
// The contents of a reused array are unspecified.
func (p *Pool) Acquire() *[sectionColumns]uint64 {
	p.mu.Lock()
	defer p.mu.Unlock()

	n := len(p.free)
	if n == 0 {
		p.stats.Allocated++
		return new([sectionColumns]uint64)
	}
	a := p.free[n-1]
	p.free[n-1] = nil
	p.free = p.free[:n-1]
	p.stats.Reused++
	return a
}

// Release hands a dense array back. The array is discarded when the
// free-list is already at capacity.
func (p *Pool) Release(a *[sectionColumns]uint64) {
	if a == nil {
		return
	}
	p.mu.Lock()
	defer p.mu.Unlock()

	if len(p.free) >= p.capacity {
		p.stats.Dropped++
		return
	}
	p.free = append(p.free, a)
	p.stats.Released++
}

// Len returns the number of arrays currently held by the free-list.
func (p *Pool) Len() int {
	p.mu.Lock()
	defer p.mu.Unlock()
	return len(p.free)
}

// Cap returns the maximum number of arrays the free-list retains.
func (p *Pool) Cap() int { return p.capacity }

// Stats returns a snapshot of the pool counters.
func (p *Pool) Stats() PoolStats {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.stats
}
