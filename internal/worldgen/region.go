package worldgen

// GenState is per-task generator state shared by the stages of one region,
// such as structure placement caches. Reset discards it so a flaky stage can
// be retried from a clean slate.
type GenState interface {
	Reset()
}

// Region is the scratch grid of chunks one task generates in. It belongs to
// a single task and is discarded with it.
type Region struct {
	minX, minZ int
	size       int
	chunks     []*Chunk
	state      GenState
}

// NewRegion builds a size×size region whose lowest corner is (minX, minZ),
// filling it with chunks from load.
func NewRegion(minX, minZ, size int, load func(pos ChunkPos) *Chunk) *Region {
	r := &Region{
		minX:   minX,
		minZ:   minZ,
		size:   size,
		chunks: make([]*Chunk, size*size),
	}
	for dz := 0; dz < size; dz++ {
		for dx := 0; dx < size; dx++ {
			r.chunks[dz*size+dx] = load(ChunkPos{X: minX + dx, Z: minZ + dz})
		}
	}
	return r
}

// Size returns the width of the region in chunks.
func (r *Region) Size() int { return r.size }

// Min returns the chunk position of the region's lowest corner.
func (r *Region) Min() ChunkPos { return ChunkPos{X: r.minX, Z: r.minZ} }

// Center returns the chunk position at the middle of the region.
func (r *Region) Center() ChunkPos {
	return ChunkPos{X: r.minX + r.size/2, Z: r.minZ + r.size/2}
}

// State returns the generator state attached to the region, if any.
func (r *Region) State() GenState { return r.state }

// SetState attaches generator state to the region.
func (r *Region) SetState(s GenState) { r.state = s }

// Chunk returns the chunk at absolute chunk coordinates, or nil when the
// position lies outside the region.
func (r *Region) Chunk(cx, cz int) *Chunk {
	dx, dz := cx-r.minX, cz-r.minZ
	if dx < 0 || dz < 0 || dx >= r.size || dz >= r.size {
		return nil
	}
	return r.chunks[dz*r.size+dx]
}

// Cutout returns the chunks left after trimming border chunks from every
// edge, in row-major order.
func (r *Region) Cutout(border int) []*Chunk {
	n := r.size - 2*border
	if n <= 0 {
		return nil
	}
	out := make([]*Chunk, 0, n*n)
	for dz := border; dz < r.size-border; dz++ {
		for dx := border; dx < r.size-border; dx++ {
			if c := r.chunks[dz*r.size+dx]; c != nil {
				out = append(out, c)
			}
		}
	}
	return out
}

// Chunks returns every chunk of the region in row-major order.
func (r *Region) Chunks() []*Chunk { return r.Cutout(0) }

// BlockAt returns the block state at world block coordinates. ok is false
// when the position lies outside the region.
func (r *Region) BlockAt(bx, by, bz int) (state uint16, ok bool) {
	c := r.Chunk(bx>>4, bz>>4)
	if c == nil {
		return 0, false
	}
	return c.GetBlock(bx&0xF, by, bz&0xF), true
}

// SetBlockAt sets the block state at world block coordinates. Positions
// outside the region are ignored.
func (r *Region) SetBlockAt(bx, by, bz int, state uint16) bool {
	c := r.Chunk(bx>>4, bz>>4)
	if c == nil {
		return false
	}
	c.SetBlock(bx&0xF, by, bz&0xF, state)
	return true
}
