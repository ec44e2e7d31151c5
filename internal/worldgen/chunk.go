package worldgen

import (
	"fmt"
	"sync/atomic"

	"github.com/OCharnyshevich/lodgen/internal/light"
)

// ChunkPos identifies a chunk by its X and Z coordinates.
type ChunkPos struct{ X, Z int }

func (p ChunkPos) String() string { return fmt.Sprintf("(%d,%d)", p.X, p.Z) }

// BlockSection holds block data for a 16×16×16 vertical slice of a chunk.
// Index = y*256 + z*16 + x, value = blockID<<4 | metadata.
type BlockSection struct {
	Blocks [4096]uint16
}

// StructureStart marks a structure anchored in a chunk.
type StructureStart struct {
	Kind    string
	X, Y, Z int // world block coordinates
}

// Chunk is one chunk column moving through the generation stages.
// Block data is owned by the generating task until the chunk is handed to a
// result callback; only the stage and light flags may be read concurrently.
type Chunk struct {
	Pos  ChunkPos
	MinY int
	MaxY int

	sections []*BlockSection // nil = all-air
	Biomes   [256]byte       // index = z*16 + x
	Heights  [256]int        // highest non-air y per column, index = z*16 + x

	// Structures started in this chunk; References names structures of
	// neighbouring chunks that reach into it.
	Structures []StructureStart
	References []ChunkPos

	blockLight *light.Storage
	skyLight   *light.Storage

	stage        atomic.Int32
	lightCorrect atomic.Bool
}

// NewChunk creates an empty chunk at StageEmpty covering [minY, maxY).
func NewChunk(pos ChunkPos, minY, maxY int, pool *light.Pool) *Chunk {
	c := &Chunk{
		Pos:        pos,
		MinY:       minY,
		MaxY:       maxY,
		sections:   make([]*BlockSection, (maxY-minY+15)>>4),
		blockLight: light.NewStorage(pool, minY, maxY),
		skyLight:   light.NewStorage(pool, minY, maxY),
	}
	for i := range c.Heights {
		c.Heights[i] = minY - 1
	}
	return c
}

// Stage returns the last stage the chunk completed.
func (c *Chunk) Stage() Stage { return Stage(c.stage.Load()) }

// SetStage records the last completed stage.
func (c *Chunk) SetStage(s Stage) { c.stage.Store(int32(s)) }

// IsLightCorrect reports whether the light stage has populated the chunk.
func (c *Chunk) IsLightCorrect() bool { return c.lightCorrect.Load() }

// SetLightCorrect marks the chunk light as computed.
func (c *Chunk) SetLightCorrect(v bool) { c.lightCorrect.Store(v) }

// BlockLight returns the block light storage.
func (c *Chunk) BlockLight() *light.Storage { return c.blockLight }

// SkyLight returns the sky light storage.
func (c *Chunk) SkyLight() *light.Storage { return c.skyLight }

// InRange reports whether y lies inside the chunk's vertical range.
func (c *Chunk) InRange(y int) bool { return y >= c.MinY && y < c.MaxY }

// SetBlock sets a block state at local x, z (in [0,16)) and absolute y.
// Writes outside the vertical range are ignored.
func (c *Chunk) SetBlock(x, y, z int, state uint16) {
	if !c.InRange(y) {
		return
	}
	sec := (y - c.MinY) >> 4
	if c.sections[sec] == nil {
		if state == 0 {
			return
		}
		c.sections[sec] = &BlockSection{}
	}
	c.sections[sec].Blocks[((y-c.MinY)&0xF)*256+z*16+x] = state
}

// GetBlock returns the block state at local x, z and absolute y.
func (c *Chunk) GetBlock(x, y, z int) uint16 {
	if !c.InRange(y) {
		return 0
	}
	sec := c.sections[(y-c.MinY)>>4]
	if sec == nil {
		return 0
	}
	return sec.Blocks[((y-c.MinY)&0xF)*256+z*16+x]
}

// Section returns block section i, or nil when it is all air.
func (c *Chunk) Section(i int) *BlockSection {
	if i < 0 || i >= len(c.sections) {
		return nil
	}
	return c.sections[i]
}

// SectionCount returns the number of block sections in the chunk.
func (c *Chunk) SectionCount() int { return len(c.sections) }

// SetBiome sets the biome ID at the given local x, z coordinates.
func (c *Chunk) SetBiome(x, z int, biome byte) {
	c.Biomes[z*16+x] = biome
}

// Biome returns the biome ID at local x, z.
func (c *Chunk) Biome(x, z int) byte { return c.Biomes[z*16+x] }

// Height returns the highest non-air y of column x, z, or MinY-1 when the
// column is empty.
func (c *Chunk) Height(x, z int) int { return c.Heights[z*16+x] }

// RecomputeHeights rebuilds the height map from block data.
func (c *Chunk) RecomputeHeights() {
	for z := 0; z < 16; z++ {
		for x := 0; x < 16; x++ {
			h := c.MinY - 1
			for y := c.MaxY - 1; y >= c.MinY; y-- {
				if c.GetBlock(x, y, z) != 0 {
					h = y
					break
				}
			}
			c.Heights[z*16+x] = h
		}
	}
}
