package terrain

import "github.com/OCharnyshevich/lodgen/internal/worldgen"

const (
	structureWatchtower = "watchtower"

	// One chunk in structureRarity starts a structure.
	structureRarity  = 24
	watchtowerRadius = 2
	watchtowerHeight = 7
)

// StructurePlanner decides which structures start in which chunk. Starts are
// a pure function of the seed and the chunk position, so neighbouring chunks
// can be asked about without generating them.
type StructurePlanner struct {
	seed     int64
	heightAt func(bx, bz int) int
}

// NewStructurePlanner creates a planner. heightAt returns the terrain height
// used to anchor structures.
func NewStructurePlanner(seed int64, heightAt func(bx, bz int) int) *StructurePlanner {
	return &StructurePlanner{seed: seed, heightAt: heightAt}
}

// StartsIn returns the structures anchored in chunk pos.
func (sp *StructurePlanner) StartsIn(pos worldgen.ChunkPos) []worldgen.StructureStart {
	rng := newChunkRNG(sp.seed, pos.X, pos.Z, 700)
	if rng.nextN(structureRarity) != 0 {
		return nil
	}
	x := pos.X*16 + rng.nextN(16)
	z := pos.Z*16 + rng.nextN(16)
	y := sp.heightAt(x, z)
	if y <= seaLevel {
		return nil
	}
	return []worldgen.StructureStart{{Kind: structureWatchtower, X: x, Y: y + 1, Z: z}}
}

// touches reports whether the footprint of s reaches into chunk pos.
func touches(s worldgen.StructureStart, pos worldgen.ChunkPos) bool {
	minX, minZ := pos.X*16, pos.Z*16
	return s.X+watchtowerRadius >= minX && s.X-watchtowerRadius < minX+16 &&
		s.Z+watchtowerRadius >= minZ && s.Z-watchtowerRadius < minZ+16
}

// structureCache memoises structure starts for the chunks of one region.
// It is owned by a single task.
type structureCache struct {
	planner *StructurePlanner
	starts  map[worldgen.ChunkPos][]worldgen.StructureStart
}

func newStructureCache(p *StructurePlanner) *structureCache {
	return &structureCache{planner: p, starts: make(map[worldgen.ChunkPos][]worldgen.StructureStart)}
}

func (sc *structureCache) Reset() { clear(sc.starts) }

func (sc *structureCache) startsIn(pos worldgen.ChunkPos) []worldgen.StructureStart {
	if s, ok := sc.starts[pos]; ok {
		return s
	}
	s := sc.planner.StartsIn(pos)
	sc.starts[pos] = s
	return s
}

// buildStructure places the part of s that falls inside chunk c.
func buildStructure(c *worldgen.Chunk, s worldgen.StructureStart) {
	const r = watchtowerRadius
	top := watchtowerHeight - 1
	for dy := 0; dy <= top; dy++ {
		for dx := -r; dx <= r; dx++ {
			for dz := -r; dz <= r; dz++ {
				wall := abs(dx) == r || abs(dz) == r
				var state uint16
				switch {
				case dy == top && dx == 0 && dz == 0:
					state = blockGlowstone << 4
				case dy == 0 || dy == top:
					state = blockCobblestone << 4
				case wall && (dx+dz+dy)%3 == 0:
					state = blockMossyCobble << 4
				case wall:
					state = blockCobblestone << 4
				case dy == 1 && dx == 0 && dz == 0:
					state = blockTorch << 4
				default:
					state = blockAir
				}
				setInChunk(c, s.X+dx, s.Y+dy, s.Z+dz, state)
			}
		}
	}
}

// setInChunk sets a block at world coordinates when they fall inside c.
func setInChunk(c *worldgen.Chunk, bx, by, bz int, state uint16) {
	lx, lz := bx-c.Pos.X*16, bz-c.Pos.Z*16
	if lx < 0 || lx >= 16 || lz < 0 || lz >= 16 {
		return
	}
	c.SetBlock(lx, by, lz, state)
}
