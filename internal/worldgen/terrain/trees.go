package terrain

import "github.com/OCharnyshevich/lodgen/internal/worldgen"

// TreeDecorator places trees and vegetation per biome.
type TreeDecorator struct {
	seed int64
}

// NewTreeDecorator creates a TreeDecorator from a seed.
func NewTreeDecorator(seed int64) *TreeDecorator {
	return &TreeDecorator{seed: seed}
}

// Decorate places trees and vegetation in the chunk. Trees are clipped to
// the chunk.
func (td *TreeDecorator) Decorate(c *worldgen.Chunk) {
	rng := newChunkRNG(td.seed, c.Pos.X, c.Pos.Z, 600)

	// Tree density follows the biome at the chunk centre.
	treeCount := treesForBiome(c.Biome(8, 8))
	for range treeCount {
		x := rng.nextN(16)
		z := rng.nextN(16)
		y := c.Height(x, z)

		if y <= seaLevel || y >= c.MaxY-10 {
			continue
		}
		if c.GetBlock(x, y, z) != blockGrass<<4 {
			continue
		}
		td.placeTree(c, x, y+1, z, c.Biome(x, z), rng)
	}

	td.placeVegetation(c, rng)
}

func treesForBiome(biome byte) int {
	switch biome {
	case biomeDesert, biomeOcean, biomeBeach:
		return 0
	case biomePlains, biomeSavanna:
		return 1
	case biomeTundra, biomeSnowyTaiga:
		return 4
	case biomeTaiga:
		return 6
	case biomeForest:
		return 8
	case biomeDarkForest:
		return 10
	case biomeJungle:
		return 12
	default:
		return 2
	}
}

func (td *TreeDecorator) placeTree(c *worldgen.Chunk, x, baseY, z int, biome byte, rng *chunkRNG) {
	switch biome {
	case biomeTaiga, biomeSnowyTaiga:
		td.placeSpruce(c, x, baseY, z, rng)
	case biomeForest, biomeDarkForest:
		if rng.nextN(3) == 0 {
			td.placeRound(c, x, baseY, z, 5+rng.nextN(2), logBirch, leavesBirch, rng)
		} else {
			td.placeRound(c, x, baseY, z, 4+rng.nextN(3), logOak, leavesOak, rng)
		}
	default:
		td.placeRound(c, x, baseY, z, 4+rng.nextN(3), logOak, leavesOak, rng)
	}
}

// placeRound places an oak or birch style tree: a trunk with a round canopy.
func (td *TreeDecorator) placeRound(c *worldgen.Chunk, x, baseY, z, trunkHeight int, logMeta, leafMeta uint16, rng *chunkRNG) {
	if baseY+trunkHeight+2 >= c.MaxY {
		return
	}

	for y := baseY; y < baseY+trunkHeight; y++ {
		c.SetBlock(x, y, z, blockLog<<4|logMeta)
	}

	leafBase := baseY + trunkHeight - 2
	for dy := 0; dy < 4; dy++ {
		y := leafBase + dy
		radius := 2
		if dy >= 2 {
			radius = 1
		}
		for dx := -radius; dx <= radius; dx++ {
			for dz := -radius; dz <= radius; dz++ {
				lx, lz := x+dx, z+dz
				if lx < 0 || lx >= 16 || lz < 0 || lz >= 16 {
					continue
				}
				// Don't replace trunk.
				if dx == 0 && dz == 0 && dy < 2 {
					continue
				}
				// Skip corners for round shape on wider layers.
				if radius == 2 && abs(dx) == 2 && abs(dz) == 2 && rng.nextN(2) == 0 {
					continue
				}
				if c.GetBlock(lx, y, lz) == blockAir {
					c.SetBlock(lx, y, lz, blockLeaves<<4|leafMeta)
				}
			}
		}
	}
}

// placeSpruce places a spruce tree (conical shape).
func (td *TreeDecorator) placeSpruce(c *worldgen.Chunk, x, baseY, z int, rng *chunkRNG) {
	trunkHeight := 6 + rng.nextN(4) // 6-9

	if baseY+trunkHeight+1 >= c.MaxY {
		return
	}

	for y := baseY; y < baseY+trunkHeight; y++ {
		c.SetBlock(x, y, z, blockLog<<4|logSpruce)
	}

	// Widest at the bottom, narrowing to the top.
	for dy := 1; dy <= trunkHeight; dy++ {
		y := baseY + dy
		radius := min((trunkHeight-dy)/2, 3)
		if radius <= 0 && dy < trunkHeight {
			continue
		}
		if radius >= 2 && dy%2 == 0 {
			continue
		}
		for dx := -radius; dx <= radius; dx++ {
			for dz := -radius; dz <= radius; dz++ {
				lx, lz := x+dx, z+dz
				if lx < 0 || lx >= 16 || lz < 0 || lz >= 16 || (dx == 0 && dz == 0) {
					continue
				}
				if c.GetBlock(lx, y, lz) == blockAir {
					c.SetBlock(lx, y, lz, blockLeaves<<4|leavesSpruce)
				}
			}
		}
	}
	c.SetBlock(x, baseY+trunkHeight, z, blockLeaves<<4|leavesSpruce)
}

// placeVegetation scatters grass, flowers, cacti, and dead bushes.
func (td *TreeDecorator) placeVegetation(c *worldgen.Chunk, rng *chunkRNG) {
	for range 20 {
		x := rng.nextN(16)
		z := rng.nextN(16)
		y := c.Height(x, z)
		if y <= seaLevel || y >= c.MaxY-4 || c.GetBlock(x, y+1, z) != blockAir {
			continue
		}
		top := c.GetBlock(x, y, z)

		switch c.Biome(x, z) {
		case biomeDesert:
			if top != blockSand<<4 {
				continue
			}
			if rng.nextN(8) == 0 {
				h := 1 + rng.nextN(3)
				for dy := 1; dy <= h; dy++ {
					c.SetBlock(x, y+dy, z, blockCactus<<4)
				}
			} else if rng.nextN(4) == 0 {
				c.SetBlock(x, y+1, z, blockDeadBush<<4)
			}

		case biomePlains, biomeForest, biomeDarkForest, biomeSavanna, biomeJungle:
			if top != blockGrass<<4 {
				continue
			}
			if rng.nextN(3) == 0 {
				// Metadata 1 is tall grass, not the dead shrub.
				c.SetBlock(x, y+1, z, blockTallGrass<<4|1)
			} else if rng.nextN(8) == 0 {
				c.SetBlock(x, y+1, z, blockFlower<<4)
			}

		case biomeTaiga, biomeSnowyTaiga, biomeTundra:
			if top != blockGrass<<4 {
				continue
			}
			if rng.nextN(6) == 0 {
				c.SetBlock(x, y+1, z, blockTallGrass<<4|1)
			}
		}
	}
}

func abs(x int) int {
	if x < 0 {
		return -x
	}
	return x
}
