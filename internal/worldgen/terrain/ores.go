package terrain

import "github.com/OCharnyshevich/lodgen/internal/worldgen"

// OrePlacer places ore veins in stone using seeded per-chunk RNG.
type OrePlacer struct {
	seed int64
}

// NewOrePlacer creates an OrePlacer from a seed.
func NewOrePlacer(seed int64) *OrePlacer {
	return &OrePlacer{seed: seed}
}

type oreConfig struct {
	block    uint16 // blockID
	minY     int    // relative to the chunk floor
	maxY     int
	veinSize int // max blocks per vein
	attempts int // veins per chunk
}

var ores = []oreConfig{
	{blockCoalOre, 0, 128, 12, 20},
	{blockIronOre, 0, 64, 8, 20},
	{blockGoldOre, 0, 32, 8, 2},
	{blockDiamondOre, 0, 16, 6, 1},
	{blockRedstoneOre, 0, 16, 6, 8},
	{blockLapisOre, 0, 32, 6, 1},
}

// Place scatters ore veins within the chunk.
func (op *OrePlacer) Place(c *worldgen.Chunk) {
	rng := newChunkRNG(op.seed, c.Pos.X, c.Pos.Z, 500)

	for _, ore := range ores {
		for range ore.attempts {
			x := rng.nextN(16)
			y := c.MinY + ore.minY + rng.nextN(ore.maxY-ore.minY)
			z := rng.nextN(16)

			if y >= c.Height(x, z) {
				continue
			}
			op.placeVein(c, x, y, z, ore.block, ore.veinSize, rng)
		}
	}
}

func (op *OrePlacer) placeVein(c *worldgen.Chunk, cx, cy, cz int, blockID uint16, size int, rng *chunkRNG) {
	for range size {
		if cx >= 0 && cx < 16 && cz >= 0 && cz < 16 && cy > c.MinY && cy < c.Height(cx, cz) {
			// Only replace stone.
			if c.GetBlock(cx, cy, cz) == blockStone<<4 {
				c.SetBlock(cx, cy, cz, blockID<<4)
			}
		}

		// Random walk.
		switch rng.nextN(6) {
		case 0:
			cx++
		case 1:
			cx--
		case 2:
			cy++
		case 3:
			cy--
		case 4:
			cz++
		case 5:
			cz--
		}
	}
}
