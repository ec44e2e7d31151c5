package terrain

import "github.com/OCharnyshevich/lodgen/internal/worldgen"

// CaveCarver carves caves using 3D simplex noise.
type CaveCarver struct {
	noise1 *Noise
	noise2 *Noise
}

// NewCaveCarver creates a CaveCarver from a seed.
func NewCaveCarver(seed int64) *CaveCarver {
	return &CaveCarver{
		noise1: NewNoise(seed + 300),
		noise2: NewNoise(seed + 400),
	}
}

// Carve removes blocks to form caves. Bedrock and the top four blocks of
// every column are left alone; caves deeper than the lava level fill with
// lava.
func (cc *CaveCarver) Carve(c *worldgen.Chunk) {
	const threshold = 0.55
	lavaLevel := c.MinY + 10
	base := c.Pos

	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			bx := float64(base.X*16 + x)
			bz := float64(base.Z*16 + z)
			top := c.Height(x, z)
			if top < c.MinY+5 {
				continue
			}

			for y := c.MinY + 4; y < top-4; y++ {
				by := float64(y)
				n1 := cc.noise1.Noise3D(bx/32.0, by/24.0, bz/32.0)
				n2 := cc.noise2.Noise3D(bx/48.0, by/32.0, bz/48.0)
				if (n1+n2)/2.0 <= threshold {
					continue
				}
				if y < lavaLevel {
					c.SetBlock(x, y, z, blockLava<<4)
				} else {
					c.SetBlock(x, y, z, blockAir<<4)
				}
			}
		}
	}
}
