package terrain

import "github.com/OCharnyshevich/lodgen/internal/worldgen"

// applySurface places the biome-specific surface blocks on top of the stone column.
func applySurface(c *worldgen.Chunk, x, z, height int, biome byte) {
	floor := c.MinY + 3
	switch biome {
	case biomeDesert:
		for y := height; y > height-4 && y > floor; y-- {
			c.SetBlock(x, y, z, blockSand<<4)
		}
		for y := height - 4; y > height-6 && y > floor; y-- {
			c.SetBlock(x, y, z, blockSandstone<<4)
		}

	case biomeOcean:
		for y := height; y > height-3 && y > floor; y-- {
			c.SetBlock(x, y, z, blockGravel<<4)
		}
		for y := height - 3; y > height-5 && y > floor; y-- {
			c.SetBlock(x, y, z, blockDirt<<4)
		}

	case biomeBeach:
		for y := height; y > height-4 && y > floor; y-- {
			c.SetBlock(x, y, z, blockSand<<4)
		}
		if height-4 > floor {
			c.SetBlock(x, height-4, z, blockSandstone<<4)
		}

	case biomeMountains:
		// Bare stone peaks above the tree line.
		if height > 100 {
			return
		}
		applyDefaultSurface(c, x, z, height)

	default:
		applyDefaultSurface(c, x, z, height)
	}
}

// applyDefaultSurface places grass on top with dirt below.
func applyDefaultSurface(c *worldgen.Chunk, x, z, height int) {
	floor := c.MinY + 3
	if height <= floor {
		return
	}
	if height > seaLevel {
		c.SetBlock(x, height, z, blockGrass<<4)
	} else {
		c.SetBlock(x, height, z, blockDirt<<4)
	}
	for y := height - 1; y > height-4 && y > floor; y-- {
		c.SetBlock(x, y, z, blockDirt<<4)
	}
}
