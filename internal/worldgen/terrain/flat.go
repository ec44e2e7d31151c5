package terrain

import (
	"context"

	"github.com/OCharnyshevich/lodgen/internal/worldgen"
)

// Flat generates a classic superflat world:
// bedrock at y=0, stone y=1..2, dirt y=3, grass y=4.
type Flat struct{}

// NewFlat creates a Flat generator.
func NewFlat(_ int64) *Flat {
	return &Flat{}
}

func (g *Flat) Steps() []worldgen.StageStep {
	return []worldgen.StageStep{
		{Stage: worldgen.StageBiomes, Run: g.fillBiomes},
		{Stage: worldgen.StageNoise, Run: g.fillLayers},
	}
}

func (g *Flat) NewState(*worldgen.Region) worldgen.GenState { return nil }

func (g *Flat) HeightAt(_, _ int) int {
	return 4 // top solid block is at y=4 (grass)
}

func (g *Flat) fillBiomes(_ context.Context, _ *worldgen.Region, c *worldgen.Chunk) error {
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			c.SetBiome(x, z, biomePlains)
		}
	}
	return nil
}

func (g *Flat) fillLayers(_ context.Context, _ *worldgen.Region, c *worldgen.Chunk) error {
	layers := [...]uint16{blockBedrock << 4, blockStone << 4, blockStone << 4, blockDirt << 4, blockGrass << 4}
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			for y, state := range layers {
				c.SetBlock(x, y, z, state)
			}
		}
	}
	c.RecomputeHeights()
	return nil
}
