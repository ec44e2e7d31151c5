// Package terrain provides the stage functions that turn empty chunks into
// terrain: structures, biomes, noise, surface, carvers, features and light.
package terrain

import (
	"context"
	"fmt"
	"slices"

	"github.com/OCharnyshevich/lodgen/internal/light"
	"github.com/OCharnyshevich/lodgen/internal/worldgen"
)

// Terrain is a generator usable as a worldgen pipeline.
type Terrain interface {
	// Steps returns the stage functions of the generator.
	Steps() []worldgen.StageStep
	// NewState returns per-task generator state, or nil.
	NewState(r *worldgen.Region) worldgen.GenState
	// HeightAt returns the terrain height at world block coordinates.
	HeightAt(blockX, blockZ int) int
}

// New returns the generator registered under name ("default" or "flat").
func New(name string, seed int64) (Terrain, error) {
	switch name {
	case "", "default":
		return NewGenerator(seed), nil
	case "flat":
		return NewFlat(seed), nil
	default:
		return nil, fmt.Errorf("unknown generator %q", name)
	}
}

// Options configures NewEnvironment.
type Options struct {
	Generator   string
	Seed        int64
	MinY        int
	MaxY        int
	HasSkyLight bool
	Pool        *light.Pool
	Source      worldgen.ChunkSource
}

// NewEnvironment builds a worldgen environment running the named generator
// and the light engine.
func NewEnvironment(opts Options) (*worldgen.Environment, error) {
	t, err := New(opts.Generator, opts.Seed)
	if err != nil {
		return nil, err
	}
	return worldgen.NewEnvironment(worldgen.EnvironmentConfig{
		MinY:     opts.MinY,
		MaxY:     opts.MaxY,
		Pool:     opts.Pool,
		Steps:    t.Steps(),
		Light:    NewLightEngine(opts.HasSkyLight).Light,
		Source:   opts.Source,
		NewState: t.NewState,
	})
}

// Generator produces vanilla-like terrain with biomes, caves, ores, trees
// and structures.
type Generator struct {
	terrain    *Noise
	detail     *Noise
	bedrock    *Noise
	biomes     *BiomeSource
	caves      *CaveCarver
	ores       *OrePlacer
	trees      *TreeDecorator
	structures *StructurePlanner
}

// NewGenerator creates a Generator from a seed.
func NewGenerator(seed int64) *Generator {
	g := &Generator{
		terrain: NewNoise(seed),
		detail:  NewNoise(seed + 1),
		bedrock: NewNoise(seed + 2),
		biomes:  NewBiomeSource(seed),
		caves:   NewCaveCarver(seed),
		ores:    NewOrePlacer(seed),
		trees:   NewTreeDecorator(seed),
	}
	g.structures = NewStructurePlanner(seed, g.HeightAt)
	return g
}

func (g *Generator) Steps() []worldgen.StageStep {
	return []worldgen.StageStep{
		{Stage: worldgen.StageStructureStart, Run: g.structureStarts, Flaky: true},
		{Stage: worldgen.StageStructureReference, Run: g.structureReferences},
		{Stage: worldgen.StageBiomes, Run: g.fillBiomes},
		{Stage: worldgen.StageNoise, Run: g.fillNoise},
		{Stage: worldgen.StageSurface, Run: g.buildSurface},
		{Stage: worldgen.StageCarvers, Run: g.carve},
		{Stage: worldgen.StageFeatures, Run: g.decorate, Flaky: true},
	}
}

func (g *Generator) NewState(*worldgen.Region) worldgen.GenState {
	return newStructureCache(g.structures)
}

func (g *Generator) HeightAt(blockX, blockZ int) int {
	return g.terrainHeight(blockX, blockZ, g.biomes.BiomeAt(blockX, blockZ))
}

func (g *Generator) cache(r *worldgen.Region) *structureCache {
	if sc, ok := r.State().(*structureCache); ok {
		return sc
	}
	sc := newStructureCache(g.structures)
	r.SetState(sc)
	return sc
}

func (g *Generator) structureStarts(_ context.Context, r *worldgen.Region, c *worldgen.Chunk) error {
	c.Structures = slices.Clone(g.cache(r).startsIn(c.Pos))
	return nil
}

func (g *Generator) structureReferences(_ context.Context, r *worldgen.Region, c *worldgen.Chunk) error {
	sc := g.cache(r)
	c.References = c.References[:0]
	for dz := -1; dz <= 1; dz++ {
		for dx := -1; dx <= 1; dx++ {
			if dx == 0 && dz == 0 {
				continue
			}
			pos := worldgen.ChunkPos{X: c.Pos.X + dx, Z: c.Pos.Z + dz}
			for _, s := range sc.startsIn(pos) {
				if touches(s, c.Pos) {
					c.References = append(c.References, pos)
					break
				}
			}
		}
	}
	return nil
}

func (g *Generator) fillBiomes(_ context.Context, _ *worldgen.Region, c *worldgen.Chunk) error {
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			c.SetBiome(x, z, g.biomes.BiomeAt(c.Pos.X*16+x, c.Pos.Z*16+z))
		}
	}
	return nil
}

func (g *Generator) fillNoise(_ context.Context, _ *worldgen.Region, c *worldgen.Chunk) error {
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			biome := c.Biome(x, z)
			h := g.terrainHeight(c.Pos.X*16+x, c.Pos.Z*16+z, biome)
			h = max(c.MinY+5, min(h, c.MaxY-16))
			c.Heights[z*16+x] = h
			g.fillColumn(c, x, z, h)
		}
	}
	return nil
}

func (g *Generator) buildSurface(_ context.Context, _ *worldgen.Region, c *worldgen.Chunk) error {
	for x := 0; x < 16; x++ {
		for z := 0; z < 16; z++ {
			applySurface(c, x, z, c.Height(x, z), c.Biome(x, z))
		}
	}
	return nil
}

func (g *Generator) carve(_ context.Context, _ *worldgen.Region, c *worldgen.Chunk) error {
	g.caves.Carve(c)
	return nil
}

func (g *Generator) decorate(_ context.Context, r *worldgen.Region, c *worldgen.Chunk) error {
	g.ores.Place(c)

	sc := g.cache(r)
	for _, s := range c.Structures {
		buildStructure(c, s)
	}
	for _, pos := range c.References {
		for _, s := range sc.startsIn(pos) {
			if touches(s, c.Pos) {
				buildStructure(c, s)
			}
		}
	}

	g.trees.Decorate(c)
	c.RecomputeHeights()
	return nil
}

// terrainHeight computes the terrain height at a world block coordinate.
// Different biomes scale noise amplitude differently.
func (g *Generator) terrainHeight(bx, bz int, biome byte) int {
	base := g.terrain.OctaveNoise2D(float64(bx)/128.0, float64(bz)/128.0, 6, 0.5)
	detail := g.detail.OctaveNoise2D(float64(bx)/32.0, float64(bz)/32.0, 3, 0.5)

	amplitude, baseHeight := biomeTerrainParams(biome)
	h := int(baseHeight + base*amplitude + detail*4.0)
	return max(1, min(h, 250))
}

// fillColumn fills a single block column with bedrock, stone, surface
// material and water.
func (g *Generator) fillColumn(c *worldgen.Chunk, x, z, height int) {
	floor := c.MinY
	c.SetBlock(x, floor, z, blockBedrock<<4)
	for y := floor + 1; y <= floor+3; y++ {
		if g.bedrock.Noise2D(float64(c.Pos.X*16+x+y*7)*0.5, float64(c.Pos.Z*16+z)*0.5) > 0 {
			c.SetBlock(x, y, z, blockBedrock<<4)
		} else {
			c.SetBlock(x, y, z, blockStone<<4)
		}
	}

	// The surface stage replaces the top of the stone.
	for y := floor + 4; y <= height; y++ {
		c.SetBlock(x, y, z, blockStone<<4)
	}

	for y := height + 1; y <= seaLevel && y < c.MaxY; y++ {
		c.SetBlock(x, y, z, blockWater<<4)
	}
}
